// Package audit records security-relevant events through the shared logger.
package audit

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"orgdesk.io/internal/auth"
	"orgdesk.io/internal/obs"
)

type ctxKey string

const requestIDKey ctxKey = "audit_request_id"

// WithRequestID attaches the request identifier to the context for audit logging.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext extracts the request id from context if present.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// redacted field names never reach the log, whatever the caller passes.
var redacted = map[string]bool{
	"password":         true,
	"new_password":     true,
	"current_password": true,
	"token":            true,
	"access_token":     true,
	"refresh_token":    true,
	"password_hash":    true,
}

// LogEvent writes an audit log entry enriched with request and principal context.
func LogEvent(ctx context.Context, event string, fields map[string]any) error {
	event = strings.TrimSpace(event)
	if event == "" {
		return errors.New("event name is required")
	}
	entry := logrus.Fields{
		"type":  "audit",
		"event": event,
	}
	if rid := RequestIDFromContext(ctx); rid != "" {
		entry["request_id"] = rid
	}
	if p, ok := auth.PrincipalFromContext(ctx); ok {
		entry["principal_id"] = p.ID
		entry["principal_kind"] = string(p.Kind)
		if p.OrganizationID != "" {
			entry["organization_id"] = p.OrganizationID
		}
	}
	copyFields := make(map[string]any, len(fields))
	for k, v := range fields {
		if redacted[strings.ToLower(k)] {
			continue
		}
		copyFields[k] = v
	}
	entry["fields"] = copyFields

	obs.Logger().WithFields(entry).Info("audit")
	return nil
}
