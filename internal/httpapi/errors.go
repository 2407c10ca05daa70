package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"orgdesk.io/internal/auth"
	"orgdesk.io/internal/obs"
)

var (
	errBodyRequired = errors.New("request body is required")
	errBodyTooLarge = errors.New("request body too large")
)

// decodeJSON reads exactly one JSON value into dst, refusing unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return errBodyRequired
		case errors.As(err, &maxErr):
			return errBodyTooLarge
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

// readJSON decodes the body into dst and answers the request itself on failure.
func readJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := decodeJSON(r, dst)
	switch {
	case err == nil:
		return true
	case errors.Is(err, errBodyTooLarge):
		writeError(w, r, http.StatusRequestEntityTooLarge, err.Error())
	default:
		writeError(w, r, http.StatusBadRequest, err.Error())
	}
	return false
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"message": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	if code == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="orgdesk"`)
	}
	writeJSON(w, code, payload)
}

// writeDenial answers a negative authorization decision.
func writeDenial(w http.ResponseWriter, r *http.Request, reason auth.DenyReason) {
	switch reason {
	case auth.ReasonUnauthenticated:
		writeError(w, r, http.StatusUnauthorized, "authentication required")
	case auth.ReasonAccountInactive:
		writeError(w, r, http.StatusForbidden, "account is not active")
	default:
		writeError(w, r, http.StatusForbidden, "insufficient role")
	}
}

// handleServiceError maps domain errors to status codes. Unexpected errors
// are logged and reported without detail.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		accessErr *auth.AccessError
		credErr   *auth.CredentialError
	)
	switch {
	case errors.As(err, &accessErr):
		writeDenial(w, r, accessErr.Reason)
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, r, http.StatusUnauthorized, auth.ErrInvalidCredentials.Error())
	case errors.Is(err, auth.ErrExpiredToken):
		writeError(w, r, http.StatusUnauthorized, "token expired")
	case errors.Is(err, auth.ErrRevokedToken):
		writeError(w, r, http.StatusUnauthorized, "token revoked")
	case errors.Is(err, auth.ErrInvalidToken):
		writeError(w, r, http.StatusUnauthorized, "invalid token")
	case errors.Is(err, auth.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, strings.TrimPrefix(err.Error(), "auth: "))
	case errors.Is(err, auth.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "resource not found")
	case errors.Is(err, auth.ErrConflict):
		writeError(w, r, http.StatusConflict, "resource already exists")
	case errors.As(err, &credErr):
		obs.Logger().WithField("request_id", RequestIDFromContext(r.Context())).
			WithField("op", credErr.Op).Error("credential processing failed")
		writeError(w, r, http.StatusInternalServerError, "internal error")
	default:
		obs.Logger().WithField("request_id", RequestIDFromContext(r.Context())).
			WithError(err).Error("request failed")
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
