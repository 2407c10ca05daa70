// Package bootstrap seeds the first platform administrator.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"orgdesk.io/internal/auth"
	"orgdesk.io/internal/config"
)

// Admins is the slice of the auth service bootstrap needs.
type Admins interface {
	FindByEmail(ctx context.Context, kind auth.Kind, email string) (*auth.Principal, error)
	CreateAdmin(ctx context.Context, in auth.NewPrincipal) (*auth.Principal, error)
}

// EnsureAdmin creates the configured platform admin if it does not exist yet.
// It is a no-op when no admin credentials are configured.
func EnsureAdmin(ctx context.Context, cfg config.Config, admins Admins, logger *logrus.Logger) error {
	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
	if email == "" || cfg.AdminPassword == "" {
		return nil
	}

	if _, err := admins.FindByEmail(ctx, auth.KindAdmin, email); err == nil {
		return nil
	} else if !errors.Is(err, auth.ErrNotFound) {
		return fmt.Errorf("bootstrap lookup admin: %w", err)
	}

	created, err := admins.CreateAdmin(ctx, auth.NewPrincipal{
		Name:     "Administrator",
		Email:    email,
		Password: cfg.AdminPassword,
	})
	if err != nil {
		if errors.Is(err, auth.ErrConflict) {
			return nil
		}
		return fmt.Errorf("bootstrap create admin: %w", err)
	}
	logger.WithField("principal_id", created.ID).Info("bootstrap admin created")
	return nil
}
