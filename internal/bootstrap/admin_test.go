package bootstrap

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"orgdesk.io/internal/auth"
	"orgdesk.io/internal/config"
	"orgdesk.io/internal/revocation"
	"orgdesk.io/internal/store/memory"
)

func newAuth(t *testing.T) *auth.Service {
	t.Helper()
	issuer, err := auth.NewIssuer([]byte(strings.Repeat("s", auth.MinSecretLength)), revocation.NewMemory())
	require.NoError(t, err)
	svc, err := auth.NewService(memory.New(), auth.NewHasher(bcrypt.MinCost), issuer)
	require.NoError(t, err)
	return svc
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	svc := newAuth(t)
	ctx := context.Background()
	cfg := config.Config{AdminEmail: "Root@Example.com", AdminPassword: "bootstrap-pass"}

	require.NoError(t, EnsureAdmin(ctx, cfg, svc, quietLogger()))
	require.NoError(t, EnsureAdmin(ctx, cfg, svc, quietLogger()))

	admins, err := svc.ListAdmins(ctx)
	require.NoError(t, err)
	require.Len(t, admins, 1)
	require.Equal(t, "root@example.com", admins[0].Email)

	_, _, err = svc.Login(ctx, auth.KindAdmin, "root@example.com", "bootstrap-pass")
	require.NoError(t, err)
}

func TestEnsureAdminSkipsWithoutCredentials(t *testing.T) {
	svc := newAuth(t)
	require.NoError(t, EnsureAdmin(context.Background(), config.Config{}, svc, quietLogger()))
	admins, err := svc.ListAdmins(context.Background())
	require.NoError(t, err)
	require.Empty(t, admins)
}

func TestEnsureAdminRejectsWeakPassword(t *testing.T) {
	svc := newAuth(t)
	cfg := config.Config{AdminEmail: "root@example.com", AdminPassword: "short"}
	err := EnsureAdmin(context.Background(), cfg, svc, quietLogger())
	require.ErrorIs(t, err, auth.ErrInvalidInput)
}
