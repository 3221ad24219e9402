package service

import (
	"context"
	"testing"

	"github.com/aussiebroadwan/rodneyauth/internal/auth/domain"
	"github.com/stretchr/testify/require"
)

func TestSeed(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	seeder := &SeedService{Directory: env.directory}

	accounts := DefaultSeedAccounts("admin@example.com", "manager@example.com", "member@example.com")

	n, err := seeder.Seed(ctx, "", accounts)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	n, err = seeder.Seed(ctx, "", accounts)
	require.NoError(t, err)
	require.Zero(t, n)

	admin, err := env.directory.FindByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, admin.Role)
	require.True(t, admin.RequiresTwoFactor)

	held, err := env.auth.LoginPassword(ctx, "admin@example.com", DefaultSeedPassword)
	require.NoError(t, err)
	require.Nil(t, held.Session)
	require.NotNil(t, held.Enrollment)

	in, err := env.auth.CompleteEnrollment(ctx, held.Enrollment.Ticket, env.code(t, held.Enrollment.Secret))
	require.NoError(t, err)
	require.NotNil(t, in.Session)
	require.Equal(t, domain.RoleAdmin, in.User.Role)

	out, err := env.auth.LoginPassword(ctx, "member@example.com", DefaultSeedPassword)
	require.NoError(t, err)
	require.NotNil(t, out.Session)
}

func TestSeedWithAuthenticator(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	seeder := &SeedService{Directory: env.directory}

	accounts := DefaultSeedAccounts("admin@example.com", "manager@example.com", "member@example.com")
	accounts[0].TwoFactorSecret = " jbswy3dpehpk3pxp jbswy3dpehpk3pxp "

	_, err := seeder.Seed(ctx, "S3ed-password", accounts)
	require.NoError(t, err)

	out, err := env.auth.LoginPassword(ctx, "admin@example.com", "S3ed-password")
	require.NoError(t, err)
	require.NotNil(t, out.Challenge)
	require.Nil(t, out.Session)

	out, err = env.auth.LoginTOTP(ctx, "admin@example.com", env.code(t, testSecret+testSecret), out.Challenge.Ticket)
	require.NoError(t, err)
	require.NotNil(t, out.Session)
	require.Equal(t, domain.RoleAdmin, out.User.Role)
}

func TestSeedRejectsBadAuthenticatorSecret(t *testing.T) {
	ctx := context.Background()

	for name, secret := range map[string]string{
		"not base32": "not-base32!!",
		"too short":  testSecret,
	} {
		t.Run(name, func(t *testing.T) {
			env := newTestEnv(t)
			seeder := &SeedService{Directory: env.directory}

			accounts := DefaultSeedAccounts("admin@example.com", "manager@example.com", "member@example.com")
			accounts[0].TwoFactorSecret = secret

			n, err := seeder.Seed(ctx, "", accounts)
			require.ErrorIs(t, err, ErrInvalidInput)
			require.Zero(t, n)

			users, err := env.store.Users().ListUsers(ctx)
			require.NoError(t, err)
			require.Empty(t, users)
		})
	}
}

func TestNormalizeTOTPSecret(t *testing.T) {
	got, err := normalizeTOTPSecret("jbsw y3dp ehpk 3pxp jbsw y3dp ehpk 3pxp====")
	require.NoError(t, err)
	require.Equal(t, testSecret+testSecret, got)

	_, err = normalizeTOTPSecret("")
	require.ErrorIs(t, err, ErrInvalidInput)
}
