package domain_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/rodneyauth/internal/auth/domain"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	for in, want := range map[string]domain.Role{
		"ADMIN":    domain.RoleAdmin,
		"manager":  domain.RoleManager,
		" Member ": domain.RoleMember,
	} {
		got, err := domain.ParseRole(in)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	for _, in := range []string{"", "root", "ADMINS"} {
		_, err := domain.ParseRole(in)
		require.ErrorIs(t, err, domain.ErrUnknownRole)
	}
}

func TestProfileHidesSecrets(t *testing.T) {
	secret := "JBSWY3DPEHPK3PXP"
	u := domain.User{
		ID:              "u1",
		Email:           "ada@example.com",
		PasswordHash:    "$argon2id$...",
		Role:            domain.RoleMember,
		TwoFactorSecret: &secret,
	}

	p := u.Profile()
	require.True(t, p.TwoFactorEnabled)
	require.Equal(t, "ada@example.com", p.Email)

	empty := ""
	u.TwoFactorSecret = &empty
	require.False(t, u.TwoFactorEnabled())
	u.TwoFactorSecret = nil
	require.False(t, u.Profile().TwoFactorEnabled)
}

func TestSessionExpired(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	s := domain.Session{ExpiresAt: now}

	require.True(t, s.Expired(now))
	require.True(t, s.Expired(now.Add(time.Second)))
	require.False(t, s.Expired(now.Add(-time.Second)))
}
