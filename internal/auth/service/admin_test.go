package service

import (
	"context"
	"testing"

	"github.com/aussiebroadwan/rodneyauth/internal/auth/domain"
	"github.com/aussiebroadwan/rodneyauth/pkg/idx"
	"github.com/stretchr/testify/require"
)

func sessionUser(p domain.Profile) *domain.SessionUser {
	return &domain.SessionUser{Profile: p}
}

func TestAdminRequiresAdminRole(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	manager := env.createUser(t, NewUser{Email: "manager@example.com", Role: domain.RoleManager})
	member := env.createUser(t, NewUser{Email: "member@example.com"})

	for name, actor := range map[string]*domain.SessionUser{
		"anonymous": nil,
		"manager":   sessionUser(manager),
		"member":    sessionUser(member),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := env.admin.ListUsers(ctx, actor)
			require.ErrorIs(t, err, ErrNotAuthorized)

			require.ErrorIs(t, env.admin.UpdateRole(ctx, actor, member.ID, "ADMIN"), ErrNotAuthorized)
			require.ErrorIs(t, env.admin.SetTwoFactorRequirement(ctx, actor, member.ID, true), ErrNotAuthorized)
			require.ErrorIs(t, env.admin.UpdatePassword(ctx, actor, member.ID, "new password"), ErrNotAuthorized)
			require.ErrorIs(t, env.admin.ResetTwoFactor(ctx, actor, member.ID), ErrNotAuthorized)

			// Bad input from a non-admin still reports the role failure.
			require.ErrorIs(t, env.admin.UpdateRole(ctx, actor, "bogus", "nope"), ErrNotAuthorized)
		})
	}

	u, err := env.store.Users().GetUserByID(ctx, member.ID)
	require.NoError(t, err)
	require.Equal(t, domain.RoleMember, u.Role)
}

func TestAdminOperations(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	admin := sessionUser(env.createUser(t, NewUser{Email: "root@example.com", Role: domain.RoleAdmin}))
	target := env.createUser(t, NewUser{Email: "target@example.com", TwoFactorSecret: ptr(testSecret)})

	t.Run("list", func(t *testing.T) {
		users, err := env.admin.ListUsers(ctx, admin)
		require.NoError(t, err)
		require.Len(t, users, 2)
	})

	t.Run("update role", func(t *testing.T) {
		require.NoError(t, env.admin.UpdateRole(ctx, admin, target.ID, "manager"))

		p, err := env.directory.GetByID(ctx, target.ID)
		require.NoError(t, err)
		require.Equal(t, domain.RoleManager, p.Role)

		require.ErrorIs(t, env.admin.UpdateRole(ctx, admin, target.ID, "OWNER"), ErrInvalidInput)
	})

	t.Run("two factor requirement", func(t *testing.T) {
		require.NoError(t, env.admin.SetTwoFactorRequirement(ctx, admin, target.ID, true))

		p, err := env.directory.GetByID(ctx, target.ID)
		require.NoError(t, err)
		require.True(t, p.RequiresTwoFactor)
	})

	t.Run("update password", func(t *testing.T) {
		require.ErrorIs(t, env.admin.UpdatePassword(ctx, admin, target.ID, "short"), ErrInvalidInput)
		require.NoError(t, env.admin.UpdatePassword(ctx, admin, target.ID, "brand new password"))

		_, err := env.auth.LoginPassword(ctx, "target@example.com", "correct horse")
		require.ErrorIs(t, err, ErrInvalidCredentials)

		out, err := env.auth.LoginPassword(ctx, "target@example.com", "brand new password")
		require.NoError(t, err)
		require.NotNil(t, out.Challenge)
	})

	t.Run("reset two factor", func(t *testing.T) {
		require.NoError(t, env.admin.ResetTwoFactor(ctx, admin, target.ID))

		out, err := env.auth.LoginPassword(ctx, "target@example.com", "brand new password")
		require.NoError(t, err)
		require.Nil(t, out.Session)
		require.NotNil(t, out.Enrollment)
	})

	t.Run("target validation", func(t *testing.T) {
		require.ErrorIs(t, env.admin.UpdateRole(ctx, admin, "not-an-id", "ADMIN"), ErrInvalidInput)
		require.ErrorIs(t, env.admin.UpdateRole(ctx, admin, idx.New().String(), "ADMIN"), ErrUserNotFound)
		require.ErrorIs(t, env.admin.ResetTwoFactor(ctx, admin, idx.New().String()), ErrUserNotFound)
	})
}
