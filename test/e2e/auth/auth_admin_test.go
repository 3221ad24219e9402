//go:build e2e

package auth_test

import (
	"testing"

	"github.com/aussiebroadwan/rodneyauth/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestAdminManagesUsers exercises every admin update against the seeded
// accounts.
func TestAdminManagesUsers(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	ctx := t.Context()
	admin := loginAdmin(t, baseURL)

	member := findUser(t, admin, memberEmail)
	require.Equal(t, "MEMBER", member.Role)

	require.NoError(t, admin.UpdateUserRole(ctx, member.ID, "MANAGER"))
	require.Equal(t, "MANAGER", findUser(t, admin, memberEmail).Role)

	err := admin.UpdateUserRole(ctx, member.ID, "OWNER")
	require.ErrorIs(t, err, authsdk.ErrInvalidInput)

	require.NoError(t, admin.UpdateUserPassword(ctx, member.ID, "N3w-Member-Pass"))

	memberClient := authsdk.NewSDKClient(baseURL)
	_, err = memberClient.LoginPassword(ctx, memberEmail, seedPassword)
	require.ErrorIs(t, err, authsdk.ErrInvalidCredentials)
	_, err = memberClient.LoginPassword(ctx, memberEmail, "N3w-Member-Pass")
	require.NoError(t, err)

	require.NoError(t, admin.SetTwoFactorRequirement(ctx, member.ID, true))
	require.True(t, findUser(t, admin, memberEmail).RequiresTwoFactor)

	enrolling := authsdk.NewSDKClient(baseURL)
	held, err := enrolling.LoginPassword(ctx, memberEmail, "N3w-Member-Pass")
	require.NoError(t, err)
	require.NotNil(t, held.Enrollment)

	done, err := enrolling.CompleteEnrollment(ctx, held.Enrollment.Ticket, currentCode(t, held.Enrollment.Secret))
	require.NoError(t, err)
	require.True(t, done.User.TwoFactorEnabled)
	require.True(t, findUser(t, admin, memberEmail).TwoFactorEnabled)

	require.NoError(t, admin.ResetTwoFactor(ctx, member.ID))
}

// TestAdminRoutesRejectNonAdmins checks members cannot reach admin routes.
func TestAdminRoutesRejectNonAdmins(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	ctx := t.Context()

	_, err := authsdk.NewSDKClient(baseURL).ListUsers(ctx)
	require.ErrorIs(t, err, authsdk.ErrUnauthenticated)

	manager := authsdk.NewSDKClient(baseURL)
	_, err = manager.LoginPassword(ctx, managerEmail, seedPassword)
	require.NoError(t, err)

	_, err = manager.ListUsers(ctx)
	require.ErrorIs(t, err, authsdk.ErrNotAuthorized)

	err = manager.UpdateUserRole(ctx, "01ARZ3NDEKTSV4RYFFQ69G5FAV", "ADMIN")
	require.ErrorIs(t, err, authsdk.ErrNotAuthorized)
}
