//go:build e2e

package auth_test

import (
	"testing"

	"github.com/aussiebroadwan/rodneyauth/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestSeededAccounts checks each seeded account signs in the way its
// two-factor requirement dictates.
func TestSeededAccounts(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	ctx := t.Context()

	t.Run("member signs in with password", func(t *testing.T) {
		client := authsdk.NewSDKClient(baseURL)
		flow, err := client.LoginPassword(ctx, memberEmail, seedPassword)
		require.NoError(t, err)
		require.Equal(t, "/dashboard", flow.RedirectTo)
		require.Equal(t, "MEMBER", flow.User.Role)
	})

	t.Run("admin needs the authenticator", func(t *testing.T) {
		client := authsdk.NewSDKClient(baseURL)
		flow, err := client.LoginPassword(ctx, adminEmail, seedPassword)
		require.NoError(t, err)
		require.NotNil(t, flow.ChallengeExpiresAt)

		_, err = client.GetSession(ctx)
		require.ErrorIs(t, err, authsdk.ErrUnauthenticated)

		_, err = client.LoginTOTP(ctx, adminEmail, "000000")
		require.ErrorIs(t, err, authsdk.ErrInvalidCode)
	})

	t.Run("admin code without password step", func(t *testing.T) {
		client := authsdk.NewSDKClient(baseURL)
		_, err := client.LoginTOTP(ctx, adminEmail, currentCode(t, adminTOTPSecret))
		require.ErrorIs(t, err, authsdk.ErrChallengeRequired)
	})

	t.Run("admin completes both steps", func(t *testing.T) {
		client := loginAdmin(t, baseURL)
		session, err := client.GetSession(ctx)
		require.NoError(t, err)
		require.Equal(t, "ADMIN", session.Role)
	})
}

// TestLogoutEndsSession signs out and checks the session is gone.
func TestLogoutEndsSession(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	ctx := t.Context()
	client := authsdk.NewSDKClient(baseURL)

	_, err := client.LoginPassword(ctx, managerEmail, seedPassword)
	require.NoError(t, err)

	flow, err := client.Logout(ctx)
	require.NoError(t, err)
	require.Equal(t, "/", flow.RedirectTo)

	_, err = client.GetSession(ctx)
	require.ErrorIs(t, err, authsdk.ErrUnauthenticated)
}

// TestSelfServiceEnrollment enrolls an authenticator from a signed-in
// session.
func TestSelfServiceEnrollment(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	ctx := t.Context()
	client := authsdk.NewSDKClient(baseURL)

	_, err := client.LoginPassword(ctx, memberEmail, seedPassword)
	require.NoError(t, err)

	enrollment, err := client.EnrollTOTP(ctx)
	require.NoError(t, err)
	require.Equal(t, memberEmail, enrollment.Account)

	require.NoError(t, client.VerifyTOTP(ctx, enrollment.Ticket, currentCode(t, enrollment.Secret)))

	session, err := client.GetSession(ctx)
	require.NoError(t, err)
	require.True(t, session.TwoFactorEnabled)

	_, err = client.EnrollTOTP(ctx)
	require.ErrorIs(t, err, authsdk.ErrAlreadyEnrolled)
}
