package jwtx_test

import (
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/rodneyauth/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func newTickets(t *testing.T, now *time.Time) *jwtx.Tickets {
	t.Helper()
	tk, err := jwtx.NewTickets(testKey, "RodneyAuth")
	require.NoError(t, err)
	tk.Now = func() time.Time { return *now }
	return tk
}

func TestNewTickets_RejectsShortKey(t *testing.T) {
	_, err := jwtx.NewTickets([]byte("short"), "RodneyAuth")
	require.ErrorIs(t, err, jwtx.ErrWeakKey)
}

func TestTickets_RoundTrip(t *testing.T) {
	now := time.Unix(1_700_000_000, 0).UTC()
	tk := newTickets(t, &now)

	token, exp, err := tk.Issue(jwtx.PurposeEnrollment, "ada@example.com", jwtx.DefaultEnrollmentTTL, func(c *jwtx.Claims) {
		c.Secret = "JBSWY3DPEHPK3PXP"
	})
	require.NoError(t, err)
	require.True(t, now.Add(jwtx.DefaultEnrollmentTTL).Equal(exp))

	claims, err := tk.Verify(token, jwtx.PurposeEnrollment)
	require.NoError(t, err)
	require.Equal(t, "ada@example.com", claims.Subject)
	require.Equal(t, "JBSWY3DPEHPK3PXP", claims.Secret)
	require.Equal(t, "RodneyAuth", claims.Issuer)
	require.NotEmpty(t, claims.ID)
}

func TestTickets_PurposeIsBinding(t *testing.T) {
	now := time.Unix(1_700_000_000, 0).UTC()
	tk := newTickets(t, &now)

	token, _, err := tk.Issue(jwtx.PurposeChallenge, "user-1", jwtx.DefaultChallengeTTL, func(c *jwtx.Claims) {
		c.AMR = []string{"pwd"}
	})
	require.NoError(t, err)

	_, err = tk.Verify(token, jwtx.PurposeEnrollment)
	require.ErrorIs(t, err, jwtx.ErrPurpose)

	claims, err := tk.Verify(token, jwtx.PurposeChallenge)
	require.NoError(t, err)
	require.True(t, claims.HasAMR("pwd"))
	require.False(t, claims.HasAMR("otp"))
}

func TestTickets_Expiry(t *testing.T) {
	now := time.Unix(1_700_000_000, 0).UTC()
	tk := newTickets(t, &now)

	token, _, err := tk.Issue(jwtx.PurposeChallenge, "user-1", time.Minute, nil)
	require.NoError(t, err)

	now = now.Add(59 * time.Second)
	_, err = tk.Verify(token, jwtx.PurposeChallenge)
	require.NoError(t, err)

	now = now.Add(2 * time.Second)
	_, err = tk.Verify(token, jwtx.PurposeChallenge)
	require.ErrorIs(t, err, jwtx.ErrExpired)
}

func TestTickets_RejectsForeignKeyAndIssuer(t *testing.T) {
	now := time.Unix(1_700_000_000, 0).UTC()
	tk := newTickets(t, &now)

	other, err := jwtx.NewTickets([]byte(strings.Repeat("z", 32)), "RodneyAuth")
	require.NoError(t, err)
	other.Now = tk.Now
	forged, _, err := other.Issue(jwtx.PurposeChallenge, "user-1", time.Minute, nil)
	require.NoError(t, err)

	_, err = tk.Verify(forged, jwtx.PurposeChallenge)
	require.ErrorIs(t, err, jwtx.ErrInvalidSig)

	foreign, err := jwtx.NewTickets(testKey, "SomeoneElse")
	require.NoError(t, err)
	foreign.Now = tk.Now
	token, _, err := foreign.Issue(jwtx.PurposeChallenge, "user-1", time.Minute, nil)
	require.NoError(t, err)

	_, err = tk.Verify(token, jwtx.PurposeChallenge)
	require.ErrorIs(t, err, jwtx.ErrIssuer)
}

func TestTickets_RejectsNoneAndGarbage(t *testing.T) {
	now := time.Unix(1_700_000_000, 0).UTC()
	tk := newTickets(t, &now)

	claims := jwtx.NewClaims("RodneyAuth", jwtx.PurposeChallenge, "user-1", time.Minute, now)
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = tk.Verify(unsigned, jwtx.PurposeChallenge)
	require.Error(t, err)

	_, err = tk.Verify("not.a.jwt", jwtx.PurposeChallenge)
	require.ErrorIs(t, err, jwtx.ErrMalformed)
}

func TestClaims_ValidateExpiry(t *testing.T) {
	now := time.Now().UTC()

	missing := &jwtx.Claims{}
	require.ErrorIs(t, missing.ValidateExpiry(now), jwtx.ErrExpired)

	early := &jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		NotBefore: jwt.NewNumericDate(now.Add(time.Minute)),
	}}
	require.ErrorIs(t, early.ValidateExpiry(now), jwtx.ErrNotYetValid)
}
