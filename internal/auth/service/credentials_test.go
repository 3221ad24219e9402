package service

import (
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

const testSecret = "JBSWY3DPEHPK3PXP"

func TestVerifyTOTP(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	v := Verifier{Now: func() time.Time { return now }}

	codeAt := func(d time.Duration) string {
		code, err := totp.GenerateCode(testSecret, now.Add(d))
		require.NoError(t, err)
		return code
	}

	require.True(t, v.VerifyTOTP(codeAt(0), testSecret))
	require.True(t, v.VerifyTOTP(codeAt(-30*time.Second), testSecret))
	require.True(t, v.VerifyTOTP(codeAt(30*time.Second), testSecret))

	// One step of skew either way, never two.
	require.False(t, v.VerifyTOTP(codeAt(-60*time.Second), testSecret))
	require.False(t, v.VerifyTOTP(codeAt(60*time.Second), testSecret))
	require.False(t, v.VerifyTOTP(codeAt(-90*time.Second), testSecret))
	require.False(t, v.VerifyTOTP(codeAt(90*time.Second), testSecret))
}

func TestVerifyTOTPRejectsMalformed(t *testing.T) {
	v := Verifier{}

	for _, code := range []string{"", "12345", "1234567", "12a456", " 123456", "１２３４５６"} {
		require.False(t, v.VerifyTOTP(code, testSecret), "code %q", code)
	}
	require.False(t, v.VerifyTOTP("123456", ""))
	require.False(t, v.VerifyTOTP("123456", "not base32!"))
}

func TestVerifyPassword(t *testing.T) {
	v := Verifier{}

	require.NotEmpty(t, dummyHash())
	require.False(t, v.VerifyPassword("anything", dummyHash()))
	require.False(t, v.VerifyPassword("anything", ""))
	require.False(t, v.VerifyPassword("anything", "$argon2id$garbage"))
}
