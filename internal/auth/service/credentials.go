package service

import (
	"encoding/base32"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/rodneyauth/pkg/cryptox"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// TOTP parameters shared by enrollment and verification. Authenticator apps
// assume these when the otpauth URI omits them.
const (
	totpPeriod = 30
	totpSkew   = 1
	totpDigits = otp.DigitsSix
	totpAlgo   = otp.AlgorithmSHA1
)

// minTOTPSecretBytes is the shortest shared secret RFC 4226 allows.
const minTOTPSecretBytes = 16

// normalizeTOTPSecret uppercases a base32 secret and drops spaces and
// padding, rejecting anything that does not decode to a usable key.
func normalizeTOTPSecret(secret string) (string, error) {
	s := strings.ToUpper(strings.Join(strings.Fields(secret), ""))
	s = strings.TrimRight(s, "=")

	key, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(s)
	if err != nil {
		return "", fmt.Errorf("%w: authenticator secret is not base32", ErrInvalidInput)
	}
	if len(key) < minTOTPSecretBytes {
		return "", fmt.Errorf("%w: authenticator secret must be at least %d bytes", ErrInvalidInput, minTOTPSecretBytes)
	}
	return s, nil
}

// Verifier checks passwords and TOTP codes. It holds no state beyond its
// clock and is safe for concurrent use.
type Verifier struct {
	Now func() time.Time
}

func (v Verifier) now() time.Time {
	if v.Now == nil {
		return time.Now().UTC()
	}
	return v.Now().UTC()
}

// VerifyPassword reports whether plain matches storedHash. A malformed or
// unknown hash is a mismatch, never an error.
func (v Verifier) VerifyPassword(plain, storedHash string) bool {
	return cryptox.VerifyPassword(plain, storedHash) == nil
}

// VerifyTOTP accepts exactly six ASCII digits matching the current 30s step
// or the step on either side.
func (v Verifier) VerifyTOTP(code, secret string) bool {
	if secret == "" || !isSixDigits(code) {
		return false
	}

	ok, err := totp.ValidateCustom(code, secret, v.now(), totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      totpSkew,
		Digits:    totpDigits,
		Algorithm: totpAlgo,
	})
	return err == nil && ok
}

func isSixDigits(code string) bool {
	if len(code) != 6 {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}

// dummyHash is verified against when an email is unknown so the miss costs
// about as much as a wrong password.
var dummyHash = sync.OnceValue(func() string {
	h, err := cryptox.HashPassword("rodneyauth-timing-equaliser")
	if err != nil {
		return ""
	}
	return h
})
