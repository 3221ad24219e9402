package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Ticket lifetimes. Tickets are short-lived, single-purpose bearer values
// handed to the browser between two steps of a flow.
const (
	// DefaultEnrollmentTTL bounds how long a user has to scan the QR code
	// and confirm their first code.
	DefaultEnrollmentTTL = 10 * time.Minute

	// DefaultChallengeTTL bounds the gap between a successful password step
	// and the TOTP step that completes the login.
	DefaultChallengeTTL = 5 * time.Minute
)

// Ticket purposes, carried in the "aud" claim so a ticket minted for one step
// can never be replayed at another.
const (
	PurposeEnrollment = "totp-enrollment"
	PurposeChallenge  = "totp-challenge"
)

// Claims are the claims carried by a ticket.
type Claims struct {
	jwt.RegisteredClaims

	// Secret is the pending base32 TOTP secret on enrollment tickets. It is
	// already shown to the user as a QR code, so signing without encryption
	// does not disclose anything new.
	Secret string `json:"tfs,omitempty"`

	// Authentication Methods Reference, e.g. ["pwd"] after the password step.
	AMR []string `json:"amr,omitempty"`
}

// NewClaims builds minimally-correct ticket claims.
func NewClaims(issuer, purpose, subject string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{purpose},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidatePurpose checks the ticket was minted for the given step.
func (c *Claims) ValidatePurpose(purpose string) error {
	if !slices.Contains(c.Audience, purpose) {
		return ErrPurpose
	}
	return nil
}

// ValidateExpiry ensures the ticket hasn't expired (exp) and isn't before nbf.
// A ticket without exp is rejected.
func (c *Claims) ValidateExpiry(now time.Time) error {
	if c.ExpiresAt == nil || !now.Before(c.ExpiresAt.Time) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Time) {
		return ErrNotYetValid
	}
	return nil
}

// HasAMR reports whether the ticket records the given authentication method.
func (c *Claims) HasAMR(method string) bool {
	return slices.Contains(c.AMR, method)
}
