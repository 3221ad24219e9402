package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")
	ErrIssuer      = errors.New("jwtx: issuer mismatch")
	ErrPurpose     = errors.New("jwtx: ticket purpose mismatch")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrNotYetValid = errors.New("jwtx: token not yet valid")
	ErrWeakKey     = errors.New("jwtx: signing key shorter than 32 bytes")
)

// Tickets signs and verifies HS256 tickets with a single symmetric key. The
// key never leaves the process, so there is no kid and no key set.
type Tickets struct {
	key    []byte
	issuer string

	// Now is the clock used for iat/exp. Defaults to time.Now.
	Now func() time.Time
}

// NewTickets creates a ticket signer/verifier.
func NewTickets(key []byte, issuer string) (*Tickets, error) {
	if len(key) < 32 {
		return nil, ErrWeakKey
	}
	return &Tickets{key: key, issuer: issuer, Now: time.Now}, nil
}

func (t *Tickets) now() time.Time {
	if t.Now == nil {
		return time.Now().UTC()
	}
	return t.Now().UTC()
}

// Issue signs a ticket for purpose and subject. with may adjust the claims
// before signing (e.g. to attach an enrollment secret).
func (t *Tickets) Issue(purpose, subject string, ttl time.Duration, with func(*Claims)) (string, time.Time, error) {
	claims := NewClaims(t.issuer, purpose, subject, ttl, t.now())
	if with != nil {
		with(&claims)
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("jwtx: sign: %w", err)
	}
	return token, claims.ExpiresAt.Time, nil
}

// Verify validates the signature, issuer, purpose and lifetime of a ticket.
func (t *Tickets) Verify(tokenStr, purpose string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
	)

	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(*jwt.Token) (any, error) {
		return t.key, nil
	})
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return nil, ErrNotYetValid
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return nil, ErrInvalidSig
	default:
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrMalformed
	}

	if err := claims.ValidateIssuer(t.issuer); err != nil {
		return nil, err
	}
	if err := claims.ValidatePurpose(purpose); err != nil {
		return nil, err
	}
	if err := claims.ValidateExpiry(t.now()); err != nil {
		return nil, err
	}

	return claims, nil
}
