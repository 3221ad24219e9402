package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/rodneyauth/internal/auth/domain"
	"github.com/aussiebroadwan/rodneyauth/internal/auth/store"
	"github.com/aussiebroadwan/rodneyauth/pkg/jwtx"
	"github.com/aussiebroadwan/rodneyauth/pkg/slogx"
	"github.com/pquerna/otp/totp"
	"github.com/skip2/go-qrcode"
)

const (
	DefaultIssuer = "RodneyAuth"

	qrCodeSize = 256
)

// EnrollmentService hands out TOTP secrets and only lets one reach a user
// record after a code generated from it has been checked.
//
// A pending enrollment lives entirely in a signed ticket: Begin mints it,
// Verify checks a code against the secret it carries, and nothing touches
// the store until a verified secret is written by Register or Confirm.
type EnrollmentService struct {
	Store    store.Store
	Tickets  *jwtx.Tickets
	Verifier Verifier
	Issuer   string
	TTL      time.Duration
}

func (s *EnrollmentService) issuer() string {
	if s.Issuer == "" {
		return DefaultIssuer
	}
	return s.Issuer
}

func (s *EnrollmentService) ttl() time.Duration {
	if s.TTL <= 0 {
		return jwtx.DefaultEnrollmentTTL
	}
	return s.TTL
}

// Begin starts enrollment for an email that is about to register.
func (s *EnrollmentService) Begin(ctx context.Context, email string) (domain.TOTPEnrollment, error) {
	if err := validateEmail(email); err != nil {
		return domain.TOTPEnrollment{}, err
	}

	_, err := s.Store.Users().GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return domain.TOTPEnrollment{}, ErrDuplicateEmail
	case !errors.Is(err, store.ErrNotFound):
		return domain.TOTPEnrollment{}, fmt.Errorf("failed to look up email: %w", err)
	}

	return s.generate(email, email, nil)
}

// BeginForUser starts enrollment for a signed-in user who has no secret yet.
func (s *EnrollmentService) BeginForUser(ctx context.Context, userID string) (domain.TOTPEnrollment, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TOTPEnrollment{}, ErrUserNotFound
		}
		return domain.TOTPEnrollment{}, fmt.Errorf("failed to get user: %w", err)
	}
	if u.TwoFactorEnabled() {
		return domain.TOTPEnrollment{}, ErrAlreadyEnrolled
	}

	return s.generate(u.Email, u.ID, nil)
}

// beginAfterPassword starts enrollment for a user who just proved their
// password but must set up an authenticator before getting a session. The
// ticket records the password step so it can be redeemed without a session.
func (s *EnrollmentService) beginAfterPassword(u *domain.User) (domain.TOTPEnrollment, error) {
	if u.TwoFactorEnabled() {
		return domain.TOTPEnrollment{}, ErrAlreadyEnrolled
	}
	return s.generate(u.Email, u.ID, []string{amrPassword})
}

func (s *EnrollmentService) generate(account, subject string, amr []string) (domain.TOTPEnrollment, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer(),
		AccountName: account,
		Period:      totpPeriod,
		Digits:      totpDigits,
		Algorithm:   totpAlgo,
	})
	if err != nil {
		return domain.TOTPEnrollment{}, fmt.Errorf("failed to generate TOTP key: %w", err)
	}

	png, err := qrcode.Encode(key.URL(), qrcode.Medium, qrCodeSize)
	if err != nil {
		return domain.TOTPEnrollment{}, fmt.Errorf("failed to render QR code: %w", err)
	}

	ticket, exp, err := s.Tickets.Issue(jwtx.PurposeEnrollment, subject, s.ttl(), func(c *jwtx.Claims) {
		c.Secret = key.Secret()
		c.AMR = amr
	})
	if err != nil {
		return domain.TOTPEnrollment{}, fmt.Errorf("failed to issue enrollment ticket: %w", err)
	}

	return domain.TOTPEnrollment{
		Secret:     key.Secret(),
		OTPAuthURL: key.URL(),
		QRCode:     "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
		Issuer:     s.issuer(),
		Account:    account,
		Ticket:     ticket,
		ExpiresAt:  exp,
	}, nil
}

// Verify checks code against the secret in ticket and returns that secret.
// A wrong code leaves the ticket usable so the user can try the next code.
func (s *EnrollmentService) Verify(ticket, subject, code string) (string, error) {
	claims, err := s.Tickets.Verify(ticket, jwtx.PurposeEnrollment)
	if err != nil {
		return "", ErrInvalidEnrollment
	}
	if claims.Subject != subject || claims.Secret == "" {
		return "", ErrInvalidEnrollment
	}

	if !s.Verifier.VerifyTOTP(code, claims.Secret) {
		return "", ErrInvalidCode
	}
	return claims.Secret, nil
}

// Confirm verifies a code for a signed-in user and activates the secret.
func (s *EnrollmentService) Confirm(ctx context.Context, userID, ticket, code string) error {
	secret, err := s.Verify(ticket, userID, code)
	if err != nil {
		return err
	}

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		u, err := tx.Users().GetUserByID(ctx, userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to get user: %w", err)
		}
		if u.TwoFactorEnabled() {
			return ErrAlreadyEnrolled
		}

		if err := tx.Users().UpdateTwoFactorSecret(ctx, userID, &secret); err != nil {
			return fmt.Errorf("failed to store TOTP secret: %w", err)
		}

		slogx.FromContext(ctx).Info("authenticator enrolled", "user_id", userID)
		return nil
	})
}

// confirmAfterPassword activates the secret in a ticket from
// beginAfterPassword and returns the user it was issued for. Tickets from
// Begin or BeginForUser never carry the password step and are refused.
func (s *EnrollmentService) confirmAfterPassword(ctx context.Context, ticket, code string) (string, error) {
	claims, err := s.Tickets.Verify(ticket, jwtx.PurposeEnrollment)
	if err != nil || !claims.HasAMR(amrPassword) {
		return "", ErrInvalidEnrollment
	}

	if err := s.Confirm(ctx, claims.Subject, ticket, code); err != nil {
		return "", err
	}
	return claims.Subject, nil
}
