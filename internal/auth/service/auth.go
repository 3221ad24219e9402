package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/aussiebroadwan/rodneyauth/internal/auth/access"
	"github.com/aussiebroadwan/rodneyauth/internal/auth/domain"
	"github.com/aussiebroadwan/rodneyauth/internal/auth/store"
	"github.com/aussiebroadwan/rodneyauth/pkg/jwtx"
	"github.com/aussiebroadwan/rodneyauth/pkg/slogx"
)

const (
	// AuthenticatorPath is the TOTP step of the login flow.
	AuthenticatorPath = "/authenticator"

	// AuthenticatorSetupPath is where a user who must use 2FA but has no
	// authenticator yet sets one up before signing in.
	AuthenticatorSetupPath = "/authenticator/setup"

	amrPassword = "pwd"
)

// Outcome is the result of a successful flow step. Where the user goes next
// is part of the result, not an error.
type Outcome struct {
	RedirectTo string

	// Session is set when the step signed the user in.
	Session *IssuedSession

	// Challenge is set when the password step passed and a TOTP code is
	// still needed.
	Challenge *Challenge

	// Enrollment is set when the password step passed but the account must
	// set up an authenticator first. No session exists until it is confirmed.
	Enrollment *domain.TOTPEnrollment

	User *domain.Profile
}

// Challenge proves the password step succeeded for a specific user.
type Challenge struct {
	Ticket    string
	ExpiresAt time.Time
}

// RegisterRequest carries the sign-up form. When EnableTwoFactor is set,
// EnrollmentTicket and Code must come from a Begin for the same email.
type RegisterRequest struct {
	Email            string
	Name             string
	Password         string
	EnableTwoFactor  bool
	EnrollmentTicket string
	Code             string
}

// AuthService runs the sign-up, sign-in and sign-out flows.
type AuthService struct {
	Store      store.Store
	Directory  *UserDirectory
	Sessions   *SessionService
	Enrollment *EnrollmentService
	Tickets    *jwtx.Tickets
	Verifier   Verifier
	Policy     access.Policy

	ChallengeTTL time.Duration
}

func (s *AuthService) challengeTTL() time.Duration {
	if s.ChallengeTTL <= 0 {
		return jwtx.DefaultChallengeTTL
	}
	return s.ChallengeTTL
}

// Register creates a MEMBER account and signs it in. With 2FA requested the
// enrollment code is checked first and no account exists unless it passes.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (Outcome, error) {
	l := slogx.FromContext(ctx)

	existing, err := s.Directory.FindByEmail(ctx, req.Email)
	if err != nil {
		return Outcome{}, err
	}
	if existing != nil {
		return Outcome{}, ErrDuplicateEmail
	}

	var secret *string
	if req.EnableTwoFactor {
		verified, err := s.Enrollment.Verify(req.EnrollmentTicket, req.Email, req.Code)
		if err != nil {
			l.Info("registration enrollment check failed", "error", err)
			return Outcome{}, err
		}
		secret = &verified
	}

	u, err := s.Directory.prepare(NewUser{
		Email:           req.Email,
		Name:            req.Name,
		Password:        req.Password,
		Role:            domain.RoleMember,
		TwoFactorSecret: secret,
	})
	if err != nil {
		return Outcome{}, err
	}

	var issued IssuedSession
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := s.Directory.insert(ctx, tx.Users(), u); err != nil {
			return err
		}
		issued, err = s.Sessions.create(ctx, tx.Sessions(), u.ID)
		return err
	})
	if err != nil {
		return Outcome{}, err
	}

	p := u.Profile()
	return Outcome{RedirectTo: s.Policy.Landing, Session: &issued, User: &p}, nil
}

// LoginPassword checks a password. Accounts that require 2FA get a
// challenge and a redirect to the authenticator page instead of a session.
// Accounts that require 2FA but have no authenticator get an enrollment to
// finish with CompleteEnrollment, and no session either.
func (s *AuthService) LoginPassword(ctx context.Context, email, password string) (Outcome, error) {
	l := slogx.FromContext(ctx)

	u, err := s.Directory.authenticate(ctx, email, password)
	if err != nil {
		return Outcome{}, err
	}
	if u == nil {
		l.Info("password login failed")
		return Outcome{}, ErrInvalidCredentials
	}

	if u.RequiresTwoFactor {
		if !u.TwoFactorEnabled() {
			enr, err := s.Enrollment.beginAfterPassword(u)
			if err != nil {
				return Outcome{}, err
			}

			l.Info("login held for authenticator setup", "user_id", u.ID)
			p := u.Profile()
			return Outcome{
				RedirectTo: AuthenticatorSetupPath + "?email=" + url.QueryEscape(u.Email),
				Enrollment: &enr,
				User:       &p,
			}, nil
		}

		ticket, exp, err := s.Tickets.Issue(jwtx.PurposeChallenge, u.ID, s.challengeTTL(), func(c *jwtx.Claims) {
			c.AMR = []string{amrPassword}
		})
		if err != nil {
			return Outcome{}, fmt.Errorf("failed to issue challenge: %w", err)
		}

		p := u.Profile()
		return Outcome{
			RedirectTo: AuthenticatorPath + "?email=" + url.QueryEscape(u.Email),
			Challenge:  &Challenge{Ticket: ticket, ExpiresAt: exp},
			User:       &p,
		}, nil
	}

	return s.signIn(ctx, u)
}

// LoginTOTP signs in with an authenticator code. Accounts that require 2FA
// also need the challenge from LoginPassword, so a code never stands in for
// the password on those accounts.
func (s *AuthService) LoginTOTP(ctx context.Context, email, code, challenge string) (Outcome, error) {
	l := slogx.FromContext(ctx)

	u, err := s.Directory.lookupByEmail(ctx, email)
	if err != nil {
		return Outcome{}, err
	}
	if u == nil || !u.TwoFactorEnabled() {
		return Outcome{}, ErrNotEnrolled
	}

	if u.RequiresTwoFactor {
		if err := s.checkChallenge(challenge, u.ID); err != nil {
			l.Info("authenticator login without password step", "user_id", u.ID, "error", err)
			return Outcome{}, ErrChallengeRequired
		}
	}

	if !s.Verifier.VerifyTOTP(code, *u.TwoFactorSecret) {
		l.Info("authenticator code rejected", "user_id", u.ID)
		return Outcome{}, ErrInvalidCode
	}

	return s.signIn(ctx, u)
}

// CompleteEnrollment finishes the setup that LoginPassword started for an
// account without an authenticator. The secret is stored and the session
// issued only when code matches it.
func (s *AuthService) CompleteEnrollment(ctx context.Context, ticket, code string) (Outcome, error) {
	userID, err := s.Enrollment.confirmAfterPassword(ctx, ticket, code)
	if err != nil {
		slogx.FromContext(ctx).Info("authenticator setup at login failed", "error", err)
		return Outcome{}, err
	}

	u, err := s.Directory.lookupByID(ctx, userID)
	if err != nil {
		return Outcome{}, err
	}
	if u == nil {
		return Outcome{}, ErrUserNotFound
	}
	return s.signIn(ctx, u)
}

func (s *AuthService) checkChallenge(ticket, userID string) error {
	if ticket == "" {
		return errors.New("no challenge presented")
	}
	claims, err := s.Tickets.Verify(ticket, jwtx.PurposeChallenge)
	if err != nil {
		return err
	}
	if claims.Subject != userID || !claims.HasAMR(amrPassword) {
		return errors.New("challenge issued for another user")
	}
	return nil
}

func (s *AuthService) signIn(ctx context.Context, u *domain.User) (Outcome, error) {
	issued, err := s.Sessions.Create(ctx, u.ID)
	if err != nil {
		return Outcome{}, err
	}
	p := u.Profile()
	return Outcome{RedirectTo: s.Policy.Landing, Session: &issued, User: &p}, nil
}

// Logout destroys the session behind token, if any.
func (s *AuthService) Logout(ctx context.Context, token string) (Outcome, error) {
	if err := s.Sessions.Destroy(ctx, token); err != nil {
		return Outcome{}, err
	}
	return Outcome{RedirectTo: s.Policy.EntryPoint}, nil
}
