package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/rodneyauth/internal/auth/domain"
	"github.com/aussiebroadwan/rodneyauth/internal/auth/store"
	"github.com/aussiebroadwan/rodneyauth/pkg/cryptox"
	"github.com/aussiebroadwan/rodneyauth/pkg/idx"
	"github.com/aussiebroadwan/rodneyauth/pkg/slogx"
)

const (
	DefaultSessionTTL = 7 * 24 * time.Hour

	// Tokens are 43 characters; anything far longer was never issued here.
	maxTokenLength = 256
)

// SessionService mints, resolves and destroys server-side sessions. The raw
// token is returned once from Create and otherwise only its fingerprint is
// handled.
type SessionService struct {
	Store store.Store
	TTL   time.Duration
	Now   func() time.Time
}

// IssuedSession is what the transport turns into a cookie.
type IssuedSession struct {
	Token     string
	ExpiresAt time.Time
}

// Resolution is the result of looking a token up. ClearCookie is set whenever
// the presented token is dead, so the transport drops it in the same response.
type Resolution struct {
	User        *domain.SessionUser
	ClearCookie bool
}

func (s *SessionService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

func (s *SessionService) ttl() time.Duration {
	if s.TTL <= 0 {
		return DefaultSessionTTL
	}
	return s.TTL
}

// Create starts a session for userID.
func (s *SessionService) Create(ctx context.Context, userID string) (IssuedSession, error) {
	return s.create(ctx, s.Store.Sessions(), userID)
}

func (s *SessionService) create(ctx context.Context, sessions store.Sessions, userID string) (IssuedSession, error) {
	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return IssuedSession{}, err
	}

	now := s.now()
	sess := domain.Session{
		ID:        idx.NewAt(now).String(),
		TokenHash: cryptox.FingerprintToken(token),
		UserID:    userID,
		ExpiresAt: now.Add(s.ttl()),
		CreatedAt: now,
	}
	if err := sessions.CreateSession(ctx, sess); err != nil {
		return IssuedSession{}, fmt.Errorf("failed to create session: %w", err)
	}

	slogx.FromContext(ctx).Info("session created", "user_id", userID, "session_id", sess.ID)
	return IssuedSession{Token: token, ExpiresAt: sess.ExpiresAt}, nil
}

// Resolve maps a token to its user. Expired and orphaned sessions are deleted
// on the spot and reported as absent with ClearCookie set.
func (s *SessionService) Resolve(ctx context.Context, token string) (Resolution, error) {
	if token == "" {
		return Resolution{}, nil
	}
	if len(token) > maxTokenLength {
		return Resolution{ClearCookie: true}, nil
	}

	hash := cryptox.FingerprintToken(token)
	sess, err := s.Store.Sessions().GetSessionByTokenHash(ctx, hash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Resolution{ClearCookie: true}, nil
		}
		return Resolution{}, fmt.Errorf("failed to get session: %w", err)
	}

	l := slogx.FromContext(ctx)

	if sess.Expired(s.now()) {
		if err := s.Store.Sessions().DeleteSessionsByTokenHash(ctx, hash); err != nil {
			return Resolution{}, fmt.Errorf("failed to delete expired session: %w", err)
		}
		l.Debug("reaped expired session", "session_id", sess.ID)
		return Resolution{ClearCookie: true}, nil
	}

	u, err := s.Store.Users().GetUserByID(ctx, sess.UserID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return Resolution{}, fmt.Errorf("failed to get session user: %w", err)
		}
		if err := s.Store.Sessions().DeleteSessionsByTokenHash(ctx, hash); err != nil {
			return Resolution{}, fmt.Errorf("failed to delete orphaned session: %w", err)
		}
		l.Warn("reaped session for missing user", "session_id", sess.ID)
		return Resolution{ClearCookie: true}, nil
	}

	return Resolution{User: &domain.SessionUser{
		Profile:   u.Profile(),
		ExpiresAt: sess.ExpiresAt,
	}}, nil
}

// Destroy deletes every session stored under token. Unknown and empty
// tokens are fine.
func (s *SessionService) Destroy(ctx context.Context, token string) error {
	if token == "" || len(token) > maxTokenLength {
		return nil
	}
	if err := s.Store.Sessions().DeleteSessionsByTokenHash(ctx, cryptox.FingerprintToken(token)); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Sweep deletes every expired session.
func (s *SessionService) Sweep(ctx context.Context) (int64, error) {
	return s.Store.Sessions().DeleteExpiredSessions(ctx, s.now())
}
