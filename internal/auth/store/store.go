package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/rodneyauth/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres,
// memory) implement this. It exposes sub-repositories to keep concerns tidy
// and testable, and so a Tx-scoped store can't open a nested transaction.
type Store interface {
	Users() Users
	Sessions() Sessions

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// CreateUser inserts a new user (id is provided by the caller via ULID).
	// Returns ErrAlreadyExists when the email is taken.
	CreateUser(ctx context.Context, u domain.User) error

	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail matches the email exactly.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// ListUsers returns every user, newest first.
	ListUsers(ctx context.Context) ([]domain.User, error)

	// The update methods bump updated_at and return ErrNotFound for an
	// unknown id.
	UpdateRole(ctx context.Context, userID string, role domain.Role) error
	UpdateTwoFactorSecret(ctx context.Context, userID string, secret *string) error
	UpdateTwoFactorRequirement(ctx context.Context, userID string, required bool) error
	UpdatePasswordHash(ctx context.Context, userID string, newHash string) error
}

type Sessions interface {
	// CreateSession stores a session. Returns ErrAlreadyExists on a token
	// hash collision.
	CreateSession(ctx context.Context, s domain.Session) error

	// GetSessionByTokenHash returns the session regardless of expiry; the
	// caller decides what an expired row means.
	GetSessionByTokenHash(ctx context.Context, hash string) (domain.Session, error)

	// DeleteSessionsByTokenHash removes the session(s) for a token. Deleting
	// something that is already gone is not an error.
	DeleteSessionsByTokenHash(ctx context.Context, hash string) error

	// DeleteExpiredSessions removes sessions with expires_at <= now and
	// returns how many went.
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}
