// Package storetest is a conformance suite every store.Store driver runs
// from its own tests.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/rodneyauth/internal/auth/domain"
	"github.com/aussiebroadwan/rodneyauth/internal/auth/store"
	"github.com/aussiebroadwan/rodneyauth/pkg/idx"
	"github.com/stretchr/testify/require"
)

// Factory returns a fresh, migrated, empty store.
type Factory func(t *testing.T) store.Store

// Run executes the suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("users_list_order", func(t *testing.T) { testListOrder(t, newStore(t)) })
	t.Run("users_updates", func(t *testing.T) { testUserUpdates(t, newStore(t)) })
	t.Run("users_concurrent_create", func(t *testing.T) { testConcurrentCreate(t, newStore(t)) })
	t.Run("sessions", func(t *testing.T) { testSessions(t, newStore(t)) })
	t.Run("sessions_expiry_sweep", func(t *testing.T) { testExpirySweep(t, newStore(t)) })
	t.Run("tx_commit_rollback", func(t *testing.T) { testTx(t, newStore(t)) })
}

// ClockFactory returns a fresh, migrated, empty store that stamps
// updated_at from now.
type ClockFactory func(t *testing.T, now func() time.Time) store.Store

// RunClock checks that every update stamps updated_at from the store's
// clock, inside a transaction too.
func RunClock(t *testing.T, newStore ClockFactory) {
	ctx := context.Background()
	created := time.UnixMilli(1_700_000_000_000).UTC()
	stamp := time.Date(2030, 1, 2, 3, 4, 5, 6_000_000, time.UTC)

	s := newStore(t, func() time.Time { return stamp })
	u := NewUser("clock@example.com", created)
	require.NoError(t, s.Users().CreateUser(ctx, u))

	secret := "JBSWY3DPEHPK3PXP"
	updates := map[string]func(users store.Users) error{
		"role":     func(users store.Users) error { return users.UpdateRole(ctx, u.ID, domain.RoleManager) },
		"secret":   func(users store.Users) error { return users.UpdateTwoFactorSecret(ctx, u.ID, &secret) },
		"required": func(users store.Users) error { return users.UpdateTwoFactorRequirement(ctx, u.ID, true) },
		"password": func(users store.Users) error { return users.UpdatePasswordHash(ctx, u.ID, "$2b$12$clock") },
	}

	for name, update := range updates {
		t.Run(name, func(t *testing.T) {
			stamp = stamp.Add(time.Minute)
			require.NoError(t, update(s.Users()))

			got, err := s.Users().GetUserByID(ctx, u.ID)
			require.NoError(t, err)
			require.True(t, stamp.Equal(got.UpdatedAt), "updated_at %s, want %s", got.UpdatedAt, stamp)
			require.True(t, created.Equal(got.CreatedAt))
		})
	}

	t.Run("in transaction", func(t *testing.T) {
		stamp = stamp.Add(time.Hour)
		require.NoError(t, s.WithTx(ctx, func(tx store.Tx) error {
			return tx.Users().UpdateRole(ctx, u.ID, domain.RoleAdmin)
		}))

		got, err := s.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.True(t, stamp.Equal(got.UpdatedAt))
	})
}

// NewUser builds a valid user row created at the given time.
func NewUser(email string, created time.Time) domain.User {
	return domain.User{
		ID:           string(idx.NewAt(created)),
		Email:        email,
		Name:         "Test User",
		PasswordHash: "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		Role:         domain.RoleMember,
		CreatedAt:    created,
		UpdatedAt:    created,
	}
}

func testUsers(t *testing.T, s store.Store) {
	ctx := context.Background()
	created := time.UnixMilli(1_700_000_000_000).UTC()

	u := NewUser("ada@example.com", created)
	require.NoError(t, s.Users().CreateUser(ctx, u))

	got, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, u.Email, got.Email)
	require.Equal(t, domain.RoleMember, got.Role)
	require.Nil(t, got.TwoFactorSecret)
	require.False(t, got.RequiresTwoFactor)
	require.True(t, created.Equal(got.CreatedAt))

	got, err = s.Users().GetUserByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)

	// Emails match exactly.
	_, err = s.Users().GetUserByEmail(ctx, "ADA@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.Users().GetUserByID(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)

	dup := NewUser("ada@example.com", created.Add(time.Second))
	require.ErrorIs(t, s.Users().CreateUser(ctx, dup), store.ErrAlreadyExists)
}

// testConcurrentCreate races inserts of one email under distinct ids.
func testConcurrentCreate(t *testing.T, s store.Store) {
	ctx := context.Background()
	created := time.UnixMilli(1_700_000_000_000).UTC()

	const racers = 8
	errs := make([]error, racers)

	var wg sync.WaitGroup
	for i := range racers {
		wg.Go(func() {
			u := NewUser("race@example.com", created.Add(time.Duration(i)*time.Millisecond))
			errs[i] = s.Users().CreateUser(ctx, u)
		})
	}
	wg.Wait()

	won := 0
	for _, err := range errs {
		if err == nil {
			won++
			continue
		}
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	}
	require.Equal(t, 1, won)

	users, err := s.Users().ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
}

func testListOrder(t *testing.T, s store.Store) {
	ctx := context.Background()
	base := time.UnixMilli(1_700_000_000_000).UTC()

	var ids []string
	for i, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		u := NewUser(email, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, s.Users().CreateUser(ctx, u))
		ids = append(ids, u.ID)
	}

	users, err := s.Users().ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	require.Equal(t, []string{ids[2], ids[1], ids[0]}, []string{users[0].ID, users[1].ID, users[2].ID})
}

func testUserUpdates(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := NewUser("grace@example.com", time.UnixMilli(1_700_000_000_000).UTC())
	require.NoError(t, s.Users().CreateUser(ctx, u))

	require.NoError(t, s.Users().UpdateRole(ctx, u.ID, domain.RoleAdmin))
	require.NoError(t, s.Users().UpdateTwoFactorRequirement(ctx, u.ID, true))
	require.NoError(t, s.Users().UpdatePasswordHash(ctx, u.ID, "$2b$12$newhash"))
	secret := "JBSWY3DPEHPK3PXP"
	require.NoError(t, s.Users().UpdateTwoFactorSecret(ctx, u.ID, &secret))

	got, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, got.Role)
	require.True(t, got.RequiresTwoFactor)
	require.Equal(t, "$2b$12$newhash", got.PasswordHash)
	require.NotNil(t, got.TwoFactorSecret)
	require.Equal(t, secret, *got.TwoFactorSecret)
	require.True(t, got.UpdatedAt.After(u.UpdatedAt))

	require.NoError(t, s.Users().UpdateTwoFactorSecret(ctx, u.ID, nil))
	got, err = s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Nil(t, got.TwoFactorSecret)

	for name, err := range map[string]error{
		"role":     s.Users().UpdateRole(ctx, "missing", domain.RoleAdmin),
		"secret":   s.Users().UpdateTwoFactorSecret(ctx, "missing", &secret),
		"required": s.Users().UpdateTwoFactorRequirement(ctx, "missing", true),
		"password": s.Users().UpdatePasswordHash(ctx, "missing", "x"),
	} {
		require.ErrorIs(t, err, store.ErrNotFound, name)
	}
}

func testSessions(t *testing.T, s store.Store) {
	ctx := context.Background()
	now := time.UnixMilli(1_700_000_000_000).UTC()

	u := NewUser("linus@example.com", now)
	require.NoError(t, s.Users().CreateUser(ctx, u))

	sess := domain.Session{
		ID:        idx.NewAt(now).String(),
		TokenHash: "hash-1",
		UserID:    u.ID,
		ExpiresAt: now.Add(7 * 24 * time.Hour),
		CreatedAt: now,
	}
	require.NoError(t, s.Sessions().CreateSession(ctx, sess))

	got, err := s.Sessions().GetSessionByTokenHash(ctx, "hash-1")
	require.NoError(t, err)
	require.Equal(t, sess.ID, got.ID)
	require.Equal(t, u.ID, got.UserID)
	require.True(t, sess.ExpiresAt.Equal(got.ExpiresAt))

	clash := sess
	clash.ID = idx.NewAt(now).String()
	require.ErrorIs(t, s.Sessions().CreateSession(ctx, clash), store.ErrAlreadyExists)

	_, err = s.Sessions().GetSessionByTokenHash(ctx, "unknown")
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.Sessions().DeleteSessionsByTokenHash(ctx, "hash-1"))
	require.NoError(t, s.Sessions().DeleteSessionsByTokenHash(ctx, "hash-1"), "delete is idempotent")

	_, err = s.Sessions().GetSessionByTokenHash(ctx, "hash-1")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testExpirySweep(t *testing.T, s store.Store) {
	ctx := context.Background()
	now := time.UnixMilli(1_700_000_000_000).UTC()

	u := NewUser("ken@example.com", now)
	require.NoError(t, s.Users().CreateUser(ctx, u))

	for i, exp := range []time.Time{now.Add(-time.Hour), now, now.Add(time.Hour)} {
		require.NoError(t, s.Sessions().CreateSession(ctx, domain.Session{
			ID:        idx.NewAt(now).String(),
			TokenHash: []string{"past", "edge", "future"}[i],
			UserID:    u.ID,
			ExpiresAt: exp,
			CreatedAt: now.Add(-2 * time.Hour),
		}))
	}

	n, err := s.Sessions().DeleteExpiredSessions(ctx, now)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	_, err = s.Sessions().GetSessionByTokenHash(ctx, "future")
	require.NoError(t, err)
	_, err = s.Sessions().GetSessionByTokenHash(ctx, "edge")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testTx(t *testing.T, s store.Store) {
	ctx := context.Background()
	now := time.UnixMilli(1_700_000_000_000).UTC()

	committed := NewUser("commit@example.com", now)
	require.NoError(t, s.WithTx(ctx, func(tx store.Tx) error {
		return tx.Users().CreateUser(ctx, committed)
	}))
	_, err := s.Users().GetUserByID(ctx, committed.ID)
	require.NoError(t, err)

	boom := errors.New("boom")
	rolled := NewUser("rollback@example.com", now)
	err = s.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, rolled); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.Users().GetUserByEmail(ctx, "rollback@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)

	require.Error(t, s.WithTx(ctx, func(tx store.Tx) error {
		return tx.WithTx(ctx, func(store.Tx) error { return nil })
	}), "nested transactions are rejected")
}
