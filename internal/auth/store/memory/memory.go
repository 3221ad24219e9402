// Package memory is an in-process store.Store for tests and throwaway
// instances. Transactions take the store lock for their whole lifetime and
// work on a copy that replaces the live state on commit.
package memory

import (
	"context"
	"errors"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/rodneyauth/internal/auth/domain"
	"github.com/aussiebroadwan/rodneyauth/internal/auth/store"
)

var ErrTxDone = errors.New("memory: transaction already committed or rolled back")

type state struct {
	users    map[string]domain.User    // by id
	emails   map[string]string         // email -> id
	sessions map[string]domain.Session // by token hash
}

func newState() *state {
	return &state{
		users:    map[string]domain.User{},
		emails:   map[string]string{},
		sessions: map[string]domain.Session{},
	}
}

func (s *state) clone() *state {
	return &state{
		users:    maps.Clone(s.users),
		emails:   maps.Clone(s.emails),
		sessions: maps.Clone(s.sessions),
	}
}

type Store struct {
	mu sync.Mutex
	st *state

	// Now stamps updated_at. Defaults to time.Now.
	Now func() time.Time
}

func New() *Store {
	return &Store{st: newState(), Now: time.Now}
}

func (s *Store) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

// view runs fn against the live state under the lock.
func (s *Store) view(fn func(*state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.st)
}

func (s *Store) Users() store.Users       { return &usersRepo{run: s.view, now: s.now} }
func (s *Store) Sessions() store.Sessions { return &sessionsRepo{run: s.view} }

func (s *Store) ApplyMigrations() error     { return nil }
func (s *Store) Close() error               { return nil }
func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Tx(ctx context.Context) (store.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	return &txStore{parent: s, st: s.st.clone()}, nil
}

func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.Tx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

type txStore struct {
	parent *Store
	st     *state
	done   bool
}

func (t *txStore) run(fn func(*state) error) error {
	if t.done {
		return ErrTxDone
	}
	return fn(t.st)
}

func (t *txStore) Users() store.Users       { return &usersRepo{run: t.run, now: t.parent.now} }
func (t *txStore) Sessions() store.Sessions { return &sessionsRepo{run: t.run} }

func (t *txStore) Commit() error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	t.parent.st = t.st
	t.parent.mu.Unlock()
	return nil
}

func (t *txStore) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	t.parent.mu.Unlock()
	return nil
}

func (t *txStore) ApplyMigrations() error                             { return nil }
func (t *txStore) Close() error                                       { return nil }
func (t *txStore) Ping(context.Context) error                         { return nil }
func (t *txStore) Tx(context.Context) (store.Tx, error)               { return nil, ErrTxDone }
func (t *txStore) WithTx(context.Context, func(store.Tx) error) error { return ErrTxDone }

type usersRepo struct {
	run func(func(*state) error) error
	now func() time.Time
}

func (r *usersRepo) CreateUser(_ context.Context, u domain.User) error {
	return r.run(func(st *state) error {
		if _, ok := st.emails[u.Email]; ok {
			return store.ErrAlreadyExists
		}
		if _, ok := st.users[u.ID]; ok {
			return store.ErrAlreadyExists
		}
		st.users[u.ID] = copyUser(u)
		st.emails[u.Email] = u.ID
		return nil
	})
}

func (r *usersRepo) GetUserByID(_ context.Context, id string) (domain.User, error) {
	var out domain.User
	err := r.run(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return store.ErrNotFound
		}
		out = copyUser(u)
		return nil
	})
	return out, err
}

func (r *usersRepo) GetUserByEmail(_ context.Context, email string) (domain.User, error) {
	var out domain.User
	err := r.run(func(st *state) error {
		id, ok := st.emails[email]
		if !ok {
			return store.ErrNotFound
		}
		out = copyUser(st.users[id])
		return nil
	})
	return out, err
}

func (r *usersRepo) ListUsers(context.Context) ([]domain.User, error) {
	var out []domain.User
	err := r.run(func(st *state) error {
		for _, u := range st.users {
			out = append(out, copyUser(u))
		}
		return nil
	})
	slices.SortFunc(out, func(a, b domain.User) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	})
	return out, err
}

func (r *usersRepo) update(id string, fn func(*domain.User)) error {
	return r.run(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return store.ErrNotFound
		}
		fn(&u)
		u.UpdatedAt = r.now()
		st.users[id] = u
		return nil
	})
}

func (r *usersRepo) UpdateRole(_ context.Context, userID string, role domain.Role) error {
	return r.update(userID, func(u *domain.User) { u.Role = role })
}

func (r *usersRepo) UpdateTwoFactorSecret(_ context.Context, userID string, secret *string) error {
	return r.update(userID, func(u *domain.User) { u.TwoFactorSecret = copyString(secret) })
}

func (r *usersRepo) UpdateTwoFactorRequirement(_ context.Context, userID string, required bool) error {
	return r.update(userID, func(u *domain.User) { u.RequiresTwoFactor = required })
}

func (r *usersRepo) UpdatePasswordHash(_ context.Context, userID string, newHash string) error {
	return r.update(userID, func(u *domain.User) { u.PasswordHash = newHash })
}

type sessionsRepo struct {
	run func(func(*state) error) error
}

func (r *sessionsRepo) CreateSession(_ context.Context, s domain.Session) error {
	return r.run(func(st *state) error {
		if _, ok := st.users[s.UserID]; !ok {
			return errors.New("memory: session references unknown user")
		}
		if _, ok := st.sessions[s.TokenHash]; ok {
			return store.ErrAlreadyExists
		}
		st.sessions[s.TokenHash] = s
		return nil
	})
}

func (r *sessionsRepo) GetSessionByTokenHash(_ context.Context, hash string) (domain.Session, error) {
	var out domain.Session
	err := r.run(func(st *state) error {
		s, ok := st.sessions[hash]
		if !ok {
			return store.ErrNotFound
		}
		out = s
		return nil
	})
	return out, err
}

func (r *sessionsRepo) DeleteSessionsByTokenHash(_ context.Context, hash string) error {
	return r.run(func(st *state) error {
		delete(st.sessions, hash)
		return nil
	})
}

func (r *sessionsRepo) DeleteExpiredSessions(_ context.Context, now time.Time) (int64, error) {
	var n int64
	err := r.run(func(st *state) error {
		for hash, s := range st.sessions {
			if s.Expired(now) {
				delete(st.sessions, hash)
				n++
			}
		}
		return nil
	})
	return n, err
}

func copyUser(u domain.User) domain.User {
	u.TwoFactorSecret = copyString(u.TwoFactorSecret)
	return u
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
