package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/rodneyauth/internal/auth/access"
	"github.com/aussiebroadwan/rodneyauth/internal/auth/domain"
	"github.com/aussiebroadwan/rodneyauth/internal/auth/store"
	"github.com/aussiebroadwan/rodneyauth/internal/auth/store/memory"
	"github.com/aussiebroadwan/rodneyauth/pkg/cryptox"
	"github.com/aussiebroadwan/rodneyauth/pkg/jwtx"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "service")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	clock      *clock
	store      store.Store
	tickets    *jwtx.Tickets
	directory  *UserDirectory
	sessions   *SessionService
	enrollment *EnrollmentService
	auth       *AuthService
	admin      *AdminService
}

// newTestEnv wires every service against a memory store and a frozen clock
// that sits on a TOTP step boundary.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	c := newClock()
	st := memory.New()
	st.Now = c.Now
	return newTestEnvOn(t, c, st)
}

func newClock() *clock {
	return &clock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

// newTestEnvOn wires every service against st and c.
func newTestEnvOn(t *testing.T, c *clock, st store.Store) *testEnv {
	t.Helper()

	tickets, err := jwtx.NewTickets([]byte(strings.Repeat("k", 32)), DefaultIssuer)
	require.NoError(t, err)
	tickets.Now = c.Now

	verifier := Verifier{Now: c.Now}
	directory := &UserDirectory{Store: st, Verifier: verifier, Now: c.Now}
	sessions := &SessionService{Store: st, Now: c.Now}
	enrollment := &EnrollmentService{Store: st, Tickets: tickets, Verifier: verifier}

	return &testEnv{
		clock:      c,
		store:      st,
		tickets:    tickets,
		directory:  directory,
		sessions:   sessions,
		enrollment: enrollment,
		auth: &AuthService{
			Store:      st,
			Directory:  directory,
			Sessions:   sessions,
			Enrollment: enrollment,
			Tickets:    tickets,
			Verifier:   verifier,
			Policy:     access.DefaultPolicy(),
		},
		admin: &AdminService{Directory: directory},
	}
}

func (e *testEnv) code(t *testing.T, secret string) string {
	t.Helper()
	code, err := totp.GenerateCode(secret, e.clock.Now())
	require.NoError(t, err)
	return code
}

func (e *testEnv) createUser(t *testing.T, nu NewUser) domain.Profile {
	t.Helper()
	if nu.Name == "" {
		nu.Name = "Test User"
	}
	if nu.Password == "" {
		nu.Password = "correct horse"
	}
	p, err := e.directory.Create(context.Background(), nu)
	require.NoError(t, err)
	return p
}

func (e *testEnv) resolve(t *testing.T, token string) Resolution {
	t.Helper()
	res, err := e.sessions.Resolve(context.Background(), token)
	require.NoError(t, err)
	return res
}

func ptr[T any](v T) *T { return &v }
