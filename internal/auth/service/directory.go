package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aussiebroadwan/rodneyauth/internal/auth/domain"
	"github.com/aussiebroadwan/rodneyauth/internal/auth/store"
	"github.com/aussiebroadwan/rodneyauth/pkg/cryptox"
	"github.com/aussiebroadwan/rodneyauth/pkg/idx"
	"github.com/aussiebroadwan/rodneyauth/pkg/slogx"
)

const (
	MinPasswordLength = 8
	maxPasswordLength = 1024
	maxEmailLength    = 254
	maxNameLength     = 200
)

// UserDirectory owns user records. It does not check who is asking: callers
// that mutate on someone else's behalf go through AdminService.
type UserDirectory struct {
	Store    store.Store
	Verifier Verifier
	Now      func() time.Time
}

func (d *UserDirectory) now() time.Time {
	if d.Now == nil {
		return time.Now().UTC()
	}
	return d.Now().UTC()
}

// NewUser is the input to Create. Role defaults to MEMBER.
type NewUser struct {
	Email             string
	Name              string
	Password          string
	Role              domain.Role
	TwoFactorSecret   *string
	RequiresTwoFactor bool
}

// Create validates and stores a new user.
func (d *UserDirectory) Create(ctx context.Context, nu NewUser) (domain.Profile, error) {
	u, err := d.prepare(nu)
	if err != nil {
		return domain.Profile{}, err
	}
	if err := d.insert(ctx, d.Store.Users(), u); err != nil {
		return domain.Profile{}, err
	}
	return u.Profile(), nil
}

// prepare validates input and hashes the password. It is kept apart from
// insert so the slow hash never runs inside a transaction.
func (d *UserDirectory) prepare(nu NewUser) (domain.User, error) {
	if err := validateEmail(nu.Email); err != nil {
		return domain.User{}, err
	}

	name := strings.TrimSpace(nu.Name)
	if name == "" || utf8.RuneCountInString(name) > maxNameLength {
		return domain.User{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	if err := validatePassword(nu.Password); err != nil {
		return domain.User{}, err
	}

	role := nu.Role
	if role == "" {
		role = domain.RoleMember
	}
	if !role.Valid() {
		return domain.User{}, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}

	hash, err := cryptox.HashPassword(nu.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	now := d.now()
	return domain.User{
		ID:                idx.NewAt(now).String(),
		Email:             nu.Email,
		Name:              name,
		PasswordHash:      hash,
		Role:              role,
		TwoFactorSecret:   nu.TwoFactorSecret,
		RequiresTwoFactor: nu.RequiresTwoFactor,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

func (d *UserDirectory) insert(ctx context.Context, users store.Users, u domain.User) error {
	if err := users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	slogx.FromContext(ctx).Info("user created", "user_id", u.ID, "role", u.Role)
	return nil
}

// FindByEmail returns nil, nil when no user has exactly this email.
func (d *UserDirectory) FindByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	u, err := d.lookupByEmail(ctx, email)
	if err != nil || u == nil {
		return nil, err
	}
	p := u.Profile()
	return &p, nil
}

// GetByID returns nil, nil when the id is unknown.
func (d *UserDirectory) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	u, err := d.lookupByID(ctx, id)
	if err != nil || u == nil {
		return nil, err
	}
	p := u.Profile()
	return &p, nil
}

func (d *UserDirectory) lookupByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := d.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

func (d *UserDirectory) lookupByID(ctx context.Context, id string) (*domain.User, error) {
	u, err := d.Store.Users().GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// AuthenticateWithPassword returns nil, nil for an unknown email and for a
// wrong password alike.
func (d *UserDirectory) AuthenticateWithPassword(ctx context.Context, email, password string) (*domain.Profile, error) {
	u, err := d.authenticate(ctx, email, password)
	if err != nil || u == nil {
		return nil, err
	}
	p := u.Profile()
	return &p, nil
}

func (d *UserDirectory) authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	u, err := d.lookupByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		d.Verifier.VerifyPassword(password, dummyHash())
		return nil, nil
	}
	if !d.Verifier.VerifyPassword(password, u.PasswordHash) {
		return nil, nil
	}

	if cryptox.NeedsRehash(u.PasswordHash) {
		d.rehash(ctx, u, password)
	}
	return u, nil
}

// rehash upgrades a legacy hash after a successful login. Failure only
// costs the upgrade, never the login.
func (d *UserDirectory) rehash(ctx context.Context, u *domain.User, password string) {
	l := slogx.FromContext(ctx)

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		l.Warn("failed to rehash legacy password", "user_id", u.ID, "error", err)
		return
	}
	if err := d.Store.Users().UpdatePasswordHash(ctx, u.ID, hash); err != nil {
		l.Warn("failed to store rehashed password", "user_id", u.ID, "error", err)
		return
	}
	u.PasswordHash = hash
	l.Info("upgraded legacy password hash", "user_id", u.ID)
}

// List returns every user, newest first.
func (d *UserDirectory) List(ctx context.Context) ([]domain.Profile, error) {
	users, err := d.Store.Users().ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	out := make([]domain.Profile, 0, len(users))
	for i := range users {
		out = append(out, users[i].Profile())
	}
	return out, nil
}

func (d *UserDirectory) UpdateRole(ctx context.Context, userID string, role domain.Role) error {
	if !role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}
	return mapUpdate(d.Store.Users().UpdateRole(ctx, userID, role))
}

func (d *UserDirectory) SetTwoFactorRequirement(ctx context.Context, userID string, required bool) error {
	return mapUpdate(d.Store.Users().UpdateTwoFactorRequirement(ctx, userID, required))
}

func (d *UserDirectory) UpdatePassword(ctx context.Context, userID, password string) error {
	if err := validatePassword(password); err != nil {
		return err
	}
	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return mapUpdate(d.Store.Users().UpdatePasswordHash(ctx, userID, hash))
}

// ResetTwoFactor removes the user's secret. With RequiresTwoFactor still set
// the user can't log in until they enroll again.
func (d *UserDirectory) ResetTwoFactor(ctx context.Context, userID string) error {
	return mapUpdate(d.Store.Users().UpdateTwoFactorSecret(ctx, userID, nil))
}

func mapUpdate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return ErrUserNotFound
	default:
		return fmt.Errorf("failed to update user: %w", err)
	}
}

func validateEmail(email string) error {
	if email == "" || len(email) > maxEmailLength {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: malformed email", ErrInvalidInput)
	}
	return nil
}

func validatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, MinPasswordLength)
	}
	if len(password) > maxPasswordLength {
		return fmt.Errorf("%w: password is too long", ErrInvalidInput)
	}
	return nil
}
