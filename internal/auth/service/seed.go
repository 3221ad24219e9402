package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/rodneyauth/internal/auth/domain"
	"github.com/aussiebroadwan/rodneyauth/pkg/slogx"
)

const DefaultSeedPassword = "ChangeMe123!"

// SeedAccount is one account the seeder makes sure exists.
type SeedAccount struct {
	Email             string
	Name              string
	Role              domain.Role
	RequiresTwoFactor bool

	// TwoFactorSecret pre-enrolls the account with a known base32 secret so
	// an account that requires 2FA can sign in the first time.
	TwoFactorSecret string
}

// DefaultSeedAccounts returns one account per role. The admin account sets
// up an authenticator at its first sign-in.
func DefaultSeedAccounts(adminEmail, managerEmail, memberEmail string) []SeedAccount {
	return []SeedAccount{
		{Email: adminEmail, Name: "Rodney Admin", Role: domain.RoleAdmin, RequiresTwoFactor: true},
		{Email: managerEmail, Name: "Security Manager", Role: domain.RoleManager},
		{Email: memberEmail, Name: "Team Member", Role: domain.RoleMember},
	}
}

// SeedService creates missing accounts and leaves existing ones alone.
type SeedService struct {
	Directory *UserDirectory
}

// Seed returns how many accounts it created.
func (s *SeedService) Seed(ctx context.Context, password string, accounts []SeedAccount) (int, error) {
	l := slogx.FromContext(ctx)
	if password == "" {
		password = DefaultSeedPassword
	}

	// Every secret is checked before anything is written.
	secrets := make([]*string, len(accounts))
	for i, a := range accounts {
		if a.TwoFactorSecret == "" {
			continue
		}
		v, err := normalizeTOTPSecret(a.TwoFactorSecret)
		if err != nil {
			return 0, fmt.Errorf("failed to seed %s: %w", a.Email, err)
		}
		secrets[i] = &v
	}

	created := 0
	for i, a := range accounts {
		_, err := s.Directory.Create(ctx, NewUser{
			Email:             a.Email,
			Name:              a.Name,
			Password:          password,
			Role:              a.Role,
			TwoFactorSecret:   secrets[i],
			RequiresTwoFactor: a.RequiresTwoFactor,
		})
		switch {
		case err == nil:
			created++
			l.Info("seeded account", "email", a.Email, "role", a.Role)
		case errors.Is(err, ErrDuplicateEmail):
			l.Debug("seed account already exists", "email", a.Email)
		default:
			return created, fmt.Errorf("failed to seed %s: %w", a.Email, err)
		}
	}
	return created, nil
}
