package service

import (
	"context"
	"fmt"

	"github.com/aussiebroadwan/rodneyauth/internal/auth/access"
	"github.com/aussiebroadwan/rodneyauth/internal/auth/domain"
	"github.com/aussiebroadwan/rodneyauth/pkg/idx"
	"github.com/aussiebroadwan/rodneyauth/pkg/slogx"
)

// AdminService exposes directory writes to administrators. Every method goes
// through guard, so the role check happens before any input is looked at.
type AdminService struct {
	Directory *UserDirectory
}

func (s *AdminService) guard(ctx context.Context, actor *domain.SessionUser, op string, fn func() error) error {
	l := slogx.FromContext(ctx)

	if err := access.RequireRole(actor, domain.RoleAdmin); err != nil {
		l.Warn("admin operation refused", "op", op)
		return err
	}
	if err := fn(); err != nil {
		return err
	}

	l.Info("admin operation", "op", op, "actor_id", actor.ID)
	return nil
}

func validateTarget(id string) error {
	if !idx.Valid(id) {
		return fmt.Errorf("%w: malformed user id", ErrInvalidInput)
	}
	return nil
}

// ListUsers returns the directory, newest first.
func (s *AdminService) ListUsers(ctx context.Context, actor *domain.SessionUser) ([]domain.Profile, error) {
	var out []domain.Profile
	err := s.guard(ctx, actor, "list_users", func() error {
		var err error
		out, err = s.Directory.List(ctx)
		return err
	})
	return out, err
}

func (s *AdminService) UpdateRole(ctx context.Context, actor *domain.SessionUser, targetID, role string) error {
	return s.guard(ctx, actor, "update_role", func() error {
		if err := validateTarget(targetID); err != nil {
			return err
		}
		r, err := domain.ParseRole(role)
		if err != nil {
			return fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
		}
		return s.Directory.UpdateRole(ctx, targetID, r)
	})
}

func (s *AdminService) SetTwoFactorRequirement(ctx context.Context, actor *domain.SessionUser, targetID string, required bool) error {
	return s.guard(ctx, actor, "set_two_factor_requirement", func() error {
		if err := validateTarget(targetID); err != nil {
			return err
		}
		return s.Directory.SetTwoFactorRequirement(ctx, targetID, required)
	})
}

func (s *AdminService) UpdatePassword(ctx context.Context, actor *domain.SessionUser, targetID, password string) error {
	return s.guard(ctx, actor, "update_password", func() error {
		if err := validateTarget(targetID); err != nil {
			return err
		}
		return s.Directory.UpdatePassword(ctx, targetID, password)
	})
}

// ResetTwoFactor clears a user's authenticator so they can enroll again.
func (s *AdminService) ResetTwoFactor(ctx context.Context, actor *domain.SessionUser, targetID string) error {
	return s.guard(ctx, actor, "reset_two_factor", func() error {
		if err := validateTarget(targetID); err != nil {
			return err
		}
		return s.Directory.ResetTwoFactor(ctx, targetID)
	})
}
