package domain

import "time"

type User struct {
	ID                string
	Email             string // unique, compared byte-for-byte
	Name              string
	PasswordHash      string // argon2id PHC string, or a legacy bcrypt hash
	Role              Role
	TwoFactorSecret   *string // TOTP secret (nullable, base32 encoded)
	RequiresTwoFactor bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// TwoFactorEnabled reports whether a TOTP secret is on file.
func (u *User) TwoFactorEnabled() bool {
	return u.TwoFactorSecret != nil && *u.TwoFactorSecret != ""
}

// Profile returns the public projection of the user.
func (u *User) Profile() Profile {
	return Profile{
		ID:                u.ID,
		Email:             u.Email,
		Name:              u.Name,
		Role:              u.Role,
		TwoFactorEnabled:  u.TwoFactorEnabled(),
		RequiresTwoFactor: u.RequiresTwoFactor,
		CreatedAt:         u.CreatedAt,
	}
}

// Profile is what leaves the directory: never a hash, never a secret.
type Profile struct {
	ID                string    `json:"id"`
	Email             string    `json:"email"`
	Name              string    `json:"name"`
	Role              Role      `json:"role"`
	TwoFactorEnabled  bool      `json:"two_factor_enabled"`
	RequiresTwoFactor bool      `json:"requires_two_factor"`
	CreatedAt         time.Time `json:"created_at"`
}
