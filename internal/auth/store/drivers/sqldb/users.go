package sqldb

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/rodneyauth/internal/auth/domain"
)

type usersRepo struct {
	q   *Queries
	now func() int64 // unix millis for updated_at
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (domain.User, error) {
	var (
		u                    domain.User
		role                 string
		secret               sql.NullString
		createdAt, updatedAt int64
	)
	if err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.PasswordHash,
		&role,
		&secret,
		&u.RequiresTwoFactor,
		&createdAt,
		&updatedAt,
	); err != nil {
		return domain.User{}, err
	}

	u.Role = domain.Role(role)
	u.TwoFactorSecret = mapNullStringPtr(secret)
	u.CreatedAt = fromMillis(createdAt)
	u.UpdatedAt = fromMillis(updatedAt)
	return u, nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.q.exec(ctx, createUser,
		u.ID,
		u.Email,
		u.Name,
		u.PasswordHash,
		string(u.Role),
		mapOptionalString(u.TwoFactorSecret),
		u.RequiresTwoFactor,
		toMillis(u.CreatedAt),
		toMillis(u.UpdatedAt),
	)
	return r.q.mapWriteErr(err)
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	u, err := scanUser(r.q.queryRow(ctx, getUserByID, id))
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	u, err := scanUser(r.q.queryRow(ctx, getUserByEmail, email))
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.q.query(ctx, listUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *usersRepo) UpdateRole(ctx context.Context, userID string, role domain.Role) error {
	return expectOne(r.q.exec(ctx, updateUserRole, string(role), r.now(), userID))
}

func (r *usersRepo) UpdateTwoFactorSecret(ctx context.Context, userID string, secret *string) error {
	return expectOne(r.q.exec(ctx, updateUserTwoFactorSecret, mapOptionalString(secret), r.now(), userID))
}

func (r *usersRepo) UpdateTwoFactorRequirement(ctx context.Context, userID string, required bool) error {
	return expectOne(r.q.exec(ctx, updateUserTwoFactorRequirement, required, r.now(), userID))
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID string, newHash string) error {
	return expectOne(r.q.exec(ctx, updateUserPasswordHash, newHash, r.now(), userID))
}
