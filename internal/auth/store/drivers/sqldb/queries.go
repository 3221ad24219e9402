// Package sqldb holds the database/sql implementation shared by the SQL
// drivers. Queries are written once with '?' placeholders and rebound for the
// dialect at hand.
package sqldb

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Dialect captures what differs between the SQL backends.
type Dialect struct {
	Name string

	// Numbered switches '?' placeholders to '$1', '$2', ...
	Numbered bool

	// IsUniqueViolation reports whether err is a unique-constraint failure.
	IsUniqueViolation func(error) bool
}

// Rebind rewrites '?' placeholders for the dialect. Queries in this package
// never contain a literal '?' inside a string.
func (d Dialect) Rebind(query string) string {
	if !d.Numbered {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// Queries runs the statements against a DB or a Tx.
type Queries struct {
	db DBTX
	d  Dialect
}

func NewQueries(db DBTX, d Dialect) *Queries {
	return &Queries{db: db, d: d}
}

func (q *Queries) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return q.db.ExecContext(ctx, q.d.Rebind(query), args...)
}

func (q *Queries) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return q.db.QueryContext(ctx, q.d.Rebind(query), args...)
}

func (q *Queries) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return q.db.QueryRowContext(ctx, q.d.Rebind(query), args...)
}

const userColumns = `id, email, name, password_hash, role, two_factor_secret, requires_two_factor, created_at, updated_at`

const (
	createUser = `INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	getUserByID = `SELECT ` + userColumns + ` FROM users WHERE id = ?`

	getUserByEmail = `SELECT ` + userColumns + ` FROM users WHERE email = ?`

	listUsers = `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC, id DESC`

	updateUserRole = `UPDATE users SET role = ?, updated_at = ? WHERE id = ?`

	updateUserTwoFactorSecret = `UPDATE users SET two_factor_secret = ?, updated_at = ? WHERE id = ?`

	updateUserTwoFactorRequirement = `UPDATE users SET requires_two_factor = ?, updated_at = ? WHERE id = ?`

	updateUserPasswordHash = `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`
)

const (
	createSession = `INSERT INTO sessions (id, token_hash, user_id, expires_at, created_at) VALUES (?, ?, ?, ?, ?)`

	getSessionByTokenHash = `SELECT id, token_hash, user_id, expires_at, created_at FROM sessions WHERE token_hash = ?`

	deleteSessionsByTokenHash = `DELETE FROM sessions WHERE token_hash = ?`

	deleteExpiredSessions = `DELETE FROM sessions WHERE expires_at <= ?`
)
