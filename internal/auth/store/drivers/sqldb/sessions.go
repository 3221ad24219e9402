package sqldb

import (
	"context"
	"time"

	"github.com/aussiebroadwan/rodneyauth/internal/auth/domain"
)

type sessionsRepo struct {
	q *Queries
}

func (r *sessionsRepo) CreateSession(ctx context.Context, s domain.Session) error {
	_, err := r.q.exec(ctx, createSession,
		s.ID,
		s.TokenHash,
		s.UserID,
		toMillis(s.ExpiresAt),
		toMillis(s.CreatedAt),
	)
	return r.q.mapWriteErr(err)
}

func (r *sessionsRepo) GetSessionByTokenHash(ctx context.Context, hash string) (domain.Session, error) {
	var (
		s                    domain.Session
		expiresAt, createdAt int64
	)
	err := r.q.queryRow(ctx, getSessionByTokenHash, hash).Scan(
		&s.ID,
		&s.TokenHash,
		&s.UserID,
		&expiresAt,
		&createdAt,
	)
	if err != nil {
		return domain.Session{}, mapNotFound(err)
	}

	s.ExpiresAt = fromMillis(expiresAt)
	s.CreatedAt = fromMillis(createdAt)
	return s, nil
}

func (r *sessionsRepo) DeleteSessionsByTokenHash(ctx context.Context, hash string) error {
	_, err := r.q.exec(ctx, deleteSessionsByTokenHash, hash)
	return err
}

func (r *sessionsRepo) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.q.exec(ctx, deleteExpiredSessions, toMillis(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
