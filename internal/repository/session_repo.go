package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"auth-service/internal/model"
)

// SessionRepository persists refresh-token sessions. Writes are retried on
// transient errors according to its RetryPolicy.
type SessionRepository struct {
	db    DBTX
	retry RetryPolicy
}

func NewSessionRepository(db DBTX, retry RetryPolicy) *SessionRepository {
	return &SessionRepository{db: db, retry: retry}
}

func (r *SessionRepository) Create(ctx context.Context, userID int64, expiresAt time.Time) (model.Session, error) {
	s := model.Session{UserID: userID, ExpiresAt: expiresAt.UTC()}

	err := r.retry.retry(ctx, func() error {
		return r.db.QueryRow(ctx,
			`INSERT INTO sessions (user_id, expires_at)
			 VALUES ($1, $2)
			 RETURNING id, created_at`,
			s.UserID, s.ExpiresAt).Scan(&s.ID, &s.CreatedAt)
	})
	if err != nil {
		return model.Session{}, fmt.Errorf("%w: create session: %w", model.ErrStorage, err)
	}
	return s, nil
}

func (r *SessionRepository) FindByID(ctx context.Context, id int64) (model.Session, error) {
	var s model.Session
	err := r.db.QueryRow(ctx,
		`SELECT id, user_id, expires_at, created_at FROM sessions WHERE id = $1`, id).
		Scan(&s.ID, &s.UserID, &s.ExpiresAt, &s.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.Session{}, model.ErrSessionNotFound
	}
	if err != nil {
		return model.Session{}, fmt.Errorf("%w: find session: %w", model.ErrStorage, err)
	}
	return s, nil
}

// Delete removes a session and reports whether a row was removed. Deleting
// an unknown id is not an error.
func (r *SessionRepository) Delete(ctx context.Context, id int64) (bool, error) {
	var deleted int64
	err := r.retry.retry(ctx, func() error {
		tag, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
		if err != nil {
			return err
		}
		deleted = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("%w: delete session: %w", model.ErrStorage, err)
	}
	return deleted > 0, nil
}

func (r *SessionRepository) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	var deleted int64
	err := r.retry.retry(ctx, func() error {
		tag, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
		if err != nil {
			return err
		}
		deleted = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: delete user sessions: %w", model.ErrStorage, err)
	}
	return deleted, nil
}

func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("%w: delete expired sessions: %w", model.ErrStorage, err)
	}
	return tag.RowsAffected(), nil
}
