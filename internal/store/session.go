package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"planforge.app/anvil/internal/model"
)

type sessionStore struct {
	db DBTX
}

func newSessionStore(db DBTX) SessionStore {
	return &sessionStore{db: db}
}

func (s *sessionStore) GetByID(ctx context.Context, id int64) (*model.Session, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, user_id, expires_at, created_at
		FROM sessions WHERE id = $1`, id)
	return scanSession(row)
}

// GetValid filters expiry in SQL so callers never see a stale session.
func (s *sessionStore) GetValid(ctx context.Context, id int64) (*model.Session, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, user_id, expires_at, created_at
		FROM sessions WHERE id = $1 AND expires_at > now()`, id)
	return scanSession(row)
}

func (s *sessionStore) Create(ctx context.Context, session *model.Session) error {
	row := s.db.QueryRow(ctx, `
		INSERT INTO sessions (id, user_id, expires_at)
		VALUES ($1, $2, $3)
		RETURNING created_at`,
		session.ID, session.UserID, session.ExpiresAt)
	return row.Scan(&session.CreatedAt)
}

func (s *sessionStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}

func (s *sessionStore) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM sessions WHERE expires_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanSession(row pgx.Row) (*model.Session, error) {
	var sess model.Session
	err := row.Scan(&sess.ID, &sess.UserID, &sess.ExpiresAt, &sess.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sess, nil
}
