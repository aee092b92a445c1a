package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"planforge.app/anvil/internal/model"
)

type publicationStore struct {
	db DBTX
}

func newPublicationStore(db DBTX) PublicationStore {
	return &publicationStore{db: db}
}

const publicationColumns = `id, session_id, target, status, external_ref, attempt, last_error, published_at, created_at, updated_at`

func (s *publicationStore) GetByID(ctx context.Context, id int64) (*model.Publication, error) {
	row := s.db.QueryRow(ctx, `SELECT `+publicationColumns+` FROM publications WHERE id = $1`, id)
	return scanPublication(row)
}

func (s *publicationStore) GetBySessionAndTarget(ctx context.Context, sessionID int64, target model.PublicationTarget) (*model.Publication, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+publicationColumns+` FROM publications
		WHERE session_id = $1 AND target = $2`, sessionID, target)
	return scanPublication(row)
}

// Upsert inserts the one row per (session, target) pair, or resets an
// existing row back to pending for a re-publish.
func (s *publicationStore) Upsert(ctx context.Context, pub *model.Publication) error {
	row := s.db.QueryRow(ctx, `
		INSERT INTO publications (id, session_id, target, status, external_ref, attempt)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (session_id, target) DO UPDATE
		SET status = EXCLUDED.status, last_error = NULL, updated_at = now()
		RETURNING `+publicationColumns,
		pub.ID, pub.SessionID, pub.Target, pub.Status, pub.ExternalRef, pub.Attempt)

	stored, err := scanPublication(row)
	if err != nil {
		return err
	}
	*pub = *stored
	return nil
}

func (s *publicationStore) MarkPublished(ctx context.Context, id int64, externalRef string, publishedAt time.Time) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE publications
		SET status = $2, external_ref = $3, published_at = $4, last_error = NULL, updated_at = now()
		WHERE id = $1`,
		id, model.PublicationStatusPublished, externalRef, publishedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *publicationStore) MarkFailed(ctx context.Context, id int64, attempt int, lastError string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE publications
		SET status = $2, attempt = $3, last_error = $4, updated_at = now()
		WHERE id = $1`,
		id, model.PublicationStatusFailed, attempt, lastError)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *publicationStore) ListBySession(ctx context.Context, sessionID int64) ([]model.Publication, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+publicationColumns+` FROM publications
		WHERE session_id = $1 ORDER BY target ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pubs []model.Publication
	for rows.Next() {
		p, err := scanPublication(rows)
		if err != nil {
			return nil, err
		}
		pubs = append(pubs, *p)
	}
	return pubs, rows.Err()
}

func scanPublication(row pgx.Row) (*model.Publication, error) {
	var p model.Publication
	err := row.Scan(&p.ID, &p.SessionID, &p.Target, &p.Status, &p.ExternalRef, &p.Attempt,
		&p.LastError, &p.PublishedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}
