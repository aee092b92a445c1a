package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"planforge.app/anvil/internal/model"
)

type documentStore struct {
	db DBTX
}

func newDocumentStore(db DBTX) DocumentStore {
	return &documentStore{db: db}
}

const documentColumns = `id, project_id, title, kind, content, pages, created_at, updated_at`

func (s *documentStore) GetByID(ctx context.Context, id int64) (*model.Document, error) {
	row := s.db.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)
	return scanDocument(row)
}

func (s *documentStore) Create(ctx context.Context, doc *model.Document) error {
	row := s.db.QueryRow(ctx, `
		INSERT INTO documents (id, project_id, title, kind, content, pages)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+documentColumns,
		doc.ID, doc.ProjectID, doc.Title, doc.Kind, doc.Content, doc.Pages)

	created, err := scanDocument(row)
	if err != nil {
		return err
	}
	*doc = *created
	return nil
}

func (s *documentStore) Delete(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *documentStore) ListByProject(ctx context.Context, projectID int64) ([]model.Document, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+documentColumns+` FROM documents
		WHERE project_id = $1 ORDER BY created_at ASC`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *d)
	}
	return docs, rows.Err()
}

func scanDocument(row pgx.Row) (*model.Document, error) {
	var d model.Document
	err := row.Scan(&d.ID, &d.ProjectID, &d.Title, &d.Kind, &d.Content, &d.Pages, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}
