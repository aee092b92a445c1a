package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"planforge.app/anvil/internal/model"
)

type quoteStore struct {
	db DBTX
}

func newQuoteStore(db DBTX) QuoteStore {
	return &quoteStore{db: db}
}

const quoteColumns = `id, project_id, vendor_name, reference, content, assumptions, extracted_at, created_at, updated_at`

func (s *quoteStore) GetByID(ctx context.Context, id int64) (*model.Quote, error) {
	row := s.db.QueryRow(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE id = $1`, id)
	return scanQuote(row)
}

func (s *quoteStore) Create(ctx context.Context, quote *model.Quote) error {
	row := s.db.QueryRow(ctx, `
		INSERT INTO quotes (id, project_id, vendor_name, reference, content)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+quoteColumns,
		quote.ID, quote.ProjectID, quote.VendorName, quote.Reference, quote.Content)

	created, err := scanQuote(row)
	if err != nil {
		return err
	}
	*quote = *created
	return nil
}

func (s *quoteStore) UpdateAssumptions(ctx context.Context, id int64, assumptions []model.QuoteAssumption, extractedAt time.Time) error {
	data, err := json.Marshal(assumptions)
	if err != nil {
		return fmt.Errorf("marshal quote assumptions: %w", err)
	}

	tag, err := s.db.Exec(ctx, `
		UPDATE quotes
		SET assumptions = $2, extracted_at = $3, updated_at = now()
		WHERE id = $1`,
		id, data, extractedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *quoteStore) ListByProject(ctx context.Context, projectID int64) ([]model.Quote, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+quoteColumns+` FROM quotes
		WHERE project_id = $1 ORDER BY created_at DESC`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quotes []model.Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, *q)
	}
	return quotes, rows.Err()
}

func scanQuote(row pgx.Row) (*model.Quote, error) {
	var (
		q           model.Quote
		assumptions []byte
	)
	err := row.Scan(&q.ID, &q.ProjectID, &q.VendorName, &q.Reference, &q.Content, &assumptions, &q.ExtractedAt, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if assumptions != nil {
		if err := json.Unmarshal(assumptions, &q.Assumptions); err != nil {
			return nil, fmt.Errorf("unmarshal quote assumptions: %w", err)
		}
	}
	return &q, nil
}
