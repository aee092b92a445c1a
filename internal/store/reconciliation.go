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

type reconciliationStore struct {
	db DBTX
}

func newReconciliationStore(db DBTX) ReconciliationStore {
	return &reconciliationStore{db: db}
}

const reconciliationColumns = `id, project_id, checklist_id, quote_id, status, comparison, resolutions,
	fingerprints, merge_summary, action_items, merged_at, published_at, created_at, updated_at`

func (s *reconciliationStore) GetByID(ctx context.Context, id int64) (*model.ReconciliationSession, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+reconciliationColumns+` FROM reconciliation_sessions WHERE id = $1`, id)
	return scanReconciliation(row)
}

func (s *reconciliationStore) Create(ctx context.Context, session *model.ReconciliationSession) error {
	comparison, err := json.Marshal(session.Comparison)
	if err != nil {
		return fmt.Errorf("marshal comparison: %w", err)
	}
	resolutions, err := marshalResolutions(session.Resolutions)
	if err != nil {
		return err
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO reconciliation_sessions (id, project_id, checklist_id, quote_id, status, comparison, resolutions, fingerprints)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+reconciliationColumns,
		session.ID, session.ProjectID, session.ChecklistID, session.QuoteID,
		session.Status, comparison, resolutions, session.Fingerprints)

	created, err := scanReconciliation(row)
	if err != nil {
		return err
	}
	*session = *created
	return nil
}

func (s *reconciliationStore) UpdateResolutions(ctx context.Context, id int64, resolutions []model.Resolution) error {
	data, err := marshalResolutions(resolutions)
	if err != nil {
		return err
	}

	tag, err := s.db.Exec(ctx, `
		UPDATE reconciliation_sessions
		SET resolutions = $2, updated_at = now()
		WHERE id = $1 AND status = 'open'`,
		id, data)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *reconciliationStore) UpdateComparison(ctx context.Context, id int64, comparison *model.ComparisonResult, fingerprints []string, resolutions []model.Resolution) error {
	comparisonData, err := json.Marshal(comparison)
	if err != nil {
		return fmt.Errorf("marshal comparison: %w", err)
	}
	resolutionData, err := marshalResolutions(resolutions)
	if err != nil {
		return err
	}

	tag, err := s.db.Exec(ctx, `
		UPDATE reconciliation_sessions
		SET comparison = $2, fingerprints = $3, resolutions = $4, updated_at = now()
		WHERE id = $1 AND status = 'open'`,
		id, comparisonData, fingerprints, resolutionData)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *reconciliationStore) MarkMerged(ctx context.Context, id int64, summary model.ResolutionSummary, actionItems []model.ActionItem, mergedAt time.Time) error {
	summaryData, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal merge summary: %w", err)
	}
	itemsData, err := json.Marshal(actionItems)
	if err != nil {
		return fmt.Errorf("marshal action items: %w", err)
	}

	tag, err := s.db.Exec(ctx, `
		UPDATE reconciliation_sessions
		SET status = $2, merge_summary = $3, action_items = $4, merged_at = $5, updated_at = now()
		WHERE id = $1`,
		id, model.ReconciliationStatusMerged, summaryData, itemsData, mergedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *reconciliationStore) MarkPublished(ctx context.Context, id int64, publishedAt time.Time) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE reconciliation_sessions
		SET status = $2, published_at = $3, updated_at = now()
		WHERE id = $1`,
		id, model.ReconciliationStatusPublished, publishedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *reconciliationStore) UpdateStatus(ctx context.Context, id int64, status model.ReconciliationStatus) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE reconciliation_sessions
		SET status = $2, updated_at = now()
		WHERE id = $1`,
		id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *reconciliationStore) ListByProject(ctx context.Context, projectID int64) ([]model.ReconciliationSession, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+reconciliationColumns+` FROM reconciliation_sessions
		WHERE project_id = $1 ORDER BY created_at DESC`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReconciliations(rows)
}

func (s *reconciliationStore) ListOpenByChecklist(ctx context.Context, checklistID int64) ([]model.ReconciliationSession, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+reconciliationColumns+` FROM reconciliation_sessions
		WHERE checklist_id = $1 AND status = 'open' ORDER BY created_at DESC`, checklistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReconciliations(rows)
}

func collectReconciliations(rows pgx.Rows) ([]model.ReconciliationSession, error) {
	var sessions []model.ReconciliationSession
	for rows.Next() {
		sess, err := scanReconciliation(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *sess)
	}
	return sessions, rows.Err()
}

func marshalResolutions(resolutions []model.Resolution) ([]byte, error) {
	if resolutions == nil {
		resolutions = []model.Resolution{}
	}
	data, err := json.Marshal(resolutions)
	if err != nil {
		return nil, fmt.Errorf("marshal resolutions: %w", err)
	}
	return data, nil
}

func scanReconciliation(row pgx.Row) (*model.ReconciliationSession, error) {
	var (
		sess         model.ReconciliationSession
		comparison   []byte
		resolutions  []byte
		mergeSummary []byte
		actionItems  []byte
	)
	err := row.Scan(&sess.ID, &sess.ProjectID, &sess.ChecklistID, &sess.QuoteID, &sess.Status,
		&comparison, &resolutions, &sess.Fingerprints, &mergeSummary, &actionItems,
		&sess.MergedAt, &sess.PublishedAt, &sess.CreatedAt, &sess.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if comparison != nil {
		if err := json.Unmarshal(comparison, &sess.Comparison); err != nil {
			return nil, fmt.Errorf("unmarshal comparison: %w", err)
		}
	}
	if resolutions != nil {
		if err := json.Unmarshal(resolutions, &sess.Resolutions); err != nil {
			return nil, fmt.Errorf("unmarshal resolutions: %w", err)
		}
	}
	if mergeSummary != nil {
		if err := json.Unmarshal(mergeSummary, &sess.MergeSummary); err != nil {
			return nil, fmt.Errorf("unmarshal merge summary: %w", err)
		}
	}
	if actionItems != nil {
		if err := json.Unmarshal(actionItems, &sess.ActionItems); err != nil {
			return nil, fmt.Errorf("unmarshal action items: %w", err)
		}
	}
	return &sess, nil
}
