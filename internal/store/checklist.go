package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"planforge.app/anvil/internal/model"
)

type checklistStore struct {
	db DBTX
}

func newChecklistStore(db DBTX) ChecklistStore {
	return &checklistStore{db: db}
}

const checklistColumns = `id, project_id, categories, statistics, resolutions_applied, created_at, updated_at`

func (s *checklistStore) GetByID(ctx context.Context, id int64) (*model.Checklist, error) {
	row := s.db.QueryRow(ctx, `SELECT `+checklistColumns+` FROM checklists WHERE id = $1`, id)
	return scanChecklist(row)
}

func (s *checklistStore) GetLatestByProject(ctx context.Context, projectID int64) (*model.Checklist, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+checklistColumns+` FROM checklists
		WHERE project_id = $1
		ORDER BY created_at DESC LIMIT 1`, projectID)
	return scanChecklist(row)
}

func (s *checklistStore) Create(ctx context.Context, checklist *model.Checklist) error {
	categories, statistics, err := marshalChecklist(checklist)
	if err != nil {
		return err
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO checklists (id, project_id, categories, statistics, resolutions_applied)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+checklistColumns,
		checklist.ID, checklist.ProjectID, categories, statistics, checklist.ResolutionsApplied)

	created, err := scanChecklist(row)
	if err != nil {
		return err
	}
	*checklist = *created
	return nil
}

func (s *checklistStore) Update(ctx context.Context, checklist *model.Checklist) error {
	categories, statistics, err := marshalChecklist(checklist)
	if err != nil {
		return err
	}

	row := s.db.QueryRow(ctx, `
		UPDATE checklists
		SET categories = $2, statistics = $3, resolutions_applied = $4, updated_at = now()
		WHERE id = $1
		RETURNING `+checklistColumns,
		checklist.ID, categories, statistics, checklist.ResolutionsApplied)

	updated, err := scanChecklist(row)
	if err != nil {
		return err
	}
	*checklist = *updated
	return nil
}

func marshalChecklist(checklist *model.Checklist) (categories, statistics []byte, err error) {
	categories, err = json.Marshal(checklist.Categories)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal checklist categories: %w", err)
	}
	statistics, err = json.Marshal(checklist.Statistics)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal checklist statistics: %w", err)
	}
	return categories, statistics, nil
}

func scanChecklist(row pgx.Row) (*model.Checklist, error) {
	var (
		c          model.Checklist
		categories []byte
		statistics []byte
	)
	err := row.Scan(&c.ID, &c.ProjectID, &categories, &statistics, &c.ResolutionsApplied, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(categories, &c.Categories); err != nil {
		return nil, fmt.Errorf("unmarshal checklist categories: %w", err)
	}
	if err := json.Unmarshal(statistics, &c.Statistics); err != nil {
		return nil, fmt.Errorf("unmarshal checklist statistics: %w", err)
	}
	return &c, nil
}
