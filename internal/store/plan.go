package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"planforge.app/anvil/internal/model"
)

type planStore struct {
	db DBTX
}

func newPlanStore(db DBTX) PlanStore {
	return &planStore{db: db}
}

const planColumns = `id, project_id, title, summary, phases, source_document_ids, model, created_at`

func (s *planStore) GetByID(ctx context.Context, id int64) (*model.BuildPlan, error) {
	row := s.db.QueryRow(ctx, `SELECT `+planColumns+` FROM build_plans WHERE id = $1`, id)
	return scanPlan(row)
}

func (s *planStore) GetLatestByProject(ctx context.Context, projectID int64) (*model.BuildPlan, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+planColumns+` FROM build_plans
		WHERE project_id = $1
		ORDER BY created_at DESC LIMIT 1`, projectID)
	return scanPlan(row)
}

func (s *planStore) Create(ctx context.Context, plan *model.BuildPlan) error {
	phases, err := json.Marshal(plan.Phases)
	if err != nil {
		return fmt.Errorf("marshal plan phases: %w", err)
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO build_plans (id, project_id, title, summary, phases, source_document_ids, model)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+planColumns,
		plan.ID, plan.ProjectID, plan.Title, plan.Summary, phases, plan.SourceDocumentIDs, plan.Model)

	created, err := scanPlan(row)
	if err != nil {
		return err
	}
	*plan = *created
	return nil
}

func scanPlan(row pgx.Row) (*model.BuildPlan, error) {
	var (
		p      model.BuildPlan
		phases []byte
	)
	err := row.Scan(&p.ID, &p.ProjectID, &p.Title, &p.Summary, &phases, &p.SourceDocumentIDs, &p.Model, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(phases, &p.Phases); err != nil {
		return nil, fmt.Errorf("unmarshal plan phases: %w", err)
	}
	return &p, nil
}
