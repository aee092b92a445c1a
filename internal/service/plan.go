package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"planforge.app/anvil/common/id"
	"planforge.app/anvil/internal/drafter"
	"planforge.app/anvil/internal/model"
	"planforge.app/anvil/internal/store"
)

// ErrNoDocuments rejects generation for a project with nothing registered
// to draft from.
var ErrNoDocuments = errors.New("project has no documents")

type PlanService interface {
	Generate(ctx context.Context, projectID int64) (*model.BuildPlan, error)
	GetLatest(ctx context.Context, projectID int64) (*model.BuildPlan, error)
}

type planService struct {
	planStore     store.PlanStore
	projectStore  store.ProjectStore
	documentStore store.DocumentStore
	drafter       drafter.PlanDrafter
}

func NewPlanService(planStore store.PlanStore, projectStore store.ProjectStore, documentStore store.DocumentStore, planDrafter drafter.PlanDrafter) PlanService {
	return &planService{
		planStore:     planStore,
		projectStore:  projectStore,
		documentStore: documentStore,
		drafter:       planDrafter,
	}
}

// Generate drafts a new Strategic Build Plan from the project's documents.
// Each call creates a new plan row; the latest one wins.
func (s *planService) Generate(ctx context.Context, projectID int64) (*model.BuildPlan, error) {
	project, err := s.projectStore.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	docs, err := s.documentStore.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: nothing to plan from", ErrNoDocuments)
	}

	plan, err := s.drafter.Draft(ctx, project, docs)
	if err != nil {
		return nil, fmt.Errorf("drafting plan: %w", err)
	}

	plan.ID = id.New()
	plan.ProjectID = projectID
	plan.SourceDocumentIDs = make([]int64, len(docs))
	for i, doc := range docs {
		plan.SourceDocumentIDs[i] = doc.ID
	}

	if err := s.planStore.Create(ctx, plan); err != nil {
		slog.ErrorContext(ctx, "failed to store build plan", "error", err, "project_id", projectID)
		return nil, fmt.Errorf("storing plan: %w", err)
	}

	slog.InfoContext(ctx, "build plan generated",
		"project_id", projectID,
		"plan_id", plan.ID,
		"phase_count", len(plan.Phases),
	)
	return plan, nil
}

func (s *planService) GetLatest(ctx context.Context, projectID int64) (*model.BuildPlan, error) {
	return s.planStore.GetLatestByProject(ctx, projectID)
}
