package service

import (
	"context"
	"fmt"
	"log/slog"

	"planforge.app/anvil/common/graph"
	"planforge.app/anvil/common/id"
	"planforge.app/anvil/internal/drafter"
	"planforge.app/anvil/internal/model"
	"planforge.app/anvil/internal/store"
)

type ChecklistService interface {
	Generate(ctx context.Context, projectID int64) (*model.Checklist, error)
	Get(ctx context.Context, checklistID int64) (*model.Checklist, error)
	GetLatest(ctx context.Context, projectID int64) (*model.Checklist, error)
}

type checklistService struct {
	checklistStore store.ChecklistStore
	projectStore   store.ProjectStore
	documentStore  store.DocumentStore
	generator      drafter.ChecklistGenerator
	search         SearchService
	trace          TraceService
}

func NewChecklistService(
	checklistStore store.ChecklistStore,
	projectStore store.ProjectStore,
	documentStore store.DocumentStore,
	generator drafter.ChecklistGenerator,
	searchSvc SearchService,
	trace TraceService,
) ChecklistService {
	return &checklistService{
		checklistStore: checklistStore,
		projectStore:   projectStore,
		documentStore:  documentStore,
		generator:      generator,
		search:         searchSvc,
		trace:          trace,
	}
}

// Generate extracts a fresh requirements checklist from the project's
// documents. Each call creates a new checklist row; reconciliation sessions
// always start from the latest one.
func (s *checklistService) Generate(ctx context.Context, projectID int64) (*model.Checklist, error) {
	project, err := s.projectStore.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	docs, err := s.documentStore.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: nothing to extract requirements from", ErrNoDocuments)
	}

	checklist, err := s.generator.Generate(ctx, docs)
	if err != nil {
		return nil, fmt.Errorf("generating checklist: %w", err)
	}

	checklist.ID = id.New()
	checklist.ProjectID = projectID

	if err := s.checklistStore.Create(ctx, checklist); err != nil {
		slog.ErrorContext(ctx, "failed to store checklist", "error", err, "project_id", projectID)
		return nil, fmt.Errorf("storing checklist: %w", err)
	}

	s.search.IndexChecklist(ctx, checklist)

	s.trace.RecordArtifacts(ctx, graph.Artifact{
		Kind:      graph.KindChecklist,
		RefID:     checklist.ID,
		Label:     fmt.Sprintf("Checklist for %s", project.Name),
		ProjectID: projectID,
	})
	links := make([]graph.Link, len(docs))
	for i, doc := range docs {
		links[i] = graph.Link{
			FromKind: graph.KindChecklist,
			FromID:   checklist.ID,
			ToKind:   graph.KindDocument,
			ToID:     doc.ID,
			Relation: graph.RelationDerivedFrom,
		}
	}
	s.trace.RecordLinks(ctx, links...)

	slog.InfoContext(ctx, "checklist generated",
		"project_id", projectID,
		"checklist_id", checklist.ID,
		"total_prompts", checklist.Statistics.TotalPrompts,
		"requirements_found", checklist.Statistics.RequirementsFound,
		"coverage_percentage", checklist.Statistics.CoveragePercentage,
	)
	return checklist, nil
}

func (s *checklistService) Get(ctx context.Context, checklistID int64) (*model.Checklist, error) {
	return s.checklistStore.GetByID(ctx, checklistID)
}

func (s *checklistService) GetLatest(ctx context.Context, projectID int64) (*model.Checklist, error) {
	return s.checklistStore.GetLatestByProject(ctx, projectID)
}
