package handler_test

import (
	"context"

	"planforge.app/anvil/common/graph"
	"planforge.app/anvil/common/search"
	"planforge.app/anvil/internal/model"
	"planforge.app/anvil/internal/reconcile"
	"planforge.app/anvil/internal/service"
)

type mockProjectService struct {
	createFn  func(ctx context.Context, name, customerName string) (*model.Project, error)
	getFn     func(ctx context.Context, projectID int64) (*model.Project, error)
	listFn    func(ctx context.Context, status *model.ProjectStatus) ([]model.Project, error)
	renameFn  func(ctx context.Context, projectID int64, name string) (*model.Project, error)
	archiveFn func(ctx context.Context, projectID int64) (*model.Project, error)
}

func (m *mockProjectService) Create(ctx context.Context, name, customerName string) (*model.Project, error) {
	if m.createFn != nil {
		return m.createFn(ctx, name, customerName)
	}
	return &model.Project{ID: 1, Name: name, CustomerName: customerName, Status: model.ProjectStatusActive}, nil
}

func (m *mockProjectService) Get(ctx context.Context, projectID int64) (*model.Project, error) {
	if m.getFn != nil {
		return m.getFn(ctx, projectID)
	}
	return &model.Project{ID: projectID, Name: "Test Project", Status: model.ProjectStatusActive}, nil
}

func (m *mockProjectService) List(ctx context.Context, status *model.ProjectStatus) ([]model.Project, error) {
	if m.listFn != nil {
		return m.listFn(ctx, status)
	}
	return []model.Project{}, nil
}

func (m *mockProjectService) Rename(ctx context.Context, projectID int64, name string) (*model.Project, error) {
	if m.renameFn != nil {
		return m.renameFn(ctx, projectID, name)
	}
	return &model.Project{ID: projectID, Name: name, Status: model.ProjectStatusActive}, nil
}

func (m *mockProjectService) Archive(ctx context.Context, projectID int64) (*model.Project, error) {
	if m.archiveFn != nil {
		return m.archiveFn(ctx, projectID)
	}
	return &model.Project{ID: projectID, Name: "Test Project", Status: model.ProjectStatusArchived}, nil
}

type mockSessionService struct {
	startFn             func(ctx context.Context, projectID, checklistID, quoteID int64) (*model.ReconciliationSession, error)
	getFn               func(ctx context.Context, sessionID int64) (*model.ReconciliationSession, error)
	listByProjectFn     func(ctx context.Context, projectID int64) ([]model.ReconciliationSession, error)
	recordResolutionsFn func(ctx context.Context, sessionID int64, resolutions []model.Resolution) (*model.ReconciliationSession, reconcile.Progress, error)
	progressFn          func(ctx context.Context, sessionID int64) (reconcile.Progress, error)
	previewFn           func(ctx context.Context, sessionID int64) (reconcile.MergeSummary, error)
	refreshFn           func(ctx context.Context, sessionID int64) (*model.ReconciliationSession, error)
	mergeFn             func(ctx context.Context, sessionID int64) (*service.MergeOutcome, error)
	publishFn           func(ctx context.Context, sessionID int64, targets []model.PublicationTarget, traceID *string) ([]model.Publication, error)
	discardFn           func(ctx context.Context, sessionID int64) error
}

func openSession(sessionID int64) *model.ReconciliationSession {
	return &model.ReconciliationSession{
		ID:          sessionID,
		ProjectID:   7,
		ChecklistID: 100,
		QuoteID:     300,
		Status:      model.ReconciliationStatusOpen,
		Comparison: &model.ComparisonResult{
			Conflicts: []model.Conflict{
				{Category: "Materials", ConflictDescription: "alloy differs"},
				{Category: "Finishing", ConflictDescription: "coating unspecified"},
			},
		},
		Fingerprints: []string{"fp-0", "fp-1"},
	}
}

func (m *mockSessionService) Start(ctx context.Context, projectID, checklistID, quoteID int64) (*model.ReconciliationSession, error) {
	if m.startFn != nil {
		return m.startFn(ctx, projectID, checklistID, quoteID)
	}
	return openSession(500), nil
}

func (m *mockSessionService) Get(ctx context.Context, sessionID int64) (*model.ReconciliationSession, error) {
	if m.getFn != nil {
		return m.getFn(ctx, sessionID)
	}
	return openSession(sessionID), nil
}

func (m *mockSessionService) ListByProject(ctx context.Context, projectID int64) ([]model.ReconciliationSession, error) {
	if m.listByProjectFn != nil {
		return m.listByProjectFn(ctx, projectID)
	}
	return []model.ReconciliationSession{}, nil
}

func (m *mockSessionService) RecordResolutions(ctx context.Context, sessionID int64, resolutions []model.Resolution) (*model.ReconciliationSession, reconcile.Progress, error) {
	if m.recordResolutionsFn != nil {
		return m.recordResolutionsFn(ctx, sessionID, resolutions)
	}
	session := openSession(sessionID)
	session.Resolutions = resolutions
	return session, reconcile.Progress{ResolvedCount: len(resolutions), TotalConflicts: 2, Percentage: 50}, nil
}

func (m *mockSessionService) Progress(ctx context.Context, sessionID int64) (reconcile.Progress, error) {
	if m.progressFn != nil {
		return m.progressFn(ctx, sessionID)
	}
	return reconcile.Progress{TotalConflicts: 2}, nil
}

func (m *mockSessionService) Preview(ctx context.Context, sessionID int64) (reconcile.MergeSummary, error) {
	if m.previewFn != nil {
		return m.previewFn(ctx, sessionID)
	}
	return reconcile.MergeSummary{}, nil
}

func (m *mockSessionService) RefreshComparison(ctx context.Context, sessionID int64) (*model.ReconciliationSession, error) {
	if m.refreshFn != nil {
		return m.refreshFn(ctx, sessionID)
	}
	return openSession(sessionID), nil
}

func (m *mockSessionService) Merge(ctx context.Context, sessionID int64) (*service.MergeOutcome, error) {
	if m.mergeFn != nil {
		return m.mergeFn(ctx, sessionID)
	}
	session := openSession(sessionID)
	session.Status = model.ReconciliationStatusMerged
	return &service.MergeOutcome{
		Session:   session,
		Checklist: &model.Checklist{ID: 100, ProjectID: 7},
	}, nil
}

func (m *mockSessionService) Publish(ctx context.Context, sessionID int64, targets []model.PublicationTarget, traceID *string) ([]model.Publication, error) {
	if m.publishFn != nil {
		return m.publishFn(ctx, sessionID, targets, traceID)
	}
	return []model.Publication{}, nil
}

func (m *mockSessionService) Discard(ctx context.Context, sessionID int64) error {
	if m.discardFn != nil {
		return m.discardFn(ctx, sessionID)
	}
	return nil
}

type mockReconcileService struct {
	compareFn func(ctx context.Context, checklist *model.Checklist, assumptions []model.QuoteAssumption) (*model.ComparisonResult, error)
	resolveFn func(ctx context.Context, checklist *model.Checklist, comparison *model.ComparisonResult, resolutions []model.Resolution) (*reconcile.MergeResult, error)
	previewFn func(ctx context.Context, comparison *model.ComparisonResult) reconcile.MergeSummary
}

func (m *mockReconcileService) Compare(ctx context.Context, checklist *model.Checklist, assumptions []model.QuoteAssumption) (*model.ComparisonResult, error) {
	if m.compareFn != nil {
		return m.compareFn(ctx, checklist, assumptions)
	}
	return &model.ComparisonResult{}, nil
}

func (m *mockReconcileService) Resolve(ctx context.Context, checklist *model.Checklist, comparison *model.ComparisonResult, resolutions []model.Resolution) (*reconcile.MergeResult, error) {
	if m.resolveFn != nil {
		return m.resolveFn(ctx, checklist, comparison, resolutions)
	}
	return &reconcile.MergeResult{UpdatedChecklist: checklist}, nil
}

func (m *mockReconcileService) Preview(ctx context.Context, comparison *model.ComparisonResult) reconcile.MergeSummary {
	if m.previewFn != nil {
		return m.previewFn(ctx, comparison)
	}
	return reconcile.Preview(comparison)
}

type mockSearchService struct {
	queryFn func(ctx context.Context, projectID int64, query string, limit int) ([]search.Hit, error)
}

func (m *mockSearchService) IndexChecklist(ctx context.Context, checklist *model.Checklist) {}

func (m *mockSearchService) Query(ctx context.Context, projectID int64, query string, limit int) ([]search.Hit, error) {
	if m.queryFn != nil {
		return m.queryFn(ctx, projectID, query, limit)
	}
	return []search.Hit{}, nil
}

type mockTraceService struct {
	traceFn func(ctx context.Context, kind string, refID int64, opts graph.TraversalOptions) ([]graph.TraceNode, []graph.TraceEdge, error)
}

func (m *mockTraceService) RecordArtifacts(ctx context.Context, artifacts ...graph.Artifact) {}

func (m *mockTraceService) RecordLinks(ctx context.Context, links ...graph.Link) {}

func (m *mockTraceService) Trace(ctx context.Context, kind string, refID int64, opts graph.TraversalOptions) ([]graph.TraceNode, []graph.TraceEdge, error) {
	if m.traceFn != nil {
		return m.traceFn(ctx, kind, refID, opts)
	}
	return []graph.TraceNode{}, []graph.TraceEdge{}, nil
}
