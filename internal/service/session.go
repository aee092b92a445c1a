package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"planforge.app/anvil/common/graph"
	"planforge.app/anvil/common/id"
	"planforge.app/anvil/internal/drafter"
	"planforge.app/anvil/internal/model"
	"planforge.app/anvil/internal/queue"
	"planforge.app/anvil/internal/reconcile"
	"planforge.app/anvil/internal/store"
)

var (
	ErrSessionNotOpen    = errors.New("reconciliation session is not open")
	ErrSessionNotMerged  = errors.New("reconciliation session has not been merged")
	ErrSessionFinalized  = errors.New("reconciliation session is finalized")
	ErrQuoteNotExtracted = errors.New("quote assumptions have not been extracted")
	ErrProjectMismatch   = errors.New("artifact belongs to a different project")
)

// MergeOutcome bundles everything a merge produced: the session in its
// merged state, the persisted checklist, and the merge artifacts.
type MergeOutcome struct {
	Session     *model.ReconciliationSession `json:"session"`
	Checklist   *model.Checklist             `json:"checklist"`
	ActionItems []model.ActionItem           `json:"action_items"`
	Summary     model.ResolutionSummary      `json:"resolution_summary"`
}

// SessionService owns the reconciliation workflow: a session is created
// from a checklist/quote pair, collects resolutions, merges them into the
// checklist, and publishes the result. The reconciliation core stays pure;
// this service is where its inputs and outputs meet the database.
type SessionService interface {
	Start(ctx context.Context, projectID, checklistID, quoteID int64) (*model.ReconciliationSession, error)
	Get(ctx context.Context, sessionID int64) (*model.ReconciliationSession, error)
	ListByProject(ctx context.Context, projectID int64) ([]model.ReconciliationSession, error)
	RecordResolutions(ctx context.Context, sessionID int64, resolutions []model.Resolution) (*model.ReconciliationSession, reconcile.Progress, error)
	Progress(ctx context.Context, sessionID int64) (reconcile.Progress, error)
	Preview(ctx context.Context, sessionID int64) (reconcile.MergeSummary, error)
	RefreshComparison(ctx context.Context, sessionID int64) (*model.ReconciliationSession, error)
	Merge(ctx context.Context, sessionID int64) (*MergeOutcome, error)
	Publish(ctx context.Context, sessionID int64, targets []model.PublicationTarget, traceID *string) ([]model.Publication, error)
	Discard(ctx context.Context, sessionID int64) error
}

type sessionService struct {
	reconciliationStore store.ReconciliationStore
	checklistStore      store.ChecklistStore
	quoteStore          store.QuoteStore
	publicationStore    store.PublicationStore
	comparator          drafter.Comparator
	producer            queue.Producer
	txRunner            TxRunner
	search              SearchService
	trace               TraceService
}

func NewSessionService(
	reconciliationStore store.ReconciliationStore,
	checklistStore store.ChecklistStore,
	quoteStore store.QuoteStore,
	publicationStore store.PublicationStore,
	comparator drafter.Comparator,
	producer queue.Producer,
	txRunner TxRunner,
	searchSvc SearchService,
	trace TraceService,
) SessionService {
	return &sessionService{
		reconciliationStore: reconciliationStore,
		checklistStore:      checklistStore,
		quoteStore:          quoteStore,
		publicationStore:    publicationStore,
		comparator:          comparator,
		producer:            producer,
		txRunner:            txRunner,
		search:              searchSvc,
		trace:               trace,
	}
}

// Start creates a session from a checklist/quote pair: runs the comparator,
// fingerprints the conflicts, and persists the open session.
func (s *sessionService) Start(ctx context.Context, projectID, checklistID, quoteID int64) (*model.ReconciliationSession, error) {
	checklist, err := s.checklistStore.GetByID(ctx, checklistID)
	if err != nil {
		return nil, err
	}
	if checklist.ProjectID != projectID {
		return nil, fmt.Errorf("%w: checklist %d is not in project %d", ErrProjectMismatch, checklistID, projectID)
	}

	quote, err := s.quoteStore.GetByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if quote.ProjectID != projectID {
		return nil, fmt.Errorf("%w: quote %d is not in project %d", ErrProjectMismatch, quoteID, projectID)
	}
	if len(quote.Assumptions) == 0 {
		return nil, ErrQuoteNotExtracted
	}

	comparison, err := s.comparator.Compare(ctx, checklist, quote.Assumptions)
	if err != nil {
		return nil, fmt.Errorf("comparing checklist against quote: %w", err)
	}

	session := &model.ReconciliationSession{
		ID:           id.New(),
		ProjectID:    projectID,
		ChecklistID:  checklistID,
		QuoteID:      quoteID,
		Status:       model.ReconciliationStatusOpen,
		Comparison:   comparison,
		Fingerprints: reconcile.Fingerprints(comparison),
	}

	if err := s.reconciliationStore.Create(ctx, session); err != nil {
		slog.ErrorContext(ctx, "failed to create reconciliation session", "error", err, "project_id", projectID)
		return nil, fmt.Errorf("creating session: %w", err)
	}

	s.trace.RecordArtifacts(ctx, graph.Artifact{
		Kind:      graph.KindSession,
		RefID:     session.ID,
		Label:     fmt.Sprintf("Reconciliation vs %s", quote.VendorName),
		ProjectID: projectID,
	})
	s.trace.RecordLinks(ctx,
		graph.Link{
			FromKind: graph.KindSession,
			FromID:   session.ID,
			ToKind:   graph.KindChecklist,
			ToID:     checklistID,
			Relation: graph.RelationDerivedFrom,
		},
		graph.Link{
			FromKind: graph.KindChecklist,
			FromID:   checklistID,
			ToKind:   graph.KindQuote,
			ToID:     quoteID,
			Relation: graph.RelationComparedAgainst,
			Note:     fmt.Sprintf("session %d", session.ID),
		},
	)

	slog.InfoContext(ctx, "reconciliation session started",
		"project_id", projectID,
		"session_id", session.ID,
		"checklist_id", checklistID,
		"quote_id", quoteID,
		"conflicts", len(comparison.Conflicts),
		"matches", len(comparison.Matches),
	)
	return session, nil
}

func (s *sessionService) Get(ctx context.Context, sessionID int64) (*model.ReconciliationSession, error) {
	return s.reconciliationStore.GetByID(ctx, sessionID)
}

func (s *sessionService) ListByProject(ctx context.Context, projectID int64) ([]model.ReconciliationSession, error) {
	return s.reconciliationStore.ListByProject(ctx, projectID)
}

// RecordResolutions validates and records a batch of resolutions against an
// open session. The whole batch is validated before anything is persisted:
// one malformed resolution rejects the batch with no state change.
func (s *sessionService) RecordResolutions(ctx context.Context, sessionID int64, resolutions []model.Resolution) (*model.ReconciliationSession, reconcile.Progress, error) {
	if len(resolutions) == 0 {
		return nil, reconcile.Progress{}, fmt.Errorf("at least one resolution is required")
	}

	session, err := s.reconciliationStore.GetByID(ctx, sessionID)
	if err != nil {
		return nil, reconcile.Progress{}, err
	}
	if session.Status != model.ReconciliationStatusOpen {
		return nil, reconcile.Progress{}, fmt.Errorf("%w: status is %s", ErrSessionNotOpen, session.Status)
	}

	tracker := reconcile.NewTrackerFromSession(session)
	for _, res := range resolutions {
		if err := tracker.Record(res); err != nil {
			return nil, reconcile.Progress{}, err
		}
	}

	recorded := tracker.Resolutions()
	if err := s.reconciliationStore.UpdateResolutions(ctx, sessionID, recorded); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, reconcile.Progress{}, ErrSessionNotOpen
		}
		return nil, reconcile.Progress{}, fmt.Errorf("storing resolutions: %w", err)
	}
	session.Resolutions = recorded

	progress := tracker.Progress()
	slog.InfoContext(ctx, "resolutions recorded",
		"session_id", sessionID,
		"recorded", len(resolutions),
		"resolved_count", progress.ResolvedCount,
		"total_conflicts", progress.TotalConflicts,
	)
	return session, progress, nil
}

func (s *sessionService) Progress(ctx context.Context, sessionID int64) (reconcile.Progress, error) {
	session, err := s.reconciliationStore.GetByID(ctx, sessionID)
	if err != nil {
		return reconcile.Progress{}, err
	}
	return reconcile.NewTrackerFromSession(session).Progress(), nil
}

func (s *sessionService) Preview(ctx context.Context, sessionID int64) (reconcile.MergeSummary, error) {
	session, err := s.reconciliationStore.GetByID(ctx, sessionID)
	if err != nil {
		return reconcile.MergeSummary{}, err
	}
	return reconcile.Preview(session.Comparison), nil
}

// RefreshComparison re-runs the comparator for an open session. Recorded
// resolutions survive only where the conflict fingerprint at their index is
// unchanged; the rest are dropped rather than misapplied to a different
// conflict.
func (s *sessionService) RefreshComparison(ctx context.Context, sessionID int64) (*model.ReconciliationSession, error) {
	session, err := s.reconciliationStore.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != model.ReconciliationStatusOpen {
		return nil, fmt.Errorf("%w: status is %s", ErrSessionNotOpen, session.Status)
	}

	checklist, err := s.checklistStore.GetByID(ctx, session.ChecklistID)
	if err != nil {
		return nil, err
	}
	quote, err := s.quoteStore.GetByID(ctx, session.QuoteID)
	if err != nil {
		return nil, err
	}

	comparison, err := s.comparator.Compare(ctx, checklist, quote.Assumptions)
	if err != nil {
		return nil, fmt.Errorf("comparing checklist against quote: %w", err)
	}

	fingerprints := reconcile.Fingerprints(comparison)
	kept := make([]model.Resolution, 0, len(session.Resolutions))
	for _, res := range session.Resolutions {
		idx := res.ConflictIndex
		if idx >= len(fingerprints) || idx >= len(session.Fingerprints) {
			continue
		}
		if session.Fingerprints[idx] == fingerprints[idx] {
			kept = append(kept, res)
		}
	}
	dropped := len(session.Resolutions) - len(kept)

	if err := s.reconciliationStore.UpdateComparison(ctx, sessionID, comparison, fingerprints, kept); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSessionNotOpen
		}
		return nil, fmt.Errorf("storing refreshed comparison: %w", err)
	}

	session.Comparison = comparison
	session.Fingerprints = fingerprints
	session.Resolutions = kept

	slog.InfoContext(ctx, "session comparison refreshed",
		"session_id", sessionID,
		"conflicts", len(comparison.Conflicts),
		"resolutions_kept", len(kept),
		"resolutions_dropped", dropped,
	)
	return session, nil
}

// Merge runs the merge engine over the session's checklist and persists the
// updated checklist together with the session transition in one
// transaction. Re-running a merge on an already-merged session is allowed;
// the engine is idempotent for identical inputs.
func (s *sessionService) Merge(ctx context.Context, sessionID int64) (*MergeOutcome, error) {
	session, err := s.reconciliationStore.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	switch session.Status {
	case model.ReconciliationStatusOpen, model.ReconciliationStatusMerged:
	default:
		return nil, fmt.Errorf("%w: status is %s", ErrSessionFinalized, session.Status)
	}

	checklist, err := s.checklistStore.GetByID(ctx, session.ChecklistID)
	if err != nil {
		return nil, err
	}

	result, err := reconcile.Apply(checklist, session.Comparison, session.Resolutions)
	if err != nil {
		return nil, err
	}

	// Action items keep their IDs across re-merges when the item at the
	// same position is unchanged; everything else gets a fresh one.
	for i := range result.ActionItems {
		if i < len(session.ActionItems) && result.ActionItems[i].Title == session.ActionItems[i].Title {
			result.ActionItems[i].ID = session.ActionItems[i].ID
		}
		if result.ActionItems[i].ID == 0 {
			result.ActionItems[i].ID = id.New()
		}
	}

	now := time.Now().UTC()
	err = s.txRunner.WithTx(ctx, func(stores StoreProvider) error {
		if err := stores.Checklists().Update(ctx, result.UpdatedChecklist); err != nil {
			return fmt.Errorf("updating checklist: %w", err)
		}
		if err := stores.Reconciliations().MarkMerged(ctx, sessionID, result.Summary, result.ActionItems, now); err != nil {
			return fmt.Errorf("marking session merged: %w", err)
		}
		return nil
	})
	if err != nil {
		slog.ErrorContext(ctx, "merge transaction failed", "error", err, "session_id", sessionID)
		return nil, err
	}

	s.search.IndexChecklist(ctx, result.UpdatedChecklist)

	artifacts := make([]graph.Artifact, 0, len(result.ActionItems))
	links := make([]graph.Link, 0, len(result.ActionItems)+1)
	links = append(links, graph.Link{
		FromKind: graph.KindChecklist,
		FromID:   session.ChecklistID,
		ToKind:   graph.KindSession,
		ToID:     sessionID,
		Relation: graph.RelationResolvedBy,
	})
	for _, item := range result.ActionItems {
		artifacts = append(artifacts, graph.Artifact{
			Kind:      graph.KindActionItem,
			RefID:     item.ID,
			Label:     item.Title,
			ProjectID: session.ProjectID,
		})
		links = append(links, graph.Link{
			FromKind: graph.KindSession,
			FromID:   sessionID,
			ToKind:   graph.KindActionItem,
			ToID:     item.ID,
			Relation: graph.RelationClarifiedBy,
		})
	}
	s.trace.RecordArtifacts(ctx, artifacts...)
	s.trace.RecordLinks(ctx, links...)

	if open, listErr := s.reconciliationStore.ListOpenByChecklist(ctx, session.ChecklistID); listErr == nil && len(open) > 0 {
		slog.WarnContext(ctx, "merged a checklist that other open sessions still reference",
			"checklist_id", session.ChecklistID,
			"open_sessions", len(open),
		)
	}

	session.Status = model.ReconciliationStatusMerged
	session.MergeSummary = &result.Summary
	session.ActionItems = result.ActionItems
	session.MergedAt = &now

	slog.InfoContext(ctx, "session merged",
		"session_id", sessionID,
		"checklist_id", session.ChecklistID,
		"accepted_quote", result.Summary.AcceptedQuote,
		"action_items", len(result.ActionItems),
		"unresolved", result.Summary.UnresolvedCount,
	)
	return &MergeOutcome{
		Session:     session,
		Checklist:   result.UpdatedChecklist,
		ActionItems: result.ActionItems,
		Summary:     result.Summary,
	}, nil
}

// Publish enqueues publish jobs for a merged session. One Publication row
// per target tracks delivery; re-publishing resets existing rows to pending
// and enqueues again, which is safe because the worker updates rows in
// place.
func (s *sessionService) Publish(ctx context.Context, sessionID int64, targets []model.PublicationTarget, traceID *string) ([]model.Publication, error) {
	session, err := s.reconciliationStore.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	switch session.Status {
	case model.ReconciliationStatusMerged, model.ReconciliationStatusPublished:
	case model.ReconciliationStatusOpen:
		return nil, ErrSessionNotMerged
	default:
		return nil, fmt.Errorf("%w: status is %s", ErrSessionFinalized, session.Status)
	}

	if len(targets) == 0 {
		targets = []model.PublicationTarget{model.PublicationTargetWiki, model.PublicationTargetTracker}
	}
	for _, target := range targets {
		switch target {
		case model.PublicationTargetWiki, model.PublicationTargetTracker:
		default:
			return nil, fmt.Errorf("unknown publication target %q", target)
		}
	}

	publications := make([]model.Publication, 0, len(targets))
	taskTargets := make([]string, 0, len(targets))
	for _, target := range targets {
		pub := &model.Publication{
			ID:        id.New(),
			SessionID: sessionID,
			Target:    target,
			Status:    model.PublicationStatusPending,
		}
		if err := s.publicationStore.Upsert(ctx, pub); err != nil {
			return nil, fmt.Errorf("recording publication for %s: %w", target, err)
		}
		publications = append(publications, *pub)
		taskTargets = append(taskTargets, string(target))
	}

	task := queue.PublishTask{
		SessionID: sessionID,
		ProjectID: session.ProjectID,
		Targets:   taskTargets,
		TraceID:   traceID,
	}
	if err := s.producer.EnqueuePublish(ctx, task); err != nil {
		slog.ErrorContext(ctx, "failed to enqueue publish task", "error", err, "session_id", sessionID)
		return nil, fmt.Errorf("enqueueing publish task: %w", err)
	}

	slog.InfoContext(ctx, "publish requested",
		"session_id", sessionID,
		"targets", taskTargets,
	)
	return publications, nil
}

// Discard drops an open session: its resolutions disappear with it and the
// checklist is untouched. Merged and published sessions are kept for audit.
func (s *sessionService) Discard(ctx context.Context, sessionID int64) error {
	session, err := s.reconciliationStore.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.Status != model.ReconciliationStatusOpen {
		return fmt.Errorf("%w: status is %s", ErrSessionNotOpen, session.Status)
	}

	if err := s.reconciliationStore.UpdateStatus(ctx, sessionID, model.ReconciliationStatusDiscarded); err != nil {
		return fmt.Errorf("discarding session: %w", err)
	}

	slog.InfoContext(ctx, "session discarded", "session_id", sessionID)
	return nil
}
