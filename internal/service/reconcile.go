package service

import (
	"context"
	"fmt"
	"log/slog"

	"planforge.app/anvil/internal/drafter"
	"planforge.app/anvil/internal/model"
	"planforge.app/anvil/internal/reconcile"
)

// ReconcileService exposes the reconciliation core as stateless operations:
// callers bring the full checklist, comparison and resolutions in the
// request and get the derived result back. Nothing here touches the
// database; the session workflow layers persistence on top.
type ReconcileService interface {
	Compare(ctx context.Context, checklist *model.Checklist, assumptions []model.QuoteAssumption) (*model.ComparisonResult, error)
	Resolve(ctx context.Context, checklist *model.Checklist, comparison *model.ComparisonResult, resolutions []model.Resolution) (*reconcile.MergeResult, error)
	Preview(ctx context.Context, comparison *model.ComparisonResult) reconcile.MergeSummary
}

type reconcileService struct {
	comparator drafter.Comparator
}

func NewReconcileService(comparator drafter.Comparator) ReconcileService {
	return &reconcileService{comparator: comparator}
}

func (s *reconcileService) Compare(ctx context.Context, checklist *model.Checklist, assumptions []model.QuoteAssumption) (*model.ComparisonResult, error) {
	if checklist == nil {
		return nil, fmt.Errorf("checklist is required")
	}
	if len(assumptions) == 0 {
		return nil, fmt.Errorf("at least one quote assumption is required")
	}

	comparison, err := s.comparator.Compare(ctx, checklist, assumptions)
	if err != nil {
		return nil, fmt.Errorf("comparing checklist against quote: %w", err)
	}

	slog.InfoContext(ctx, "comparison completed",
		"matches", len(comparison.Matches),
		"conflicts", len(comparison.Conflicts),
		"quote_only", len(comparison.QuoteOnly),
		"checklist_only", len(comparison.ChecklistOnly),
	)
	return comparison, nil
}

func (s *reconcileService) Resolve(ctx context.Context, checklist *model.Checklist, comparison *model.ComparisonResult, resolutions []model.Resolution) (*reconcile.MergeResult, error) {
	result, err := reconcile.Apply(checklist, comparison, resolutions)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "resolutions applied",
		"resolution_count", len(resolutions),
		"action_items", len(result.ActionItems),
		"unresolved", result.Summary.UnresolvedCount,
	)
	return result, nil
}

func (s *reconcileService) Preview(ctx context.Context, comparison *model.ComparisonResult) reconcile.MergeSummary {
	return reconcile.Preview(comparison)
}
