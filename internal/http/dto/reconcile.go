package dto

import (
	"planforge.app/anvil/internal/model"
	"planforge.app/anvil/internal/reconcile"
)

type CompareRequest struct {
	Checklist        *model.Checklist        `json:"checklist" binding:"required"`
	QuoteAssumptions []model.QuoteAssumption `json:"quote_assumptions" binding:"required,min=1"`
}

type ResolveRequest struct {
	Checklist   *model.Checklist        `json:"checklist" binding:"required"`
	Comparison  *model.ComparisonResult `json:"comparison" binding:"required"`
	Resolutions []model.Resolution      `json:"resolutions" binding:"required,min=1"`
}

type ResolveResponse struct {
	UpdatedChecklist *model.Checklist        `json:"updated_checklist"`
	ActionItems      []model.ActionItem      `json:"action_items"`
	Summary          model.ResolutionSummary `json:"resolution_summary"`
}

// MergePreviewRequest tolerates the checklist and assumptions being sent
// alongside the comparison; the preview is derived from the comparison
// alone.
type MergePreviewRequest struct {
	Checklist        *model.Checklist        `json:"checklist,omitempty"`
	QuoteAssumptions []model.QuoteAssumption `json:"quote_assumptions,omitempty"`
	Comparison       *model.ComparisonResult `json:"comparison" binding:"required"`
}

func ToResolveResponse(result *reconcile.MergeResult) *ResolveResponse {
	return &ResolveResponse{
		UpdatedChecklist: result.UpdatedChecklist,
		ActionItems:      result.ActionItems,
		Summary:          result.Summary,
	}
}
