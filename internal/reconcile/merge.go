package reconcile

import (
	"sort"
	"strings"

	"planforge.app/anvil/internal/model"
)

// QuoteProvenance is stamped on a checklist item's source when a vendor
// quote assumption overwrites the customer requirement.
const QuoteProvenance = "updated from vendor quote"

// MergeResult is the output of folding resolutions into a checklist.
type MergeResult struct {
	UpdatedChecklist *model.Checklist
	ActionItems      []model.ActionItem
	Summary          model.ResolutionSummary
}

// Apply folds a resolution set into the checklist and returns a new
// checklist document. The input checklist is never mutated; calling Apply
// twice with the same inputs yields the same result, so a caller can
// safely retry after a downstream publish failure.
//
// Every resolution is validated before anything is copied or mutated.
// During application, a conflict whose category/requirement pair no
// longer exists in the checklist is skipped and counted as unresolved
// rather than aborting the merge.
func Apply(checklist *model.Checklist, comparison *model.ComparisonResult, resolutions []model.Resolution) (*MergeResult, error) {
	if checklist == nil {
		return nil, ErrNilChecklist
	}
	if comparison == nil {
		return nil, ErrNilComparison
	}
	total := len(comparison.Conflicts)
	for _, res := range resolutions {
		if err := validateForMerge(res, total); err != nil {
			return nil, err
		}
	}

	// At most one resolution per conflict index, last write wins.
	byIndex := make(map[int]model.Resolution, len(resolutions))
	for _, res := range resolutions {
		byIndex[res.ConflictIndex] = res
	}
	indices := make([]int, 0, len(byIndex))
	for idx := range byIndex {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	updated := checklist.Clone()
	actionItems := make([]model.ActionItem, 0)
	var summary model.ResolutionSummary

	applied := 0
	for _, idx := range indices {
		res := byIndex[idx]
		conflict := comparison.Conflicts[idx]
		item := findItem(updated, conflict.Category, conflict.ChecklistRequirement)
		if item == nil {
			// Stale reference: the checklist changed between comparison
			// and merge. Skip this one, keep going.
			continue
		}
		switch res.Type {
		case model.ResolutionTypeCustomerSpec:
			summary.AcceptedCustomerSpec++
		case model.ResolutionTypeQuote:
			item.Answer = conflict.QuoteAssumption
			item.Source = QuoteProvenance
			summary.AcceptedQuote++
		case model.ResolutionTypeAISuggestion:
			item.Answer = conflict.ResolutionSuggestion
			summary.AcceptedAISuggestion++
		case model.ResolutionTypeCustom:
			item.Answer = res.CustomText
			summary.AcceptedCustom++
		case model.ResolutionTypeActionItem:
			actionItems = append(actionItems, buildActionItem(res, conflict))
			summary.ActionItemsCreated++
		}
		applied++
	}
	summary.UnresolvedCount = total - applied

	updated.ResolutionsApplied = len(resolutions) > 0
	updated.Statistics = ComputeStatistics(updated)

	return &MergeResult{
		UpdatedChecklist: updated,
		ActionItems:      actionItems,
		Summary:          summary,
	}, nil
}

// validateForMerge is the merge-time counterpart of ValidateResolution.
// It accepts an action_item resolution without a title because the merge
// derives one from the conflict category.
func validateForMerge(res model.Resolution, totalConflicts int) error {
	if res.ConflictIndex < 0 || res.ConflictIndex >= totalConflicts {
		return newValidationError("conflict index %d out of range [0, %d)", res.ConflictIndex, totalConflicts)
	}
	switch res.Type {
	case model.ResolutionTypeCustomerSpec, model.ResolutionTypeQuote, model.ResolutionTypeAISuggestion, model.ResolutionTypeActionItem:
	case model.ResolutionTypeCustom:
		if strings.TrimSpace(res.CustomText) == "" {
			return newValidationError("custom resolution requires non-empty custom_text")
		}
	default:
		return newValidationError("unknown resolution type %q", res.Type)
	}
	return nil
}

func buildActionItem(res model.Resolution, conflict model.Conflict) model.ActionItem {
	var item model.ActionItem
	if res.ActionItem != nil {
		item = *res.ActionItem
	}
	if strings.TrimSpace(item.Title) == "" {
		item.Title = "Clarify: " + conflict.Category
	}
	return item
}

// findItem locates the checklist item a conflict was raised against. The
// pair (category name, requirement text) is the identity the comparator
// saw, so both must still match exactly.
func findItem(checklist *model.Checklist, category, requirement string) *model.ChecklistItem {
	for i := range checklist.Categories {
		if checklist.Categories[i].Name != category {
			continue
		}
		items := checklist.Categories[i].Items
		for j := range items {
			if items[j].Answer == requirement {
				return &items[j]
			}
		}
	}
	return nil
}
