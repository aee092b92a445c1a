package reconcile

import "planforge.app/anvil/internal/model"

// MergeSummary is a read-only projection of a comparison result used to
// gate the merge and publish actions in the dashboard.
type MergeSummary struct {
	TotalMatches   int  `json:"total_matches"`
	QuoteAdditions int  `json:"quote_additions"`
	ReadyToMerge   bool `json:"ready_to_merge"`
}

// Preview summarizes what a merge would do without invoking the merge
// engine or touching any state. ReadyToMerge depends only on the conflict
// count, never on resolution progress.
func Preview(comparison *model.ComparisonResult) MergeSummary {
	if comparison == nil {
		return MergeSummary{ReadyToMerge: true}
	}
	return MergeSummary{
		TotalMatches:   len(comparison.Matches),
		QuoteAdditions: len(comparison.QuoteOnly),
		ReadyToMerge:   len(comparison.Conflicts) == 0,
	}
}
