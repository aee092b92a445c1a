package model

import "time"

type ReconciliationStatus string

const (
	ReconciliationStatusOpen      ReconciliationStatus = "open"
	ReconciliationStatusMerged    ReconciliationStatus = "merged"
	ReconciliationStatusPublished ReconciliationStatus = "published"
	ReconciliationStatusDiscarded ReconciliationStatus = "discarded"
)

// ReconciliationSession owns one checklist/quote/comparison triple and the
// per-conflict resolution decisions recorded against it. The comparison and
// resolutions are transient state: they exist until the merge folds them
// into the checklist and the session is published or discarded.
//
// Sessions are single-writer. Concurrent reconciliations are isolated by
// giving each its own session; sessions never share mutable data.
type ReconciliationSession struct {
	ID          int64                `json:"id"`
	ProjectID   int64                `json:"project_id"`
	ChecklistID int64                `json:"checklist_id"`
	QuoteID     int64                `json:"quote_id"`
	Status      ReconciliationStatus `json:"status"`

	Comparison *ComparisonResult `json:"comparison,omitempty"`

	// Resolutions keyed by conflict index; stored sorted by index.
	Resolutions []Resolution `json:"resolutions,omitempty"`

	// Fingerprints holds one content hash per conflict, computed at session
	// creation. The index stays the join key; fingerprints only guard
	// against a regenerated comparison being joined with stale resolutions.
	Fingerprints []string `json:"fingerprints,omitempty"`

	MergeSummary *ResolutionSummary `json:"merge_summary,omitempty"`
	ActionItems  []ActionItem       `json:"action_items,omitempty"`
	MergedAt     *time.Time         `json:"merged_at,omitempty"`
	PublishedAt  *time.Time         `json:"published_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ResolutionByIndex returns the recorded resolution for a conflict index.
func (s *ReconciliationSession) ResolutionByIndex(idx int) (Resolution, bool) {
	for _, r := range s.Resolutions {
		if r.ConflictIndex == idx {
			return r, true
		}
	}
	return Resolution{}, false
}

// TotalConflicts reports the size of the session's conflict set.
func (s *ReconciliationSession) TotalConflicts() int {
	if s.Comparison == nil {
		return 0
	}
	return len(s.Comparison.Conflicts)
}
