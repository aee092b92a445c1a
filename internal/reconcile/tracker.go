package reconcile

import (
	"math"
	"sort"
	"strings"

	"planforge.app/anvil/internal/model"
)

// Progress is a snapshot of how far a reconciliation session has come.
type Progress struct {
	ResolvedCount  int  `json:"resolved_count"`
	TotalConflicts int  `json:"total_conflicts"`
	Percentage     int  `json:"percentage"`
	AllResolved    bool `json:"all_resolved"`
}

// Tracker records per-conflict resolution decisions keyed by conflict
// index. Conflicts keep the index they were assigned when the comparison
// was produced, so the tracker only needs the conflict count up front.
// Recording the same index twice keeps the later payload.
type Tracker struct {
	total       int
	resolutions map[int]model.Resolution
}

func NewTracker(totalConflicts int) *Tracker {
	if totalConflicts < 0 {
		totalConflicts = 0
	}
	return &Tracker{
		total:       totalConflicts,
		resolutions: make(map[int]model.Resolution),
	}
}

// NewTrackerFromSession rebuilds a tracker from a persisted session. Stored
// resolutions were validated when first recorded; replay skips any entry
// that no longer fits so a truncated comparison cannot poison the tracker.
func NewTrackerFromSession(session *model.ReconciliationSession) *Tracker {
	t := NewTracker(session.TotalConflicts())
	for _, res := range session.Resolutions {
		_ = t.Record(res) //nolint:errcheck
	}
	return t
}

// Record validates the resolution and stores it. Validation happens before
// any mutation: a rejected payload leaves the tracker exactly as it was.
func (t *Tracker) Record(res model.Resolution) error {
	if err := ValidateResolution(res, t.total); err != nil {
		return err
	}
	t.resolutions[res.ConflictIndex] = res
	return nil
}

// Resolutions returns the recorded resolutions ordered by conflict index.
func (t *Tracker) Resolutions() []model.Resolution {
	out := make([]model.Resolution, 0, len(t.resolutions))
	for _, res := range t.resolutions {
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ConflictIndex < out[j].ConflictIndex
	})
	return out
}

// Progress is computed from current state on every call, never cached.
func (t *Tracker) Progress() Progress {
	resolved := len(t.resolutions)
	percentage := 100
	if t.total > 0 {
		percentage = int(math.Round(float64(resolved) / float64(t.total) * 100))
	}
	return Progress{
		ResolvedCount:  resolved,
		TotalConflicts: t.total,
		Percentage:     percentage,
		AllResolved:    resolved >= t.total && t.total > 0,
	}
}

// IsComplete reports whether every conflict has a recorded resolution.
func (t *Tracker) IsComplete() bool {
	return len(t.resolutions) == t.total
}

// ValidateResolution checks a resolution payload against the conflict
// count of one comparison result. It returns a ValidationError for an
// out-of-range index, an unknown resolution type, or a missing required
// field for the chosen type.
func ValidateResolution(res model.Resolution, totalConflicts int) error {
	if res.ConflictIndex < 0 || res.ConflictIndex >= totalConflicts {
		return newValidationError("conflict index %d out of range [0, %d)", res.ConflictIndex, totalConflicts)
	}
	switch res.Type {
	case model.ResolutionTypeCustomerSpec, model.ResolutionTypeQuote, model.ResolutionTypeAISuggestion:
	case model.ResolutionTypeCustom:
		if strings.TrimSpace(res.CustomText) == "" {
			return newValidationError("custom resolution requires non-empty custom_text")
		}
	case model.ResolutionTypeActionItem:
		if res.ActionItem == nil {
			return newValidationError("action_item resolution requires an action item")
		}
		if strings.TrimSpace(res.ActionItem.Title) == "" {
			return newValidationError("action item requires a non-empty title")
		}
	default:
		return newValidationError("unknown resolution type %q", res.Type)
	}
	return nil
}
