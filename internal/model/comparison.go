package model

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Match pairs a checklist requirement with an agreeing quote assumption.
type Match struct {
	Category        string `json:"category"`
	Requirement     string `json:"requirement"`
	QuoteAssumption string `json:"quote_assumption"`
	Note            string `json:"note,omitempty"`
}

// Conflict is a point of disagreement between a vendor quote assumption
// and a checklist requirement. Its position in ComparisonResult.Conflicts
// is the join key used by resolution tracking and must not change for the
// lifetime of one comparison result.
type Conflict struct {
	Category             string   `json:"category"`
	Severity             Severity `json:"severity"`
	QuoteAssumption      string   `json:"quote_assumption"`
	ChecklistRequirement string   `json:"checklist_requirement"`
	ConflictDescription  string   `json:"conflict_description"`
	ResolutionSuggestion string   `json:"resolution_suggestion"`
}

// UnmatchedItem is a statement present on only one side of the comparison.
type UnmatchedItem struct {
	Category string `json:"category"`
	Text     string `json:"text"`
}

// ComparisonResult is the comparator's output: four disjoint collections.
type ComparisonResult struct {
	Matches       []Match         `json:"matches"`
	Conflicts     []Conflict      `json:"conflicts"`
	QuoteOnly     []UnmatchedItem `json:"quote_only"`
	ChecklistOnly []UnmatchedItem `json:"checklist_only"`
}
