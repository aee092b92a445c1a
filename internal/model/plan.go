package model

import "time"

// PlanPhase is one stage of a Strategic Build Plan.
type PlanPhase struct {
	Name          string   `json:"name"`
	Objective     string   `json:"objective"`
	DurationWeeks int      `json:"duration_weeks"`
	WorkItems     []string `json:"work_items"`
	Risks         []string `json:"risks,omitempty"`
}

// BuildPlan is an AI-drafted Strategic Build Plan for a project.
// Regeneration creates a new row; the latest plan wins.
type BuildPlan struct {
	ID                int64       `json:"id"`
	ProjectID         int64       `json:"project_id"`
	Title             string      `json:"title"`
	Summary           string      `json:"summary"`
	Phases            []PlanPhase `json:"phases"`
	SourceDocumentIDs []int64     `json:"source_document_ids,omitempty"`
	Model             string      `json:"model,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
}
