package dto

import (
	"time"

	"planforge.app/anvil/internal/model"
	"planforge.app/anvil/internal/reconcile"
	"planforge.app/anvil/internal/service"
)

type StartSessionRequest struct {
	ChecklistID int64 `json:"checklist_id,string" binding:"required"`
	QuoteID     int64 `json:"quote_id,string" binding:"required"`
}

type RecordResolutionsRequest struct {
	Resolutions []model.Resolution `json:"resolutions" binding:"required,min=1"`
}

type PublishSessionRequest struct {
	// Empty means every configured target.
	Targets []string `json:"targets,omitempty" binding:"omitempty,dive,oneof=wiki tracker"`
}

// SessionResponse is the full session view. Conflict fingerprints are an
// internal staleness guard and are not exposed.
type SessionResponse struct {
	ID           int64                    `json:"id,string"`
	ProjectID    int64                    `json:"project_id,string"`
	ChecklistID  int64                    `json:"checklist_id,string"`
	QuoteID      int64                    `json:"quote_id,string"`
	Status       string                   `json:"status"`
	Comparison   *model.ComparisonResult  `json:"comparison,omitempty"`
	Resolutions  []model.Resolution       `json:"resolutions,omitempty"`
	Progress     *reconcile.Progress      `json:"progress,omitempty"`
	MergeSummary *model.ResolutionSummary `json:"merge_summary,omitempty"`
	ActionItems  []model.ActionItem       `json:"action_items,omitempty"`
	MergedAt     *time.Time               `json:"merged_at,omitempty"`
	PublishedAt  *time.Time               `json:"published_at,omitempty"`
	CreatedAt    time.Time                `json:"created_at"`
	UpdatedAt    time.Time                `json:"updated_at"`
}

type SessionSummary struct {
	ID             int64     `json:"id,string"`
	ChecklistID    int64     `json:"checklist_id,string"`
	QuoteID        int64     `json:"quote_id,string"`
	Status         string    `json:"status"`
	TotalConflicts int       `json:"total_conflicts"`
	ResolvedCount  int       `json:"resolved_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type MergeOutcomeResponse struct {
	Session     *SessionResponse        `json:"session"`
	Checklist   *ChecklistResponse      `json:"checklist"`
	ActionItems []model.ActionItem      `json:"action_items"`
	Summary     model.ResolutionSummary `json:"resolution_summary"`
}

type PublicationResponse struct {
	ID          int64      `json:"id,string"`
	SessionID   int64      `json:"session_id,string"`
	Target      string     `json:"target"`
	Status      string     `json:"status"`
	ExternalRef string     `json:"external_ref,omitempty"`
	Attempt     int        `json:"attempt"`
	LastError   *string    `json:"last_error,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type PreviewResponse struct {
	MergeSummary reconcile.MergeSummary `json:"merge_summary"`
}

func ToSessionResponse(s *model.ReconciliationSession, progress *reconcile.Progress) *SessionResponse {
	return &SessionResponse{
		ID:           s.ID,
		ProjectID:    s.ProjectID,
		ChecklistID:  s.ChecklistID,
		QuoteID:      s.QuoteID,
		Status:       string(s.Status),
		Comparison:   s.Comparison,
		Resolutions:  s.Resolutions,
		Progress:     progress,
		MergeSummary: s.MergeSummary,
		ActionItems:  s.ActionItems,
		MergedAt:     s.MergedAt,
		PublishedAt:  s.PublishedAt,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

func ToSessionSummaries(sessions []model.ReconciliationSession) []SessionSummary {
	out := make([]SessionSummary, 0, len(sessions))
	for i := range sessions {
		s := &sessions[i]
		out = append(out, SessionSummary{
			ID:             s.ID,
			ChecklistID:    s.ChecklistID,
			QuoteID:        s.QuoteID,
			Status:         string(s.Status),
			TotalConflicts: s.TotalConflicts(),
			ResolvedCount:  len(s.Resolutions),
			CreatedAt:      s.CreatedAt,
			UpdatedAt:      s.UpdatedAt,
		})
	}
	return out
}

func ToMergeOutcomeResponse(outcome *service.MergeOutcome) *MergeOutcomeResponse {
	return &MergeOutcomeResponse{
		Session:     ToSessionResponse(outcome.Session, nil),
		Checklist:   ToChecklistResponse(outcome.Checklist),
		ActionItems: outcome.ActionItems,
		Summary:     outcome.Summary,
	}
}

func ToPublicationResponses(pubs []model.Publication) []PublicationResponse {
	out := make([]PublicationResponse, 0, len(pubs))
	for i := range pubs {
		p := &pubs[i]
		out = append(out, PublicationResponse{
			ID:          p.ID,
			SessionID:   p.SessionID,
			Target:      string(p.Target),
			Status:      string(p.Status),
			ExternalRef: p.ExternalRef,
			Attempt:     p.Attempt,
			LastError:   p.LastError,
			PublishedAt: p.PublishedAt,
			CreatedAt:   p.CreatedAt,
		})
	}
	return out
}
