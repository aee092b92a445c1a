package dto

import (
	"strconv"
	"time"

	"planforge.app/anvil/internal/model"
)

type PlanResponse struct {
	ID                int64             `json:"id,string"`
	ProjectID         int64             `json:"project_id,string"`
	Title             string            `json:"title"`
	Summary           string            `json:"summary"`
	Phases            []model.PlanPhase `json:"phases"`
	SourceDocumentIDs []string          `json:"source_document_ids,omitempty"`
	Model             string            `json:"model,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
}

func ToPlanResponse(p *model.BuildPlan) *PlanResponse {
	resp := &PlanResponse{
		ID:        p.ID,
		ProjectID: p.ProjectID,
		Title:     p.Title,
		Summary:   p.Summary,
		Phases:    p.Phases,
		Model:     p.Model,
		CreatedAt: p.CreatedAt,
	}
	for _, docID := range p.SourceDocumentIDs {
		resp.SourceDocumentIDs = append(resp.SourceDocumentIDs, strconv.FormatInt(docID, 10))
	}
	return resp
}
