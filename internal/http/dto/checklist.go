package dto

import (
	"time"

	"planforge.app/anvil/internal/model"
)

type ChecklistResponse struct {
	ID                 int64                     `json:"id,string"`
	ProjectID          int64                     `json:"project_id,string"`
	Categories         []model.Category          `json:"categories"`
	Statistics         model.ChecklistStatistics `json:"statistics"`
	ResolutionsApplied bool                      `json:"resolutions_applied"`
	CreatedAt          time.Time                 `json:"created_at"`
	UpdatedAt          time.Time                 `json:"updated_at"`
}

func ToChecklistResponse(cl *model.Checklist) *ChecklistResponse {
	return &ChecklistResponse{
		ID:                 cl.ID,
		ProjectID:          cl.ProjectID,
		Categories:         cl.Categories,
		Statistics:         cl.Statistics,
		ResolutionsApplied: cl.ResolutionsApplied,
		CreatedAt:          cl.CreatedAt,
		UpdatedAt:          cl.UpdatedAt,
	}
}
