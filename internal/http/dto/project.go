package dto

import (
	"time"

	"planforge.app/anvil/internal/model"
)

type CreateProjectRequest struct {
	Name         string `json:"name" binding:"required,min=1,max=255"`
	CustomerName string `json:"customer_name" binding:"max=255"`
}

type UpdateProjectRequest struct {
	Name   *string `json:"name,omitempty" binding:"omitempty,min=1,max=255"`
	Status *string `json:"status,omitempty" binding:"omitempty,oneof=archived"`
}

type ProjectResponse struct {
	ID           int64     `json:"id,string"`
	Name         string    `json:"name"`
	CustomerName string    `json:"customer_name,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func ToProjectResponse(p *model.Project) *ProjectResponse {
	return &ProjectResponse{
		ID:           p.ID,
		Name:         p.Name,
		CustomerName: p.CustomerName,
		Status:       string(p.Status),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func ToProjectResponses(projects []model.Project) []ProjectResponse {
	out := make([]ProjectResponse, 0, len(projects))
	for i := range projects {
		out = append(out, *ToProjectResponse(&projects[i]))
	}
	return out
}
