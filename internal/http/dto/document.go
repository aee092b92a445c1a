package dto

import (
	"time"

	"planforge.app/anvil/internal/model"
)

type AddDocumentRequest struct {
	Title   string `json:"title" binding:"required,min=1,max=255"`
	Kind    string `json:"kind" binding:"required,oneof=customer_spec drawing_notes standards other"`
	Content string `json:"content" binding:"required"`
	Pages   int    `json:"pages,omitempty" binding:"omitempty,min=1"`
}

type DocumentResponse struct {
	ID        int64     `json:"id,string"`
	ProjectID int64     `json:"project_id,string"`
	Title     string    `json:"title"`
	Kind      string    `json:"kind"`
	Content   string    `json:"content"`
	Pages     int       `json:"pages,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DocumentSummary omits the extracted text, which can run to hundreds of
// kilobytes per document. List endpoints return summaries only.
type DocumentSummary struct {
	ID           int64     `json:"id,string"`
	ProjectID    int64     `json:"project_id,string"`
	Title        string    `json:"title"`
	Kind         string    `json:"kind"`
	Pages        int       `json:"pages,omitempty"`
	ContentChars int       `json:"content_chars"`
	CreatedAt    time.Time `json:"created_at"`
}

func ToDocumentResponse(d *model.Document) *DocumentResponse {
	return &DocumentResponse{
		ID:        d.ID,
		ProjectID: d.ProjectID,
		Title:     d.Title,
		Kind:      string(d.Kind),
		Content:   d.Content,
		Pages:     d.Pages,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func ToDocumentSummaries(docs []model.Document) []DocumentSummary {
	out := make([]DocumentSummary, 0, len(docs))
	for i := range docs {
		d := &docs[i]
		out = append(out, DocumentSummary{
			ID:           d.ID,
			ProjectID:    d.ProjectID,
			Title:        d.Title,
			Kind:         string(d.Kind),
			Pages:        d.Pages,
			ContentChars: len(d.Content),
			CreatedAt:    d.CreatedAt,
		})
	}
	return out
}
