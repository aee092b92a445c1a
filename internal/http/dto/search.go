package dto

import (
	"planforge.app/anvil/common/search"
)

type SearchHit struct {
	ID          string `json:"id"`
	ProjectID   int64  `json:"project_id,string"`
	ChecklistID int64  `json:"checklist_id,string"`
	Category    string `json:"category"`
	PromptID    string `json:"prompt_id"`
	Question    string `json:"question"`
	Answer      string `json:"answer"`
	Source      string `json:"source,omitempty"`
	Status      string `json:"status"`
}

type SearchResponse struct {
	Query string      `json:"query"`
	Hits  []SearchHit `json:"hits"`
}

func ToSearchResponse(query string, hits []search.Hit) *SearchResponse {
	resp := &SearchResponse{Query: query, Hits: make([]SearchHit, 0, len(hits))}
	for _, h := range hits {
		doc := h.Document
		resp.Hits = append(resp.Hits, SearchHit{
			ID:          doc.ID,
			ProjectID:   doc.ProjectID,
			ChecklistID: doc.ChecklistID,
			Category:    doc.Category,
			PromptID:    doc.PromptID,
			Question:    doc.Question,
			Answer:      doc.Answer,
			Source:      doc.Source,
			Status:      doc.Status,
		})
	}
	return resp
}
