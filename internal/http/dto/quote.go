package dto

import (
	"time"

	"planforge.app/anvil/internal/model"
)

type AddQuoteRequest struct {
	VendorName string `json:"vendor_name" binding:"required,min=1,max=255"`
	Reference  string `json:"reference,omitempty" binding:"max=255"`
	Content    string `json:"content" binding:"required"`
}

type QuoteResponse struct {
	ID          int64                   `json:"id,string"`
	ProjectID   int64                   `json:"project_id,string"`
	VendorName  string                  `json:"vendor_name"`
	Reference   string                  `json:"reference,omitempty"`
	Content     string                  `json:"content"`
	Assumptions []model.QuoteAssumption `json:"assumptions,omitempty"`
	ExtractedAt *time.Time              `json:"extracted_at,omitempty"`
	CreatedAt   time.Time               `json:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
}

// QuoteSummary carries enough for a project's quote list without the raw
// quote text.
type QuoteSummary struct {
	ID              int64      `json:"id,string"`
	ProjectID       int64      `json:"project_id,string"`
	VendorName      string     `json:"vendor_name"`
	Reference       string     `json:"reference,omitempty"`
	AssumptionCount int        `json:"assumption_count"`
	ExtractedAt     *time.Time `json:"extracted_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func ToQuoteResponse(q *model.Quote) *QuoteResponse {
	return &QuoteResponse{
		ID:          q.ID,
		ProjectID:   q.ProjectID,
		VendorName:  q.VendorName,
		Reference:   q.Reference,
		Content:     q.Content,
		Assumptions: q.Assumptions,
		ExtractedAt: q.ExtractedAt,
		CreatedAt:   q.CreatedAt,
		UpdatedAt:   q.UpdatedAt,
	}
}

func ToQuoteSummaries(quotes []model.Quote) []QuoteSummary {
	out := make([]QuoteSummary, 0, len(quotes))
	for i := range quotes {
		q := &quotes[i]
		out = append(out, QuoteSummary{
			ID:              q.ID,
			ProjectID:       q.ProjectID,
			VendorName:      q.VendorName,
			Reference:       q.Reference,
			AssumptionCount: len(q.Assumptions),
			ExtractedAt:     q.ExtractedAt,
			CreatedAt:       q.CreatedAt,
		})
	}
	return out
}
