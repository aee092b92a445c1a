package model

import "time"

// QuoteAssumption is one vendor-stated assumption with a category tag.
// Immutable once extracted.
type QuoteAssumption struct {
	CategoryID   string `json:"category_id"`
	CategoryName string `json:"category_name"`
	Text         string `json:"text"`
}

// Quote is a registered vendor quote. Content arrives as already-extracted
// text; Assumptions are filled by the extraction step.
type Quote struct {
	ID          int64             `json:"id"`
	ProjectID   int64             `json:"project_id"`
	VendorName  string            `json:"vendor_name"`
	Reference   string            `json:"reference,omitempty"`
	Content     string            `json:"content"`
	Assumptions []QuoteAssumption `json:"assumptions,omitempty"`
	ExtractedAt *time.Time        `json:"extracted_at,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}
