package model

import "time"

type DocumentKind string

const (
	DocumentKindCustomerSpec DocumentKind = "customer_spec"
	DocumentKindDrawingNotes DocumentKind = "drawing_notes"
	DocumentKindStandards    DocumentKind = "standards"
	DocumentKindOther        DocumentKind = "other"
)

// Document is registered customer source material. Content arrives as
// already-extracted text; Anvil does not parse PDFs or DOCX files.
type Document struct {
	ID        int64        `json:"id"`
	ProjectID int64        `json:"project_id"`
	Title     string       `json:"title"`
	Kind      DocumentKind `json:"kind"`
	Content   string       `json:"content"`
	Pages     int          `json:"pages,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}
