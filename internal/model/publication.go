package model

import "time"

type PublicationTarget string

const (
	PublicationTargetWiki    PublicationTarget = "wiki"
	PublicationTargetTracker PublicationTarget = "tracker"
)

type PublicationStatus string

const (
	PublicationStatusPending   PublicationStatus = "pending"
	PublicationStatusPublished PublicationStatus = "published"
	PublicationStatusFailed    PublicationStatus = "failed"
)

// Publication records one publish target for a session. One row per
// (session, target); re-publishing updates the row in place, which is what
// makes re-publish idempotent.
type Publication struct {
	ID          int64             `json:"id"`
	SessionID   int64             `json:"session_id"`
	Target      PublicationTarget `json:"target"`
	Status      PublicationStatus `json:"status"`
	ExternalRef string            `json:"external_ref,omitempty"`
	Attempt     int               `json:"attempt"`
	LastError   *string           `json:"last_error,omitempty"`
	PublishedAt *time.Time        `json:"published_at,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}
