package store

import (
	"context"
	"errors"
	"time"

	"planforge.app/anvil/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// UserStore defines the contract for user data access
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
	Update(ctx context.Context, user *model.User) error
	// UpsertByWorkOSID creates the user on first login and refreshes
	// profile fields on every later one.
	UpsertByWorkOSID(ctx context.Context, user *model.User) error
}

// SessionStore defines the contract for login session data access
type SessionStore interface {
	GetByID(ctx context.Context, id int64) (*model.Session, error)
	// GetValid returns the session only while it has not expired.
	GetValid(ctx context.Context, id int64) (*model.Session, error)
	Create(ctx context.Context, session *model.Session) error
	Delete(ctx context.Context, id int64) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// ProjectStore defines the contract for project data access
type ProjectStore interface {
	GetByID(ctx context.Context, id int64) (*model.Project, error)
	Create(ctx context.Context, project *model.Project) error
	Update(ctx context.Context, project *model.Project) error
	List(ctx context.Context, status *model.ProjectStatus) ([]model.Project, error)
}

// DocumentStore defines the contract for customer document data access
type DocumentStore interface {
	GetByID(ctx context.Context, id int64) (*model.Document, error)
	Create(ctx context.Context, doc *model.Document) error
	Delete(ctx context.Context, id int64) error
	ListByProject(ctx context.Context, projectID int64) ([]model.Document, error)
}

// PlanStore defines the contract for build plan data access
type PlanStore interface {
	GetByID(ctx context.Context, id int64) (*model.BuildPlan, error)
	GetLatestByProject(ctx context.Context, projectID int64) (*model.BuildPlan, error)
	Create(ctx context.Context, plan *model.BuildPlan) error
}

// ChecklistStore defines the contract for checklist data access
type ChecklistStore interface {
	GetByID(ctx context.Context, id int64) (*model.Checklist, error)
	GetLatestByProject(ctx context.Context, projectID int64) (*model.Checklist, error)
	Create(ctx context.Context, checklist *model.Checklist) error
	Update(ctx context.Context, checklist *model.Checklist) error
}

// QuoteStore defines the contract for vendor quote data access
type QuoteStore interface {
	GetByID(ctx context.Context, id int64) (*model.Quote, error)
	Create(ctx context.Context, quote *model.Quote) error
	UpdateAssumptions(ctx context.Context, id int64, assumptions []model.QuoteAssumption, extractedAt time.Time) error
	ListByProject(ctx context.Context, projectID int64) ([]model.Quote, error)
}

// ReconciliationStore defines the contract for reconciliation session data access
type ReconciliationStore interface {
	GetByID(ctx context.Context, id int64) (*model.ReconciliationSession, error)
	Create(ctx context.Context, session *model.ReconciliationSession) error
	UpdateResolutions(ctx context.Context, id int64, resolutions []model.Resolution) error
	// UpdateComparison replaces a session's comparison, fingerprints and
	// surviving resolutions in one statement. Open sessions only.
	UpdateComparison(ctx context.Context, id int64, comparison *model.ComparisonResult, fingerprints []string, resolutions []model.Resolution) error
	MarkMerged(ctx context.Context, id int64, summary model.ResolutionSummary, actionItems []model.ActionItem, mergedAt time.Time) error
	MarkPublished(ctx context.Context, id int64, publishedAt time.Time) error
	UpdateStatus(ctx context.Context, id int64, status model.ReconciliationStatus) error
	ListByProject(ctx context.Context, projectID int64) ([]model.ReconciliationSession, error)
	ListOpenByChecklist(ctx context.Context, checklistID int64) ([]model.ReconciliationSession, error)
}

// PublicationStore defines the contract for publication record data access
type PublicationStore interface {
	GetByID(ctx context.Context, id int64) (*model.Publication, error)
	GetBySessionAndTarget(ctx context.Context, sessionID int64, target model.PublicationTarget) (*model.Publication, error)
	Upsert(ctx context.Context, pub *model.Publication) error
	MarkPublished(ctx context.Context, id int64, externalRef string, publishedAt time.Time) error
	MarkFailed(ctx context.Context, id int64, attempt int, lastError string) error
	ListBySession(ctx context.Context, sessionID int64) ([]model.Publication, error)
}
