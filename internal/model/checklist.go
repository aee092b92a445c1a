package model

import "time"

type ItemStatus string

const (
	ItemStatusRequirementFound ItemStatus = "requirement_found"
	ItemStatusNoRequirement    ItemStatus = "no_requirement"
	ItemStatusError            ItemStatus = "error"
)

// ChecklistItem is one requirement row. Items are mutated only through
// accepted resolutions and are never deleted, only updated in place.
type ChecklistItem struct {
	PromptID string     `json:"prompt_id"`
	Question string     `json:"question"`
	Answer   string     `json:"answer"`
	Status   ItemStatus `json:"status"`
	Source   string     `json:"source,omitempty"`
}

// Category is a named, ordered group of checklist items.
// Prompt IDs are unique within a category and, in practice, across the
// whole checklist.
type Category struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Items []ChecklistItem `json:"items"`
}

// ChecklistStatistics summarizes item statuses. It must always be a pure
// function of the current items: any mutation is followed by a full
// recompute before the checklist is valid for publishing.
type ChecklistStatistics struct {
	TotalPrompts       int `json:"total_prompts"`
	RequirementsFound  int `json:"requirements_found"`
	NoRequirements     int `json:"no_requirements"`
	Errors             int `json:"errors"`
	CoveragePercentage int `json:"coverage_percentage"`
}

// Checklist is the requirements document being reconciled and the single
// source of truth post-merge.
type Checklist struct {
	ID                 int64               `json:"id"`
	ProjectID          int64               `json:"project_id"`
	Categories         []Category          `json:"categories"`
	Statistics         ChecklistStatistics `json:"statistics"`
	ResolutionsApplied bool                `json:"resolutions_applied"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

// Clone returns a deep copy. The merge engine works on a copy so its
// inputs are never mutated.
func (c *Checklist) Clone() *Checklist {
	if c == nil {
		return nil
	}

	out := *c
	out.Categories = make([]Category, len(c.Categories))
	for i, cat := range c.Categories {
		items := make([]ChecklistItem, len(cat.Items))
		copy(items, cat.Items)
		out.Categories[i] = Category{
			ID:    cat.ID,
			Name:  cat.Name,
			Items: items,
		}
	}
	return &out
}
