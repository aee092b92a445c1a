package model

type ResolutionType string

const (
	ResolutionTypeCustomerSpec ResolutionType = "customer_spec"
	ResolutionTypeQuote        ResolutionType = "quote"
	ResolutionTypeAISuggestion ResolutionType = "ai_suggestion"
	ResolutionTypeActionItem   ResolutionType = "action_item"
	ResolutionTypeCustom       ResolutionType = "custom"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ActionItem is a deferred clarification task created instead of resolving
// a conflict outright. The ID is assigned at merge time; items arriving on
// the wire inside a resolution carry none.
type ActionItem struct {
	ID           int64    `json:"id,string,omitempty"`
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	AssigneeHint string   `json:"assignee_hint,omitempty"`
	DueDateHint  string   `json:"due_date_hint,omitempty"`
	Priority     Priority `json:"priority,omitempty"`
}

// Resolution is one recorded decision on how to settle one conflict,
// keyed by conflict index. At most one resolution per index; last write
// wins.
type Resolution struct {
	ConflictIndex int            `json:"conflict_index"`
	Type          ResolutionType `json:"resolution_type"`
	CustomText    string         `json:"custom_text,omitempty"`
	ActionItem    *ActionItem    `json:"action_item,omitempty"`
	Notes         string         `json:"notes,omitempty"`
}

// ResolutionSummary reports how a merge settled each conflict.
type ResolutionSummary struct {
	AcceptedCustomerSpec int `json:"accepted_customer_spec"`
	AcceptedQuote        int `json:"accepted_quote"`
	AcceptedAISuggestion int `json:"accepted_ai_suggestion"`
	AcceptedCustom       int `json:"accepted_custom"`
	ActionItemsCreated   int `json:"action_items_created"`
	UnresolvedCount      int `json:"unresolved_count"`
}
