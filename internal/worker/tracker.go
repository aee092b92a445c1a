package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"planforge.app/anvil/common/logger"
	"planforge.app/anvil/core/config"
	"planforge.app/anvil/internal/model"
)

// NewTracker builds the tracker backend selected by config.
func NewTracker(cfg config.TrackerConfig) (TrackerService, error) {
	switch cfg.Backend {
	case "gitlab":
		return NewGitLabTracker(cfg)
	case "rest", "":
		return NewRESTTracker(cfg), nil
	default:
		return nil, fmt.Errorf("unknown tracker backend %q", cfg.Backend)
	}
}

// restTracker posts tasks to an Asana-style REST API.
type restTracker struct {
	httpClient  *http.Client
	baseURL     string
	apiToken    string
	workspaceID string
}

func NewRESTTracker(cfg config.TrackerConfig) TrackerService {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 5 * time.Second
	rc.Logger = nil

	return &restTracker{
		httpClient:  rc.StandardClient(),
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		apiToken:    cfg.APIToken,
		workspaceID: cfg.WorkspaceID,
	}
}

type trackerTaskRequest struct {
	Data trackerTaskData `json:"data"`
}

type trackerTaskData struct {
	Name      string `json:"name"`
	Notes     string `json:"notes,omitempty"`
	Workspace string `json:"workspace,omitempty"`
}

type trackerTaskResponse struct {
	Data struct {
		GID string `json:"gid"`
	} `json:"data"`
}

func (t *restTracker) CreateTask(ctx context.Context, item model.ActionItem, sessionRef string) (string, error) {
	payload := trackerTaskRequest{
		Data: trackerTaskData{
			Name:      item.Title,
			Notes:     taskNotes(item, sessionRef),
			Workspace: t.workspaceID,
		},
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encoding task: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/api/1.0/tasks", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+t.apiToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling tracker api: %w", err)
	}
	defer res.Body.Close()

	respBody, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return "", fmt.Errorf("tracker api returned %d: %s", res.StatusCode, logger.Truncate(string(respBody), 200))
	}

	var created trackerTaskResponse
	if err := json.Unmarshal(respBody, &created); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if created.Data.GID == "" {
		return "", fmt.Errorf("tracker returned task without a gid")
	}
	return created.Data.GID, nil
}

// taskNotes renders the action item hints into the task body. Hints are
// free text from the resolution UI, not structured tracker fields.
func taskNotes(item model.ActionItem, sessionRef string) string {
	var b strings.Builder
	if item.Description != "" {
		b.WriteString(item.Description)
		b.WriteString("\n\n")
	}
	if item.AssigneeHint != "" {
		fmt.Fprintf(&b, "Suggested assignee: %s\n", item.AssigneeHint)
	}
	if item.DueDateHint != "" {
		fmt.Fprintf(&b, "Due: %s\n", item.DueDateHint)
	}
	if item.Priority != "" {
		fmt.Fprintf(&b, "Priority: %s\n", item.Priority)
	}
	if sessionRef != "" {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(sessionRef)
	}
	return b.String()
}
