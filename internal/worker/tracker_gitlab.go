package worker

import (
	"context"
	"fmt"
	"strings"

	gitlab "gitlab.com/gitlab-org/api/client-go"

	"planforge.app/anvil/core/config"
	"planforge.app/anvil/internal/model"
)

// gitLabTracker opens one GitLab issue per action item.
type gitLabTracker struct {
	client    *gitlab.Client
	projectID int
}

func NewGitLabTracker(cfg config.TrackerConfig) (TrackerService, error) {
	client, err := newGitLabClient(cfg.GitLabBaseURL, cfg.GitLabToken)
	if err != nil {
		return nil, fmt.Errorf("creating gitlab client: %w", err)
	}

	return &gitLabTracker{
		client:    client,
		projectID: cfg.GitLabProjectID,
	}, nil
}

func newGitLabClient(baseURL, token string) (*gitlab.Client, error) {
	if baseURL == "" {
		return gitlab.NewClient(token)
	}
	apiURL := strings.TrimSuffix(baseURL, "/") + "/api/v4"
	return gitlab.NewClient(token, gitlab.WithBaseURL(apiURL))
}

func (t *gitLabTracker) CreateTask(ctx context.Context, item model.ActionItem, sessionRef string) (string, error) {
	opts := &gitlab.CreateIssueOptions{
		Title:       gitlab.Ptr(item.Title),
		Description: gitlab.Ptr(taskNotes(item, sessionRef)),
	}
	if item.Priority != "" {
		opts.Labels = &gitlab.LabelOptions{"priority::" + string(item.Priority)}
	}

	issue, _, err := t.client.Issues.CreateIssue(t.projectID, opts, gitlab.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("creating gitlab issue: %w", err)
	}

	return fmt.Sprintf("#%d", issue.IID), nil
}
