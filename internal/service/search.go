package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"planforge.app/anvil/common/search"
	"planforge.app/anvil/internal/model"
)

// SearchService indexes checklist requirements into Typesense and serves
// full-text queries over them. Indexing is best effort: a search outage is
// logged and swallowed so checklist generation and merging never fail on it.
type SearchService interface {
	IndexChecklist(ctx context.Context, checklist *model.Checklist)
	Query(ctx context.Context, projectID int64, query string, limit int) ([]search.Hit, error)
}

type searchService struct {
	client *search.Client
}

func NewSearchService(client *search.Client) SearchService {
	return &searchService{client: client}
}

func (s *searchService) IndexChecklist(ctx context.Context, checklist *model.Checklist) {
	if s.client == nil || checklist == nil {
		return
	}

	docs := requirementDocs(checklist)
	if len(docs) == 0 {
		return
	}

	if err := s.client.DeleteByProject(ctx, checklist.ProjectID); err != nil {
		slog.WarnContext(ctx, "failed to clear search index for project",
			"error", err,
			"project_id", checklist.ProjectID,
		)
	}
	if err := s.client.IndexRequirements(ctx, docs); err != nil {
		slog.WarnContext(ctx, "failed to index checklist requirements",
			"error", err,
			"checklist_id", checklist.ID,
			"document_count", len(docs),
		)
	}
}

// Query runs a full-text search over the project's indexed requirements.
// A search backend failure degrades to an empty result so the workflow
// keeps functioning without the index.
func (s *searchService) Query(ctx context.Context, projectID int64, query string, limit int) ([]search.Hit, error) {
	if s.client == nil {
		return nil, fmt.Errorf("requirement search is not configured")
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("search query is required")
	}

	hits, err := s.client.Search(ctx, projectID, query, limit)
	if err != nil {
		slog.WarnContext(ctx, "requirement search failed",
			"error", err,
			"project_id", projectID,
		)
		return []search.Hit{}, nil
	}
	return hits, nil
}

func requirementDocs(checklist *model.Checklist) []search.RequirementDoc {
	var docs []search.RequirementDoc
	for _, category := range checklist.Categories {
		for _, item := range category.Items {
			docs = append(docs, search.RequirementDoc{
				ID:          fmt.Sprintf("%d-%s", checklist.ID, item.PromptID),
				ProjectID:   checklist.ProjectID,
				ChecklistID: checklist.ID,
				Category:    category.Name,
				PromptID:    item.PromptID,
				Question:    item.Question,
				Answer:      item.Answer,
				Source:      item.Source,
				Status:      string(item.Status),
			})
		}
	}
	return docs
}
