// Package search provides full-text requirement search backed by Typesense.
package search

import (
	"context"
	"fmt"
	"time"

	"github.com/typesense/typesense-go/v2/typesense"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"
)

const collectionName = "checklist_items"

// Config holds the connection details for the Typesense cluster.
type Config struct {
	URL    string
	APIKey string
}

func (c Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("search url is required")
	}
	if c.APIKey == "" {
		return fmt.Errorf("search api key is required")
	}
	return nil
}

// RequirementDoc is one checklist item denormalized for search. The
// document ID is checklist-scoped so re-indexing a regenerated checklist
// upserts cleanly.
type RequirementDoc struct {
	ID          string `json:"id"`
	ProjectID   int64  `json:"project_id"`
	ChecklistID int64  `json:"checklist_id"`
	Category    string `json:"category"`
	PromptID    string `json:"prompt_id"`
	Question    string `json:"question"`
	Answer      string `json:"answer"`
	Source      string `json:"source"`
	Status      string `json:"status"`
}

// Hit is one search result. Results arrive in relevance order.
type Hit struct {
	Document RequirementDoc
}

// Client wraps the Typesense API for requirement search.
type Client struct {
	ts *typesense.Client
}

func New(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ts := typesense.NewClient(
		typesense.WithServer(cfg.URL),
		typesense.WithAPIKey(cfg.APIKey),
		typesense.WithConnectionTimeout(5*time.Second),
	)
	return &Client{ts: ts}, nil
}

// EnsureCollection creates the requirements collection if it does not
// exist yet. Safe to call on every startup.
func (c *Client) EnsureCollection(ctx context.Context) error {
	schema := &api.CollectionSchema{
		Name: collectionName,
		Fields: []api.Field{
			{Name: "project_id", Type: "int64", Facet: pointer.True()},
			{Name: "checklist_id", Type: "int64", Facet: pointer.True()},
			{Name: "category", Type: "string", Facet: pointer.True()},
			{Name: "prompt_id", Type: "string"},
			{Name: "question", Type: "string"},
			{Name: "answer", Type: "string"},
			{Name: "source", Type: "string", Optional: pointer.True()},
			{Name: "status", Type: "string", Facet: pointer.True()},
		},
	}

	if _, err := c.ts.Collections().Create(ctx, schema); err != nil {
		if _, retrieveErr := c.ts.Collection(collectionName).Retrieve(ctx); retrieveErr == nil {
			return nil
		}
		return fmt.Errorf("create search collection: %w", err)
	}
	return nil
}

// IndexRequirements upserts the given documents in one batch.
func (c *Client) IndexRequirements(ctx context.Context, docs []RequirementDoc) error {
	if len(docs) == 0 {
		return nil
	}

	batch := make([]any, len(docs))
	for i, doc := range docs {
		batch[i] = doc
	}

	// typesense-go v2's generated ImportDocumentsParams.Action is *string
	// rather than *IndexDocumentParamsAction; the value is unchanged.
	action := string(api.Upsert)
	params := &api.ImportDocumentsParams{
		Action:    &action,
		BatchSize: pointer.Int(len(batch)),
	}
	if _, err := c.ts.Collection(collectionName).Documents().Import(ctx, batch, params); err != nil {
		return fmt.Errorf("import requirement documents: %w", err)
	}
	return nil
}

// DeleteByProject removes every document indexed for a project. Called
// before re-indexing so the collection only holds the latest checklist.
func (c *Client) DeleteByProject(ctx context.Context, projectID int64) error {
	params := &api.DeleteDocumentsParams{
		FilterBy: pointer.String(fmt.Sprintf("project_id:=%d", projectID)),
	}
	if _, err := c.ts.Collection(collectionName).Documents().Delete(ctx, params); err != nil {
		return fmt.Errorf("delete project documents: %w", err)
	}
	return nil
}

// Search runs a full-text query over a project's requirements.
func (c *Client) Search(ctx context.Context, projectID int64, query string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 20
	}

	params := &api.SearchCollectionParams{
		Q:        pointer.String(query),
		QueryBy:  pointer.String("question,answer,category"),
		FilterBy: pointer.String(fmt.Sprintf("project_id:=%d", projectID)),
		PerPage:  pointer.Int(limit),
	}

	result, err := c.ts.Collection(collectionName).Documents().Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("search requirements: %w", err)
	}

	if result.Hits == nil {
		return []Hit{}, nil
	}

	hits := make([]Hit, 0, len(*result.Hits))
	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		hits = append(hits, Hit{Document: docFromFields(*hit.Document)})
	}
	return hits, nil
}

func docFromFields(fields map[string]any) RequirementDoc {
	doc := RequirementDoc{
		ID:       stringField(fields, "id"),
		Category: stringField(fields, "category"),
		PromptID: stringField(fields, "prompt_id"),
		Question: stringField(fields, "question"),
		Answer:   stringField(fields, "answer"),
		Source:   stringField(fields, "source"),
		Status:   stringField(fields, "status"),
	}
	if v, ok := fields["project_id"].(float64); ok {
		doc.ProjectID = int64(v)
	}
	if v, ok := fields["checklist_id"].(float64); ok {
		doc.ChecklistID = int64(v)
	}
	return doc
}

func stringField(fields map[string]any, key string) string {
	if v, ok := fields[key].(string); ok {
		return v
	}
	return ""
}
