package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"planforge.app/anvil/common/graph"
	"planforge.app/anvil/common/id"
	"planforge.app/anvil/internal/model"
	"planforge.app/anvil/internal/store"
)

type DocumentService interface {
	Add(ctx context.Context, projectID int64, title string, kind model.DocumentKind, content string, pages int) (*model.Document, error)
	Get(ctx context.Context, documentID int64) (*model.Document, error)
	ListByProject(ctx context.Context, projectID int64) ([]model.Document, error)
	Delete(ctx context.Context, documentID int64) error
}

type documentService struct {
	documentStore store.DocumentStore
	projectStore  store.ProjectStore
	trace         TraceService
}

func NewDocumentService(documentStore store.DocumentStore, projectStore store.ProjectStore, trace TraceService) DocumentService {
	return &documentService{
		documentStore: documentStore,
		projectStore:  projectStore,
		trace:         trace,
	}
}

func (s *documentService) Add(ctx context.Context, projectID int64, title string, kind model.DocumentKind, content string, pages int) (*model.Document, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("document title is required")
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("document content is required")
	}
	switch kind {
	case model.DocumentKindCustomerSpec, model.DocumentKindDrawingNotes, model.DocumentKindStandards, model.DocumentKindOther:
	default:
		return nil, fmt.Errorf("unknown document kind %q", kind)
	}

	if _, err := s.projectStore.GetByID(ctx, projectID); err != nil {
		return nil, err
	}

	doc := &model.Document{
		ID:        id.New(),
		ProjectID: projectID,
		Title:     title,
		Kind:      kind,
		Content:   content,
		Pages:     pages,
	}

	if err := s.documentStore.Create(ctx, doc); err != nil {
		slog.ErrorContext(ctx, "failed to create document", "error", err, "project_id", projectID)
		return nil, fmt.Errorf("creating document: %w", err)
	}

	s.trace.RecordArtifacts(ctx, graph.Artifact{
		Kind:      graph.KindDocument,
		RefID:     doc.ID,
		Label:     doc.Title,
		ProjectID: doc.ProjectID,
	})

	slog.InfoContext(ctx, "document added",
		"project_id", projectID,
		"document_id", doc.ID,
		"kind", doc.Kind,
		"content_bytes", len(doc.Content),
	)
	return doc, nil
}

func (s *documentService) Get(ctx context.Context, documentID int64) (*model.Document, error) {
	return s.documentStore.GetByID(ctx, documentID)
}

func (s *documentService) ListByProject(ctx context.Context, projectID int64) ([]model.Document, error) {
	return s.documentStore.ListByProject(ctx, projectID)
}

func (s *documentService) Delete(ctx context.Context, documentID int64) error {
	return s.documentStore.Delete(ctx, documentID)
}
