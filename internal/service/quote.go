package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"planforge.app/anvil/common/graph"
	"planforge.app/anvil/common/id"
	"planforge.app/anvil/internal/drafter"
	"planforge.app/anvil/internal/model"
	"planforge.app/anvil/internal/store"
)

type QuoteService interface {
	Add(ctx context.Context, projectID int64, vendorName, reference, content string) (*model.Quote, error)
	Get(ctx context.Context, quoteID int64) (*model.Quote, error)
	ListByProject(ctx context.Context, projectID int64) ([]model.Quote, error)
	ExtractAssumptions(ctx context.Context, quoteID int64) (*model.Quote, error)
}

type quoteService struct {
	quoteStore   store.QuoteStore
	projectStore store.ProjectStore
	extractor    drafter.AssumptionExtractor
	trace        TraceService
}

func NewQuoteService(quoteStore store.QuoteStore, projectStore store.ProjectStore, extractor drafter.AssumptionExtractor, trace TraceService) QuoteService {
	return &quoteService{
		quoteStore:   quoteStore,
		projectStore: projectStore,
		extractor:    extractor,
		trace:        trace,
	}
}

func (s *quoteService) Add(ctx context.Context, projectID int64, vendorName, reference, content string) (*model.Quote, error) {
	vendorName = strings.TrimSpace(vendorName)
	if vendorName == "" {
		return nil, fmt.Errorf("vendor name is required")
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("quote content is required")
	}

	if _, err := s.projectStore.GetByID(ctx, projectID); err != nil {
		return nil, err
	}

	quote := &model.Quote{
		ID:         id.New(),
		ProjectID:  projectID,
		VendorName: vendorName,
		Reference:  strings.TrimSpace(reference),
		Content:    content,
	}

	if err := s.quoteStore.Create(ctx, quote); err != nil {
		slog.ErrorContext(ctx, "failed to create quote", "error", err, "project_id", projectID)
		return nil, fmt.Errorf("creating quote: %w", err)
	}

	s.trace.RecordArtifacts(ctx, graph.Artifact{
		Kind:      graph.KindQuote,
		RefID:     quote.ID,
		Label:     fmt.Sprintf("Quote from %s", quote.VendorName),
		ProjectID: quote.ProjectID,
	})

	slog.InfoContext(ctx, "quote registered",
		"project_id", projectID,
		"quote_id", quote.ID,
		"vendor", quote.VendorName,
	)
	return quote, nil
}

func (s *quoteService) Get(ctx context.Context, quoteID int64) (*model.Quote, error) {
	return s.quoteStore.GetByID(ctx, quoteID)
}

func (s *quoteService) ListByProject(ctx context.Context, projectID int64) ([]model.Quote, error) {
	return s.quoteStore.ListByProject(ctx, projectID)
}

// ExtractAssumptions runs assumption extraction over the quote text and
// persists the result. Re-running replaces the previous extraction.
func (s *quoteService) ExtractAssumptions(ctx context.Context, quoteID int64) (*model.Quote, error) {
	quote, err := s.quoteStore.GetByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}

	assumptions, err := s.extractor.Extract(ctx, quote)
	if err != nil {
		return nil, fmt.Errorf("extracting assumptions: %w", err)
	}

	if err := s.quoteStore.UpdateAssumptions(ctx, quoteID, assumptions, time.Now().UTC()); err != nil {
		slog.ErrorContext(ctx, "failed to store quote assumptions", "error", err, "quote_id", quoteID)
		return nil, fmt.Errorf("storing assumptions: %w", err)
	}

	slog.InfoContext(ctx, "quote assumptions extracted",
		"quote_id", quoteID,
		"assumption_count", len(assumptions),
	)
	return s.quoteStore.GetByID(ctx, quoteID)
}
