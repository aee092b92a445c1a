package service

import (
	"context"
	"fmt"
	"log/slog"

	"planforge.app/anvil/common/graph"
)

// TraceService records requirement lineage into the traceability graph and
// answers trace queries over it. Recording is best effort: a graph outage
// is logged and swallowed so it can never fail the operation that produced
// the artifact.
type TraceService interface {
	RecordArtifacts(ctx context.Context, artifacts ...graph.Artifact)
	RecordLinks(ctx context.Context, links ...graph.Link)
	Trace(ctx context.Context, kind string, refID int64, opts graph.TraversalOptions) ([]graph.TraceNode, []graph.TraceEdge, error)
}

type traceService struct {
	client graph.Client
}

func NewTraceService(client graph.Client) TraceService {
	return &traceService{client: client}
}

func (s *traceService) RecordArtifacts(ctx context.Context, artifacts ...graph.Artifact) {
	if s.client == nil || len(artifacts) == 0 {
		return
	}
	if err := s.client.IngestArtifacts(ctx, artifacts); err != nil {
		slog.WarnContext(ctx, "failed to record trace artifacts",
			"error", err,
			"artifact_count", len(artifacts),
		)
	}
}

func (s *traceService) RecordLinks(ctx context.Context, links ...graph.Link) {
	if s.client == nil || len(links) == 0 {
		return
	}
	if err := s.client.IngestLinks(ctx, links); err != nil {
		slog.WarnContext(ctx, "failed to record trace links",
			"error", err,
			"link_count", len(links),
		)
	}
}

func (s *traceService) Trace(ctx context.Context, kind string, refID int64, opts graph.TraversalOptions) ([]graph.TraceNode, []graph.TraceEdge, error) {
	if s.client == nil {
		return nil, nil, fmt.Errorf("traceability graph is not configured")
	}
	return s.client.TraceFrom(ctx, kind, refID, opts)
}
