package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"planforge.app/anvil/common/graph"
	"planforge.app/anvil/internal/http/dto"
	"planforge.app/anvil/internal/service"
)

const defaultTraceDepth = 5

type TraceHandler struct {
	traceService service.TraceService
}

func NewTraceHandler(traceService service.TraceService) *TraceHandler {
	return &TraceHandler{traceService: traceService}
}

// Get traverses the lineage graph from one artifact, addressed as
// "kind-refID" (for example "checklist-123" or "action_item-9").
func (h *TraceHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	kind, refID, err := graph.ParseArtifactKey(c.Param("artifact"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "artifact must be kind-id, e.g. checklist-123"})
		return
	}

	opts := graph.TraversalOptions{
		Direction: graph.DirectionAny,
		MaxDepth:  defaultTraceDepth,
	}
	if raw := c.Query("direction"); raw != "" {
		switch d := graph.Direction(raw); d {
		case graph.DirectionOutbound, graph.DirectionInbound, graph.DirectionAny:
			opts.Direction = d
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "direction must be outbound, inbound or any"})
			return
		}
	}
	if raw := c.Query("depth"); raw != "" {
		depth, err := strconv.Atoi(raw)
		if err != nil || depth < 1 || depth > 10 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "depth must be between 1 and 10"})
			return
		}
		opts.MaxDepth = depth
	}
	if raw := c.Query("relations"); raw != "" {
		for _, rel := range strings.Split(raw, ",") {
			if rel = strings.TrimSpace(rel); rel != "" {
				opts.Relations = append(opts.Relations, rel)
			}
		}
	}

	nodes, edges, err := h.traceService.Trace(ctx, kind, refID, opts)
	if err != nil {
		slog.ErrorContext(ctx, "trace traversal failed", "error", err, "kind", kind, "ref_id", refID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "trace traversal failed"})
		return
	}

	c.JSON(http.StatusOK, dto.ToTraceResponse(graph.ArtifactKey(kind, refID), nodes, edges))
}
