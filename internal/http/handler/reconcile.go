package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"planforge.app/anvil/internal/http/dto"
	"planforge.app/anvil/internal/reconcile"
	"planforge.app/anvil/internal/service"
)

// ReconcileHandler exposes the reconciliation core as stateless operations:
// callers supply the checklist and comparison in the request body and get
// the derived result back. Nothing is persisted.
type ReconcileHandler struct {
	reconcileService service.ReconcileService
}

func NewReconcileHandler(reconcileService service.ReconcileService) *ReconcileHandler {
	return &ReconcileHandler{reconcileService: reconcileService}
}

func (h *ReconcileHandler) Compare(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comparison, err := h.reconcileService.Compare(ctx, req.Checklist, req.QuoteAssumptions)
	if err != nil {
		slog.ErrorContext(ctx, "comparison failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "comparison failed"})
		return
	}

	c.JSON(http.StatusOK, comparison)
}

func (h *ReconcileHandler) Resolve(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.reconcileService.Resolve(ctx, req.Checklist, req.Comparison, req.Resolutions)
	if err != nil {
		if reconcile.IsValidationError(err) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		slog.ErrorContext(ctx, "resolve failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "resolve failed"})
		return
	}

	c.JSON(http.StatusOK, dto.ToResolveResponse(result))
}

func (h *ReconcileHandler) Preview(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.MergePreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	summary := h.reconcileService.Preview(ctx, req.Comparison)

	c.JSON(http.StatusOK, dto.PreviewResponse{MergeSummary: summary})
}
