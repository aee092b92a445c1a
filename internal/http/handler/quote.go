package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"planforge.app/anvil/internal/http/dto"
	"planforge.app/anvil/internal/service"
	"planforge.app/anvil/internal/store"
)

type QuoteHandler struct {
	quoteService service.QuoteService
}

func NewQuoteHandler(quoteService service.QuoteService) *QuoteHandler {
	return &QuoteHandler{quoteService: quoteService}
}

func (h *QuoteHandler) Add(c *gin.Context) {
	ctx := c.Request.Context()

	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.AddQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	quote, err := h.quoteService.Add(ctx, projectID, req.VendorName, req.Reference, req.Content)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to register quote", "error", err, "project_id", projectID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register quote"})
		return
	}

	c.JSON(http.StatusCreated, dto.ToQuoteResponse(quote))
}

func (h *QuoteHandler) ListByProject(c *gin.Context) {
	ctx := c.Request.Context()

	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	quotes, err := h.quoteService.ListByProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to list quotes", "error", err, "project_id", projectID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list quotes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"quotes": dto.ToQuoteSummaries(quotes)})
}

func (h *QuoteHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	quoteID, ok := pathID(c, "id")
	if !ok {
		return
	}

	quote, err := h.quoteService.Get(ctx, quoteID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "quote not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to get quote", "error", err, "quote_id", quoteID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get quote"})
		return
	}

	c.JSON(http.StatusOK, dto.ToQuoteResponse(quote))
}

// Extract runs the assumption extractor over a registered quote. Safe to
// repeat; each run replaces the previous assumption set.
func (h *QuoteHandler) Extract(c *gin.Context) {
	ctx := c.Request.Context()

	quoteID, ok := pathID(c, "id")
	if !ok {
		return
	}

	quote, err := h.quoteService.ExtractAssumptions(ctx, quoteID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "quote not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to extract assumptions", "error", err, "quote_id", quoteID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to extract assumptions"})
		return
	}

	c.JSON(http.StatusOK, dto.ToQuoteResponse(quote))
}
