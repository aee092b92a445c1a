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

type ChecklistHandler struct {
	checklistService service.ChecklistService
}

func NewChecklistHandler(checklistService service.ChecklistService) *ChecklistHandler {
	return &ChecklistHandler{checklistService: checklistService}
}

func (h *ChecklistHandler) Generate(c *gin.Context) {
	ctx := c.Request.Context()

	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	checklist, err := h.checklistService.Generate(ctx, projectID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		case errors.Is(err, service.ErrNoDocuments):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			slog.ErrorContext(ctx, "failed to generate checklist", "error", err, "project_id", projectID)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate checklist"})
		}
		return
	}

	c.JSON(http.StatusCreated, dto.ToChecklistResponse(checklist))
}

func (h *ChecklistHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	checklistID, ok := pathID(c, "id")
	if !ok {
		return
	}

	checklist, err := h.checklistService.Get(ctx, checklistID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "checklist not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to get checklist", "error", err, "checklist_id", checklistID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get checklist"})
		return
	}

	c.JSON(http.StatusOK, dto.ToChecklistResponse(checklist))
}

func (h *ChecklistHandler) GetLatest(c *gin.Context) {
	ctx := c.Request.Context()

	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	checklist, err := h.checklistService.GetLatest(ctx, projectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no checklist generated for this project"})
			return
		}
		slog.ErrorContext(ctx, "failed to get checklist", "error", err, "project_id", projectID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get checklist"})
		return
	}

	c.JSON(http.StatusOK, dto.ToChecklistResponse(checklist))
}
