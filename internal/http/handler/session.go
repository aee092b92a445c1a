package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"planforge.app/anvil/internal/http/dto"
	"planforge.app/anvil/internal/model"
	"planforge.app/anvil/internal/reconcile"
	"planforge.app/anvil/internal/service"
	"planforge.app/anvil/internal/store"
)

type SessionHandler struct {
	sessionService service.SessionService
	traceHeader    string
}

func NewSessionHandler(sessionService service.SessionService, traceHeader string) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
		traceHeader:    traceHeader,
	}
}

func (h *SessionHandler) Start(c *gin.Context) {
	ctx := c.Request.Context()

	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.sessionService.Start(ctx, projectID, req.ChecklistID, req.QuoteID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "checklist or quote not found"})
		case errors.Is(err, service.ErrProjectMismatch):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrQuoteNotExtracted):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			slog.ErrorContext(ctx, "failed to start session", "error", err, "project_id", projectID)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start session"})
		}
		return
	}

	c.JSON(http.StatusCreated, dto.ToSessionResponse(session, progressOf(session)))
}

func (h *SessionHandler) ListByProject(c *gin.Context) {
	ctx := c.Request.Context()

	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	sessions, err := h.sessionService.ListByProject(ctx, projectID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list sessions", "error", err, "project_id", projectID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list sessions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sessions": dto.ToSessionSummaries(sessions)})
}

func (h *SessionHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	sessionID, ok := pathID(c, "id")
	if !ok {
		return
	}

	session, err := h.sessionService.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to get session", "error", err, "session_id", sessionID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get session"})
		return
	}

	c.JSON(http.StatusOK, dto.ToSessionResponse(session, progressOf(session)))
}

func (h *SessionHandler) RecordResolutions(c *gin.Context) {
	ctx := c.Request.Context()

	sessionID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.RecordResolutionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, progress, err := h.sessionService.RecordResolutions(ctx, sessionID, req.Resolutions)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		case errors.Is(err, service.ErrSessionNotOpen):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case reconcile.IsValidationError(err):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			slog.ErrorContext(ctx, "failed to record resolutions", "error", err, "session_id", sessionID)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record resolutions"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToSessionResponse(session, &progress))
}

func (h *SessionHandler) Progress(c *gin.Context) {
	ctx := c.Request.Context()

	sessionID, ok := pathID(c, "id")
	if !ok {
		return
	}

	progress, err := h.sessionService.Progress(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to compute progress", "error", err, "session_id", sessionID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute progress"})
		return
	}

	c.JSON(http.StatusOK, progress)
}

func (h *SessionHandler) Preview(c *gin.Context) {
	ctx := c.Request.Context()

	sessionID, ok := pathID(c, "id")
	if !ok {
		return
	}

	summary, err := h.sessionService.Preview(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to preview merge", "error", err, "session_id", sessionID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to preview merge"})
		return
	}

	c.JSON(http.StatusOK, dto.PreviewResponse{MergeSummary: summary})
}

// Refresh re-runs the comparator for an open session. Resolutions whose
// conflict changed underneath them are dropped by the service.
func (h *SessionHandler) Refresh(c *gin.Context) {
	ctx := c.Request.Context()

	sessionID, ok := pathID(c, "id")
	if !ok {
		return
	}

	session, err := h.sessionService.RefreshComparison(ctx, sessionID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		case errors.Is(err, service.ErrSessionNotOpen):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			slog.ErrorContext(ctx, "failed to refresh comparison", "error", err, "session_id", sessionID)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to refresh comparison"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToSessionResponse(session, progressOf(session)))
}

func (h *SessionHandler) Merge(c *gin.Context) {
	ctx := c.Request.Context()

	sessionID, ok := pathID(c, "id")
	if !ok {
		return
	}

	outcome, err := h.sessionService.Merge(ctx, sessionID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		case errors.Is(err, service.ErrSessionFinalized):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case reconcile.IsValidationError(err):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			slog.ErrorContext(ctx, "failed to merge session", "error", err, "session_id", sessionID)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to merge session"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToMergeOutcomeResponse(outcome))
}

// Publish enqueues the publish job and returns 202; the worker flips the
// session to published once every target confirms.
func (h *SessionHandler) Publish(c *gin.Context) {
	ctx := c.Request.Context()

	sessionID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.PublishSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			slog.WarnContext(ctx, "invalid request body", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	targets := make([]model.PublicationTarget, 0, len(req.Targets))
	for _, t := range req.Targets {
		targets = append(targets, model.PublicationTarget(t))
	}

	traceID := c.GetHeader(h.traceHeader)
	if traceID == "" {
		if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.IsValid() {
			traceID = spanCtx.TraceID().String()
		}
	}
	var tid *string
	if traceID != "" {
		tid = &traceID
	}

	pubs, err := h.sessionService.Publish(ctx, sessionID, targets, tid)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		case errors.Is(err, service.ErrSessionNotMerged), errors.Is(err, service.ErrSessionFinalized):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			slog.ErrorContext(ctx, "failed to enqueue publish", "error", err, "session_id", sessionID)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enqueue publish"})
		}
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"publications": dto.ToPublicationResponses(pubs)})
}

func (h *SessionHandler) Discard(c *gin.Context) {
	ctx := c.Request.Context()

	sessionID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.sessionService.Discard(ctx, sessionID); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		case errors.Is(err, service.ErrSessionNotOpen):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			slog.ErrorContext(ctx, "failed to discard session", "error", err, "session_id", sessionID)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to discard session"})
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// progressOf derives tracker progress from a loaded session without a
// second store round trip.
func progressOf(session *model.ReconciliationSession) *reconcile.Progress {
	p := reconcile.NewTrackerFromSession(session).Progress()
	return &p
}
