package router

import (
	"github.com/gin-gonic/gin"

	"planforge.app/anvil/internal/http/handler"
)

// SessionRouter covers the reconciliation workflow: sessions are created
// under a project and then driven by session ID.
func SessionRouter(projects, sessions *gin.RouterGroup, h *handler.SessionHandler) {
	projects.POST("/:id/sessions", h.Start)
	projects.GET("/:id/sessions", h.ListByProject)

	sessions.GET("/:id", h.Get)
	sessions.PUT("/:id/resolutions", h.RecordResolutions)
	sessions.GET("/:id/progress", h.Progress)
	sessions.GET("/:id/preview", h.Preview)
	sessions.POST("/:id/refresh", h.Refresh)
	sessions.POST("/:id/merge", h.Merge)
	sessions.POST("/:id/publish", h.Publish)
	sessions.DELETE("/:id", h.Discard)
}
