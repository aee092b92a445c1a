package router

import (
	"github.com/gin-gonic/gin"

	"planforge.app/anvil/internal/http/handler"
)

// DocumentRouter registers routes under the owning project as well as
// direct document access.
func DocumentRouter(projects, documents *gin.RouterGroup, h *handler.DocumentHandler) {
	projects.POST("/:id/documents", h.Add)
	projects.GET("/:id/documents", h.ListByProject)

	documents.GET("/:id", h.Get)
	documents.DELETE("/:id", h.Delete)
}
