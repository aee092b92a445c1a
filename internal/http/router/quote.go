package router

import (
	"github.com/gin-gonic/gin"

	"planforge.app/anvil/internal/http/handler"
)

func QuoteRouter(projects, quotes *gin.RouterGroup, h *handler.QuoteHandler) {
	projects.POST("/:id/quotes", h.Add)
	projects.GET("/:id/quotes", h.ListByProject)

	quotes.GET("/:id", h.Get)
	quotes.POST("/:id/extract", h.Extract)
}
