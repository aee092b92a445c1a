package router

import (
	"github.com/gin-gonic/gin"

	"planforge.app/anvil/internal/http/handler"
)

func PlanRouter(projects *gin.RouterGroup, h *handler.PlanHandler) {
	projects.POST("/:id/plan/generate", h.Generate)
	projects.GET("/:id/plan", h.GetLatest)
}
