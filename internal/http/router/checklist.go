package router

import (
	"github.com/gin-gonic/gin"

	"planforge.app/anvil/internal/http/handler"
)

func ChecklistRouter(projects, checklists *gin.RouterGroup, h *handler.ChecklistHandler) {
	projects.POST("/:id/checklist/generate", h.Generate)
	projects.GET("/:id/checklist", h.GetLatest)

	checklists.GET("/:id", h.Get)
}
