package router

import (
	"github.com/gin-gonic/gin"

	"planforge.app/anvil/internal/http/handler"
)

func ReconcileRouter(rg *gin.RouterGroup, h *handler.ReconcileHandler) {
	rg.POST("/compare", h.Compare)
	rg.POST("/resolve", h.Resolve)
	rg.POST("/preview", h.Preview)
}
