package router

import (
	"github.com/gin-gonic/gin"

	"planforge.app/anvil/internal/http/handler"
)

func SearchRouter(rg *gin.RouterGroup, h *handler.SearchHandler) {
	rg.GET("/requirements", h.Requirements)
}
