package router

import (
	"github.com/gin-gonic/gin"

	"planforge.app/anvil/internal/http/handler"
)

func TraceRouter(rg *gin.RouterGroup, h *handler.TraceHandler) {
	rg.GET("/:artifact", h.Get)
}
