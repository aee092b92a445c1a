package router

import (
	"github.com/gin-gonic/gin"

	"planforge.app/anvil/internal/http/handler"
	"planforge.app/anvil/internal/service"
)

type RouterConfig struct {
	DashboardURL    string
	TraceHeaderName string
	IsProduction    bool
	AuthEnabled     bool
}

func SetupRoutes(router *gin.Engine, services *service.Services, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	authHandler := handler.NewAuthHandler(services.Auth(), cfg.DashboardURL, cfg.IsProduction, cfg.AuthEnabled)

	v1 := router.Group("/v1")

	// Auth endpoints stay public; everything else sits behind the session
	// cookie.
	AuthRouter(v1.Group("/auth"), authHandler)

	protected := v1.Group("")
	protected.Use(authHandler.RequireSession())
	{
		projects := protected.Group("/projects")
		ProjectRouter(projects, handler.NewProjectHandler(services.Projects()))
		DocumentRouter(projects, protected.Group("/documents"), handler.NewDocumentHandler(services.Documents()))
		PlanRouter(projects, handler.NewPlanHandler(services.Plans()))
		ChecklistRouter(projects, protected.Group("/checklists"), handler.NewChecklistHandler(services.Checklists()))
		QuoteRouter(projects, protected.Group("/quotes"), handler.NewQuoteHandler(services.Quotes()))
		SessionRouter(projects, protected.Group("/sessions"), handler.NewSessionHandler(services.Sessions(), cfg.TraceHeaderName))
		ReconcileRouter(protected.Group("/reconcile"), handler.NewReconcileHandler(services.Reconcile()))
		SearchRouter(protected.Group("/search"), handler.NewSearchHandler(services.Search()))
		TraceRouter(protected.Group("/trace"), handler.NewTraceHandler(services.Trace()))
	}
}
