package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"planforge.app/anvil/common/graph"
	"planforge.app/anvil/common/id"
	"planforge.app/anvil/common/llm"
	"planforge.app/anvil/common/logger"
	"planforge.app/anvil/common/otel"
	"planforge.app/anvil/common/search"
	"planforge.app/anvil/core/config"
	"planforge.app/anvil/core/db"
	"planforge.app/anvil/internal/http/middleware"
	httprouter "planforge.app/anvil/internal/http/router"
	"planforge.app/anvil/internal/queue"
	"planforge.app/anvil/internal/service"
	"planforge.app/anvil/internal/store"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeServer)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		// Can't use slog yet; OTel failed before logger setup
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "anvil starting", "env", cfg.Env, "service", cfg.OTel.ServiceName)

	if err := id.Init(id.NodeServer); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.InfoContext(ctx, "database connected")

	redisOpts, err := redis.ParseURL(cfg.Queue.RedisURL)
	if err != nil {
		slog.ErrorContext(ctx, "failed to parse redis url", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	slog.InfoContext(ctx, "redis connected", "stream", cfg.Queue.RedisStream)

	producer := queue.NewRedisProducer(redisClient, cfg.Queue.RedisStream, nil)
	defer producer.Close()

	drafterLLM, err := llm.New(llmClientConfig(cfg.DrafterLLM))
	if err != nil {
		slog.ErrorContext(ctx, "failed to create drafter llm client", "error", err)
		os.Exit(1)
	}
	slog.InfoContext(ctx, "drafter llm ready", "provider", cfg.DrafterLLM.Provider, "model", drafterLLM.Model())

	comparatorLLM, err := llm.New(llmClientConfig(cfg.ComparatorLLM))
	if err != nil {
		slog.ErrorContext(ctx, "failed to create comparator llm client", "error", err)
		os.Exit(1)
	}
	slog.InfoContext(ctx, "comparator llm ready", "provider", cfg.ComparatorLLM.Provider, "model", comparatorLLM.Model())

	var searchClient *search.Client
	if cfg.Search.Enabled() {
		searchClient, err = search.New(search.Config{
			URL:    cfg.Search.URL,
			APIKey: cfg.Search.APIKey,
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to create search client", "error", err)
			os.Exit(1)
		}
		if err := searchClient.EnsureCollection(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to ensure search collection", "error", err)
			os.Exit(1)
		}
		slog.InfoContext(ctx, "search connected", "url", cfg.Search.URL)
	} else {
		slog.InfoContext(ctx, "search disabled (typesense not configured)")
	}

	var graphClient graph.Client
	if cfg.Graph.Enabled() {
		graphClient, err = graph.Connect(ctx, graph.Config{
			URL:      cfg.Graph.URL,
			Username: cfg.Graph.Username,
			Password: cfg.Graph.Password,
			Database: cfg.Graph.Database,
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to connect to trace graph", "error", err)
			os.Exit(1)
		}
		slog.InfoContext(ctx, "trace graph connected", "url", cfg.Graph.URL, "database", cfg.Graph.Database)
	} else {
		slog.InfoContext(ctx, "trace graph disabled (arangodb not configured)")
	}

	stores := store.NewStores(database.Pool())

	services := service.NewServices(
		stores,
		service.NewTxRunner(database, stores),
		cfg.WorkOS,
		drafterLLM,
		comparatorLLM,
		producer,
		searchClient,
		graphClient,
	)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, services)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

func setupRouter(cfg config.Config, services *service.Services) *gin.Engine {
	router := gin.New()

	// Middleware order matters: the OTel span must exist before Recovery
	// and Logger run so both carry trace context.
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	httprouter.SetupRoutes(router, services, httprouter.RouterConfig{
		DashboardURL:    cfg.DashboardURL,
		TraceHeaderName: cfg.Queue.TraceHeaderName,
		IsProduction:    cfg.IsProduction(),
		AuthEnabled:     cfg.WorkOS.Enabled(),
	})

	return router
}

func llmClientConfig(cfg config.LLMConfig) llm.Config {
	return llm.Config{
		Provider:        cfg.Provider,
		APIKey:          cfg.APIKey,
		BaseURL:         cfg.BaseURL,
		Model:           cfg.Model,
		MaxTokens:       cfg.MaxTokens,
		ReasoningEffort: cfg.ReasoningEffort,
	}
}

const banner = `
 █████╗ ███╗   ██╗██╗   ██╗██╗██╗         ███████╗███████╗██████╗ ██╗   ██╗███████╗██████╗
██╔══██╗████╗  ██║██║   ██║██║██║         ██╔════╝██╔════╝██╔══██╗██║   ██║██╔════╝██╔══██╗
███████║██╔██╗ ██║██║   ██║██║██║         ███████╗█████╗  ██████╔╝██║   ██║█████╗  ██████╔╝
██╔══██║██║╚██╗██║╚██╗ ██╔╝██║██║         ╚════██║██╔══╝  ██╔══██╗╚██╗ ██╔╝██╔══╝  ██╔══██╗
██║  ██║██║ ╚████║ ╚████╔╝ ██║███████╗    ███████║███████╗██║  ██║ ╚████╔╝ ███████╗██║  ██║
╚═╝  ╚═╝╚═╝  ╚═══╝  ╚═══╝  ╚═╝╚══════╝    ╚══════╝╚══════╝╚═╝  ╚═╝  ╚═══╝  ╚══════╝╚═╝  ╚═╝
`
