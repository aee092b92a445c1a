package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"planforge.app/anvil/common/graph"
	"planforge.app/anvil/common/id"
	"planforge.app/anvil/common/logger"
	"planforge.app/anvil/common/otel"
	"planforge.app/anvil/core/config"
	"planforge.app/anvil/core/db"
	"planforge.app/anvil/internal/queue"
	"planforge.app/anvil/internal/service"
	"planforge.app/anvil/internal/store"
	"planforge.app/anvil/internal/worker"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeWorker)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel before logger: the production log handler exports through it,
	// and spans linked from queue trace IDs need a live provider.
	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	fmt.Printf("%s\n", banner)
	logger.Setup(cfg)

	slog.InfoContext(ctx, "anvil publisher starting",
		"env", cfg.Env,
		"consumer_group", cfg.Queue.RedisGroup,
		"consumer_name", cfg.Queue.RedisConsumer)

	if err := id.Init(id.NodeWorker); err != nil {
		slog.ErrorContext(ctx, "failed to initialize id generator", "error", err)
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

	consumer, err := queue.NewRedisConsumer(redisClient, queue.ConsumerConfig{
		Stream:       cfg.Queue.RedisStream,
		Group:        cfg.Queue.RedisGroup,
		Consumer:     cfg.Queue.RedisConsumer,
		DLQStream:    cfg.Queue.RedisDLQStream,
		BatchSize:    1, // Publish one session at a time
		Block:        5 * time.Second,
		MaxAttempts:  3,
		RequeueDelay: time.Second,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create consumer", "error", err)
		os.Exit(1)
	}

	var wiki worker.WikiPublisher
	if cfg.Wiki.Enabled() {
		wiki = worker.NewWikiClient(cfg.Wiki)
		slog.InfoContext(ctx, "wiki publishing enabled", "base_url", cfg.Wiki.BaseURL, "space", cfg.Wiki.SpaceKey)
	} else {
		slog.WarnContext(ctx, "wiki publishing disabled (not configured)")
	}

	var tracker worker.TrackerService
	if cfg.Tracker.Enabled() {
		tracker, err = worker.NewTracker(cfg.Tracker)
		if err != nil {
			slog.ErrorContext(ctx, "failed to create tracker client", "error", err)
			os.Exit(1)
		}
		slog.InfoContext(ctx, "tracker publishing enabled", "backend", cfg.Tracker.Backend)
	} else {
		slog.WarnContext(ctx, "tracker publishing disabled (not configured)")
	}

	// The worker bootstraps the graph itself so it does not depend on the
	// server having started first.
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
		slog.InfoContext(ctx, "trace graph connected", "url", cfg.Graph.URL)
	}

	stores := store.NewStores(database.Pool())

	processor := worker.NewPublishProcessor(
		stores.Reconciliations(),
		stores.Checklists(),
		stores.Projects(),
		stores.Publications(),
		wiki,
		tracker,
		service.NewTraceService(graphClient),
		cfg.Wiki.SpaceKey,
	)

	w := worker.New(consumer, processor, worker.Config{
		MaxAttempts: 3,
	})

	reclaimer := worker.NewRedisReclaimer(redisClient, worker.RedisReclaimerConfig{
		Stream:    cfg.Queue.RedisStream,
		Group:     cfg.Queue.RedisGroup,
		Consumer:  cfg.Queue.RedisConsumer + "-reclaimer",
		MinIdle:   5 * time.Minute,
		Interval:  1 * time.Minute,
		BatchSize: 10,
	}, consumer, w.ProcessMessage)

	errCh := make(chan error, 2)
	go func() {
		errCh <- w.Run(ctx)
	}()
	go func() {
		reclaimer.Run(ctx)
		errCh <- nil
	}()

	slog.InfoContext(ctx, "worker initialized and running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down worker...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// Stop reclaimer first (quick)
	reclaimer.Stop()

	// Stop worker (may be mid-publish)
	w.Stop()

	select {
	case <-shutdownCtx.Done():
		slog.WarnContext(ctx, "shutdown timeout exceeded")
	case err := <-errCh:
		if err != nil {
			slog.ErrorContext(ctx, "worker error during shutdown", "error", err)
		}
	}

	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(ctx, "otel shutdown error", "error", err)
	}

	slog.InfoContext(ctx, "worker shutdown complete")
}

const banner = `
 █████╗ ███╗   ██╗██╗   ██╗██╗██╗         ██████╗ ██╗   ██╗██████╗ ██╗     ██╗███████╗██╗  ██╗███████╗██████╗
██╔══██╗████╗  ██║██║   ██║██║██║         ██╔══██╗██║   ██║██╔══██╗██║     ██║██╔════╝██║  ██║██╔════╝██╔══██╗
███████║██╔██╗ ██║██║   ██║██║██║         ██████╔╝██║   ██║██████╔╝██║     ██║███████╗███████║█████╗  ██████╔╝
██╔══██║██║╚██╗██║╚██╗ ██╔╝██║██║         ██╔═══╝ ██║   ██║██╔══██╗██║     ██║╚════██║██╔══██║██╔══╝  ██╔══██╗
██║  ██║██║ ╚████║ ╚████╔╝ ██║███████╗    ██║     ╚██████╔╝██████╔╝███████╗██║███████║██║  ██║███████╗██║  ██║
╚═╝  ╚═╝╚═╝  ╚═══╝  ╚═══╝  ╚═╝╚══════╝    ╚═╝      ╚═════╝ ╚═════╝ ╚══════╝╚═╝╚══════╝╚═╝  ╚═╝╚══════╝╚═╝  ╚═╝
`
