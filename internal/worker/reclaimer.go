package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"planforge.app/anvil/common/logger"
	"planforge.app/anvil/internal/queue"
)

type RedisReclaimerConfig struct {
	Stream    string
	Group     string
	Consumer  string
	MinIdle   time.Duration
	Interval  time.Duration
	BatchSize int64
}

// RedisReclaimer sweeps the consumer group's pending list for messages
// whose consumer died between XREADGROUP and XACK. Claimed messages run
// through the normal processor; ones that fail again are requeued with a
// bumped attempt count so max-attempts accounting still applies.
type RedisReclaimer struct {
	client    *redis.Client
	cfg       RedisReclaimerConfig
	consumer  *queue.RedisConsumer
	processor queue.MessageProcessor

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func NewRedisReclaimer(client *redis.Client, cfg RedisReclaimerConfig, consumer *queue.RedisConsumer, processor queue.MessageProcessor) *RedisReclaimer {
	return &RedisReclaimer{
		client:    client,
		cfg:       cfg,
		consumer:  consumer,
		processor: processor,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Run ticks until Stop or context cancellation.
func (r *RedisReclaimer) Run(ctx context.Context) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "anvil.worker.reclaimer",
	})

	defer close(r.stoppedCh)

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "reclaimer started",
		"interval", r.cfg.Interval,
		"min_idle", r.cfg.MinIdle,
		"stream", r.cfg.Stream,
		"group", r.cfg.Group)

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopCh:
			slog.InfoContext(ctx, "reclaimer stopping")
			return
		case <-ticker.C:
			if err := r.sweep(ctx); err != nil {
				slog.ErrorContext(ctx, "reclaim sweep failed", "error", err)
			}
		}
	}
}

// Stop signals the reclaimer and waits for the loop to exit.
func (r *RedisReclaimer) Stop() {
	close(r.stopCh)
	<-r.stoppedCh
}

// sweep claims one batch of stale pending messages with XAUTOCLAIM and
// processes them inline. The scan restarts from the oldest entry every
// tick; an empty claim is the steady state.
func (r *RedisReclaimer) sweep(ctx context.Context) error {
	claimed, _, err := r.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   r.cfg.Stream,
		Group:    r.cfg.Group,
		Consumer: r.cfg.Consumer,
		MinIdle:  r.cfg.MinIdle,
		Start:    "0-0",
		Count:    r.cfg.BatchSize,
	}).Result()
	if err != nil {
		return fmt.Errorf("xautoclaim: %w", err)
	}
	if len(claimed) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "claimed stale messages", "count", len(claimed))

	for _, raw := range claimed {
		r.runClaimed(ctx, raw)
	}
	return nil
}

func (r *RedisReclaimer) runClaimed(ctx context.Context, raw redis.XMessage) {
	msgID := raw.ID
	ctx = logger.WithLogFields(ctx, logger.LogFields{MessageID: &msgID})

	msg, err := queue.ParseMessage(raw)
	if err != nil {
		// An unparseable entry would be re-claimed forever.
		slog.ErrorContext(ctx, "dropping unparseable reclaimed message", "error", err)
		_ = r.consumer.Ack(ctx, queue.Message{ID: raw.ID, Raw: raw})
		return
	}

	taskType := string(msg.TaskType)
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		SessionID: &msg.SessionID,
		ProjectID: &msg.ProjectID,
		TaskType:  &taskType,
	})

	start := time.Now()
	if err := r.process(ctx, msg); err != nil {
		slog.WarnContext(ctx, "reclaimed message failed, requeuing",
			"error", err,
			"attempt", msg.Attempt)
		if requeueErr := r.consumer.Requeue(ctx, msg, err.Error()); requeueErr != nil {
			slog.ErrorContext(ctx, "failed to requeue reclaimed message", "error", requeueErr)
		}
		return
	}

	slog.InfoContext(ctx, "reclaimed message processed",
		"original_attempt", msg.Attempt,
		"duration_ms", time.Since(start).Milliseconds())
}

func (r *RedisReclaimer) process(ctx context.Context, msg queue.Message) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return r.processor(ctx, msg)
}
