package queue

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"
)

type Producer interface {
	EnqueuePublish(ctx context.Context, task PublishTask) error
	Close() error
}

type redisProducer struct {
	client *redis.Client
	stream string
	logger *slog.Logger
}

func NewRedisProducer(client *redis.Client, stream string, logger *slog.Logger) Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisProducer{
		client: client,
		stream: stream,
		logger: logger,
	}
}

func (p *redisProducer) EnqueuePublish(ctx context.Context, task PublishTask) error {
	if task.SessionID == 0 {
		return fmt.Errorf("publish task requires a session id")
	}
	if len(task.Targets) == 0 {
		return fmt.Errorf("publish task requires at least one target")
	}

	attempt := task.Attempt
	if attempt <= 0 {
		attempt = 1
	}

	fields := map[string]any{
		"task_type":  string(TaskTypePublish),
		"session_id": task.SessionID,
		"project_id": task.ProjectID,
		"targets":    strings.Join(task.Targets, ","),
		"attempt":    attempt,
	}

	if task.TraceID != nil && *task.TraceID != "" {
		fields["trace_id"] = *task.TraceID
	}

	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: fields,
	}).Err(); err != nil {
		return fmt.Errorf("enqueue publish task: %w", err)
	}

	p.logger.InfoContext(ctx, "enqueued publish task", "session_id", task.SessionID, "project_id", task.ProjectID, "targets", strings.Join(task.Targets, ","), "attempt", attempt)
	return nil
}

func (p *redisProducer) Close() error {
	return p.client.Close()
}
