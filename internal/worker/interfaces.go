package worker

import (
	"context"

	"planforge.app/anvil/common/graph"
	"planforge.app/anvil/internal/model"
	"planforge.app/anvil/internal/queue"
)

// Consumer abstracts the message queue for testability.
type Consumer interface {
	Read(ctx context.Context) ([]queue.Message, error)
	Ack(ctx context.Context, msg queue.Message) error
	Requeue(ctx context.Context, msg queue.Message, errMsg string) error
	SendDLQ(ctx context.Context, msg queue.Message, errMsg string) error
}

// Processor abstracts the publish pipeline for testability.
type Processor interface {
	Process(ctx context.Context, msg queue.Message) error
}

// WikiPublisher abstracts the wiki backend. UpsertPage creates the page on
// first publish and updates it in place on re-publish, returning the page ID.
type WikiPublisher interface {
	UpsertPage(ctx context.Context, spaceKey, title, body string) (string, error)
}

// TrackerService abstracts the task tracker backend. CreateTask opens one
// task per action item and returns an external reference for the created task.
type TrackerService interface {
	CreateTask(ctx context.Context, item model.ActionItem, sessionRef string) (string, error)
}

// TraceRecorder is the subset of the trace service the worker records to.
type TraceRecorder interface {
	RecordArtifacts(ctx context.Context, artifacts ...graph.Artifact)
	RecordLinks(ctx context.Context, links ...graph.Link)
}
