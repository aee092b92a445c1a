package queue

type TaskType string

const (
	TaskTypePublish TaskType = "publish"
)

// PublishTask describes one publish job for a merged reconciliation
// session. Targets name the destinations the worker must publish to
// ("wiki", "tracker"); the worker skips targets already published.
type PublishTask struct {
	SessionID int64
	ProjectID int64
	Targets   []string
	TraceID   *string
	Attempt   int
}
