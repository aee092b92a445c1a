package worker_test

import (
	"context"
	"time"

	"planforge.app/anvil/common/graph"
	"planforge.app/anvil/internal/model"
	"planforge.app/anvil/internal/queue"
	"planforge.app/anvil/internal/store"
)

type mockConsumer struct {
	readFn    func(ctx context.Context) ([]queue.Message, error)
	ackFn     func(ctx context.Context, msg queue.Message) error
	requeueFn func(ctx context.Context, msg queue.Message, errMsg string) error
	sendDLQFn func(ctx context.Context, msg queue.Message, errMsg string) error

	acked          []string
	requeued       []string
	dlqed          []string
	lastRequeueErr string
	lastDLQErr     string
}

func (m *mockConsumer) Read(ctx context.Context) ([]queue.Message, error) {
	if m.readFn != nil {
		return m.readFn(ctx)
	}
	return []queue.Message{}, nil
}

func (m *mockConsumer) Ack(ctx context.Context, msg queue.Message) error {
	m.acked = append(m.acked, msg.ID)
	if m.ackFn != nil {
		return m.ackFn(ctx, msg)
	}
	return nil
}

func (m *mockConsumer) Requeue(ctx context.Context, msg queue.Message, errMsg string) error {
	m.requeued = append(m.requeued, msg.ID)
	m.lastRequeueErr = errMsg
	if m.requeueFn != nil {
		return m.requeueFn(ctx, msg, errMsg)
	}
	return nil
}

func (m *mockConsumer) SendDLQ(ctx context.Context, msg queue.Message, errMsg string) error {
	m.dlqed = append(m.dlqed, msg.ID)
	m.lastDLQErr = errMsg
	if m.sendDLQFn != nil {
		return m.sendDLQFn(ctx, msg, errMsg)
	}
	return nil
}

type mockProcessor struct {
	processFn func(ctx context.Context, msg queue.Message) error
	calls     int
}

func (m *mockProcessor) Process(ctx context.Context, msg queue.Message) error {
	m.calls++
	if m.processFn != nil {
		return m.processFn(ctx, msg)
	}
	return nil
}

type mockReconciliationStore struct {
	getByIDFn          func(ctx context.Context, id int64) (*model.ReconciliationSession, error)
	markPublishedFn    func(ctx context.Context, id int64, publishedAt time.Time) error
	markPublishedCalls int
}

func (m *mockReconciliationStore) GetByID(ctx context.Context, id int64) (*model.ReconciliationSession, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, store.ErrNotFound
}

func (m *mockReconciliationStore) Create(ctx context.Context, session *model.ReconciliationSession) error {
	return nil
}

func (m *mockReconciliationStore) UpdateResolutions(ctx context.Context, id int64, resolutions []model.Resolution) error {
	return nil
}

func (m *mockReconciliationStore) UpdateComparison(ctx context.Context, id int64, comparison *model.ComparisonResult, fingerprints []string, resolutions []model.Resolution) error {
	return nil
}

func (m *mockReconciliationStore) MarkMerged(ctx context.Context, id int64, summary model.ResolutionSummary, actionItems []model.ActionItem, mergedAt time.Time) error {
	return nil
}

func (m *mockReconciliationStore) MarkPublished(ctx context.Context, id int64, publishedAt time.Time) error {
	m.markPublishedCalls++
	if m.markPublishedFn != nil {
		return m.markPublishedFn(ctx, id, publishedAt)
	}
	return nil
}

func (m *mockReconciliationStore) UpdateStatus(ctx context.Context, id int64, status model.ReconciliationStatus) error {
	return nil
}

func (m *mockReconciliationStore) ListByProject(ctx context.Context, projectID int64) ([]model.ReconciliationSession, error) {
	return []model.ReconciliationSession{}, nil
}

func (m *mockReconciliationStore) ListOpenByChecklist(ctx context.Context, checklistID int64) ([]model.ReconciliationSession, error) {
	return []model.ReconciliationSession{}, nil
}

type mockChecklistStore struct {
	getByIDFn func(ctx context.Context, id int64) (*model.Checklist, error)
}

func (m *mockChecklistStore) GetByID(ctx context.Context, id int64) (*model.Checklist, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, store.ErrNotFound
}

func (m *mockChecklistStore) GetLatestByProject(ctx context.Context, projectID int64) (*model.Checklist, error) {
	return nil, store.ErrNotFound
}

func (m *mockChecklistStore) Create(ctx context.Context, checklist *model.Checklist) error {
	return nil
}

func (m *mockChecklistStore) Update(ctx context.Context, checklist *model.Checklist) error {
	return nil
}

type mockProjectStore struct {
	getByIDFn func(ctx context.Context, id int64) (*model.Project, error)
}

func (m *mockProjectStore) GetByID(ctx context.Context, id int64) (*model.Project, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return &model.Project{ID: id, Name: "Test Project"}, nil
}

func (m *mockProjectStore) Create(ctx context.Context, project *model.Project) error {
	return nil
}

func (m *mockProjectStore) Update(ctx context.Context, project *model.Project) error {
	return nil
}

func (m *mockProjectStore) List(ctx context.Context, status *model.ProjectStatus) ([]model.Project, error) {
	return []model.Project{}, nil
}

type mockPublicationStore struct {
	getBySessionAndTarget func(ctx context.Context, sessionID int64, target model.PublicationTarget) (*model.Publication, error)
	upsertFn              func(ctx context.Context, pub *model.Publication) error
	markPublishedFn       func(ctx context.Context, id int64, externalRef string, publishedAt time.Time) error
	markFailedFn          func(ctx context.Context, id int64, attempt int, lastError string) error
	listBySessionFn       func(ctx context.Context, sessionID int64) ([]model.Publication, error)
	upsertCalls           int
}

func (m *mockPublicationStore) GetByID(ctx context.Context, id int64) (*model.Publication, error) {
	return nil, store.ErrNotFound
}

func (m *mockPublicationStore) GetBySessionAndTarget(ctx context.Context, sessionID int64, target model.PublicationTarget) (*model.Publication, error) {
	if m.getBySessionAndTarget != nil {
		return m.getBySessionAndTarget(ctx, sessionID, target)
	}
	return nil, store.ErrNotFound
}

func (m *mockPublicationStore) Upsert(ctx context.Context, pub *model.Publication) error {
	m.upsertCalls++
	if m.upsertFn != nil {
		return m.upsertFn(ctx, pub)
	}
	return nil
}

func (m *mockPublicationStore) MarkPublished(ctx context.Context, id int64, externalRef string, publishedAt time.Time) error {
	if m.markPublishedFn != nil {
		return m.markPublishedFn(ctx, id, externalRef, publishedAt)
	}
	return nil
}

func (m *mockPublicationStore) MarkFailed(ctx context.Context, id int64, attempt int, lastError string) error {
	if m.markFailedFn != nil {
		return m.markFailedFn(ctx, id, attempt, lastError)
	}
	return nil
}

func (m *mockPublicationStore) ListBySession(ctx context.Context, sessionID int64) ([]model.Publication, error) {
	if m.listBySessionFn != nil {
		return m.listBySessionFn(ctx, sessionID)
	}
	return []model.Publication{}, nil
}

type mockWiki struct {
	upsertFn func(ctx context.Context, spaceKey, title, body string) (string, error)
	calls    int
}

func (m *mockWiki) UpsertPage(ctx context.Context, spaceKey, title, body string) (string, error) {
	m.calls++
	if m.upsertFn != nil {
		return m.upsertFn(ctx, spaceKey, title, body)
	}
	return "1001", nil
}

type mockTracker struct {
	createFn func(ctx context.Context, item model.ActionItem, sessionRef string) (string, error)
	created  []model.ActionItem
}

func (m *mockTracker) CreateTask(ctx context.Context, item model.ActionItem, sessionRef string) (string, error) {
	m.created = append(m.created, item)
	if m.createFn != nil {
		return m.createFn(ctx, item, sessionRef)
	}
	return "task-1", nil
}

type mockTraceRecorder struct {
	artifacts []graph.Artifact
	links     []graph.Link
}

func (m *mockTraceRecorder) RecordArtifacts(ctx context.Context, artifacts ...graph.Artifact) {
	m.artifacts = append(m.artifacts, artifacts...)
}

func (m *mockTraceRecorder) RecordLinks(ctx context.Context, links ...graph.Link) {
	m.links = append(m.links, links...)
}
