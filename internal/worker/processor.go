package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"planforge.app/anvil/common/graph"
	"planforge.app/anvil/common/id"
	"planforge.app/anvil/common/logger"
	"planforge.app/anvil/internal/model"
	"planforge.app/anvil/internal/queue"
	"planforge.app/anvil/internal/store"
)

// PublishProcessor executes publish tasks: it pushes a merged checklist to
// the configured wiki space and opens tracker tasks for the session's action
// items. Each target is tracked by a Publication row, so a redelivered
// message skips targets that already landed instead of publishing twice.
type PublishProcessor struct {
	sessions     store.ReconciliationStore
	checklists   store.ChecklistStore
	projects     store.ProjectStore
	publications store.PublicationStore
	wiki         WikiPublisher
	tracker      TrackerService
	trace        TraceRecorder
	spaceKey     string
}

func NewPublishProcessor(
	sessions store.ReconciliationStore,
	checklists store.ChecklistStore,
	projects store.ProjectStore,
	publications store.PublicationStore,
	wiki WikiPublisher,
	tracker TrackerService,
	trace TraceRecorder,
	spaceKey string,
) *PublishProcessor {
	return &PublishProcessor{
		sessions:     sessions,
		checklists:   checklists,
		projects:     projects,
		publications: publications,
		wiki:         wiki,
		tracker:      tracker,
		trace:        trace,
		spaceKey:     spaceKey,
	}
}

func (p *PublishProcessor) Process(ctx context.Context, msg queue.Message) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "anvil.worker.publisher",
	})

	session, err := p.sessions.GetByID(ctx, msg.SessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Session deleted since enqueue - nothing to publish, just ACK
			slog.InfoContext(ctx, "session not found, skipping", "session_id", msg.SessionID)
			return nil
		}
		return fmt.Errorf("loading session: %w", err)
	}

	if session.Status != model.ReconciliationStatusMerged && session.Status != model.ReconciliationStatusPublished {
		slog.InfoContext(ctx, "session not publishable, skipping",
			"session_id", session.ID,
			"status", session.Status)
		return nil
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		ChecklistID: &session.ChecklistID,
		QuoteID:     &session.QuoteID,
	})

	checklist, err := p.checklists.GetByID(ctx, session.ChecklistID)
	if err != nil {
		return fmt.Errorf("loading checklist: %w", err)
	}

	project, err := p.projects.GetByID(ctx, session.ProjectID)
	if err != nil {
		return fmt.Errorf("loading project: %w", err)
	}

	for _, raw := range msg.Targets {
		target := model.PublicationTarget(raw)

		pub, err := p.loadOrSeedPublication(ctx, session.ID, target)
		if err != nil {
			return err
		}

		if pub.Status == model.PublicationStatusPublished {
			slog.InfoContext(ctx, "target already published, skipping",
				"target", target,
				"external_ref", pub.ExternalRef)
			continue
		}

		ref, err := p.publishTarget(ctx, target, project, checklist, session)
		if err != nil {
			if markErr := p.publications.MarkFailed(ctx, pub.ID, msg.Attempt, err.Error()); markErr != nil {
				slog.ErrorContext(ctx, "failed to record publication failure",
					"error", markErr,
					"publication_id", pub.ID)
			}
			return fmt.Errorf("publishing %s: %w", target, err)
		}

		if err := p.publications.MarkPublished(ctx, pub.ID, ref, time.Now().UTC()); err != nil {
			return fmt.Errorf("marking %s published: %w", target, err)
		}

		slog.InfoContext(ctx, "target published",
			"target", target,
			"external_ref", ref)

		p.trace.RecordArtifacts(ctx, graph.Artifact{
			Kind:      graph.KindPublication,
			RefID:     pub.ID,
			Label:     fmt.Sprintf("%s publication for %s", target, project.Name),
			ProjectID: session.ProjectID,
		})
		p.trace.RecordLinks(ctx, graph.Link{
			FromKind: graph.KindSession,
			FromID:   session.ID,
			ToKind:   graph.KindPublication,
			ToID:     pub.ID,
			Relation: graph.RelationPublishedAs,
			Note:     ref,
		})
	}

	return p.finalizeSession(ctx, session)
}

// loadOrSeedPublication fetches the target's publication row, creating a
// pending one if the enqueueing service never seeded it (e.g. a message
// replayed by hand from the DLQ).
func (p *PublishProcessor) loadOrSeedPublication(ctx context.Context, sessionID int64, target model.PublicationTarget) (*model.Publication, error) {
	pub, err := p.publications.GetBySessionAndTarget(ctx, sessionID, target)
	if err == nil {
		return pub, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("loading publication for %s: %w", target, err)
	}

	pub = &model.Publication{
		ID:        id.New(),
		SessionID: sessionID,
		Target:    target,
		Status:    model.PublicationStatusPending,
	}
	if err := p.publications.Upsert(ctx, pub); err != nil {
		return nil, fmt.Errorf("seeding publication for %s: %w", target, err)
	}
	return pub, nil
}

func (p *PublishProcessor) publishTarget(
	ctx context.Context,
	target model.PublicationTarget,
	project *model.Project,
	checklist *model.Checklist,
	session *model.ReconciliationSession,
) (string, error) {
	switch target {
	case model.PublicationTargetWiki:
		return p.publishWiki(ctx, project, checklist, session)
	case model.PublicationTargetTracker:
		return p.publishTracker(ctx, project, session)
	default:
		return "", fmt.Errorf("unknown publication target %q", target)
	}
}

func (p *PublishProcessor) publishWiki(
	ctx context.Context,
	project *model.Project,
	checklist *model.Checklist,
	session *model.ReconciliationSession,
) (string, error) {
	if p.wiki == nil {
		return "", fmt.Errorf("wiki publishing is not configured")
	}

	title := RenderPageTitle(project.Name)
	body := RenderChecklistPage(project.Name, checklist, session)

	pageID, err := p.wiki.UpsertPage(ctx, p.spaceKey, title, body)
	if err != nil {
		return "", err
	}
	return pageID, nil
}

func (p *PublishProcessor) publishTracker(
	ctx context.Context,
	project *model.Project,
	session *model.ReconciliationSession,
) (string, error) {
	if p.tracker == nil {
		return "", fmt.Errorf("task tracker is not configured")
	}

	sessionRef := fmt.Sprintf("Opened by reconciliation session %d for project %s.", session.ID, project.Name)

	// A retry after a partial failure can recreate tasks that already
	// landed; the publication row only flips to published once every
	// item has.
	refs := make([]string, 0, len(session.ActionItems))
	for _, item := range session.ActionItems {
		ref, err := p.tracker.CreateTask(ctx, item, sessionRef)
		if err != nil {
			return "", fmt.Errorf("creating task %q: %w", item.Title, err)
		}
		refs = append(refs, ref)
	}

	slog.InfoContext(ctx, "tracker tasks created", "count", len(refs))
	return strings.Join(refs, ","), nil
}

// finalizeSession flips the session to published once every requested
// target has landed. Partial publishes leave the session merged so a later
// publish can finish the remaining targets.
func (p *PublishProcessor) finalizeSession(ctx context.Context, session *model.ReconciliationSession) error {
	if session.Status == model.ReconciliationStatusPublished {
		return nil
	}

	pubs, err := p.publications.ListBySession(ctx, session.ID)
	if err != nil {
		return fmt.Errorf("listing publications: %w", err)
	}
	if len(pubs) == 0 {
		return nil
	}

	for _, pub := range pubs {
		if pub.Status != model.PublicationStatusPublished {
			slog.InfoContext(ctx, "session has unpublished targets, leaving merged",
				"pending_target", pub.Target)
			return nil
		}
	}

	if err := p.sessions.MarkPublished(ctx, session.ID, time.Now().UTC()); err != nil {
		return fmt.Errorf("marking session published: %w", err)
	}

	slog.InfoContext(ctx, "session published", "session_id", session.ID)
	return nil
}
