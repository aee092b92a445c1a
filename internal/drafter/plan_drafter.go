package drafter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"planforge.app/anvil/common/llm"
	"planforge.app/anvil/internal/model"
)

type planResponse struct {
	Title   string              `json:"title" jsonschema_description:"Short title for the build plan"`
	Summary string              `json:"summary" jsonschema_description:"Two to four sentence summary of the manufacturing approach"`
	Phases  []planPhaseResponse `json:"phases" jsonschema_description:"Ordered execution phases, typically 3 to 6"`
}

type planPhaseResponse struct {
	Name          string   `json:"name" jsonschema_description:"Phase name, e.g. 'Material procurement'"`
	Objective     string   `json:"objective" jsonschema_description:"What this phase must accomplish"`
	DurationWeeks int      `json:"duration_weeks" jsonschema_description:"Estimated duration in whole weeks, at least 1"`
	WorkItems     []string `json:"work_items" jsonschema_description:"Concrete work items for this phase"`
	Risks         []string `json:"risks" jsonschema_description:"Known risks for this phase, may be empty"`
}

var planSchema = llm.GenerateSchema[planResponse]()

// PlanDrafter drafts a Strategic Build Plan from a project's documents.
type PlanDrafter interface {
	Draft(ctx context.Context, project *model.Project, docs []model.Document) (*model.BuildPlan, error)
}

type planDrafter struct {
	llm llm.Client
}

func NewPlanDrafter(client llm.Client) PlanDrafter {
	return &planDrafter{llm: client}
}

func (d *planDrafter) Draft(ctx context.Context, project *model.Project, docs []model.Document) (*model.BuildPlan, error) {
	if project == nil {
		return nil, fmt.Errorf("project is required")
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("at least one document is required")
	}

	var response planResponse
	start := time.Now()

	var err error
	for attempt := 0; attempt < 3; attempt++ {
		_, err = d.llm.Chat(ctx, llm.Request{
			SystemPrompt: planSystemPrompt,
			UserPrompt:   buildPlanPrompt(project, docs),
			SchemaName:   "build_plan_response",
			Schema:       planSchema,
			Temperature:  llm.Temp(0.3),
		}, &response)
		if err == nil {
			break
		}
		if !llm.IsRetryable(ctx, err) {
			return nil, fmt.Errorf("plan drafting: %w", err)
		}
		slog.WarnContext(ctx, "plan drafting retry", "attempt", attempt+1, "error", err)
		time.Sleep(time.Duration(1<<attempt) * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("plan drafting after 3 attempts: %w", err)
	}

	plan := &model.BuildPlan{
		Title:   strings.TrimSpace(response.Title),
		Summary: strings.TrimSpace(response.Summary),
		Phases:  make([]model.PlanPhase, 0, len(response.Phases)),
		Model:   d.llm.Model(),
	}
	if plan.Title == "" {
		plan.Title = "Strategic Build Plan: " + project.Name
	}
	for _, phase := range response.Phases {
		if strings.TrimSpace(phase.Name) == "" {
			continue
		}
		weeks := phase.DurationWeeks
		if weeks < 1 {
			weeks = 1
		}
		plan.Phases = append(plan.Phases, model.PlanPhase{
			Name:          strings.TrimSpace(phase.Name),
			Objective:     strings.TrimSpace(phase.Objective),
			DurationWeeks: weeks,
			WorkItems:     phase.WorkItems,
			Risks:         phase.Risks,
		})
	}
	if len(plan.Phases) == 0 {
		return nil, fmt.Errorf("plan drafting returned no phases")
	}

	slog.InfoContext(ctx, "build plan drafted",
		"phase_count", len(plan.Phases),
		"latency_ms", time.Since(start).Milliseconds())

	return plan, nil
}

func buildPlanPrompt(project *model.Project, docs []model.Document) string {
	var sb strings.Builder

	sb.WriteString("## Project\n")
	sb.WriteString(fmt.Sprintf("Name: %s\n", project.Name))
	if project.CustomerName != "" {
		sb.WriteString(fmt.Sprintf("Customer: %s\n", project.CustomerName))
	}
	sb.WriteString("\n## Documents\n")

	remaining := maxDocumentChars
	for _, doc := range docs {
		if remaining <= 0 {
			break
		}
		content := doc.Content
		if len(content) > remaining {
			content = content[:remaining]
		}
		remaining -= len(content)
		sb.WriteString(fmt.Sprintf("### %s (%s)\n%s\n\n", doc.Title, doc.Kind, content))
	}

	return sb.String()
}

const planSystemPrompt = `You are a manufacturing planner. Draft a Strategic Build Plan from the customer documents.

A good plan sequences the work a job shop actually does: review and clarification, material procurement, tooling and fixturing, production, inspection, delivery.

## Rules

- 3 to 6 phases, in execution order.
- Each phase gets a clear objective and 2 to 6 concrete work items.
- Estimate duration_weeks honestly from the scope visible in the documents; never pad.
- List a risk only when the documents give a concrete reason for it, e.g. a tight tolerance, an unusual alloy, a hard delivery date.
- Ground every statement in the documents. Do not invent customer requirements.`
