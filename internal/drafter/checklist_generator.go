package drafter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"planforge.app/anvil/common/llm"
	"planforge.app/anvil/internal/model"
	"planforge.app/anvil/internal/reconcile"
)

// maxDocumentChars bounds how much extracted document text goes into one
// prompt. Documents past the budget are truncated, not dropped.
const maxDocumentChars = 24000

type checklistResponse struct {
	Answers []checklistAnswer `json:"answers" jsonschema_description:"One answer per prompt ID from the request"`
}

type checklistAnswer struct {
	PromptID string `json:"prompt_id" jsonschema_description:"The prompt ID this answer responds to, copied verbatim from the request"`
	Answer   string `json:"answer" jsonschema_description:"The requirement found in the documents, quoted or tightly paraphrased. Empty if no requirement exists"`
	Status   string `json:"status" jsonschema:"enum=requirement_found,enum=no_requirement" jsonschema_description:"Whether the documents state a requirement for this prompt"`
	Source   string `json:"source" jsonschema_description:"Where in the documents the requirement was found, e.g. a document title and page. Empty if no requirement"`
}

var checklistSchema = llm.GenerateSchema[checklistResponse]()

// ChecklistGenerator drafts a requirements checklist by asking the prompt
// catalog's questions of the customer documents.
type ChecklistGenerator interface {
	Generate(ctx context.Context, docs []model.Document) (*model.Checklist, error)
}

type checklistGenerator struct {
	llm llm.Client
}

func NewChecklistGenerator(client llm.Client) ChecklistGenerator {
	return &checklistGenerator{llm: client}
}

func (g *checklistGenerator) Generate(ctx context.Context, docs []model.Document) (*model.Checklist, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("at least one document is required")
	}

	prompt := buildChecklistPrompt(docs)

	var response checklistResponse
	start := time.Now()

	var err error
	for attempt := 0; attempt < 3; attempt++ {
		_, err = g.llm.Chat(ctx, llm.Request{
			SystemPrompt: checklistSystemPrompt,
			UserPrompt:   prompt,
			SchemaName:   "checklist_response",
			Schema:       checklistSchema,
			Temperature:  llm.Temp(0.1),
		}, &response)
		if err == nil {
			break
		}
		if !llm.IsRetryable(ctx, err) {
			return nil, fmt.Errorf("checklist generation: %w", err)
		}
		slog.WarnContext(ctx, "checklist generation retry", "attempt", attempt+1, "error", err)
		time.Sleep(time.Duration(1<<attempt) * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("checklist generation after 3 attempts: %w", err)
	}

	checklist := assembleChecklist(response)
	checklist.Statistics = reconcile.ComputeStatistics(checklist)

	slog.InfoContext(ctx, "checklist generated",
		"total_prompts", checklist.Statistics.TotalPrompts,
		"requirements_found", checklist.Statistics.RequirementsFound,
		"errors", checklist.Statistics.Errors,
		"latency_ms", time.Since(start).Milliseconds())

	return checklist, nil
}

// assembleChecklist joins the catalog against the model's answers. The
// catalog is the source of truth for structure: every prompt appears in
// the output exactly once, and a prompt the model skipped or answered
// with an unknown status comes back as an error item.
func assembleChecklist(response checklistResponse) *model.Checklist {
	answers := make(map[string]checklistAnswer, len(response.Answers))
	for _, a := range response.Answers {
		answers[a.PromptID] = a
	}

	checklist := &model.Checklist{Categories: make([]model.Category, 0, len(defaultCatalog))}
	for _, spec := range defaultCatalog {
		category := model.Category{
			ID:    spec.ID,
			Name:  spec.Name,
			Items: make([]model.ChecklistItem, 0, len(spec.Prompts)),
		}
		for _, prompt := range spec.Prompts {
			item := model.ChecklistItem{
				PromptID: prompt.ID,
				Question: prompt.Question,
				Status:   model.ItemStatusError,
			}
			if a, ok := answers[prompt.ID]; ok {
				switch model.ItemStatus(a.Status) {
				case model.ItemStatusRequirementFound:
					item.Status = model.ItemStatusRequirementFound
					item.Answer = strings.TrimSpace(a.Answer)
					item.Source = strings.TrimSpace(a.Source)
				case model.ItemStatusNoRequirement:
					item.Status = model.ItemStatusNoRequirement
				}
				// A found requirement with no text is not usable.
				if item.Status == model.ItemStatusRequirementFound && item.Answer == "" {
					item.Status = model.ItemStatusError
				}
			}
			category.Items = append(category.Items, item)
		}
		checklist.Categories = append(checklist.Categories, category)
	}
	return checklist
}

func buildChecklistPrompt(docs []model.Document) string {
	var sb strings.Builder

	sb.WriteString("## Prompts\n")
	for _, spec := range defaultCatalog {
		sb.WriteString(fmt.Sprintf("### %s\n", spec.Name))
		for _, p := range spec.Prompts {
			sb.WriteString(fmt.Sprintf("- %s: %s\n", p.ID, p.Question))
		}
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

const checklistSystemPrompt = `You review manufacturing source documents and answer a fixed set of requirements prompts.

For every prompt ID in the request, return exactly one answer.

## Rules

- status=requirement_found only when the documents state the requirement. Quote or tightly paraphrase it in answer, and cite where it was found in source.
- status=no_requirement when the documents are silent on the prompt. Leave answer and source empty.
- Never invent a requirement. Silence in the documents is no_requirement, not a guess.
- Answer from the documents only; ignore industry defaults unless the documents invoke them.
- Keep each answer to one or two sentences. Preserve exact values: alloys, tolerances, standards, quantities.

## Example

Prompt: materials-alloy: What material or alloy is specified, including temper and governing standard?
Document text: "All machined parts shall be 6061-T6 aluminum per AMS 4027."
Answer: {"prompt_id": "materials-alloy", "answer": "6061-T6 aluminum per AMS 4027", "status": "requirement_found", "source": "Machining spec, Materials section"}`
