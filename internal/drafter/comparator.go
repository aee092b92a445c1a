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

type comparisonResponse struct {
	Matches       []comparisonMatch    `json:"matches" jsonschema_description:"Checklist requirements the quote agrees with"`
	Conflicts     []comparisonConflict `json:"conflicts" jsonschema_description:"Points where the quote contradicts or weakens a checklist requirement"`
	QuoteOnly     []comparisonExtra    `json:"quote_only" jsonschema_description:"Quote assumptions with no counterpart requirement in the checklist"`
	ChecklistOnly []comparisonExtra    `json:"checklist_only" jsonschema_description:"Checklist requirements the quote does not address at all"`
}

type comparisonMatch struct {
	Category        string `json:"category" jsonschema_description:"Checklist category name"`
	Requirement     string `json:"requirement" jsonschema_description:"The checklist requirement text, copied verbatim"`
	QuoteAssumption string `json:"quote_assumption" jsonschema_description:"The agreeing quote assumption"`
	Note            string `json:"note" jsonschema_description:"Optional one-line note on the agreement"`
}

type comparisonConflict struct {
	Category             string `json:"category" jsonschema_description:"Checklist category name"`
	Severity             string `json:"severity" jsonschema:"enum=high,enum=medium,enum=low" jsonschema_description:"high: would cause rejection or rework. medium: needs confirmation. low: cosmetic or easily waived"`
	QuoteAssumption      string `json:"quote_assumption" jsonschema_description:"What the quote assumes"`
	ChecklistRequirement string `json:"checklist_requirement" jsonschema_description:"The conflicting checklist requirement, copied verbatim from the checklist"`
	ConflictDescription  string `json:"conflict_description" jsonschema_description:"One or two sentences on why these disagree"`
	ResolutionSuggestion string `json:"resolution_suggestion" jsonschema_description:"A concrete suggested resolution"`
}

type comparisonExtra struct {
	Category string `json:"category" jsonschema_description:"Best-fitting category name"`
	Text     string `json:"text" jsonschema_description:"The unmatched statement"`
}

var comparisonSchema = llm.GenerateSchema[comparisonResponse]()

// Comparator runs the quote-vs-checklist comparison. Its output assigns
// each conflict the index resolution tracking joins on, so the conflict
// order it returns is preserved exactly.
type Comparator interface {
	Compare(ctx context.Context, checklist *model.Checklist, assumptions []model.QuoteAssumption) (*model.ComparisonResult, error)
}

type comparator struct {
	llm llm.Client
}

func NewComparator(client llm.Client) Comparator {
	return &comparator{llm: client}
}

func (c *comparator) Compare(ctx context.Context, checklist *model.Checklist, assumptions []model.QuoteAssumption) (*model.ComparisonResult, error) {
	if checklist == nil {
		return nil, fmt.Errorf("checklist is required")
	}
	if len(assumptions) == 0 {
		return nil, fmt.Errorf("no quote assumptions to compare")
	}

	var response comparisonResponse
	start := time.Now()

	var err error
	for attempt := 0; attempt < 3; attempt++ {
		_, err = c.llm.Chat(ctx, llm.Request{
			SystemPrompt: comparisonSystemPrompt,
			UserPrompt:   buildComparisonPrompt(checklist, assumptions),
			SchemaName:   "comparison_response",
			Schema:       comparisonSchema,
			Temperature:  llm.Temp(0.1),
		}, &response)
		if err == nil {
			break
		}
		if !llm.IsRetryable(ctx, err) {
			return nil, fmt.Errorf("quote comparison: %w", err)
		}
		slog.WarnContext(ctx, "quote comparison retry", "attempt", attempt+1, "error", err)
		time.Sleep(time.Duration(1<<attempt) * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("quote comparison after 3 attempts: %w", err)
	}

	result := normalizeComparison(response)

	slog.InfoContext(ctx, "quote compared against checklist",
		"matches", len(result.Matches),
		"conflicts", len(result.Conflicts),
		"quote_only", len(result.QuoteOnly),
		"checklist_only", len(result.ChecklistOnly),
		"latency_ms", time.Since(start).Milliseconds())

	return result, nil
}

// normalizeComparison maps the wire response onto the model, keeping
// conflict order and making every collection non-nil. Conflicts missing
// either side of the disagreement are dropped before indices are fixed,
// never after.
func normalizeComparison(response comparisonResponse) *model.ComparisonResult {
	result := &model.ComparisonResult{
		Matches:       make([]model.Match, 0, len(response.Matches)),
		Conflicts:     make([]model.Conflict, 0, len(response.Conflicts)),
		QuoteOnly:     make([]model.UnmatchedItem, 0, len(response.QuoteOnly)),
		ChecklistOnly: make([]model.UnmatchedItem, 0, len(response.ChecklistOnly)),
	}

	for _, m := range response.Matches {
		result.Matches = append(result.Matches, model.Match{
			Category:        m.Category,
			Requirement:     m.Requirement,
			QuoteAssumption: m.QuoteAssumption,
			Note:            m.Note,
		})
	}
	for _, c := range response.Conflicts {
		if strings.TrimSpace(c.ChecklistRequirement) == "" || strings.TrimSpace(c.QuoteAssumption) == "" {
			continue
		}
		result.Conflicts = append(result.Conflicts, model.Conflict{
			Category:             c.Category,
			Severity:             normalizeSeverity(c.Severity),
			QuoteAssumption:      c.QuoteAssumption,
			ChecklistRequirement: c.ChecklistRequirement,
			ConflictDescription:  c.ConflictDescription,
			ResolutionSuggestion: c.ResolutionSuggestion,
		})
	}
	for _, q := range response.QuoteOnly {
		result.QuoteOnly = append(result.QuoteOnly, model.UnmatchedItem{Category: q.Category, Text: q.Text})
	}
	for _, c := range response.ChecklistOnly {
		result.ChecklistOnly = append(result.ChecklistOnly, model.UnmatchedItem{Category: c.Category, Text: c.Text})
	}
	return result
}

func normalizeSeverity(s string) model.Severity {
	switch model.Severity(strings.ToLower(strings.TrimSpace(s))) {
	case model.SeverityHigh:
		return model.SeverityHigh
	case model.SeverityLow:
		return model.SeverityLow
	default:
		return model.SeverityMedium
	}
}

func buildComparisonPrompt(checklist *model.Checklist, assumptions []model.QuoteAssumption) string {
	var sb strings.Builder

	sb.WriteString("## Checklist Requirements\n")
	for _, category := range checklist.Categories {
		wroteHeader := false
		for _, item := range category.Items {
			if item.Status != model.ItemStatusRequirementFound || item.Answer == "" {
				continue
			}
			if !wroteHeader {
				sb.WriteString(fmt.Sprintf("### %s\n", category.Name))
				wroteHeader = true
			}
			sb.WriteString(fmt.Sprintf("- %s\n", item.Answer))
		}
	}

	sb.WriteString("\n## Quote Assumptions\n")
	for _, a := range assumptions {
		sb.WriteString(fmt.Sprintf("- [%s] %s\n", a.CategoryName, a.Text))
	}

	return sb.String()
}

const comparisonSystemPrompt = `You compare a vendor quote's assumptions against a customer requirements checklist.

Sort every pairing into exactly one of four buckets: matches, conflicts, quote_only, checklist_only. The buckets are disjoint; never place the same requirement or assumption in two buckets.

## Rules

- A conflict is a real disagreement: different material, looser tolerance, missing cert, longer lead time than required. Copy checklist_requirement verbatim from the checklist text. Order conflicts from most to least severe.
- A match means the quote satisfies the requirement as stated. Copy requirement verbatim from the checklist text.
- quote_only holds vendor assumptions with no related requirement. checklist_only holds requirements the quote never touches.
- severity=high when accepting the quote as-is would produce nonconforming parts or a missed contractual obligation.
- resolution_suggestion must be actionable: a concrete spec line, a question to ask the vendor, or a compromise with numbers in it.
- Do not manufacture conflicts out of wording differences when the engineering content agrees.`
