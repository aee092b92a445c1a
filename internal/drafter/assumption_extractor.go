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

type assumptionsResponse struct {
	Assumptions []assumptionItem `json:"assumptions" jsonschema_description:"Every assumption the vendor states or implies in the quote"`
}

type assumptionItem struct {
	Category string `json:"category" jsonschema:"enum=Materials,enum=Tolerances,enum=Inspection & Quality,enum=Delivery & Packaging,enum=Compliance & Standards" jsonschema_description:"The checklist category this assumption belongs to"`
	Text     string `json:"text" jsonschema_description:"The assumption, quoted or tightly paraphrased from the quote"`
}

var assumptionsSchema = llm.GenerateSchema[assumptionsResponse]()

// AssumptionExtractor pulls categorized vendor assumptions out of quote
// text. Assumptions are immutable once extracted; re-extraction replaces
// the whole set.
type AssumptionExtractor interface {
	Extract(ctx context.Context, quote *model.Quote) ([]model.QuoteAssumption, error)
}

type assumptionExtractor struct {
	llm llm.Client
}

func NewAssumptionExtractor(client llm.Client) AssumptionExtractor {
	return &assumptionExtractor{llm: client}
}

func (e *assumptionExtractor) Extract(ctx context.Context, quote *model.Quote) ([]model.QuoteAssumption, error) {
	if quote == nil {
		return nil, fmt.Errorf("quote is required")
	}
	if strings.TrimSpace(quote.Content) == "" {
		return nil, fmt.Errorf("quote has no content to extract from")
	}

	var response assumptionsResponse
	start := time.Now()

	var err error
	for attempt := 0; attempt < 3; attempt++ {
		_, err = e.llm.Chat(ctx, llm.Request{
			SystemPrompt: assumptionsSystemPrompt,
			UserPrompt:   buildAssumptionsPrompt(quote),
			SchemaName:   "quote_assumptions_response",
			Schema:       assumptionsSchema,
			Temperature:  llm.Temp(0.1),
		}, &response)
		if err == nil {
			break
		}
		if !llm.IsRetryable(ctx, err) {
			return nil, fmt.Errorf("assumption extraction: %w", err)
		}
		slog.WarnContext(ctx, "assumption extraction retry",
			"quote_id", quote.ID, "attempt", attempt+1, "error", err)
		time.Sleep(time.Duration(1<<attempt) * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("assumption extraction after 3 attempts: %w", err)
	}

	categoryIDs := make(map[string]string, len(defaultCatalog))
	for _, spec := range defaultCatalog {
		categoryIDs[spec.Name] = spec.ID
	}

	assumptions := make([]model.QuoteAssumption, 0, len(response.Assumptions))
	for _, a := range response.Assumptions {
		text := strings.TrimSpace(a.Text)
		if text == "" {
			continue
		}
		id, ok := categoryIDs[a.Category]
		if !ok {
			// Off-catalog category: keep the assumption, file it under
			// the closest thing to a miscellaneous bucket.
			id, a.Category = "compliance", "Compliance & Standards"
		}
		assumptions = append(assumptions, model.QuoteAssumption{
			CategoryID:   id,
			CategoryName: a.Category,
			Text:         text,
		})
	}

	slog.InfoContext(ctx, "quote assumptions extracted",
		"quote_id", quote.ID,
		"assumption_count", len(assumptions),
		"latency_ms", time.Since(start).Milliseconds())

	return assumptions, nil
}

func buildAssumptionsPrompt(quote *model.Quote) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("## Vendor\n%s", quote.VendorName))
	if quote.Reference != "" {
		sb.WriteString(fmt.Sprintf(" (ref %s)", quote.Reference))
	}
	sb.WriteString("\n\n## Quote Text\n")

	content := quote.Content
	if len(content) > maxDocumentChars {
		content = content[:maxDocumentChars]
	}
	sb.WriteString(content)

	return sb.String()
}

const assumptionsSystemPrompt = `You extract the assumptions a vendor makes in a manufacturing quote.

An assumption is anything the vendor commits to or takes for granted: the material they priced, the tolerances they will hold, the inspection they include, lead times, packaging, standards compliance.

## Rules

- One assumption per entry. Split compound statements.
- Quote or tightly paraphrase; preserve exact values (alloys, tolerances, week counts).
- Tag each assumption with the single best-fitting category.
- Include implicit assumptions when the quote's pricing clearly depends on them, e.g. "standard shop tolerance applies" when no tolerance is mentioned next to a price.
- Skip boilerplate with no engineering content (greetings, payment reminders, legal footers).

## Example

Quote text: "Price assumes 6061-T651 plate. Parts held to +/-0.1mm unless noted. Delivery 6 weeks ARO."
Output:
- {"category": "Materials", "text": "Price assumes 6061-T651 plate"}
- {"category": "Tolerances", "text": "Parts held to +/-0.1 mm unless noted"}
- {"category": "Delivery & Packaging", "text": "Delivery 6 weeks after receipt of order"}`
