package worker

import (
	"fmt"
	"html"
	"strings"

	"planforge.app/anvil/internal/model"
)

// RenderPageTitle returns the wiki page title for a project's checklist.
// The title is stable per project so re-publishing updates one page.
func RenderPageTitle(projectName string) string {
	return "Requirements Checklist: " + projectName
}

// RenderChecklistPage renders the merged checklist as wiki storage-format
// HTML: one table per category, followed by the reconciliation summary and
// any open action items.
func RenderChecklistPage(projectName string, checklist *model.Checklist, session *model.ReconciliationSession) string {
	var b strings.Builder

	stats := checklist.Statistics
	fmt.Fprintf(&b, "<p>Requirements checklist for <strong>%s</strong>. ", html.EscapeString(projectName))
	fmt.Fprintf(&b, "%d of %d prompts answered (%d%% coverage).</p>\n",
		stats.RequirementsFound, stats.TotalPrompts, stats.CoveragePercentage)

	if session.MergedAt != nil {
		fmt.Fprintf(&b, "<p>Reconciled against vendor quote on %s.</p>\n",
			session.MergedAt.Format("2006-01-02"))
	}

	for _, cat := range checklist.Categories {
		fmt.Fprintf(&b, "<h2>%s</h2>\n", html.EscapeString(cat.Name))
		b.WriteString("<table><tbody>\n")
		b.WriteString("<tr><th>Question</th><th>Answer</th><th>Status</th><th>Source</th></tr>\n")
		for _, item := range cat.Items {
			fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>\n",
				html.EscapeString(item.Question),
				html.EscapeString(item.Answer),
				statusLabel(item.Status),
				html.EscapeString(item.Source))
		}
		b.WriteString("</tbody></table>\n")
	}

	if summary := session.MergeSummary; summary != nil {
		b.WriteString("<h2>Reconciliation Summary</h2>\n<ul>\n")
		fmt.Fprintf(&b, "<li>Customer spec kept: %d</li>\n", summary.AcceptedCustomerSpec)
		fmt.Fprintf(&b, "<li>Quote accepted: %d</li>\n", summary.AcceptedQuote)
		fmt.Fprintf(&b, "<li>AI suggestion accepted: %d</li>\n", summary.AcceptedAISuggestion)
		fmt.Fprintf(&b, "<li>Custom resolutions: %d</li>\n", summary.AcceptedCustom)
		fmt.Fprintf(&b, "<li>Action items created: %d</li>\n", summary.ActionItemsCreated)
		fmt.Fprintf(&b, "<li>Left unresolved: %d</li>\n", summary.UnresolvedCount)
		b.WriteString("</ul>\n")
	}

	if len(session.ActionItems) > 0 {
		b.WriteString("<h2>Open Action Items</h2>\n<ul>\n")
		for _, item := range session.ActionItems {
			fmt.Fprintf(&b, "<li><strong>%s</strong>", html.EscapeString(item.Title))
			if item.Description != "" {
				fmt.Fprintf(&b, ": %s", html.EscapeString(item.Description))
			}
			b.WriteString("</li>\n")
		}
		b.WriteString("</ul>\n")
	}

	return b.String()
}

func statusLabel(status model.ItemStatus) string {
	switch status {
	case model.ItemStatusRequirementFound:
		return "Requirement found"
	case model.ItemStatusNoRequirement:
		return "No requirement"
	case model.ItemStatusError:
		return "Extraction error"
	default:
		return string(status)
	}
}
