package reconcile_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"planforge.app/anvil/internal/model"
	"planforge.app/anvil/internal/reconcile"
)

// buildChecklist returns the standard fixture: two categories of three
// items each, four requirements found, two without a requirement.
func buildChecklist() *model.Checklist {
	return &model.Checklist{
		ID:        41,
		ProjectID: 7,
		Categories: []model.Category{
			{
				ID:   "materials",
				Name: "Materials",
				Items: []model.ChecklistItem{
					{PromptID: "materials-1", Question: "What alloy is specified?", Answer: "6061-T6 aluminum per AMS 4027", Status: model.ItemStatusRequirementFound, Source: "customer spec p.3"},
					{PromptID: "materials-2", Question: "Are material certs required?", Answer: "Mill certs required with each lot", Status: model.ItemStatusRequirementFound, Source: "customer spec p.4"},
					{PromptID: "materials-3", Question: "Are coatings specified?", Answer: "", Status: model.ItemStatusNoRequirement},
				},
			},
			{
				ID:   "tolerances",
				Name: "Tolerances",
				Items: []model.ChecklistItem{
					{PromptID: "tolerances-1", Question: "General tolerance standard?", Answer: "ISO 2768-mK unless noted", Status: model.ItemStatusRequirementFound, Source: "drawing notes"},
					{PromptID: "tolerances-2", Question: "Critical dimensions called out?", Answer: "Bore diameter held to ±0.005 mm", Status: model.ItemStatusRequirementFound, Source: "drawing notes"},
					{PromptID: "tolerances-3", Question: "Surface finish requirements?", Answer: "", Status: model.ItemStatusNoRequirement},
				},
			},
		},
	}
}

// buildComparison returns two conflicts joined to the fixture checklist:
// conflict 0 against materials-1, conflict 1 against tolerances-2.
func buildComparison() *model.ComparisonResult {
	return &model.ComparisonResult{
		Matches: []model.Match{
			{Category: "Materials", Requirement: "Mill certs required with each lot", QuoteAssumption: "Mill certs included per shipment"},
			{Category: "Tolerances", Requirement: "ISO 2768-mK unless noted", QuoteAssumption: "Standard shop tolerance ISO 2768-mK"},
		},
		Conflicts: []model.Conflict{
			{
				Category:             "Materials",
				Severity:             model.SeverityHigh,
				QuoteAssumption:      "Quoted 6061-T651 plate, certs on request",
				ChecklistRequirement: "6061-T6 aluminum per AMS 4027",
				ConflictDescription:  "Quote substitutes T651 temper for the specified T6",
				ResolutionSuggestion: "Confirm T651 temper is acceptable for machined parts",
			},
			{
				Category:             "Tolerances",
				Severity:             model.SeverityMedium,
				QuoteAssumption:      "General machining tolerance ±0.1 mm",
				ChecklistRequirement: "Bore diameter held to ±0.005 mm",
				ConflictDescription:  "Quote does not acknowledge the tight bore callout",
				ResolutionSuggestion: "Hold ±0.005 mm on the bore only, general ±0.1 mm elsewhere",
			},
		},
		QuoteOnly: []model.UnmatchedItem{
			{Category: "Lead Time", Text: "6 weeks ARO"},
			{Category: "Payment", Text: "Net 30 from invoice"},
		},
		ChecklistOnly: []model.UnmatchedItem{},
	}
}

func itemByPromptID(checklist *model.Checklist, promptID string) *model.ChecklistItem {
	for i := range checklist.Categories {
		for j := range checklist.Categories[i].Items {
			if checklist.Categories[i].Items[j].PromptID == promptID {
				return &checklist.Categories[i].Items[j]
			}
		}
	}
	return nil
}

var _ = Describe("Merge Engine", func() {
	var (
		checklist  *model.Checklist
		comparison *model.ComparisonResult
	)

	BeforeEach(func() {
		checklist = buildChecklist()
		comparison = buildComparison()
	})

	Describe("Apply", func() {
		It("requires a checklist and a comparison", func() {
			_, err := reconcile.Apply(nil, comparison, nil)
			Expect(err).To(MatchError(reconcile.ErrNilChecklist))

			_, err = reconcile.Apply(checklist, nil, nil)
			Expect(err).To(MatchError(reconcile.ErrNilComparison))
		})

		It("accepts the quote assumption and leaves other conflicts outstanding", func() {
			result, err := reconcile.Apply(checklist, comparison, []model.Resolution{
				{ConflictIndex: 0, Type: model.ResolutionTypeQuote},
			})
			Expect(err).ToNot(HaveOccurred())

			item := itemByPromptID(result.UpdatedChecklist, "materials-1")
			Expect(item.Answer).To(Equal("Quoted 6061-T651 plate, certs on request"))
			Expect(item.Source).To(Equal(reconcile.QuoteProvenance))

			Expect(result.Summary.AcceptedQuote).To(Equal(1))
			Expect(result.Summary.UnresolvedCount).To(Equal(1))
			Expect(result.UpdatedChecklist.ResolutionsApplied).To(BeTrue())

			// The unresolved conflict's item is untouched.
			Expect(itemByPromptID(result.UpdatedChecklist, "tolerances-2").Answer).To(Equal("Bore diameter held to ±0.005 mm"))
		})

		It("keeps the customer requirement for customer_spec resolutions", func() {
			result, err := reconcile.Apply(checklist, comparison, []model.Resolution{
				{ConflictIndex: 0, Type: model.ResolutionTypeCustomerSpec},
			})
			Expect(err).ToNot(HaveOccurred())

			item := itemByPromptID(result.UpdatedChecklist, "materials-1")
			Expect(item.Answer).To(Equal("6061-T6 aluminum per AMS 4027"))
			Expect(item.Source).To(Equal("customer spec p.3"))
			Expect(result.Summary.AcceptedCustomerSpec).To(Equal(1))
		})

		It("overwrites the answer with the suggestion for ai_suggestion resolutions", func() {
			result, err := reconcile.Apply(checklist, comparison, []model.Resolution{
				{ConflictIndex: 1, Type: model.ResolutionTypeAISuggestion},
			})
			Expect(err).ToNot(HaveOccurred())

			item := itemByPromptID(result.UpdatedChecklist, "tolerances-2")
			Expect(item.Answer).To(Equal("Hold ±0.005 mm on the bore only, general ±0.1 mm elsewhere"))
			Expect(result.Summary.AcceptedAISuggestion).To(Equal(1))
		})

		It("overwrites the answer with the provided text for custom resolutions", func() {
			result, err := reconcile.Apply(checklist, comparison, []model.Resolution{
				{ConflictIndex: 1, Type: model.ResolutionTypeCustom, CustomText: "Bore ±0.01 mm per vendor capability study"},
			})
			Expect(err).ToNot(HaveOccurred())

			item := itemByPromptID(result.UpdatedChecklist, "tolerances-2")
			Expect(item.Answer).To(Equal("Bore ±0.01 mm per vendor capability study"))
			Expect(result.Summary.AcceptedCustom).To(Equal(1))
		})

		It("creates an action item without touching the checklist answer", func() {
			result, err := reconcile.Apply(checklist, comparison, []model.Resolution{
				{ConflictIndex: 1, Type: model.ResolutionTypeActionItem, ActionItem: &model.ActionItem{
					Title:    "Clarify: Tolerances",
					Priority: model.PriorityHigh,
				}},
			})
			Expect(err).ToNot(HaveOccurred())

			Expect(itemByPromptID(result.UpdatedChecklist, "tolerances-2").Answer).To(Equal("Bore diameter held to ±0.005 mm"))
			Expect(result.ActionItems).To(HaveLen(1))
			Expect(result.ActionItems[0].Title).To(Equal("Clarify: Tolerances"))
			Expect(result.ActionItems[0].Priority).To(Equal(model.PriorityHigh))
			Expect(result.Summary.ActionItemsCreated).To(Equal(1))
		})

		It("derives the action item title from the conflict category when none is given", func() {
			result, err := reconcile.Apply(checklist, comparison, []model.Resolution{
				{ConflictIndex: 1, Type: model.ResolutionTypeActionItem},
			})
			Expect(err).ToNot(HaveOccurred())

			Expect(result.ActionItems).To(HaveLen(1))
			Expect(result.ActionItems[0].Title).To(Equal("Clarify: Tolerances"))
		})

		It("handles every resolution type in a single merge", func() {
			comparison.Conflicts = append(comparison.Conflicts,
				model.Conflict{
					Category:             "Materials",
					QuoteAssumption:      "No coating quoted",
					ChecklistRequirement: "Mill certs required with each lot",
					ResolutionSuggestion: "Keep certs with each lot",
				},
				model.Conflict{
					Category:             "Tolerances",
					QuoteAssumption:      "Surface finish Ra 3.2 assumed",
					ChecklistRequirement: "ISO 2768-mK unless noted",
					ResolutionSuggestion: "Note Ra 3.2 as the default finish",
				},
			)

			result, err := reconcile.Apply(checklist, comparison, []model.Resolution{
				{ConflictIndex: 0, Type: model.ResolutionTypeQuote},
				{ConflictIndex: 1, Type: model.ResolutionTypeCustom, CustomText: "Bore ±0.01 mm agreed by phone"},
				{ConflictIndex: 2, Type: model.ResolutionTypeCustomerSpec},
				{ConflictIndex: 3, Type: model.ResolutionTypeActionItem, ActionItem: &model.ActionItem{Title: "Confirm default finish"}},
			})
			Expect(err).ToNot(HaveOccurred())

			Expect(result.Summary).To(Equal(model.ResolutionSummary{
				AcceptedQuote:        1,
				AcceptedCustom:       1,
				AcceptedCustomerSpec: 1,
				ActionItemsCreated:   1,
				UnresolvedCount:      0,
			}))
			Expect(result.ActionItems).To(HaveLen(1))
		})

		It("never mutates the input checklist", func() {
			_, err := reconcile.Apply(checklist, comparison, []model.Resolution{
				{ConflictIndex: 0, Type: model.ResolutionTypeQuote},
				{ConflictIndex: 1, Type: model.ResolutionTypeCustom, CustomText: "agreed by phone"},
			})
			Expect(err).ToNot(HaveOccurred())

			Expect(checklist).To(Equal(buildChecklist()))
		})

		It("produces identical output when re-run with the same inputs", func() {
			resolutions := []model.Resolution{
				{ConflictIndex: 0, Type: model.ResolutionTypeQuote},
				{ConflictIndex: 1, Type: model.ResolutionTypeActionItem, ActionItem: &model.ActionItem{Title: "Clarify: Tolerances"}},
			}

			first, err := reconcile.Apply(checklist, comparison, resolutions)
			Expect(err).ToNot(HaveOccurred())
			second, err := reconcile.Apply(checklist, comparison, resolutions)
			Expect(err).ToNot(HaveOccurred())

			Expect(second.UpdatedChecklist).To(Equal(first.UpdatedChecklist))
			Expect(second.ActionItems).To(Equal(first.ActionItems))
			Expect(second.Summary).To(Equal(first.Summary))
		})

		It("treats an empty resolution set as a valid no-op merge", func() {
			result, err := reconcile.Apply(checklist, comparison, nil)
			Expect(err).ToNot(HaveOccurred())

			Expect(result.UpdatedChecklist.ResolutionsApplied).To(BeFalse())
			Expect(result.ActionItems).To(BeEmpty())
			Expect(result.Summary).To(Equal(model.ResolutionSummary{UnresolvedCount: 2}))

			expected := buildChecklist()
			Expect(result.UpdatedChecklist.Categories).To(Equal(expected.Categories))
		})

		It("keeps the later resolution when one index appears twice", func() {
			result, err := reconcile.Apply(checklist, comparison, []model.Resolution{
				{ConflictIndex: 0, Type: model.ResolutionTypeQuote},
				{ConflictIndex: 0, Type: model.ResolutionTypeCustomerSpec},
			})
			Expect(err).ToNot(HaveOccurred())

			Expect(result.Summary.AcceptedCustomerSpec).To(Equal(1))
			Expect(result.Summary.AcceptedQuote).To(Equal(0))
			Expect(result.Summary.UnresolvedCount).To(Equal(1))
			Expect(itemByPromptID(result.UpdatedChecklist, "materials-1").Answer).To(Equal("6061-T6 aluminum per AMS 4027"))
		})

		It("skips a stale reference and counts it as unresolved", func() {
			// The checklist was edited after the comparison was produced.
			itemByPromptID(checklist, "materials-1").Answer = "7075-T6 aluminum per AMS 4045"

			result, err := reconcile.Apply(checklist, comparison, []model.Resolution{
				{ConflictIndex: 0, Type: model.ResolutionTypeQuote},
				{ConflictIndex: 1, Type: model.ResolutionTypeQuote},
			})
			Expect(err).ToNot(HaveOccurred())

			Expect(result.Summary.AcceptedQuote).To(Equal(1))
			Expect(result.Summary.UnresolvedCount).To(Equal(1))
			Expect(itemByPromptID(result.UpdatedChecklist, "materials-1").Answer).To(Equal("7075-T6 aluminum per AMS 4045"))
		})

		It("skips a conflict whose category was renamed", func() {
			checklist.Categories[0].Name = "Raw Materials"

			result, err := reconcile.Apply(checklist, comparison, []model.Resolution{
				{ConflictIndex: 0, Type: model.ResolutionTypeCustom, CustomText: "use the quoted temper"},
			})
			Expect(err).ToNot(HaveOccurred())

			Expect(result.Summary.AcceptedCustom).To(Equal(0))
			Expect(result.Summary.UnresolvedCount).To(Equal(2))
			Expect(result.UpdatedChecklist.ResolutionsApplied).To(BeTrue())
		})

		It("recomputes statistics from scratch after a merge", func() {
			// Seed deliberately wrong statistics to prove they are not
			// carried over.
			checklist.Statistics = model.ChecklistStatistics{TotalPrompts: 99, RequirementsFound: 99, CoveragePercentage: 1}

			result, err := reconcile.Apply(checklist, comparison, []model.Resolution{
				{ConflictIndex: 0, Type: model.ResolutionTypeQuote},
			})
			Expect(err).ToNot(HaveOccurred())

			stats := result.UpdatedChecklist.Statistics
			Expect(stats).To(Equal(model.ChecklistStatistics{
				TotalPrompts:       6,
				RequirementsFound:  4,
				NoRequirements:     2,
				Errors:             0,
				CoveragePercentage: 67,
			}))
			Expect(stats.RequirementsFound + stats.NoRequirements + stats.Errors).To(Equal(stats.TotalPrompts))
		})

		DescribeTable("rejecting malformed payloads before any work is done",
			func(res model.Resolution, wantErr string) {
				_, err := reconcile.Apply(checklist, comparison, []model.Resolution{res})
				Expect(err).To(HaveOccurred())
				Expect(reconcile.IsValidationError(err)).To(BeTrue())
				Expect(err.Error()).To(ContainSubstring(wantErr))
			},
			Entry("unknown resolution type",
				model.Resolution{ConflictIndex: 0, Type: "vendor_wins"}, "unknown resolution type"),
			Entry("custom with empty text",
				model.Resolution{ConflictIndex: 0, Type: model.ResolutionTypeCustom}, "custom_text"),
			Entry("custom with whitespace-only text",
				model.Resolution{ConflictIndex: 0, Type: model.ResolutionTypeCustom, CustomText: "  "}, "custom_text"),
			Entry("negative conflict index",
				model.Resolution{ConflictIndex: -1, Type: model.ResolutionTypeQuote}, "out of range"),
			Entry("conflict index past the comparison",
				model.Resolution{ConflictIndex: 2, Type: model.ResolutionTypeQuote}, "out of range"),
		)

		It("rejects the whole batch when any resolution is malformed", func() {
			_, err := reconcile.Apply(checklist, comparison, []model.Resolution{
				{ConflictIndex: 0, Type: model.ResolutionTypeQuote},
				{ConflictIndex: 1, Type: model.ResolutionTypeCustom, CustomText: ""},
			})
			Expect(err).To(HaveOccurred())
			Expect(reconcile.IsValidationError(err)).To(BeTrue())

			Expect(checklist).To(Equal(buildChecklist()))
		})
	})
})
