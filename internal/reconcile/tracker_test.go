package reconcile_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"planforge.app/anvil/internal/model"
	"planforge.app/anvil/internal/reconcile"
)

var _ = Describe("Resolution Tracker", func() {
	Describe("Record", func() {
		var tracker *reconcile.Tracker

		BeforeEach(func() {
			tracker = reconcile.NewTracker(3)
		})

		It("records a valid resolution", func() {
			err := tracker.Record(model.Resolution{ConflictIndex: 0, Type: model.ResolutionTypeQuote})
			Expect(err).ToNot(HaveOccurred())
			Expect(tracker.Progress().ResolvedCount).To(Equal(1))
		})

		It("keeps the later payload when the same index is recorded twice", func() {
			Expect(tracker.Record(model.Resolution{ConflictIndex: 1, Type: model.ResolutionTypeQuote})).To(Succeed())
			Expect(tracker.Record(model.Resolution{ConflictIndex: 1, Type: model.ResolutionTypeCustom, CustomText: "use 6061-T6"})).To(Succeed())

			Expect(tracker.Progress().ResolvedCount).To(Equal(1))
			resolutions := tracker.Resolutions()
			Expect(resolutions).To(HaveLen(1))
			Expect(resolutions[0].Type).To(Equal(model.ResolutionTypeCustom))
			Expect(resolutions[0].CustomText).To(Equal("use 6061-T6"))
		})

		It("leaves state untouched when a payload is rejected", func() {
			Expect(tracker.Record(model.Resolution{ConflictIndex: 0, Type: model.ResolutionTypeQuote})).To(Succeed())

			err := tracker.Record(model.Resolution{ConflictIndex: 1, Type: model.ResolutionTypeCustom, CustomText: "   "})
			Expect(err).To(HaveOccurred())
			Expect(reconcile.IsValidationError(err)).To(BeTrue())

			Expect(tracker.Progress().ResolvedCount).To(Equal(1))
			Expect(tracker.Resolutions()).To(HaveLen(1))
		})

		It("returns resolutions ordered by conflict index", func() {
			Expect(tracker.Record(model.Resolution{ConflictIndex: 2, Type: model.ResolutionTypeQuote})).To(Succeed())
			Expect(tracker.Record(model.Resolution{ConflictIndex: 0, Type: model.ResolutionTypeCustomerSpec})).To(Succeed())

			resolutions := tracker.Resolutions()
			Expect(resolutions).To(HaveLen(2))
			Expect(resolutions[0].ConflictIndex).To(Equal(0))
			Expect(resolutions[1].ConflictIndex).To(Equal(2))
		})

		DescribeTable("payload validation",
			func(res model.Resolution, wantErr string) {
				err := tracker.Record(res)
				if wantErr == "" {
					Expect(err).ToNot(HaveOccurred())
					return
				}
				Expect(err).To(HaveOccurred())
				Expect(reconcile.IsValidationError(err)).To(BeTrue())
				Expect(err.Error()).To(ContainSubstring(wantErr))
			},
			Entry("customer_spec needs no extra fields",
				model.Resolution{ConflictIndex: 0, Type: model.ResolutionTypeCustomerSpec}, ""),
			Entry("quote needs no extra fields",
				model.Resolution{ConflictIndex: 0, Type: model.ResolutionTypeQuote}, ""),
			Entry("ai_suggestion needs no extra fields",
				model.Resolution{ConflictIndex: 0, Type: model.ResolutionTypeAISuggestion}, ""),
			Entry("custom with text is accepted",
				model.Resolution{ConflictIndex: 0, Type: model.ResolutionTypeCustom, CustomText: "split the difference"}, ""),
			Entry("action_item with a title is accepted",
				model.Resolution{ConflictIndex: 0, Type: model.ResolutionTypeActionItem, ActionItem: &model.ActionItem{Title: "Clarify: Tolerances"}}, ""),
			Entry("negative index is rejected",
				model.Resolution{ConflictIndex: -1, Type: model.ResolutionTypeQuote}, "out of range"),
			Entry("index past the conflict count is rejected",
				model.Resolution{ConflictIndex: 3, Type: model.ResolutionTypeQuote}, "out of range"),
			Entry("unknown resolution type is rejected",
				model.Resolution{ConflictIndex: 0, Type: "coin_flip"}, "unknown resolution type"),
			Entry("custom with empty text is rejected",
				model.Resolution{ConflictIndex: 0, Type: model.ResolutionTypeCustom}, "custom_text"),
			Entry("custom with whitespace-only text is rejected",
				model.Resolution{ConflictIndex: 0, Type: model.ResolutionTypeCustom, CustomText: " \t "}, "custom_text"),
			Entry("action_item without payload is rejected",
				model.Resolution{ConflictIndex: 0, Type: model.ResolutionTypeActionItem}, "action item"),
			Entry("action_item with empty title is rejected",
				model.Resolution{ConflictIndex: 0, Type: model.ResolutionTypeActionItem, ActionItem: &model.ActionItem{Title: "  "}}, "title"),
		)
	})

	Describe("Progress", func() {
		It("starts at zero with conflicts outstanding", func() {
			tracker := reconcile.NewTracker(4)

			progress := tracker.Progress()
			Expect(progress.ResolvedCount).To(Equal(0))
			Expect(progress.TotalConflicts).To(Equal(4))
			Expect(progress.Percentage).To(Equal(0))
			Expect(progress.AllResolved).To(BeFalse())
		})

		It("rounds the percentage to the nearest integer", func() {
			tracker := reconcile.NewTracker(3)
			Expect(tracker.Record(model.Resolution{ConflictIndex: 0, Type: model.ResolutionTypeQuote})).To(Succeed())

			Expect(tracker.Progress().Percentage).To(Equal(33))

			Expect(tracker.Record(model.Resolution{ConflictIndex: 1, Type: model.ResolutionTypeQuote})).To(Succeed())
			Expect(tracker.Progress().Percentage).To(Equal(67))
		})

		It("reports 100 percent when there are no conflicts", func() {
			tracker := reconcile.NewTracker(0)

			progress := tracker.Progress()
			Expect(progress.Percentage).To(Equal(100))
			Expect(progress.AllResolved).To(BeFalse())
		})

		It("flips allResolved only when every index is covered", func() {
			tracker := reconcile.NewTracker(2)
			Expect(tracker.Record(model.Resolution{ConflictIndex: 0, Type: model.ResolutionTypeQuote})).To(Succeed())
			Expect(tracker.Progress().AllResolved).To(BeFalse())

			Expect(tracker.Record(model.Resolution{ConflictIndex: 1, Type: model.ResolutionTypeCustomerSpec})).To(Succeed())

			progress := tracker.Progress()
			Expect(progress.AllResolved).To(BeTrue())
			Expect(progress.Percentage).To(Equal(100))
		})
	})

	Describe("IsComplete", func() {
		It("is true for a conflict-free comparison", func() {
			Expect(reconcile.NewTracker(0).IsComplete()).To(BeTrue())
		})

		It("tracks the resolved count exactly", func() {
			tracker := reconcile.NewTracker(2)
			Expect(tracker.IsComplete()).To(BeFalse())

			Expect(tracker.Record(model.Resolution{ConflictIndex: 0, Type: model.ResolutionTypeQuote})).To(Succeed())
			Expect(tracker.IsComplete()).To(BeFalse())

			Expect(tracker.Record(model.Resolution{ConflictIndex: 1, Type: model.ResolutionTypeQuote})).To(Succeed())
			Expect(tracker.IsComplete()).To(BeTrue())
		})
	})

	Describe("NewTrackerFromSession", func() {
		It("replays persisted resolutions", func() {
			session := &model.ReconciliationSession{
				Comparison: &model.ComparisonResult{
					Conflicts: []model.Conflict{{Category: "Materials"}, {Category: "Finish"}},
				},
				Resolutions: []model.Resolution{
					{ConflictIndex: 1, Type: model.ResolutionTypeQuote},
				},
			}

			tracker := reconcile.NewTrackerFromSession(session)
			progress := tracker.Progress()
			Expect(progress.TotalConflicts).To(Equal(2))
			Expect(progress.ResolvedCount).To(Equal(1))
		})

		It("drops persisted entries that no longer fit the comparison", func() {
			session := &model.ReconciliationSession{
				Comparison: &model.ComparisonResult{
					Conflicts: []model.Conflict{{Category: "Materials"}},
				},
				Resolutions: []model.Resolution{
					{ConflictIndex: 0, Type: model.ResolutionTypeQuote},
					{ConflictIndex: 5, Type: model.ResolutionTypeQuote},
				},
			}

			tracker := reconcile.NewTrackerFromSession(session)
			Expect(tracker.Progress().ResolvedCount).To(Equal(1))
		})
	})
})
