package worker_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"planforge.app/anvil/internal/worker"
)

var _ = Describe("RenderChecklistPage", func() {
	It("renders categories, items and the merge summary", func() {
		page := worker.RenderChecklistPage("Bracket Run", mergedChecklist(), mergedSession())

		Expect(page).To(ContainSubstring("<h2>Materials</h2>"))
		Expect(page).To(ContainSubstring("What alloy is required?"))
		Expect(page).To(ContainSubstring("6061-T651 aluminum plate"))
		Expect(page).To(ContainSubstring("Requirement found"))
		Expect(page).To(ContainSubstring("Vendor quote"))
		Expect(page).To(ContainSubstring("Reconciliation Summary"))
		Expect(page).To(ContainSubstring("<li>Quote accepted: 1</li>"))
		Expect(page).To(ContainSubstring("Open Action Items"))
		Expect(page).To(ContainSubstring("Confirm alloy substitution with customer"))
	})

	It("includes the merge date and coverage", func() {
		page := worker.RenderChecklistPage("Bracket Run", mergedChecklist(), mergedSession())

		Expect(page).To(ContainSubstring("2026-08-20"))
		Expect(page).To(ContainSubstring("100% coverage"))
	})

	It("escapes markup in checklist content", func() {
		checklist := mergedChecklist()
		checklist.Categories[0].Items[0].Answer = `Tolerance <0.01" & deburr all edges`

		page := worker.RenderChecklistPage("Bracket Run", checklist, mergedSession())

		Expect(page).To(ContainSubstring("Tolerance &lt;0.01&#34; &amp; deburr all edges"))
		Expect(page).NotTo(ContainSubstring(`<0.01"`))
	})
})

var _ = Describe("RenderPageTitle", func() {
	It("builds a stable per project title", func() {
		Expect(worker.RenderPageTitle("Bracket Run")).To(Equal("Requirements Checklist: Bracket Run"))
	})
})
