package drafter_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"planforge.app/anvil/common/llm"
	"planforge.app/anvil/internal/drafter"
	"planforge.app/anvil/internal/model"
)

func promptCount() int {
	n := 0
	for _, c := range drafter.Catalog() {
		n += len(c.Prompts)
	}
	return n
}

var _ = Describe("ChecklistGenerator", func() {
	var (
		generator drafter.ChecklistGenerator
		mockLLM   *mockLLMClient
		ctx       context.Context
		docs      []model.Document
	)

	BeforeEach(func() {
		ctx = context.Background()
		mockLLM = &mockLLMClient{}
		generator = drafter.NewChecklistGenerator(mockLLM)
		docs = []model.Document{
			{ID: 11, Title: "Machining Spec Rev C", Kind: model.DocumentKindCustomerSpec, Content: "All parts 6061-T6 per AMS 4027. Bore diameter held to ±0.005 mm."},
		}
	})

	It("requires at least one document", func() {
		_, err := generator.Generate(ctx, nil)
		Expect(err).To(HaveOccurred())
		Expect(mockLLM.callCount).To(Equal(0))
	})

	It("assembles a checklist from the catalog and the model's answers", func() {
		mockLLM.chatFn = respondWith(map[string]any{
			"answers": []map[string]any{
				{"prompt_id": "materials-alloy", "answer": "6061-T6 aluminum per AMS 4027", "status": "requirement_found", "source": "Machining Spec Rev C"},
				{"prompt_id": "tolerances-critical", "answer": "Bore diameter held to ±0.005 mm", "status": "requirement_found", "source": "Machining Spec Rev C"},
				{"prompt_id": "materials-certs", "answer": "", "status": "no_requirement", "source": ""},
			},
		})

		checklist, err := generator.Generate(ctx, docs)
		Expect(err).NotTo(HaveOccurred())

		Expect(checklist.Categories).To(HaveLen(len(drafter.Catalog())))
		Expect(checklist.Categories[0].Name).To(Equal("Materials"))

		alloy := checklist.Categories[0].Items[0]
		Expect(alloy.PromptID).To(Equal("materials-alloy"))
		Expect(alloy.Status).To(Equal(model.ItemStatusRequirementFound))
		Expect(alloy.Answer).To(Equal("6061-T6 aluminum per AMS 4027"))
		Expect(alloy.Source).To(Equal("Machining Spec Rev C"))

		certs := checklist.Categories[0].Items[1]
		Expect(certs.Status).To(Equal(model.ItemStatusNoRequirement))
		Expect(certs.Answer).To(BeEmpty())
	})

	It("marks prompts the model skipped as errors", func() {
		mockLLM.chatFn = respondWith(map[string]any{
			"answers": []map[string]any{
				{"prompt_id": "materials-alloy", "answer": "6061-T6", "status": "requirement_found", "source": "spec"},
			},
		})

		checklist, err := generator.Generate(ctx, docs)
		Expect(err).NotTo(HaveOccurred())

		stats := checklist.Statistics
		Expect(stats.TotalPrompts).To(Equal(promptCount()))
		Expect(stats.RequirementsFound).To(Equal(1))
		Expect(stats.Errors).To(Equal(promptCount() - 1))
		Expect(stats.RequirementsFound + stats.NoRequirements + stats.Errors).To(Equal(stats.TotalPrompts))
	})

	It("demotes a found requirement with no answer text to an error", func() {
		mockLLM.chatFn = respondWith(map[string]any{
			"answers": []map[string]any{
				{"prompt_id": "materials-alloy", "answer": "   ", "status": "requirement_found", "source": "spec"},
			},
		})

		checklist, err := generator.Generate(ctx, docs)
		Expect(err).NotTo(HaveOccurred())
		Expect(checklist.Categories[0].Items[0].Status).To(Equal(model.ItemStatusError))
	})

	It("computes statistics that match the assembled items", func() {
		answers := make([]map[string]any, 0, promptCount())
		for _, category := range drafter.Catalog() {
			for _, p := range category.Prompts {
				answers = append(answers, map[string]any{
					"prompt_id": p.ID, "answer": "stated requirement", "status": "requirement_found", "source": "spec",
				})
			}
		}
		mockLLM.chatFn = respondWith(map[string]any{"answers": answers})

		checklist, err := generator.Generate(ctx, docs)
		Expect(err).NotTo(HaveOccurred())
		Expect(checklist.Statistics.RequirementsFound).To(Equal(promptCount()))
		Expect(checklist.Statistics.CoveragePercentage).To(Equal(100))
	})

	It("sends the catalog prompts and document content to the model", func() {
		mockLLM.chatFn = respondWith(map[string]any{"answers": []map[string]any{}})

		_, err := generator.Generate(ctx, docs)
		Expect(err).NotTo(HaveOccurred())

		Expect(mockLLM.lastReq.UserPrompt).To(ContainSubstring("materials-alloy"))
		Expect(mockLLM.lastReq.UserPrompt).To(ContainSubstring("Machining Spec Rev C"))
		Expect(mockLLM.lastReq.SchemaName).To(Equal("checklist_response"))
	})

	It("does not retry a non-retryable error", func() {
		mockLLM.chatFn = func(_ context.Context, _ llm.Request, _ any) (*llm.Response, error) {
			return nil, context.Canceled
		}

		_, err := generator.Generate(ctx, docs)
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		Expect(mockLLM.callCount).To(Equal(1))
	})

	It("retries a transient error and succeeds", func() {
		attempts := 0
		mockLLM.chatFn = func(_ context.Context, _ llm.Request, result any) (*llm.Response, error) {
			attempts++
			if attempts < 2 {
				return nil, errors.New("connection refused")
			}
			return respondWith(map[string]any{"answers": []map[string]any{}})(ctx, llm.Request{}, result)
		}

		_, err := generator.Generate(ctx, docs)
		Expect(err).NotTo(HaveOccurred())
		Expect(mockLLM.callCount).To(Equal(2))
	})
})
