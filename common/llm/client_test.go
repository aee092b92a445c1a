package llm_test

import (
	"context"
	"encoding/json"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/openai/openai-go"

	"planforge.app/anvil/common/llm"
)

type sampleSchema struct {
	Name  string `json:"name" jsonschema:"required,description=A name"`
	Count int    `json:"count" jsonschema:"required"`
}

var _ = Describe("GenerateSchema", func() {
	It("reflects struct fields into a flat object schema", func() {
		schema := llm.GenerateSchema[sampleSchema]()

		data, err := json.Marshal(schema)
		Expect(err).NotTo(HaveOccurred())

		var m map[string]any
		Expect(json.Unmarshal(data, &m)).To(Succeed())
		Expect(m["type"]).To(Equal("object"))

		props, ok := m["properties"].(map[string]any)
		Expect(ok).To(BeTrue())
		Expect(props).To(HaveKey("name"))
		Expect(props).To(HaveKey("count"))
	})

	It("disallows additional properties for strict mode", func() {
		schema := llm.GenerateSchema[sampleSchema]()

		data, err := json.Marshal(schema)
		Expect(err).NotTo(HaveOccurred())

		var m map[string]any
		Expect(json.Unmarshal(data, &m)).To(Succeed())
		Expect(m["additionalProperties"]).To(Equal(false))
	})
})

var _ = Describe("IsRetryable", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	DescribeTable("classifies errors",
		func(err error, want bool) {
			Expect(llm.IsRetryable(ctx, err)).To(Equal(want))
		},
		Entry("nil error", nil, false),
		Entry("context cancelled", context.Canceled, false),
		Entry("deadline exceeded", context.DeadlineExceeded, false),
		Entry("wrapped cancellation", fmt.Errorf("calling llm: %w", context.Canceled), false),
		Entry("rate limited", &openai.Error{StatusCode: 429}, true),
		Entry("server error", &openai.Error{StatusCode: 503}, true),
		Entry("bad request", &openai.Error{StatusCode: 400}, false),
		Entry("unauthorized", &openai.Error{StatusCode: 401}, false),
		Entry("plain network error", fmt.Errorf("connection refused"), true),
	)
})

var _ = Describe("New", func() {
	It("rejects a missing API key", func() {
		_, err := llm.New(llm.Config{Provider: llm.ProviderOpenAI})
		Expect(err).To(HaveOccurred())
	})

	It("rejects an unknown provider", func() {
		_, err := llm.New(llm.Config{Provider: "cohere", APIKey: "key"})
		Expect(err).To(MatchError(ContainSubstring("unsupported LLM provider")))
	})

	It("defaults to OpenAI", func() {
		client, err := llm.New(llm.Config{APIKey: "key", Model: "gpt-5.2"})
		Expect(err).NotTo(HaveOccurred())
		Expect(client.Model()).To(Equal("gpt-5.2"))
	})

	It("builds an Anthropic client when configured", func() {
		client, err := llm.New(llm.Config{Provider: llm.ProviderAnthropic, APIKey: "key"})
		Expect(err).NotTo(HaveOccurred())
		Expect(client.Model()).To(Equal("claude-sonnet-4-5-20250514"))
	})
})
