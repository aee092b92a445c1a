package llm

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"planforge.app/anvil/common/logger"
)

// tracingClient decorates a provider client with one span per completion,
// so drafting latency shows up under the request that triggered it.
type tracingClient struct {
	inner Client
}

func withTracing(c Client) Client {
	return &tracingClient{inner: c}
}

func (t *tracingClient) Chat(ctx context.Context, req Request, result any) (*Response, error) {
	sc := logger.StartSpan(ctx, "llm.chat",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("llm.model", t.inner.Model()),
			attribute.String("llm.schema", req.SchemaName),
		))
	defer sc.End()

	resp, err := t.inner.Chat(sc.Context(), req, result)
	if err != nil {
		sc.RecordError(err)
		return nil, err
	}
	sc.Span().SetAttributes(
		attribute.Int("llm.prompt_tokens", resp.PromptTokens),
		attribute.Int("llm.completion_tokens", resp.CompletionTokens),
	)
	return resp, nil
}

func (t *tracingClient) Model() string {
	return t.inner.Model()
}
