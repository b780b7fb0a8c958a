package llm

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-askdb/pkg/metrics"
	"github.com/ekaya-inc/ekaya-askdb/pkg/telemetry"
)

// InstrumentedClient records a span and metrics around every call.
type InstrumentedClient struct {
	inner    LLMClient
	provider string
	logger   *zap.Logger
}

func NewInstrumentedClient(inner LLMClient, provider string, logger *zap.Logger) *InstrumentedClient {
	return &InstrumentedClient{inner: inner, provider: provider, logger: logger}
}

func (c *InstrumentedClient) GenerateResponse(
	ctx context.Context,
	prompt string,
	systemMessage string,
	temperature float64,
) (*GenerateResponseResult, error) {
	purpose := PurposeFromContext(ctx)

	ctx, span := telemetry.StartSpan(ctx, "llm.generate")
	defer span.End()
	span.SetAttributes(
		telemetry.AttrProvider.String(c.provider),
		telemetry.AttrModel.String(c.inner.GetModel()),
		telemetry.AttrPurpose.String(purpose),
	)

	start := time.Now()
	result, err := c.inner.GenerateResponse(ctx, prompt, systemMessage, temperature)
	elapsed := time.Since(start)

	if err != nil {
		telemetry.RecordError(span, err)
		metrics.ObserveLLMRequest(c.provider, purpose, elapsed, 0, 0, err)
		return nil, err
	}

	span.SetAttributes(
		telemetry.AttrTokensIn.Int(result.PromptTokens),
		telemetry.AttrTokensOut.Int(result.CompletionTokens),
	)
	metrics.ObserveLLMRequest(c.provider, purpose, elapsed, result.PromptTokens, result.CompletionTokens, nil)

	c.logger.Debug("Model call",
		zap.String("purpose", purpose),
		zap.Duration("elapsed", elapsed),
		zap.Int("reply_len", len(result.Content)))

	return result, nil
}

func (c *InstrumentedClient) GetModel() string {
	return c.inner.GetModel()
}

func (c *InstrumentedClient) GetEndpoint() string {
	return c.inner.GetEndpoint()
}

// Unwrap returns the decorated client.
func (c *InstrumentedClient) Unwrap() LLMClient {
	return c.inner
}
