package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// NewClientFromConfig builds the client for cfg.Provider and wraps it in an
// InstrumentedClient. An unavailable or broken configuration never fails
// startup: it yields a DisabledClient and a warning.
func NewClientFromConfig(ctx context.Context, cfg *Config, logger *zap.Logger) LLMClient {
	logger = logger.Named("llm")

	if reason := cfg.UnavailableReason(); reason != "" {
		logger.Warn("Model client disabled", zap.String("reason", reason))
		return &DisabledClient{Reason: reason}
	}

	client, err := newProviderClient(ctx, cfg, logger)
	if err != nil {
		logger.Warn("Model client disabled", zap.Error(err))
		return &DisabledClient{Reason: err.Error()}
	}

	logger.Info("Model client ready",
		zap.String("provider", cfg.ProviderName()),
		zap.String("model", client.GetModel()))

	return NewInstrumentedClient(client, cfg.ProviderName(), logger)
}

func newProviderClient(ctx context.Context, cfg *Config, logger *zap.Logger) (LLMClient, error) {
	switch cfg.ProviderName() {
	case ProviderOpenAI:
		return NewClient(cfg, logger)
	case ProviderAnthropic:
		return NewAnthropicClient(cfg, logger)
	case ProviderGemini:
		return NewGeminiClient(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
