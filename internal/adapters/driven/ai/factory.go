// Package ai creates the LLM service that writes vetting reports and
// tidies risk report text.
package ai

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	anthropicllm "github.com/custodia-labs/vetta/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/vetta/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/vetta/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/vetta/internal/config"
	"github.com/custodia-labs/vetta/internal/core/domain"
	"github.com/custodia-labs/vetta/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

const setupHint = "run 'vetta config set llm.provider <openai|anthropic|ollama>' and set the provider's API key"

// CreateLLMService creates the configured LLM service.
// Returns nil with no error when no provider is configured.
func CreateLLMService(settings config.LLMSettings) (driven.LLMService, error) {
	if !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case config.LLMOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
	case config.LLMAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
	case config.LLMOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil
	default:
		return nil, errors.Newf("unknown LLM provider: %s", settings.Provider)
	}
}

// CreateAndValidateLLMService creates an LLM service and checks it is reachable.
// Returns nil with no error when no provider is configured.
func CreateAndValidateLLMService(ctx context.Context, settings config.LLMSettings) (driven.LLMService, error) {
	svc, err := CreateLLMService(settings)
	if err != nil {
		return nil, errors.WithHint(errors.Mark(err, domain.ErrReportUnavailable), setupHint)
	}
	if svc == nil {
		return nil, nil
	}

	if err := ping(ctx, svc); err != nil {
		_ = svc.Close()
		return nil, errors.WithHint(
			errors.Mark(errors.Wrapf(err, "%s unreachable", settings.Provider), domain.ErrReportUnavailable),
			setupHint)
	}
	return svc, nil
}

// ValidateLLMConfig creates a service for settings and pings it, without keeping it.
func ValidateLLMConfig(ctx context.Context, settings config.LLMSettings) error {
	svc, err := CreateAndValidateLLMService(ctx, settings)
	if svc != nil {
		_ = svc.Close()
	}
	return err
}

func ping(ctx context.Context, svc driven.LLMService) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}
