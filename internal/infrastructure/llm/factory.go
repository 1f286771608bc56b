// Package llm provides reasoning-provider adapters. The backend is selected
// once at startup via configuration; business logic depends only on
// port.ReasoningProvider and never branches on vendor identity.
package llm

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/clearclaim/claims-engine/internal/application/port"
)

// Provider identifiers accepted in configuration.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Config selects and parameterizes a reasoning backend.
type Config struct {
	Provider  string
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	// Timeout caps each call regardless of the caller's context. Zero means
	// the caller's deadline alone applies.
	Timeout time.Duration
}

// NewProvider builds the configured reasoning provider.
func NewProvider(cfg Config, logger *zap.Logger) (port.ReasoningProvider, error) {
	var provider port.ReasoningProvider

	switch cfg.Provider {
	case ProviderOpenAI, "":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("llm.api_key is required for the openai provider")
		}
		provider = NewOpenAIProvider(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.MaxTokens, logger)
	case ProviderOllama:
		provider = NewOllamaProvider(cfg.BaseURL, cfg.Model, cfg.MaxTokens, logger)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}

	if cfg.Timeout > 0 {
		provider = &timeoutProvider{inner: provider, timeout: cfg.Timeout}
	}
	return provider, nil
}

// timeoutProvider bounds every call with its own deadline so a hung backend
// cannot hold a request slot for longer than configured.
type timeoutProvider struct {
	inner   port.ReasoningProvider
	timeout time.Duration
}

func (p *timeoutProvider) Generate(ctx context.Context, req port.GenerateRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.inner.Generate(ctx, req)
}

func (p *timeoutProvider) GenerateWithImage(ctx context.Context, req port.GenerateRequest, image []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.inner.GenerateWithImage(ctx, req, image)
}

func (p *timeoutProvider) ModelName() string {
	return p.inner.ModelName()
}
