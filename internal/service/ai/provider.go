package ai

import (
	"context"
	"fmt"
	"sync"

	llmprovider "github.com/haowjy/meridian-llm-go"
	"github.com/haowjy/meridian-llm-go/providers/anthropic"
	"github.com/haowjy/meridian-llm-go/providers/lorem"
	"github.com/haowjy/meridian-llm-go/providers/openrouter"

	"essaycoach/internal/config"
)

// Generator is the part of a provider the collaborator uses
type Generator interface {
	GenerateResponse(ctx context.Context, req *llmprovider.GenerateRequest) (*llmprovider.GenerateResponse, error)
}

// ProviderGetter resolves a provider name to a Generator
type ProviderGetter interface {
	GetProvider(name string) (Generator, error)
}

// ProviderFactory creates provider instances on first use and reuses them
type ProviderFactory struct {
	config *config.Config

	mu        sync.Mutex
	providers map[string]llmprovider.Provider
}

// NewProviderFactory creates a new provider factory
func NewProviderFactory(cfg *config.Config) *ProviderFactory {
	return &ProviderFactory{
		config:    cfg,
		providers: make(map[string]llmprovider.Provider),
	}
}

// GetProvider returns a provider instance for the given provider name
//
// Supported providers:
//   - "anthropic" - Claude models via Anthropic API
//   - "openrouter" - Multiple vendors via OpenRouter
//   - "lorem" - Mock provider for testing (no API key required)
func (f *ProviderFactory) GetProvider(providerName string) (Generator, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if p, ok := f.providers[providerName]; ok {
		return p, nil
	}

	var (
		p   llmprovider.Provider
		err error
	)
	switch providerName {
	case "anthropic":
		p, err = f.createAnthropicProvider()
	case "openrouter":
		p, err = f.createOpenRouterProvider()
	case "lorem":
		p = lorem.NewProvider()
	default:
		return nil, fmt.Errorf("unsupported provider: %s", providerName)
	}
	if err != nil {
		return nil, err
	}

	f.providers[providerName] = p
	return p, nil
}

func (f *ProviderFactory) createAnthropicProvider() (llmprovider.Provider, error) {
	if f.config.AnthropicAPIKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
	}

	provider, err := anthropic.NewProvider(f.config.AnthropicAPIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create Anthropic provider: %w", err)
	}
	return provider, nil
}

func (f *ProviderFactory) createOpenRouterProvider() (llmprovider.Provider, error) {
	if f.config.OpenRouterAPIKey == "" {
		return nil, fmt.Errorf("OPENROUTER_API_KEY environment variable not set")
	}

	provider, err := openrouter.NewProvider(f.config.OpenRouterAPIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenRouter provider: %w", err)
	}
	return provider, nil
}
