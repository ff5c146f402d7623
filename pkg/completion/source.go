// Package completion streams generated suggestions from a completion source
// and tracks the single in-flight request.
package completion

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"vibegen/pkg/ai"
	"vibegen/pkg/config"
	"vibegen/pkg/logging"
)

// Request is the form payload sent for one generation.
type Request struct {
	Name string  `json:"name"`
	Vibe ai.Vibe `json:"vibe"`
	Bio  string  `json:"bio"`
}

// Source opens a text stream for a request.
type Source interface {
	Stream(ctx context.Context, req Request) (ai.ChatStream, error)
}

// ProviderSource prompts an LLM provider directly.
type ProviderSource struct {
	Provider ai.Provider
}

// Stream builds the bio prompt and starts a provider stream.
func (s ProviderSource) Stream(ctx context.Context, req Request) (ai.ChatStream, error) {
	msgs := ai.BuildBioMessages(req.Name, req.Vibe, req.Bio)
	slog.Log(ctx, logging.LevelTrace, "completion_prompt",
		"vibe", string(req.Vibe),
		"user_prompt", msgs[len(msgs)-1].Content,
	)
	return s.Provider.CreateChatCompletionStream(ctx, ai.ChatRequest{Messages: msgs})
}

// NewSource picks the endpoint source or a registered provider according to
// cfg.LLMProvider.
func NewSource(cfg config.Config) (Source, error) {
	if cfg.LLMProvider == config.ProviderEndpoint {
		timeout := time.Duration(cfg.Endpoint.APITimeoutSeconds) * time.Second
		return NewEndpointSource(cfg.Endpoint.URL, timeout), nil
	}

	provider, err := ai.GetProviderFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("create %s provider: %w", cfg.LLMProvider, err)
	}
	return ProviderSource{Provider: provider}, nil
}
