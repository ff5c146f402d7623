package providers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"vibegen/pkg/ai"
	"vibegen/pkg/config"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/ssestream"
)

const (
	openAIDefaultAPIURL      = "https://api.openai.com/v1"
	openAIDefaultModel       = "gpt-4o"
	openAIDefaultTimeout     = 30
	openRouterDefaultAPIURL  = "https://openrouter.ai/api/v1"
	openRouterDefaultTimeout = 30
)

func init() {
	ai.RegisterProvider(ai.ProviderInfo{
		Type:        ai.ProviderOpenRouter,
		Name:        "OpenRouter",
		Description: "Hosted models through the OpenRouter chat completions API",
		AuthMethod:  "api_key",
		RequiresKey: true,
	}, NewOpenRouterProvider)

	ai.RegisterProvider(ai.ProviderInfo{
		Type:        ai.ProviderOpenAI,
		Name:        "OpenAI",
		Description: "Direct OpenAI chat completions API access",
		AuthMethod:  "api_key",
		RequiresKey: true,
	}, NewOpenAIProvider)
}

// ChatCompletionsProvider talks to any OpenAI-compatible chat completions API.
// OpenRouter and OpenAI share it and differ only in base URL and headers.
type ChatCompletionsProvider struct {
	name     string
	client   openai.Client
	defaults defaults
}

type chatCompletionsOptions struct {
	name    string
	apiKey  string
	apiURL  string
	headers map[string]string
	defaults
}

// NewOpenRouterProvider creates an OpenRouter-backed provider from config.
func NewOpenRouterProvider(cfg ai.ProviderConfig) (ai.Provider, error) {
	orCfg := cfg.Config.Providers.OpenRouter
	httpClient := newHTTPClient(timeoutOrDefault(orCfg.APITimeoutSeconds, openRouterDefaultTimeout))
	return newOpenRouterProviderWithHTTPClient(orCfg, httpClient)
}

func newOpenRouterProviderWithHTTPClient(cfg config.OpenRouterConfig, httpClient *http.Client) (*ChatCompletionsProvider, error) {
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("openrouter model is required")
	}
	headers := map[string]string{}
	if strings.TrimSpace(cfg.HTTPReferer) != "" {
		headers["HTTP-Referer"] = cfg.HTTPReferer
	}
	if strings.TrimSpace(cfg.XTitle) != "" {
		headers["X-Title"] = cfg.XTitle
	}
	return newChatCompletionsProvider(chatCompletionsOptions{
		name:    string(ai.ProviderOpenRouter),
		apiKey:  cfg.APIKey,
		apiURL:  orDefault(cfg.APIURL, openRouterDefaultAPIURL),
		headers: headers,
		defaults: defaults{
			model:       cfg.Model,
			temperature: cfg.Temperature,
			maxTokens:   cfg.MaxTokens,
		},
	}, httpClient)
}

// NewOpenAIProvider creates an OpenAI-backed provider from config.
func NewOpenAIProvider(cfg ai.ProviderConfig) (ai.Provider, error) {
	pc := cfg.Config.Providers.OpenAI
	httpClient := newHTTPClient(timeoutOrDefault(pc.APITimeoutSeconds, openAIDefaultTimeout))
	return newOpenAIProviderWithHTTPClient(pc, httpClient)
}

func newOpenAIProviderWithHTTPClient(cfg config.ProviderConfig, httpClient *http.Client) (*ChatCompletionsProvider, error) {
	return newChatCompletionsProvider(chatCompletionsOptions{
		name:   string(ai.ProviderOpenAI),
		apiKey: cfg.APIKey,
		apiURL: orDefault(cfg.APIURL, openAIDefaultAPIURL),
		defaults: defaults{
			model:       orDefault(cfg.Model, openAIDefaultModel),
			temperature: cfg.Temperature,
			maxTokens:   cfg.MaxTokens,
		},
	}, httpClient)
}

func newChatCompletionsProvider(opts chatCompletionsOptions, httpClient *http.Client) (*ChatCompletionsProvider, error) {
	if strings.TrimSpace(opts.apiKey) == "" {
		slog.Debug("chat_provider_missing_key", "provider", opts.name)
		return nil, fmt.Errorf("%s api_key is required", opts.name)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.apiKey),
		option.WithBaseURL(opts.apiURL),
		option.WithHTTPClient(httpClient),
	}
	for key, value := range opts.headers {
		reqOpts = append(reqOpts, option.WithHeader(key, value))
	}

	slog.Debug("chat_provider_ready",
		"provider", opts.name,
		"api_url", opts.apiURL,
		"model", opts.model,
	)
	return &ChatCompletionsProvider{
		name:     opts.name,
		client:   openai.NewClient(reqOpts...),
		defaults: opts.defaults,
	}, nil
}

// CreateChatCompletion sends a non-streaming chat completion request.
func (p *ChatCompletionsProvider) CreateChatCompletion(ctx context.Context, req ai.ChatRequest) (ai.ChatResponse, error) {
	params, err := p.buildParams(req)
	if err != nil {
		return ai.ChatResponse{}, err
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return ai.ChatResponse{}, err
	}

	var content string
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}
	return ai.ChatResponse{Content: content, Model: resp.Model}, nil
}

// CreateChatCompletionStream sends a streaming chat completion request.
func (p *ChatCompletionsProvider) CreateChatCompletionStream(ctx context.Context, req ai.ChatRequest) (ai.ChatStream, error) {
	params, err := p.buildParams(req)
	if err != nil {
		return nil, err
	}

	slog.Debug("chat_stream_request",
		"provider", p.name,
		"model", string(params.Model),
		"message_count", len(req.Messages),
	)
	stream := p.client.Chat.Completions.NewStreaming(ctx, params)
	if err := stream.Err(); err != nil {
		stream.Close()
		return nil, err
	}
	return &chunkStream{stream: stream}, nil
}

func (p *ChatCompletionsProvider) buildParams(req ai.ChatRequest) (openai.ChatCompletionNewParams, error) {
	model := p.defaults.pickModel(req.Model)
	if model == "" {
		return openai.ChatCompletionNewParams{}, fmt.Errorf("model is required")
	}
	if len(req.Messages) == 0 {
		return openai.ChatCompletionNewParams{}, errNoMessages
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, msg := range req.Messages {
		param, err := toChatMessageParam(msg)
		if err != nil {
			return openai.ChatCompletionNewParams{}, err
		}
		messages = append(messages, param)
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: messages,
	}

	s := p.defaults.sampling(req)
	params.Temperature = openai.Float(s.temperature)
	if s.maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(s.maxTokens))
	}
	return params, nil
}

func toChatMessageParam(msg ai.Message) (openai.ChatCompletionMessageParamUnion, error) {
	switch normalizeRole(msg.Role) {
	case ai.RoleSystem:
		return openai.SystemMessage(msg.Content), nil
	case ai.RoleDeveloper:
		return openai.DeveloperMessage(msg.Content), nil
	case ai.RoleUser:
		return openai.UserMessage(msg.Content), nil
	case ai.RoleAssistant:
		return openai.AssistantMessage(msg.Content), nil
	}
	return openai.ChatCompletionMessageParamUnion{}, fmt.Errorf("unsupported role: %s", msg.Role)
}

// chunkStream adapts an SSE stream of completion chunks to ai.ChatStream.
type chunkStream struct {
	stream *ssestream.Stream[openai.ChatCompletionChunk]
}

func (s *chunkStream) Next() bool {
	return s.stream.Next()
}

func (s *chunkStream) Content() string {
	chunk := s.stream.Current()
	if len(chunk.Choices) == 0 {
		return ""
	}
	return chunk.Choices[0].Delta.Content
}

func (s *chunkStream) Err() error {
	return s.stream.Err()
}

func (s *chunkStream) Close() error {
	return s.stream.Close()
}

var _ ai.Provider = (*ChatCompletionsProvider)(nil)
