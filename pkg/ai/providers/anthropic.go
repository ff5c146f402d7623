package providers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"vibegen/pkg/ai"
	"vibegen/pkg/config"
)

const (
	anthropicDefaultAPIURL    = "https://api.anthropic.com/v1"
	anthropicDefaultModel     = "claude-3-5-sonnet-20241022"
	anthropicDefaultTimeout   = 60
	anthropicDefaultMaxTokens = 1024
	anthropicAPIVersion       = "2023-06-01"
)

func init() {
	ai.RegisterProvider(ai.ProviderInfo{
		Type:        ai.ProviderAnthropic,
		Name:        "Anthropic",
		Description: "Claude models through the Anthropic messages API",
		AuthMethod:  "api_key",
		RequiresKey: true,
	}, NewAnthropicProvider)
}

// AnthropicProvider speaks the Anthropic messages API over plain HTTP.
type AnthropicProvider struct {
	apiKey     string
	apiURL     string
	httpClient *http.Client
	defaults   defaults
}

// NewAnthropicProvider creates an Anthropic provider from config.
func NewAnthropicProvider(cfg ai.ProviderConfig) (ai.Provider, error) {
	pc := cfg.Config.Providers.Anthropic
	httpClient := newHTTPClient(timeoutOrDefault(pc.APITimeoutSeconds, anthropicDefaultTimeout))
	return newAnthropicProviderWithHTTPClient(pc, httpClient)
}

func newAnthropicProviderWithHTTPClient(cfg config.ProviderConfig, httpClient *http.Client) (*AnthropicProvider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("anthropic api_key is required")
	}
	return &AnthropicProvider{
		apiKey:     cfg.APIKey,
		apiURL:     strings.TrimRight(orDefault(cfg.APIURL, anthropicDefaultAPIURL), "/"),
		httpClient: httpClient,
		defaults: defaults{
			model:       orDefault(cfg.Model, anthropicDefaultModel),
			temperature: cfg.Temperature,
			maxTokens:   cfg.MaxTokens,
		},
	}, nil
}

type messagesRequest struct {
	Model       string        `json:"model"`
	Messages    []messageTurn `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature,omitempty"`
	System      string        `json:"system,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

type messageTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

type messagesEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// CreateChatCompletion sends a non-streaming messages request.
func (p *AnthropicProvider) CreateChatCompletion(ctx context.Context, req ai.ChatRequest) (ai.ChatResponse, error) {
	body, err := p.post(ctx, req, false)
	if err != nil {
		return ai.ChatResponse{}, err
	}
	defer body.Close()

	var resp messagesResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return ai.ChatResponse{}, fmt.Errorf("decode anthropic response: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return ai.ChatResponse{Content: sb.String(), Model: resp.Model}, nil
}

// CreateChatCompletionStream sends a streaming messages request.
func (p *AnthropicProvider) CreateChatCompletionStream(ctx context.Context, req ai.ChatRequest) (ai.ChatStream, error) {
	body, err := p.post(ctx, req, true)
	if err != nil {
		return nil, err
	}
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &messagesStream{scanner: scanner, body: body}, nil
}

func (p *AnthropicProvider) post(ctx context.Context, req ai.ChatRequest, stream bool) (io.ReadCloser, error) {
	payload, err := p.buildRequest(req, stream)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode anthropic request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL+"/messages", bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("create anthropic request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicAPIVersion)

	slog.Debug("anthropic_request", "model", payload.Model, "stream", stream, "message_count", len(payload.Messages))
	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("anthropic request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("anthropic API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return resp.Body, nil
}

func (p *AnthropicProvider) buildRequest(req ai.ChatRequest, stream bool) (messagesRequest, error) {
	model := p.defaults.pickModel(req.Model)
	if model == "" {
		return messagesRequest{}, fmt.Errorf("model is required")
	}
	if len(req.Messages) == 0 {
		return messagesRequest{}, errNoMessages
	}

	system, turns := splitInstructions(req.Messages)
	if len(turns) == 0 {
		return messagesRequest{}, fmt.Errorf("at least one user or assistant message is required")
	}

	out := make([]messageTurn, 0, len(turns))
	for _, msg := range turns {
		role := ai.RoleUser
		if normalizeRole(msg.Role) == ai.RoleAssistant {
			role = ai.RoleAssistant
		}
		out = append(out, messageTurn{Role: role, Content: msg.Content})
	}

	s := p.defaults.sampling(req)
	if s.maxTokens <= 0 {
		s.maxTokens = anthropicDefaultMaxTokens
	}

	return messagesRequest{
		Model:       model,
		Messages:    out,
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
		System:      system,
		Stream:      stream,
	}, nil
}

// messagesStream reads server-sent events and surfaces text deltas.
type messagesStream struct {
	scanner *bufio.Scanner
	body    io.ReadCloser
	current string
	err     error
	done    bool
}

func (s *messagesStream) Next() bool {
	for !s.done && s.scanner.Scan() {
		data, ok := strings.CutPrefix(strings.TrimSpace(s.scanner.Text()), "data:")
		if !ok {
			continue
		}
		data = strings.TrimSpace(data)
		if data == "[DONE]" {
			s.done = true
			break
		}

		var ev messagesEvent
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			slog.Debug("anthropic_stream_skip", "error", err)
			continue
		}
		switch ev.Type {
		case "content_block_delta":
			if ev.Delta.Type == "text_delta" && ev.Delta.Text != "" {
				s.current = ev.Delta.Text
				return true
			}
		case "error":
			msg := "stream error"
			if ev.Error != nil && ev.Error.Message != "" {
				msg = ev.Error.Message
			}
			s.err = fmt.Errorf("anthropic: %s", msg)
			s.done = true
		case "message_stop":
			s.done = true
		}
	}
	if s.err == nil && !s.done {
		s.err = s.scanner.Err()
	}
	s.done = true
	return false
}

func (s *messagesStream) Content() string {
	return s.current
}

func (s *messagesStream) Err() error {
	return s.err
}

func (s *messagesStream) Close() error {
	return s.body.Close()
}

var _ ai.Provider = (*AnthropicProvider)(nil)
