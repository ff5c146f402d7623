package providers

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"time"

	"vibegen/pkg/ai"

	"google.golang.org/genai"
)

const (
	googleDefaultModel   = "gemini-3-flash-preview"
	googleDefaultTimeout = 60
)

func init() {
	ai.RegisterProvider(ai.ProviderInfo{
		Type:        ai.ProviderGoogle,
		Name:        "Google",
		Description: "Gemini models through the Google AI SDK",
		AuthMethod:  "api_key",
		RequiresKey: true,
	}, NewGoogleProvider)
}

type googleModelsClient interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]
}

var newGoogleClient = func(ctx context.Context, cfg *genai.ClientConfig) (*genai.Client, error) {
	return genai.NewClient(ctx, cfg)
}

// GoogleProvider implements ai.Provider on top of genai.
type GoogleProvider struct {
	models   googleModelsClient
	defaults defaults
	timeout  time.Duration
}

// NewGoogleProvider creates a Gemini provider from config.
func NewGoogleProvider(cfg ai.ProviderConfig) (ai.Provider, error) {
	pc := cfg.Config.Providers.Google

	apiKey := strings.TrimSpace(pc.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("google api_key is required")
	}

	client, err := newGoogleClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create google client: %w", err)
	}

	p := &GoogleProvider{
		models: client.Models,
		defaults: defaults{
			model:       orDefault(pc.Model, googleDefaultModel),
			temperature: pc.Temperature,
			maxTokens:   pc.MaxTokens,
		},
		timeout: timeoutOrDefault(pc.APITimeoutSeconds, googleDefaultTimeout),
	}
	slog.Debug("google_provider_ready", "model", p.defaults.model, "timeout", p.timeout)
	return p, nil
}

// CreateChatCompletion sends a non-streaming request.
func (p *GoogleProvider) CreateChatCompletion(ctx context.Context, req ai.ChatRequest) (ai.ChatResponse, error) {
	model, contents, genCfg, err := p.buildRequest(req)
	if err != nil {
		return ai.ChatResponse{}, err
	}

	callCtx, cancel := p.withTimeout(ctx)
	defer cancel()

	resp, err := p.models.GenerateContent(callCtx, model, contents, genCfg)
	if err != nil {
		return ai.ChatResponse{}, err
	}
	return ai.ChatResponse{Content: visibleText(resp), Model: model}, nil
}

// CreateChatCompletionStream sends a streaming request. The returned stream
// owns the timeout context and releases it on Close.
func (p *GoogleProvider) CreateChatCompletionStream(ctx context.Context, req ai.ChatRequest) (ai.ChatStream, error) {
	model, contents, genCfg, err := p.buildRequest(req)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := p.withTimeout(ctx)
	seq := p.models.GenerateContentStream(callCtx, model, contents, genCfg)
	return newGeminiStream(seq, cancel), nil
}

func (p *GoogleProvider) buildRequest(req ai.ChatRequest) (string, []*genai.Content, *genai.GenerateContentConfig, error) {
	model := p.defaults.pickModel(req.Model)
	if model == "" {
		return "", nil, nil, fmt.Errorf("model is required")
	}
	if len(req.Messages) == 0 {
		return "", nil, nil, errNoMessages
	}

	instructions, turns := splitInstructions(req.Messages)
	if len(turns) == 0 {
		return "", nil, nil, fmt.Errorf("at least one user or assistant message is required")
	}

	contents := make([]*genai.Content, 0, len(turns))
	for _, msg := range turns {
		role := genai.RoleUser
		if normalizeRole(msg.Role) == ai.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, textContent(role, msg.Content))
	}

	s := p.defaults.sampling(req)
	genCfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(s.temperature)),
		// Suggestions are short; keep thought parts out of the card text.
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  genai.Ptr(int32(0)),
		},
	}
	if instructions != "" {
		genCfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: instructions}}}
	}
	if s.maxTokens > 0 {
		genCfg.MaxOutputTokens = int32(s.maxTokens)
	}

	return model, contents, genCfg, nil
}

func (p *GoogleProvider) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); ok || p.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.timeout)
}

// geminiStream pulls responses from the SDK iterator on demand. Gemini may
// resend the accumulated text in each chunk, so only the new suffix is
// reported as the delta.
type geminiStream struct {
	next    func() (*genai.GenerateContentResponse, error, bool)
	stop    func()
	cancel  context.CancelFunc
	seen    string
	current string
	err     error
	done    bool
}

func newGeminiStream(seq iter.Seq2[*genai.GenerateContentResponse, error], cancel context.CancelFunc) *geminiStream {
	next, stop := iter.Pull2(seq)
	return &geminiStream{next: next, stop: stop, cancel: cancel}
}

func (s *geminiStream) Next() bool {
	for !s.done {
		resp, err, ok := s.next()
		if !ok {
			s.done = true
			break
		}
		if err != nil {
			s.err = err
			s.done = true
			break
		}

		text := visibleText(resp)
		if text == "" {
			continue
		}
		delta := text
		if strings.HasPrefix(text, s.seen) {
			delta = text[len(s.seen):]
			s.seen = text
		} else {
			s.seen += text
		}
		if delta == "" {
			continue
		}
		s.current = delta
		return true
	}
	return false
}

func (s *geminiStream) Content() string {
	return s.current
}

func (s *geminiStream) Err() error {
	return s.err
}

func (s *geminiStream) Close() error {
	s.done = true
	if s.stop != nil {
		s.stop()
		s.stop = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	return nil
}

func textContent(role, text string) *genai.Content {
	return &genai.Content{Role: role, Parts: []*genai.Part{{Text: text}}}
}

func visibleText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought || part.Text == "" {
			continue
		}
		sb.WriteString(part.Text)
	}
	return sb.String()
}

var _ ai.Provider = (*GoogleProvider)(nil)
