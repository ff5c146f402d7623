package providers

import (
	"context"
	"errors"
	"iter"
	"math"
	"testing"
	"time"

	"vibegen/pkg/ai"
	"vibegen/pkg/config"

	"google.golang.org/genai"
)

type stubGoogleModelsClient struct {
	generateResp *genai.GenerateContentResponse
	generateErr  error
	streamSeq    iter.Seq2[*genai.GenerateContentResponse, error]

	gotModel    string
	gotContents []*genai.Content
	gotConfig   *genai.GenerateContentConfig
	gotDeadline bool
}

func (s *stubGoogleModelsClient) GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	s.gotModel, s.gotContents, s.gotConfig = model, contents, cfg
	_, s.gotDeadline = ctx.Deadline()
	return s.generateResp, s.generateErr
}

func (s *stubGoogleModelsClient) GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error] {
	s.gotModel, s.gotContents, s.gotConfig = model, contents, cfg
	_, s.gotDeadline = ctx.Deadline()
	if s.streamSeq != nil {
		return s.streamSeq
	}
	return func(yield func(*genai.GenerateContentResponse, error) bool) {}
}

func googleTextResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: textContent(genai.RoleModel, text)}},
	}
}

func seqOf(texts ...string) iter.Seq2[*genai.GenerateContentResponse, error] {
	return func(yield func(*genai.GenerateContentResponse, error) bool) {
		for _, text := range texts {
			if !yield(googleTextResponse(text), nil) {
				return
			}
		}
	}
}

func newStubGoogleProvider(stub *stubGoogleModelsClient) *GoogleProvider {
	return &GoogleProvider{
		models:   stub,
		defaults: defaults{model: "gemini-test", temperature: 0.7, maxTokens: 400},
		timeout:  time.Minute,
	}
}

func TestNewGoogleProvider_RequiresAPIKey(t *testing.T) {
	cfg := config.Default()
	cfg.LLMProvider = config.ProviderGoogle

	if _, err := NewGoogleProvider(ai.ProviderConfig{Type: ai.ProviderGoogle, Config: cfg}); err == nil {
		t.Fatal("Expected error when Google API key is missing")
	}
}

func TestNewGoogleProvider_Fallbacks(t *testing.T) {
	origNewClient := newGoogleClient
	defer func() { newGoogleClient = origNewClient }()

	var gotClientCfg *genai.ClientConfig
	newGoogleClient = func(ctx context.Context, cfg *genai.ClientConfig) (*genai.Client, error) {
		gotClientCfg = cfg
		return &genai.Client{}, nil
	}

	cfg := config.Default()
	cfg.Providers.Google = config.ProviderConfig{APIKey: " g-key ", Temperature: 0.55}

	provider, err := NewGoogleProvider(ai.ProviderConfig{Type: ai.ProviderGoogle, Config: cfg})
	if err != nil {
		t.Fatalf("NewGoogleProvider() error: %v", err)
	}

	gp, ok := provider.(*GoogleProvider)
	if !ok {
		t.Fatalf("Expected *GoogleProvider, got %T", provider)
	}
	if gotClientCfg == nil || gotClientCfg.APIKey != "g-key" {
		t.Fatalf("Expected trimmed API key forwarded, got %+v", gotClientCfg)
	}
	if gotClientCfg.Backend != genai.BackendGeminiAPI {
		t.Fatalf("Expected BackendGeminiAPI, got %q", gotClientCfg.Backend)
	}
	if gp.defaults.model != googleDefaultModel {
		t.Fatalf("Expected default model %q, got %q", googleDefaultModel, gp.defaults.model)
	}
	if gp.timeout != googleDefaultTimeout*time.Second {
		t.Fatalf("Expected default timeout, got %s", gp.timeout)
	}
}

func TestNewGoogleProvider_ClientError(t *testing.T) {
	origNewClient := newGoogleClient
	defer func() { newGoogleClient = origNewClient }()

	newGoogleClient = func(ctx context.Context, cfg *genai.ClientConfig) (*genai.Client, error) {
		return nil, errors.New("boom")
	}

	cfg := config.Default()
	cfg.Providers.Google.APIKey = "k"
	if _, err := NewGoogleProvider(ai.ProviderConfig{Type: ai.ProviderGoogle, Config: cfg}); err == nil {
		t.Fatal("Expected client construction error")
	}
}

func TestGoogleProvider_CreateChatCompletion_MapsBioPrompt(t *testing.T) {
	stub := &stubGoogleModelsClient{generateResp: googleTextResponse("1. A 2. B")}
	provider := newStubGoogleProvider(stub)

	temp := 0.2
	req := bioRequest()
	req.Temperature = &temp
	req.Messages = append(req.Messages, ai.Message{Role: "assistant", Content: "earlier"})

	resp, err := provider.CreateChatCompletion(context.Background(), req)
	if err != nil {
		t.Fatalf("CreateChatCompletion() error: %v", err)
	}

	if resp.Content != "1. A 2. B" || resp.Model != "gemini-test" {
		t.Fatalf("Unexpected response %+v", resp)
	}
	if !stub.gotDeadline {
		t.Fatal("Expected provider timeout to apply as a deadline")
	}
	if len(stub.gotContents) != 2 {
		t.Fatalf("Expected system prompt to be lifted out, got %d contents", len(stub.gotContents))
	}
	if stub.gotContents[0].Role != genai.RoleUser || stub.gotContents[1].Role != genai.RoleModel {
		t.Fatalf("Unexpected roles %q, %q", stub.gotContents[0].Role, stub.gotContents[1].Role)
	}
	if stub.gotConfig.SystemInstruction == nil || len(stub.gotConfig.SystemInstruction.Parts) != 1 {
		t.Fatal("Expected a single system instruction part")
	}
	if math.Abs(float64(*stub.gotConfig.Temperature)-0.2) > 0.0001 {
		t.Fatalf("Expected temperature override 0.2, got %f", *stub.gotConfig.Temperature)
	}
	if stub.gotConfig.MaxOutputTokens != 400 {
		t.Fatalf("Expected max output tokens 400, got %d", stub.gotConfig.MaxOutputTokens)
	}
	if tc := stub.gotConfig.ThinkingConfig; tc == nil || tc.IncludeThoughts || tc.ThinkingBudget == nil || *tc.ThinkingBudget != 0 {
		t.Fatalf("Expected thinking disabled, got %+v", tc)
	}
}

func TestGoogleProvider_FiltersThoughtParts(t *testing.T) {
	stub := &stubGoogleModelsClient{
		generateResp: &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{
					Role: genai.RoleModel,
					Parts: []*genai.Part{
						{Text: "planning", Thought: true},
						{Text: "1. visible"},
					},
				},
			}},
		},
	}

	resp, err := newStubGoogleProvider(stub).CreateChatCompletion(context.Background(), bioRequest())
	if err != nil {
		t.Fatalf("CreateChatCompletion() error: %v", err)
	}
	if resp.Content != "1. visible" {
		t.Fatalf("Expected thought parts filtered, got %q", resp.Content)
	}
}

func TestGoogleProvider_RequiresTurn(t *testing.T) {
	provider := newStubGoogleProvider(&stubGoogleModelsClient{})
	_, err := provider.CreateChatCompletion(context.Background(), ai.ChatRequest{
		Messages: []ai.Message{{Role: "system", Content: "only instructions"}},
	})
	if err == nil {
		t.Fatal("Expected error without a user turn")
	}
}

func TestGoogleProvider_Stream(t *testing.T) {
	tests := []struct {
		name   string
		chunks []string
		want   string
	}{
		{"incremental", []string{"1. Hello", " 2. world"}, "1. Hello 2. world"},
		{"cumulative", []string{"1. Hello", "1. Hello 2. world"}, "1. Hello 2. world"},
		{"empty chunks skipped", []string{"", "1. A", "", " 2. B"}, "1. A 2. B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubGoogleModelsClient{streamSeq: seqOf(tt.chunks...)}
			stream, err := newStubGoogleProvider(stub).CreateChatCompletionStream(context.Background(), bioRequest())
			if err != nil {
				t.Fatalf("CreateChatCompletionStream() error: %v", err)
			}
			if got := drain(t, stream); got != tt.want {
				t.Fatalf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestGoogleProvider_StreamError(t *testing.T) {
	streamErr := errors.New("stream failed")
	stub := &stubGoogleModelsClient{
		streamSeq: func(yield func(*genai.GenerateContentResponse, error) bool) {
			if !yield(googleTextResponse("1. partial"), nil) {
				return
			}
			yield(nil, streamErr)
		},
	}

	stream, err := newStubGoogleProvider(stub).CreateChatCompletionStream(context.Background(), bioRequest())
	if err != nil {
		t.Fatalf("CreateChatCompletionStream() error: %v", err)
	}

	got, err := ai.Collect(stream, nil)
	if got != "1. partial" {
		t.Fatalf("Expected partial output, got %q", got)
	}
	if !errors.Is(err, streamErr) {
		t.Fatalf("Expected stream error, got %v", err)
	}
}

func TestGoogleProvider_CloseEarlyStopsIterator(t *testing.T) {
	stopped := false
	stub := &stubGoogleModelsClient{
		streamSeq: func(yield func(*genai.GenerateContentResponse, error) bool) {
			defer func() { stopped = true }()
			for {
				if !yield(googleTextResponse("x"), nil) {
					return
				}
			}
		},
	}

	stream, err := newStubGoogleProvider(stub).CreateChatCompletionStream(context.Background(), bioRequest())
	if err != nil {
		t.Fatalf("CreateChatCompletionStream() error: %v", err)
	}
	if !stream.Next() {
		t.Fatal("Expected a first delta")
	}
	stream.Close()

	if !stopped {
		t.Fatal("Expected Close to stop the underlying iterator")
	}
	if stream.Next() {
		t.Fatal("Expected Next to be false after Close")
	}
}
