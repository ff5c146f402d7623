package providers

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"vibegen/pkg/ai"
	"vibegen/pkg/config"

	copilot "github.com/github/copilot-sdk/go"
)

type fakeCopilotClient struct {
	authenticated bool
	session       *fakeCopilotSession
	gotConfig     *copilot.SessionConfig
	stopped       bool
}

func (c *fakeCopilotClient) Start() error { return nil }

func (c *fakeCopilotClient) Stop() []error {
	c.stopped = true
	return nil
}

func (c *fakeCopilotClient) GetAuthStatus() (*copilot.GetAuthStatusResponse, error) {
	msg := "run copilot login"
	return &copilot.GetAuthStatusResponse{IsAuthenticated: c.authenticated, StatusMessage: &msg}, nil
}

func (c *fakeCopilotClient) CreateSession(cfg *copilot.SessionConfig) (copilotSession, error) {
	c.gotConfig = cfg
	return c.session, nil
}

// fakeCopilotSession replays scripted events when a prompt is sent.
type fakeCopilotSession struct {
	mu        sync.Mutex
	handler   copilot.SessionEventHandler
	script    []copilot.SessionEvent
	hold      bool
	gotPrompt string
	aborted   bool
	destroyed bool
}

func (s *fakeCopilotSession) Send(options copilot.MessageOptions) (string, error) {
	s.mu.Lock()
	s.gotPrompt = options.Prompt
	handler := s.handler
	s.mu.Unlock()

	if s.hold {
		return "msg-1", nil
	}
	for _, ev := range s.script {
		handler(ev)
	}
	return "msg-1", nil
}

func (s *fakeCopilotSession) On(handler copilot.SessionEventHandler) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = handler
	return func() {}
}

func (s *fakeCopilotSession) Abort() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aborted = true
	return nil
}

func (s *fakeCopilotSession) Destroy() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.destroyed = true
	return nil
}

func strPtr(s string) *string { return &s }

func deltaEvent(text string) copilot.SessionEvent {
	ev := copilot.SessionEvent{Type: copilot.AssistantMessageDelta}
	ev.Data.DeltaContent = strPtr(text)
	return ev
}

func messageEvent(text string) copilot.SessionEvent {
	ev := copilot.SessionEvent{Type: copilot.AssistantMessage}
	ev.Data.Content = strPtr(text)
	return ev
}

func errorEvent(text string) copilot.SessionEvent {
	ev := copilot.SessionEvent{Type: copilot.SessionError}
	ev.Data.Message = strPtr(text)
	return ev
}

func newFakeCopilotProvider(client *fakeCopilotClient) *CopilotProvider {
	return &CopilotProvider{
		newClient: func() copilotClient { return client },
		model:     copilotDefaultModel,
		timeout:   5 * time.Second,
	}
}

func TestCopilotProvider_Stream(t *testing.T) {
	session := &fakeCopilotSession{script: []copilot.SessionEvent{
		deltaEvent("1. Hi"),
		deltaEvent(" 2. There"),
		messageEvent("1. Hi 2. There"),
		{Type: copilot.SessionIdle},
	}}
	client := &fakeCopilotClient{authenticated: true, session: session}

	stream, err := newFakeCopilotProvider(client).CreateChatCompletionStream(context.Background(), bioRequest())
	if err != nil {
		t.Fatalf("CreateChatCompletionStream() error: %v", err)
	}
	if got := drain(t, stream); got != "1. Hi 2. There" {
		t.Fatalf("Expected deltas without the final message, got %q", got)
	}

	if client.gotConfig == nil || !client.gotConfig.Streaming || client.gotConfig.SystemMessage == nil {
		t.Fatalf("Expected streaming session with system message, got %+v", client.gotConfig)
	}
	if !strings.Contains(session.gotPrompt, "Generate 2 pun messages") {
		t.Fatalf("Expected bio prompt to be sent, got %q", session.gotPrompt)
	}
	if !session.destroyed || !client.stopped {
		t.Fatal("Expected Close to destroy the session and stop the client")
	}
}

func TestCopilotProvider_FinalMessageWithoutDeltas(t *testing.T) {
	session := &fakeCopilotSession{script: []copilot.SessionEvent{
		messageEvent("1. Whole"),
		{Type: copilot.SessionIdle},
	}}
	client := &fakeCopilotClient{authenticated: true, session: session}

	resp, err := newFakeCopilotProvider(client).CreateChatCompletion(context.Background(), bioRequest())
	if err != nil {
		t.Fatalf("CreateChatCompletion() error: %v", err)
	}
	if resp.Content != "1. Whole" || resp.Model != copilotDefaultModel {
		t.Fatalf("Unexpected response %+v", resp)
	}
}

func TestCopilotProvider_SessionError(t *testing.T) {
	session := &fakeCopilotSession{script: []copilot.SessionEvent{
		deltaEvent("1."),
		errorEvent("quota exceeded"),
	}}
	client := &fakeCopilotClient{authenticated: true, session: session}

	stream, err := newFakeCopilotProvider(client).CreateChatCompletionStream(context.Background(), bioRequest())
	if err != nil {
		t.Fatalf("CreateChatCompletionStream() error: %v", err)
	}
	got, err := ai.Collect(stream, nil)
	if got != "1." {
		t.Fatalf("Expected partial output, got %q", got)
	}
	if err == nil || err.Error() != "quota exceeded" {
		t.Fatalf("Expected session error, got %v", err)
	}
}

func TestCopilotProvider_ContextCancelAborts(t *testing.T) {
	session := &fakeCopilotSession{hold: true}
	client := &fakeCopilotClient{authenticated: true, session: session}

	ctx, cancel := context.WithCancel(context.Background())
	stream, err := newFakeCopilotProvider(client).CreateChatCompletionStream(ctx, bioRequest())
	if err != nil {
		t.Fatalf("CreateChatCompletionStream() error: %v", err)
	}
	cancel()

	_, err = ai.Collect(stream, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	if !session.aborted {
		t.Fatal("Expected session to be aborted")
	}
}

func TestCopilotProvider_NotAuthenticated(t *testing.T) {
	client := &fakeCopilotClient{authenticated: false, session: &fakeCopilotSession{}}

	_, err := newFakeCopilotProvider(client).CreateChatCompletionStream(context.Background(), bioRequest())
	if err == nil || err.Error() != "run copilot login" {
		t.Fatalf("Expected auth status message, got %v", err)
	}
	if !client.stopped {
		t.Fatal("Expected client to be stopped after auth failure")
	}
}

func TestCopilotPrompt(t *testing.T) {
	system, prompt, err := copilotPrompt(ai.ChatRequest{Messages: []ai.Message{
		{Role: "system", Content: "Be brief."},
		{Role: "user", Content: "Write two lines."},
		{Role: "assistant", Content: "Sure."},
	}})
	if err != nil {
		t.Fatalf("copilotPrompt() error: %v", err)
	}
	if system != "Be brief." {
		t.Fatalf("Expected system text, got %q", system)
	}
	if prompt != "Write two lines.\n\nAssistant: Sure." {
		t.Fatalf("Unexpected prompt %q", prompt)
	}

	if _, _, err := copilotPrompt(ai.ChatRequest{Messages: []ai.Message{{Role: "system", Content: "x"}}}); err == nil {
		t.Fatal("Expected error without user content")
	}
}

func TestNewCopilotProvider_Defaults(t *testing.T) {
	cfg := config.Default()
	cfg.Providers.Copilot = config.ProviderConfig{}

	provider, err := NewCopilotProvider(ai.ProviderConfig{Type: ai.ProviderCopilot, Config: cfg})
	if err != nil {
		t.Fatalf("NewCopilotProvider() error: %v", err)
	}
	cp := provider.(*CopilotProvider)
	if cp.model != copilotDefaultModel {
		t.Fatalf("Expected default model, got %q", cp.model)
	}
	if cp.timeout != copilotDefaultTimeout*time.Second {
		t.Fatalf("Expected default timeout, got %s", cp.timeout)
	}
}
