package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"vibegen/pkg/ai"

	copilot "github.com/github/copilot-sdk/go"
)

const (
	copilotDefaultModel   = "gpt-4o"
	copilotDefaultTimeout = 30
)

func init() {
	ai.RegisterProvider(ai.ProviderInfo{
		Type:        ai.ProviderCopilot,
		Name:        "GitHub Copilot",
		Description: "GitHub Copilot through the Copilot SDK (uses Copilot CLI login)",
		AuthMethod:  "copilot_cli",
		RequiresKey: false,
	}, NewCopilotProvider)
}

type copilotClient interface {
	Start() error
	Stop() []error
	GetAuthStatus() (*copilot.GetAuthStatusResponse, error)
	CreateSession(config *copilot.SessionConfig) (copilotSession, error)
}

type copilotSession interface {
	Send(options copilot.MessageOptions) (string, error)
	On(handler copilot.SessionEventHandler) func()
	Abort() error
	Destroy() error
}

type sdkClient struct{ *copilot.Client }

func (c sdkClient) CreateSession(config *copilot.SessionConfig) (copilotSession, error) {
	session, err := c.Client.CreateSession(config)
	if err != nil {
		return nil, err
	}
	return session, nil
}

var newCopilotClient = func() copilotClient {
	return sdkClient{copilot.NewClient(nil)}
}

// CopilotProvider drives a Copilot CLI session per request.
type CopilotProvider struct {
	newClient func() copilotClient
	model     string
	timeout   time.Duration
}

// NewCopilotProvider creates a Copilot provider from config. Temperature and
// max tokens are not supported by the SDK and are ignored.
func NewCopilotProvider(cfg ai.ProviderConfig) (ai.Provider, error) {
	pc := cfg.Config.Providers.Copilot
	return &CopilotProvider{
		newClient: newCopilotClient,
		model:     orDefault(pc.Model, copilotDefaultModel),
		timeout:   timeoutOrDefault(pc.APITimeoutSeconds, copilotDefaultTimeout),
	}, nil
}

// CreateChatCompletion runs a streaming session and collects the result.
func (p *CopilotProvider) CreateChatCompletion(ctx context.Context, req ai.ChatRequest) (ai.ChatResponse, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	stream, err := p.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return ai.ChatResponse{}, err
	}
	content, err := ai.Collect(stream, nil)
	if err != nil {
		return ai.ChatResponse{}, err
	}
	return ai.ChatResponse{Content: content, Model: p.pickModel(req.Model)}, nil
}

// CreateChatCompletionStream starts a Copilot session and sends the prompt.
func (p *CopilotProvider) CreateChatCompletionStream(ctx context.Context, req ai.ChatRequest) (ai.ChatStream, error) {
	system, prompt, err := copilotPrompt(req)
	if err != nil {
		return nil, err
	}
	model := p.pickModel(req.Model)

	client := p.newClient()
	if err := client.Start(); err != nil {
		return nil, fmt.Errorf("copilot client start: %w", err)
	}
	if err := copilotAuthenticated(client); err != nil {
		stopClient(client)
		return nil, err
	}

	sessionCfg := &copilot.SessionConfig{Model: model, Streaming: true}
	if system != "" {
		sessionCfg.SystemMessage = &copilot.SystemMessageConfig{Mode: "append", Content: system}
	}
	session, err := client.CreateSession(sessionCfg)
	if err != nil {
		stopClient(client)
		return nil, fmt.Errorf("copilot session create: %w", err)
	}

	slog.Debug("copilot_session_start", "model", model, "prompt_chars", len(prompt))
	stream := newSessionStream(client, session)
	stream.watch(ctx)
	go func() {
		if _, err := session.Send(copilot.MessageOptions{Prompt: prompt}); err != nil {
			stream.finish(err)
		}
	}()
	return stream, nil
}

func (p *CopilotProvider) pickModel(requested string) string {
	return defaults{model: p.model}.pickModel(requested)
}

func copilotAuthenticated(client copilotClient) error {
	status, err := client.GetAuthStatus()
	if err != nil {
		return fmt.Errorf("copilot auth status: %w", err)
	}
	if status != nil && status.IsAuthenticated {
		return nil
	}
	if status != nil && status.StatusMessage != nil && strings.TrimSpace(*status.StatusMessage) != "" {
		return errors.New(strings.TrimSpace(*status.StatusMessage))
	}
	return errors.New("Copilot CLI is not authenticated")
}

func stopClient(client copilotClient) {
	for _, err := range client.Stop() {
		if err != nil {
			slog.Debug("copilot_client_stop_error", "error", err)
		}
	}
}

// copilotPrompt flattens the chat into a system message and a single prompt.
func copilotPrompt(req ai.ChatRequest) (string, string, error) {
	system, turns := splitInstructions(req.Messages)

	parts := make([]string, 0, len(turns))
	for _, msg := range turns {
		content := strings.TrimSpace(msg.Content)
		if content == "" {
			continue
		}
		if normalizeRole(msg.Role) == ai.RoleAssistant {
			parts = append(parts, "Assistant: "+content)
			continue
		}
		parts = append(parts, content)
	}
	if len(parts) == 0 {
		return "", "", errNoMessages
	}
	return system, strings.Join(parts, "\n\n"), nil
}

type sessionEvent struct {
	delta string
	err   error
}

// sessionStream turns Copilot session callbacks into a pull stream.
type sessionStream struct {
	client  copilotClient
	session copilotSession
	events  chan sessionEvent
	unsub   func()

	mu       sync.Mutex
	finished bool
	sawDelta bool

	current   string
	err       error
	closeOnce sync.Once
	stopWatch chan struct{}
}

func newSessionStream(client copilotClient, session copilotSession) *sessionStream {
	s := &sessionStream{
		client:    client,
		session:   session,
		events:    make(chan sessionEvent, 64),
		stopWatch: make(chan struct{}),
	}
	s.unsub = session.On(s.handle)
	return s
}

func (s *sessionStream) watch(ctx context.Context) {
	if ctx == nil {
		return
	}
	go func() {
		select {
		case <-ctx.Done():
			_ = s.session.Abort()
			s.finish(ctx.Err())
		case <-s.stopWatch:
		}
	}()
}

func (s *sessionStream) handle(event copilot.SessionEvent) {
	switch event.Type {
	case copilot.AssistantMessageDelta:
		if event.Data.DeltaContent != nil {
			s.mu.Lock()
			s.sawDelta = true
			s.mu.Unlock()
			s.emit(*event.Data.DeltaContent)
		}
	case copilot.AssistantMessage:
		s.mu.Lock()
		fallback := !s.sawDelta
		s.mu.Unlock()
		if fallback && event.Data.Content != nil {
			s.emit(*event.Data.Content)
		}
	case copilot.SessionError:
		msg := "copilot session error"
		if event.Data.Message != nil {
			msg = *event.Data.Message
		}
		s.finish(errors.New(msg))
	case copilot.SessionIdle:
		s.finish(nil)
	}
}

func (s *sessionStream) emit(delta string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return
	}
	select {
	case s.events <- sessionEvent{delta: delta}:
	case <-s.stopWatch:
	}
}

// finish records the terminal state once and closes the event channel.
func (s *sessionStream) finish(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return
	}
	s.finished = true
	if err != nil {
		select {
		case s.events <- sessionEvent{err: err}:
		case <-s.stopWatch:
		}
	}
	close(s.events)
}

func (s *sessionStream) Next() bool {
	ev, ok := <-s.events
	if !ok {
		return false
	}
	if ev.err != nil {
		s.err = ev.err
		return false
	}
	s.current = ev.delta
	return true
}

func (s *sessionStream) Content() string {
	return s.current
}

func (s *sessionStream) Err() error {
	return s.err
}

func (s *sessionStream) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopWatch)
		if s.unsub != nil {
			s.unsub()
		}
		s.finish(nil)
		_ = s.session.Destroy()
		stopClient(s.client)
	})
	return nil
}

var _ ai.Provider = (*CopilotProvider)(nil)
