package completion

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrSuperseded ends a handle replaced by a newer Submit.
	ErrSuperseded = errors.New("superseded by a newer request")
	// ErrStopped ends a handle cancelled through Handle.Cancel.
	ErrStopped = errors.New("generation stopped")
)

const eventBuffer = 64

// Event is one step of a stream. A handle delivers delta events in order,
// then exactly one event with Done set.
type Event struct {
	ID    string
	Delta string
	Text  string
	Done  bool
	Err   error
}

// Handle is a running submission.
type Handle struct {
	id     string
	events chan Event
	cancel context.CancelCauseFunc
}

// ID identifies the submission.
func (h *Handle) ID() string { return h.id }

// Events is closed after the terminal event.
func (h *Handle) Events() <-chan Event { return h.events }

// Cancel stops the stream; the terminal event carries ErrStopped.
func (h *Handle) Cancel() { h.cancel(ErrStopped) }

// Consumer runs at most one stream at a time. Submitting again cancels the
// previous handle.
type Consumer struct {
	source Source

	mu      sync.Mutex
	current *Handle
	text    string
	busy    bool
}

// NewConsumer creates a consumer reading from source.
func NewConsumer(source Source) *Consumer {
	return &Consumer{source: source}
}

// Submit starts streaming req and returns immediately.
func (c *Consumer) Submit(ctx context.Context, req Request) *Handle {
	ctx, cancel := context.WithCancelCause(ctx)
	h := &Handle{
		id:     uuid.NewString(),
		events: make(chan Event, eventBuffer),
		cancel: cancel,
	}

	c.mu.Lock()
	prev := c.current
	c.current = h
	c.text = ""
	c.busy = true
	c.mu.Unlock()

	if prev != nil {
		slog.Debug("completion_superseded", "id", prev.id, "by", h.id)
		prev.cancel(ErrSuperseded)
	}

	slog.Info("completion_submit", "id", h.id, "vibe", string(req.Vibe), "bio_chars", len(req.Bio))
	go c.run(ctx, h, req)
	return h
}

// Cancel stops the current stream, if any.
func (c *Consumer) Cancel() {
	c.mu.Lock()
	h := c.current
	c.mu.Unlock()
	if h != nil {
		h.Cancel()
	}
}

// Busy reports whether the current handle has not finished.
func (c *Consumer) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// Text is the buffer accumulated by the current handle.
func (c *Consumer) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text
}

// CurrentID is the ID of the latest submission, or "".
func (c *Consumer) CurrentID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return ""
	}
	return c.current.id
}

func (c *Consumer) run(ctx context.Context, h *Handle, req Request) {
	defer close(h.events)
	defer h.cancel(nil)

	start := time.Now()
	var sb strings.Builder

	err := func() error {
		stream, err := c.source.Stream(ctx, req)
		if err != nil {
			return err
		}
		defer stream.Close()

		slog.Debug("completion_stream_start", "id", h.id)
		for stream.Next() {
			delta := stream.Content()
			if delta == "" {
				continue
			}
			sb.WriteString(delta)
			text := sb.String()
			c.update(h, text)

			select {
			case h.events <- Event{ID: h.id, Delta: delta, Text: text}:
			case <-ctx.Done():
				return context.Cause(ctx)
			}
		}
		return stream.Err()
	}()
	if ctx.Err() != nil {
		err = context.Cause(ctx)
	}

	c.finish(h)
	c.logDone(h, err, sb.Len(), time.Since(start))

	final := Event{ID: h.id, Text: sb.String(), Done: true, Err: err}
	if ctx.Err() == nil {
		h.events <- final
		return
	}
	select {
	case h.events <- final:
	default:
	}
}

func (c *Consumer) update(h *Handle, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == h {
		c.text = text
	}
}

func (c *Consumer) finish(h *Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == h {
		c.busy = false
	}
}

func (c *Consumer) logDone(h *Handle, err error, chars int, elapsed time.Duration) {
	switch {
	case err == nil:
		slog.Info("completion_stream_done", "id", h.id, "chars", chars, "duration_ms", elapsed.Milliseconds())
	case errors.Is(err, ErrSuperseded), errors.Is(err, ErrStopped):
		slog.Debug("completion_stream_cancelled", "id", h.id, "reason", err, "chars", chars)
	default:
		slog.Warn("completion_stream_error", "id", h.id, "error", err, "chars", chars)
	}
}
