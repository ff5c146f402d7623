package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"vibegen/pkg/ai"
)

const (
	endpointReadSize  = 4096
	errorExcerptLimit = 512
)

// StatusError is returned when the endpoint answers with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("endpoint returned %d %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("endpoint returned %d: %s", e.Code, e.Body)
}

// EndpointSource posts the request as JSON and streams the plain-text body.
type EndpointSource struct {
	URL    string
	Client *http.Client
}

// NewEndpointSource creates an endpoint source. A zero timeout means no
// client-side limit.
func NewEndpointSource(url string, timeout time.Duration) *EndpointSource {
	return &EndpointSource{URL: url, Client: &http.Client{Timeout: timeout}}
}

// Stream sends req and returns the response body as a delta stream.
func (s *EndpointSource) Stream(ctx context.Context, req Request) (ai.ChatStream, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/plain")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	slog.Debug("endpoint_request", "url", s.URL, "vibe", string(req.Vibe))
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("endpoint request: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, errorExcerptLimit))
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(excerpt))}
	}

	return &bodyStream{body: resp.Body, buf: make([]byte, endpointReadSize)}, nil
}

// bodyStream yields whatever each Read returns, holding back a trailing
// partial UTF-8 sequence until the rest of it arrives.
type bodyStream struct {
	body    io.ReadCloser
	buf     []byte
	pending []byte
	current string
	err     error
	done    bool
}

func (s *bodyStream) Next() bool {
	for !s.done {
		n, err := s.body.Read(s.buf)
		if n > 0 {
			chunk := append(s.pending, s.buf[:n]...)
			cut := completeUTF8Prefix(chunk)
			s.pending = append([]byte(nil), chunk[cut:]...)
			if cut > 0 {
				s.current = string(chunk[:cut])
				if err != nil {
					s.finish(err)
				}
				return true
			}
		}
		if err != nil {
			s.finish(err)
		}
	}

	if len(s.pending) > 0 {
		s.current = string(s.pending)
		s.pending = nil
		return true
	}
	return false
}

func (s *bodyStream) finish(err error) {
	s.done = true
	if err != io.EOF {
		s.err = err
	}
}

func (s *bodyStream) Content() string {
	return s.current
}

func (s *bodyStream) Err() error {
	return s.err
}

func (s *bodyStream) Close() error {
	return s.body.Close()
}

// completeUTF8Prefix returns the length of b without an incomplete rune at
// the end.
func completeUTF8Prefix(b []byte) int {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if !utf8.RuneStart(b[i]) {
			continue
		}
		if utf8.FullRune(b[i:]) {
			return len(b)
		}
		return i
	}
	return len(b)
}
