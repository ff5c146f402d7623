// Package providers registers the LLM backends that can produce suggestions.
// Importing it for side effects fills ai.DefaultRegistry.
package providers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"vibegen/pkg/ai"
)

var errNoMessages = errors.New("messages are required")

// sampling is the resolved temperature and token budget for one request.
type sampling struct {
	temperature float64
	maxTokens   int
}

// defaults carries the per-provider fallbacks from config.
type defaults struct {
	model       string
	temperature float64
	maxTokens   int
}

func (d defaults) pickModel(requested string) string {
	if model := strings.TrimSpace(requested); model != "" {
		return model
	}
	return strings.TrimSpace(d.model)
}

func (d defaults) sampling(req ai.ChatRequest) sampling {
	s := sampling{temperature: d.temperature, maxTokens: d.maxTokens}
	if req.Temperature != nil {
		s.temperature = *req.Temperature
	}
	if req.MaxTokens != nil {
		s.maxTokens = *req.MaxTokens
	}
	return s
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func timeoutOrDefault(seconds, fallback int) time.Duration {
	if seconds <= 0 {
		seconds = fallback
	}
	return time.Duration(seconds) * time.Second
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

func normalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}

// splitInstructions separates system and developer messages from the
// conversation turns, joining the former in order.
func splitInstructions(msgs []ai.Message) (string, []ai.Message) {
	var instructions []string
	turns := make([]ai.Message, 0, len(msgs))
	for _, msg := range msgs {
		switch normalizeRole(msg.Role) {
		case ai.RoleSystem, ai.RoleDeveloper:
			if content := strings.TrimSpace(msg.Content); content != "" {
				instructions = append(instructions, content)
			}
		default:
			turns = append(turns, msg)
		}
	}
	return strings.Join(instructions, "\n\n"), turns
}
