package suggest

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

const minWrapWidth = 20

// FormatReport renders suggestions as a numbered plain-text list. Bodies are
// word-wrapped to width with a hanging indent; width <= 0 disables wrapping.
func FormatReport(suggestions []Suggestion, width int) string {
	if len(suggestions) == 0 {
		return "No suggestions.\n"
	}

	var sb strings.Builder
	for i, s := range suggestions {
		if i > 0 {
			sb.WriteString("\n")
		}
		label := fmt.Sprintf("%d. ", i+1)
		indent := strings.Repeat(" ", ansi.StringWidth(label))

		body := s.Text
		if avail := width - ansi.StringWidth(label); width > 0 && avail >= minWrapWidth {
			body = ansi.Wordwrap(body, avail, "")
		}
		for j, line := range strings.Split(body, "\n") {
			if j == 0 {
				sb.WriteString(label)
			} else {
				sb.WriteString(indent)
			}
			sb.WriteString(strings.TrimRight(line, " "))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
