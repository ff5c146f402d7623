package ui

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "charm.land/bubbletea/v2"
	osc52 "github.com/aymanbagabas/go-osc52/v2"
)

const copiedNotice = "Bio copied to clipboard"

// clipboardOutput receives the OSC 52 sequence; the terminal does the copy.
var clipboardOutput io.Writer = os.Stdout

type clipboardMsg struct {
	chars int
	err   error
}

func copyToClipboard(text string) tea.Cmd {
	return func() tea.Msg {
		_, err := fmt.Fprint(clipboardOutput, osc52.New(text))
		if err != nil {
			slog.Warn("clipboard_copy_error", "error", err)
		}
		return clipboardMsg{chars: len(text), err: err}
	}
}
