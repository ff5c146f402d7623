// Package toast shows a one-line notice that hides itself after a delay.
package toast

import (
	"time"

	"vibegen/pkg/ui/components/utils"
	"vibegen/pkg/ui/styles"

	tea "charm.land/bubbletea/v2"
)

// DefaultDuration is how long a toast stays up.
const DefaultDuration = 2 * time.Second

// Kind selects the toast color.
type Kind int

const (
	KindInfo Kind = iota
	KindError
)

// ExpiredMsg hides the toast with the matching ID. Later toasts get new IDs,
// so an old timer never hides a newer notice.
type ExpiredMsg struct {
	ID int
}

// Toast is a transient notice.
type Toast struct {
	text     string
	kind     Kind
	id       int
	visible  bool
	duration time.Duration
}

// New creates a hidden toast; d <= 0 means DefaultDuration.
func New(d time.Duration) *Toast {
	if d <= 0 {
		d = DefaultDuration
	}
	return &Toast{duration: d}
}

// Show displays text and returns the command that expires it.
func (t *Toast) Show(text string, kind Kind) tea.Cmd {
	t.id++
	t.text = text
	t.kind = kind
	t.visible = true

	id := t.id
	return tea.Tick(t.duration, func(time.Time) tea.Msg {
		return ExpiredMsg{ID: id}
	})
}

// Update hides the toast when its timer fires.
func (t *Toast) Update(msg ExpiredMsg) {
	if msg.ID == t.id {
		t.visible = false
	}
}

// ID is the identifier of the latest Show.
func (t *Toast) ID() int { return t.id }

func (t *Toast) IsVisible() bool { return t.visible }

func (t *Toast) Text() string { return t.text }

func (t *Toast) Kind() Kind { return t.kind }

// View renders the toast clipped to width, or "" when hidden.
func (t *Toast) View(width int) string {
	if !t.visible {
		return ""
	}
	style := styles.ToastStyle
	if t.kind == KindError {
		style = styles.ToastErrorStyle
	}
	text := t.text
	if width > 2 {
		text = utils.TruncateToWidth(text, width-2)
	}
	return style.Render(text)
}
