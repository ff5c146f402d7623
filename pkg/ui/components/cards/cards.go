// Package cards renders parsed suggestions as a scrollable list of bordered
// cards with one selected card.
package cards

import (
	"strings"

	"vibegen/pkg/suggest"
	"vibegen/pkg/ui/components/utils"
	"vibegen/pkg/ui/styles"

	tea "charm.land/bubbletea/v2"
)

const emptyPlaceholder = "Your generated bios will show up here."

// pendingBody stands in for a segment with no text yet.
const pendingBody = "..."

// cardChrome is the border plus horizontal padding of a card.
const cardChrome = 4

// CopyMsg asks the host to copy Text to the clipboard.
type CopyMsg struct {
	Text string
}

// List holds the cards and the cursor.
type List struct {
	items    []suggest.Suggestion
	selected int
	scrollY  int
	width    int
	height   int
	focused  bool
}

// New creates an empty list.
func New() *List {
	return &List{}
}

// SetSize sets the area available to the list.
func (l *List) SetSize(width, height int) {
	l.width = width
	l.height = height
	l.ensureVisible()
}

// SetSuggestions replaces the cards, keeping the cursor when it still fits.
func (l *List) SetSuggestions(items []suggest.Suggestion) {
	l.items = items
	if l.selected >= len(items) {
		l.selected = max(len(items)-1, 0)
	}
	l.ensureVisible()
}

// Reset moves the cursor and the scroll back to the first card.
func (l *List) Reset() {
	l.selected = 0
	l.scrollY = 0
}

// Focus highlights the selected card.
func (l *List) Focus() { l.focused = true }

// Blur removes the highlight.
func (l *List) Blur() { l.focused = false }

// Focused reports whether the list has focus.
func (l *List) Focused() bool { return l.focused }

// Len is the number of cards, empty ones included.
func (l *List) Len() int { return len(l.items) }

// SelectedIndex is the cursor position.
func (l *List) SelectedIndex() int { return l.selected }

// ScrollY is the first rendered line.
func (l *List) ScrollY() int { return l.scrollY }

// Selected returns the card under the cursor.
func (l *List) Selected() (suggest.Suggestion, bool) {
	if l.selected < 0 || l.selected >= len(l.items) {
		return suggest.Suggestion{}, false
	}
	return l.items[l.selected], true
}

// Update moves the cursor or requests a copy of the selected card.
func (l *List) Update(msg tea.KeyPressMsg) tea.Cmd {
	if len(l.items) == 0 {
		return nil
	}

	switch msg.String() {
	case "up", "k":
		if l.selected > 0 {
			l.selected--
		}
	case "down", "j":
		if l.selected < len(l.items)-1 {
			l.selected++
		}
	case "home", "g":
		l.selected = 0
	case "end", "G":
		l.selected = len(l.items) - 1
	case "enter", "y", "c":
		item, ok := l.Selected()
		if !ok {
			return nil
		}
		return func() tea.Msg {
			return CopyMsg{Text: item.Raw}
		}
	default:
		return nil
	}

	l.ensureVisible()
	return nil
}

// View renders the visible part of the list.
func (l *List) View() string {
	if len(l.items) == 0 {
		return styles.PlaceholderStyle.Render(emptyPlaceholder)
	}

	lines, _ := l.render()
	if l.height > 0 {
		end := min(l.scrollY+l.height, len(lines))
		lines = lines[min(l.scrollY, end):end]
	}
	return strings.Join(lines, "\n")
}

// render draws every card and returns the lines plus the [start, end) line
// range of each card.
func (l *List) render() ([]string, [][2]int) {
	width := l.width
	if width <= cardChrome {
		width = 40
	}
	textWidth := width - cardChrome

	var lines []string
	spans := make([][2]int, len(l.items))
	for i, item := range l.items {
		style := styles.CardStyle
		if i == l.selected && l.focused {
			style = styles.CardSelectedStyle
		}
		body := styles.PlaceholderStyle.Render(pendingBody)
		if item.Text != "" {
			body = strings.Join(utils.WrapLines(item.Text, textWidth), "\n")
		}
		card := strings.Split(style.Width(width).Render(body), "\n")

		spans[i] = [2]int{len(lines), len(lines) + len(card)}
		lines = append(lines, card...)
	}
	return lines, spans
}

func (l *List) ensureVisible() {
	if len(l.items) == 0 || l.height <= 0 {
		l.scrollY = 0
		return
	}
	lines, spans := l.render()
	span := spans[l.selected]

	if span[0] < l.scrollY {
		l.scrollY = span[0]
	}
	if span[1] > l.scrollY+l.height {
		l.scrollY = span[1] - l.height
		// A card taller than the viewport shows from its top.
		if span[1]-span[0] > l.height {
			l.scrollY = span[0]
		}
	}
	maxScroll := max(len(lines)-l.height, 0)
	l.scrollY = min(max(l.scrollY, 0), maxScroll)
}
