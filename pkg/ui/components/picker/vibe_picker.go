package picker

import (
	"strings"

	"vibegen/pkg/ai"
	"vibegen/pkg/ui/components/utils"
	"vibegen/pkg/ui/styles"

	tea "charm.land/bubbletea/v2"
)

const vibePickerFooter = "Up/Down Navigate | Enter Select | Esc Cancel"

// VibeSelectedMsg is emitted when the user confirms a vibe.
type VibeSelectedMsg struct {
	Vibe ai.Vibe
}

// VibePicker is a modal list of the supported vibes.
type VibePicker struct {
	options  []ai.Vibe
	selected int
	scroll   int
	visible  bool
	width    int
	height   int
}

// NewVibePicker creates a hidden picker listing every vibe.
func NewVibePicker() *VibePicker {
	return &VibePicker{options: ai.Vibes()}
}

// Show opens the picker with current preselected.
func (p *VibePicker) Show(current ai.Vibe) {
	p.visible = true
	p.selected = 0
	p.scroll = 0
	for i, v := range p.options {
		if v == current {
			p.selected = i
			break
		}
	}
	p.ensureVisible(p.listHeight())
}

// Hide hides the picker.
func (p *VibePicker) Hide() {
	p.visible = false
}

// IsVisible reports whether the picker is visible.
func (p *VibePicker) IsVisible() bool {
	return p.visible
}

// Selected returns the vibe under the cursor.
func (p *VibePicker) Selected() ai.Vibe {
	if p.selected < 0 || p.selected >= len(p.options) {
		return ai.DefaultVibe
	}
	return p.options[p.selected]
}

// SetSize updates the picker dimensions.
func (p *VibePicker) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// Update handles keyboard input while the picker is open.
func (p *VibePicker) Update(msg tea.KeyPressMsg) tea.Cmd {
	if !p.visible || len(p.options) == 0 {
		return nil
	}

	listHeight := p.listHeight()

	switch msg.String() {
	case "up", "k":
		if p.selected > 0 {
			p.selected--
		}
	case "down", "j":
		if p.selected < len(p.options)-1 {
			p.selected++
		}
	case "home":
		p.selected = 0
	case "end":
		p.selected = len(p.options) - 1
	case "enter", "space":
		vibe := p.Selected()
		p.Hide()
		return func() tea.Msg {
			return VibeSelectedMsg{Vibe: vibe}
		}
	case "esc":
		p.Hide()
		return nil
	}

	p.ensureVisible(listHeight)
	return nil
}

// View renders the picker.
func (p *VibePicker) View() string {
	if !p.visible {
		return ""
	}

	boxWidth, contentWidth, listHeight := p.dimensions()

	var content strings.Builder
	content.WriteString(styles.TitleStyle.Render("Vibe"))
	content.WriteString("\n\n")

	for i := 0; i < listHeight; i++ {
		index := p.scroll + i
		if index >= len(p.options) {
			break
		}
		line := "  " + p.options[index].String()
		if index == p.selected {
			content.WriteString(styles.SelectedStyle.Render(utils.PadPlain(line, contentWidth)))
		} else {
			content.WriteString(styles.TextStyle.Render(line))
		}
		content.WriteString("\n")
	}

	content.WriteString("\n")
	content.WriteString(styles.FooterStyle.Render(utils.TruncateToWidth(vibePickerFooter, contentWidth)))

	return styles.BoxStyle.Width(boxWidth).Render(content.String())
}

func (p *VibePicker) ensureVisible(listHeight int) {
	if p.selected < 0 {
		p.selected = 0
	}
	if p.selected >= len(p.options) {
		p.selected = len(p.options) - 1
	}

	maxScroll := max(len(p.options)-listHeight, 0)
	p.scroll = min(p.scroll, maxScroll)
	if p.selected < p.scroll {
		p.scroll = p.selected
	}
	if p.selected >= p.scroll+listHeight {
		p.scroll = p.selected - listHeight + 1
	}
	p.scroll = max(p.scroll, 0)
}

func (p *VibePicker) dimensions() (int, int, int) {
	width := p.width
	height := p.height
	if width <= 0 {
		width = 80
	}
	if height <= 0 {
		height = 24
	}

	boxWidth := min(max(width-2, 30), 50)
	contentWidth := max(boxWidth-6, 10)

	// Title, blank line, blank line, footer, plus the box's border and padding.
	const fixedLines = 4 + 4
	listHeight := max(height-fixedLines, 1)
	listHeight = min(listHeight, len(p.options))

	return boxWidth, contentWidth, max(listHeight, 1)
}

func (p *VibePicker) listHeight() int {
	_, _, listHeight := p.dimensions()
	return listHeight
}
