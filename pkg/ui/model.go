package ui

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"vibegen/pkg/ai"
	"vibegen/pkg/completion"
	"vibegen/pkg/suggest"
	"vibegen/pkg/ui/components/cards"
	"vibegen/pkg/ui/components/picker"
	"vibegen/pkg/ui/components/toast"
	"vibegen/pkg/ui/styles"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
)

const (
	appTitle     = "vibegen"
	appTagline   = "Compose Flirty Messages, Lyrics, and Puns Tailored to Any Profile!"
	cardsHeading = "Your generated bios"
	maxBodyWidth = 72

	formFooter  = "Tab Next field | Ctrl+S Generate | Ctrl+C Quit"
	cardsFooter = "Up/Down Select | Enter Copy | Tab Back to form | Ctrl+C Quit"
	busyFooter  = "Esc Stop generating | Ctrl+C Quit"
)

type focusArea int

const (
	focusForm focusArea = iota
	focusCards
)

// Options configures NewModel.
type Options struct {
	Consumer       *completion.Consumer
	Parser         suggest.Parser
	DefaultVibe    ai.Vibe
	StreamThrottle time.Duration
}

// Model is the whole TUI state. It changes only through Update.
type Model struct {
	ctx      context.Context
	consumer *completion.Consumer
	parser   suggest.Parser

	form    *Form
	picker  *picker.VibePicker
	cards   *cards.List
	toast   *toast.Toast
	spinner spinner.Model

	focus focusArea

	// Current submission
	handle           *completion.Handle
	busy             bool
	scrolledIntoView bool
	buffer           string
	rendered         string

	streamThrottleDelay   time.Duration
	streamThrottlePending bool

	width  int
	height int
	ready  bool
}

// NewModel creates the TUI model. ctx bounds every submission.
func NewModel(ctx context.Context, opts Options) Model {
	if ctx == nil {
		ctx = context.Background()
	}
	return Model{
		ctx:                 ctx,
		consumer:            opts.Consumer,
		parser:              opts.Parser,
		form:                NewForm(opts.DefaultVibe),
		picker:              picker.NewVibePicker(),
		cards:               cards.New(),
		toast:               toast.New(toast.DefaultDuration),
		spinner:             spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.TitleStyle)),
		streamThrottleDelay: opts.StreamThrottle,
	}
}

// Init focuses the name field.
func (m Model) Init() tea.Cmd {
	return m.form.Focus()
}

// Update handles messages and updates model state (Bubble Tea lifecycle method)
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.layout()
		return m, nil

	case tea.KeyPressMsg:
		return m.handleKey(msg)

	case picker.VibeSelectedMsg:
		m.form.SetVibe(msg.Vibe)
		return m, nil

	case cards.CopyMsg:
		return m, copyToClipboard(msg.Text)

	case clipboardMsg:
		if msg.err != nil {
			return m, m.toast.Show("Copy failed: "+msg.err.Error(), toast.KindError)
		}
		slog.Debug("clipboard_copy", "chars", msg.chars)
		return m, m.toast.Show(copiedNotice, toast.KindInfo)

	case toast.ExpiredMsg:
		m.toast.Update(msg)
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case streamEventMsg:
		return m.handleStreamEvent(msg.event)

	case streamClosedMsg:
		if m.handle != nil && msg.id == m.handle.ID() && m.busy {
			m.busy = false
			m.streamThrottlePending = false
			m.renderCards()
		}
		return m, nil

	case streamThrottleFlushMsg:
		if m.streamThrottlePending {
			m.streamThrottlePending = false
			m.renderCards()
		}
		return m, nil
	}

	return m, m.form.Forward(msg)
}

func (m Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		if m.consumer != nil {
			m.consumer.Cancel()
		}
		return m, tea.Quit
	}

	if m.picker.IsVisible() {
		return m, m.picker.Update(msg)
	}

	switch msg.String() {
	case "ctrl+s":
		return m.submit()
	case "esc":
		if m.busy {
			m.stop()
			return m, nil
		}
		if m.focus == focusCards {
			return m, m.focusOnForm()
		}
		return m, nil
	}

	if m.focus == focusCards {
		switch msg.String() {
		case "tab", "shift+tab":
			return m, m.focusOnForm()
		}
		return m, m.cards.Update(msg)
	}

	action, cmd := m.form.Update(msg)
	switch action {
	case formSubmit:
		return m.submit()
	case formOpenPicker:
		m.picker.Show(m.form.State().Vibe)
	}
	return m, cmd
}

// submit hands the form values to the consumer. The previous submission, if
// still running, is superseded and its remaining events are dropped.
func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.consumer == nil {
		return m, m.toast.Show("No completion source configured", toast.KindError)
	}

	wasBusy := m.busy
	m.handle = m.consumer.Submit(m.ctx, m.form.State().Request())
	m.busy = true
	m.scrolledIntoView = false
	m.buffer = ""
	m.streamThrottlePending = false

	cmds := []tea.Cmd{waitForEvent(m.handle)}
	if !wasBusy {
		cmds = append(cmds, m.spinner.Tick)
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) stop() {
	if m.handle != nil {
		m.handle.Cancel()
	}
}

func (m Model) handleStreamEvent(ev completion.Event) (tea.Model, tea.Cmd) {
	if m.handle == nil || ev.ID != m.handle.ID() {
		return m, nil
	}
	if ev.Done {
		return m.finishStream(ev)
	}

	m.buffer = ev.Text
	cmds := []tea.Cmd{waitForEvent(m.handle)}

	switch {
	case !m.scrolledIntoView:
		m.scrolledIntoView = true
		m.renderCards()
		m.cards.Reset()
		m.focusOnCards()
	case m.streamThrottleDelay <= 0:
		m.renderCards()
	case !m.streamThrottlePending:
		m.streamThrottlePending = true
		cmds = append(cmds, streamThrottleTick(m.streamThrottleDelay))
	}
	return m, tea.Batch(cmds...)
}

func (m Model) finishStream(ev completion.Event) (tea.Model, tea.Cmd) {
	m.busy = false
	m.streamThrottlePending = false

	// Text is empty when the failure came before any chunk; the cards then
	// keep the previous result.
	if ev.Text != "" || ev.Err == nil {
		m.buffer = ev.Text
		m.renderCards()
	}

	switch {
	case ev.Err == nil:
		return m, nil
	case errors.Is(ev.Err, completion.ErrSuperseded):
		return m, nil
	case errors.Is(ev.Err, completion.ErrStopped), errors.Is(ev.Err, context.Canceled):
		return m, m.toast.Show("Generation stopped", toast.KindInfo)
	default:
		return m, m.toast.Show("Generation failed: "+ev.Err.Error(), toast.KindError)
	}
}

// renderCards parses the buffer into cards, one card per segment.
func (m *Model) renderCards() {
	m.rendered = m.buffer
	m.cards.SetSuggestions(suggest.Parse(m.parser, m.buffer))
}

func (m *Model) focusOnCards() {
	m.focus = focusCards
	m.form.Blur()
	m.cards.Focus()
}

func (m *Model) focusOnForm() tea.Cmd {
	m.focus = focusForm
	m.cards.Blur()
	return m.form.Focus()
}

func (m *Model) bodyWidth() int {
	width := m.width
	if width <= 0 {
		width = 80
	}
	return min(width-2, maxBodyWidth)
}

// layout sizes the components after a resize.
func (m *Model) layout() {
	width := m.bodyWidth()
	m.form.SetWidth(width)
	m.picker.SetSize(m.width, m.height)

	fixed := lipgloss.Height(m.headerView()) + 1 +
		lipgloss.Height(m.form.View("")) + 1 +
		2 + // divider, heading
		1 + 1 // toast, footer
	m.cards.SetSize(width, max(m.height-fixed, 3))
}

// View renders the UI (Bubble Tea lifecycle method)
func (m Model) View() tea.View {
	v := tea.NewView(m.render())
	v.AltScreen = true
	return v
}

func (m Model) render() string {
	if !m.ready {
		return "Initializing..."
	}

	if m.picker.IsVisible() {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.picker.View())
	}

	width := m.bodyWidth()
	busyLabel := ""
	if m.busy {
		busyLabel = m.spinner.View() + " " + generatingLabel
	}

	sections := []string{
		m.headerView(),
		m.toast.View(width),
		m.form.View(busyLabel),
		styles.TextMutedStyle.Render(strings.Repeat("─", width)),
	}
	if m.cards.Len() > 0 {
		sections = append(sections, styles.TitleStyle.Render(cardsHeading), m.cards.View())
	}
	sections = append(sections, styles.FooterStyle.Render(m.footerText()))

	return lipgloss.NewStyle().Padding(0, 1).Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m Model) headerView() string {
	return styles.TitleStyle.Render(appTitle) + "\n" + styles.TextMutedStyle.Render(appTagline)
}

func (m Model) footerText() string {
	switch {
	case m.busy:
		return busyFooter
	case m.focus == focusCards:
		return cardsFooter
	default:
		return formFooter
	}
}

// Busy reports whether a submission is streaming.
func (m Model) Busy() bool { return m.busy }

// Buffer is the accumulated text of the current submission.
func (m Model) Buffer() string { return m.buffer }

// Displayed is the buffer the cards were last parsed from.
func (m Model) Displayed() string { return m.rendered }

// State returns the form values.
func (m Model) State() FormState { return m.form.State() }
