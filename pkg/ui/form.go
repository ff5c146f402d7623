package ui

import (
	"strings"

	"vibegen/pkg/ai"
	"vibegen/pkg/completion"
	"vibegen/pkg/ui/styles"

	"charm.land/bubbles/v2/textarea"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
)

const (
	namePlaceholder = "e.g. Aditi Goyal"
	bioPlaceholder  = "e.g. Looking for something meaningful, loves coffee and traveling. Liverpool and Formula 1 fan."
	bioHeight       = 4
	generateLabel   = "Generate your msg →"
	generatingLabel = "Generating..."
)

// FormState is what gets submitted. It is not validated: empty values are
// sent as they are.
type FormState struct {
	Name string
	Bio  string
	Vibe ai.Vibe
}

// SetName replaces the name.
func (s *FormState) SetName(name string) { s.Name = name }

// SetBio replaces the bio text.
func (s *FormState) SetBio(bio string) { s.Bio = bio }

// SetVibe replaces the message style.
func (s *FormState) SetVibe(vibe ai.Vibe) { s.Vibe = vibe }

// Request packages the state for the consumer.
func (s FormState) Request() completion.Request {
	return completion.Request{Name: s.Name, Vibe: s.Vibe, Bio: s.Bio}
}

type formField int

const (
	fieldName formField = iota
	fieldBio
	fieldVibe
	fieldGenerate
	formFieldCount
)

type formAction int

const (
	formNone formAction = iota
	formSubmit
	formOpenPicker
)

// Form owns the input widgets and mirrors their values into a FormState.
type Form struct {
	state FormState
	name  textinput.Model
	bio   textarea.Model
	focus formField
	width int
}

// NewForm creates a form with vibe preselected and the name field focused.
func NewForm(vibe ai.Vibe) *Form {
	if vibe == "" {
		vibe = ai.DefaultVibe
	}

	name := textinput.New()
	name.Prompt = ""
	name.Placeholder = namePlaceholder

	bio := textarea.New()
	bio.Placeholder = bioPlaceholder
	bio.ShowLineNumbers = false
	bio.Prompt = ""
	bio.SetHeight(bioHeight)

	f := &Form{
		state: FormState{Vibe: vibe},
		name:  name,
		bio:   bio,
	}
	f.setFocus(fieldName)
	return f
}

// State returns a copy of the current values.
func (f *Form) State() FormState {
	return f.state
}

// SetState loads values into the widgets.
func (f *Form) SetState(state FormState) {
	f.name.SetValue(state.Name)
	f.bio.SetValue(state.Bio)
	f.state.SetName(f.name.Value())
	f.state.SetBio(f.bio.Value())
	f.SetVibe(state.Vibe)
}

// SetVibe changes the selected vibe; empty means the default.
func (f *Form) SetVibe(vibe ai.Vibe) {
	if vibe == "" {
		vibe = ai.DefaultVibe
	}
	f.state.SetVibe(vibe)
}

// SetWidth resizes the inputs.
func (f *Form) SetWidth(width int) {
	f.width = width
	inner := max(width-2, 10)
	f.name.SetWidth(inner)
	f.bio.SetWidth(inner)
}

// Focus gives keyboard focus back to the current field.
func (f *Form) Focus() tea.Cmd {
	return f.setFocus(f.focus)
}

// Blur drops keyboard focus from the inputs.
func (f *Form) Blur() {
	f.name.Blur()
	f.bio.Blur()
}

// Update routes a key to the focused field.
func (f *Form) Update(msg tea.KeyPressMsg) (formAction, tea.Cmd) {
	switch msg.String() {
	case "tab":
		return formNone, f.setFocus((f.focus + 1) % formFieldCount)
	case "shift+tab":
		return formNone, f.setFocus((f.focus + formFieldCount - 1) % formFieldCount)
	}

	switch f.focus {
	case fieldName:
		if msg.String() == "enter" {
			return formNone, f.setFocus(fieldBio)
		}
		var cmd tea.Cmd
		f.name, cmd = f.name.Update(msg)
		f.state.SetName(f.name.Value())
		return formNone, cmd

	case fieldBio:
		var cmd tea.Cmd
		f.bio, cmd = f.bio.Update(msg)
		f.state.SetBio(f.bio.Value())
		return formNone, cmd

	case fieldVibe:
		switch msg.String() {
		case "enter", "space":
			return formOpenPicker, nil
		case "left", "h":
			f.SetVibe(stepVibe(f.state.Vibe, -1))
		case "right", "l":
			f.SetVibe(stepVibe(f.state.Vibe, 1))
		}
		return formNone, nil

	case fieldGenerate:
		switch msg.String() {
		case "enter", "space":
			return formSubmit, nil
		}
	}
	return formNone, nil
}

// Forward passes non-key messages (cursor blink, paste) to the focused input.
func (f *Form) Forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch f.focus {
	case fieldName:
		f.name, cmd = f.name.Update(msg)
		f.state.SetName(f.name.Value())
	case fieldBio:
		f.bio, cmd = f.bio.Update(msg)
		f.state.SetBio(f.bio.Value())
	}
	return cmd
}

func (f *Form) setFocus(field formField) tea.Cmd {
	f.focus = field
	f.name.Blur()
	f.bio.Blur()
	switch field {
	case fieldName:
		return f.name.Focus()
	case fieldBio:
		return f.bio.Focus()
	}
	return nil
}

// View renders the form. busyLabel replaces the button text while a
// request is running.
func (f *Form) View(busyLabel string) string {
	var sections []string

	sections = append(sections,
		f.label(fieldName, "1  Enter Name"),
		f.name.View(),
		"",
		f.label(fieldBio, "2  Add the user bio")+styles.TextMutedStyle.Render(" (or write a few sentences about them)"),
		f.bio.View(),
		"",
		f.label(fieldVibe, "3  Select msg type"),
		f.vibeView(),
		"",
		f.buttonView(busyLabel),
	)
	return strings.Join(sections, "\n")
}

func (f *Form) label(field formField, text string) string {
	if f.focus == field {
		return styles.LabelFocusedStyle.Render(text)
	}
	return styles.LabelStyle.Render(text)
}

func (f *Form) vibeView() string {
	if f.focus == fieldVibe {
		return styles.SelectedStyle.Render("‹ "+f.state.Vibe.String()+" ›") +
			styles.FooterStyle.Render("  Left/Right Change | Enter List")
	}
	return styles.TextStyle.Render("  " + f.state.Vibe.String())
}

func (f *Form) buttonView(busyLabel string) string {
	label := generateLabel
	if busyLabel != "" {
		label = busyLabel
	}
	style := styles.ButtonStyle
	if f.focus == fieldGenerate {
		style = styles.ButtonFocusedStyle
	}
	if f.width > 0 {
		style = style.Width(f.width).Align(lipgloss.Center)
	}
	return style.Render(label)
}

func stepVibe(current ai.Vibe, delta int) ai.Vibe {
	vibes := ai.Vibes()
	idx := 0
	for i, v := range vibes {
		if v == current {
			idx = i
			break
		}
	}
	idx = (idx + delta + len(vibes)) % len(vibes)
	return vibes[idx]
}
