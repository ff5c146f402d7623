// Package styles holds the vibegen palette and the shared lipgloss styles used
// by the form, the suggestion cards and the overlays.
package styles

import (
	"charm.land/lipgloss/v2"
)

// Color palette - ANSI 256 colors used throughout the application
var (
	ColorAccent = lipgloss.Color("205") // pink, the page's brand color

	ColorText       = lipgloss.Color("252")
	ColorTextMuted  = lipgloss.Color("245")
	ColorTextBright = lipgloss.Color("15")

	ColorError   = lipgloss.Color("196")
	ColorSuccess = lipgloss.Color("42")

	ColorPlaceholder = lipgloss.Color("240")

	ColorBorder      = lipgloss.Color("205")
	ColorBorderMuted = lipgloss.Color("238")
	ColorSelectedBg  = lipgloss.Color("236")
)

// Panel/Box styles
var (
	// BoxStyle is the rounded box for overlays such as the vibe picker.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(1, 2)

	// CardStyle frames one suggestion.
	CardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorderMuted).
			Padding(0, 1)

	// CardSelectedStyle frames the suggestion under the cursor.
	CardSelectedStyle = CardStyle.
				BorderForeground(ColorAccent)
)

// Text styles
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	TextStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	TextMutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	// LabelStyle for form field labels
	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Bold(true)

	// LabelFocusedStyle for the label of the focused field
	LabelFocusedStyle = lipgloss.NewStyle().
				Foreground(ColorAccent).
				Bold(true)

	// SelectedStyle highlights the current row in lists.
	SelectedStyle = lipgloss.NewStyle().
			Foreground(ColorTextBright).
			Background(ColorSelectedBg).
			Bold(true)

	PlaceholderStyle = lipgloss.NewStyle().
				Foreground(ColorPlaceholder)

	// FooterStyle for footer/help text
	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Italic(true)
)

// Button styles
var (
	ButtonStyle = lipgloss.NewStyle().
			Foreground(ColorText).
			Background(ColorBorderMuted).
			Padding(0, 2)

	ButtonFocusedStyle = lipgloss.NewStyle().
				Foreground(ColorTextBright).
				Background(ColorAccent).
				Bold(true).
				Padding(0, 2)
)

// Toast styles
var (
	ToastStyle = lipgloss.NewStyle().
			Foreground(ColorTextBright).
			Background(ColorSuccess).
			Padding(0, 1)

	ToastErrorStyle = lipgloss.NewStyle().
			Foreground(ColorTextBright).
			Background(ColorError).
			Padding(0, 1)
)
