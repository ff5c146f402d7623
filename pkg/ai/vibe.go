package ai

import (
	"fmt"
	"strings"
)

// Vibe is the message style sent along with the bio to bias the generated tone.
type Vibe string

const (
	VibePun           Vibe = "Pun"
	VibeFlirty        Vibe = "Flirty"
	VibeInspirational Vibe = "Inspirational"
	VibeLyrics        Vibe = "Lyrics"
	VibeFunny         Vibe = "Funny"
)

// DefaultVibe is preselected in the form.
const DefaultVibe = VibePun

// Vibes returns every vibe in display order.
func Vibes() []Vibe {
	return []Vibe{VibePun, VibeFlirty, VibeInspirational, VibeLyrics, VibeFunny}
}

// VibeNames returns the display names of Vibes.
func VibeNames() []string {
	vibes := Vibes()
	names := make([]string, len(vibes))
	for i, v := range vibes {
		names[i] = string(v)
	}
	return names
}

// ParseVibe matches s case-insensitively against the known vibes.
func ParseVibe(s string) (Vibe, error) {
	trimmed := strings.TrimSpace(s)
	for _, v := range Vibes() {
		if strings.EqualFold(trimmed, string(v)) {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown vibe %q (want one of %s)", s, strings.Join(VibeNames(), ", "))
}

func (v Vibe) String() string {
	return string(v)
}
