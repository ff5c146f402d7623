package ai

import (
	"fmt"
	"strings"
)

// MaxMessageChars bounds each generated message.
const MaxMessageChars = 300

// BuildBioMessages turns the form values into system and user messages.
// Values are used as given: an empty name or bio still yields a request.
func BuildBioMessages(name string, vibe Vibe, bio string) []Message {
	return []Message{
		{Role: RoleSystem, Content: bioSystemPrompt()},
		{Role: RoleUser, Content: buildBioUserPrompt(name, vibe, bio)},
	}
}

func bioSystemPrompt() string {
	return strings.Join([]string{
		"You write short messages that someone can send to the person described.",
		`Answer with a numbered list of exactly two items labeled "1." and "2." and nothing else.`,
		"Do not add hashtags, titles, or commentary before or after the list.",
	}, " ")
}

func buildBioUserPrompt(name string, vibe Vibe, bio string) string {
	var sb strings.Builder

	style := strings.ToLower(strings.TrimSpace(string(vibe)))
	if style == "" {
		style = strings.ToLower(string(DefaultVibe))
	}

	sb.WriteString(fmt.Sprintf("Generate 2 %s messages", style))
	if n := strings.TrimSpace(name); n != "" {
		sb.WriteString(fmt.Sprintf(" for %s", n))
	}
	sb.WriteString(` with no hashtags and clearly labeled "1." and "2.". `)

	if extra := vibeInstruction(vibe); extra != "" {
		sb.WriteString(extra)
		sb.WriteString(" ")
	}

	sb.WriteString(fmt.Sprintf(
		"Make sure each generated message is less than %d characters, has short sentences, and base them on this context: %s",
		MaxMessageChars, bio))
	if !strings.HasSuffix(bio, ".") {
		sb.WriteString(".")
	}

	return sb.String()
}

func vibeInstruction(vibe Vibe) string {
	switch vibe {
	case VibePun:
		return "Build each message around a pun, ideally on their name or interests."
	case VibeFlirty:
		return "Keep it flirty and charming but never crude."
	case VibeInspirational:
		return "Make it warm and uplifting."
	case VibeLyrics:
		return "Write each message as a short rhyming lyric."
	case VibeFunny:
		return "Make sure there is a joke in there and it's a little ridiculous."
	}
	return ""
}
