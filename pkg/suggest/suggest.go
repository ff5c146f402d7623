// Package suggest slices a streamed completion into individual suggestions.
package suggest

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Parser splits accumulated completion text into raw segments. Parsers never
// fail; malformed text yields degraded segments.
type Parser func(text string) []string

// Parser names accepted by ForName.
const (
	Legacy   = "legacy"
	Numbered = "numbered"
)

// ForName returns the parser registered under name, falling back to Split.
func ForName(name string) Parser {
	if strings.EqualFold(strings.TrimSpace(name), Numbered) {
		return ParseNumbered
	}
	return Split
}

// firstMarkerSkip moves past the assumed "1. " of the first list marker.
const firstMarkerSkip = len("1. ")

// Split locates the first "1", skips the three characters of its marker and
// cuts the remainder on every literal "2.". Without a "1" the cut starts at
// index 2; the offset is clamped to the text length.
func Split(text string) []string {
	start := strings.Index(text, "1") + firstMarkerSkip
	start = min(max(start, 0), len(text))
	return strings.Split(text[start:], "2.")
}

var markerPattern = regexp.MustCompile(`(?:^|\s)(\d{1,2})[.)]`)

// ParseNumbered accepts "N." or "N)" markers at a line or word start as long
// as they count up from 1, so a stray "2." inside a message is left alone
// once the list has moved past it. Segments are trimmed and empty ones
// dropped. Text without a "1" marker becomes a single segment.
func ParseNumbered(text string) []string {
	type marker struct{ start, end int }

	var markers []marker
	want := 1
	for _, loc := range markerPattern.FindAllStringSubmatchIndex(text, -1) {
		if loc[1] < len(text) && !unicode.IsSpace(rune(text[loc[1]])) {
			continue
		}
		n, err := strconv.Atoi(text[loc[2]:loc[3]])
		if err != nil || n != want {
			continue
		}
		markers = append(markers, marker{start: loc[2], end: loc[1]})
		want++
	}

	if len(markers) == 0 {
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			return []string{trimmed}
		}
		return nil
	}

	segments := make([]string, 0, len(markers))
	for i, m := range markers {
		end := len(text)
		if i+1 < len(markers) {
			end = markers[i+1].start
		}
		if seg := strings.TrimSpace(text[m.end:end]); seg != "" {
			segments = append(segments, seg)
		}
	}
	return segments
}

// Suggestion is one card: Raw is what gets copied, Text is what gets shown.
type Suggestion struct {
	Raw  string
	Text string
}

// Parse runs p over text and pairs each segment with its display form.
func Parse(p Parser, text string) []Suggestion {
	if p == nil {
		p = Split
	}
	segments := p(text)
	out := make([]Suggestion, len(segments))
	for i, seg := range segments {
		out[i] = Suggestion{Raw: seg, Text: strings.TrimSpace(seg)}
	}
	return out
}
