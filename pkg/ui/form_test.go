package ui

import (
	"strings"
	"testing"

	"vibegen/pkg/ai"
	"vibegen/pkg/ui/components/testutils"

	"github.com/charmbracelet/x/ansi"
)

func typeInto(f *Form, text string) {
	for _, key := range testutils.TypeText(text) {
		f.Update(key)
	}
}

func TestFormStateSetters(t *testing.T) {
	var s FormState
	s.SetName("Aditi Goyal")
	s.SetBio("Loves coffee")
	s.SetVibe(ai.VibeLyrics)

	req := s.Request()
	if req.Name != "Aditi Goyal" || req.Bio != "Loves coffee" || req.Vibe != ai.VibeLyrics {
		t.Fatalf("Unexpected request: %+v", req)
	}
}

func TestFormDefaults(t *testing.T) {
	f := NewForm("")
	if f.State().Vibe != ai.DefaultVibe {
		t.Fatalf("Expected default vibe, got %q", f.State().Vibe)
	}
	if f.focus != fieldName {
		t.Fatalf("Expected name field focused, got %d", f.focus)
	}

	f = NewForm(ai.VibeFunny)
	if f.State().Vibe != ai.VibeFunny {
		t.Fatalf("Expected configured vibe, got %q", f.State().Vibe)
	}
}

func TestFormTypingUpdatesState(t *testing.T) {
	f := NewForm(ai.VibePun)
	f.SetWidth(60)

	typeInto(f, "Aditi")
	f.Update(testutils.TestKeyEnter)
	if f.focus != fieldBio {
		t.Fatalf("Expected enter on name to move to bio, got %d", f.focus)
	}
	typeInto(f, "Liverpool fan")

	state := f.State()
	if state.Name != "Aditi" {
		t.Errorf("Expected name 'Aditi', got %q", state.Name)
	}
	if state.Bio != "Liverpool fan" {
		t.Errorf("Expected bio 'Liverpool fan', got %q", state.Bio)
	}
}

func TestFormTabCyclesFields(t *testing.T) {
	f := NewForm(ai.VibePun)

	want := []formField{fieldBio, fieldVibe, fieldGenerate, fieldName}
	for _, field := range want {
		f.Update(testutils.TestKeyTab)
		if f.focus != field {
			t.Fatalf("Expected focus %d, got %d", field, f.focus)
		}
	}

	f.Update(testutils.TestKeyShiftTab)
	if f.focus != fieldGenerate {
		t.Fatalf("Expected shift+tab to wrap to generate, got %d", f.focus)
	}
}

func TestFormVibeField(t *testing.T) {
	f := NewForm(ai.VibePun)
	f.setFocus(fieldVibe)

	f.Update(testutils.TestKeyRight)
	if f.State().Vibe != ai.VibeFlirty {
		t.Fatalf("Expected Flirty after right, got %q", f.State().Vibe)
	}
	f.Update(testutils.TestKeyLeft)
	f.Update(testutils.TestKeyLeft)
	if f.State().Vibe != ai.VibeFunny {
		t.Fatalf("Expected wrap to Funny, got %q", f.State().Vibe)
	}

	action, _ := f.Update(testutils.TestKeyEnter)
	if action != formOpenPicker {
		t.Fatalf("Expected enter on vibe to open picker, got %d", action)
	}
}

func TestFormGenerateButtonSubmits(t *testing.T) {
	f := NewForm(ai.VibePun)
	f.setFocus(fieldGenerate)

	action, _ := f.Update(testutils.TestKeyEnter)
	if action != formSubmit {
		t.Fatalf("Expected submit action, got %d", action)
	}
}

func TestFormEmptyValuesPassThrough(t *testing.T) {
	f := NewForm(ai.VibePun)
	f.SetState(FormState{})

	req := f.State().Request()
	if req.Name != "" || req.Bio != "" {
		t.Fatalf("Expected empty values, got %+v", req)
	}
	if req.Vibe != ai.DefaultVibe {
		t.Fatalf("Expected default vibe for empty state, got %q", req.Vibe)
	}
}

func TestFormView(t *testing.T) {
	f := NewForm(ai.VibeInspirational)
	f.SetWidth(60)

	view := ansi.Strip(f.View(""))
	for _, want := range []string{"Enter Name", "Add the user bio", "Select msg type", "Inspirational", generateLabel} {
		if !strings.Contains(view, want) {
			t.Errorf("Expected %q in form view:\n%s", want, view)
		}
	}

	busy := ansi.Strip(f.View(generatingLabel))
	if !strings.Contains(busy, generatingLabel) || strings.Contains(busy, generateLabel) {
		t.Errorf("Expected busy label to replace button text:\n%s", busy)
	}
}
