package domain

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		raw        string
		want       ActionKind
		recognized bool
	}{
		{"click", ActionClick, true},
		{"dblclick", ActionClick, true},
		{"check", ActionClick, true},
		{"uncheck", ActionClick, true},
		{"input", ActionInput, true},
		{"select", ActionInput, true},
		{"keypress", ActionInput, true},
		{"navigate", ActionNavigation, true},
		{"CLICK", ActionClick, true},
		{"swipe", ActionOther, false},
		{"", ActionOther, false},
	}
	for _, c := range cases {
		got, recognized := KindOf(c.raw)
		if got != c.want || recognized != c.recognized {
			t.Errorf("KindOf(%q) = (%v, %v), want (%v, %v)", c.raw, got, recognized, c.want, c.recognized)
		}
	}
}

func TestTargetLabel(t *testing.T) {
	if got := (Target{Selector: "#x", Text: "Login", ElementID: "btn"}).Label(); got != "Login" {
		t.Errorf("text should win, got %q", got)
	}
	if got := (Target{Selector: "#x", ElementID: "btn"}).Label(); got != "btn" {
		t.Errorf("element id should be second, got %q", got)
	}
	if got := (Target{Selector: "#x", Placeholder: "email"}).Label(); got != "email" {
		t.Errorf("placeholder should be third, got %q", got)
	}
	if got := (Target{Selector: "#x"}).Label(); got != "#x" {
		t.Errorf("selector is the fallback, got %q", got)
	}
}

func TestDescribe(t *testing.T) {
	cases := []struct {
		action Action
		want   string
	}{
		{Action{Kind: ActionClick, RawType: "click", Target: Target{Text: "Login"}}, `Click on "Login"`},
		{Action{Kind: ActionClick, RawType: "dblclick", Target: Target{Text: "Row"}}, `Double-click on "Row"`},
		{Action{Kind: ActionInput, RawType: "input", Target: Target{Placeholder: "email"}, Value: "a@b.com"}, `Type "a@b.com" in "email"`},
		{Action{Kind: ActionInput, RawType: "keypress", Key: "Enter"}, "Press Enter"},
		{Action{Kind: ActionNavigation, RawType: "navigate", URL: "https://example.com"}, "Navigate to https://example.com"},
		{Action{Kind: ActionClick, RawType: "check", Target: Target{ElementID: "tos"}}, `Check "tos"`},
	}
	for _, c := range cases {
		if got := c.action.Describe(); got != c.want {
			t.Errorf("Describe(%s) = %q, want %q", c.action.RawType, got, c.want)
		}
	}
}

func TestDescribeTruncatesLongInput(t *testing.T) {
	a := Action{Kind: ActionInput, RawType: "input", Target: Target{TagName: "input"}, Value: "0123456789012345678901234567890"}
	want := `Type "01234567890123456789..." in "input"`
	if got := a.Describe(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

// Truncation counts runes, never splitting a multi-byte character.
func TestDescribeTruncatesAtRuneBoundary(t *testing.T) {
	a := Action{Kind: ActionInput, RawType: "input", Target: Target{TagName: "input"}, Value: strings.Repeat("п", 25)}
	want := `Type "` + strings.Repeat("п", 20) + `..." in "input"`
	if got := a.Describe(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if !utf8.ValidString(a.Describe()) {
		t.Error("description contains a split rune")
	}
}

func TestTargetLabelTruncatesAtRuneBoundary(t *testing.T) {
	got := Target{Selector: "#x", Text: strings.Repeat("日", 40)}.Label()
	if got != strings.Repeat("日", 30) {
		t.Errorf("got %q", got)
	}
	if !utf8.ValidString(got) {
		t.Error("label contains a split rune")
	}
}
