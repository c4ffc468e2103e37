package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// ActionKind is the canonical variant of a recorded Step. Raw browser event
// types (dblclick, select, check, keypress, ...) fold into these four.
type ActionKind string

const (
	ActionClick      ActionKind = "click"
	ActionInput      ActionKind = "input"
	ActionNavigation ActionKind = "navigation"
	ActionOther      ActionKind = "other"
)

// rawKinds maps browser-side event types to canonical kinds. Anything not
// listed here classifies as ActionOther rather than being rejected.
var rawKinds = map[string]ActionKind{
	"click":    ActionClick,
	"dblclick": ActionClick,
	"check":    ActionClick,
	"uncheck":  ActionClick,
	"input":    ActionInput,
	"select":   ActionInput,
	"keypress": ActionInput,
	"navigate": ActionNavigation,
}

// KindOf classifies a raw browser event type. ok is false when the type was
// unrecognized and the action fell back to ActionOther.
func KindOf(raw string) (ActionKind, bool) {
	if k, found := rawKinds[strings.ToLower(raw)]; found {
		return k, true
	}
	return ActionOther, false
}

// Target locates the element an action was performed on. Selector is the only
// required field; the rest enrich descriptions and screenshot filenames.
type Target struct {
	Selector    string `json:"selector"`
	TagName     string `json:"tagName,omitempty"`
	ElementID   string `json:"elementId,omitempty"`
	Text        string `json:"text,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
}

// Label returns the human identifier for the target, preferring visible text
// over element id, placeholder and tag name.
func (t Target) Label() string {
	text := truncate(t.Text, 30)
	for _, c := range []string{text, t.ElementID, t.Placeholder, t.TagName} {
		if c != "" {
			return c
		}
	}
	return t.Selector
}

// Action is one raw user-driven event delivered by the browser boundary.
// RawType keeps the original browser event type; Kind is the canonical
// classification.
type Action struct {
	Kind      ActionKind `json:"kind"`
	RawType   string     `json:"rawType,omitempty"`
	Target    Target     `json:"target"`
	Value     string     `json:"value,omitempty"`
	Key       string     `json:"key,omitempty"`
	URL       string     `json:"url,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// Describe renders the short human description used in reports and the
// terminal step log.
func (a Action) Describe() string {
	label := a.Target.Label()
	switch a.RawType {
	case "dblclick":
		return fmt.Sprintf("Double-click on %q", label)
	case "check":
		return fmt.Sprintf("Check %q", label)
	case "uncheck":
		return fmt.Sprintf("Uncheck %q", label)
	case "select":
		return fmt.Sprintf("Select %q in %q", a.Value, label)
	case "keypress":
		return fmt.Sprintf("Press %s", a.Key)
	}
	switch a.Kind {
	case ActionClick:
		return fmt.Sprintf("Click on %q", label)
	case ActionInput:
		value := a.Value
		if utf8.RuneCountInString(value) > 20 {
			value = truncate(value, 20) + "..."
		}
		return fmt.Sprintf("Type %q in %q", value, label)
	case ActionNavigation:
		return fmt.Sprintf("Navigate to %s", a.URL)
	default:
		return fmt.Sprintf("%s on %q", a.RawType, label)
	}
}

// truncate caps s at max runes; slicing bytes could split a multi-byte rune.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
