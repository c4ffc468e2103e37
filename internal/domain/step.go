package domain

import "time"

// Step is the atomic recorded unit: one user action plus the screenshot,
// network traffic and console output attributed to its association window.
// Once appended to a TestCase a Step is immutable.
type Step struct {
	Sequence    int        `json:"sequence"`
	Kind        ActionKind `json:"kind"`
	RawType     string     `json:"rawType,omitempty"`
	Target      Target     `json:"target"`
	Value       string     `json:"value,omitempty"`
	Key         string     `json:"key,omitempty"`
	URL         string     `json:"url,omitempty"`
	Description string     `json:"description"`
	Timestamp   time.Time  `json:"timestamp"`
	// Screenshot is the path of the captured image relative to the output
	// directory, empty when capture failed or did not settle in time.
	Screenshot    string         `json:"screenshot,omitempty"`
	NetworkEvents []NetworkEvent `json:"networkEvents"`
	ConsoleEvents []ConsoleEvent `json:"consoleEvents"`
}

// clone returns a deep copy. Maps inside events are copied so snapshot
// readers can never observe writer mutations.
func (s Step) clone() Step {
	out := s
	out.NetworkEvents = make([]NetworkEvent, len(s.NetworkEvents))
	for i, ev := range s.NetworkEvents {
		ev.RequestHeaders = cloneHeaders(ev.RequestHeaders)
		ev.ResponseHeaders = cloneHeaders(ev.ResponseHeaders)
		out.NetworkEvents[i] = ev
	}
	out.ConsoleEvents = make([]ConsoleEvent, len(s.ConsoleEvents))
	copy(out.ConsoleEvents, s.ConsoleEvents)
	return out
}

func cloneHeaders(h map[string]string) map[string]string {
	if h == nil {
		return nil
	}
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}
