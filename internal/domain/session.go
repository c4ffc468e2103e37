package domain

import "time"

type SessionState string

const (
	StateIdle      SessionState = "idle"
	StateRecording SessionState = "recording"
	StateStopped   SessionState = "stopped"
)

type BrowserKind string

const (
	BrowserChromium BrowserKind = "chromium"
	BrowserFirefox  BrowserKind = "firefox"
	BrowserWebkit   BrowserKind = "webkit"
)

// Session describes one start-to-stop recording lifecycle. The configuration
// fields (BrowserKind, TargetURL, TimeoutMs, Headless) are captured at Start
// and never mutated afterwards.
type Session struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	StartedAt   time.Time    `json:"startedAt"`
	EndedAt     *time.Time   `json:"endedAt"`
	BrowserKind BrowserKind  `json:"browserKind"`
	TargetURL   string       `json:"targetUrl"`
	TimeoutMs   int          `json:"timeoutMs"`
	Headless    bool         `json:"headless"`
	State       SessionState `json:"state"`
}

// Diagnostics aggregates non-fatal capture and association failures for a
// session. Counters only; individual dropped events are not retained.
type Diagnostics struct {
	PreRecordingDropped int `json:"preRecordingDropped"`
	LateDropped         int `json:"lateDropped"`
	ScreenshotFailures  int `json:"screenshotFailures"`
	MalformedActions    int `json:"malformedActions"`
}

func (d Diagnostics) TotalDropped() int {
	return d.PreRecordingDropped + d.LateDropped
}
