package domain

import "time"

// NetworkEvent is one captured request/response pair. Status and the response
// fields stay unset when the request never completed.
type NetworkEvent struct {
	Method          string            `json:"method"`
	URL             string            `json:"url"`
	Status          *int              `json:"status,omitempty"`
	ResourceType    string            `json:"resourceType,omitempty"`
	RequestHeaders  map[string]string `json:"requestHeaders,omitempty"`
	RequestBody     string            `json:"requestBody,omitempty"`
	ResponseHeaders map[string]string `json:"responseHeaders,omitempty"`
	ResponseBody    string            `json:"responseBody,omitempty"`
	Error           string            `json:"error,omitempty"`
	Timestamp       time.Time         `json:"timestamp"`
}

type ConsoleLevel string

const (
	LevelLog   ConsoleLevel = "log"
	LevelInfo  ConsoleLevel = "info"
	LevelWarn  ConsoleLevel = "warn"
	LevelError ConsoleLevel = "error"
	LevelDebug ConsoleLevel = "debug"
	LevelTrace ConsoleLevel = "trace"
)

// NormalizeLevel folds unknown console levels to LevelLog.
func NormalizeLevel(raw string) ConsoleLevel {
	switch ConsoleLevel(raw) {
	case LevelLog, LevelInfo, LevelWarn, LevelError, LevelDebug, LevelTrace:
		return ConsoleLevel(raw)
	case "warning":
		return LevelWarn
	default:
		return LevelLog
	}
}

// ConsoleEvent is one browser console entry.
type ConsoleEvent struct {
	Level     ConsoleLevel `json:"level"`
	Message   string       `json:"message"`
	Source    string       `json:"source,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// PageError is an uncaught JavaScript error. Page errors are session-wide,
// not associated to a Step window.
type PageError struct {
	Message   string    `json:"message"`
	Stack     string    `json:"stack,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
