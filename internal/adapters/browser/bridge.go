// Package browser implements the event-intake boundary to the browser
// automation collaborator. The in-page recorder script connects to a local
// websocket endpoint and streams action, network, console and page-error
// events; screenshot capture is request/response over the same socket.
package browser

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"testcase-recorder/internal/domain"
	"testcase-recorder/internal/usecase"
)

const defaultCaptureTimeout = 3 * time.Second

// Bridge is the websocket intake server. It fans incoming messages out to the
// registered handlers and tracks pending screenshot requests by sequence
// number. One page connection is active at a time; a reconnect (page
// navigation) replaces the previous one.
type Bridge struct {
	logger   *zerolog.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	conn    *websocket.Conn
	writeMu sync.Mutex

	handlerMu sync.RWMutex
	onAction  func(domain.Action)
	onNetwork func(domain.NetworkEvent)
	onConsole func(domain.ConsoleEvent)
	onError   func(domain.PageError)
	onControl func(string)

	pendingMu sync.Mutex
	pending   map[int]chan usecase.CaptureResult

	captureTimeout time.Duration
	srv            *http.Server
}

func NewBridge(logger *zerolog.Logger) *Bridge {
	return &Bridge{
		logger:         logger,
		upgrader:       websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		pending:        make(map[int]chan usecase.CaptureResult),
		captureTimeout: defaultCaptureTimeout,
	}
}

// usecase.BrowserSource

func (b *Bridge) OnAction(fn func(domain.Action)) {
	b.handlerMu.Lock()
	b.onAction = fn
	b.handlerMu.Unlock()
}

func (b *Bridge) OnNetworkEvent(fn func(domain.NetworkEvent)) {
	b.handlerMu.Lock()
	b.onNetwork = fn
	b.handlerMu.Unlock()
}

func (b *Bridge) OnConsoleEvent(fn func(domain.ConsoleEvent)) {
	b.handlerMu.Lock()
	b.onConsole = fn
	b.handlerMu.Unlock()
}

func (b *Bridge) OnPageError(fn func(domain.PageError)) {
	b.handlerMu.Lock()
	b.onError = fn
	b.handlerMu.Unlock()
}

// OnControl registers the handler for start/stop commands issued from the
// in-page control panel.
func (b *Bridge) OnControl(fn func(command string)) {
	b.handlerMu.Lock()
	b.onControl = fn
	b.handlerMu.Unlock()
}

// Serve starts the intake endpoint on addr and blocks until ctx is done or
// the listener fails.
func (b *Bridge) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/bridge", b.handleWS)
	b.srv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		if err := b.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return b.srv.Shutdown(shutCtx)
	}
}

func (b *Bridge) handleWS(w http.ResponseWriter, r *http.Request) {
	c, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	b.mu.Lock()
	old := b.conn
	b.conn = c
	b.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}
	b.logger.Debug().Str("remote", r.RemoteAddr).Msg("page connected to bridge")

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			break
		}
		b.dispatch(data)
	}

	b.mu.Lock()
	if b.conn == c {
		b.conn = nil
	}
	b.mu.Unlock()
	_ = c.Close()
}

// wire envelope: {"type": "...", "payload": {...}}
type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type actionWire struct {
	EventType   string        `json:"eventType"`
	Target      domain.Target `json:"target"`
	Value       string        `json:"value"`
	Key         string        `json:"key"`
	URL         string        `json:"url"`
	TimestampMs int64         `json:"timestamp"`
}

type networkWire struct {
	Method          string            `json:"method"`
	URL             string            `json:"url"`
	Status          *int              `json:"status"`
	ResourceType    string            `json:"resourceType"`
	RequestHeaders  map[string]string `json:"requestHeaders"`
	RequestBody     string            `json:"requestBody"`
	ResponseHeaders map[string]string `json:"responseHeaders"`
	ResponseBody    string            `json:"responseBody"`
	Error           string            `json:"error"`
	TimestampMs     int64             `json:"timestamp"`
}

type consoleWire struct {
	Level       string `json:"level"`
	Message     string `json:"message"`
	Source      string `json:"source"`
	TimestampMs int64  `json:"timestamp"`
}

type pageErrorWire struct {
	Message     string `json:"message"`
	Stack       string `json:"stack"`
	TimestampMs int64  `json:"timestamp"`
}

type screenshotWire struct {
	Sequence int    `json:"seq"`
	Data     string `json:"data"`
	Error    string `json:"error"`
}

type controlWire struct {
	Command string `json:"command"`
}

func (b *Bridge) dispatch(data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		b.logger.Warn().Err(err).Msg("malformed bridge message")
		return
	}
	switch env.Type {
	case "action":
		var w actionWire
		if err := json.Unmarshal(env.Payload, &w); err != nil {
			b.logger.Warn().Err(err).Msg("malformed action payload")
			return
		}
		b.handlerMu.RLock()
		fn := b.onAction
		b.handlerMu.RUnlock()
		if fn != nil {
			// Kind stays unset; the assembler classifies RawType and tallies
			// unrecognized types.
			fn(domain.Action{
				RawType:   w.EventType,
				Target:    w.Target,
				Value:     w.Value,
				Key:       w.Key,
				URL:       w.URL,
				Timestamp: fromMillis(w.TimestampMs),
			})
		}
	case "network":
		var w networkWire
		if err := json.Unmarshal(env.Payload, &w); err != nil {
			b.logger.Warn().Err(err).Msg("malformed network payload")
			return
		}
		b.handlerMu.RLock()
		fn := b.onNetwork
		b.handlerMu.RUnlock()
		if fn != nil {
			fn(domain.NetworkEvent{
				Method:          w.Method,
				URL:             w.URL,
				Status:          w.Status,
				ResourceType:    w.ResourceType,
				RequestHeaders:  w.RequestHeaders,
				RequestBody:     w.RequestBody,
				ResponseHeaders: w.ResponseHeaders,
				ResponseBody:    w.ResponseBody,
				Error:           w.Error,
				Timestamp:       fromMillis(w.TimestampMs),
			})
		}
	case "console":
		var w consoleWire
		if err := json.Unmarshal(env.Payload, &w); err != nil {
			b.logger.Warn().Err(err).Msg("malformed console payload")
			return
		}
		b.handlerMu.RLock()
		fn := b.onConsole
		b.handlerMu.RUnlock()
		if fn != nil {
			fn(domain.ConsoleEvent{
				Level:     domain.NormalizeLevel(w.Level),
				Message:   w.Message,
				Source:    w.Source,
				Timestamp: fromMillis(w.TimestampMs),
			})
		}
	case "pageerror":
		var w pageErrorWire
		if err := json.Unmarshal(env.Payload, &w); err != nil {
			return
		}
		b.handlerMu.RLock()
		fn := b.onError
		b.handlerMu.RUnlock()
		if fn != nil {
			fn(domain.PageError{Message: w.Message, Stack: w.Stack, Timestamp: fromMillis(w.TimestampMs)})
		}
	case "screenshot":
		var w screenshotWire
		if err := json.Unmarshal(env.Payload, &w); err != nil {
			return
		}
		b.resolveCapture(w)
	case "control":
		var w controlWire
		if err := json.Unmarshal(env.Payload, &w); err != nil {
			return
		}
		b.handlerMu.RLock()
		fn := b.onControl
		b.handlerMu.RUnlock()
		if fn != nil {
			fn(w.Command)
		}
	default:
		b.logger.Debug().Str("type", env.Type).Msg("unknown bridge message type")
	}
}

// usecase.ScreenshotCapturer. The page answers with a screenshot message
// carrying the same sequence number; no answer within the timeout resolves
// the capture as failed.
func (b *Bridge) Capture(ctx context.Context, sequence int) <-chan usecase.CaptureResult {
	ch := make(chan usecase.CaptureResult, 1)
	b.mu.RLock()
	conn := b.conn
	b.mu.RUnlock()
	if conn == nil {
		ch <- usecase.CaptureResult{Sequence: sequence, Err: errors.New("no page connected")}
		return ch
	}
	b.pendingMu.Lock()
	b.pending[sequence] = ch
	b.pendingMu.Unlock()

	if err := b.send(envelope{Type: "capture", Payload: mustJSON(screenshotWire{Sequence: sequence})}); err != nil {
		b.failCapture(sequence, err)
		return ch
	}

	go func() {
		timer := time.NewTimer(b.captureTimeout)
		defer timer.Stop()
		select {
		case <-timer.C:
			b.failCapture(sequence, fmt.Errorf("capture timed out after %s", b.captureTimeout))
		case <-ctx.Done():
			b.failCapture(sequence, ctx.Err())
		}
	}()
	return ch
}

func (b *Bridge) resolveCapture(w screenshotWire) {
	b.pendingMu.Lock()
	ch, ok := b.pending[w.Sequence]
	delete(b.pending, w.Sequence)
	b.pendingMu.Unlock()
	if !ok {
		return
	}
	if w.Error != "" {
		ch <- usecase.CaptureResult{Sequence: w.Sequence, Err: errors.New(w.Error)}
		return
	}
	png, err := base64.StdEncoding.DecodeString(w.Data)
	if err != nil {
		ch <- usecase.CaptureResult{Sequence: w.Sequence, Err: fmt.Errorf("decode screenshot: %w", err)}
		return
	}
	ch <- usecase.CaptureResult{Sequence: w.Sequence, PNG: png}
}

func (b *Bridge) failCapture(sequence int, err error) {
	b.pendingMu.Lock()
	ch, ok := b.pending[sequence]
	delete(b.pending, sequence)
	b.pendingMu.Unlock()
	if ok {
		ch <- usecase.CaptureResult{Sequence: sequence, Err: err}
	}
}

// send serializes writes; gorilla/websocket allows one writer at a time.
func (b *Bridge) send(env envelope) error {
	b.mu.RLock()
	conn := b.conn
	b.mu.RUnlock()
	if conn == nil {
		return errors.New("no page connected")
	}
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	return conn.WriteJSON(env)
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Now().UTC()
	}
	return time.UnixMilli(ms).UTC()
}

func mustJSON(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
