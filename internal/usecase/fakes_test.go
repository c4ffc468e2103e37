package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"testcase-recorder/internal/domain"
)

// fakeSource stands in for the browser boundary: tests push events straight
// into the registered callbacks.
type fakeSource struct {
	action  func(domain.Action)
	network func(domain.NetworkEvent)
	console func(domain.ConsoleEvent)
	pageErr func(domain.PageError)
}

func (f *fakeSource) OnAction(fn func(domain.Action))             { f.action = fn }
func (f *fakeSource) OnNetworkEvent(fn func(domain.NetworkEvent)) { f.network = fn }
func (f *fakeSource) OnConsoleEvent(fn func(domain.ConsoleEvent)) { f.console = fn }
func (f *fakeSource) OnPageError(fn func(domain.PageError))       { f.pageErr = fn }

// fakeCapturer resolves captures immediately (or after delay), failing the
// sequences listed in failSeq.
type fakeCapturer struct {
	mu      sync.Mutex
	failSeq map[int]bool
	delay   time.Duration
	calls   int
}

func (f *fakeCapturer) Capture(ctx context.Context, sequence int) <-chan CaptureResult {
	f.mu.Lock()
	f.calls++
	fail := f.failSeq[sequence]
	delay := f.delay
	f.mu.Unlock()

	ch := make(chan CaptureResult, 1)
	resolve := func() {
		if fail {
			ch <- CaptureResult{Sequence: sequence, Err: errors.New("capture failed")}
			return
		}
		ch <- CaptureResult{Sequence: sequence, PNG: []byte("png-bytes")}
	}
	if delay == 0 {
		resolve()
	} else {
		go func() {
			time.Sleep(delay)
			resolve()
		}()
	}
	return ch
}

type fakeSink struct {
	mu    sync.Mutex
	saved map[string][]byte
	fail  bool
}

func newFakeSink() *fakeSink { return &fakeSink{saved: make(map[string][]byte)} }

func (f *fakeSink) SaveScreenshot(filename string, png []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return "", errors.New("disk full")
	}
	f.saved["screenshots/"+filename] = png
	return "screenshots/" + filename, nil
}

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}
