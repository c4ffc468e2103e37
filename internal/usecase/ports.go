package usecase

import (
	"context"

	"testcase-recorder/internal/domain"
)

// BrowserSource is the intake boundary to the browser-automation
// collaborator. Callbacks are invoked from the collaborator's own goroutines;
// the assembler serializes them onto its event loop.
type BrowserSource interface {
	OnAction(func(domain.Action))
	OnNetworkEvent(func(domain.NetworkEvent))
	OnConsoleEvent(func(domain.ConsoleEvent))
	OnPageError(func(domain.PageError))
}

// CaptureResult resolves one screenshot request. Either PNG or Err is set.
type CaptureResult struct {
	Sequence int
	PNG      []byte
	Err      error
}

// ScreenshotCapturer requests a best-effort viewport screenshot for a step.
// The returned channel resolves exactly once.
type ScreenshotCapturer interface {
	Capture(ctx context.Context, sequence int) <-chan CaptureResult
}

// ScreenshotSink persists captured images and returns the reference stored on
// the step (path relative to the output directory).
type ScreenshotSink interface {
	SaveScreenshot(filename string, png []byte) (string, error)
}
