package usecase

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"testcase-recorder/internal/adapters/storage/memory"
	"testcase-recorder/internal/domain"
	"testcase-recorder/internal/infrastructure/observability"
	"testcase-recorder/pkg/shared/slug"
)

// Assembler turns the asynchronous action/network/console/screenshot streams
// into ordered, immutable steps. It is the single writer of the store: every
// signal funnels through one buffered channel consumed by run().
type Assembler struct {
	store    *memory.Store
	capturer ScreenshotCapturer
	sink     ScreenshotSink
	logger   *zerolog.Logger
	metrics  *observability.Metrics
	grace    time.Duration

	events chan any
	stopCh chan time.Time
	done   chan struct{}
	closed atomic.Bool

	// loop-local state, touched only by run()
	seq  int
	open *domain.Step
	ctx  context.Context
}

type captureMsg CaptureResult

func NewAssembler(store *memory.Store, capturer ScreenshotCapturer, sink ScreenshotSink, logger *zerolog.Logger, metrics *observability.Metrics, grace time.Duration) *Assembler {
	if grace <= 0 {
		grace = 500 * time.Millisecond
	}
	return &Assembler{
		store:    store,
		capturer: capturer,
		sink:     sink,
		logger:   logger,
		metrics:  metrics,
		grace:    grace,
		events:   make(chan any, 256),
		stopCh:   make(chan time.Time, 1),
		done:     make(chan struct{}),
	}
}

// Run consumes events until Stop's grace window elapses, then closes the open
// step, freezes the store and returns.
func (a *Assembler) Run(ctx context.Context) {
	a.ctx = ctx
	var graceTimer <-chan time.Time
	var endedAt time.Time
	stopCh := a.stopCh
	for {
		select {
		case msg := <-a.events:
			a.handle(msg)
		case endedAt = <-stopCh:
			stopCh = nil
			graceTimer = time.After(a.grace)
		case <-graceTimer:
			a.finish(endedAt)
			return
		case <-ctx.Done():
			a.finish(time.Now().UTC())
			return
		}
	}
}

// Stop begins the bounded grace window; the loop keeps settling in-flight
// events until it elapses. Wait on Done for the freeze.
func (a *Assembler) Stop(endedAt time.Time) {
	select {
	case a.stopCh <- endedAt:
	default:
	}
}

func (a *Assembler) Done() <-chan struct{} { return a.done }

// Submit* feed the event loop. Events arriving after the loop has exited (or
// when it is hopelessly backlogged) are dropped and tallied, never silently
// lost.

func (a *Assembler) SubmitAction(act domain.Action) { a.enqueue(act) }

func (a *Assembler) SubmitNetwork(ev domain.NetworkEvent) { a.enqueue(ev) }

func (a *Assembler) SubmitConsole(ev domain.ConsoleEvent) { a.enqueue(ev) }

func (a *Assembler) SubmitPageError(pe domain.PageError) { a.enqueue(pe) }

func (a *Assembler) enqueue(msg any) {
	if a.closed.Load() {
		a.dropLate(msg)
		return
	}
	select {
	case a.events <- msg:
		// The loop may have exited between the closed check and the send;
		// reclaim anything it will never read.
		if a.closed.Load() {
			a.reclaim()
		}
	default:
		a.dropLate(msg)
	}
}

// reclaim empties the queue once the loop is gone, tallying every stranded
// event as a late drop.
func (a *Assembler) reclaim() {
	for {
		select {
		case msg := <-a.events:
			a.dropLate(msg)
		default:
			return
		}
	}
}

func (a *Assembler) dropLate(msg any) {
	a.store.MergeDiagnostics(domain.Diagnostics{LateDropped: 1})
	a.metrics.DroppedTotal.WithLabelValues("late").Inc()
	a.logger.Debug().Type("event", msg).Msg("dropped late event")
}

func (a *Assembler) handle(msg any) {
	switch ev := msg.(type) {
	case domain.Action:
		a.openStep(ev)
	case domain.NetworkEvent:
		a.associateNetwork(ev)
	case domain.ConsoleEvent:
		a.associateConsole(ev)
	case domain.PageError:
		a.store.AddPageError(ev)
		a.metrics.EventsTotal.WithLabelValues("pageerror").Inc()
	case captureMsg:
		a.resolveScreenshot(CaptureResult(ev))
	}
}

// openStep closes the current step and opens the next one with the action's
// metadata, then requests a fire-and-forget screenshot bound to the new
// sequence number.
func (a *Assembler) openStep(act domain.Action) {
	a.closeOpen()
	if act.Kind == "" {
		kind, recognized := domain.KindOf(act.RawType)
		act.Kind = kind
		if !recognized {
			a.store.MergeDiagnostics(domain.Diagnostics{MalformedActions: 1})
			a.metrics.DroppedTotal.WithLabelValues("malformed_action").Inc()
		}
	}
	a.seq++
	step := domain.Step{
		Sequence:      a.seq,
		Kind:          act.Kind,
		RawType:       act.RawType,
		Target:        act.Target,
		Value:         act.Value,
		Key:           act.Key,
		URL:           act.URL,
		Description:   act.Describe(),
		Timestamp:     act.Timestamp,
		NetworkEvents: make([]domain.NetworkEvent, 0, 4),
		ConsoleEvents: make([]domain.ConsoleEvent, 0, 4),
	}
	a.open = &step
	a.metrics.StepsTotal.Inc()
	a.logger.Info().Int("step", step.Sequence).Str("kind", string(step.Kind)).Msg(step.Description)
	a.requestScreenshot(step)
}

func (a *Assembler) requestScreenshot(step domain.Step) {
	if a.capturer == nil {
		return
	}
	ch := a.capturer.Capture(a.ctx, step.Sequence)
	go func() {
		res, ok := <-ch
		if !ok {
			res = CaptureResult{Sequence: step.Sequence, Err: fmt.Errorf("capture channel closed")}
		}
		res.Sequence = step.Sequence
		a.enqueue(captureMsg(res))
	}()
}

// resolveScreenshot attaches the image to the step it was requested for,
// provided that step is still open. A result for an already-closed step
// leaves the field absent; a capture error is non-fatal and only counted.
func (a *Assembler) resolveScreenshot(res CaptureResult) {
	if res.Err != nil {
		a.store.MergeDiagnostics(domain.Diagnostics{ScreenshotFailures: 1})
		a.metrics.ScreenshotFailures.Inc()
		a.logger.Warn().Int("step", res.Sequence).Err(res.Err).Msg("screenshot capture failed")
		return
	}
	if a.open == nil || a.open.Sequence != res.Sequence {
		a.logger.Debug().Int("step", res.Sequence).Msg("screenshot settled after step close, leaving absent")
		return
	}
	name := slug.ScreenshotFilename(a.open.Sequence, string(a.open.Kind), a.open.Target.Label())
	ref, err := a.sink.SaveScreenshot(name, res.PNG)
	if err != nil {
		a.store.MergeDiagnostics(domain.Diagnostics{ScreenshotFailures: 1})
		a.metrics.ScreenshotFailures.Inc()
		a.logger.Warn().Int("step", res.Sequence).Err(err).Msg("screenshot write failed")
		return
	}
	a.open.Screenshot = ref
}

// associateNetwork applies the window rule: the event belongs to the open
// step (its window is half-open and unbounded until the next action closes
// it); with no step open yet it is pre-recording noise.
func (a *Assembler) associateNetwork(ev domain.NetworkEvent) {
	a.metrics.EventsTotal.WithLabelValues("network").Inc()
	if a.open == nil {
		a.store.MergeDiagnostics(domain.Diagnostics{PreRecordingDropped: 1})
		a.metrics.DroppedTotal.WithLabelValues("pre_recording").Inc()
		return
	}
	a.open.NetworkEvents = append(a.open.NetworkEvents, ev)
}

func (a *Assembler) associateConsole(ev domain.ConsoleEvent) {
	a.metrics.EventsTotal.WithLabelValues("console").Inc()
	if a.open == nil {
		a.store.MergeDiagnostics(domain.Diagnostics{PreRecordingDropped: 1})
		a.metrics.DroppedTotal.WithLabelValues("pre_recording").Inc()
		return
	}
	a.open.ConsoleEvents = append(a.open.ConsoleEvents, ev)
}

func (a *Assembler) closeOpen() {
	if a.open == nil {
		return
	}
	if !a.store.AppendStep(*a.open) {
		a.dropLate(*a.open)
	}
	a.open = nil
}

// drain gives events already queued at grace expiry one last pass.
func (a *Assembler) drain() {
	for {
		select {
		case msg := <-a.events:
			a.handle(msg)
		default:
			return
		}
	}
}

// finish closes intake before the final drain: a Submit racing loop exit
// either lands in that drain or reclaims its own event as a late drop, so
// nothing leaves the accounting.
func (a *Assembler) finish(endedAt time.Time) {
	a.closed.Store(true)
	a.drain()
	a.closeOpen()
	a.store.Freeze(endedAt)
	close(a.done)
}
