package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"testcase-recorder/internal/adapters/storage/memory"
	"testcase-recorder/internal/domain"
	"testcase-recorder/internal/infrastructure/observability"
)

// SessionConfig is the immutable configuration captured at Start.
type SessionConfig struct {
	Name        string
	TargetURL   string
	BrowserKind domain.BrowserKind
	TimeoutMs   int
	Headless    bool
	Grace       time.Duration
}

// Recorder owns the session lifecycle: Idle -> Recording -> Stopped, no way
// back. It gates when the assembler accepts events and when exporters may
// read the model. One Recorder records exactly one session.
type Recorder struct {
	source   BrowserSource
	capturer ScreenshotCapturer
	sink     ScreenshotSink
	logger   *zerolog.Logger
	metrics  *observability.Metrics

	mu    sync.Mutex
	state domain.SessionState
	store *memory.Store
	asm   *Assembler
}

func NewRecorder(source BrowserSource, capturer ScreenshotCapturer, sink ScreenshotSink, logger *zerolog.Logger, metrics *observability.Metrics) *Recorder {
	return &Recorder{
		source:   source,
		capturer: capturer,
		sink:     sink,
		logger:   logger,
		metrics:  metrics,
		state:    domain.StateIdle,
	}
}

// Start constructs the session, wires the browser source into the assembler
// and launches the event loop. Valid only from Idle.
func (r *Recorder) Start(ctx context.Context, cfg SessionConfig) (domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != domain.StateIdle {
		return domain.Session{}, &domain.InvalidStateError{Op: "start", State: r.state}
	}

	sess := domain.Session{
		ID:          "tc_" + uuid.NewString()[:8],
		Name:        cfg.Name,
		StartedAt:   time.Now().UTC(),
		BrowserKind: cfg.BrowserKind,
		TargetURL:   cfg.TargetURL,
		TimeoutMs:   cfg.TimeoutMs,
		Headless:    cfg.Headless,
		State:       domain.StateRecording,
	}
	r.store = memory.NewStore(sess)
	r.asm = NewAssembler(r.store, r.capturer, r.sink, r.logger, r.metrics, cfg.Grace)

	r.source.OnAction(r.asm.SubmitAction)
	r.source.OnNetworkEvent(r.asm.SubmitNetwork)
	r.source.OnConsoleEvent(r.asm.SubmitConsole)
	r.source.OnPageError(r.asm.SubmitPageError)

	go r.asm.Run(ctx)

	r.state = domain.StateRecording
	r.metrics.ActiveRecording.Set(1)
	r.logger.Info().Str("session", sess.ID).Str("url", sess.TargetURL).Msg("recording started")
	return sess, nil
}

// Stop transitions to Stopped and blocks until the assembler's grace window
// has elapsed and the model is frozen. Valid only from Recording.
func (r *Recorder) Stop() (domain.TestCase, error) {
	r.mu.Lock()
	if r.state != domain.StateRecording {
		state := r.state
		r.mu.Unlock()
		return domain.TestCase{}, &domain.InvalidStateError{Op: "stop", State: state}
	}
	r.state = domain.StateStopped
	asm, store := r.asm, r.store
	r.mu.Unlock()

	asm.Stop(time.Now().UTC())
	<-asm.Done()

	r.metrics.ActiveRecording.Set(0)
	tc, err := store.Frozen()
	if err != nil {
		return domain.TestCase{}, err
	}
	r.logger.Info().
		Int("steps", len(tc.Steps)).
		Int("dropped", tc.Diagnostics.TotalDropped()).
		Msg("recording stopped")
	return tc, nil
}

// IsRecording is a pure query with no side effects.
func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == domain.StateRecording
}

func (r *Recorder) State() domain.SessionState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Snapshot returns a deep copy of the accumulating model, safe for preview
// while recording. Not an exporter input.
func (r *Recorder) Snapshot() (domain.TestCase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.store == nil {
		return domain.TestCase{}, &domain.InvalidStateError{Op: "snapshot", State: r.state}
	}
	return r.store.Snapshot(), nil
}

// TestCase hands the frozen model to exporters. Fails with
// SessionNotStoppedError before Stop has completed.
func (r *Recorder) TestCase() (domain.TestCase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.store == nil {
		return domain.TestCase{}, &domain.SessionNotStoppedError{State: r.state}
	}
	return r.store.Frozen()
}
