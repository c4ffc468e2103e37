package memory

import (
	"sync"
	"time"

	"testcase-recorder/internal/domain"
)

// Store is the in-memory TestCase builder. It has exactly one writer (the
// step assembler) for the session's lifetime; Snapshot gives readers a deep
// copy, and Frozen hands exporters the model only after freeze.
type Store struct {
	mu     sync.RWMutex
	tc     domain.TestCase
	frozen bool
}

func NewStore(sess domain.Session) *Store {
	return &Store{tc: domain.TestCase{
		Session: sess,
		Steps:   make([]domain.Step, 0, 16),
	}}
}

// AppendStep appends a closed, immutable step. Steps arriving after freeze
// are refused so the caller can tally them as late drops.
func (s *Store) AppendStep(step domain.Step) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frozen {
		return false
	}
	s.tc.Steps = append(s.tc.Steps, step)
	return true
}

func (s *Store) AddPageError(pe domain.PageError) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frozen {
		return false
	}
	s.tc.PageErrors = append(s.tc.PageErrors, pe)
	return true
}

func (s *Store) StepCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tc.Steps)
}

// MergeDiagnostics folds counter deltas into the session diagnostics.
// Allowed after freeze: drops during the grace window still count.
func (s *Store) MergeDiagnostics(d domain.Diagnostics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tc.Diagnostics.PreRecordingDropped += d.PreRecordingDropped
	s.tc.Diagnostics.LateDropped += d.LateDropped
	s.tc.Diagnostics.ScreenshotFailures += d.ScreenshotFailures
	s.tc.Diagnostics.MalformedActions += d.MalformedActions
}

// Freeze marks the session stopped at endedAt. Idempotent; after freeze the
// model is immutable and safe for concurrent export.
func (s *Store) Freeze(endedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frozen {
		return
	}
	s.frozen = true
	ts := endedAt
	s.tc.Session.EndedAt = &ts
	s.tc.Session.State = domain.StateStopped
}

// Snapshot returns a deep, independent copy safe for concurrent read while
// recording is still in progress. Not valid as an exporter input.
func (s *Store) Snapshot() domain.TestCase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tc.Clone()
}

// Frozen returns the model for export. Fails with SessionNotStoppedError
// until Freeze has run.
func (s *Store) Frozen() (domain.TestCase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.frozen {
		return domain.TestCase{}, &domain.SessionNotStoppedError{State: s.tc.Session.State}
	}
	return s.tc, nil
}
