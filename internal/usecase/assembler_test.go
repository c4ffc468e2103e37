package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"testcase-recorder/internal/adapters/storage/memory"
	"testcase-recorder/internal/domain"
	"testcase-recorder/internal/infrastructure/observability"
)

func newTestAssembler(capturer ScreenshotCapturer) (*Assembler, *memory.Store) {
	store := memory.NewStore(domain.Session{
		ID:        "tc_asm",
		StartedAt: time.Now().UTC(),
		State:     domain.StateRecording,
	})
	asm := NewAssembler(store, capturer, newFakeSink(), testLogger(), observability.NewMetrics(), 50*time.Millisecond)
	return asm, store
}

func stopAndWait(t *testing.T, asm *Assembler) domain.TestCase {
	t.Helper()
	asm.Stop(time.Now().UTC())
	select {
	case <-asm.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("assembler did not finish")
	}
	return mustFrozen(t, asm)
}

func mustFrozen(t *testing.T, asm *Assembler) domain.TestCase {
	t.Helper()
	tc, err := asm.store.Frozen()
	if err != nil {
		t.Fatalf("Frozen: %v", err)
	}
	return tc
}

// An unrecognized action type classifies as Other instead of being rejected.
func TestMalformedActionBecomesOther(t *testing.T) {
	asm, _ := newTestAssembler(&fakeCapturer{})
	go asm.Run(context.Background())

	asm.SubmitAction(domain.Action{RawType: "swipe", Target: domain.Target{Selector: "#x"}, Timestamp: time.Now().UTC()})
	tc := stopAndWait(t, asm)

	if len(tc.Steps) != 1 {
		t.Fatalf("steps = %d, want 1", len(tc.Steps))
	}
	if tc.Steps[0].Kind != domain.ActionOther {
		t.Errorf("kind = %v, want other", tc.Steps[0].Kind)
	}
	if tc.Diagnostics.MalformedActions != 1 {
		t.Errorf("MalformedActions = %d, want 1", tc.Diagnostics.MalformedActions)
	}
}

// Two actions with the same timestamp keep submission order (FIFO tie-break).
func TestIdenticalTimestampsKeepArrivalOrder(t *testing.T) {
	asm, _ := newTestAssembler(&fakeCapturer{})
	go asm.Run(context.Background())

	ts := time.Now().UTC()
	asm.SubmitAction(domain.Action{Kind: domain.ActionClick, RawType: "click", Target: domain.Target{Selector: "#first"}, Timestamp: ts})
	asm.SubmitAction(domain.Action{Kind: domain.ActionClick, RawType: "click", Target: domain.Target{Selector: "#second"}, Timestamp: ts})
	tc := stopAndWait(t, asm)

	if len(tc.Steps) != 2 {
		t.Fatalf("steps = %d, want 2", len(tc.Steps))
	}
	if tc.Steps[0].Target.Selector != "#first" || tc.Steps[1].Target.Selector != "#second" {
		t.Errorf("order = %q, %q", tc.Steps[0].Target.Selector, tc.Steps[1].Target.Selector)
	}
}

// Events submitted during the grace window still associate with the final
// open step.
func TestGraceWindowSettlesInFlightEvents(t *testing.T) {
	asm, _ := newTestAssembler(&fakeCapturer{})
	go asm.Run(context.Background())

	asm.SubmitAction(domain.Action{Kind: domain.ActionClick, RawType: "click", Target: domain.Target{Selector: "#save"}, Timestamp: time.Now().UTC()})
	asm.Stop(time.Now().UTC())
	asm.SubmitNetwork(domain.NetworkEvent{Method: "POST", URL: "https://example.com/api/save", Timestamp: time.Now().UTC()})
	asm.SubmitConsole(domain.ConsoleEvent{Level: domain.LevelLog, Message: "saved", Timestamp: time.Now().UTC()})

	select {
	case <-asm.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("assembler did not finish")
	}
	tc := mustFrozen(t, asm)
	if len(tc.Steps) != 1 {
		t.Fatalf("steps = %d, want 1", len(tc.Steps))
	}
	if len(tc.Steps[0].NetworkEvents) != 1 || len(tc.Steps[0].ConsoleEvents) != 1 {
		t.Errorf("grace-window events lost: network=%d console=%d",
			len(tc.Steps[0].NetworkEvents), len(tc.Steps[0].ConsoleEvents))
	}
	if tc.Diagnostics.TotalDropped() != 0 {
		t.Errorf("dropped = %d, want 0", tc.Diagnostics.TotalDropped())
	}
}

// Events arriving after the grace window has elapsed are dropped and tallied,
// never silently lost.
func TestLateEventsAreCounted(t *testing.T) {
	asm, store := newTestAssembler(&fakeCapturer{})
	go asm.Run(context.Background())

	asm.SubmitAction(domain.Action{Kind: domain.ActionClick, RawType: "click", Target: domain.Target{Selector: "#x"}, Timestamp: time.Now().UTC()})
	stopAndWait(t, asm)

	asm.SubmitNetwork(domain.NetworkEvent{Method: "GET", URL: "https://example.com/late", Timestamp: time.Now().UTC()})
	asm.SubmitConsole(domain.ConsoleEvent{Level: domain.LevelWarn, Message: "late", Timestamp: time.Now().UTC()})

	tc, err := store.Frozen()
	if err != nil {
		t.Fatal(err)
	}
	if tc.Diagnostics.LateDropped != 2 {
		t.Errorf("LateDropped = %d, want 2", tc.Diagnostics.LateDropped)
	}
	if len(tc.Steps[0].NetworkEvents) != 0 {
		t.Error("late event attached to a frozen step")
	}
}

// A capture that settles only after its step has closed leaves the screenshot
// absent without failing anything.
func TestSlowScreenshotLeftAbsent(t *testing.T) {
	asm, _ := newTestAssembler(&fakeCapturer{delay: 80 * time.Millisecond})
	go asm.Run(context.Background())

	ts := time.Now().UTC()
	asm.SubmitAction(domain.Action{Kind: domain.ActionClick, RawType: "click", Target: domain.Target{Selector: "#a"}, Timestamp: ts})
	asm.SubmitAction(domain.Action{Kind: domain.ActionClick, RawType: "click", Target: domain.Target{Selector: "#b"}, Timestamp: ts.Add(time.Millisecond)})
	time.Sleep(120 * time.Millisecond)
	tc := stopAndWait(t, asm)

	if len(tc.Steps) != 2 {
		t.Fatalf("steps = %d, want 2", len(tc.Steps))
	}
	if tc.Steps[0].Screenshot != "" {
		t.Errorf("step 1 got a screenshot that settled after close: %q", tc.Steps[0].Screenshot)
	}
}

// A sink write failure is absorbed as a capture failure, not an assembly error.
func TestSinkFailureCountsAsCaptureFailure(t *testing.T) {
	store := memory.NewStore(domain.Session{ID: "tc_sink", StartedAt: time.Now().UTC(), State: domain.StateRecording})
	sink := newFakeSink()
	sink.fail = true
	asm := NewAssembler(store, &fakeCapturer{}, sink, testLogger(), observability.NewMetrics(), 50*time.Millisecond)
	go asm.Run(context.Background())

	asm.SubmitAction(domain.Action{Kind: domain.ActionClick, RawType: "click", Target: domain.Target{Selector: "#x"}, Timestamp: time.Now().UTC()})
	time.Sleep(20 * time.Millisecond)
	tc := stopAndWait(t, asm)

	if len(tc.Steps) != 1 {
		t.Fatalf("steps = %d, want 1", len(tc.Steps))
	}
	if tc.Steps[0].Screenshot != "" {
		t.Error("failed write still produced a reference")
	}
	if tc.Diagnostics.ScreenshotFailures != 1 {
		t.Errorf("ScreenshotFailures = %d, want 1", tc.Diagnostics.ScreenshotFailures)
	}
}

// A submitter racing the loop exit never loses an event from the accounting:
// every console event either attaches to a step or shows up in the drop
// counters.
func TestStopAccountsForRacingEvents(t *testing.T) {
	const submissions = 500
	asm, store := newTestAssembler(&fakeCapturer{})
	go asm.Run(context.Background())

	asm.SubmitAction(domain.Action{Kind: domain.ActionClick, RawType: "click", Target: domain.Target{Selector: "#x"}, Timestamp: time.Now().UTC()})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < submissions; i++ {
			asm.SubmitConsole(domain.ConsoleEvent{Level: domain.LevelLog, Message: "m", Timestamp: time.Now().UTC()})
		}
	}()
	asm.Stop(time.Now().UTC())
	select {
	case <-asm.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("assembler did not finish")
	}
	wg.Wait()

	tc, err := store.Frozen()
	if err != nil {
		t.Fatal(err)
	}
	attached := 0
	for _, step := range tc.Steps {
		attached += len(step.ConsoleEvents)
	}
	total := attached + tc.Diagnostics.TotalDropped()
	if total != submissions {
		t.Errorf("attached %d + dropped %d = %d, want %d",
			attached, tc.Diagnostics.TotalDropped(), total, submissions)
	}
}

// Events still queued when the loop finishes get one final pass instead of
// being stranded in the channel.
func TestFinishDrainsQueuedEvents(t *testing.T) {
	asm, store := newTestAssembler(&fakeCapturer{})
	// loop never started: events stay queued until finish sweeps them
	asm.SubmitConsole(domain.ConsoleEvent{Level: domain.LevelLog, Message: "queued", Timestamp: time.Now().UTC()})
	asm.finish(time.Now().UTC())

	tc, err := store.Frozen()
	if err != nil {
		t.Fatal(err)
	}
	if tc.Diagnostics.PreRecordingDropped != 1 {
		t.Errorf("PreRecordingDropped = %d, want 1 (queued event not swept)", tc.Diagnostics.PreRecordingDropped)
	}
}

// Context cancellation freezes the session with a UTC end timestamp, same as
// a regular stop.
func TestContextCancelFreezesInUTC(t *testing.T) {
	asm, store := newTestAssembler(&fakeCapturer{})
	ctx, cancel := context.WithCancel(context.Background())
	go asm.Run(ctx)
	cancel()
	select {
	case <-asm.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("assembler did not finish")
	}

	tc, err := store.Frozen()
	if err != nil {
		t.Fatal(err)
	}
	if tc.Session.EndedAt == nil {
		t.Fatal("EndedAt not set")
	}
	if tc.Session.EndedAt.Location() != time.UTC {
		t.Errorf("EndedAt location = %v, want UTC", tc.Session.EndedAt.Location())
	}
}
