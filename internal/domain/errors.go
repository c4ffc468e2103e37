package domain

import "fmt"

// InvalidStateError reports a lifecycle method invoked in the wrong session
// state. Fatal to the call, not to the process.
type InvalidStateError struct {
	Op    string
	State SessionState
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s not allowed in state %q", e.Op, e.State)
}

// SessionNotStoppedError reports an export attempted against a test case that
// has not been frozen yet.
type SessionNotStoppedError struct {
	State SessionState
}

func (e *SessionNotStoppedError) Error() string {
	return fmt.Sprintf("export requires a stopped session, state is %q", e.State)
}

// ArtifactWriteError reports a filesystem failure while writing one export
// artifact. Sibling exporters proceed independently.
type ArtifactWriteError struct {
	Path string
	Err  error
}

func (e *ArtifactWriteError) Error() string {
	return fmt.Sprintf("write artifact %s: %v", e.Path, e.Err)
}

func (e *ArtifactWriteError) Unwrap() error { return e.Err }
