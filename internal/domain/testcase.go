package domain

// TestCase is the canonical artifact source: session metadata plus the
// ordered run of Steps. Steps carry sequence numbers 1..N with no gaps,
// insertion order equals sequence order.
type TestCase struct {
	Session     Session     `json:"session"`
	Steps       []Step      `json:"steps"`
	PageErrors  []PageError `json:"pageErrors,omitempty"`
	Diagnostics Diagnostics `json:"diagnostics"`
}

// Clone returns a deep, independent copy safe for concurrent read while the
// original is still being written.
func (tc TestCase) Clone() TestCase {
	out := tc
	out.Steps = make([]Step, len(tc.Steps))
	for i, s := range tc.Steps {
		out.Steps[i] = s.clone()
	}
	out.PageErrors = make([]PageError, len(tc.PageErrors))
	copy(out.PageErrors, tc.PageErrors)
	if tc.Session.EndedAt != nil {
		t := *tc.Session.EndedAt
		out.Session.EndedAt = &t
	}
	return out
}
