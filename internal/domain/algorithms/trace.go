package algorithms

import "fmt"

// Trace is an append-only, ordered log of human-readable algorithm steps.
// Every algorithm resets the trace it is given before its first step.
// A Trace must not be shared by concurrent runs.
type Trace struct {
	steps []string
}

// NewTrace returns an empty trace.
func NewTrace() *Trace {
	return &Trace{}
}

// Reset clears every recorded step.
func (t *Trace) Reset() {
	t.steps = t.steps[:0]
}

// Addf appends a formatted step.
func (t *Trace) Addf(format string, args ...any) {
	t.steps = append(t.steps, fmt.Sprintf(format, args...))
}

// Steps returns a copy of the recorded steps.
func (t *Trace) Steps() []string {
	out := make([]string, len(t.steps))
	copy(out, t.steps)
	return out
}

// Len returns the number of recorded steps.
func (t *Trace) Len() int {
	return len(t.steps)
}

// begin prepares the trace for a new run, allocating one if the caller
// passed nil.
func begin(t *Trace) *Trace {
	if t == nil {
		return NewTrace()
	}
	t.Reset()
	return t
}
