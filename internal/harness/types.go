package harness

import (
	"time"

	"github.com/roach88/storyreel/internal/player"
)

// TraceEvent is one controller event with the scheduler time it was
// delivered at.
type TraceEvent struct {
	At    time.Duration `json:"at"`
	Event player.Event  `json:"event"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every step succeeded and every expectation held.
	Pass bool `json:"pass"`

	// Trace holds every delivered event in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains step and assertion failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Final is the controller state after the last step.
	Final player.State `json:"final"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// EventTypes returns the trace's event types in order.
func (r *Result) EventTypes() []player.EventType {
	out := make([]player.EventType, len(r.Trace))
	for i, te := range r.Trace {
		out[i] = te.Event.Type
	}
	return out
}
