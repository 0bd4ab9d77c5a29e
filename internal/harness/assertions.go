package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/storyreel/internal/player"
)

// AssertionError is returned when an expectation fails. It carries the trace
// for context.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for i, te := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s %s\n", i+1, te.At, te.Event)
	}
	return buf.String()
}

// assertEventOrder checks that want appears in trace in order. Intervening
// events are allowed.
func assertEventOrder(trace []TraceEvent, want []player.EventType) error {
	next := 0
	for _, te := range trace {
		if next < len(want) && te.Event.Type == want[next] {
			next++
		}
	}
	if next == len(want) {
		return nil
	}

	return &AssertionError{
		Type:     "event_order",
		Expected: fmt.Sprintf("events %v in order", want),
		Actual:   fmt.Sprintf("matched %d of %d, first missing %s", next, len(want), want[next]),
		Trace:    trace,
	}
}

func assertFinalStage(trace []TraceEvent, final player.State, want player.Stage) error {
	if final.Stage == want {
		return nil
	}
	return &AssertionError{
		Type:     "final_stage",
		Expected: string(want),
		Actual:   string(final.Stage),
		Trace:    trace,
	}
}
