package harness

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/storyreel/internal/player"
	"github.com/roach88/storyreel/internal/testutil"
)

// settleLimit bounds the timers a settle step may fire.
const settleLimit = 1000

// Harness drives one controller over a fake scheduler.
type Harness struct {
	ctrl   *player.Controller
	sched  *testutil.FakeScheduler
	result *Result
}

// Run executes a scenario on a fresh controller and returns the result.
//
// Session ids are "session-1", "session-2", ... in start order. The
// controller uses the default timings. An error is returned only when the
// controller cannot be built; step and expectation failures are reported in
// the result.
func Run(scenario *Scenario) (*Result, error) {
	sched := testutil.NewFakeScheduler()
	ctrl, err := player.NewController(scenario.Bundle.Bundle, sched,
		player.WithSessionIDs(testutil.NewSequentialSessions("session")),
		player.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	h := &Harness{
		ctrl:   ctrl,
		sched:  sched,
		result: NewResult(),
	}
	if _, err := ctrl.SubscribeAll(h.record); err != nil {
		return nil, err
	}

	for i, step := range scenario.Steps {
		if err := h.execute(step); err != nil {
			h.result.AddError(fmt.Sprintf("steps[%d] %s: %v", i, step, err))
		}
	}

	h.result.Final = ctrl.State()
	h.check(scenario.Expect)
	return h.result, nil
}

func (h *Harness) record(e player.Event) {
	h.result.Trace = append(h.result.Trace, TraceEvent{At: h.sched.Now(), Event: e})
}

func (h *Harness) execute(step Step) error {
	switch step.Op {
	case OpStart:
		h.ctrl.Start()
	case OpRestart:
		h.ctrl.Restart()
	case OpPause:
		h.ctrl.Pause()
	case OpResume:
		h.ctrl.Resume()
	case OpAudioComplete:
		h.ctrl.NotifyShotAudioComplete()
	case OpAudioError:
		h.ctrl.NotifyShotAudioError()
	case OpChoose:
		return h.ctrl.ChooseBranch(step.Arg)
	case OpAdvance:
		d, err := step.Duration()
		if err != nil {
			return err
		}
		h.sched.Advance(d)
	case OpSettle:
		if fired := h.sched.RunUntilIdle(settleLimit); fired == settleLimit {
			return fmt.Errorf("still busy after %d timers", settleLimit)
		}
	default:
		return fmt.Errorf("unknown step %q", step.Op)
	}
	return nil
}

func (h *Harness) check(expect Expect) {
	if len(expect.Events) > 0 {
		if err := assertEventOrder(h.result.Trace, expect.Events); err != nil {
			h.result.AddError(err.Error())
		}
	}
	if expect.FinalStage != "" {
		if err := assertFinalStage(h.result.Trace, h.result.Final, expect.FinalStage); err != nil {
			h.result.AddError(err.Error())
		}
	}
}
