package story

// TransitionKind names the variant of a Transition.
type TransitionKind string

const (
	KindLinear     TransitionKind = "linear"
	KindBranch     TransitionKind = "branch"
	KindTerminal   TransitionKind = "terminal"
	KindIncomplete TransitionKind = "incomplete"
)

// Transition describes what happens after a node's last shot.
//
// The set of variants is closed: LinearTransition, BranchTransition,
// TerminalTransition and IncompleteTransition. Consumers type-switch over
// them and must handle all four.
type Transition interface {
	Kind() TransitionKind
	isTransition()
}

// LinearTransition continues straight into Target.
type LinearTransition struct {
	Target string
}

// BranchTransition pauses playback and offers Choices under Prompt.
type BranchTransition struct {
	Prompt  string
	Choices []Choice
}

// TerminalTransition ends the story path.
type TerminalTransition struct{}

// IncompleteTransition marks a path whose continuation is not playable yet.
type IncompleteTransition struct{}

// Choice is one option of a BranchTransition.
type Choice struct {
	Label  string `json:"label"`
	Target string `json:"target"`
}

func (LinearTransition) Kind() TransitionKind     { return KindLinear }
func (BranchTransition) Kind() TransitionKind     { return KindBranch }
func (TerminalTransition) Kind() TransitionKind   { return KindTerminal }
func (IncompleteTransition) Kind() TransitionKind { return KindIncomplete }

func (LinearTransition) isTransition()     {}
func (BranchTransition) isTransition()     {}
func (TerminalTransition) isTransition()   {}
func (IncompleteTransition) isTransition() {}

// Targets returns the node ids a transition can lead to, in order.
func Targets(t Transition) []string {
	switch tr := t.(type) {
	case LinearTransition:
		return []string{tr.Target}
	case BranchTransition:
		out := make([]string, len(tr.Choices))
		for i, c := range tr.Choices {
			out[i] = c.Target
		}
		return out
	case TerminalTransition, IncompleteTransition:
		return nil
	default:
		return nil
	}
}
