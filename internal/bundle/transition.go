package bundle

import (
	"strings"

	"github.com/roach88/storyreel/internal/story"
)

// nextTransition computes a scenelet's transition from its playable children.
//
//   - terminal scenelet → terminal
//   - branch point: needs a prompt and ≥2 declared children; then
//     ≥2 playable → branch, 1 → linear, 0 → incomplete
//   - otherwise: needs ≥1 declared child; then 0 playable → incomplete,
//     1 → linear, >1 → ambiguous fan-out error
func nextTransition(r story.SceneletRecord, declared, playable []string, byID map[string]story.SceneletRecord) (story.Transition, error) {
	if r.IsTerminal {
		return story.TerminalTransition{}, nil
	}

	if r.IsBranchPoint {
		prompt := strings.TrimSpace(r.ChoicePrompt)
		if prompt == "" {
			return nil, integrityError(ErrBranchPromptEmpty, r.ID, "branch point has no choice prompt")
		}
		if len(declared) < 2 {
			return nil, integrityError(ErrBranchTooFewChildren, r.ID, "branch point declares %d children, need at least 2", len(declared))
		}
		switch len(playable) {
		case 0:
			return story.IncompleteTransition{}, nil
		case 1:
			return story.LinearTransition{Target: playable[0]}, nil
		}
		choices := make([]story.Choice, 0, len(playable))
		for _, child := range playable {
			label := strings.TrimSpace(byID[child].ChoiceLabel)
			if label == "" {
				return nil, integrityError(ErrChoiceLabelMissing, child, "branch choice has no label")
			}
			choices = append(choices, story.Choice{Label: label, Target: child})
		}
		return story.BranchTransition{Prompt: prompt, Choices: choices}, nil
	}

	if len(declared) == 0 {
		return nil, integrityError(ErrLinearLeaf, r.ID, "non-terminal scenelet has no children")
	}
	switch len(playable) {
	case 0:
		return story.IncompleteTransition{}, nil
	case 1:
		return story.LinearTransition{Target: playable[0]}, nil
	default:
		return nil, integrityError(ErrAmbiguousFanOut, r.ID, "linear scenelet has %d playable children", len(playable))
	}
}
