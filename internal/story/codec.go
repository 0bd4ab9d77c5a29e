package story

import (
	"encoding/json"
	"fmt"
)

// transitionWire is the JSON shape of a Transition.
type transitionWire struct {
	Type    TransitionKind `json:"type"`
	Target  string         `json:"target,omitempty"`
	Prompt  string         `json:"prompt,omitempty"`
	Choices []Choice       `json:"choices,omitempty"`
}

type nodeWire struct {
	ID              string          `json:"id"`
	Description     string          `json:"description"`
	Shots           []ShotNode      `json:"shots"`
	BranchAudioPath string          `json:"branch_audio_path,omitempty"`
	Next            json.RawMessage `json:"next"`
}

// MarshalTransition encodes a Transition as its tagged JSON object.
func MarshalTransition(t Transition) ([]byte, error) {
	w, err := toWire(t)
	if err != nil {
		return nil, err
	}
	return json.Marshal(w)
}

// UnmarshalTransition decodes a tagged JSON object into a Transition.
func UnmarshalTransition(data []byte) (Transition, error) {
	var w transitionWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode transition: %w", err)
	}
	return fromWire(w)
}

func toWire(t Transition) (transitionWire, error) {
	switch tr := t.(type) {
	case LinearTransition:
		return transitionWire{Type: KindLinear, Target: tr.Target}, nil
	case BranchTransition:
		return transitionWire{Type: KindBranch, Prompt: tr.Prompt, Choices: tr.Choices}, nil
	case TerminalTransition:
		return transitionWire{Type: KindTerminal}, nil
	case IncompleteTransition:
		return transitionWire{Type: KindIncomplete}, nil
	case nil:
		return transitionWire{}, fmt.Errorf("encode transition: missing next")
	default:
		return transitionWire{}, fmt.Errorf("encode transition: unsupported type %T", t)
	}
}

func fromWire(w transitionWire) (Transition, error) {
	switch w.Type {
	case KindLinear:
		return LinearTransition{Target: w.Target}, nil
	case KindBranch:
		choices := w.Choices
		if choices == nil {
			choices = []Choice{}
		}
		return BranchTransition{Prompt: w.Prompt, Choices: choices}, nil
	case KindTerminal:
		return TerminalTransition{}, nil
	case KindIncomplete:
		return IncompleteTransition{}, nil
	default:
		return nil, fmt.Errorf("decode transition: unknown type %q", w.Type)
	}
}

// MarshalJSON implements json.Marshaler with the tagged next union.
func (n Node) MarshalJSON() ([]byte, error) {
	next, err := MarshalTransition(n.Next)
	if err != nil {
		return nil, fmt.Errorf("node %s: %w", n.ID, err)
	}
	shots := n.Shots
	if shots == nil {
		shots = []ShotNode{}
	}
	return json.Marshal(nodeWire{
		ID:              n.ID,
		Description:     n.Description,
		Shots:           shots,
		BranchAudioPath: n.BranchAudioPath,
		Next:            next,
	})
}

// UnmarshalJSON implements json.Unmarshaler. Unknown transition types fail.
func (n *Node) UnmarshalJSON(data []byte) error {
	var w nodeWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if len(w.Next) == 0 {
		return fmt.Errorf("node %s: decode transition: missing next", w.ID)
	}
	next, err := UnmarshalTransition(w.Next)
	if err != nil {
		return fmt.Errorf("node %s: %w", w.ID, err)
	}
	*n = Node{
		ID:              w.ID,
		Description:     w.Description,
		Shots:           w.Shots,
		BranchAudioPath: w.BranchAudioPath,
		Next:            next,
	}
	return nil
}
