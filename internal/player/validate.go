package player

import (
	"fmt"

	"github.com/roach88/storyreel/internal/story"
)

// Validate checks that b can be played: the root exists, node ids are
// unique, every node has at least one shot with a non-negative index, and
// every transition target names a node in the bundle. Cue assignments must
// name a listed cue.
func Validate(b *story.Bundle) error {
	if b == nil {
		return invalidBundle("", "bundle is nil")
	}
	if len(b.Nodes) == 0 {
		return invalidBundle("", "bundle has no nodes")
	}

	ids := make(map[string]bool, len(b.Nodes))
	for _, n := range b.Nodes {
		if n.ID == "" {
			return invalidBundle("", "node without id")
		}
		if ids[n.ID] {
			return invalidBundle(n.ID, "duplicate node id")
		}
		ids[n.ID] = true
	}
	if !ids[b.RootID] {
		return invalidBundle(b.RootID, "root id is not a bundle node")
	}

	for _, n := range b.Nodes {
		if len(n.Shots) == 0 {
			return invalidBundle(n.ID, "node has no shots")
		}
		for _, s := range n.Shots {
			if s.ShotIndex < 0 {
				return invalidBundle(n.ID, "negative shot index %d", s.ShotIndex)
			}
		}
		if err := validateTransition(n.ID, n.Next, ids); err != nil {
			return err
		}
	}

	cues := make(map[string]bool, len(b.Music.Cues))
	for _, cue := range b.Music.Cues {
		cues[cue.Name] = true
	}
	for nodeID, name := range b.Music.SceneletCueMap {
		if !cues[name] {
			return invalidBundle(nodeID, "music cue %q is not in the cue list", name)
		}
	}
	return nil
}

func validateTransition(nodeID string, next story.Transition, ids map[string]bool) error {
	switch t := next.(type) {
	case story.LinearTransition:
		if !ids[t.Target] {
			return invalidBundle(nodeID, "linear target %q is not a bundle node", t.Target)
		}
	case story.BranchTransition:
		if len(t.Choices) == 0 {
			return invalidBundle(nodeID, "branch has no choices")
		}
		for _, c := range t.Choices {
			if !ids[c.Target] {
				return invalidBundle(nodeID, "branch target %q is not a bundle node", c.Target)
			}
		}
	case story.TerminalTransition, story.IncompleteTransition:
	case nil:
		return invalidBundle(nodeID, "node has no next transition")
	default:
		return invalidBundle(nodeID, "unsupported transition %s", fmt.Sprintf("%T", t))
	}
	return nil
}
