package testutil

import "github.com/roach88/storyreel/internal/story"

// Shot builds a shot node. Empty paths mean absent.
func Shot(index int, image, audio string) story.ShotNode {
	return story.ShotNode{ShotIndex: index, ImagePath: image, AudioPath: audio}
}

// Node builds a bundle node with a generated description.
func Node(id string, next story.Transition, shots ...story.ShotNode) story.Node {
	return story.Node{ID: id, Description: "Scene " + id, Shots: shots, Next: next}
}

// Bundle builds a bundle rooted at the first node, with no music.
func Bundle(nodes ...story.Node) *story.Bundle {
	b := &story.Bundle{
		Metadata: story.BundleMetadata{StoryID: "story-test", Title: "Test Story"},
		Nodes:    nodes,
		Music:    story.MusicManifest{Cues: []story.MusicCue{}, SceneletCueMap: map[string]string{}},
	}
	if len(nodes) > 0 {
		b.RootID = nodes[0].ID
	}
	return b
}

// WithCue assigns nodeIDs to a music cue named name.
func WithCue(b *story.Bundle, name, audioPath string, nodeIDs ...string) *story.Bundle {
	b.Music.Cues = append(b.Music.Cues, story.MusicCue{Name: name, NodeIDs: nodeIDs, AudioPath: audioPath})
	for _, id := range nodeIDs {
		b.Music.SceneletCueMap[id] = name
	}
	return b
}

// TwoNodeBundle is a root with one voiced shot, linear into a terminal node
// with one silent shot.
func TwoNodeBundle() *story.Bundle {
	return Bundle(
		Node("scenelet-1", story.LinearTransition{Target: "scenelet-2"},
			Shot(0, "assets/shots/scenelet-1/0_key_frame.png", "assets/shots/scenelet-1/0_audio.wav")),
		Node("scenelet-2", story.TerminalTransition{},
			Shot(0, "assets/shots/scenelet-2/0_key_frame.png", "")),
	)
}

// BranchBundle is a voiced root branching to two terminal leaves.
func BranchBundle() *story.Bundle {
	root := Node("scenelet-1", story.BranchTransition{
		Prompt: "Which path?",
		Choices: []story.Choice{
			{Label: "Left", Target: "scenelet-2"},
			{Label: "Right", Target: "scenelet-3"},
		},
	}, Shot(0, "assets/shots/scenelet-1/0_key_frame.png", "assets/shots/scenelet-1/0_audio.wav"))
	root.BranchAudioPath = "assets/shots/scenelet-1/branch_audio.wav"

	return Bundle(
		root,
		Node("scenelet-2", story.TerminalTransition{},
			Shot(0, "assets/shots/scenelet-2/0_key_frame.png", "assets/shots/scenelet-2/0_audio.wav")),
		Node("scenelet-3", story.TerminalTransition{},
			Shot(0, "assets/shots/scenelet-3/0_key_frame.png", "assets/shots/scenelet-3/0_audio.wav")),
	)
}
