package story

import "time"

// Bundle is the self-contained playback unit consumed by the player.
//
// INVARIANTS:
//   - RootID is one of Nodes
//   - Node ids are unique
//   - Every id referenced by a Next transition exists among Nodes
type Bundle struct {
	Metadata BundleMetadata `json:"metadata"`
	RootID   string         `json:"root_id"`
	Nodes    []Node         `json:"nodes"`
	Music    MusicManifest  `json:"music"`
}

// BundleMetadata describes where a bundle came from.
type BundleMetadata struct {
	StoryID     string    `json:"story_id"`
	Title       string    `json:"title"`
	ExportedAt  time.Time `json:"exported_at"`
	Fingerprint string    `json:"fingerprint,omitempty"`
}

// Node is one playable scenelet inside a bundle.
type Node struct {
	ID              string
	Description     string
	Shots           []ShotNode
	BranchAudioPath string
	Next            Transition
}

// ShotNode is one shot of a bundle node. Empty paths mean "absent".
type ShotNode struct {
	ShotIndex int    `json:"shot_index"`
	ImagePath string `json:"image_path,omitempty"`
	AudioPath string `json:"audio_path,omitempty"`
}

// MusicManifest lists background music cues and the node → cue lookup.
type MusicManifest struct {
	Cues           []MusicCue        `json:"cues"`
	SceneletCueMap map[string]string `json:"scenelet_cue_map"`
}

// MusicCue is one background music track and the nodes it scores.
type MusicCue struct {
	Name      string   `json:"name"`
	NodeIDs   []string `json:"node_ids"`
	AudioPath string   `json:"audio_path"`
}

// NodeByID returns the node with the given id.
func (b *Bundle) NodeByID(id string) (*Node, bool) {
	for i := range b.Nodes {
		if b.Nodes[i].ID == id {
			return &b.Nodes[i], true
		}
	}
	return nil, false
}

// CueFor returns the cue assigned to nodeID, if any.
func (m MusicManifest) CueFor(nodeID string) (MusicCue, bool) {
	name, ok := m.SceneletCueMap[nodeID]
	if !ok {
		return MusicCue{}, false
	}
	for _, c := range m.Cues {
		if c.Name == name {
			return c, true
		}
	}
	return MusicCue{}, false
}
