package story

import (
	"errors"
	"strings"
	"time"
)

// SkippedAudioSentinel marks a shot whose audio generation was intentionally
// skipped upstream. It is never a real file and is treated as "no audio".
const SkippedAudioSentinel = "AUDIO_GENERATION_SKIPPED"

// ErrNotFound is returned by sources when a requested story does not exist.
var ErrNotFound = errors.New("not found")

// Metadata identifies a story.
type Metadata struct {
	ID    string `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`
}

// DialogueLine is one spoken line inside a scenelet.
type DialogueLine struct {
	Character string `json:"character" yaml:"character"`
	Line      string `json:"line" yaml:"line"`
}

// SceneletContent is the authored payload of a scenelet.
type SceneletContent struct {
	Description     string         `json:"description" yaml:"description"`
	Dialogue        []DialogueLine `json:"dialogue,omitempty" yaml:"dialogue,omitempty"`
	ShotSuggestions []string       `json:"shot_suggestions,omitempty" yaml:"shot_suggestions,omitempty"`
}

// SceneletRecord is one persisted narrative beat.
//
// ParentID is empty only for the root. ChoiceLabel describes the choice that
// led here from a branching parent; ChoicePrompt is set when this record is
// itself a branch point.
type SceneletRecord struct {
	ID              string          `json:"id" yaml:"id"`
	ParentID        string          `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
	ChoiceLabel     string          `json:"choice_label,omitempty" yaml:"choice_label,omitempty"`
	ChoicePrompt    string          `json:"choice_prompt,omitempty" yaml:"choice_prompt,omitempty"`
	Content         SceneletContent `json:"content" yaml:"content"`
	IsBranchPoint   bool            `json:"is_branch_point" yaml:"is_branch_point"`
	IsTerminal      bool            `json:"is_terminal" yaml:"is_terminal"`
	BranchAudioPath string          `json:"branch_audio_path,omitempty" yaml:"branch_audio_path,omitempty"`
	CreatedAt       time.Time       `json:"created_at" yaml:"created_at"`
}

// IsRoot reports whether the record has no parent.
func (r SceneletRecord) IsRoot() bool {
	return r.ParentID == ""
}

// ShotRecord is one persisted shot of a scenelet.
//
// SceneletAlias is the identifier the generation pipeline used for the
// scenelet (typically the tree digest id, e.g. "scenelet-3"); it may differ
// from SceneletID. Empty paths mean "absent".
type ShotRecord struct {
	SceneletID    string `json:"scenelet_id" yaml:"scenelet_id"`
	SceneletAlias string `json:"scenelet_alias,omitempty" yaml:"scenelet_alias,omitempty"`
	ShotIndex     int    `json:"shot_index" yaml:"shot_index"`
	ImagePath     string `json:"image_path,omitempty" yaml:"image_path,omitempty"`
	AudioPath     string `json:"audio_path,omitempty" yaml:"audio_path,omitempty"`
}

// HasRealAudio reports whether path names an actual audio file.
func HasRealAudio(path string) bool {
	p := strings.TrimSpace(path)
	return p != "" && p != SkippedAudioSentinel
}

// RealAudio returns path, or "" when it is empty or the skipped sentinel.
func RealAudio(path string) string {
	if !HasRealAudio(path) {
		return ""
	}
	return strings.TrimSpace(path)
}
