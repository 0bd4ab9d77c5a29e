package player

import (
	"fmt"
	"strings"

	"github.com/roach88/storyreel/internal/story"
)

// EventType names one kind of controller event.
type EventType string

const (
	EventStageChange     EventType = "stage-change"
	EventSceneletEnter   EventType = "scenelet-enter"
	EventShotEnter       EventType = "shot-enter"
	EventAudioStart      EventType = "audio-start"
	EventAudioMissing    EventType = "audio-missing"
	EventMusicChange     EventType = "music-change"
	EventBranch          EventType = "branch"
	EventBranchAudio     EventType = "branch-audio"
	EventBranchAudioStop EventType = "branch-audio-stop"
	EventTerminal        EventType = "terminal"
	EventIncomplete      EventType = "incomplete"
	EventPauseChange     EventType = "pause-change"
)

// EventTypes lists every event type in a stable order.
var EventTypes = []EventType{
	EventStageChange,
	EventSceneletEnter,
	EventShotEnter,
	EventAudioStart,
	EventAudioMissing,
	EventMusicChange,
	EventBranch,
	EventBranchAudio,
	EventBranchAudioStop,
	EventTerminal,
	EventIncomplete,
	EventPauseChange,
}

func knownEventType(t EventType) bool {
	for _, known := range EventTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Event is one entry of the controller's event stream. Only the fields
// relevant to Type are set.
type Event struct {
	Type      EventType `json:"type"`
	Seq       int64     `json:"seq"`
	SessionID string    `json:"session_id"`

	// stage-change
	Stage Stage `json:"stage,omitempty"`

	// scenelet-enter, shot-enter, audio-*, branch*, terminal, incomplete
	NodeID string `json:"node_id,omitempty"`

	// shot-enter, audio-start, audio-missing
	ShotIndex int    `json:"shot_index"`
	ImagePath string `json:"image_path,omitempty"`

	// shot-enter, audio-start, branch-audio; music-change (empty = fade out)
	AudioPath string `json:"audio_path,omitempty"`

	// audio-start: true on the controller's first audio play
	FirstAudio bool `json:"first_audio,omitempty"`

	// music-change
	CueName string `json:"cue_name,omitempty"`

	// branch
	Prompt  string         `json:"prompt,omitempty"`
	Choices []story.Choice `json:"choices,omitempty"`

	// pause-change
	Paused bool `json:"paused"`
}

// String renders the event on one line without Seq or SessionID.
func (e Event) String() string {
	var b strings.Builder
	b.WriteString(string(e.Type))

	field := func(k, v string) {
		fmt.Fprintf(&b, " %s=%s", k, v)
	}

	switch e.Type {
	case EventStageChange:
		field("stage", string(e.Stage))
	case EventSceneletEnter, EventTerminal, EventIncomplete, EventBranchAudioStop:
		field("node", e.NodeID)
	case EventShotEnter, EventAudioStart, EventAudioMissing:
		field("node", e.NodeID)
		field("shot", fmt.Sprint(e.ShotIndex))
		if e.ImagePath != "" && e.Type == EventShotEnter {
			field("image", e.ImagePath)
		}
		if e.AudioPath != "" {
			field("audio", e.AudioPath)
		}
		if e.FirstAudio {
			field("first", "true")
		}
	case EventMusicChange:
		if e.CueName == "" {
			field("cue", "-")
			break
		}
		field("cue", fmt.Sprintf("%q", e.CueName))
		field("audio", e.AudioPath)
	case EventBranch:
		field("node", e.NodeID)
		field("prompt", fmt.Sprintf("%q", e.Prompt))
		targets := make([]string, len(e.Choices))
		for i, c := range e.Choices {
			targets[i] = c.Target
		}
		field("choices", strings.Join(targets, ","))
	case EventBranchAudio:
		field("node", e.NodeID)
		if e.AudioPath != "" {
			field("audio", e.AudioPath)
		}
	case EventPauseChange:
		field("paused", fmt.Sprint(e.Paused))
	}
	return b.String()
}

// Listener receives events of the type it subscribed to.
type Listener func(Event)

type subscription struct {
	fn     Listener
	active bool
}

// registry holds listeners per event type in registration order.
type registry struct {
	byType map[EventType][]*subscription
	all    []*subscription
}

func newRegistry() *registry {
	return &registry{byType: make(map[EventType][]*subscription)}
}

func (r *registry) add(t EventType, fn Listener) func() {
	sub := &subscription{fn: fn, active: true}
	r.byType[t] = append(r.byType[t], sub)
	return func() {
		if !sub.active {
			return
		}
		sub.active = false
		r.byType[t] = remove(r.byType[t], sub)
	}
}

func (r *registry) addAll(fn Listener) func() {
	sub := &subscription{fn: fn, active: true}
	r.all = append(r.all, sub)
	return func() {
		if !sub.active {
			return
		}
		sub.active = false
		r.all = remove(r.all, sub)
	}
}

// deliver calls type listeners, then catch-all listeners. It iterates a
// snapshot so listeners may unsubscribe while being called.
func (r *registry) deliver(e Event) {
	subs := append([]*subscription(nil), r.byType[e.Type]...)
	subs = append(subs, r.all...)
	for _, sub := range subs {
		if sub.active {
			sub.fn(e)
		}
	}
}

func remove(subs []*subscription, target *subscription) []*subscription {
	out := subs[:0:0]
	for _, s := range subs {
		if s != target {
			out = append(out, s)
		}
	}
	return out
}
