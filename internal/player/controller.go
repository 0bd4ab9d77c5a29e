package player

import (
	"log/slog"
	"time"

	"github.com/roach88/storyreel/internal/story"
)

// Timings are the fixed holds of the per-shot cycle.
type Timings struct {
	RampUp           time.Duration
	RampDown         time.Duration
	AudioMissingHold time.Duration
}

// DefaultTimings returns the standard holds.
func DefaultTimings() Timings {
	return Timings{
		RampUp:           400 * time.Millisecond,
		RampDown:         400 * time.Millisecond,
		AudioMissingHold: 3 * time.Second,
	}
}

// Option configures a Controller.
type Option func(*Controller)

// WithTimings overrides the ramp and audio-missing holds.
func WithTimings(t Timings) Option {
	return func(c *Controller) {
		c.timings = t
	}
}

// WithLogger sets the logger for stage transitions and ignored signals.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// WithSessionIDs sets the session id generator. Default: UUIDv7Generator.
func WithSessionIDs(g SessionIDGenerator) Option {
	return func(c *Controller) {
		c.sessions = g
	}
}

// State is a snapshot of the controller.
type State struct {
	Stage     Stage  `json:"stage"`
	Paused    bool   `json:"paused"`
	SessionID string `json:"session_id,omitempty"`
	NodeID    string `json:"node_id,omitempty"`
	ShotIndex int    `json:"shot_index"`

	// PendingChoices is non-nil only in the choice stage.
	PendingChoices []story.Choice `json:"pending_choices,omitempty"`

	CueName string `json:"cue_name,omitempty"`
}

// Controller plays one bundle.
//
// At most one advance timer and one branch-audio timer are live at a time;
// arming either cancels its predecessor. Pausing stops the advance timer but
// keeps its action, which Resume invokes at once.
type Controller struct {
	bundle    *story.Bundle
	nodes     map[string]*story.Node
	sched     Scheduler
	timings   Timings
	logger    *slog.Logger
	clock     *Clock
	sessions  SessionIDGenerator
	listeners *registry

	session     string
	stage       Stage
	paused      bool
	node        *story.Node
	shot        int // position in node.Shots
	choices     []story.Choice
	cue         string
	audioPlayed bool
	deferred    bool // audio completion reported during ramp-up

	advance     Timer
	advanceGen  uint64
	pending     func()
	branchAudio Timer
	branchGen   uint64

	outbox   []Event
	flushing bool
}

// NewController validates b and returns an idle controller over it.
//
// The bundle must not be modified while the controller is in use.
func NewController(b *story.Bundle, sched Scheduler, opts ...Option) (*Controller, error) {
	if sched == nil {
		return nil, usageError(ErrNilScheduler, "NewController", "scheduler is required")
	}
	if err := Validate(b); err != nil {
		return nil, err
	}

	c := &Controller{
		bundle:    b,
		nodes:     make(map[string]*story.Node, len(b.Nodes)),
		sched:     sched,
		timings:   DefaultTimings(),
		logger:    slog.Default(),
		clock:     NewClock(),
		sessions:  UUIDv7Generator{},
		listeners: newRegistry(),
		stage:     StageIdle,
	}
	for i := range b.Nodes {
		c.nodes[b.Nodes[i].ID] = &b.Nodes[i]
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Subscribe registers fn for events of type t and returns its unsubscribe
// function. Listeners of one type are called in registration order.
//
// Events raised while listeners run are queued behind the current event, so
// a listener may call back into the controller.
func (c *Controller) Subscribe(t EventType, fn Listener) (func(), error) {
	if !knownEventType(t) {
		return nil, usageError(ErrUnknownEventType, "Subscribe", "unknown event type %q", t)
	}
	if fn == nil {
		return nil, usageError(ErrNilListener, "Subscribe", "listener is nil")
	}
	return c.listeners.add(t, fn), nil
}

// SubscribeAll registers fn for every event. Catch-all listeners run after
// the type-specific listeners of each event.
func (c *Controller) SubscribeAll(fn Listener) (func(), error) {
	if fn == nil {
		return nil, usageError(ErrNilListener, "SubscribeAll", "listener is nil")
	}
	return c.listeners.addAll(fn), nil
}

// State returns a snapshot. PendingChoices is a copy.
func (c *Controller) State() State {
	s := State{
		Stage:     c.stage,
		Paused:    c.paused,
		SessionID: c.session,
		CueName:   c.cue,
	}
	if c.node != nil {
		s.NodeID = c.node.ID
		s.ShotIndex = c.node.Shots[c.shot].ShotIndex
	}
	if c.choices != nil {
		s.PendingChoices = append([]story.Choice(nil), c.choices...)
	}
	return s
}

// Bundle returns the bundle being played.
func (c *Controller) Bundle() *story.Bundle {
	return c.bundle
}

// Start begins playback at the root's first shot.
func (c *Controller) Start() {
	c.do(c.restart)
}

// Restart abandons the current session and begins again at the root.
func (c *Controller) Restart() {
	c.do(c.restart)
}

// Pause freezes playback. It does nothing when already paused or when the
// stage has no pending action (idle, choice, terminal, incomplete).
func (c *Controller) Pause() {
	c.do(c.pause)
}

// Resume unfreezes playback and runs the remembered action immediately.
func (c *Controller) Resume() {
	c.do(c.resume)
}

// ChooseBranch continues playback at target, which must be one of the
// choices offered in the current choice stage.
func (c *Controller) ChooseBranch(target string) error {
	var err error
	c.do(func() {
		err = c.choose(target)
	})
	return err
}

// NotifyShotAudioComplete reports that the host finished the shot's audio.
// It is ignored outside the ramp-up and audio stages. During ramp-up it is
// held until the ramp-up hold elapses.
func (c *Controller) NotifyShotAudioComplete() {
	c.do(func() {
		c.audioDone("complete")
	})
}

// NotifyShotAudioError reports that the host could not play the shot's
// audio. Playback moves on exactly as for NotifyShotAudioComplete.
func (c *Controller) NotifyShotAudioError() {
	c.do(func() {
		c.audioDone("error")
	})
}

func (c *Controller) restart() {
	c.cancelAdvance()
	c.deferred = false
	if c.stage == StageChoice {
		c.stopBranchAudio()
	}
	c.choices = nil

	c.session = c.sessions.Generate()
	c.logger.Debug("playback session started", "session", c.session, "root", c.bundle.RootID)

	if c.paused {
		c.paused = false
		c.emit(Event{Type: EventPauseChange, Paused: false})
	}
	c.setStage(StageIdle)
	c.enterNode(c.bundle.RootID, false)
}

// pause is a no-op unless an advance action is pending. While a voiced shot
// plays, the host's completion signal is the only way forward.
func (c *Controller) pause() {
	if c.paused || (c.advance == nil && c.pending == nil) {
		return
	}
	c.paused = true
	c.stopAdvance()
	c.emit(Event{Type: EventPauseChange, Paused: true})
}

func (c *Controller) resume() {
	if !c.paused {
		return
	}
	c.paused = false
	c.emit(Event{Type: EventPauseChange, Paused: false})
	if fn := c.pending; fn != nil {
		c.pending = nil
		fn()
	}
}

func (c *Controller) choose(target string) error {
	if c.stage != StageChoice {
		return usageError(ErrNotInChoice, "ChooseBranch", "stage is %s, not %s", c.stage, StageChoice)
	}
	offered := false
	for _, choice := range c.choices {
		if choice.Target == target {
			offered = true
			break
		}
	}
	if _, ok := c.nodes[target]; !ok || !offered {
		return usageError(ErrUnknownChoice, "ChooseBranch", "%q is not an offered choice at %s", target, c.node.ID)
	}

	c.logger.Debug("branch chosen", "node", c.node.ID, "target", target)
	c.stopBranchAudio()
	c.choices = nil
	if c.paused {
		c.paused = false
		c.emit(Event{Type: EventPauseChange, Paused: false})
	}
	c.enterNode(target, true)
	return nil
}

func (c *Controller) audioDone(signal string) {
	switch c.stage {
	case StageRampUp:
		c.logger.Debug("deferring audio signal until ramp-up ends", "signal", signal, "node", c.node.ID)
		c.deferred = true
	case StageAudio:
		if c.paused {
			c.pending = c.completeShot
			return
		}
		c.completeShot()
	default:
		c.logger.Debug("ignoring audio signal", "signal", signal, "stage", c.stage)
	}
}

// enterNode makes id current and plays its first shot. The root is entered
// silently; every other node announces itself with scenelet-enter.
func (c *Controller) enterNode(id string, announce bool) {
	c.node = c.nodes[id]
	c.shot = 0
	if announce {
		c.emit(Event{Type: EventSceneletEnter, NodeID: id})
	}
	c.syncMusic()
	c.playShot()
}

func (c *Controller) syncMusic() {
	cue, _ := c.bundle.Music.CueFor(c.node.ID)
	if cue.Name == c.cue {
		return
	}
	c.cue = cue.Name
	c.emit(Event{Type: EventMusicChange, NodeID: c.node.ID, CueName: cue.Name, AudioPath: cue.AudioPath})
}

func (c *Controller) playShot() {
	s := c.node.Shots[c.shot]
	c.setStage(StageRampUp)
	c.emit(Event{
		Type:      EventShotEnter,
		NodeID:    c.node.ID,
		ShotIndex: s.ShotIndex,
		ImagePath: s.ImagePath,
		AudioPath: s.AudioPath,
	})
	c.schedule(c.timings.RampUp, c.afterRampUp)
}

func (c *Controller) afterRampUp() {
	s := c.node.Shots[c.shot]
	c.setStage(StageAudio)

	if s.AudioPath == "" {
		c.emit(Event{Type: EventAudioMissing, NodeID: c.node.ID, ShotIndex: s.ShotIndex})
		if c.deferred {
			c.deferred = false
			c.completeShot()
			return
		}
		c.schedule(c.timings.AudioMissingHold, c.completeShot)
		return
	}

	first := !c.audioPlayed
	c.audioPlayed = true
	c.emit(Event{
		Type:       EventAudioStart,
		NodeID:     c.node.ID,
		ShotIndex:  s.ShotIndex,
		AudioPath:  s.AudioPath,
		FirstAudio: first,
	})
	if c.deferred {
		c.deferred = false
		c.completeShot()
	}
}

func (c *Controller) completeShot() {
	c.cancelAdvance()
	c.deferred = false
	c.setStage(StageRampDown)
	c.schedule(c.timings.RampDown, c.afterRampDown)
}

func (c *Controller) afterRampDown() {
	if c.shot+1 < len(c.node.Shots) {
		c.shot++
		c.playShot()
		return
	}
	c.follow()
}

// follow takes the current node's transition once its shots are exhausted.
func (c *Controller) follow() {
	switch next := c.node.Next.(type) {
	case story.LinearTransition:
		c.enterNode(next.Target, true)
	case story.BranchTransition:
		c.choices = append([]story.Choice(nil), next.Choices...)
		c.emit(Event{
			Type:    EventBranch,
			NodeID:  c.node.ID,
			Prompt:  next.Prompt,
			Choices: append([]story.Choice(nil), next.Choices...),
		})
		c.setStage(StageChoice)
		c.scheduleBranchAudio()
	case story.TerminalTransition:
		c.emit(Event{Type: EventTerminal, NodeID: c.node.ID})
		c.setStage(StageTerminal)
	case story.IncompleteTransition:
		c.emit(Event{Type: EventIncomplete, NodeID: c.node.ID})
		c.setStage(StageIncomplete)
	default:
		// Unreachable: Validate rejects every other transition.
		panic("player: unhandled transition " + string(c.node.Next.Kind()))
	}
}

func (c *Controller) setStage(s Stage) {
	if c.stage == s {
		return
	}
	c.logger.Debug("stage change", "from", c.stage, "to", s)
	c.stage = s
	c.emit(Event{Type: EventStageChange, Stage: s})
}

// schedule replaces the pending advance action and arms its timer unless
// paused.
func (c *Controller) schedule(delay time.Duration, fn func()) {
	c.stopAdvance()
	c.pending = fn
	if c.paused {
		return
	}
	gen := c.advanceGen
	c.advance = c.sched.Schedule(delay, func() {
		c.do(func() {
			if gen != c.advanceGen {
				return
			}
			action := c.pending
			c.advance = nil
			c.pending = nil
			if action != nil {
				action()
			}
		})
	})
}

// stopAdvance cancels the advance timer but keeps the pending action.
func (c *Controller) stopAdvance() {
	if c.advance != nil {
		c.advance.Stop()
		c.advance = nil
	}
	c.advanceGen++
}

func (c *Controller) cancelAdvance() {
	c.stopAdvance()
	c.pending = nil
}

func (c *Controller) scheduleBranchAudio() {
	if c.branchAudio != nil {
		c.branchAudio.Stop()
	}
	c.branchGen++
	gen := c.branchGen
	node := c.node
	c.branchAudio = c.sched.Schedule(c.timings.RampUp, func() {
		c.do(func() {
			if gen != c.branchGen {
				return
			}
			c.branchAudio = nil
			c.emit(Event{Type: EventBranchAudio, NodeID: node.ID, AudioPath: node.BranchAudioPath})
		})
	})
}

func (c *Controller) stopBranchAudio() {
	if c.branchAudio != nil {
		c.branchAudio.Stop()
		c.branchAudio = nil
	}
	c.branchGen++
	c.emit(Event{Type: EventBranchAudioStop, NodeID: c.node.ID})
}

func (c *Controller) emit(e Event) {
	e.Seq = c.clock.Next()
	e.SessionID = c.session
	c.outbox = append(c.outbox, e)
}

// do runs a state change and then delivers the events it raised. Nested
// calls from listeners only queue events; the outermost call delivers them.
func (c *Controller) do(fn func()) {
	fn()
	c.flush()
}

func (c *Controller) flush() {
	if c.flushing {
		return
	}
	c.flushing = true
	defer func() {
		c.flushing = false
	}()

	for len(c.outbox) > 0 {
		e := c.outbox[0]
		c.outbox[0] = Event{}
		c.outbox = c.outbox[1:]
		c.listeners.deliver(e)
	}
}
