package player_test

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/storyreel/internal/player"
	"github.com/roach88/storyreel/internal/story"
	"github.com/roach88/storyreel/internal/testutil"
)

const (
	rampUp   = 400 * time.Millisecond
	rampDown = 400 * time.Millisecond
	hold     = 3 * time.Second
)

type rig struct {
	c      *player.Controller
	sched  *testutil.FakeScheduler
	events []player.Event
}

func newRig(t *testing.T, b *story.Bundle) *rig {
	t.Helper()
	r := &rig{sched: testutil.NewFakeScheduler()}
	c, err := player.NewController(b, r.sched,
		player.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		player.WithSessionIDs(testutil.NewSequentialSessions("")),
	)
	require.NoError(t, err)
	_, err = c.SubscribeAll(func(e player.Event) {
		r.events = append(r.events, e)
	})
	require.NoError(t, err)
	r.c = c
	return r
}

// take returns the labels of events recorded since the last call.
func (r *rig) take() []string {
	out := labels(r.events)
	r.events = nil
	return out
}

func labels(events []player.Event) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		if e.Type == player.EventStageChange {
			out = append(out, "stage-change("+string(e.Stage)+")")
			continue
		}
		out = append(out, string(e.Type))
	}
	return out
}

func withoutPauses(ls []string) []string {
	var out []string
	for _, l := range ls {
		if l != string(player.EventPauseChange) {
			out = append(out, l)
		}
	}
	return out
}

func TestController_EndToEndTwoNodes(t *testing.T) {
	r := newRig(t, testutil.TwoNodeBundle())

	r.c.Start()
	assert.Equal(t, []string{"stage-change(ramp-up)", "shot-enter"}, r.take())

	r.sched.Advance(rampUp)
	assert.Equal(t, []string{"stage-change(audio)", "audio-start"}, r.take())

	r.c.NotifyShotAudioComplete()
	assert.Equal(t, []string{"stage-change(ramp-down)"}, r.take())

	r.sched.Advance(rampDown)
	assert.Equal(t, []string{"scenelet-enter", "stage-change(ramp-up)", "shot-enter"}, r.take())

	r.sched.Advance(rampUp)
	assert.Equal(t, []string{"stage-change(audio)", "audio-missing"}, r.take())

	r.sched.Advance(hold)
	assert.Equal(t, []string{"stage-change(ramp-down)"}, r.take())

	r.sched.Advance(rampDown)
	assert.Equal(t, []string{"terminal", "stage-change(terminal)"}, r.take())

	state := r.c.State()
	assert.Equal(t, player.StageTerminal, state.Stage)
	assert.Equal(t, "scenelet-2", state.NodeID)
	assert.Zero(t, r.sched.Pending())
}

func TestController_EventPayloads(t *testing.T) {
	r := newRig(t, testutil.TwoNodeBundle())
	r.c.Start()
	r.sched.Advance(rampUp)

	require.Len(t, r.events, 4)
	shot := r.events[1]
	assert.Equal(t, "scenelet-1", shot.NodeID)
	assert.Equal(t, "assets/shots/scenelet-1/0_key_frame.png", shot.ImagePath)
	assert.Equal(t, "assets/shots/scenelet-1/0_audio.wav", shot.AudioPath)

	audio := r.events[3]
	assert.True(t, audio.FirstAudio)
	assert.Equal(t, "assets/shots/scenelet-1/0_audio.wav", audio.AudioPath)

	for i, e := range r.events {
		assert.Equal(t, int64(i+1), e.Seq)
		assert.Equal(t, "session-1", e.SessionID)
	}
}

func TestController_DeferredAudioCompletion(t *testing.T) {
	r := newRig(t, testutil.TwoNodeBundle())
	r.c.Start()
	r.take()

	r.c.NotifyShotAudioComplete()
	r.c.NotifyShotAudioComplete()
	assert.Empty(t, r.take(), "completion during ramp-up must not advance")
	assert.Equal(t, player.StageRampUp, r.c.State().Stage)

	r.sched.Advance(rampUp - time.Millisecond)
	assert.Empty(t, r.take())

	r.sched.Advance(time.Millisecond)
	assert.Equal(t, []string{"stage-change(audio)", "audio-start", "stage-change(ramp-down)"}, r.take())

	r.sched.Advance(rampDown)
	assert.Equal(t, []string{"scenelet-enter", "stage-change(ramp-up)", "shot-enter"}, r.take())
}

// reachSilentShot plays the two-node bundle up to scenelet-2's ramp-up.
func reachSilentShot(r *rig) {
	r.c.Start()
	r.sched.Advance(rampUp)
	r.c.NotifyShotAudioComplete()
	r.sched.Advance(rampDown)
	r.take()
}

func TestController_DeferredCompletionReplayedForSilentShot(t *testing.T) {
	r := newRig(t, testutil.TwoNodeBundle())
	reachSilentShot(r)

	r.c.NotifyShotAudioError()
	assert.Empty(t, r.take(), "completion during ramp-up must not advance")

	r.sched.Advance(rampUp)
	assert.Equal(t, []string{"stage-change(audio)", "audio-missing", "stage-change(ramp-down)"}, r.take())

	r.sched.Advance(rampDown)
	assert.Equal(t, []string{"terminal", "stage-change(terminal)"}, r.take())
	assert.Zero(t, r.sched.Pending(), "no fallback hold left behind")
}

func TestController_AudioErrorMovesOn(t *testing.T) {
	r := newRig(t, testutil.TwoNodeBundle())
	r.c.Start()
	r.sched.Advance(rampUp)
	r.take()

	r.c.NotifyShotAudioError()
	assert.Equal(t, []string{"stage-change(ramp-down)"}, r.take())
}

func TestController_IgnoredSignals(t *testing.T) {
	r := newRig(t, testutil.TwoNodeBundle())

	r.c.NotifyShotAudioComplete()
	r.c.Pause()
	r.c.Resume()
	assert.Empty(t, r.take(), "idle controller ignores signals")
	assert.Equal(t, player.StageIdle, r.c.State().Stage)

	r.c.Start()
	r.sched.Advance(rampUp)
	r.c.NotifyShotAudioComplete()
	r.take()

	r.c.NotifyShotAudioComplete()
	assert.Empty(t, r.take(), "ramp-down ignores audio signals")
}

// drive plays the two-node bundle to its end with no timer elapsing between
// steps other than those shown.
func driveTwoNodes(r *rig, between func()) []string {
	r.c.Start()
	between()
	r.sched.Advance(rampUp)
	between()
	r.c.NotifyShotAudioComplete()
	between()
	r.sched.Advance(rampDown)
	between()
	r.sched.Advance(rampUp)
	between()
	r.sched.Advance(hold)
	between()
	r.sched.Advance(rampDown)
	return r.take()
}

func TestController_PauseResumeIsTransparent(t *testing.T) {
	plain := newRig(t, testutil.TwoNodeBundle())
	want := driveTwoNodes(plain, func() {})

	paused := newRig(t, testutil.TwoNodeBundle())
	got := driveTwoNodes(paused, func() {
		paused.c.Pause()
		paused.c.Resume()
	})

	assert.Equal(t, want, withoutPauses(got))
	assert.Contains(t, got, string(player.EventPauseChange))
}

func TestController_PauseFreezesTime(t *testing.T) {
	r := newRig(t, testutil.TwoNodeBundle())
	r.c.Start()
	r.take()

	r.c.Pause()
	assert.Equal(t, []string{"pause-change"}, r.take())
	assert.True(t, r.c.State().Paused)
	assert.Zero(t, r.sched.Pending(), "pause stops the advance timer")

	r.c.Pause()
	r.sched.Advance(time.Minute)
	assert.Empty(t, r.take(), "nothing happens while paused")

	r.c.Resume()
	assert.Equal(t, []string{"pause-change", "stage-change(audio)", "audio-start"}, r.take())
	assert.False(t, r.c.State().Paused)

	r.c.Resume()
	assert.Empty(t, r.take())
}

func TestController_PauseIgnoredWhileVoicedShotPlays(t *testing.T) {
	r := newRig(t, testutil.TwoNodeBundle())
	r.c.Start()
	r.sched.Advance(rampUp)
	r.take()
	require.Zero(t, r.sched.Pending())

	r.c.Pause()
	assert.Empty(t, r.take(), "nothing pending, nothing to pause")
	assert.False(t, r.c.State().Paused)

	r.c.NotifyShotAudioComplete()
	assert.Equal(t, []string{"stage-change(ramp-down)"}, r.take())
}

func TestController_CompletionWhilePausedRunsOnResume(t *testing.T) {
	r := newRig(t, testutil.TwoNodeBundle())
	reachSilentShot(r)
	r.sched.Advance(rampUp)
	r.take()

	r.c.Pause()
	r.c.NotifyShotAudioComplete()
	assert.Equal(t, []string{"pause-change"}, r.take())

	r.c.Resume()
	assert.Equal(t, []string{"pause-change", "stage-change(ramp-down)"}, r.take())
}

func TestController_PauseEvents(t *testing.T) {
	r := newRig(t, testutil.TwoNodeBundle())
	r.c.Start()
	r.c.Pause()
	r.c.Resume()

	var pauses []bool
	for _, e := range r.events {
		if e.Type == player.EventPauseChange {
			pauses = append(pauses, e.Paused)
		}
	}
	assert.Equal(t, []bool{true, false}, pauses)
}

func reachChoice(t *testing.T) *rig {
	t.Helper()
	r := newRig(t, testutil.BranchBundle())
	r.c.Start()
	r.sched.Advance(rampUp)
	r.c.NotifyShotAudioComplete()
	r.sched.Advance(rampDown)
	require.Equal(t, player.StageChoice, r.c.State().Stage)
	return r
}

func TestController_Branch(t *testing.T) {
	r := reachChoice(t)

	branch := r.events[len(r.events)-2]
	assert.Equal(t, player.EventBranch, branch.Type)
	assert.Equal(t, "Which path?", branch.Prompt)
	assert.Equal(t, []story.Choice{
		{Label: "Left", Target: "scenelet-2"},
		{Label: "Right", Target: "scenelet-3"},
	}, branch.Choices)
	assert.Equal(t, []string{"branch", "stage-change(choice)"}, r.take()[5:])

	state := r.c.State()
	require.Len(t, state.PendingChoices, 2)
	state.PendingChoices[0].Target = "mutated"
	assert.Equal(t, "scenelet-2", r.c.State().PendingChoices[0].Target, "state returns a copy")

	r.c.Pause()
	assert.Empty(t, r.take(), "pause is a no-op in the choice stage")

	r.sched.Advance(rampUp)
	require.Len(t, r.events, 1)
	assert.Equal(t, player.EventBranchAudio, r.events[0].Type)
	assert.Equal(t, "assets/shots/scenelet-1/branch_audio.wav", r.events[0].AudioPath)
	r.take()

	require.NoError(t, r.c.ChooseBranch("scenelet-3"))
	assert.Equal(t, []string{"branch-audio-stop", "scenelet-enter", "stage-change(ramp-up)", "shot-enter"}, r.take())
	state = r.c.State()
	assert.Equal(t, "scenelet-3", state.NodeID)
	assert.Nil(t, state.PendingChoices)
}

func TestController_ChooseBeforeBranchAudioCancelsIt(t *testing.T) {
	r := reachChoice(t)
	r.take()

	require.NoError(t, r.c.ChooseBranch("scenelet-2"))
	r.sched.Advance(rampUp - time.Millisecond)
	r.take()
	r.sched.Advance(time.Second)

	for _, e := range r.events {
		assert.NotEqual(t, player.EventBranchAudio, e.Type)
	}
}

func TestController_ChooseBranchErrors(t *testing.T) {
	r := newRig(t, testutil.BranchBundle())

	err := r.c.ChooseBranch("scenelet-2")
	assert.True(t, player.HasCode(err, player.ErrNotInChoice), "idle: %v", err)

	r.c.Start()
	err = r.c.ChooseBranch("scenelet-2")
	assert.True(t, player.HasCode(err, player.ErrNotInChoice), "ramp-up: %v", err)

	r.sched.Advance(rampUp)
	r.c.NotifyShotAudioComplete()
	r.sched.Advance(rampDown)
	require.Equal(t, player.StageChoice, r.c.State().Stage)

	err = r.c.ChooseBranch("scenelet-9")
	assert.True(t, player.HasCode(err, player.ErrUnknownChoice), "unknown: %v", err)
	err = r.c.ChooseBranch("scenelet-1")
	assert.True(t, player.HasCode(err, player.ErrUnknownChoice), "node not offered: %v", err)

	var ue *player.UsageError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "ChooseBranch", ue.Op)
	assert.Equal(t, player.StageChoice, r.c.State().Stage, "failed choice leaves state alone")
}

func TestController_ListenerMayChooseDuringBranchEvent(t *testing.T) {
	r := newRig(t, testutil.BranchBundle())
	var chooseErr error
	_, err := r.c.Subscribe(player.EventBranch, func(e player.Event) {
		chooseErr = r.c.ChooseBranch(e.Choices[1].Target)
	})
	require.NoError(t, err)

	r.c.Start()
	r.sched.Advance(rampUp)
	r.c.NotifyShotAudioComplete()
	r.sched.Advance(rampDown)

	require.NoError(t, chooseErr)
	assert.Equal(t, []string{
		"stage-change(ramp-up)", "shot-enter",
		"stage-change(audio)", "audio-start",
		"stage-change(ramp-down)",
		"branch", "stage-change(choice)",
		"branch-audio-stop", "scenelet-enter", "stage-change(ramp-up)", "shot-enter",
	}, r.take())
	assert.Equal(t, "scenelet-3", r.c.State().NodeID)

	for i := 1; i < len(r.events); i++ {
		assert.Greater(t, r.events[i].Seq, r.events[i-1].Seq)
	}
}

func TestController_RestartFromChoice(t *testing.T) {
	r := reachChoice(t)
	r.take()

	r.c.Restart()
	assert.Equal(t, []string{"branch-audio-stop", "stage-change(idle)", "stage-change(ramp-up)", "shot-enter"}, r.take())

	state := r.c.State()
	assert.Equal(t, "session-2", state.SessionID)
	assert.Equal(t, "scenelet-1", state.NodeID)
	assert.Nil(t, state.PendingChoices)

	r.sched.Advance(time.Second)
	var audio *player.Event
	for i := range r.events {
		assert.NotEqual(t, player.EventBranchAudio, r.events[i].Type, "restart cancels branch audio")
		if r.events[i].Type == player.EventAudioStart {
			audio = &r.events[i]
		}
	}
	require.NotNil(t, audio)
	assert.False(t, audio.FirstAudio, "first-audio is per controller")
	assert.Equal(t, "session-2", audio.SessionID)
}

func TestController_RestartWhilePaused(t *testing.T) {
	r := newRig(t, testutil.TwoNodeBundle())
	r.c.Start()
	r.c.Pause()
	r.take()

	r.c.Restart()
	assert.Equal(t, []string{"pause-change", "stage-change(idle)", "stage-change(ramp-up)", "shot-enter"}, r.take())
	assert.False(t, r.c.State().Paused)
	assert.Equal(t, 1, r.sched.Pending())
}

func TestController_MultiShotNode(t *testing.T) {
	b := testutil.Bundle(
		testutil.Node("a", story.IncompleteTransition{},
			testutil.Shot(0, "img0.png", ""),
			testutil.Shot(2, "", "line2.wav"),
		),
	)
	r := newRig(t, b)
	r.c.Start()
	r.sched.Advance(rampUp + hold + rampDown)
	assert.Equal(t, 2, r.c.State().ShotIndex)
	r.sched.Advance(rampUp)
	r.c.NotifyShotAudioComplete()
	r.sched.Advance(rampDown)

	assert.Equal(t, []string{
		"stage-change(ramp-up)", "shot-enter",
		"stage-change(audio)", "audio-missing",
		"stage-change(ramp-down)",
		"stage-change(ramp-up)", "shot-enter",
		"stage-change(audio)", "audio-start",
		"stage-change(ramp-down)",
		"incomplete", "stage-change(incomplete)",
	}, r.take())
}

func TestController_MusicChanges(t *testing.T) {
	b := testutil.WithCue(testutil.TwoNodeBundle(), "Theme", "assets/music/Theme.m4a", "scenelet-1")
	r := newRig(t, b)

	r.c.Start()
	require.NotEmpty(t, r.events)
	first := r.events[0]
	assert.Equal(t, player.EventMusicChange, first.Type)
	assert.Equal(t, "Theme", first.CueName)
	assert.Equal(t, "assets/music/Theme.m4a", first.AudioPath)
	assert.Equal(t, "Theme", r.c.State().CueName)

	r.sched.Advance(rampUp)
	r.c.NotifyShotAudioComplete()
	r.take()
	r.sched.Advance(rampDown)

	require.GreaterOrEqual(t, len(r.events), 2)
	assert.Equal(t, player.EventSceneletEnter, r.events[0].Type)
	fade := r.events[1]
	assert.Equal(t, player.EventMusicChange, fade.Type)
	assert.Empty(t, fade.CueName)
	assert.Empty(t, fade.AudioPath, "empty path signals fade-out")
}

func TestController_SameCueAcrossNodesIsSilent(t *testing.T) {
	b := testutil.WithCue(testutil.TwoNodeBundle(), "Theme", "assets/music/Theme.m4a", "scenelet-1", "scenelet-2")
	r := newRig(t, b)
	r.c.Start()
	r.sched.Advance(rampUp)
	r.c.NotifyShotAudioComplete()
	r.sched.Advance(rampDown)

	count := 0
	for _, e := range r.events {
		if e.Type == player.EventMusicChange {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestController_Subscribe(t *testing.T) {
	r := newRig(t, testutil.TwoNodeBundle())

	var order []string
	unsubFirst, err := r.c.Subscribe(player.EventShotEnter, func(player.Event) { order = append(order, "first") })
	require.NoError(t, err)
	_, err = r.c.Subscribe(player.EventShotEnter, func(player.Event) { order = append(order, "second") })
	require.NoError(t, err)

	r.c.Start()
	assert.Equal(t, []string{"first", "second"}, order)

	unsubFirst()
	unsubFirst()
	r.c.Restart()
	assert.Equal(t, []string{"first", "second", "second"}, order)

	_, err = r.c.Subscribe("bogus", func(player.Event) {})
	assert.True(t, player.HasCode(err, player.ErrUnknownEventType))
	_, err = r.c.Subscribe(player.EventTerminal, nil)
	assert.True(t, player.HasCode(err, player.ErrNilListener))
}

func TestNewController_RejectsInvalidBundles(t *testing.T) {
	valid := func() *story.Bundle { return testutil.TwoNodeBundle() }
	shot := testutil.Shot(0, "a.png", "")

	tests := []struct {
		name   string
		bundle *story.Bundle
	}{
		{"nil bundle", nil},
		{"no nodes", testutil.Bundle()},
		{"missing root", func() *story.Bundle { b := valid(); b.RootID = "nope"; return b }()},
		{"duplicate ids", testutil.Bundle(
			testutil.Node("a", story.TerminalTransition{}, shot),
			testutil.Node("a", story.TerminalTransition{}, shot),
		)},
		{"no shots", testutil.Bundle(testutil.Node("a", story.TerminalTransition{}))},
		{"negative shot index", testutil.Bundle(testutil.Node("a", story.TerminalTransition{}, testutil.Shot(-1, "a.png", "")))},
		{"dangling linear", testutil.Bundle(testutil.Node("a", story.LinearTransition{Target: "b"}, shot))},
		{"branch without choices", testutil.Bundle(testutil.Node("a", story.BranchTransition{Prompt: "?"}, shot))},
		{"dangling branch choice", testutil.Bundle(
			testutil.Node("a", story.BranchTransition{Prompt: "?", Choices: []story.Choice{{Label: "x", Target: "x"}}}, shot),
		)},
		{"nil next", testutil.Bundle(testutil.Node("a", nil, shot))},
		{"unknown cue", func() *story.Bundle { b := valid(); b.Music.SceneletCueMap["scenelet-1"] = "Ghost"; return b }()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := player.NewController(tt.bundle, testutil.NewFakeScheduler())
			require.Error(t, err)
			assert.Nil(t, c)
			assert.True(t, player.HasCode(err, player.ErrInvalidBundle), "got %v", err)
			var be *player.InvalidBundleError
			assert.ErrorAs(t, err, &be)
		})
	}
}

func TestNewController_RequiresScheduler(t *testing.T) {
	_, err := player.NewController(testutil.TwoNodeBundle(), nil)
	assert.True(t, player.HasCode(err, player.ErrNilScheduler))
}

func TestController_CustomTimings(t *testing.T) {
	sched := testutil.NewFakeScheduler()
	c, err := player.NewController(testutil.TwoNodeBundle(), sched,
		player.WithTimings(player.Timings{RampUp: time.Second, RampDown: 2 * time.Second, AudioMissingHold: 5 * time.Second}),
		player.WithSessionIDs(player.NewFixedGenerator("fixed")),
	)
	require.NoError(t, err)

	c.Start()
	assert.Equal(t, []time.Duration{time.Second}, sched.Delays())
	assert.Equal(t, "fixed", c.State().SessionID)
}
