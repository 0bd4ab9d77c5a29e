package harness

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/storyreel/internal/player"
)

func TestScenarios_Golden(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		scenario, err := LoadScenario(path)
		require.NoError(t, err, path)

		t.Run(scenario.Name, func(t *testing.T) {
			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, strings.Join(result.Errors, "\n"))
		})
	}
}

const minimalBundle = `
bundle:
  root_id: a
  nodes:
    - id: a
      description: only node
      shots:
        - shot_index: 0
          image_path: a.png
          audio_path: a.wav
      next:
        type: branch
        prompt: Again?
        choices:
          - label: Again
            target: b
    - id: b
      description: leaf
      shots:
        - shot_index: 0
          image_path: b.png
      next:
        type: terminal
`

func parse(t *testing.T, body string) *Scenario {
	t.Helper()
	s, err := ParseScenario([]byte("name: t\ndescription: d\n" + minimalBundle + body))
	require.NoError(t, err)
	return s
}

func TestRun_SettleStopsWhileAudioPlays(t *testing.T) {
	s := parse(t, `
steps:
  - start
  - settle
expect:
  events: [shot-enter, audio-start]
  final_stage: audio
`)
	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, strings.Join(result.Errors, "\n"))
	assert.Equal(t, player.StageAudio, result.Final.Stage)
	assert.Equal(t, "a", result.Final.NodeID)
}

func TestRun_AudioErrorMovesOnToChoice(t *testing.T) {
	s := parse(t, `
steps:
  - start
  - advance: 400ms
  - audio_error
  - settle
expect:
  events: [audio-start, stage-change, branch, branch-audio]
  final_stage: choice
`)
	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, strings.Join(result.Errors, "\n"))
	require.Len(t, result.Final.PendingChoices, 1)
	assert.Equal(t, "b", result.Final.PendingChoices[0].Target)
}

func TestRun_StepErrorsAreRecorded(t *testing.T) {
	s := parse(t, `
steps:
  - start
  - choose: b
`)
	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "steps[1] choose: b")
	assert.Contains(t, result.Errors[0], player.ErrNotInChoice)
}

func TestRun_FailedExpectations(t *testing.T) {
	s := parse(t, `
steps:
  - start
expect:
  events: [shot-enter, terminal]
  final_stage: terminal
`)
	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "event_order")
	assert.Contains(t, result.Errors[0], "first missing terminal")
	assert.Contains(t, result.Errors[1], "final_stage")
	assert.Contains(t, result.Errors[1], "Actual: ramp-up")
}

func TestRun_InvalidBundle(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: broken
description: root is missing
bundle:
  root_id: nowhere
  nodes:
    - id: a
      description: x
      shots: [{shot_index: 0}]
      next: {type: terminal}
steps: [start]
`))
	require.NoError(t, err)

	_, err = Run(s)
	require.Error(t, err)
	assert.True(t, player.HasCode(err, player.ErrInvalidBundle))
}

func TestParseScenario_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"missing name", "description: d\n" + minimalBundle + "steps: [start]\n", "name is required"},
		{"missing description", "name: n\n" + minimalBundle + "steps: [start]\n", "description is required"},
		{"missing bundle", "name: n\ndescription: d\nsteps: [start]\n", "bundle is required"},
		{"no steps", "name: n\ndescription: d\n" + minimalBundle, "steps list is required"},
		{"unknown field", "name: n\ndescription: d\nflow: []\n" + minimalBundle + "steps: [start]\n", "failed to parse YAML"},
		{"unknown step", "name: n\ndescription: d\n" + minimalBundle + "steps: [jump]\n", `unknown step "jump"`},
		{"choose without target", "name: n\ndescription: d\n" + minimalBundle + "steps:\n  - choose: \"\"\n", "choose requires"},
		{"bad duration", "name: n\ndescription: d\n" + minimalBundle + "steps:\n  - advance: soon\n", "advance"},
		{"argument on start", "name: n\ndescription: d\n" + minimalBundle + "steps:\n  - start: now\n", "takes no argument"},
		{"two keys", "name: n\ndescription: d\n" + minimalBundle + "steps:\n  - {advance: 1s, choose: b}\n", "exactly one key"},
		{"unknown event", "name: n\ndescription: d\n" + minimalBundle + "steps: [start]\nexpect:\n  events: [explode]\n", "unknown event type"},
		{"unknown stage", "name: n\ndescription: d\n" + minimalBundle + "steps: [start]\nexpect:\n  final_stage: done\n", "unknown stage"},
		{"bad transition", "name: n\ndescription: d\nbundle:\n  root_id: a\n  nodes:\n    - id: a\n      shots: [{shot_index: 0}]\n      next: {type: loop}\nsteps: [start]\n", "unknown type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAssertEventOrder(t *testing.T) {
	trace := []TraceEvent{
		{Event: player.Event{Type: player.EventStageChange}},
		{Event: player.Event{Type: player.EventShotEnter}},
		{Event: player.Event{Type: player.EventStageChange}},
		{Event: player.Event{Type: player.EventAudioStart}},
	}

	assert.NoError(t, assertEventOrder(trace, []player.EventType{player.EventShotEnter, player.EventAudioStart}))
	assert.NoError(t, assertEventOrder(trace, []player.EventType{player.EventStageChange, player.EventStageChange}))
	assert.Error(t, assertEventOrder(trace, []player.EventType{player.EventAudioStart, player.EventShotEnter}))

	err := assertEventOrder(trace, []player.EventType{player.EventTerminal})
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "event_order", ae.Type)
	assert.Contains(t, ae.Error(), "[4] 0s audio-start")
}

func TestFormatTrace(t *testing.T) {
	trace := []TraceEvent{
		{At: 0, Event: player.Event{Type: player.EventStageChange, Seq: 1, SessionID: "s-1", Stage: player.StageRampUp}},
		{At: 1500_000_000, Event: player.Event{Type: player.EventPauseChange, Seq: 2, SessionID: "s-1", Paused: true}},
	}
	assert.Equal(t,
		"seq=1 t=0s session=s-1 stage-change stage=ramp-up\nseq=2 t=1.5s session=s-1 pause-change paused=true\n",
		FormatTrace(trace))
}
