// Package harness runs playback scenarios against a player.Controller.
//
// A scenario is a YAML file holding an inline bundle, a list of steps and
// the events it expects. Steps drive the controller directly or move a fake
// scheduler's clock forward, so every run is deterministic:
//
//	name: two_node_linear
//	description: Voiced root continues into a silent terminal node
//	bundle:
//	  root_id: scenelet-1
//	  nodes: [...]
//	steps:
//	  - start
//	  - advance: 400ms
//	  - audio_complete
//	expect:
//	  events: [stage-change, shot-enter, audio-start]
//	  final_stage: ramp-down
//
// RunWithGolden additionally compares a line-per-event rendering of the trace
// against testdata/golden/<name>.golden.
package harness
