// Package player drives a viewer through a story bundle shot by shot.
//
// A Controller is a timer-driven state machine:
//
//	idle → ramp-up → audio → ramp-down → (next shot | choice | terminal | incomplete)
//
// It never plays media itself. Hosts subscribe to its typed event stream
// (shot-enter, audio-start, music-change, branch, ...) and report back when
// their audio element finishes via NotifyShotAudioComplete.
//
// The controller is not safe for concurrent use. All calls, including timer
// callbacks, must arrive on one goroutine; Loop provides that for real hosts
// and tests use a manual scheduler.
package player
