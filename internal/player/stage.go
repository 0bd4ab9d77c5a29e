package player

// Stage is the controller's position in the per-shot cycle.
type Stage string

const (
	StageIdle       Stage = "idle"
	StageRampUp     Stage = "ramp-up"
	StageAudio      Stage = "audio"
	StageRampDown   Stage = "ramp-down"
	StageChoice     Stage = "choice"
	StageTerminal   Stage = "terminal"
	StageIncomplete Stage = "incomplete"
)

// Settled reports whether playback of the current path has stopped.
func (s Stage) Settled() bool {
	switch s {
	case StageChoice, StageTerminal, StageIncomplete:
		return true
	default:
		return false
	}
}
