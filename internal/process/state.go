package process

import "time"

// State represents whether the registry holds a process.
type State string

// Process states.
const (
	StateIdle    State = "idle"    // Slot empty
	StateRunning State = "running" // Slot holds a process
)

// OutputLine is one line of lilt output kept for status reporting.
type OutputLine struct {
	Stream string `json:"stream" example:"stdout" doc:"Output stream"`
	Line   string `json:"line" doc:"Output line"`
}

// Status describes the registry slot.
type Status struct {
	State     State
	PID       int
	RunID     string
	StartedAt time.Time
	Command   string
	// Output holds the most recent lines of the current, or last, run.
	Output []OutputLine
}

// Running reports whether a process is present.
func (s Status) Running() bool {
	return s.State == StateRunning
}
