package events

// Event type constants for kelindar/event.
const (
	TypeTranscodingLifecycle uint32 = iota + 1
	TypeTranscodingOutput
	TypeSettingsChanged
	TypeLogEntry
)

// SSE event names as seen by the front end.
const (
	NameTranscodingStarted  = "transcoding-started"
	NameTranscodingStopped  = "transcoding-stopped"
	NameTranscodingOutput   = "transcoding-output"
	NameTranscodingFinished = "transcoding-finished"
	NameSettingsChanged     = "settings-changed"
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// Transition names a change of the registry slot.
type Transition string

// Slot transitions.
const (
	TransitionStarted  Transition = "started"  // a new process was stored
	TransitionStopped  Transition = "stopped"  // the process was removed
	TransitionFinished Transition = "finished" // the process exited on its own
)

// TranscodingLifecycleEvent is published for every transition of the
// registry slot. All transitions share one event type, so each subscriber
// receives them in the order the registry published them.
type TranscodingLifecycleEvent struct {
	Transition Transition
	RunID      string
	ExitCode   int
	Error      string
}

// Type returns the event type identifier for TranscodingLifecycleEvent.
func (e TranscodingLifecycleEvent) Type() uint32 { return TypeTranscodingLifecycle }

// Payload returns the SSE payload for the transition.
func (e TranscodingLifecycleEvent) Payload() any {
	switch e.Transition {
	case TransitionStopped:
		return TranscodingStoppedEvent{}
	case TransitionFinished:
		return TranscodingFinishedEvent{RunID: e.RunID, ExitCode: e.ExitCode, Error: e.Error}
	default:
		return TranscodingStartedEvent{}
	}
}

// TranscodingStartedEvent is the transcoding-started SSE payload.
type TranscodingStartedEvent struct{}

// TranscodingStoppedEvent is the transcoding-stopped SSE payload, sent when
// the process leaves the registry by an explicit stop or by exiting.
type TranscodingStoppedEvent struct{}

// TranscodingOutputEvent carries one line of lilt output.
type TranscodingOutputEvent struct {
	RunID  string `json:"run_id" example:"2b1f3c1e-8f0a-4c55-9d0e-0d5c1f3c9a11" doc:"Run identifier"`
	Stream string `json:"stream" example:"stdout" doc:"Output stream: stdout or stderr"`
	Line   string `json:"line" doc:"Output line"`
}

// Type returns the event type identifier for TranscodingOutputEvent.
func (e TranscodingOutputEvent) Type() uint32 { return TypeTranscodingOutput }

// TranscodingFinishedEvent is the transcoding-finished SSE payload, sent
// when lilt exits on its own.
type TranscodingFinishedEvent struct {
	RunID    string `json:"run_id" doc:"Run identifier"`
	ExitCode int    `json:"exit_code" example:"0" doc:"Process exit code"`
	Error    string `json:"error,omitempty" doc:"Exit error, empty on success"`
}

// SettingsChangedEvent is published when the settings file changes on disk.
// Settings is kept as any to avoid an import cycle with the settings package.
type SettingsChangedEvent struct {
	Settings any `json:"settings" doc:"Current settings"`
}

// Type returns the event type identifier for SettingsChangedEvent.
func (e SettingsChangedEvent) Type() uint32 { return TypeSettingsChanged }

// LogEntryEvent represents a log entry for SSE streaming.
type LogEntryEvent struct {
	Seq        uint64         `json:"seq" example:"42" doc:"Log sequence number, increasing"`
	Timestamp  string         `json:"timestamp" example:"2025-01-09T10:30:00.123Z" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"api" doc:"Source module"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured log attributes"`
}

// Type returns the event type identifier for LogEntryEvent.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }
