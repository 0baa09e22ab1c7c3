package process

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/smazurov/liltpanel/internal/events"
	"github.com/smazurov/liltpanel/internal/metrics"
	"github.com/smazurov/liltpanel/internal/transcode"
)

// ErrNoProcessRunning is returned by Stop when the slot is empty.
var ErrNoProcessRunning = errors.New("no process running")

const defaultOutputTailSize = 200

// RegistryOptions configures a new Registry.
type RegistryOptions struct {
	// EventBus receives lifecycle and output events (optional).
	EventBus *events.Bus

	// Logger for registry operations. If nil, uses slog.Default().
	Logger *slog.Logger

	// OutputLogger logs lilt output lines (nil = use Logger).
	OutputLogger *slog.Logger

	// LogParser extracts log levels from lilt output (nil = everything at info).
	LogParser LogParser

	// OutputHandler receives each output line (optional).
	OutputHandler OutputHandler

	// OutputTailSize is the number of output lines kept for Status.
	OutputTailSize int
}

// Registry holds the single lilt process slot. All methods are safe for
// concurrent use; none of them waits for the child to exit.
type Registry struct {
	mu     sync.Mutex
	active *handle
	// recent is the last spawned handle, kept so Status can show the
	// output of a run that already ended.
	recent *handle

	opts         RegistryOptions
	bus          *events.Bus
	logger       *slog.Logger
	outputLogger *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(opts *RegistryOptions) *Registry {
	if opts == nil {
		opts = &RegistryOptions{}
	}

	o := *opts
	if o.OutputTailSize <= 0 {
		o.OutputTailSize = defaultOutputTailSize
	}

	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}
	outputLogger := o.OutputLogger
	if outputLogger == nil {
		outputLogger = logger
	}

	return &Registry{
		opts:         o,
		bus:          o.EventBus,
		logger:       logger,
		outputLogger: outputLogger,
	}
}

// Start launches lilt for cfg. A process already in the slot is killed
// first, without waiting for it, so at most one lilt runs at any time.
// On spawn failure the slot is left empty and no event is published.
func (r *Registry) Start(cfg transcode.Config) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old := r.active; old != nil {
		r.active = nil
		r.logger.Info("Replacing running process", "run_id", old.runID, "pid", old.pid)
		if err := old.kill(); err != nil {
			r.logger.Warn("Failed to kill replaced process", "pid", old.pid, "error", err)
		}
		metrics.RecordStop(metrics.StopReasonReplaced)
	}

	inv := transcode.Build(cfg, os.Getenv("PATH"))

	h, err := r.spawn(inv)
	if err != nil {
		metrics.SetRunning(false)
		metrics.RecordSpawnFailure()
		return fmt.Errorf("failed to start lilt: %w", err)
	}

	r.active = h
	r.recent = h
	metrics.RecordStart()
	metrics.SetRunning(true)

	go r.reap(h)

	r.bus.Publish(events.TranscodingLifecycleEvent{Transition: events.TransitionStarted, RunID: h.runID})
	return nil
}

// Stop force-kills the running process. It returns ErrNoProcessRunning if
// the slot is empty. If the kill fails the process is still dropped from
// the slot and the error is returned.
func (r *Registry) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	h := r.active
	if h == nil {
		return ErrNoProcessRunning
	}
	r.active = nil
	metrics.SetRunning(false)

	r.logger.Info("Stopping process", "run_id", h.runID, "pid", h.pid)
	if err := h.kill(); err != nil {
		metrics.RecordKillFailure()
		r.logger.Error("Failed to kill process", "run_id", h.runID, "pid", h.pid, "error", err)
		return fmt.Errorf("failed to kill process: %w", err)
	}
	metrics.RecordStop(metrics.StopReasonRequested)

	r.bus.Publish(events.TranscodingLifecycleEvent{Transition: events.TransitionStopped, RunID: h.runID})
	return nil
}

// IsRunning reports whether the slot holds a process.
func (r *Registry) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active != nil
}

// Status returns a snapshot of the slot. Output comes from the running
// process, or from the last run when idle.
func (r *Registry) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	status := Status{State: StateIdle}
	if r.recent != nil {
		status.Output = r.recent.tail.snapshot()
	}
	if h := r.active; h != nil {
		status.State = StateRunning
		status.PID = h.pid
		status.RunID = h.runID
		status.StartedAt = h.startedAt
		status.Command = h.invocation.String()
	}
	return status
}

// Shutdown kills the running process, if any. Called on daemon exit so no
// lilt process outlives it.
func (r *Registry) Shutdown() {
	if err := r.Stop(); err != nil && !errors.Is(err, ErrNoProcessRunning) {
		r.logger.Warn("Failed to stop process on shutdown", "error", err)
	}
}

// reap waits for h to exit and, if h is still the active process, clears
// the slot and announces the exit.
func (r *Registry) reap(h *handle) {
	waitErr := h.wait()
	exitCode := exitCodeFromError(waitErr)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active != h {
		r.logger.Debug("Removed process exited", "run_id", h.runID, "exit_code", exitCode)
		return
	}
	r.active = nil
	metrics.SetRunning(false)
	metrics.RecordStop(metrics.StopReasonExited)
	metrics.RecordExit(exitCode)

	if waitErr != nil {
		r.logger.Warn("Process exited with error", "run_id", h.runID, "exit_code", exitCode, "error", waitErr)
	} else {
		r.logger.Info("Process exited", "run_id", h.runID, "exit_code", exitCode)
	}

	finished := events.TranscodingLifecycleEvent{
		Transition: events.TransitionFinished,
		RunID:      h.runID,
		ExitCode:   exitCode,
	}
	if waitErr != nil {
		finished.Error = waitErr.Error()
	}
	r.bus.Publish(finished)
	r.bus.Publish(events.TranscodingLifecycleEvent{Transition: events.TransitionStopped, RunID: h.runID})
}
