package process

import (
	"bufio"
	"errors"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/smazurov/liltpanel/internal/events"
	"github.com/smazurov/liltpanel/internal/metrics"
	"github.com/smazurov/liltpanel/internal/transcode"
)

const maxLineSize = 1024 * 1024

// killGroup is swapped out in tests.
var killGroup = killProcessGroup

// OutputHandler receives output lines from the subprocess.
type OutputHandler interface {
	HandleLine(source, line string)
}

// LogParser parses a log line and returns the log level and message.
// Used to extract structured log info from lilt output.
type LogParser func(line string) (level, msg string)

// handle is one spawned lilt process.
type handle struct {
	runID      string
	cmd        *exec.Cmd
	pid        int
	startedAt  time.Time
	invocation transcode.Invocation
	tail       *outputTail

	outputWG sync.WaitGroup
	done     chan struct{} // closed once Wait has returned
	waitErr  error
}

// spawn starts lilt for inv with both output streams piped back to us.
func (r *Registry) spawn(inv transcode.Invocation) (*handle, error) {
	cmd := exec.Command(inv.Path, inv.Args...)
	if len(inv.Env) > 0 {
		// Later entries win, so the overlay overrides the inherited values.
		cmd.Env = append(os.Environ(), inv.Env...)
	}
	setProcessGroup(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		r.logger.Error("Failed to create stdout pipe", "error", err)
		return nil, err
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		r.logger.Error("Failed to create stderr pipe", "error", err)
		return nil, err
	}

	if err := cmd.Start(); err != nil {
		r.logger.Error("Failed to start process", "error", err, "command", inv.String())
		return nil, err
	}

	h := &handle{
		runID:      uuid.NewString(),
		cmd:        cmd,
		pid:        cmd.Process.Pid,
		startedAt:  time.Now(),
		invocation: inv,
		tail:       newOutputTail(r.opts.OutputTailSize),
		done:       make(chan struct{}),
	}

	r.logger.Info("Process started", "run_id", h.runID, "pid", h.pid, "command", inv.String())

	h.outputWG.Add(2)
	go func() {
		defer h.outputWG.Done()
		r.streamOutput(h, stdout, "stdout")
	}()
	go func() {
		defer h.outputWG.Done()
		r.streamOutput(h, stderr, "stderr")
	}()

	return h, nil
}

// wait drains both output streams, then reaps the child.
// Reads must finish before Wait closes the pipes.
func (h *handle) wait() error {
	h.outputWG.Wait()
	h.waitErr = h.cmd.Wait()
	close(h.done)
	return h.waitErr
}

// exited reports whether the child has already been reaped.
func (h *handle) exited() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// kill force-kills the process group without waiting for exit.
// A process that is already gone counts as killed.
func (h *handle) kill() error {
	if h.exited() {
		return nil
	}
	if err := killGroup(h.cmd.Process); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}

// exitCodeFromError extracts exit code from process error.
// Returns 0 for nil error, the exit code for ExitError, or 1 for other errors.
func exitCodeFromError(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}

// streamOutput reads one output stream line by line until EOF.
// Each line goes to the output tail, the output handler, the event bus and
// the output logger.
func (r *Registry) streamOutput(h *handle, reader io.Reader, source string) {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	logger := r.outputLogger.With("run_id", h.runID, "source", source)

	for scanner.Scan() {
		line := scanner.Text()

		h.tail.add(OutputLine{Stream: source, Line: line})
		metrics.RecordOutputLine(source)

		if r.opts.OutputHandler != nil {
			r.opts.OutputHandler.HandleLine(source, line)
		}

		r.bus.Publish(events.TranscodingOutputEvent{
			RunID:  h.runID,
			Stream: source,
			Line:   line,
		})

		level, msg := "info", line
		if r.opts.LogParser != nil {
			level, msg = r.opts.LogParser(line)
		}

		switch level {
		case "fatal", "error":
			logger.Error(msg)
		case "warning", "warn":
			logger.Warn(msg)
		case "debug", "trace":
			logger.Debug(msg)
		default:
			logger.Info(msg)
		}
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, os.ErrClosed) {
		r.logger.Warn("Error reading output", "source", source, "error", err)
		// Keep the pipe drained so lilt never blocks on a full buffer.
		_, _ = io.Copy(io.Discard, reader)
	}
}
