// Package metrics provides Prometheus metrics for the lilt process registry.
package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Stop reasons used as the "reason" label.
const (
	StopReasonRequested = "requested"
	StopReasonReplaced  = "replaced"
	StopReasonExited    = "exited"
)

var (
	transcodingRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "liltpanel",
		Subsystem: "transcoding",
		Name:      "running",
		Help:      "Whether a lilt process is currently held by the registry",
	})

	transcodingStarts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "liltpanel",
		Subsystem: "transcoding",
		Name:      "starts_total",
		Help:      "Total lilt processes spawned",
	})

	transcodingSpawnFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "liltpanel",
		Subsystem: "transcoding",
		Name:      "spawn_failures_total",
		Help:      "Total failed attempts to spawn lilt",
	})

	transcodingKillFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "liltpanel",
		Subsystem: "transcoding",
		Name:      "kill_failures_total",
		Help:      "Total failed attempts to kill lilt",
	})

	transcodingStops = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "liltpanel",
		Subsystem: "transcoding",
		Name:      "stops_total",
		Help:      "Total lilt processes removed from the registry",
	}, []string{"reason"})

	transcodingExits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "liltpanel",
		Subsystem: "transcoding",
		Name:      "exits_total",
		Help:      "Total lilt processes that exited on their own, by exit code",
	}, []string{"code"})

	transcodingOutputLines = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "liltpanel",
		Subsystem: "transcoding",
		Name:      "output_lines_total",
		Help:      "Total lilt output lines read",
	}, []string{"stream"})

	// Local copy of the counters for the status endpoint.
	snapshot   TranscodingSnapshot
	snapshotMu sync.RWMutex
)

// TranscodingSnapshot holds current counter values.
type TranscodingSnapshot struct {
	Starts        uint64 `json:"starts" doc:"Processes spawned"`
	SpawnFailures uint64 `json:"spawn_failures" doc:"Failed spawns"`
	KillFailures  uint64 `json:"kill_failures" doc:"Failed kills"`
	Stops         uint64 `json:"stops" doc:"Processes removed from the registry"`
	Exits         uint64 `json:"exits" doc:"Processes that exited on their own"`
}

// SetRunning sets the running gauge.
func SetRunning(running bool) {
	if running {
		transcodingRunning.Set(1)
	} else {
		transcodingRunning.Set(0)
	}
}

// RecordStart counts a successful spawn.
func RecordStart() {
	transcodingStarts.Inc()
	update(func(s *TranscodingSnapshot) { s.Starts++ })
}

// RecordSpawnFailure counts a failed spawn.
func RecordSpawnFailure() {
	transcodingSpawnFailures.Inc()
	update(func(s *TranscodingSnapshot) { s.SpawnFailures++ })
}

// RecordKillFailure counts a failed kill.
func RecordKillFailure() {
	transcodingKillFailures.Inc()
	update(func(s *TranscodingSnapshot) { s.KillFailures++ })
}

// RecordStop counts a process leaving the registry for the given reason.
func RecordStop(reason string) {
	transcodingStops.WithLabelValues(reason).Inc()
	update(func(s *TranscodingSnapshot) { s.Stops++ })
}

// RecordExit counts a process exit observed by the reaper.
func RecordExit(code int) {
	transcodingExits.WithLabelValues(strconv.Itoa(code)).Inc()
	update(func(s *TranscodingSnapshot) { s.Exits++ })
}

// RecordOutputLine counts one output line from the given stream.
func RecordOutputLine(stream string) {
	transcodingOutputLines.WithLabelValues(stream).Inc()
}

// Snapshot returns the current counter values.
func Snapshot() TranscodingSnapshot {
	snapshotMu.RLock()
	defer snapshotMu.RUnlock()
	return snapshot
}

func update(fn func(*TranscodingSnapshot)) {
	snapshotMu.Lock()
	defer snapshotMu.Unlock()
	fn(&snapshot)
}
