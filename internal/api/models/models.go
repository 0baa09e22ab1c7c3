// Package models defines the request and response bodies of the HTTP API.
package models

import (
	"time"

	"github.com/smazurov/liltpanel/internal/locator"
	"github.com/smazurov/liltpanel/internal/process"
	"github.com/smazurov/liltpanel/internal/settings"
	"github.com/smazurov/liltpanel/internal/transcode"
	"github.com/smazurov/liltpanel/internal/version"
)

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
}

type HealthResponse struct {
	Body HealthData
}

type VersionResponse struct {
	Body version.Info
}

// Binary lookup models
type BinaryPathData struct {
	Name string `json:"name" example:"lilt" doc:"Binary name that was looked up"`
	Path string `json:"path" example:"/usr/local/bin/lilt" doc:"Resolved executable path"`
}

type BinaryPathResponse struct {
	Body BinaryPathData
}

type BinariesData struct {
	Binaries []locator.Status `json:"binaries" doc:"Availability of lilt and its helper tools"`
	Ready    bool             `json:"ready" example:"true" doc:"Whether every required binary was found"`
}

type BinariesResponse struct {
	Body BinariesData
}

// Dialog models
type DialogRequestData struct {
	Title string `json:"title" example:"Select source directory" doc:"Dialog window title"`
}

type DialogRequest struct {
	Body DialogRequestData
}

type DialogData struct {
	Path string `json:"path" example:"/home/user/Music" doc:"Selected path"`
}

type DialogResponse struct {
	Body DialogData
}

type OpenURLRequestData struct {
	URL string `json:"url" example:"https://github.com/Ferossgp/lilt" doc:"http or https URL to open in the browser"`
}

type OpenURLRequest struct {
	Body OpenURLRequestData
}

// Transcoding models
type StartTranscodingRequest struct {
	Body transcode.Config
}

type RunningData struct {
	Running bool `json:"running" example:"true" doc:"Whether a lilt process is running"`
}

type RunningResponse struct {
	Body RunningData
}

type OutputLine struct {
	Stream string `json:"stream" example:"stdout" doc:"Output stream"`
	Line   string `json:"line" doc:"Output line"`
}

type TranscodingStatusData struct {
	Running   bool         `json:"running" example:"true" doc:"Whether a lilt process is running"`
	PID       int          `json:"pid,omitempty" example:"4242" doc:"Process ID of the running lilt"`
	RunID     string       `json:"run_id,omitempty" doc:"Identifier of the running process"`
	StartedAt *time.Time   `json:"started_at,omitempty" doc:"When the running process was started"`
	Command   string       `json:"command,omitempty" example:"/usr/local/bin/lilt /music --target-dir /out" doc:"Command line of the running process"`
	Output    []OutputLine `json:"output" doc:"Most recent output lines of the current or last run"`
}

type TranscodingStatusResponse struct {
	Body TranscodingStatusData
}

// StatusFromProcess converts a registry snapshot to its API shape.
func StatusFromProcess(st process.Status) TranscodingStatusData {
	data := TranscodingStatusData{
		Running: st.Running(),
		PID:     st.PID,
		RunID:   st.RunID,
		Command: st.Command,
		Output:  make([]OutputLine, 0, len(st.Output)),
	}
	if !st.StartedAt.IsZero() {
		startedAt := st.StartedAt
		data.StartedAt = &startedAt
	}
	for _, line := range st.Output {
		data.Output = append(data.Output, OutputLine{Stream: line.Stream, Line: line.Line})
	}
	return data
}

// Settings models
type SettingsRequest struct {
	Body settings.Settings
}

type SettingsResponse struct {
	Body settings.Settings
}

// ConnectedEvent is the first message on the event stream and carries the
// state a fresh client needs before any lifecycle event arrives.
type ConnectedEvent struct {
	Running bool `json:"running" doc:"Whether a lilt process is running"`
}
