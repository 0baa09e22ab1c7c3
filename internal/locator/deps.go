package locator

import (
	"context"
	"strings"
)

// Requirement defines an external tool lilt relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a requirement.
type Status struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description,omitempty"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Path        string `json:"path,omitempty"`
	Version     string `json:"version,omitempty"`
	Detail      string `json:"detail,omitempty"`
}

// DefaultRequirements lists lilt and its helper tools. The helpers are
// optional because containerized runs bring their own.
func DefaultRequirements() []Requirement {
	return []Requirement{
		{Name: "lilt", Command: "lilt", Description: "Audio library transcoder"},
		{Name: "sox", Command: "sox", Description: "Resampling and bit depth conversion", Optional: true},
		{Name: "ffmpeg", Command: "ffmpeg", Description: "Lossy encoding", Optional: true},
		{Name: "ffprobe", Command: "ffprobe", Description: "Stream inspection", Optional: true},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
// Available binaries are asked for their version; a failed check leaves
// Version empty but does not make the binary unavailable.
func CheckBinaries(ctx context.Context, loc BinaryLocator, requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}

		path, err := loc.Find(cmd)
		if err != nil {
			status.Detail = err.Error()
			results = append(results, status)
			continue
		}
		status.Available = true
		status.Path = path

		if version, err := DetectVersion(ctx, path); err == nil {
			status.Version = version
		}
		results = append(results, status)
	}
	return results
}
