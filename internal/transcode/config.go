// Package transcode turns a lilt configuration into a concrete process
// invocation.
package transcode

// Config describes one lilt run. It is passed by value and never modified
// after the caller hands it over.
type Config struct {
	LiltPath    string `json:"lilt_path" toml:"lilt_path" example:"/usr/local/bin/lilt" doc:"Path to the lilt binary"`
	SoxPath     string `json:"sox_path,omitempty" toml:"sox_path" example:"/usr/bin/sox" doc:"Path to the sox binary"`
	FFmpegPath  string `json:"ffmpeg_path,omitempty" toml:"ffmpeg_path" example:"/usr/bin/ffmpeg" doc:"Path to the ffmpeg binary"`
	FFprobePath string `json:"ffprobe_path,omitempty" toml:"ffprobe_path" example:"/usr/bin/ffprobe" doc:"Path to the ffprobe binary"`

	UseDocker           bool   `json:"use_docker" toml:"use_docker" doc:"Run lilt with its container image"`
	EnforceOutputFormat string `json:"enforce_output_format,omitempty" toml:"enforce_output_format" example:"flac" doc:"Output format override, empty for none"`
	NoPreserveMetadata  bool   `json:"no_preserve_metadata" toml:"no_preserve_metadata" doc:"Strip metadata from output files"`
	CopyImages          bool   `json:"copy_images" toml:"copy_images" doc:"Copy cover images to the target"`

	SourceDir string `json:"source_dir" toml:"source_dir" example:"/music/in" doc:"Source directory"`
	TargetDir string `json:"target_dir" toml:"target_dir" example:"/music/out" doc:"Target directory"`
}

// helperPaths returns the helper tool paths in PATH precedence order.
func (c Config) helperPaths() []string {
	return []string{c.SoxPath, c.FFmpegPath, c.FFprobePath}
}
