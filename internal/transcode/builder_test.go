package transcode

import (
	"slices"
	"strings"
	"testing"
)

func TestBuildArgs(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want []string
	}{
		{
			name: "minimal",
			cfg:  Config{SourceDir: "/a", TargetDir: "/b"},
			want: []string{"/a", "--target-dir", "/b"},
		},
		{
			name: "format override and metadata stripping",
			cfg: Config{
				UseDocker:           false,
				EnforceOutputFormat: "mp3",
				NoPreserveMetadata:  true,
				CopyImages:          false,
				SourceDir:           "/a",
				TargetDir:           "/b",
			},
			want: []string{"/a", "--target-dir", "/b", "--enforce-output-format", "mp3", "--no-preserve-metadata"},
		},
		{
			name: "all flags",
			cfg: Config{
				UseDocker:           true,
				EnforceOutputFormat: "flac",
				NoPreserveMetadata:  true,
				CopyImages:          true,
				SourceDir:           "/src",
				TargetDir:           "/dst",
			},
			want: []string{
				"/src", "--target-dir", "/dst",
				"--use-docker",
				"--enforce-output-format", "flac",
				"--no-preserve-metadata",
				"--copy-images",
			},
		},
		{
			name: "paths passed verbatim",
			cfg:  Config{SourceDir: "relative dir/../x", TargetDir: ""},
			want: []string{"relative dir/../x", "--target-dir", ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildArgs(tt.cfg)
			if !slices.Equal(got, tt.want) {
				t.Errorf("BuildArgs() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildDeterministic(t *testing.T) {
	cfg := Config{
		LiltPath:            "/usr/local/bin/lilt",
		SoxPath:             "/opt/sox/bin/sox",
		FFmpegPath:          "/opt/ffmpeg/bin/ffmpeg",
		EnforceOutputFormat: "alac",
		CopyImages:          true,
		SourceDir:           "/in",
		TargetDir:           "/out",
	}

	first := Build(cfg, "/usr/bin:/bin")
	for range 10 {
		next := Build(cfg, "/usr/bin:/bin")
		if next.Path != first.Path || !slices.Equal(next.Args, first.Args) || !slices.Equal(next.Env, first.Env) {
			t.Fatalf("Build() not deterministic: %+v vs %+v", first, next)
		}
	}
	if first.Path != cfg.LiltPath {
		t.Errorf("Path = %q, want %q", first.Path, cfg.LiltPath)
	}
}

func TestBuildEnv(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		inherit string
		want    []string
	}{
		{
			name:    "helper directory prepended",
			cfg:     Config{SoxPath: "/opt/tool/bin/tool"},
			inherit: "/usr/bin:/bin",
			want:    []string{"PATH=/opt/tool/bin:/usr/bin:/bin"},
		},
		{
			name:    "docker leaves PATH alone",
			cfg:     Config{UseDocker: true, SoxPath: "/opt/tool/bin/tool"},
			inherit: "/usr/bin:/bin",
			want:    nil,
		},
		{
			name:    "no helpers",
			cfg:     Config{},
			inherit: "/usr/bin",
			want:    nil,
		},
		{
			name:    "bare command name ignored",
			cfg:     Config{SoxPath: "sox"},
			inherit: "/usr/bin",
			want:    nil,
		},
		{
			name: "multiple helpers in order, deduplicated",
			cfg: Config{
				SoxPath:     "/opt/sox/bin/sox",
				FFmpegPath:  "/opt/ffmpeg/bin/ffmpeg",
				FFprobePath: "/opt/ffmpeg/bin/ffprobe",
			},
			inherit: "/usr/bin",
			want:    []string{"PATH=/opt/sox/bin:/opt/ffmpeg/bin:/usr/bin"},
		},
		{
			name:    "empty inherited PATH",
			cfg:     Config{FFmpegPath: "/opt/ffmpeg/bin/ffmpeg"},
			inherit: "",
			want:    []string{"PATH=/opt/ffmpeg/bin"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildEnv(tt.cfg, tt.inherit)
			if !slices.Equal(got, tt.want) {
				t.Errorf("BuildEnv() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInvocationString(t *testing.T) {
	inv := Build(Config{
		LiltPath:  "/usr/bin/lilt",
		SourceDir: "/music/My Album",
		TargetDir: "/out",
	}, "")

	got := inv.String()
	if !strings.HasPrefix(got, "/usr/bin/lilt ") {
		t.Errorf("String() = %q, want lilt path first", got)
	}
	if !strings.Contains(got, `"/music/My Album"`) {
		t.Errorf("String() = %q, want quoted source dir", got)
	}
}
