package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	info := Get()
	if info.Version != Version {
		t.Errorf("Version = %q, want %q", info.Version, Version)
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q", info.GoVersion)
	}
	if info.Platform != runtime.GOOS+"/"+runtime.GOARCH {
		t.Errorf("Platform = %q", info.Platform)
	}
}

func TestInfoString(t *testing.T) {
	info := Info{Version: "1.2.0", GitCommit: "0123456789abcdef", BuildDate: "2024-05-01"}
	want := "liltpanel 1.2.0 (0123456789ab, 2024-05-01)"
	if got := info.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	short := Info{Version: "dev", GitCommit: "abc", BuildDate: "unknown"}
	if got := short.String(); !strings.Contains(got, "(abc, unknown)") {
		t.Errorf("String() = %q", got)
	}
}
