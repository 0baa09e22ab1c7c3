// Package locator resolves external tool binaries on the search path and
// reports whether the tools lilt depends on are installed.
package locator

import (
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// ErrNotFound is returned when a binary is not on the search path.
var ErrNotFound = errors.New("not found in PATH")

// BinaryLocator resolves a binary name to an executable path.
type BinaryLocator interface {
	Find(name string) (string, error)
}

// PathLocator searches the PATH of the current process.
type PathLocator struct{}

// Find returns the absolute path of the first executable named name on PATH.
// On Windows a missing ".exe" suffix is added. The error wraps ErrNotFound
// and reads "<name> not found in PATH".
func (PathLocator) Find(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%q %w", name, ErrNotFound)
	}

	path, err := exec.LookPath(executableName(name))
	if err != nil && !errors.Is(err, exec.ErrDot) {
		return "", fmt.Errorf("%s %w", name, ErrNotFound)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return path, nil
	}
	return abs, nil
}

func executableName(name string) string {
	if runtime.GOOS == "windows" && !strings.EqualFold(filepath.Ext(name), ".exe") {
		return name + ".exe"
	}
	return name
}
