package locator

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const versionTimeout = 3 * time.Second

// DetectVersion runs "<path> --version" and returns the first non-empty line
// of its output. sox prints to stderr, so both streams are read.
func DetectVersion(ctx context.Context, path string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, path, "--version").CombinedOutput()
	if ctx.Err() != nil {
		return "", fmt.Errorf("version check for %s: %w", path, ctx.Err())
	}

	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			return line, nil
		}
	}

	if err != nil {
		return "", fmt.Errorf("version check for %s: %w", path, err)
	}
	return "", errors.New("version check for " + path + ": no output")
}
