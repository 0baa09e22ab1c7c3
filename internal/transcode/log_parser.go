package transcode

import "strings"

// ParseLogLevel extracts the log level from a lilt output line.
// lilt logs through env_logger, so lines look like
// "[2024-05-01T10:00:00Z INFO  lilt] message" or "[WARN lilt::sox] message".
// Lines that carry no level are reported as info and returned unchanged.
func ParseLogLevel(line string) (level, msg string) {
	if len(line) < 3 || line[0] != '[' {
		return "info", line
	}

	end := strings.Index(line, "] ")
	if end == -1 {
		return "info", line
	}

	for _, field := range strings.Fields(line[1:end]) {
		if lvl, ok := normalizeLevel(field); ok {
			return lvl, line[end+2:]
		}
	}

	return "info", line
}

func normalizeLevel(s string) (string, bool) {
	switch strings.ToLower(s) {
	case "error":
		return "error", true
	case "warn", "warning":
		return "warning", true
	case "info":
		return "info", true
	case "debug":
		return "debug", true
	case "trace":
		return "trace", true
	}
	return "", false
}
