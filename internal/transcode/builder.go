package transcode

import (
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

// lilt CLI flags.
const (
	FlagTargetDir           = "--target-dir"
	FlagUseDocker           = "--use-docker"
	FlagEnforceOutputFormat = "--enforce-output-format"
	FlagNoPreserveMetadata  = "--no-preserve-metadata"
	FlagCopyImages          = "--copy-images"
)

// Invocation is a fully resolved lilt command.
type Invocation struct {
	Path string
	Args []string
	// Env holds KEY=value overrides applied on top of the inherited
	// environment. Empty means inherit unchanged.
	Env []string
}

// Build translates cfg into an Invocation. inheritedPath is the PATH value
// the child would otherwise inherit; it is passed in so Build stays free of
// environment reads.
func Build(cfg Config, inheritedPath string) Invocation {
	return Invocation{
		Path: cfg.LiltPath,
		Args: BuildArgs(cfg),
		Env:  BuildEnv(cfg, inheritedPath),
	}
}

// BuildArgs returns the lilt argument vector. Order matters to lilt's parser.
func BuildArgs(cfg Config) []string {
	args := []string{cfg.SourceDir, FlagTargetDir, cfg.TargetDir}

	if cfg.UseDocker {
		args = append(args, FlagUseDocker)
	}
	if cfg.EnforceOutputFormat != "" {
		args = append(args, FlagEnforceOutputFormat, cfg.EnforceOutputFormat)
	}
	if cfg.NoPreserveMetadata {
		args = append(args, FlagNoPreserveMetadata)
	}
	if cfg.CopyImages {
		args = append(args, FlagCopyImages)
	}

	return args
}

// BuildEnv returns the environment overlay for cfg. Outside docker mode the
// directories of the configured helper tools are put in front of PATH so lilt
// resolves the selected versions first.
func BuildEnv(cfg Config, inheritedPath string) []string {
	if cfg.UseDocker {
		return nil
	}

	var dirs []string
	for _, helper := range cfg.helperPaths() {
		dir := helperDir(helper)
		if dir == "" || slices.Contains(dirs, dir) {
			continue
		}
		dirs = append(dirs, dir)
	}
	if len(dirs) == 0 {
		return nil
	}

	value := strings.Join(dirs, string(filepath.ListSeparator))
	if inheritedPath != "" {
		value += string(filepath.ListSeparator) + inheritedPath
	}
	return []string{"PATH=" + value}
}

// helperDir returns the containing directory of a helper path, or "" for
// empty paths and bare command names.
func helperDir(path string) string {
	if path == "" || !strings.ContainsRune(path, filepath.Separator) {
		return ""
	}
	return filepath.Dir(path)
}

// String renders the invocation as a shell-like command line for logging.
func (inv Invocation) String() string {
	parts := make([]string, 0, len(inv.Args)+1)
	parts = append(parts, quoteArg(inv.Path))
	for _, arg := range inv.Args {
		parts = append(parts, quoteArg(arg))
	}
	return strings.Join(parts, " ")
}

func quoteArg(arg string) string {
	if arg == "" || strings.ContainsAny(arg, " \t\"'\\") {
		return strconv.Quote(arg)
	}
	return arg
}
