package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/smazurov/liltpanel/internal/events"
	"github.com/smazurov/liltpanel/internal/locator"
	"github.com/smazurov/liltpanel/internal/logging"
	"github.com/smazurov/liltpanel/internal/process"
	"github.com/smazurov/liltpanel/internal/settings"
	"github.com/smazurov/liltpanel/internal/transcode"
)

// exitInterrupted is the conventional exit code after SIGINT.
const exitInterrupted = 130

// CreateRunCmd creates the run command.
func CreateRunCmd() *cobra.Command {
	var (
		settingsFile string
		overrides    transcode.Config
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run lilt in the foreground with the saved settings",
		Long: `Loads the last saved configuration, applies flag overrides and runs lilt, mirroring its output. ` +
			`SIGINT or SIGTERM kills lilt. Exits with lilt's exit code.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			logger := logging.GetLogger("run")

			cfg, err := resolveRunConfig(settingsFile, overrides, cmd, logger)
			if err != nil {
				logger.Error("Invalid run configuration", "error", err)
				os.Exit(2)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			code := runForeground(ctx, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr(), logger)
			stop()
			os.Exit(code)
		},
	}

	cmd.Flags().StringVar(&settingsFile, "settings", "", "Settings file (default: user config dir)")
	cmd.Flags().StringVar(&overrides.LiltPath, "lilt", "", "Path to the lilt binary")
	cmd.Flags().StringVar(&overrides.SourceDir, "source", "", "Source directory")
	cmd.Flags().StringVar(&overrides.TargetDir, "target", "", "Target directory")
	cmd.Flags().StringVar(&overrides.EnforceOutputFormat, "format", "", "Output format override")
	cmd.Flags().BoolVar(&overrides.UseDocker, "docker", false, "Run lilt with its container image")
	return cmd
}

// resolveRunConfig starts from the saved configuration and applies the
// flags that were set on the command line.
func resolveRunConfig(settingsFile string, overrides transcode.Config, cmd *cobra.Command, logger *slog.Logger) (transcode.Config, error) {
	if settingsFile == "" {
		path, err := settings.DefaultPath()
		if err != nil {
			return transcode.Config{}, err
		}
		settingsFile = path
	}

	saved, err := settings.NewStore(settingsFile, settings.StoreOptions{Logger: logger}).Load()
	if err != nil {
		return transcode.Config{}, fmt.Errorf("load settings: %w", err)
	}
	cfg := saved.LastConfig

	flags := cmd.Flags()
	if flags.Changed("lilt") {
		cfg.LiltPath = overrides.LiltPath
	}
	if flags.Changed("source") {
		cfg.SourceDir = overrides.SourceDir
	}
	if flags.Changed("target") {
		cfg.TargetDir = overrides.TargetDir
	}
	if flags.Changed("format") {
		cfg.EnforceOutputFormat = overrides.EnforceOutputFormat
	}
	if flags.Changed("docker") {
		cfg.UseDocker = overrides.UseDocker
	}

	if cfg.LiltPath == "" {
		path, err := locator.PathLocator{}.Find("lilt")
		if err != nil {
			return transcode.Config{}, err
		}
		cfg.LiltPath = path
	}
	if cfg.SourceDir == "" || cfg.TargetDir == "" {
		return transcode.Config{}, fmt.Errorf("source and target directories are required")
	}
	return cfg, nil
}

// outputMirror copies lilt output to the terminal, keeping each stream on
// its own writer.
type outputMirror struct {
	mu     sync.Mutex
	stdout io.Writer
	stderr io.Writer
}

func (m *outputMirror) HandleLine(source, line string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w := m.stdout
	if source == "stderr" {
		w = m.stderr
	}
	fmt.Fprintln(w, line)
}

// runForeground runs lilt for cfg until it exits or ctx is done, and
// returns the exit code to report.
func runForeground(ctx context.Context, cfg transcode.Config, stdout, stderr io.Writer, logger *slog.Logger) int {
	bus := events.New()

	finished := make(chan events.TranscodingLifecycleEvent, 1)
	unsubscribe := bus.Subscribe(func(e events.TranscodingLifecycleEvent) {
		if e.Transition != events.TransitionFinished {
			return
		}
		select {
		case finished <- e:
		default:
		}
	})
	defer unsubscribe()

	registry := process.NewRegistry(&process.RegistryOptions{
		EventBus: bus,
		Logger:   logger,
		// The mirror already prints every line.
		OutputLogger:  slog.New(slog.DiscardHandler),
		OutputHandler: &outputMirror{stdout: stdout, stderr: stderr},
	})

	if err := registry.Start(cfg); err != nil {
		logger.Error("Failed to start lilt", "error", err)
		return 1
	}
	logger.Info("lilt started", "command", registry.Status().Command)

	select {
	case e := <-finished:
		if e.ExitCode != 0 {
			logger.Warn("lilt exited with error", "exit_code", e.ExitCode, "error", e.Error)
		}
		return e.ExitCode
	case <-ctx.Done():
		logger.Info("Interrupted, stopping lilt")
		registry.Shutdown()
		return exitInterrupted
	}
}
