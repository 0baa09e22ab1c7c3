package main

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"

	"github.com/smazurov/liltpanel/cmd"
	"github.com/smazurov/liltpanel/internal/api"
	"github.com/smazurov/liltpanel/internal/config"
	"github.com/smazurov/liltpanel/internal/dialog"
	"github.com/smazurov/liltpanel/internal/events"
	"github.com/smazurov/liltpanel/internal/locator"
	"github.com/smazurov/liltpanel/internal/logging"
	"github.com/smazurov/liltpanel/internal/metrics/exporters"
	"github.com/smazurov/liltpanel/internal/process"
	"github.com/smazurov/liltpanel/internal/settings"
	"github.com/smazurov/liltpanel/internal/systemd"
	"github.com/smazurov/liltpanel/internal/transcode"
	"github.com/smazurov/liltpanel/internal/version"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Server settings
	Listen       string `help:"Address to listen on" short:"l" default:"127.0.0.1:8090" toml:"server.listen" env:"SERVER_LISTEN"`
	CORSOrigin   string `help:"Allowed cross-origin caller (empty = same origin only, * = any)" default:"" toml:"server.cors_origin" env:"SERVER_CORS_ORIGIN"`
	AllowedHosts string `help:"Extra Host names to accept, comma separated" default:"" toml:"server.allowed_hosts" env:"SERVER_ALLOWED_HOSTS"`

	// Auth settings. Without basic auth credentials an access token is
	// required, generated per run unless set.
	AuthUsername string `help:"Basic auth username" default:"" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"" toml:"auth.password" env:"AUTH_PASSWORD"`
	AuthToken    string `help:"API access token used when basic auth is off" default:"" toml:"auth.token" env:"AUTH_TOKEN"`

	// Settings store
	SettingsFile  string `help:"Settings file (default: user config dir)" default:"" toml:"settings.file" env:"SETTINGS_FILE"`
	SettingsWatch bool   `help:"Reload settings when the file changes" default:"true" toml:"settings.watch" env:"SETTINGS_WATCH"`

	// Transcoding
	OutputTailSize int `help:"Output lines kept for status" default:"200" toml:"transcode.output_tail_size" env:"TRANSCODE_OUTPUT_TAIL_SIZE"`

	// Metrics
	MetricsEnabled bool `help:"Expose Prometheus metrics on /metrics" default:"true" toml:"metrics.enabled" env:"METRICS_ENABLED"`

	// Logging settings
	LoggingLevel   string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat  string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingLilt    string `help:"lilt output logging level" default:"" toml:"logging.lilt" env:"LOGGING_LILT"`
	LoggingProcess string `help:"Process registry logging level" default:"" toml:"logging.process" env:"LOGGING_PROCESS"`
	LoggingAPI     string `help:"API logging level" default:"" toml:"logging.api" env:"LOGGING_API"`
}

// loggingConfig merges the [logging] table of the config file with the
// options. Options win for the keys they set.
func (o *Options) loggingConfig() logging.Config {
	cfg := config.LoadLoggingConfig(o.Config)
	if o.LoggingLevel != "" {
		cfg.Level = o.LoggingLevel
	}
	if o.LoggingFormat != "" {
		cfg.Format = o.LoggingFormat
	}
	for module, level := range map[string]string{
		"lilt":    o.LoggingLilt,
		"process": o.LoggingProcess,
		"api":     o.LoggingAPI,
	} {
		if level != "" {
			cfg.Modules[module] = level
		}
	}
	return cfg
}

// basicAuth reports whether basic auth credentials are configured.
func (o *Options) basicAuth() bool {
	return o.AuthUsername != "" && o.AuthPassword != ""
}

// allowedHosts splits the AllowedHosts option.
func (o *Options) allowedHosts() []string {
	var hosts []string
	for _, host := range strings.Split(o.AllowedHosts, ",") {
		if host = strings.TrimSpace(host); host != "" {
			hosts = append(hosts, host)
		}
	}
	return hosts
}

func main() {
	var cli humacli.CLI

	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		// Load configuration automatically
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		logging.Initialize(opts.loggingConfig())
		logger := logging.GetLogger("main")

		// Create event bus for in-process event handling
		eventBus := events.New()

		// Feed every log entry to /api/logs/stream subscribers
		logging.SetLogCallback(func(entry logging.LogEntry) {
			eventBus.Publish(events.LogEntryEvent{
				Seq:        entry.Seq,
				Timestamp:  entry.Timestamp.Format(time.RFC3339Nano),
				Level:      entry.Level,
				Module:     entry.Module,
				Message:    entry.Message,
				Attributes: entry.Attributes,
			})
		})

		registry := process.NewRegistry(&process.RegistryOptions{
			EventBus:       eventBus,
			Logger:         logging.GetLogger("process"),
			OutputLogger:   logging.GetLogger("lilt"),
			LogParser:      transcode.ParseLogLevel,
			OutputTailSize: opts.OutputTailSize,
		})

		settingsPath := opts.SettingsFile
		if settingsPath == "" {
			defaultPath, err := settings.DefaultPath()
			if err != nil {
				logger.Error("Failed to resolve settings path", "error", err)
				os.Exit(1)
			}
			settingsPath = defaultPath
		}
		settingsStore := settings.NewStore(settingsPath, settings.StoreOptions{
			EventBus: eventBus,
			Logger:   logging.GetLogger("settings"),
		})

		accessToken := opts.AuthToken
		if !opts.basicAuth() && accessToken == "" {
			accessToken = settings.NewToken()
		}
		tokenPath := settings.TokenPath(settingsPath)

		apiOpts := &api.Options{
			AuthUsername: opts.AuthUsername,
			AuthPassword: opts.AuthPassword,
			AuthToken:    accessToken,
			CORSOrigin:   opts.CORSOrigin,
			ListenAddr:   opts.Listen,
			AllowedHosts: opts.allowedHosts(),
			Transcoder:   registry,
			Locator:      locator.PathLocator{},
			FileWell:     dialog.NewZenityWell(logging.GetLogger("dialog")),
			URLOpener:    dialog.NewBrowserOpener(logging.GetLogger("dialog")),
			Settings:     settingsStore,
			EventBus:     eventBus,
		}
		if opts.MetricsEnabled {
			apiOpts.PrometheusHandler = exporters.HTTPHandler()
		}

		server := api.NewServer(apiOpts)
		notifier := systemd.NewNotifier(logging.GetLogger("systemd"))
		watchdogCtx, stopWatchdog := context.WithCancel(context.Background())

		hooks.OnStart(func() {
			logger.Info("Starting liltpanel", "version", version.String(), "settings", settingsStore.Path())

			if _, err := settingsStore.Load(); err != nil {
				logger.Warn("Failed to load settings, using defaults", "error", err)
			}
			if opts.SettingsWatch {
				if err := settingsStore.Watch(); err != nil {
					logger.Warn("Failed to watch settings file", "error", err)
				}
			}

			if !opts.basicAuth() {
				if err := settings.WriteToken(tokenPath, accessToken); err != nil {
					logger.Warn("Failed to write access token file", "path", tokenPath, "error", err)
				}
				logger.Info("API requires the access token", "token_file", tokenPath,
					"url", "http://"+opts.Listen+"/?token="+accessToken)
			}

			notifier.Ready()
			go notifier.RunWatchdog(watchdogCtx)

			if startErr := server.Start(opts.Listen); startErr != nil {
				logger.Error("Failed to start HTTP server", "error", startErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down server")
			notifier.Stopping()
			stopWatchdog()

			if stopErr := server.Stop(); stopErr != nil {
				logger.Error("Error stopping HTTP server", "error", stopErr)
			}

			// No lilt process outlives the daemon.
			registry.Shutdown()

			if !opts.basicAuth() {
				if err := settings.RemoveToken(tokenPath); err != nil {
					logger.Warn("Failed to remove access token file", "error", err)
				}
			}

			if closeErr := settingsStore.Close(); closeErr != nil {
				logger.Warn("Error closing settings store", "error", closeErr)
			}
		})
	})

	cli.Root().Use = "liltpanel"
	cli.Root().Short = "Control daemon for the lilt audio transcoder"
	cli.Root().Version = version.String()

	cli.Root().AddCommand(cmd.CreateLocateCmd())
	cli.Root().AddCommand(cmd.CreateRunCmd())

	// Run the CLI
	cli.Run()
}
