// Package logging provides structured logging with per-module log level configuration.
//
// Every record goes to stdout (when something is attached to it), to the
// systemd journal (when journald is reachable) and to an in-memory ring
// buffer that backs the live log stream of the HTTP API.
//
// Initialize the logging system once at startup:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",
//		Format: "text",
//		Modules: map[string]string{
//			"lilt": "debug",
//			"api":  "warn",
//		},
//	})
//
// Get a logger for your module:
//
//	logger := logging.GetLogger("process")
//	logger.Info("Process started", "pid", pid)
//
// Loggers may be obtained before Initialize; they are reconfigured in place.
//
// Modules used by the daemon: api, process, lilt (worker output), settings,
// dialog, locator, systemd.
//
// When running under systemd:
//
//	journalctl -t liltpanel -f
//	journalctl -t liltpanel MODULE=lilt
//
// Example TOML configuration:
//
//	[logging]
//	level = "info"
//	format = "text"
//	lilt = "debug"
package logging
