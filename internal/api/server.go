// Package api exposes the transcoding controls over HTTP with huma and
// streams lifecycle events over Server-Sent Events.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/smazurov/liltpanel/internal/api/models"
	"github.com/smazurov/liltpanel/internal/dialog"
	"github.com/smazurov/liltpanel/internal/events"
	"github.com/smazurov/liltpanel/internal/locator"
	"github.com/smazurov/liltpanel/internal/logging"
	"github.com/smazurov/liltpanel/internal/process"
	"github.com/smazurov/liltpanel/internal/settings"
	"github.com/smazurov/liltpanel/internal/transcode"
	"github.com/smazurov/liltpanel/internal/version"
	"github.com/smazurov/liltpanel/ui"
)

// Transcoder controls the single lilt process. *process.Registry implements it.
type Transcoder interface {
	Start(cfg transcode.Config) error
	Stop() error
	IsRunning() bool
	Status() process.Status
}

// SettingsStore loads and saves front-end settings. *settings.Store implements it.
type SettingsStore interface {
	Load() (settings.Settings, error)
	Save(s settings.Settings) error
}

// Options configures the API server.
type Options struct {
	AuthUsername string
	AuthPassword string
	// AuthToken is required as a Bearer token when no basic auth
	// credentials are set. Empty leaves the API open.
	AuthToken    string

	// CORSOrigin is the one cross-origin caller allowed. Empty allows
	// same-origin requests only; "*" allows any origin.
	CORSOrigin   string
	// ListenAddr and AllowedHosts name the Host headers accepted besides
	// loopback names and IP literals.
	ListenAddr   string
	AllowedHosts []string

	Transcoder   Transcoder
	Locator      locator.BinaryLocator
	Requirements []locator.Requirement // nil = locator.DefaultRequirements()
	FileWell     dialog.FileWell
	URLOpener    dialog.URLOpener // nil = default browser
	Settings     SettingsStore
	EventBus     *events.Bus

	PrometheusHandler http.Handler // Optional Prometheus metrics handler
}

// Server is the huma HTTP API server.
type Server struct {
	api        huma.API
	mux        *http.ServeMux
	handler    http.Handler
	httpServer *http.Server
	options    *Options
	eventBus   *events.Bus
	logger     *slog.Logger
}

// NewServer creates a new API server using Go 1.22+ native routing.
func NewServer(opts *Options) *Server {
	if opts.Locator == nil {
		opts.Locator = locator.PathLocator{}
	}
	if opts.Requirements == nil {
		opts.Requirements = locator.DefaultRequirements()
	}
	if opts.EventBus == nil {
		opts.EventBus = events.New()
	}
	if opts.URLOpener == nil {
		opts.URLOpener = dialog.NewBrowserOpener(logging.GetLogger("dialog"))
	}

	mux := http.NewServeMux()

	cors := DefaultCORSConfig()
	cors.AllowOrigin = opts.CORSOrigin
	// huma middleware runs after routing, so preflights need a mux handler.
	AddCORSHandler(mux, cors)

	config := huma.DefaultConfig("liltpanel API", version.String())
	config.Info.Description = "Control API for the lilt audio transcoder"
	// Empty servers list will make OpenAPI use relative paths, working with any host
	config.Servers = []*huma.Server{}
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"basicAuth": {
			Type:   "http",
			Scheme: "basic",
		},
		"tokenAuth": {
			Type:   "http",
			Scheme: "bearer",
		},
	}

	api := humago.New(mux, config)

	server := &Server{
		api:      api,
		mux:      mux,
		handler:  newRequestGuard(mux, opts.ListenAddr, opts.CORSOrigin, opts.AllowedHosts),
		options:  opts,
		eventBus: opts.EventBus,
		logger:   logging.GetLogger("api"),
	}

	api.UseMiddleware(NewCORSMiddleware(cors))
	api.UseMiddleware(HTTPLoggingMiddleware)
	switch {
	case opts.AuthUsername != "" && opts.AuthPassword != "":
		api.UseMiddleware(server.basicAuthMiddleware(opts.AuthUsername, opts.AuthPassword))
	case opts.AuthToken != "":
		api.UseMiddleware(server.tokenAuthMiddleware(opts.AuthToken))
	}

	if opts.PrometheusHandler != nil {
		mux.Handle("GET /metrics", opts.PrometheusHandler)
	}

	server.registerRoutes()

	if frontendHandler, err := ui.Handler(); err == nil {
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/api") {
				http.NotFound(w, r)
				return
			}
			frontendHandler.ServeHTTP(w, r)
		})
	}

	return server
}

// Handler returns the root HTTP handler, with Host and Origin checks.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// GetAPI returns the Huma API instance
func (s *Server) GetAPI() huma.API {
	return s.api
}

// Start serves HTTP on addr until Stop is called.
func (s *Server) Start(addr string) error {
	s.logger.Info("Starting liltpanel API server", "addr", addr)
	s.logger.Info("OpenAPI documentation available", "url", "http://"+addr+"/docs")

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the server down. Open SSE streams are closed immediately.
func (s *Server) Stop() error {
	s.logger.Info("Stopping API server")
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return s.httpServer.Close()
	}
	return nil
}

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/api/health",
		Summary:     "Health",
		Description: "Check API health status",
		Tags:        []string{"system"},
		Security:    []map[string][]string{}, // Empty security = no auth required
	}, func(_ context.Context, _ *struct{}) (*models.HealthResponse, error) {
		return &models.HealthResponse{
			Body: models.HealthData{
				Status:  "ok",
				Message: "API is healthy",
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-version",
		Method:      http.MethodGet,
		Path:        "/api/version",
		Summary:     "Version",
		Description: "Get application version information",
		Tags:        []string{"system"},
		Security:    []map[string][]string{},
	}, func(_ context.Context, _ *struct{}) (*models.VersionResponse, error) {
		return &models.VersionResponse{Body: version.Get()}, nil
	})

	s.registerBinaryRoutes()
	s.registerDialogRoutes()
	s.registerTranscodingRoutes()
	s.registerSettingsRoutes()
	s.registerSSERoutes()
	s.registerLogRoutes()
}

// withAuth returns the security requirement: basic auth or the access token.
func withAuth() []map[string][]string {
	return []map[string][]string{
		{"basicAuth": {}},
		{"tokenAuth": {}},
	}
}
