package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/liltpanel/internal/api/models"
	"github.com/smazurov/liltpanel/internal/dialog"
	"github.com/smazurov/liltpanel/internal/events"
	"github.com/smazurov/liltpanel/internal/locator"
	"github.com/smazurov/liltpanel/internal/logging"
	"github.com/smazurov/liltpanel/internal/process"
	"github.com/smazurov/liltpanel/internal/settings"
	"github.com/smazurov/liltpanel/internal/transcode"
)

type mockTranscoder struct {
	mu       sync.Mutex
	running  bool
	started  []transcode.Config
	startErr error
	killErr  error
	status   process.Status
}

func (m *mockTranscoder) Start(cfg transcode.Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.startErr != nil {
		m.running = false
		return m.startErr
	}
	m.started = append(m.started, cfg)
	m.running = true
	return nil
}

func (m *mockTranscoder) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return process.ErrNoProcessRunning
	}
	m.running = false
	if m.killErr != nil {
		return fmt.Errorf("failed to kill process: %w", m.killErr)
	}
	return nil
}

func (m *mockTranscoder) startedConfigs() []transcode.Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]transcode.Config(nil), m.started...)
}

func (m *mockTranscoder) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *mockTranscoder) Status() process.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

type mockLocator map[string]string

func (m mockLocator) Find(name string) (string, error) {
	if path, ok := m[name]; ok {
		return path, nil
	}
	return "", fmt.Errorf("%s %w", name, locator.ErrNotFound)
}

type mockWell struct {
	mu        sync.Mutex
	file, dir string
	err       error
	titles    []string
}

func (m *mockWell) set(file, dir string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.file, m.dir, m.err = file, dir, err
}

func (m *mockWell) seenTitles() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.titles...)
}

func (m *mockWell) SelectFile(_ context.Context, title string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.titles = append(m.titles, title)
	if m.err != nil {
		return "", m.err
	}
	if m.file == "" {
		return "", dialog.ErrNoFileSelected
	}
	return m.file, nil
}

func (m *mockWell) SelectDirectory(_ context.Context, title string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.titles = append(m.titles, title)
	if m.err != nil {
		return "", m.err
	}
	if m.dir == "" {
		return "", dialog.ErrNoDirectorySelected
	}
	return m.dir, nil
}

type mockOpener struct {
	mu     sync.Mutex
	opened []string
	err    error
}

func (m *mockOpener) OpenURL(rawURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.opened = append(m.opened, rawURL)
	return nil
}

func (m *mockOpener) openedURLs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.opened...)
}

type mockSettings struct {
	mu      sync.Mutex
	current settings.Settings
	saveErr error
}

func (m *mockSettings) Load() (settings.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current, nil
}

func (m *mockSettings) Save(s settings.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.current = s
	return nil
}

type testEnv struct {
	ts         *httptest.Server
	transcoder *mockTranscoder
	well       *mockWell
	opener     *mockOpener
	settings   *mockSettings
	bus        *events.Bus
}

func newTestEnv(t *testing.T, auth bool) *testEnv {
	t.Helper()
	return newTestEnvWith(t, func(opts *Options) {
		if auth {
			opts.AuthUsername = "test"
			opts.AuthPassword = "secret"
		}
	})
}

// newTestEnvWith builds a server from the test fakes and lets configure
// adjust the options first.
func newTestEnvWith(t *testing.T, configure func(*Options)) *testEnv {
	t.Helper()

	env := &testEnv{
		transcoder: &mockTranscoder{},
		well:       &mockWell{},
		opener:     &mockOpener{},
		settings:   &mockSettings{current: settings.Defaults()},
		bus:        events.New(),
	}
	opts := &Options{
		Transcoder: env.transcoder,
		Locator:    mockLocator{"lilt": "/usr/local/bin/lilt"},
		Requirements: []locator.Requirement{
			{Name: "lilt", Command: "lilt"},
			{Name: "sox", Command: "sox", Optional: true},
		},
		FileWell:  env.well,
		URLOpener: env.opener,
		Settings:  env.settings,
		EventBus:  env.bus,
	}
	configure(opts)

	server := NewServer(opts)
	env.ts = httptest.NewServer(server.Handler())
	t.Cleanup(env.ts.Close)
	return env
}

func (env *testEnv) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, env.ts.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.SetBasicAuth("test", "secret")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d, want %d (body %s)", resp.StatusCode, want, body)
	}
}

func expectErrorDetail(t *testing.T, resp *http.Response, status int, detail string) {
	t.Helper()
	expectStatus(t, resp, status)
	model := decode[huma.ErrorModel](t, resp)
	if model.Detail != detail {
		t.Errorf("error detail = %q, want %q", model.Detail, detail)
	}
}

func TestHealthNeedsNoAuth(t *testing.T) {
	env := newTestEnv(t, true)

	resp, err := http.Get(env.ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health: %v", err)
	}
	defer resp.Body.Close()

	expectStatus(t, resp, http.StatusOK)
	if got := decode[models.HealthData](t, resp); got.Status != "ok" {
		t.Errorf("status = %q, want ok", got.Status)
	}
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t, true)

	resp, err := http.Get(env.ts.URL + "/api/transcoding/running")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusUnauthorized)
	if resp.Header.Get("WWW-Authenticate") == "" {
		t.Error("missing WWW-Authenticate header")
	}

	req, _ := http.NewRequest(http.MethodGet, env.ts.URL+"/api/transcoding/running", nil)
	req.SetBasicAuth("test", "wrong")
	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp2.Body.Close()
	expectStatus(t, resp2, http.StatusUnauthorized)

	resp3 := env.do(t, http.MethodGet, "/api/transcoding/running", nil)
	expectStatus(t, resp3, http.StatusOK)
}

func TestAuthQueryParameter(t *testing.T) {
	env := newTestEnv(t, true)

	credentials := base64.StdEncoding.EncodeToString([]byte("test:secret"))
	resp, err := http.Get(env.ts.URL + "/api/transcoding/running?auth=" + credentials)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)
}

func TestNoAuthConfigured(t *testing.T) {
	env := newTestEnv(t, false)

	resp, err := http.Get(env.ts.URL + "/api/transcoding/running")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)
}

func TestFindBinary(t *testing.T) {
	env := newTestEnv(t, true)

	resp := env.do(t, http.MethodGet, "/api/binaries/lilt", nil)
	expectStatus(t, resp, http.StatusOK)
	got := decode[models.BinaryPathData](t, resp)
	if got.Name != "lilt" || got.Path != "/usr/local/bin/lilt" {
		t.Errorf("got %+v", got)
	}

	resp = env.do(t, http.MethodGet, "/api/binaries/sox", nil)
	expectErrorDetail(t, resp, http.StatusNotFound, "sox not found in PATH")
}

func TestCheckBinaries(t *testing.T) {
	env := newTestEnv(t, true)

	resp := env.do(t, http.MethodGet, "/api/binaries", nil)
	expectStatus(t, resp, http.StatusOK)
	got := decode[models.BinariesData](t, resp)

	if !got.Ready {
		t.Error("ready = false, want true with only an optional binary missing")
	}
	if len(got.Binaries) != 2 {
		t.Fatalf("got %d binaries, want 2", len(got.Binaries))
	}
	if !got.Binaries[0].Available || got.Binaries[1].Available {
		t.Errorf("availability = %v/%v, want true/false", got.Binaries[0].Available, got.Binaries[1].Available)
	}
}

func TestDialogs(t *testing.T) {
	env := newTestEnv(t, true)

	resp := env.do(t, http.MethodPost, "/api/dialogs/file", models.DialogRequestData{Title: "Pick lilt"})
	expectErrorDetail(t, resp, http.StatusBadRequest, "No file selected")

	resp = env.do(t, http.MethodPost, "/api/dialogs/directory", models.DialogRequestData{Title: "Pick source"})
	expectErrorDetail(t, resp, http.StatusBadRequest, "No directory selected")

	env.well.set("/opt/lilt/lilt", "/music", nil)

	resp = env.do(t, http.MethodPost, "/api/dialogs/file", models.DialogRequestData{Title: "Pick lilt"})
	expectStatus(t, resp, http.StatusOK)
	if got := decode[models.DialogData](t, resp); got.Path != "/opt/lilt/lilt" {
		t.Errorf("file path = %q", got.Path)
	}

	resp = env.do(t, http.MethodPost, "/api/dialogs/directory", models.DialogRequestData{Title: "Pick source"})
	expectStatus(t, resp, http.StatusOK)
	if got := decode[models.DialogData](t, resp); got.Path != "/music" {
		t.Errorf("directory path = %q", got.Path)
	}

	want := []string{"Pick lilt", "Pick source", "Pick lilt", "Pick source"}
	if got := env.well.seenTitles(); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("titles = %v, want %v", got, want)
	}
}

func TestDialogFailure(t *testing.T) {
	env := newTestEnv(t, true)
	env.well.set("", "", errors.New("no display"))

	resp := env.do(t, http.MethodPost, "/api/dialogs/file", models.DialogRequestData{Title: "x"})
	expectStatus(t, resp, http.StatusInternalServerError)
}

func TestOpenURL(t *testing.T) {
	env := newTestEnv(t, true)

	resp := env.do(t, http.MethodPost, "/api/open-url", models.OpenURLRequestData{URL: "https://github.com/Ferossgp/lilt"})
	expectStatus(t, resp, http.StatusNoContent)
	if got := env.opener.openedURLs(); len(got) != 1 || got[0] != "https://github.com/Ferossgp/lilt" {
		t.Errorf("opened = %v", got)
	}

	env.opener.mu.Lock()
	env.opener.err = fmt.Errorf("%q: %w", "file:///etc/passwd", dialog.ErrUnsupportedURL)
	env.opener.mu.Unlock()
	resp = env.do(t, http.MethodPost, "/api/open-url", models.OpenURLRequestData{URL: "file:///etc/passwd"})
	expectErrorDetail(t, resp, http.StatusBadRequest, dialog.ErrUnsupportedURL.Error())

	env.opener.mu.Lock()
	env.opener.err = errors.New("xdg-open missing")
	env.opener.mu.Unlock()
	resp = env.do(t, http.MethodPost, "/api/open-url", models.OpenURLRequestData{URL: "https://example.com"})
	expectErrorDetail(t, resp, http.StatusInternalServerError, "failed to open URL")
}

func TestStartStopTranscoding(t *testing.T) {
	env := newTestEnv(t, true)

	cfg := transcode.Config{
		LiltPath:            "/usr/local/bin/lilt",
		SourceDir:           "/a",
		TargetDir:           "/b",
		EnforceOutputFormat: "mp3",
		NoPreserveMetadata:  true,
	}

	resp := env.do(t, http.MethodPost, "/api/transcoding/stop", nil)
	expectErrorDetail(t, resp, http.StatusConflict, "no process running")

	resp = env.do(t, http.MethodPost, "/api/transcoding/start", cfg)
	expectStatus(t, resp, http.StatusNoContent)
	if started := env.transcoder.startedConfigs(); len(started) != 1 || started[0] != cfg {
		t.Fatalf("started = %+v, want [%+v]", started, cfg)
	}

	resp = env.do(t, http.MethodGet, "/api/transcoding/running", nil)
	expectStatus(t, resp, http.StatusOK)
	if !decode[models.RunningData](t, resp).Running {
		t.Error("running = false after start")
	}

	resp = env.do(t, http.MethodPost, "/api/transcoding/stop", nil)
	expectStatus(t, resp, http.StatusNoContent)

	resp = env.do(t, http.MethodGet, "/api/transcoding/running", nil)
	if decode[models.RunningData](t, resp).Running {
		t.Error("running = true after stop")
	}
}

func TestStartTranscodingFailure(t *testing.T) {
	env := newTestEnv(t, true)
	env.transcoder.mu.Lock()
	env.transcoder.startErr = errors.New("failed to start lilt: exec: no such file or directory")
	env.transcoder.mu.Unlock()

	cfg := transcode.Config{LiltPath: "/missing/lilt", SourceDir: "/a", TargetDir: "/b"}
	resp := env.do(t, http.MethodPost, "/api/transcoding/start", cfg)
	expectErrorDetail(t, resp, http.StatusInternalServerError, "failed to start lilt: exec: no such file or directory")
}

func TestStopTranscodingKillFailure(t *testing.T) {
	env := newTestEnv(t, true)
	env.transcoder.mu.Lock()
	env.transcoder.running = true
	env.transcoder.killErr = errors.New("operation not permitted")
	env.transcoder.mu.Unlock()

	resp := env.do(t, http.MethodPost, "/api/transcoding/stop", nil)
	expectErrorDetail(t, resp, http.StatusInternalServerError, "failed to kill process: operation not permitted")

	if env.transcoder.IsRunning() {
		t.Error("process still registered after failed kill")
	}
}

func TestTranscodingStatus(t *testing.T) {
	env := newTestEnv(t, true)
	startedAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	env.transcoder.mu.Lock()
	env.transcoder.status = process.Status{
		State:     process.StateRunning,
		PID:       4242,
		RunID:     "run-1",
		StartedAt: startedAt,
		Command:   "/usr/local/bin/lilt /a --target-dir /b",
		Output:    []process.OutputLine{{Stream: "stdout", Line: "converting"}},
	}
	env.transcoder.mu.Unlock()

	resp := env.do(t, http.MethodGet, "/api/transcoding/status", nil)
	expectStatus(t, resp, http.StatusOK)
	got := decode[models.TranscodingStatusData](t, resp)

	if !got.Running || got.PID != 4242 || got.RunID != "run-1" {
		t.Errorf("got %+v", got)
	}
	if got.StartedAt == nil || !got.StartedAt.Equal(startedAt) {
		t.Errorf("started_at = %v, want %v", got.StartedAt, startedAt)
	}
	if len(got.Output) != 1 || got.Output[0].Line != "converting" {
		t.Errorf("output = %+v", got.Output)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	env := newTestEnv(t, true)

	resp := env.do(t, http.MethodGet, "/api/settings", nil)
	expectStatus(t, resp, http.StatusOK)
	if got := decode[settings.Settings](t, resp); got != settings.Defaults() {
		t.Errorf("got %+v, want defaults", got)
	}

	updated := settings.Defaults()
	updated.Language = "de"
	updated.LastConfig.SourceDir = "/music"

	resp = env.do(t, http.MethodPut, "/api/settings", updated)
	expectStatus(t, resp, http.StatusOK)
	if saved, _ := env.settings.Load(); saved != updated {
		t.Errorf("saved %+v, want %+v", saved, updated)
	}
}

func TestSaveSettingsFailure(t *testing.T) {
	env := newTestEnv(t, true)
	env.settings.mu.Lock()
	env.settings.saveErr = errors.New("permission denied")
	env.settings.mu.Unlock()

	resp := env.do(t, http.MethodPut, "/api/settings", settings.Defaults())
	expectErrorDetail(t, resp, http.StatusInternalServerError, "permission denied")
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnvWith(t, func(opts *Options) {
		opts.CORSOrigin = "http://localhost:5173"
	})

	preflight := func(origin string) *http.Response {
		req, _ := http.NewRequest(http.MethodOptions, env.ts.URL+"/api/transcoding/start", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", "POST")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("OPTIONS: %v", err)
		}
		t.Cleanup(func() { _ = resp.Body.Close() })
		return resp
	}

	resp := preflight("http://localhost:5173")
	expectStatus(t, resp, http.StatusNoContent)
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Access-Control-Allow-Origin = %q, want http://localhost:5173", got)
	}

	resp = preflight("https://elsewhere.example")
	expectErrorDetail(t, resp, http.StatusForbidden, "origin not allowed")
}

// startRequest posts a start command that would run /bin/sh.
func startRequest(t *testing.T, env *testEnv, configure func(*http.Request)) *http.Response {
	t.Helper()
	body := `{"lilt_path":"/bin/sh","use_docker":false,"no_preserve_metadata":false,` +
		`"copy_images":false,"source_dir":"/tmp/payload.sh","target_dir":"/x"}`
	req, err := http.NewRequest(http.MethodPost, env.ts.URL+"/api/transcoding/start", strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	configure(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST start: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestCrossOriginStartRejected(t *testing.T) {
	env := newTestEnv(t, false)

	resp := startRequest(t, env, func(req *http.Request) {
		req.Header.Set("Origin", "https://evil.example")
	})
	expectErrorDetail(t, resp, http.StatusForbidden, "origin not allowed")
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Access-Control-Allow-Origin = %q, want none", got)
	}
	if started := env.transcoder.startedConfigs(); len(started) != 0 {
		t.Fatalf("transcoder started %d times", len(started))
	}
}

func TestSameOriginStartAllowed(t *testing.T) {
	env := newTestEnv(t, false)

	resp := startRequest(t, env, func(req *http.Request) {
		req.Header.Set("Origin", env.ts.URL)
	})
	expectStatus(t, resp, http.StatusNoContent)
	if started := env.transcoder.startedConfigs(); len(started) != 1 {
		t.Fatalf("transcoder started %d times, want 1", len(started))
	}
}

func TestHostHeaderChecked(t *testing.T) {
	env := newTestEnvWith(t, func(opts *Options) {
		opts.ListenAddr = "panel.internal:8090"
		opts.AllowedHosts = []string{"liltpanel.lan"}
	})
	port := env.ts.URL[strings.LastIndex(env.ts.URL, ":"):]

	tests := []struct {
		host string
		want int
	}{
		{"attacker.example" + port, http.StatusMisdirectedRequest},
		{"rebind.attacker.example", http.StatusMisdirectedRequest},
		{"localhost" + port, http.StatusOK},
		{"app.localhost" + port, http.StatusOK},
		{"127.0.0.1" + port, http.StatusOK},
		{"[::1]" + port, http.StatusOK},
		{"panel.internal:8090", http.StatusOK},
		{"LILTPANEL.LAN" + port, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, env.ts.URL+"/api/health", nil)
			req.Host = tt.host
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("GET: %v", err)
			}
			defer resp.Body.Close()
			expectStatus(t, resp, tt.want)
		})
	}
}

func TestRebindingHostCannotStart(t *testing.T) {
	env := newTestEnv(t, false)

	resp := startRequest(t, env, func(req *http.Request) {
		req.Host = "rebind.attacker.example"
		req.Header.Set("Origin", "http://rebind.attacker.example")
	})
	expectErrorDetail(t, resp, http.StatusMisdirectedRequest, "host not allowed")
	if started := env.transcoder.startedConfigs(); len(started) != 0 {
		t.Fatalf("transcoder started %d times", len(started))
	}
}

func TestTokenAuth(t *testing.T) {
	env := newTestEnvWith(t, func(opts *Options) {
		opts.AuthToken = "run-token"
	})

	get := func(path, authorization string) *http.Response {
		req, _ := http.NewRequest(http.MethodGet, env.ts.URL+path, nil)
		if authorization != "" {
			req.Header.Set("Authorization", authorization)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		t.Cleanup(func() { _ = resp.Body.Close() })
		return resp
	}

	resp := get("/api/transcoding/running", "")
	expectStatus(t, resp, http.StatusUnauthorized)
	if got := resp.Header.Get("WWW-Authenticate"); got != `Bearer realm="liltpanel"` {
		t.Errorf("WWW-Authenticate = %q", got)
	}

	expectStatus(t, get("/api/transcoding/running", "Bearer wrong"), http.StatusUnauthorized)
	expectStatus(t, get("/api/transcoding/running", "Basic dGVzdDpzZWNyZXQ="), http.StatusUnauthorized)
	expectStatus(t, get("/api/transcoding/running", "Bearer run-token"), http.StatusOK)
	expectStatus(t, get("/api/transcoding/running?token=run-token", ""), http.StatusOK)
	expectStatus(t, get("/api/health", ""), http.StatusOK)

	resp = startRequest(t, env, func(*http.Request) {})
	expectStatus(t, resp, http.StatusUnauthorized)
	if started := env.transcoder.startedConfigs(); len(started) != 0 {
		t.Fatalf("transcoder started %d times without a token", len(started))
	}
}

func TestBasicAuthTakesPrecedenceOverToken(t *testing.T) {
	env := newTestEnvWith(t, func(opts *Options) {
		opts.AuthUsername = "test"
		opts.AuthPassword = "secret"
		opts.AuthToken = "run-token"
	})

	resp := env.do(t, http.MethodGet, "/api/transcoding/running", nil)
	expectStatus(t, resp, http.StatusOK)
}

// readEvents collects "event:" names from an SSE body.
func readEvents(body io.Reader) <-chan string {
	names := make(chan string, 16)
	go func() {
		defer close(names)
		scanner := bufio.NewScanner(body)
		for scanner.Scan() {
			if name, ok := strings.CutPrefix(scanner.Text(), "event:"); ok {
				names <- strings.TrimSpace(name)
			}
		}
	}()
	return names
}

func nextEvent(t *testing.T, names <-chan string) string {
	t.Helper()
	select {
	case name := <-names:
		return name
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for SSE event")
		return ""
	}
}

// openEventStream connects to /api/events and consumes the connected event.
func openEventStream(t *testing.T, env *testEnv) <-chan string {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	credentials := base64.StdEncoding.EncodeToString([]byte("test:secret"))
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, env.ts.URL+"/api/events?auth="+credentials, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })

	expectStatus(t, resp, http.StatusOK)
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
		t.Fatalf("content type = %q", ct)
	}

	names := readEvents(resp.Body)
	if got := nextEvent(t, names); got != "connected" {
		t.Fatalf("first event = %q, want connected", got)
	}
	return names
}

// nextLifecycleEvent skips output events and returns the next other name.
func nextLifecycleEvent(t *testing.T, names <-chan string) string {
	t.Helper()
	for {
		if name := nextEvent(t, names); name != events.NameTranscodingOutput {
			return name
		}
	}
}

func TestEventStreamLifecycleOrder(t *testing.T) {
	env := newTestEnv(t, true)
	names := openEventStream(t, env)

	const cycles = 500
	for range cycles {
		env.bus.Publish(events.TranscodingLifecycleEvent{Transition: events.TransitionStarted})
		env.bus.Publish(events.TranscodingLifecycleEvent{Transition: events.TransitionStopped})
	}

	for i := range 2 * cycles {
		want := events.NameTranscodingStarted
		if i%2 == 1 {
			want = events.NameTranscodingStopped
		}
		if got := nextEvent(t, names); got != want {
			t.Fatalf("event %d = %q, want %s", i, got, want)
		}
	}
}

func TestEventStreamKeepsLifecycleBehindOutput(t *testing.T) {
	env := newTestEnv(t, true)
	names := openEventStream(t, env)

	// Far more output than the stream buffers, then the end of the run.
	for i := range 5000 {
		env.bus.Publish(events.TranscodingOutputEvent{RunID: "r1", Stream: "stdout", Line: strconv.Itoa(i)})
	}
	env.bus.Publish(events.TranscodingLifecycleEvent{Transition: events.TransitionFinished, RunID: "r1", ExitCode: 0})
	env.bus.Publish(events.TranscodingLifecycleEvent{Transition: events.TransitionStopped, RunID: "r1"})

	if got := nextLifecycleEvent(t, names); got != events.NameTranscodingFinished {
		t.Fatalf("event = %q, want %s", got, events.NameTranscodingFinished)
	}
	if got := nextLifecycleEvent(t, names); got != events.NameTranscodingStopped {
		t.Fatalf("event = %q, want %s", got, events.NameTranscodingStopped)
	}
}

func TestEventStream(t *testing.T) {
	env := newTestEnv(t, true)
	names := openEventStream(t, env)

	env.bus.Publish(events.TranscodingLifecycleEvent{Transition: events.TransitionStarted})
	if got := nextEvent(t, names); got != events.NameTranscodingStarted {
		t.Errorf("event = %q, want %s", got, events.NameTranscodingStarted)
	}

	env.bus.Publish(events.TranscodingLifecycleEvent{Transition: events.TransitionStopped})
	if got := nextEvent(t, names); got != events.NameTranscodingStopped {
		t.Errorf("event = %q, want %s", got, events.NameTranscodingStopped)
	}
}

func TestExportLogs(t *testing.T) {
	env := newTestEnv(t, true)

	logging.GetLogger("lilt").Info("export marker lilt", "run_id", "r-1")
	logging.GetLogger("api").Info("export marker api")

	resp := env.do(t, http.MethodGet, "/api/logs/export?module=lilt", nil)
	expectStatus(t, resp, http.StatusOK)
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("content type = %q", ct)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	text := string(body)
	if !strings.Contains(text, "[lilt] export marker lilt run_id=r-1") {
		t.Errorf("export missing lilt entry:\n%s", text)
	}
	if strings.Contains(text, "export marker api") {
		t.Errorf("export contains entries from other modules:\n%s", text)
	}
}
