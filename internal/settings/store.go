package settings

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	"github.com/pelletier/go-toml/v2"

	"github.com/smazurov/liltpanel/internal/config"
	"github.com/smazurov/liltpanel/internal/events"
)

// Store reads and writes settings as a TOML file. Access is serialized with
// an advisory lock file next to it, so two daemons sharing a config dir do
// not interleave writes.
type Store struct {
	path   string
	lock   *flock.Flock
	bus    *events.Bus
	logger *slog.Logger

	// ioMu serializes file access within the process; lock covers other
	// processes.
	ioMu sync.Mutex

	mu      sync.Mutex
	last    Settings
	known   bool
	watcher *config.Watcher[Settings]
}

// StoreOptions configures a Store.
type StoreOptions struct {
	// EventBus receives settings-changed events (optional).
	EventBus *events.Bus
	// Logger for store operations. If nil, uses slog.Default().
	Logger *slog.Logger
}

// NewStore creates a store backed by the file at path.
func NewStore(path string, opts StoreOptions) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		path:   path,
		lock:   flock.New(path + ".lock"),
		bus:    opts.EventBus,
		logger: logger,
	}
}

// Path returns the settings file path.
func (s *Store) Path() string {
	return s.path
}

// Load returns the saved settings. A missing file yields Defaults; keys
// absent from the file keep their default values.
func (s *Store) Load() (Settings, error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return Settings{}, fmt.Errorf("failed to create settings directory: %w", err)
	}
	s.ioMu.Lock()
	defer s.ioMu.Unlock()
	if err := s.lock.RLock(); err != nil {
		return Settings{}, fmt.Errorf("failed to lock settings: %w", err)
	}
	defer s.unlock()

	settings, err := readFile(s.path)
	if err != nil {
		return Settings{}, err
	}
	s.remember(settings)
	return settings, nil
}

// Save writes settings atomically and publishes a settings-changed event.
func (s *Store) Save(settings Settings) error {
	data, err := toml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	s.ioMu.Lock()
	defer s.ioMu.Unlock()
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock settings: %w", err)
	}
	defer s.unlock()

	if err := writeFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}

	s.logger.Info("Settings saved", "path", s.path)
	s.remember(settings)
	s.bus.Publish(events.SettingsChangedEvent{Settings: settings})
	return nil
}

// Watch publishes a settings-changed event whenever the file is changed
// by someone else. Writes made through Save are not announced twice.
func (s *Store) Watch() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watcher != nil {
		return nil
	}

	w := config.NewConfigWatcher(s.path, readFile, s.logger)
	w.OnReload(func(settings Settings) {
		if !s.remember(settings) {
			return
		}
		s.logger.Info("Settings changed on disk", "path", s.path)
		s.bus.Publish(events.SettingsChangedEvent{Settings: settings})
	})
	if err := w.Start(); err != nil {
		return fmt.Errorf("failed to watch settings: %w", err)
	}
	s.watcher = w
	return nil
}

// Close stops watching.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watcher == nil {
		return nil
	}
	err := s.watcher.Stop()
	s.watcher = nil
	return err
}

// remember records settings as the last known state and reports whether
// they differ from the previous one.
func (s *Store) remember(settings Settings) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := !s.known || s.last != settings
	s.last = settings
	s.known = true
	return changed
}

func (s *Store) unlock() {
	if err := s.lock.Unlock(); err != nil {
		s.logger.Warn("Failed to release settings lock", "error", err)
	}
}

// readFile decodes the settings file on top of Defaults.
func readFile(path string) (Settings, error) {
	settings := Defaults()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return settings, nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read settings: %w", err)
	}

	if err := toml.Unmarshal(data, &settings); err != nil {
		return Settings{}, fmt.Errorf("failed to parse settings %s: %w", path, err)
	}
	return settings, nil
}
