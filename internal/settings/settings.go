// Package settings persists the last transcoding configuration and the
// UI language between sessions.
package settings

import (
	"os"
	"path/filepath"

	"github.com/smazurov/liltpanel/internal/transcode"
)

// Settings is what the front end saves and restores.
type Settings struct {
	LastConfig transcode.Config `toml:"last_config" json:"last_config"`
	Language   string           `toml:"language" json:"language" example:"en" doc:"UI language code"`
}

// Defaults returns the settings used before anything has been saved.
func Defaults() Settings {
	return Settings{
		LastConfig: transcode.Config{
			UseDocker:           true,
			EnforceOutputFormat: "flac",
			CopyImages:          true,
		},
		Language: "en",
	}
}

// DefaultPath returns <user config dir>/liltpanel/settings.toml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "liltpanel", "settings.toml"), nil
}
