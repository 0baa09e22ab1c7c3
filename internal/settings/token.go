package settings

import (
	"crypto/rand"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const tokenFileName = "token"

// NewToken returns a random API access token.
func NewToken() string {
	return rand.Text()
}

// TokenPath returns the access token file that sits next to the settings
// file at settingsPath.
func TokenPath(settingsPath string) string {
	return filepath.Join(filepath.Dir(settingsPath), tokenFileName)
}

// WriteToken stores token at path, readable by the owner only, so a local
// front end can pick it up.
func WriteToken(path, token string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return writeFileAtomic(path, []byte(token+"\n"), 0o600)
}

// ReadToken returns the token stored at path.
func ReadToken(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// RemoveToken deletes the token file. A missing file is not an error.
func RemoveToken(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
