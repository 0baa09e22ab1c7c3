package dialog

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/pkg/browser"
)

// ErrUnsupportedURL is returned for links that are not absolute http or
// https URLs.
var ErrUnsupportedURL = errors.New("only http and https URLs can be opened")

// URLOpener opens links, such as the help page, in the user's browser.
type URLOpener interface {
	OpenURL(rawURL string) error
}

// BrowserOpener opens URLs with the desktop's default browser.
type BrowserOpener struct {
	logger *slog.Logger
	open   func(string) error
}

// NewBrowserOpener creates a URLOpener backed by the default browser.
func NewBrowserOpener(logger *slog.Logger) *BrowserOpener {
	if logger == nil {
		logger = slog.Default()
	}
	return &BrowserOpener{logger: logger, open: browser.OpenURL}
}

// OpenURL opens rawURL. Only http and https are accepted so a caller
// cannot launch local files or custom protocol handlers.
func (b *BrowserOpener) OpenURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%q: %w", rawURL, ErrUnsupportedURL)
	}

	if err := b.open(u.String()); err != nil {
		return fmt.Errorf("open %s: %w", u, err)
	}
	b.logger.Debug("Opened URL", "url", u.String())
	return nil
}
