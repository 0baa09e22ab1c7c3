// Package dialog shows native file and folder pickers.
package dialog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ncruces/zenity"
)

var (
	// ErrNoFileSelected is returned when the file picker is dismissed.
	ErrNoFileSelected = errors.New("No file selected") //nolint:staticcheck // shown to the user verbatim
	// ErrNoDirectorySelected is returned when the folder picker is dismissed.
	ErrNoDirectorySelected = errors.New("No directory selected") //nolint:staticcheck // shown to the user verbatim
)

// FileWell asks the user for a single path.
type FileWell interface {
	SelectFile(ctx context.Context, title string) (string, error)
	SelectDirectory(ctx context.Context, title string) (string, error)
}

type pickFunc func(options ...zenity.Option) (string, error)

// ZenityWell opens the platform's native picker through zenity.
// Calls block until the user answers or ctx is done.
type ZenityWell struct {
	logger *slog.Logger
	pick   pickFunc
}

// NewZenityWell creates a FileWell backed by native dialogs.
func NewZenityWell(logger *slog.Logger) *ZenityWell {
	if logger == nil {
		logger = slog.Default()
	}
	return &ZenityWell{logger: logger, pick: zenity.SelectFile}
}

// SelectFile shows a file picker titled title.
func (w *ZenityWell) SelectFile(ctx context.Context, title string) (string, error) {
	return w.show(ctx, title, ErrNoFileSelected)
}

// SelectDirectory shows a folder picker titled title.
func (w *ZenityWell) SelectDirectory(ctx context.Context, title string) (string, error) {
	return w.show(ctx, title, ErrNoDirectorySelected, zenity.Directory())
}

func (w *ZenityWell) show(ctx context.Context, title string, dismissed error, extra ...zenity.Option) (string, error) {
	options := append([]zenity.Option{zenity.Title(title), zenity.Context(ctx)}, extra...)

	path, err := w.pick(options...)
	switch {
	case errors.Is(err, zenity.ErrCanceled):
		w.logger.Debug("Dialog dismissed", "title", title)
		return "", dismissed
	case err != nil:
		if ctx.Err() != nil {
			return "", dismissed
		}
		return "", fmt.Errorf("dialog %q: %w", title, err)
	case path == "":
		return "", dismissed
	}

	w.logger.Debug("Dialog selection", "title", title, "path", path)
	return path, nil
}
