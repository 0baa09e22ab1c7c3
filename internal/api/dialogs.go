package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/liltpanel/internal/api/models"
	"github.com/smazurov/liltpanel/internal/dialog"
)

func (s *Server) registerDialogRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "select-file",
		Method:      http.MethodPost,
		Path:        "/api/dialogs/file",
		Summary:     "Select file",
		Description: "Open a native file picker on the daemon's desktop and return the chosen path",
		Tags:        []string{"dialogs"},
		Security:    withAuth(),
		Errors:      []int{400, 401, 500},
	}, func(ctx context.Context, input *models.DialogRequest) (*models.DialogResponse, error) {
		path, err := s.options.FileWell.SelectFile(ctx, input.Body.Title)
		return dialogResult(path, err, dialog.ErrNoFileSelected)
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "select-directory",
		Method:      http.MethodPost,
		Path:        "/api/dialogs/directory",
		Summary:     "Select directory",
		Description: "Open a native folder picker on the daemon's desktop and return the chosen path",
		Tags:        []string{"dialogs"},
		Security:    withAuth(),
		Errors:      []int{400, 401, 500},
	}, func(ctx context.Context, input *models.DialogRequest) (*models.DialogResponse, error) {
		path, err := s.options.FileWell.SelectDirectory(ctx, input.Body.Title)
		return dialogResult(path, err, dialog.ErrNoDirectorySelected)
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "open-url",
		Method:      http.MethodPost,
		Path:        "/api/open-url",
		Summary:     "Open URL",
		Description: "Open an http or https link in the default browser on the daemon's desktop",
		Tags:        []string{"dialogs"},
		Security:    withAuth(),
		Errors:      []int{400, 401, 500},
	}, func(_ context.Context, input *models.OpenURLRequest) (*struct{}, error) {
		if err := s.options.URLOpener.OpenURL(input.Body.URL); err != nil {
			if errors.Is(err, dialog.ErrUnsupportedURL) {
				return nil, huma.Error400BadRequest(dialog.ErrUnsupportedURL.Error())
			}
			return nil, huma.Error500InternalServerError("failed to open URL", err)
		}
		return &struct{}{}, nil
	})
}

// dialogResult maps a dismissed dialog to 400 with its message.
func dialogResult(path string, err, dismissed error) (*models.DialogResponse, error) {
	if err != nil {
		if errors.Is(err, dismissed) {
			return nil, huma.Error400BadRequest(dismissed.Error())
		}
		return nil, huma.Error500InternalServerError("dialog failed", err)
	}
	return &models.DialogResponse{Body: models.DialogData{Path: path}}, nil
}
