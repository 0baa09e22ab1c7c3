package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/liltpanel/internal/api/models"
)

func (s *Server) registerSettingsRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-settings",
		Method:      http.MethodGet,
		Path:        "/api/settings",
		Summary:     "Get settings",
		Description: "Load the saved configuration and language, with defaults for missing values",
		Tags:        []string{"settings"},
		Security:    withAuth(),
		Errors:      []int{401, 500},
	}, func(_ context.Context, _ *struct{}) (*models.SettingsResponse, error) {
		current, err := s.options.Settings.Load()
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to load settings", err)
		}
		return &models.SettingsResponse{Body: current}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "save-settings",
		Method:      http.MethodPut,
		Path:        "/api/settings",
		Summary:     "Save settings",
		Description: "Persist the configuration and language",
		Tags:        []string{"settings"},
		Security:    withAuth(),
		Errors:      []int{400, 401, 500},
	}, func(_ context.Context, input *models.SettingsRequest) (*models.SettingsResponse, error) {
		if err := s.options.Settings.Save(input.Body); err != nil {
			s.logger.Error("Failed to save settings", "error", err)
			return nil, huma.Error500InternalServerError(err.Error())
		}
		return &models.SettingsResponse{Body: input.Body}, nil
	})
}
