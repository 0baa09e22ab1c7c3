package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/liltpanel/internal/api/models"
	"github.com/smazurov/liltpanel/internal/process"
)

func (s *Server) registerTranscodingRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "start-transcoding",
		Method:      http.MethodPost,
		Path:        "/api/transcoding/start",
		Summary:     "Start transcoding",
		Description: "Start lilt with the given configuration. A running process is killed and replaced.",
		Tags:        []string{"transcoding"},
		Security:    withAuth(),
		Errors:      []int{400, 401, 500},
	}, func(_ context.Context, input *models.StartTranscodingRequest) (*struct{}, error) {
		if err := s.options.Transcoder.Start(input.Body); err != nil {
			return nil, huma.Error500InternalServerError(err.Error())
		}
		return &struct{}{}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "stop-transcoding",
		Method:      http.MethodPost,
		Path:        "/api/transcoding/stop",
		Summary:     "Stop transcoding",
		Description: "Force-kill the running lilt process",
		Tags:        []string{"transcoding"},
		Security:    withAuth(),
		Errors:      []int{401, 409, 500},
	}, func(_ context.Context, _ *struct{}) (*struct{}, error) {
		if err := s.options.Transcoder.Stop(); err != nil {
			if errors.Is(err, process.ErrNoProcessRunning) {
				return nil, huma.Error409Conflict(err.Error())
			}
			return nil, huma.Error500InternalServerError(err.Error())
		}
		return &struct{}{}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "is-transcoding-running",
		Method:      http.MethodGet,
		Path:        "/api/transcoding/running",
		Summary:     "Is transcoding running",
		Description: "Report whether a lilt process is running",
		Tags:        []string{"transcoding"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.RunningResponse, error) {
		return &models.RunningResponse{
			Body: models.RunningData{Running: s.options.Transcoder.IsRunning()},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-transcoding-status",
		Method:      http.MethodGet,
		Path:        "/api/transcoding/status",
		Summary:     "Transcoding status",
		Description: "Details of the running lilt process and the most recent output",
		Tags:        []string{"transcoding"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.TranscodingStatusResponse, error) {
		return &models.TranscodingStatusResponse{
			Body: models.StatusFromProcess(s.options.Transcoder.Status()),
		}, nil
	})
}
