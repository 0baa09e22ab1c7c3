package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/liltpanel/internal/api/models"
	"github.com/smazurov/liltpanel/internal/locator"
)

// BinaryNameInput names the executable to resolve.
type BinaryNameInput struct {
	Name string `path:"name" example:"lilt" doc:"Executable name to resolve on PATH"`
}

func (s *Server) registerBinaryRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "find-binary",
		Method:      http.MethodGet,
		Path:        "/api/binaries/{name}",
		Summary:     "Find binary",
		Description: "Resolve an executable name against the daemon's PATH",
		Tags:        []string{"binaries"},
		Security:    withAuth(),
		Errors:      []int{401, 404},
	}, func(_ context.Context, input *BinaryNameInput) (*models.BinaryPathResponse, error) {
		path, err := s.options.Locator.Find(input.Name)
		if err != nil {
			if errors.Is(err, locator.ErrNotFound) {
				return nil, huma.Error404NotFound(err.Error())
			}
			return nil, huma.Error500InternalServerError("binary lookup failed", err)
		}
		return &models.BinaryPathResponse{
			Body: models.BinaryPathData{Name: input.Name, Path: path},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "check-binaries",
		Method:      http.MethodGet,
		Path:        "/api/binaries",
		Summary:     "Check binaries",
		Description: "Report availability and version of lilt and its helper tools",
		Tags:        []string{"binaries"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(ctx context.Context, _ *struct{}) (*models.BinariesResponse, error) {
		statuses := locator.CheckBinaries(ctx, s.options.Locator, s.options.Requirements)

		ready := true
		for _, st := range statuses {
			if !st.Optional && !st.Available {
				ready = false
			}
		}
		return &models.BinariesResponse{
			Body: models.BinariesData{Binaries: statuses, Ready: ready},
		}, nil
	})
}
