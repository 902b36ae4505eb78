package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/climalight/internal/api/models"
	"github.com/smazurov/climalight/internal/report"
	"github.com/smazurov/climalight/internal/state"
)

func stateData(snap state.Snapshot) models.StateData {
	return models.StateData{
		Temperature: snap.Temperature,
		Humidity:    snap.Humidity,
		Mode:        int(snap.Mode),
		ModeName:    snap.Mode.String(),
		Color:       uint32(snap.Color),
		ColorHex:    snap.Color.String(),
	}
}

func (s *Server) registerStateRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-state",
		Method:      http.MethodGet,
		Path:        "/api/state",
		Summary:     "State",
		Description: "Current readings and LED state",
		Tags:        []string{"state"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(ctx context.Context, input *struct{}) (*models.StateResponse, error) {
		return &models.StateResponse{Body: stateData(s.store.Snapshot())}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-status",
		Method:      http.MethodGet,
		Path:        "/api/status",
		Summary:     "Status message",
		Description: "The status message as the reporter would publish it now",
		Tags:        []string{"state"},
		Security:    withAuth(),
		Errors:      []int{401, 500},
	}, func(ctx context.Context, input *struct{}) (*models.StatusResponse, error) {
		payload, err := report.FromSnapshot(s.store.Snapshot()).Marshal()
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to encode status", err)
		}
		return &models.StatusResponse{ContentType: "application/json", Body: payload}, nil
	})
}
