package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/climalight/internal/api/models"
	"github.com/smazurov/climalight/internal/button"
)

func (s *Server) registerButtonRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "press-button",
		Method:      http.MethodPost,
		Path:        "/api/button/press",
		Summary:     "Simulate button press",
		Description: "Queue a press of the given duration as if it came from the button",
		Tags:        []string{"button"},
		Security:    withAuth(),
		Errors:      []int{400, 401, 503},
	}, func(ctx context.Context, input *models.ButtonPressRequest) (*models.ButtonPressResponse, error) {
		d := time.Duration(input.Body.DurationMs) * time.Millisecond
		if !s.options.Button.Submit(d) {
			return nil, huma.Error503ServiceUnavailable("Button event queue is full")
		}
		return &models.ButtonPressResponse{
			Body: models.ButtonPressData{
				Queued: true,
				Kind:   button.Classify(d).String(),
			},
		}, nil
	})
}
