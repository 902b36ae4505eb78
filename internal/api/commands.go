package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/climalight/internal/api/models"
	"github.com/smazurov/climalight/internal/command"
)

// commandSource labels commands that arrive over HTTP.
const commandSource = "api"

func (s *Server) registerCommandRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "execute-command",
		Method:      http.MethodPost,
		Path:        "/api/commands",
		Summary:     "Execute command",
		Description: "Apply a command using the same grammar as the MQTT command topic",
		Tags:        []string{"commands"},
		Security:    withAuth(),
		Errors:      []int{400, 401, 422},
	}, func(ctx context.Context, input *models.CommandRequest) (*models.CommandResponse, error) {
		cmd, err := s.options.Interpreter.Execute(commandSource, []byte(input.Body.Command))
		if err != nil {
			if errors.Is(err, command.ErrOutOfRange) || errors.Is(err, command.ErrMalformed) {
				return nil, huma.Error422UnprocessableEntity("Command rejected", err)
			}
			return nil, huma.Error500InternalServerError("Command failed", err)
		}

		result := command.ResultApplied
		if _, ok := cmd.(command.Unrecognized); ok {
			result = command.ResultUnrecognized
		}

		return &models.CommandResponse{
			Body: models.CommandData{
				Command: cmd.String(),
				Result:  result,
				State:   stateData(s.store.Snapshot()),
			},
		}, nil
	})
}
