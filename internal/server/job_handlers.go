package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type Job struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Status     string          `json:"status"`
	Result     json.RawMessage `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
	StartedAt  *string         `json:"started_at,omitempty"`
	FinishedAt *string         `json:"finished_at,omitempty"`
	CreatedAt  string          `json:"created_at"`
	UpdatedAt  string          `json:"updated_at"`
}

type GetJobByIDRequest struct {
	ID string `param:"id" validate:"required,uuid"`
}

func (s *Server) GetJobByID(ctx echo.Context) error {
	var req GetJobByIDRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	}

	job, err := s.server.GetJobByID(ctx.Request().Context(), uuid.MustParse(req.ID))
	if err != nil {
		return errorJSON(ctx, err)
	}

	j := Job{
		ID:        job.ID.String(),
		Type:      job.Type,
		Status:    job.Status,
		Error:     job.Error,
		CreatedAt: job.CreatedAt.Format(time.RFC3339),
		UpdatedAt: job.UpdatedAt.Format(time.RFC3339),
	}
	if len(job.Result) > 0 {
		j.Result = json.RawMessage(job.Result)
	}
	if job.StartedAt != nil {
		startedAt := job.StartedAt.Format(time.RFC3339)
		j.StartedAt = &startedAt
	}
	if job.FinishedAt != nil {
		finishedAt := job.FinishedAt.Format(time.RFC3339)
		j.FinishedAt = &finishedAt
	}

	return ctx.JSON(http.StatusOK, Res{Data: j})
}
