package handlers

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/anuncia/anuncia/internal/usecase"
)

// Usecase is the part of usecase.Usecase the task handlers call.
type Usecase interface {
	ProcessStorageAuditJob(context.Context, uuid.UUID) (usecase.AuditReport, error)
}

type Handlers struct {
	usecase Usecase
	logger  *slog.Logger
}

func NewHandlers(uc Usecase, logger *slog.Logger) *Handlers {
	return &Handlers{
		usecase: uc,
		logger:  logger,
	}
}

// TaskPayload is the envelope every task carries. Tasks registered with
// the scheduler have an empty payload.
type TaskPayload struct {
	JobID   string `json:"job_id"`
	Type    string `json:"type"`
	Payload string `json:"payload"`
}
