package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/anuncia/anuncia/internal/usecase"
)

// HandleStorageAudit runs a read-only storage audit. The report is logged
// and written back as the task result. Requested audits carry a job id and
// have their job row updated; scheduled ones carry no payload.
func (h *Handlers) HandleStorageAudit(ctx context.Context, task *asynq.Task) error {
	var payload TaskPayload
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			h.logger.ErrorContext(ctx, "failed to parse task payload", slog.String("err", err.Error()))
			return fmt.Errorf("parse payload: %v: %w", err, asynq.SkipRetry)
		}
	}

	jobID := uuid.Nil
	if payload.JobID != "" {
		id, err := uuid.Parse(payload.JobID)
		if err != nil {
			h.logger.ErrorContext(ctx, "invalid job id", slog.String("job_id", payload.JobID))
			return fmt.Errorf("parse job id: %v: %w", err, asynq.SkipRetry)
		}
		jobID = id
	}

	h.logger.InfoContext(ctx, "processing storage audit", slog.String("job_id", payload.JobID))

	report, err := h.usecase.ProcessStorageAuditJob(ctx, jobID)
	if err != nil {
		h.logger.ErrorContext(ctx, "storage audit failed",
			slog.String("job_id", payload.JobID),
			slog.String("err", err.Error()),
		)
		if errors.Is(err, usecase.ErrJobNotFound) {
			return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		}
		return err
	}

	if w := task.ResultWriter(); w != nil {
		b, err := json.Marshal(report)
		if err == nil {
			_, err = w.Write(b)
		}
		if err != nil {
			h.logger.WarnContext(ctx, "failed to write audit result", slog.String("err", err.Error()))
		}
	}

	h.logger.InfoContext(ctx, "storage audit completed",
		slog.String("job_id", payload.JobID),
		slog.Int("orphans", len(report.OrphanFiles)),
		slog.Int("missing", len(report.MissingFiles)),
		slog.Int("empty_dirs", len(report.EmptyDirs)),
	)
	return nil
}
