package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const JobTypeStorageAudit = "storage:audit"

const (
	JobStatusPending    = "PENDING"
	JobStatusProcessing = "PROCESSING"
	JobStatusCompleted  = "COMPLETED"
	JobStatusFailed     = "FAILED"
)

// Job tracks an on-demand background task from request to result.
type Job struct {
	ID         uuid.UUID
	Type       string
	Status     string
	Result     []byte
	Error      string
	StartedAt  *time.Time
	FinishedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (u Usecase) GetJobByID(ctx context.Context, id uuid.UUID) (Job, error) {
	job, err := u.repo.GetJobByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrJobNotFound) {
			return Job{}, err
		}
		return Job{}, fmt.Errorf("%w: get job: %w", ErrPersistence, err)
	}
	return job, nil
}

// RequestStorageAudit records a pending audit job and enqueues it for the
// worker. If the enqueue fails the job is marked FAILED.
func (u Usecase) RequestStorageAudit(ctx context.Context) (uuid.UUID, error) {
	if u.queueClient == nil {
		return uuid.Nil, fmt.Errorf("%w: no queue client configured", ErrQueue)
	}

	job, err := u.repo.CreateJob(ctx, Job{
		Type:   JobTypeStorageAudit,
		Status: JobStatusPending,
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: create job: %w", ErrPersistence, err)
	}

	if err := u.queueClient.EnqueueJob(ctx, job.ID, JobTypeStorageAudit, nil); err != nil {
		finished := time.Now()
		job.Status = JobStatusFailed
		job.Error = err.Error()
		job.FinishedAt = &finished
		if _, uerr := u.repo.UpdateJob(ctx, job); uerr != nil {
			u.logger.ErrorContext(ctx, "failed to mark job failed",
				slog.String("job_id", job.ID.String()),
				slog.String("err", uerr.Error()),
			)
		}
		return uuid.Nil, fmt.Errorf("%w: %w", ErrQueue, err)
	}

	u.logger.InfoContext(ctx, "storage audit requested", slog.String("job_id", job.ID.String()))
	return job.ID, nil
}

// ProcessStorageAuditJob runs the audit for a requested job and stores the
// report as the job result. Scheduled audits carry no job and pass
// uuid.Nil, in which case nothing is tracked.
func (u Usecase) ProcessStorageAuditJob(ctx context.Context, jobID uuid.UUID) (AuditReport, error) {
	if jobID == uuid.Nil {
		return u.AuditStorage(ctx)
	}

	job, err := u.GetJobByID(ctx, jobID)
	if err != nil {
		return AuditReport{}, err
	}

	started := time.Now()
	job.Status = JobStatusProcessing
	job.StartedAt = &started
	job.Error = ""
	if job, err = u.repo.UpdateJob(ctx, job); err != nil {
		return AuditReport{}, fmt.Errorf("%w: update job to %s: %w", ErrPersistence, JobStatusProcessing, err)
	}

	report, err := u.AuditStorage(ctx)
	finished := time.Now()
	job.FinishedAt = &finished
	if err != nil {
		job.Status = JobStatusFailed
		job.Error = err.Error()
		if _, uerr := u.repo.UpdateJob(ctx, job); uerr != nil {
			u.logger.ErrorContext(ctx, "failed to mark job failed",
				slog.String("job_id", job.ID.String()),
				slog.String("err", uerr.Error()),
			)
		}
		return AuditReport{}, err
	}

	result, err := json.Marshal(report)
	if err != nil {
		return AuditReport{}, fmt.Errorf("marshal audit report: %w", err)
	}
	job.Status = JobStatusCompleted
	job.Result = result
	if _, err := u.repo.UpdateJob(ctx, job); err != nil {
		return AuditReport{}, fmt.Errorf("%w: update job to %s: %w", ErrPersistence, JobStatusCompleted, err)
	}
	return report, nil
}
