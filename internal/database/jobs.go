package database

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/anuncia/anuncia/internal/usecase"
)

type Job struct {
	ID         uuid.UUID      `gorm:"column:id;primaryKey;type:uuid;default:uuid_generate_v4()"`
	Type       string         `gorm:"column:type;type:varchar(255);NOT NULL"`
	Status     string         `gorm:"column:status;type:varchar(255);NOT NULL;index"`
	Result     datatypes.JSON `gorm:"column:result"`
	Error      string         `gorm:"column:error;type:text"`
	StartedAt  *time.Time     `gorm:"column:started_at"`
	FinishedAt *time.Time     `gorm:"column:finished_at"`
	CreatedAt  time.Time      `gorm:"column:created_at"`
	UpdatedAt  time.Time      `gorm:"column:updated_at"`
}

func (Job) TableName() string {
	return "jobs"
}

func (s *service) CreateJob(ctx context.Context, job usecase.Job) (usecase.Job, error) {
	j := Job{
		Type:   job.Type,
		Status: job.Status,
	}
	if err := s.db.
		WithContext(ctx).
		Clauses(clause.Returning{}).
		Create(&j).Error; err != nil {
		return usecase.Job{}, err
	}

	return j.ConvertToUsecase(), nil
}

// UpdateJob writes the progress fields of job. Zero values are written
// too, so a retried job can clear its previous error.
func (s *service) UpdateJob(ctx context.Context, job usecase.Job) (usecase.Job, error) {
	now := time.Now()
	res := s.db.
		WithContext(ctx).
		Model(&Job{}).
		Where("id = ?", job.ID).
		Select("status", "result", "error", "started_at", "finished_at", "updated_at").
		Updates(Job{
			Status:     job.Status,
			Result:     job.Result,
			Error:      job.Error,
			StartedAt:  job.StartedAt,
			FinishedAt: job.FinishedAt,
			UpdatedAt:  now,
		})
	if res.Error != nil {
		return usecase.Job{}, res.Error
	}
	if res.RowsAffected == 0 {
		return usecase.Job{}, usecase.ErrJobNotFound
	}

	job.UpdatedAt = now
	return job, nil
}

func (s *service) GetJobByID(ctx context.Context, id uuid.UUID) (usecase.Job, error) {
	var job Job
	if err := s.db.
		WithContext(ctx).
		Where("id = ?", id).
		Take(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return usecase.Job{}, usecase.ErrJobNotFound
		}
		return usecase.Job{}, err
	}

	return job.ConvertToUsecase(), nil
}

// Convert core model to usecase model
func (j Job) ConvertToUsecase() usecase.Job {
	return usecase.Job{
		ID:         j.ID,
		Type:       j.Type,
		Status:     j.Status,
		Result:     j.Result,
		Error:      j.Error,
		StartedAt:  j.StartedAt,
		FinishedAt: j.FinishedAt,
		CreatedAt:  j.CreatedAt,
		UpdatedAt:  j.UpdatedAt,
	}
}
