package usecase

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/anuncia/anuncia/internal/compressor"
)

type Options struct {
	Compress compressor.Options
	Logger   *slog.Logger
	// Queue is nil in processes that only consume tasks.
	Queue QueueClient
}

func New(repo Repository, fsp FileStorageProvider, cmp Compressor, opt Options) Usecase {
	logger := opt.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return Usecase{
		repo:                repo,
		fileStorageProvider: fsp,
		compressor:          cmp,
		queueClient:         opt.Queue,
		compressOptions:     opt.Compress.WithDefaults(),
		logger:              logger,
		inst:                newInstruments(),
	}
}

type Repository interface {
	Health() map[string]string
	Close() error

	CreateAsset(context.Context, Asset) (Asset, error)
	GetAssetByID(context.Context, uuid.UUID) (Asset, error)
	ListAssets(context.Context, ListAssetsOption) ([]Asset, int, error)
	ListAssetURLs(context.Context) ([]string, error)
	DeleteAsset(context.Context, uuid.UUID) error

	GetOwner(context.Context, OwnerKind, uuid.UUID) (Owner, error)
	DeleteOwner(context.Context, OwnerKind, uuid.UUID) error

	CreateJob(context.Context, Job) (Job, error)
	GetJobByID(context.Context, uuid.UUID) (Job, error)
	UpdateJob(context.Context, Job) (Job, error)
}

type Compressor interface {
	Compress(ctx context.Context, src, destDir string, opt compressor.Options) (compressor.Result, error)
}

type QueueClient interface {
	EnqueueJob(ctx context.Context, jobID uuid.UUID, jobType string, payload []byte) error
}

type Usecase struct {
	repo                Repository
	fileStorageProvider FileStorageProvider
	compressor          Compressor
	queueClient         QueueClient
	compressOptions     compressor.Options
	logger              *slog.Logger
	inst                *instruments
}

func (u Usecase) Health() map[string]string {
	return u.repo.Health()
}

func (u Usecase) Close() error {
	return u.repo.Close()
}
