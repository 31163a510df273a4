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

type Asset struct {
	ID        uuid.UUID      `gorm:"column:id;primaryKey;type:uuid;default:uuid_generate_v4()"`
	OwnerID   uuid.UUID      `gorm:"column:owner_id;type:uuid;not null;index:idx_assets_owner"`
	OwnerKind string         `gorm:"column:owner_kind;type:varchar(20);not null;index:idx_assets_owner"`
	URL       string         `gorm:"column:url;type:varchar(512);not null;uniqueIndex"`
	SizeBytes int64          `gorm:"column:size_bytes;not null"`
	Quality   int            `gorm:"column:quality;type:smallint;not null"`
	Colors    datatypes.JSON `gorm:"column:colors"`
	CreatedAt time.Time      `gorm:"column:created_at"`
}

func (Asset) TableName() string {
	return "assets"
}

func (s *service) CreateAsset(ctx context.Context, asset usecase.Asset) (usecase.Asset, error) {
	a := Asset{
		ID:        asset.ID,
		OwnerID:   asset.OwnerID,
		OwnerKind: string(asset.OwnerKind),
		URL:       asset.URL,
		SizeBytes: asset.SizeBytes,
		Quality:   asset.Quality,
		Colors:    datatypes.JSON(asset.Colors),
	}

	err := s.db.WithContext(ctx).Clauses(clause.Returning{}).Create(&a).Error
	if err != nil {
		return usecase.Asset{}, err
	}

	return a.ConvertToUsecase(), nil
}

func (s *service) GetAssetByID(ctx context.Context, id uuid.UUID) (usecase.Asset, error) {
	var a Asset

	err := s.db.WithContext(ctx).Where("id = ?", id).First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return usecase.Asset{}, usecase.ErrAssetNotFound
		}
		return usecase.Asset{}, err
	}

	return a.ConvertToUsecase(), nil
}

func (s *service) ListAssets(ctx context.Context, opt usecase.ListAssetsOption) ([]usecase.Asset, int, error) {
	var (
		assets  []Asset
		uassets []usecase.Asset
		count   int64
	)

	db := s.db.Model([]Asset{}).WithContext(ctx)

	if opt.OwnerID != uuid.Nil {
		db = db.Where("owner_id = ?", opt.OwnerID)
	}
	if opt.OwnerKind != "" {
		db = db.Where("owner_kind = ?", string(opt.OwnerKind))
	}

	if err := db.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	db = db.Offset(opt.Skip)
	if opt.Limit > 0 {
		db = db.Limit(opt.Limit)
	}
	if err := db.Order("created_at ASC").Find(&assets).Error; err != nil {
		return nil, 0, err
	}

	for _, a := range assets {
		uassets = append(uassets, a.ConvertToUsecase())
	}

	return uassets, int(count), nil
}

func (s *service) ListAssetURLs(ctx context.Context) ([]string, error) {
	var urls []string
	err := s.db.WithContext(ctx).Model(&Asset{}).Pluck("url", &urls).Error
	if err != nil {
		return nil, err
	}
	return urls, nil
}

func (s *service) DeleteAsset(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&Asset{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return usecase.ErrAssetNotFound
	}
	return nil
}

func (a Asset) ConvertToUsecase() usecase.Asset {
	return usecase.Asset{
		ID:        a.ID,
		OwnerID:   a.OwnerID,
		OwnerKind: usecase.OwnerKind(a.OwnerKind),
		URL:       a.URL,
		SizeBytes: a.SizeBytes,
		Quality:   a.Quality,
		Colors:    []byte(a.Colors),
		CreatedAt: a.CreatedAt,
	}
}
