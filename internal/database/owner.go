package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/anuncia/anuncia/internal/usecase"
)

// Owner tables. Only the columns the asset pipeline reads are modelled;
// listing content lives in other services.

type Post struct {
	ID        uuid.UUID `gorm:"column:id;primaryKey;type:uuid;default:uuid_generate_v4()"`
	Slug      string    `gorm:"column:slug;type:varchar(255);not null;uniqueIndex"`
	Title     string    `gorm:"column:title;type:varchar(255)"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (Post) TableName() string { return "posts" }

type City struct {
	ID        uuid.UUID `gorm:"column:id;primaryKey;type:uuid;default:uuid_generate_v4()"`
	Slug      string    `gorm:"column:slug;type:varchar(255);not null;uniqueIndex"`
	Name      string    `gorm:"column:name;type:varchar(255)"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (City) TableName() string { return "cities" }

type Category struct {
	ID        uuid.UUID `gorm:"column:id;primaryKey;type:uuid;default:uuid_generate_v4()"`
	Slug      string    `gorm:"column:slug;type:varchar(255);not null;uniqueIndex"`
	Name      string    `gorm:"column:name;type:varchar(255)"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (Category) TableName() string { return "categories" }

type Type struct {
	ID        uuid.UUID `gorm:"column:id;primaryKey;type:uuid;default:uuid_generate_v4()"`
	Slug      string    `gorm:"column:slug;type:varchar(255);not null;uniqueIndex"`
	Name      string    `gorm:"column:name;type:varchar(255)"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (Type) TableName() string { return "types" }

type ownerRow struct {
	ID   uuid.UUID
	Slug string
}

func ownerModel(kind usecase.OwnerKind) (any, error) {
	switch kind {
	case usecase.OwnerKindPost:
		return &Post{}, nil
	case usecase.OwnerKindCity:
		return &City{}, nil
	case usecase.OwnerKindCategory:
		return &Category{}, nil
	case usecase.OwnerKindType:
		return &Type{}, nil
	}
	return nil, fmt.Errorf("%w: %q", usecase.ErrUnsupportedKind, kind)
}

func (s *service) GetOwner(ctx context.Context, kind usecase.OwnerKind, id uuid.UUID) (usecase.Owner, error) {
	model, err := ownerModel(kind)
	if err != nil {
		return usecase.Owner{}, err
	}

	var row ownerRow
	err = s.db.WithContext(ctx).
		Model(model).
		Select("id", "slug").
		Where("id = ?", id).
		Take(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return usecase.Owner{}, fmt.Errorf("%w: %s %s", usecase.ErrOwnerNotFound, kind, id)
		}
		return usecase.Owner{}, err
	}

	return usecase.Owner{ID: row.ID, Kind: kind, Slug: row.Slug}, nil
}

func (s *service) DeleteOwner(ctx context.Context, kind usecase.OwnerKind, id uuid.UUID) error {
	model, err := ownerModel(kind)
	if err != nil {
		return err
	}

	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(model)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s %s", usecase.ErrOwnerNotFound, kind, id)
	}
	return nil
}
