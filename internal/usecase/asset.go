package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type OwnerKind string

const (
	OwnerKindPost     OwnerKind = "post"
	OwnerKindCity     OwnerKind = "city"
	OwnerKindCategory OwnerKind = "category"
	OwnerKindType     OwnerKind = "type"
)

func ParseOwnerKind(s string) (OwnerKind, error) {
	k := OwnerKind(s)
	if k.Dir() == "" {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedKind, s)
	}
	return k, nil
}

// Dir is the directory under images/ shared by every owner of kind k.
func (k OwnerKind) Dir() string {
	switch k {
	case OwnerKindPost:
		return "posts"
	case OwnerKindCity:
		return "cities"
	case OwnerKindCategory:
		return "categories"
	case OwnerKindType:
		return "types"
	}
	return ""
}

// SingleImage reports whether owners of kind k carry one image that is
// replaced on upload rather than appended to.
func (k OwnerKind) SingleImage() bool {
	return k == OwnerKindCity || k == OwnerKindCategory || k == OwnerKindType
}

type Owner struct {
	ID   uuid.UUID
	Kind OwnerKind
	Slug string
}

type Asset struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	OwnerKind OwnerKind
	// URL is relative to the storage base, e.g.
	// "uploads/images/posts/casa-en-venta/1700000000000-42.jpg".
	URL       string
	SizeBytes int64
	Quality   int
	Colors    []byte
	CreatedAt time.Time
}

type ListAssetsOption struct {
	Skip  int
	Limit int

	OwnerID   uuid.UUID
	OwnerKind OwnerKind
}

func (u Usecase) ListAssets(ctx context.Context, opt ListAssetsOption) ([]Asset, int, error) {
	assets, total, err := u.repo.ListAssets(ctx, opt)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: list assets: %w", ErrPersistence, err)
	}
	return assets, total, nil
}

func (u Usecase) GetAssetByID(ctx context.Context, id uuid.UUID) (Asset, error) {
	asset, err := u.repo.GetAssetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAssetNotFound) {
			return Asset{}, err
		}
		return Asset{}, fmt.Errorf("%w: get asset: %w", ErrPersistence, err)
	}
	return asset, nil
}
