package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// RetireAsset removes an asset's file, prunes its directory when that left
// it empty and deletes the record. A file that is already gone does not stop
// retirement. Any other removal failure keeps the record so the retirement
// can be retried.
func (u Usecase) RetireAsset(ctx context.Context, id uuid.UUID) (err error) {
	ctx, span := u.inst.start(ctx, "usecase.RetireAsset",
		attribute.String("asset.id", id.String()),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	asset, err := u.repo.GetAssetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAssetNotFound) {
			return err
		}
		return fmt.Errorf("%w: get asset: %w", ErrPersistence, err)
	}

	path, err := u.fileStorageProvider.AbsPath(asset.URL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorageIO, err)
	}

	removed, err := u.fileStorageProvider.RemoveFile(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorageIO, err)
	}
	if !removed {
		u.logger.InfoContext(ctx, "asset file already missing",
			slog.String("asset_id", id.String()),
			slog.String("path", path),
		)
	}

	u.pruneDir(ctx, filepath.Dir(path))

	if err := u.repo.DeleteAsset(ctx, id); err != nil {
		if errors.Is(err, ErrAssetNotFound) {
			return err
		}
		return fmt.Errorf("%w: delete asset: %w", ErrPersistence, err)
	}

	u.inst.recordRetire(ctx)
	u.logger.InfoContext(ctx, "asset retired",
		slog.String("asset_id", id.String()),
		slog.String("url", asset.URL),
	)
	return nil
}

// DeleteOwner retires every asset of the owner, prunes the owner's
// directory and deletes the owner. If any asset cannot be retired the owner
// is kept and the joined retirement errors are returned.
func (u Usecase) DeleteOwner(ctx context.Context, kind OwnerKind, id uuid.UUID) error {
	ctx, span := u.inst.start(ctx, "usecase.DeleteOwner",
		attribute.String("owner.kind", string(kind)),
		attribute.String("owner.id", id.String()),
	)
	defer span.End()

	if kind.Dir() == "" {
		return fmt.Errorf("%w: %q", ErrUnsupportedKind, kind)
	}

	owner, err := u.repo.GetOwner(ctx, kind, id)
	if err != nil {
		if errors.Is(err, ErrOwnerNotFound) {
			return err
		}
		return fmt.Errorf("%w: get owner: %w", ErrPersistence, err)
	}

	assets, _, err := u.repo.ListAssets(ctx, ListAssetsOption{OwnerID: id, OwnerKind: kind})
	if err != nil {
		return fmt.Errorf("%w: list assets: %w", ErrPersistence, err)
	}

	var errs []error
	for _, a := range assets {
		if err := u.RetireAsset(ctx, a.ID); err != nil && !errors.Is(err, ErrAssetNotFound) {
			errs = append(errs, fmt.Errorf("retire asset %s: %w", a.ID, err))
		}
	}
	if len(errs) > 0 {
		err := errors.Join(errs...)
		span.RecordError(err)
		span.SetStatus(codes.Error, "owner assets not fully retired")
		return err
	}

	if owner.Slug != "" {
		if dir, err := u.fileStorageProvider.ResolveDir(kind.Dir(), owner.Slug); err == nil {
			u.pruneDir(ctx, dir)
		}
	}

	if err := u.repo.DeleteOwner(ctx, kind, id); err != nil {
		if errors.Is(err, ErrOwnerNotFound) {
			return err
		}
		return fmt.Errorf("%w: delete owner: %w", ErrPersistence, err)
	}

	u.logger.InfoContext(ctx, "owner deleted",
		slog.String("owner_kind", string(kind)),
		slog.String("owner_id", id.String()),
		slog.Int("assets", len(assets)),
	)
	return nil
}
