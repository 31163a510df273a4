package usecase

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/anuncia/anuncia/internal/compressor"
)

type IngestAssetInput struct {
	OwnerKind OwnerKind
	OwnerID   uuid.UUID
	Slug      string
	File      RawFile
}

type IngestAssetsInput struct {
	OwnerKind OwnerKind
	OwnerID   uuid.UUID
	Slug      string
	Files     []RawFile
}

type IngestFailure struct {
	Index int
	File  string
	Err   error
}

type BatchResult struct {
	Assets   []Asset
	Failures []IngestFailure
}

// IngestAsset compresses one uploaded image into the owner's directory and
// records it. The raw file is deleted on every path out of this function.
// When recording fails the compressed output is removed as well.
func (u Usecase) IngestAsset(ctx context.Context, in IngestAssetInput) (asset Asset, err error) {
	ctx, span := u.inst.start(ctx, "usecase.IngestAsset",
		attribute.String("owner.kind", string(in.OwnerKind)),
		attribute.String("owner.id", in.OwnerID.String()),
		attribute.String("file.name", in.File.Name),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			u.inst.recordIngestFailure(ctx, in.OwnerKind)
		}
		span.End()
	}()

	release := sync.OnceFunc(func() { u.discardRaw(ctx, in.File.Path) })
	defer release()

	if in.OwnerKind.Dir() == "" {
		return Asset{}, fmt.Errorf("%w: %q", ErrUnsupportedKind, in.OwnerKind)
	}
	if u.compressor == nil {
		return Asset{}, fmt.Errorf("%w: no compressor configured", ErrEncode)
	}

	if _, err := u.repo.GetOwner(ctx, in.OwnerKind, in.OwnerID); err != nil {
		if errors.Is(err, ErrOwnerNotFound) {
			return Asset{}, err
		}
		return Asset{}, fmt.Errorf("%w: get owner: %w", ErrPersistence, err)
	}

	dir, err := u.fileStorageProvider.ResolveDir(in.OwnerKind.Dir(), in.Slug)
	if err != nil {
		return Asset{}, fmt.Errorf("%w: %w", ErrInvalidSlug, err)
	}
	if err := u.fileStorageProvider.EnsureDir(dir); err != nil {
		return Asset{}, fmt.Errorf("%w: %w", ErrStorageIO, err)
	}

	res, err := u.compress(ctx, in.File.Path, dir)
	if err != nil {
		return Asset{}, err
	}
	release()

	span.SetAttributes(
		attribute.Int("compress.passes", res.Passes),
		attribute.Int("compress.quality", res.Quality),
		attribute.Int64("compress.size", res.Size),
	)

	url, err := u.fileStorageProvider.RelativeURL(res.Path)
	if err != nil {
		u.discardOutput(ctx, res.Path)
		return Asset{}, fmt.Errorf("%w: %w", ErrStorageIO, err)
	}

	asset, err = u.repo.CreateAsset(ctx, Asset{
		ID:        uuid.New(),
		OwnerID:   in.OwnerID,
		OwnerKind: in.OwnerKind,
		URL:       url,
		SizeBytes: res.Size,
		Quality:   res.Quality,
		Colors:    res.Colors,
	})
	if err != nil {
		u.discardOutput(ctx, res.Path)
		return Asset{}, fmt.Errorf("%w: create asset: %w", ErrPersistence, err)
	}

	u.inst.recordIngest(ctx, in.OwnerKind, res.Passes, res.Size)
	u.logger.InfoContext(ctx, "asset ingested",
		slog.String("asset_id", asset.ID.String()),
		slog.String("url", asset.URL),
		slog.Int("quality", res.Quality),
		slog.Int("passes", res.Passes),
		slog.Int64("size", res.Size),
	)
	return asset, nil
}

// compress runs the compressor into dir. A directory pruned between
// EnsureDir and the first write is recreated and the compression retried
// once. On failure no output file is left behind.
func (u Usecase) compress(ctx context.Context, src, dir string) (compressor.Result, error) {
	res, err := u.compressor.Compress(ctx, src, dir, u.compressOptions)
	if err != nil && res.Path != "" && errors.Is(err, fs.ErrNotExist) {
		u.logger.WarnContext(ctx, "asset directory vanished, retrying",
			slog.String("dir", dir),
		)
		if err := u.fileStorageProvider.EnsureDir(dir); err != nil {
			return compressor.Result{}, fmt.Errorf("%w: %w", ErrStorageIO, err)
		}
		res, err = u.compressor.Compress(ctx, src, dir, u.compressOptions)
	}
	if err == nil {
		return res, nil
	}

	if res.Path != "" {
		u.discardOutput(ctx, res.Path)
		// The source decoded, so the failure happened writing the output.
		return compressor.Result{}, fmt.Errorf("%w: %w: %w", ErrStorageIO, ErrEncode, err)
	}
	u.pruneDir(ctx, dir)
	return compressor.Result{}, fmt.Errorf("%w: %w", ErrEncode, err)
}

// IngestAssets ingests files one after another in submission order. A
// failure is reported for its file only; assets already ingested in the
// same batch are kept.
func (u Usecase) IngestAssets(ctx context.Context, in IngestAssetsInput) BatchResult {
	ctx, span := u.inst.start(ctx, "usecase.IngestAssets",
		attribute.String("owner.kind", string(in.OwnerKind)),
		attribute.String("owner.id", in.OwnerID.String()),
		attribute.Int("files", len(in.Files)),
	)
	defer span.End()

	var res BatchResult
	for i, f := range in.Files {
		asset, err := u.IngestAsset(ctx, IngestAssetInput{
			OwnerKind: in.OwnerKind,
			OwnerID:   in.OwnerID,
			Slug:      in.Slug,
			File:      f,
		})
		if err != nil {
			u.logger.WarnContext(ctx, "asset ingestion failed",
				slog.Int("index", i),
				slog.String("file", f.Name),
				slog.String("err", err.Error()),
			)
			res.Failures = append(res.Failures, IngestFailure{Index: i, File: f.Name, Err: err})
			continue
		}
		res.Assets = append(res.Assets, asset)
	}

	span.SetAttributes(
		attribute.Int("assets.ingested", len(res.Assets)),
		attribute.Int("assets.failed", len(res.Failures)),
	)
	return res
}

// ReplaceOwnerImage ingests the new image for a single-image owner and then
// retires the images it had before. The new image is recorded first, so a
// failed upload never leaves the owner without an image.
func (u Usecase) ReplaceOwnerImage(ctx context.Context, in IngestAssetInput) (Asset, error) {
	ctx, span := u.inst.start(ctx, "usecase.ReplaceOwnerImage",
		attribute.String("owner.kind", string(in.OwnerKind)),
		attribute.String("owner.id", in.OwnerID.String()),
	)
	defer span.End()

	if !in.OwnerKind.SingleImage() {
		u.discardRaw(ctx, in.File.Path)
		return Asset{}, fmt.Errorf("%w: %q does not hold a single image", ErrUnsupportedKind, in.OwnerKind)
	}

	previous, _, err := u.repo.ListAssets(ctx, ListAssetsOption{
		OwnerID:   in.OwnerID,
		OwnerKind: in.OwnerKind,
	})
	if err != nil {
		u.discardRaw(ctx, in.File.Path)
		return Asset{}, fmt.Errorf("%w: list previous assets: %w", ErrPersistence, err)
	}

	asset, err := u.IngestAsset(ctx, in)
	if err != nil {
		return Asset{}, err
	}

	for _, p := range previous {
		if err := u.RetireAsset(ctx, p.ID); err != nil && !errors.Is(err, ErrAssetNotFound) {
			u.logger.WarnContext(ctx, "failed to retire replaced image",
				slog.String("asset_id", p.ID.String()),
				slog.String("err", err.Error()),
			)
		}
	}
	return asset, nil
}
