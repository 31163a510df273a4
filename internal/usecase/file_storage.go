package usecase

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

type FileStorageProvider interface {
	ResolveDir(ownerDir, slug string) (string, error)
	EnsureDir(dir string) error
	PruneIfEmpty(dir string) error
	RemoveFile(path string) (removed bool, err error)
	RelativeURL(path string) (string, error)
	AbsPath(url string) (string, error)
	Walk(ctx context.Context) (files []string, emptyDirs []string, err error)
}

// RawFile is an upload already spooled to local disk by the transport.
// The ingestion that receives it owns it and deletes it.
type RawFile struct {
	Path string
	Name string
}

// discardRaw deletes a spooled upload. Raw files live outside the asset
// root, so they are removed directly instead of through the provider.
func (u Usecase) discardRaw(ctx context.Context, path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		u.inst.cleanupFailed(ctx, "raw")
		u.logger.WarnContext(ctx, "failed to remove raw upload",
			slog.String("path", path),
			slog.String("err", err.Error()),
		)
	}
}

// discardOutput removes a compressed file that will not be recorded and
// prunes its directory if that left it empty.
func (u Usecase) discardOutput(ctx context.Context, path string) {
	if _, err := u.fileStorageProvider.RemoveFile(path); err != nil {
		u.inst.cleanupFailed(ctx, "output")
		u.logger.ErrorContext(ctx, "failed to remove compressed output",
			slog.String("path", path),
			slog.String("err", err.Error()),
		)
		return
	}
	u.pruneDir(ctx, filepath.Dir(path))
}

func (u Usecase) pruneDir(ctx context.Context, dir string) {
	if err := u.fileStorageProvider.PruneIfEmpty(dir); err != nil {
		u.inst.cleanupFailed(ctx, "prune")
		u.logger.WarnContext(ctx, "failed to prune directory",
			slog.String("dir", dir),
			slog.String("err", err.Error()),
		)
	}
}
