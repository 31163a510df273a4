package filestorage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	ErrInvalidSlug = errors.New("invalid slug")
	ErrOutsideRoot = errors.New("path outside asset root")
)

// slugPattern accepts exactly one normalised path segment.
var slugPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

const imagesDir = "images"

// NewLocalStorage returns a storage rooted at baseDir/assetRoot. Relative
// URLs handed out by the storage start with assetRoot, so serving baseDir
// under "/" + assetRoot mirrors the on-disk layout.
func NewLocalStorage(baseDir, assetRoot string) *LocalStorage {
	return &LocalStorage{
		baseDir:   filepath.Clean(baseDir),
		assetRoot: filepath.Clean(assetRoot),
	}
}

type LocalStorage struct {
	baseDir   string
	assetRoot string
}

// Root is the absolute-or-relative directory holding every asset.
func (s *LocalStorage) Root() string {
	return filepath.Join(s.baseDir, s.assetRoot)
}

// ResolveDir maps an owner directory and slug to the directory holding that
// owner's assets. It performs no I/O.
func (s *LocalStorage) ResolveDir(ownerDir, slug string) (string, error) {
	if slug == "" {
		return "", fmt.Errorf("%w: slug is empty", ErrInvalidSlug)
	}
	if !slugPattern.MatchString(slug) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSlug, slug)
	}
	if !slugPattern.MatchString(ownerDir) {
		return "", fmt.Errorf("invalid owner directory %q", ownerDir)
	}
	return filepath.Join(s.Root(), imagesDir, ownerDir, slug), nil
}

// EnsureDir creates dir and any missing parents. An existing directory is
// not an error, so concurrent callers for the same owner all succeed.
func (s *LocalStorage) EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure dir %s: %w", dir, err)
	}
	return nil
}

// PruneIfEmpty removes dir when it has no entries. A missing directory or
// one that is not empty at removal time is left as is.
func (s *LocalStorage) PruneIfEmpty(dir string) error {
	if !s.within(dir) || s.isKindDir(dir) {
		return fmt.Errorf("%w: refusing to prune %s", ErrOutsideRoot, dir)
	}

	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read dir %s: %w", dir, err)
	}
	if len(entries) > 0 {
		return nil
	}

	// os.Remove refuses non-empty directories, so an upload that landed
	// after ReadDir keeps its directory.
	if err := os.Remove(dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if entries, rerr := os.ReadDir(dir); rerr == nil && len(entries) > 0 {
			return nil
		}
		return fmt.Errorf("remove dir %s: %w", dir, err)
	}
	return nil
}

// RemoveFile deletes the file at path. A file that is already gone is
// reported as removed=false without error.
func (s *LocalStorage) RemoveFile(path string) (removed bool, err error) {
	if !s.within(path) {
		return false, fmt.Errorf("%w: %s", ErrOutsideRoot, path)
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("remove file %s: %w", path, err)
	}
	return true, nil
}

// RelativeURL converts a path under the asset root to its stored form,
// e.g. "uploads/images/posts/my-post/1700000000000-42.jpg".
func (s *LocalStorage) RelativeURL(path string) (string, error) {
	rel, err := filepath.Rel(s.baseDir, path)
	if err != nil {
		return "", err
	}
	if !s.within(path) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, path)
	}
	return filepath.ToSlash(rel), nil
}

// AbsPath is the inverse of RelativeURL. A leading slash is tolerated.
func (s *LocalStorage) AbsPath(url string) (string, error) {
	p := filepath.Join(s.baseDir, filepath.FromSlash(strings.TrimPrefix(url, "/")))
	if !s.within(p) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, url)
	}
	return p, nil
}

// Walk lists every file under the asset root as relative URLs, plus every
// empty slug directory.
func (s *LocalStorage) Walk(ctx context.Context) (files []string, emptyDirs []string, err error) {
	root := filepath.Join(s.Root(), imagesDir)
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == root {
				return filepath.SkipDir
			}
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if d.IsDir() {
			if path == root || s.isKindDir(path) {
				return nil
			}
			entries, err := os.ReadDir(path)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				rel, err := s.RelativeURL(path)
				if err != nil {
					return err
				}
				emptyDirs = append(emptyDirs, rel)
			}
			return nil
		}

		rel, err := s.RelativeURL(path)
		if err != nil {
			return err
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return files, emptyDirs, nil
}

func (s *LocalStorage) within(path string) bool {
	rel, err := filepath.Rel(s.Root(), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// isKindDir reports whether dir is one of images/<kind> (or images itself),
// which are shared by every owner and never pruned.
func (s *LocalStorage) isKindDir(dir string) bool {
	rel, err := filepath.Rel(filepath.Join(s.Root(), imagesDir), filepath.Clean(dir))
	if err != nil {
		return false
	}
	return rel == "." || !strings.Contains(filepath.ToSlash(rel), "/")
}
