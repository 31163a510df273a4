package usecase

import (
	"cmp"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/anuncia/anuncia/internal/compressor"
	"github.com/anuncia/anuncia/internal/filestorage"
)

type memRepo struct {
	mu     sync.Mutex
	owners map[OwnerKind]map[uuid.UUID]Owner
	assets map[uuid.UUID]Asset
	jobs   map[uuid.UUID]Job

	createErr error
	deleteErr error
}

func newMemRepo() *memRepo {
	return &memRepo{
		owners: make(map[OwnerKind]map[uuid.UUID]Owner),
		assets: make(map[uuid.UUID]Asset),
		jobs:   make(map[uuid.UUID]Job),
	}
}

func (r *memRepo) addOwner(kind OwnerKind, slug string) Owner {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := Owner{ID: uuid.New(), Kind: kind, Slug: slug}
	if r.owners[kind] == nil {
		r.owners[kind] = make(map[uuid.UUID]Owner)
	}
	r.owners[kind][o.ID] = o
	return o
}

func (r *memRepo) assetCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.assets)
}

func (r *memRepo) Health() map[string]string { return map[string]string{"status": "up"} }
func (r *memRepo) Close() error              { return nil }

func (r *memRepo) CreateAsset(_ context.Context, a Asset) (Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return Asset{}, r.createErr
	}
	for _, existing := range r.assets {
		if existing.URL == a.URL {
			return Asset{}, errors.New("duplicate url")
		}
	}
	a.CreatedAt = time.Now()
	r.assets[a.ID] = a
	return a, nil
}

func (r *memRepo) GetAssetByID(_ context.Context, id uuid.UUID) (Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assets[id]
	if !ok {
		return Asset{}, ErrAssetNotFound
	}
	return a, nil
}

func (r *memRepo) ListAssets(_ context.Context, opt ListAssetsOption) ([]Asset, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var list []Asset
	for _, a := range r.assets {
		if opt.OwnerID != uuid.Nil && a.OwnerID != opt.OwnerID {
			continue
		}
		if opt.OwnerKind != "" && a.OwnerKind != opt.OwnerKind {
			continue
		}
		list = append(list, a)
	}
	slices.SortFunc(list, func(a, b Asset) int { return cmp.Compare(a.URL, b.URL) })
	total := len(list)
	list = list[min(opt.Skip, len(list)):]
	if opt.Limit > 0 && opt.Limit < len(list) {
		list = list[:opt.Limit]
	}
	return list, total, nil
}

func (r *memRepo) ListAssetURLs(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var urls []string
	for _, a := range r.assets {
		urls = append(urls, a.URL)
	}
	return urls, nil
}

func (r *memRepo) DeleteAsset(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return r.deleteErr
	}
	if _, ok := r.assets[id]; !ok {
		return ErrAssetNotFound
	}
	delete(r.assets, id)
	return nil
}

func (r *memRepo) GetOwner(_ context.Context, kind OwnerKind, id uuid.UUID) (Owner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.owners[kind][id]
	if !ok {
		return Owner{}, ErrOwnerNotFound
	}
	return o, nil
}

func (r *memRepo) DeleteOwner(_ context.Context, kind OwnerKind, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.owners[kind][id]; !ok {
		return ErrOwnerNotFound
	}
	delete(r.owners[kind], id)
	return nil
}

func (r *memRepo) CreateJob(_ context.Context, j Job) (Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j.ID = uuid.New()
	j.CreatedAt = time.Now()
	j.UpdatedAt = j.CreatedAt
	r.jobs[j.ID] = j
	return j, nil
}

func (r *memRepo) GetJobByID(_ context.Context, id uuid.UUID) (Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return Job{}, ErrJobNotFound
	}
	return j, nil
}

func (r *memRepo) UpdateJob(_ context.Context, j Job) (Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[j.ID]; !ok {
		return Job{}, ErrJobNotFound
	}
	j.UpdatedAt = time.Now()
	r.jobs[j.ID] = j
	return j, nil
}

// brokenRemoval fails every file removal.
type brokenRemoval struct {
	FileStorageProvider
}

func (brokenRemoval) RemoveFile(string) (bool, error) {
	return false, errors.New("device busy")
}

type stubCompressor struct {
	mu    sync.Mutex
	calls int
	fn    func(call int, src, destDir string) (compressor.Result, error)
}

func (s *stubCompressor) Compress(_ context.Context, src, destDir string, _ compressor.Options) (compressor.Result, error) {
	s.mu.Lock()
	s.calls++
	call := s.calls
	s.mu.Unlock()
	return s.fn(call, src, destDir)
}

type fixture struct {
	uc      Usecase
	repo    *memRepo
	storage *filestorage.LocalStorage
	rawDir  string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	repo := newMemRepo()
	storage := filestorage.NewLocalStorage(t.TempDir(), "uploads")
	return fixture{
		uc:      New(repo, storage, compressor.New(4, nil), Options{Logger: discardLogger()}),
		repo:    repo,
		storage: storage,
		rawDir:  t.TempDir(),
	}
}

func (f fixture) with(fsp FileStorageProvider, cmp Compressor) Usecase {
	return New(f.repo, fsp, cmp, Options{Logger: discardLogger()})
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// rawPNG spools a small PNG the way the transport would.
func (f fixture) rawPNG(t *testing.T, name string) RawFile {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 48, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 48; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 5), G: uint8(y * 7), B: 90, A: 255})
		}
	}
	p := filepath.Join(f.rawDir, uuid.NewString()+"-"+name)
	out, err := os.Create(p)
	require.NoError(t, err)
	defer out.Close()
	require.NoError(t, png.Encode(out, img))
	return RawFile{Path: p, Name: name}
}

func (f fixture) rawText(t *testing.T, name string) RawFile {
	t.Helper()
	p := filepath.Join(f.rawDir, uuid.NewString()+"-"+name)
	require.NoError(t, os.WriteFile(p, []byte("not an image"), 0o644))
	return RawFile{Path: p, Name: name}
}

func (f fixture) abs(t *testing.T, url string) string {
	t.Helper()
	p, err := f.storage.AbsPath(url)
	require.NoError(t, err)
	return p
}
