package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ingestFor(t *testing.T, f fixture, owner Owner, name string) Asset {
	t.Helper()
	a, err := f.uc.IngestAsset(context.Background(), IngestAssetInput{
		OwnerKind: owner.Kind,
		OwnerID:   owner.ID,
		Slug:      owner.Slug,
		File:      f.rawPNG(t, name),
	})
	require.NoError(t, err)
	return a
}

func TestRetireAsset(t *testing.T) {
	f := newFixture(t)
	owner := f.repo.addOwner(OwnerKindPost, "casa")
	asset := ingestFor(t, f, owner, "a.png")
	path := f.abs(t, asset.URL)

	require.NoError(t, f.uc.RetireAsset(context.Background(), asset.ID))

	assert.NoFileExists(t, path)
	assert.NoDirExists(t, filepath.Dir(path), "last asset out prunes the directory")
	assert.DirExists(t, filepath.Dir(filepath.Dir(path)), "kind directory stays")

	_, err := f.uc.GetAssetByID(context.Background(), asset.ID)
	assert.ErrorIs(t, err, ErrAssetNotFound)
}

func TestRetireAsset_KeepsDirectoryWithSiblings(t *testing.T) {
	f := newFixture(t)
	owner := f.repo.addOwner(OwnerKindPost, "casa")
	first := ingestFor(t, f, owner, "a.png")
	second := ingestFor(t, f, owner, "b.png")

	require.NoError(t, f.uc.RetireAsset(context.Background(), first.ID))

	assert.NoFileExists(t, f.abs(t, first.URL))
	assert.FileExists(t, f.abs(t, second.URL))
}

func TestRetireAsset_FileAlreadyMissing(t *testing.T) {
	f := newFixture(t)
	owner := f.repo.addOwner(OwnerKindCity, "cusco")
	asset := ingestFor(t, f, owner, "a.png")
	require.NoError(t, os.Remove(f.abs(t, asset.URL)))

	require.NoError(t, f.uc.RetireAsset(context.Background(), asset.ID))
	assert.Zero(t, f.repo.assetCount())
}

func TestRetireAsset_UnknownID(t *testing.T) {
	f := newFixture(t)
	owner := f.repo.addOwner(OwnerKindPost, "casa")
	asset := ingestFor(t, f, owner, "a.png")

	before, _, err := f.storage.Walk(context.Background())
	require.NoError(t, err)

	err = f.uc.RetireAsset(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrAssetNotFound)

	after, _, err := f.storage.Walk(context.Background())
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.FileExists(t, f.abs(t, asset.URL))
}

func TestRetireAsset_RemovalFailureKeepsRecord(t *testing.T) {
	f := newFixture(t)
	owner := f.repo.addOwner(OwnerKindPost, "casa")
	asset := ingestFor(t, f, owner, "a.png")

	uc := f.with(brokenRemoval{f.storage}, nil)
	err := uc.RetireAsset(context.Background(), asset.ID)
	assert.ErrorIs(t, err, ErrStorageIO)

	_, err = f.uc.GetAssetByID(context.Background(), asset.ID)
	assert.NoError(t, err, "record survives so the retirement can be retried")
	assert.FileExists(t, f.abs(t, asset.URL))
}

func TestRetireAsset_RecordDeleteFailure(t *testing.T) {
	f := newFixture(t)
	owner := f.repo.addOwner(OwnerKindPost, "casa")
	asset := ingestFor(t, f, owner, "a.png")
	f.repo.deleteErr = errors.New("deadlock detected")

	err := f.uc.RetireAsset(context.Background(), asset.ID)
	assert.ErrorIs(t, err, ErrPersistence)
}

func TestDeleteOwner(t *testing.T) {
	f := newFixture(t)
	owner := f.repo.addOwner(OwnerKindPost, "casa-grande")
	other := f.repo.addOwner(OwnerKindPost, "casa-chica")
	a := ingestFor(t, f, owner, "a.png")
	b := ingestFor(t, f, owner, "b.png")
	keep := ingestFor(t, f, other, "c.png")

	require.NoError(t, f.uc.DeleteOwner(context.Background(), OwnerKindPost, owner.ID))

	assert.NoFileExists(t, f.abs(t, a.URL))
	assert.NoFileExists(t, f.abs(t, b.URL))
	dir, _ := f.storage.ResolveDir("posts", "casa-grande")
	assert.NoDirExists(t, dir)

	_, err := f.repo.GetOwner(context.Background(), OwnerKindPost, owner.ID)
	assert.ErrorIs(t, err, ErrOwnerNotFound)

	assert.FileExists(t, f.abs(t, keep.URL))
	assert.Equal(t, 1, f.repo.assetCount())
}

func TestDeleteOwner_NoAssets(t *testing.T) {
	f := newFixture(t)
	owner := f.repo.addOwner(OwnerKindType, "venta")

	require.NoError(t, f.uc.DeleteOwner(context.Background(), OwnerKindType, owner.ID))
	_, err := f.repo.GetOwner(context.Background(), OwnerKindType, owner.ID)
	assert.ErrorIs(t, err, ErrOwnerNotFound)
}

func TestDeleteOwner_RetirementFailureKeepsOwner(t *testing.T) {
	f := newFixture(t)
	owner := f.repo.addOwner(OwnerKindPost, "casa")
	ingestFor(t, f, owner, "a.png")
	ingestFor(t, f, owner, "b.png")

	uc := f.with(brokenRemoval{f.storage}, nil)
	err := uc.DeleteOwner(context.Background(), OwnerKindPost, owner.ID)
	assert.ErrorIs(t, err, ErrStorageIO)

	_, err = f.repo.GetOwner(context.Background(), OwnerKindPost, owner.ID)
	assert.NoError(t, err)
	assert.Equal(t, 2, f.repo.assetCount())
}

func TestDeleteOwner_NotFound(t *testing.T) {
	f := newFixture(t)
	err := f.uc.DeleteOwner(context.Background(), OwnerKindCity, uuid.New())
	assert.ErrorIs(t, err, ErrOwnerNotFound)
}
