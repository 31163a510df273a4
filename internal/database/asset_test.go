package database

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/anuncia/anuncia/internal/usecase"
)

func newMockService(t *testing.T) (*service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{
		Logger:                 logger.Discard,
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	svc, err := New(gormDB, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return svc, mock
}

var assetColumns = []string{"id", "owner_id", "owner_kind", "url", "size_bytes", "quality", "colors", "created_at"}

func TestCreateAsset(t *testing.T) {
	svc, mock := newMockService(t)

	id, owner := uuid.New(), uuid.New()
	now := time.Now()
	url := "uploads/images/posts/casa/1700000000000-1.jpg"

	mock.ExpectQuery(`INSERT INTO "assets"`).
		WithArgs(owner, "post", url, int64(2048), 85, sqlmock.AnyArg(), sqlmock.AnyArg(), id).
		WillReturnRows(sqlmock.NewRows(assetColumns).
			AddRow(id.String(), owner.String(), "post", url, 2048, 85, []byte(`{"0":[1,2,3,255]}`), now))

	asset, err := svc.CreateAsset(context.Background(), usecase.Asset{
		ID:        id,
		OwnerID:   owner,
		OwnerKind: usecase.OwnerKindPost,
		URL:       url,
		SizeBytes: 2048,
		Quality:   85,
		Colors:    []byte(`{"0":[1,2,3,255]}`),
	})
	require.NoError(t, err)
	assert.Equal(t, id, asset.ID)
	assert.Equal(t, usecase.OwnerKindPost, asset.OwnerKind)
	assert.Equal(t, url, asset.URL)
	assert.JSONEq(t, `{"0":[1,2,3,255]}`, string(asset.Colors))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAssetByID(t *testing.T) {
	svc, mock := newMockService(t)
	id := uuid.New()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT \* FROM "assets" WHERE id = \$1`).
			WillReturnRows(sqlmock.NewRows(assetColumns).
				AddRow(id.String(), uuid.NewString(), "city", "uploads/images/cities/lima/1-1.jpg", 100, 75, nil, time.Now()))

		asset, err := svc.GetAssetByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, id, asset.ID)
		assert.Equal(t, usecase.OwnerKindCity, asset.OwnerKind)
		assert.Equal(t, 75, asset.Quality)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT \* FROM "assets" WHERE id = \$1`).
			WillReturnRows(sqlmock.NewRows(assetColumns))

		_, err := svc.GetAssetByID(context.Background(), id)
		assert.ErrorIs(t, err, usecase.ErrAssetNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database error", func(t *testing.T) {
		mock.ExpectQuery(`SELECT \* FROM "assets" WHERE id = \$1`).
			WillReturnError(errors.New("connection refused"))

		_, err := svc.GetAssetByID(context.Background(), id)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, usecase.ErrAssetNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestListAssets(t *testing.T) {
	svc, mock := newMockService(t)
	owner := uuid.New()

	mock.ExpectQuery(`SELECT count\(\*\) FROM "assets" WHERE owner_id = \$1 AND owner_kind = \$2`).
		WithArgs(owner, "post").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(`SELECT \* FROM "assets" WHERE owner_id = \$1 AND owner_kind = \$2 ORDER BY created_at ASC`).
		WillReturnRows(sqlmock.NewRows(assetColumns).
			AddRow(uuid.NewString(), owner.String(), "post", "uploads/images/posts/casa/1-1.jpg", 10, 85, nil, time.Now()).
			AddRow(uuid.NewString(), owner.String(), "post", "uploads/images/posts/casa/2-2.jpg", 20, 85, nil, time.Now()))

	assets, total, err := svc.ListAssets(context.Background(), usecase.ListAssetsOption{
		OwnerID:   owner,
		OwnerKind: usecase.OwnerKindPost,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, assets, 2)
	assert.Equal(t, "uploads/images/posts/casa/1-1.jpg", assets[0].URL)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListAssetURLs(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectQuery(`SELECT "url" FROM "assets"`).
		WillReturnRows(sqlmock.NewRows([]string{"url"}).
			AddRow("uploads/images/posts/a/1-1.jpg").
			AddRow("uploads/images/types/b/2-2.jpg"))

	urls, err := svc.ListAssetURLs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"uploads/images/posts/a/1-1.jpg", "uploads/images/types/b/2-2.jpg"}, urls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteAsset(t *testing.T) {
	svc, mock := newMockService(t)
	id := uuid.New()

	t.Run("deleted", func(t *testing.T) {
		mock.ExpectExec(`DELETE FROM "assets" WHERE id = \$1`).
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, svc.DeleteAsset(context.Background(), id))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already gone", func(t *testing.T) {
		mock.ExpectExec(`DELETE FROM "assets" WHERE id = \$1`).
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, svc.DeleteAsset(context.Background(), id), usecase.ErrAssetNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
