package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/anuncia/anuncia/internal/config"
	"github.com/anuncia/anuncia/internal/usecase"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) Health() map[string]string {
	args := m.Called()
	return args.Get(0).(map[string]string)
}

func (m *mockService) Close() error {
	return m.Called().Error(0)
}

func (m *mockService) IngestAssets(ctx context.Context, in usecase.IngestAssetsInput) usecase.BatchResult {
	args := m.Called(ctx, in)
	return args.Get(0).(usecase.BatchResult)
}

func (m *mockService) ReplaceOwnerImage(ctx context.Context, in usecase.IngestAssetInput) (usecase.Asset, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(usecase.Asset), args.Error(1)
}

func (m *mockService) ListAssets(ctx context.Context, opt usecase.ListAssetsOption) ([]usecase.Asset, int, error) {
	args := m.Called(ctx, opt)
	return args.Get(0).([]usecase.Asset), args.Int(1), args.Error(2)
}

func (m *mockService) GetAssetByID(ctx context.Context, id uuid.UUID) (usecase.Asset, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(usecase.Asset), args.Error(1)
}

func (m *mockService) RetireAsset(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockService) DeleteOwner(ctx context.Context, kind usecase.OwnerKind, id uuid.UUID) error {
	return m.Called(ctx, kind, id).Error(0)
}

func (m *mockService) RequestStorageAudit(ctx context.Context) (uuid.UUID, error) {
	args := m.Called(ctx)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *mockService) GetJobByID(ctx context.Context, id uuid.UUID) (usecase.Job, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(usecase.Job), args.Error(1)
}

func testConfig(t *testing.T) config.App {
	t.Helper()
	var cfg config.App
	cfg.Storage.BaseDir = t.TempDir()
	cfg.Storage.AssetRoot = "uploads"
	cfg.Storage.TempDir = t.TempDir()
	cfg.Storage.MaxUploadBytes = 1 << 20
	cfg.OTel.ServiceName = "anuncia-test"
	return cfg
}

func newTestHandler(svc Service, cfg config.App) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(svc, cfg, logger, nil).RegisterRoutes()
}

type part struct {
	name    string
	content string
}

func multipartBody(t *testing.T, field string, files []part, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := new(bytes.Buffer)
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		fw, err := w.CreateFormFile(field, f.name)
		require.NoError(t, err)
		_, err = io.WriteString(fw, f.content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func do(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type response struct {
	Data     json.RawMessage `json:"data"`
	Error    string          `json:"error"`
	Message  string          `json:"message"`
	Meta     *Meta           `json:"meta"`
	Failures []UploadFailure `json:"failures"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) response {
	t.Helper()
	var res response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res
}
