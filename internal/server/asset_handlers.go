package server

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/anuncia/anuncia/internal/config"
	"github.com/anuncia/anuncia/internal/usecase"
)

type Asset struct {
	ID        string           `json:"id"`
	OwnerID   string           `json:"owner_id,omitzero"`
	OwnerKind string           `json:"owner_kind,omitzero"`
	URL       string           `json:"url"`
	SizeBytes int64            `json:"size_bytes,omitzero"`
	Quality   int              `json:"quality,omitzero"`
	Colors    map[int][4]uint8 `json:"colors,omitempty"`
	CreatedAt string           `json:"created_at,omitzero"`
}

type UploadFailure struct {
	Index int    `json:"index"`
	File  string `json:"file"`
	Error string `json:"error"`
}

func toAsset(a usecase.Asset) Asset {
	res := Asset{
		ID:        a.ID.String(),
		OwnerID:   a.OwnerID.String(),
		OwnerKind: string(a.OwnerKind),
		URL:       "/" + a.URL,
		SizeBytes: a.SizeBytes,
		Quality:   a.Quality,
		CreatedAt: a.CreatedAt.Format(time.RFC3339),
	}
	if len(a.Colors) > 0 {
		// colors are informational, a bad palette never fails the response
		_ = json.Unmarshal(a.Colors, &res.Colors)
	}
	return res
}

type UploadAssetsRequest struct {
	Kind    string `param:"kind" validate:"required,oneof=post city category type"`
	OwnerID string `param:"owner_id" validate:"required,uuid"`
	Slug    string `form:"slug" validate:"required"`
}

// UploadAssets stores every file of the multipart "files" field for the
// owner. Files are ingested independently: the response lists what was
// stored and what failed. When nothing was stored the status is that of
// the first failure.
func (s *Server) UploadAssets(ctx echo.Context) error {
	var req UploadAssetsRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	}

	form, err := ctx.MultipartForm()
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	headers := form.File["files"]
	if len(headers) == 0 || len(headers) > config.MAX_UPLOAD_FILES {
		return ctx.JSON(http.StatusUnprocessableEntity, map[string]string{
			"error": fmt.Sprintf("between 1 and %d files are required", config.MAX_UPLOAD_FILES),
		})
	}

	files, err := s.spoolAll(headers)
	if err != nil {
		s.logger.ErrorContext(ctx.Request().Context(), "failed to spool upload", slog.String("err", err.Error()))
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	res := s.server.IngestAssets(ctx.Request().Context(), usecase.IngestAssetsInput{
		OwnerKind: usecase.OwnerKind(req.Kind),
		OwnerID:   uuid.MustParse(req.OwnerID),
		Slug:      req.Slug,
		Files:     files,
	})

	var failures []UploadFailure
	for _, f := range res.Failures {
		failures = append(failures, UploadFailure{Index: f.Index, File: f.File, Error: f.Err.Error()})
	}

	if len(res.Assets) == 0 && len(res.Failures) > 0 {
		return ctx.JSON(statusFor(res.Failures[0].Err), Res{
			Data:     []Asset{},
			Error:    res.Failures[0].Err.Error(),
			Message:  "no file was stored",
			Failures: failures,
		})
	}

	list := make([]Asset, 0, len(res.Assets))
	for _, a := range res.Assets {
		list = append(list, toAsset(a))
	}

	return ctx.JSON(http.StatusCreated, Res{
		Data:     list,
		Message:  fmt.Sprintf("%d of %d files stored", len(list), len(files)),
		Failures: failures,
	})
}

type ReplaceOwnerImageRequest struct {
	Kind    string `param:"kind" validate:"required,oneof=city category type"`
	OwnerID string `param:"owner_id" validate:"required,uuid"`
	Slug    string `form:"slug" validate:"required"`
}

// ReplaceOwnerImage swaps the image of a single-image owner for the
// uploaded "file".
func (s *Server) ReplaceOwnerImage(ctx echo.Context) error {
	var req ReplaceOwnerImageRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	}

	fh, err := ctx.FormFile("file")
	if err != nil {
		return ctx.JSON(http.StatusUnprocessableEntity, map[string]string{"error": "file is required"})
	}

	raw, err := s.spool(fh)
	if err != nil {
		s.logger.ErrorContext(ctx.Request().Context(), "failed to spool upload", slog.String("err", err.Error()))
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	asset, err := s.server.ReplaceOwnerImage(ctx.Request().Context(), usecase.IngestAssetInput{
		OwnerKind: usecase.OwnerKind(req.Kind),
		OwnerID:   uuid.MustParse(req.OwnerID),
		Slug:      req.Slug,
		File:      raw,
	})
	if err != nil {
		return errorJSON(ctx, err)
	}

	return ctx.JSON(http.StatusOK, Res{Data: toAsset(asset), Message: "image replaced"})
}

type ListAssetsRequest struct {
	OwnerID string `query:"owner_id" validate:"omitempty,uuid"`
	Kind    string `query:"kind" validate:"omitempty,oneof=post city category type"`
	Skip    int    `query:"skip" validate:"gte=0"`
	Limit   int    `query:"limit" validate:"omitempty,gte=1,lte=100"`
}

func (s *Server) ListAssets(ctx echo.Context) error {
	var req ListAssetsRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	}
	if req.Limit == 0 {
		req.Limit = 20
	}

	opt := usecase.ListAssetsOption{
		Skip:      req.Skip,
		Limit:     req.Limit,
		OwnerKind: usecase.OwnerKind(req.Kind),
	}
	if req.OwnerID != "" {
		opt.OwnerID = uuid.MustParse(req.OwnerID)
	}

	assets, total, err := s.server.ListAssets(ctx.Request().Context(), opt)
	if err != nil {
		return errorJSON(ctx, err)
	}

	list := make([]Asset, 0, len(assets))
	for _, a := range assets {
		list = append(list, toAsset(a))
	}

	return ctx.JSON(http.StatusOK, Res{
		Data: list,
		Meta: &Meta{
			Total: total,
			Skip:  req.Skip,
			Limit: req.Limit,
		},
	})
}

type AssetIDRequest struct {
	ID string `param:"id" validate:"required,uuid"`
}

func (s *Server) GetAssetByID(ctx echo.Context) error {
	var req AssetIDRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	}

	asset, err := s.server.GetAssetByID(ctx.Request().Context(), uuid.MustParse(req.ID))
	if err != nil {
		return errorJSON(ctx, err)
	}
	return ctx.JSON(http.StatusOK, Res{Data: toAsset(asset)})
}

func (s *Server) DeleteAsset(ctx echo.Context) error {
	var req AssetIDRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	}

	if err := s.server.RetireAsset(ctx.Request().Context(), uuid.MustParse(req.ID)); err != nil {
		return errorJSON(ctx, err)
	}
	return ctx.JSON(http.StatusOK, Res{Message: "asset deleted"})
}

func (s *Server) RequestStorageAudit(ctx echo.Context) error {
	jobID, err := s.server.RequestStorageAudit(ctx.Request().Context())
	if err != nil {
		return errorJSON(ctx, err)
	}
	return ctx.JSON(http.StatusAccepted, Res{
		Data:    map[string]string{"job_id": jobID.String()},
		Message: "storage audit enqueued",
	})
}

// spoolAll copies every uploaded part to the temp dir. On failure the
// files already written are removed.
func (s *Server) spoolAll(headers []*multipart.FileHeader) ([]usecase.RawFile, error) {
	files := make([]usecase.RawFile, 0, len(headers))
	for _, fh := range headers {
		raw, err := s.spool(fh)
		if err != nil {
			for _, f := range files {
				os.Remove(f.Path)
			}
			return nil, err
		}
		files = append(files, raw)
	}
	return files, nil
}

func (s *Server) spool(fh *multipart.FileHeader) (usecase.RawFile, error) {
	src, err := fh.Open()
	if err != nil {
		return usecase.RawFile{}, fmt.Errorf("open %q: %w", fh.Filename, err)
	}
	defer src.Close()

	dst, err := os.CreateTemp(s.cfg.Storage.TempDir, "upload-*")
	if err != nil {
		return usecase.RawFile{}, fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return usecase.RawFile{}, fmt.Errorf("copy %q: %w", fh.Filename, err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return usecase.RawFile{}, fmt.Errorf("close %q: %w", fh.Filename, err)
	}

	return usecase.RawFile{Path: dst.Name(), Name: fh.Filename}, nil
}
