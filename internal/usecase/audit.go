package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

type AuditReport struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	FilesScanned   int `json:"files_scanned"`
	RecordsScanned int `json:"records_scanned"`

	// OrphanFiles are files under the asset root with no record.
	OrphanFiles []string `json:"orphan_files"`
	// MissingFiles are recorded URLs whose file is gone.
	MissingFiles []string `json:"missing_files"`
	// EmptyDirs are owner directories holding no files.
	EmptyDirs []string `json:"empty_dirs"`
}

func (r AuditReport) Clean() bool {
	return len(r.OrphanFiles) == 0 && len(r.MissingFiles) == 0 && len(r.EmptyDirs) == 0
}

// AuditStorage compares the asset tree with the recorded assets. It only
// reports; nothing is removed or rewritten.
func (u Usecase) AuditStorage(ctx context.Context) (AuditReport, error) {
	ctx, span := u.inst.start(ctx, "usecase.AuditStorage")
	defer span.End()

	report := AuditReport{StartedAt: time.Now()}

	files, emptyDirs, err := u.fileStorageProvider.Walk(ctx)
	if err != nil {
		return AuditReport{}, fmt.Errorf("%w: %w", ErrStorageIO, err)
	}

	urls, err := u.repo.ListAssetURLs(ctx)
	if err != nil {
		return AuditReport{}, fmt.Errorf("%w: list asset urls: %w", ErrPersistence, err)
	}

	onDisk := make(map[string]struct{}, len(files))
	for _, f := range files {
		onDisk[f] = struct{}{}
	}
	recorded := make(map[string]struct{}, len(urls))
	for _, raw := range urls {
		url := strings.TrimPrefix(raw, "/")
		recorded[url] = struct{}{}
		if _, ok := onDisk[url]; !ok {
			report.MissingFiles = append(report.MissingFiles, url)
		}
	}
	for _, f := range files {
		if _, ok := recorded[f]; !ok {
			report.OrphanFiles = append(report.OrphanFiles, f)
		}
	}

	slices.Sort(report.OrphanFiles)
	slices.Sort(report.MissingFiles)
	report.EmptyDirs = slices.Sorted(slices.Values(emptyDirs))
	report.FilesScanned = len(files)
	report.RecordsScanned = len(urls)
	report.FinishedAt = time.Now()

	span.SetAttributes(
		attribute.Int("audit.orphans", len(report.OrphanFiles)),
		attribute.Int("audit.missing", len(report.MissingFiles)),
		attribute.Int("audit.empty_dirs", len(report.EmptyDirs)),
	)

	level := slog.LevelInfo
	if !report.Clean() {
		level = slog.LevelWarn
	}
	u.logger.Log(ctx, level, "storage audit finished",
		slog.Int("files", report.FilesScanned),
		slog.Int("records", report.RecordsScanned),
		slog.Int("orphans", len(report.OrphanFiles)),
		slog.Int("missing", len(report.MissingFiles)),
		slog.Int("empty_dirs", len(report.EmptyDirs)),
		slog.Duration("took", report.FinishedAt.Sub(report.StartedAt)),
	)
	return report, nil
}
