// Package service runs the catalog pipeline: load an upload, apply the markup,
// serialize the result and keep it for download.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/BornStar-hub/Makopo-Industrial-Price-Adjuster/internal/domain/catalog"
	"github.com/BornStar-hub/Makopo-Industrial-Price-Adjuster/internal/domain/catalog/parser"
	"github.com/BornStar-hub/Makopo-Industrial-Price-Adjuster/pkg/metrics"
	"github.com/BornStar-hub/Makopo-Industrial-Price-Adjuster/pkg/storage"
)

// ExportFileName is the name offered for the updated catalog download
const ExportFileName = "updated_vendor_catalog.csv"

// ExportContentType is the media type of the updated catalog
const ExportContentType = "text/csv"

// ErrArtifactNotFound is returned when a download does not exist for the session
var ErrArtifactNotFound = errors.New("updated catalog not found or expired")

// Result holds everything produced by one pass over an upload
type Result struct {
	FileName string
	Format   parser.Format
	Original *catalog.Table
	Adjusted *catalog.Table
	CSV      []byte
	Markup   float64
}

// CatalogService orchestrates loading, adjusting and exporting catalogs
type CatalogService struct {
	loader  *parser.Loader
	store   storage.Storage
	metrics *metrics.Metrics
	tracer  trace.Tracer
	logger  *slog.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(loader *parser.Loader, logger *slog.Logger) *CatalogService {
	if loader == nil {
		loader = parser.NewLoader(parser.DefaultConfig())
	}
	return &CatalogService{
		loader: loader,
		tracer: otel.Tracer("catalog"),
		logger: logger,
	}
}

// WithStorage enables keeping exports for later download
func (s *CatalogService) WithStorage(store storage.Storage) *CatalogService {
	s.store = store
	return s
}

// WithMetrics records pipeline metrics on m
func (s *CatalogService) WithMetrics(m *metrics.Metrics) *CatalogService {
	s.metrics = m
	return s
}

// Load decodes an uploaded file according to its extension.
func (s *CatalogService) Load(ctx context.Context, fileName string, data []byte) (*catalog.Table, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.Load", trace.WithAttributes(
		attribute.String("file.name", fileName),
		attribute.Int("file.size", len(data)),
	))
	defer span.End()

	format, err := parser.DetectFormat(fileName)
	if err != nil {
		s.recordUpload("unknown", err)
		endSpan(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.String("file.format", string(format)))

	start := time.Now()
	table, err := s.loader.LoadFormat(format, data)
	elapsed := time.Since(start)

	if s.metrics != nil {
		s.metrics.LoadDuration.WithLabelValues(string(format)).Observe(elapsed.Seconds())
	}
	s.recordUpload(string(format), err)
	endSpan(span, err)

	if err != nil {
		s.logger.WarnContext(ctx, "failed to load catalog",
			slog.String("file", fileName),
			slog.String("format", string(format)),
			slog.Any("error", err),
		)
		return nil, err
	}

	s.logger.InfoContext(ctx, "catalog loaded",
		slog.String("file", fileName),
		slog.String("format", string(format)),
		slog.Int("rows", table.Len()),
		slog.Int("columns", len(table.Columns)),
		slog.Duration("duration", elapsed),
	)
	return table, nil
}

// Adjust applies the markup percentage to the table's Price column.
func (s *CatalogService) Adjust(ctx context.Context, table *catalog.Table, percentage float64) (*catalog.Table, error) {
	_, span := s.tracer.Start(ctx, "catalog.Adjust", trace.WithAttributes(
		attribute.Float64("markup.percent", percentage),
		attribute.Int("table.rows", table.Len()),
	))
	defer span.End()

	adjusted, err := catalog.Adjust(table, percentage)
	endSpan(span, err)
	if s.metrics != nil {
		s.metrics.Adjustments.WithLabelValues(metrics.Outcome(err)).Inc()
	}
	if err != nil {
		s.logger.WarnContext(ctx, "failed to adjust prices", slog.Any("error", err))
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RowsAdjusted.Add(float64(adjusted.Len()))
	}
	return adjusted, nil
}

// Export serializes the table as CSV
func (s *CatalogService) Export(ctx context.Context, table *catalog.Table) ([]byte, error) {
	_, span := s.tracer.Start(ctx, "catalog.Export")
	defer span.End()

	data, err := parser.MarshalCSV(table)
	endSpan(span, err)
	if err != nil {
		return nil, fmt.Errorf("failed to export catalog: %w", err)
	}
	return data, nil
}

// Process runs Load, Adjust and Export in a single pass. The first failure
// aborts the pass.
func (s *CatalogService) Process(ctx context.Context, fileName string, data []byte, percentage float64) (*Result, error) {
	original, err := s.Load(ctx, fileName, data)
	if err != nil {
		return nil, err
	}

	adjusted, err := s.Adjust(ctx, original, percentage)
	if err != nil {
		return nil, err
	}

	csv, err := s.Export(ctx, adjusted)
	if err != nil {
		return nil, err
	}

	format, _ := parser.DetectFormat(fileName)
	return &Result{
		FileName: fileName,
		Format:   format,
		Original: original,
		Adjusted: adjusted,
		CSV:      csv,
		Markup:   percentage,
	}, nil
}

// SaveExport keeps the result's CSV for the session and returns its metadata.
func (s *CatalogService) SaveExport(ctx context.Context, sessionID uuid.UUID, result *Result) (*storage.FileInfo, error) {
	if s.store == nil {
		return nil, errors.New("artifact storage is not configured")
	}

	info, err := s.store.Upload(ctx, sessionID, ExportFileName, ExportContentType, bytes.NewReader(result.CSV))
	if err != nil {
		return nil, fmt.Errorf("failed to store export: %w", err)
	}

	s.logger.DebugContext(ctx, "export stored",
		slog.String("session_id", sessionID.String()),
		slog.String("file_id", info.ID.String()),
		slog.Int64("size", info.Size),
	)
	return info, nil
}

// OpenExport returns the stored CSV for the session. Files of other sessions
// and expired files are reported as ErrArtifactNotFound.
func (s *CatalogService) OpenExport(ctx context.Context, sessionID, fileID uuid.UUID) (io.ReadCloser, *storage.FileInfo, error) {
	if s.store == nil {
		return nil, nil, ErrArtifactNotFound
	}

	rc, info, err := s.store.Download(ctx, sessionID, fileID)
	if s.metrics != nil {
		s.metrics.Downloads.WithLabelValues(metrics.Outcome(err)).Inc()
	}
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, ErrArtifactNotFound
		}
		return nil, nil, fmt.Errorf("failed to open export: %w", err)
	}
	return rc, info, nil
}

// SweepExports deletes stored exports older than ttl.
func (s *CatalogService) SweepExports(ctx context.Context, ttl time.Duration) (int, error) {
	if s.store == nil {
		return 0, nil
	}

	removed, err := s.store.Sweep(ctx, time.Now().Add(-ttl))
	if s.metrics != nil && removed > 0 {
		s.metrics.Sweeps.Add(float64(removed))
	}
	if err != nil {
		return removed, fmt.Errorf("failed to sweep exports: %w", err)
	}
	return removed, nil
}

func (s *CatalogService) recordUpload(format string, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.Uploads.WithLabelValues(format, metrics.Outcome(err)).Inc()
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}
