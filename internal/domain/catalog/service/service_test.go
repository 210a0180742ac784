package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BornStar-hub/Makopo-Industrial-Price-Adjuster/internal/domain/catalog"
	"github.com/BornStar-hub/Makopo-Industrial-Price-Adjuster/internal/domain/catalog/catalogtest"
	"github.com/BornStar-hub/Makopo-Industrial-Price-Adjuster/internal/domain/catalog/parser"
	"github.com/BornStar-hub/Makopo-Industrial-Price-Adjuster/pkg/metrics"
	"github.com/BornStar-hub/Makopo-Industrial-Price-Adjuster/pkg/storage"
)

func newTestService() (*CatalogService, *metrics.Metrics) {
	m := metrics.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewCatalogService(nil, logger).
		WithStorage(storage.NewMemoryStorage()).
		WithMetrics(m)
	return svc, m
}

func TestCatalogService_Process(t *testing.T) {
	ctx := context.Background()

	t.Run("csv with default markup", func(t *testing.T) {
		svc, m := newTestService()

		result, err := svc.Process(ctx, "catalog.csv", []byte("Item,Price\nWidget,100\n"), catalog.DefaultMarkupPercent)

		require.NoError(t, err)
		assert.Equal(t, parser.FormatCSV, result.Format)
		assert.Equal(t, []string{"Item", "Price"}, result.Original.ColumnNames())
		assert.Equal(t, []string{"Item", "Price", "New Price"}, result.Adjusted.ColumnNames())
		assert.Equal(t, "Item,Price,New Price\nWidget,100,125.0\n", string(result.CSV))

		assert.Equal(t, 1.0, testutil.ToFloat64(m.Uploads.WithLabelValues("csv", metrics.OutcomeSuccess)))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.Adjustments.WithLabelValues(metrics.OutcomeSuccess)))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.RowsAdjusted))
	})

	t.Run("xlsx with custom markup", func(t *testing.T) {
		svc, _ := newTestService()
		data, err := catalogtest.XLSX([]string{"Item", "Price"}, [][]string{{"A", "10"}, {"B", "20.5"}})
		require.NoError(t, err)

		result, err := svc.Process(ctx, "catalog.xlsx", data, 20)

		require.NoError(t, err)
		assert.Equal(t, "Item,Price,New Price\nA,10,12.0\nB,20.5,24.6\n", string(result.CSV))
	})

	t.Run("missing price column", func(t *testing.T) {
		svc, m := newTestService()

		result, err := svc.Process(ctx, "catalog.csv", []byte("Item,Cost\nWidget,100\n"), catalog.DefaultMarkupPercent)

		assert.Nil(t, result)
		assert.ErrorIs(t, err, catalog.ErrMissingColumn)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.Adjustments.WithLabelValues(metrics.OutcomeFailure)))
	})

	t.Run("pdf without table", func(t *testing.T) {
		svc, m := newTestService()
		data := catalogtest.PDF(catalogtest.Page{{"Nothing to see here"}})

		_, err := svc.Process(ctx, "catalog.pdf", data, catalog.DefaultMarkupPercent)

		assert.ErrorIs(t, err, catalog.ErrExtractionFailure)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.Uploads.WithLabelValues("pdf", metrics.OutcomeFailure)))
	})

	t.Run("unsupported extension", func(t *testing.T) {
		svc, m := newTestService()

		_, err := svc.Process(ctx, "catalog.json", []byte("{}"), catalog.DefaultMarkupPercent)

		assert.ErrorIs(t, err, catalog.ErrUnsupportedFormat)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.Uploads.WithLabelValues("unknown", metrics.OutcomeFailure)))
	})
}

func TestCatalogService_Exports(t *testing.T) {
	ctx := context.Background()
	svc, m := newTestService()
	session := uuid.New()

	result, err := svc.Process(ctx, "catalog.csv", []byte("Item,Price\nWidget,100\n"), catalog.DefaultMarkupPercent)
	require.NoError(t, err)

	info, err := svc.SaveExport(ctx, session, result)
	require.NoError(t, err)
	assert.Equal(t, ExportFileName, info.Name)
	assert.Equal(t, ExportContentType, info.ContentType)

	t.Run("owner can open", func(t *testing.T) {
		rc, got, err := svc.OpenExport(ctx, session, info.ID)
		require.NoError(t, err)
		defer rc.Close()

		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, result.CSV, data)
		assert.Equal(t, info.ID, got.ID)
	})

	t.Run("other session cannot open", func(t *testing.T) {
		_, _, err := svc.OpenExport(ctx, uuid.New(), info.ID)
		assert.ErrorIs(t, err, ErrArtifactNotFound)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.Downloads.WithLabelValues(metrics.OutcomeFailure)))
	})

	t.Run("sweep removes expired exports", func(t *testing.T) {
		removed, err := svc.SweepExports(ctx, 15*time.Minute)
		require.NoError(t, err)
		assert.Equal(t, 0, removed)

		removed, err = svc.SweepExports(ctx, -time.Minute)
		require.NoError(t, err)
		assert.Equal(t, 1, removed)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.Sweeps))

		_, _, err = svc.OpenExport(ctx, session, info.ID)
		assert.ErrorIs(t, err, ErrArtifactNotFound)
	})
}

func TestCatalogService_WithoutStorage(t *testing.T) {
	svc := NewCatalogService(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := svc.SaveExport(context.Background(), uuid.New(), &Result{})
	assert.Error(t, err)

	_, _, err = svc.OpenExport(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrArtifactNotFound)

	removed, err := svc.SweepExports(context.Background(), time.Minute)
	assert.NoError(t, err)
	assert.Zero(t, removed)
}

func BenchmarkCatalogService_Process(b *testing.B) {
	svc := NewCatalogService(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	data, err := parser.MarshalCSV(catalogtest.NewGeneratorWithSeed(1).Catalog(1000))
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := svc.Process(context.Background(), "catalog.csv", data, catalog.DefaultMarkupPercent); err != nil {
			b.Fatal(err)
		}
	}
}
