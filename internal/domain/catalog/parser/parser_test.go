package parser

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BornStar-hub/Makopo-Industrial-Price-Adjuster/internal/domain/catalog"
	"github.com/BornStar-hub/Makopo-Industrial-Price-Adjuster/internal/domain/catalog/catalogtest"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		want     Format
		wantErr  bool
	}{
		{"csv", "catalog.csv", FormatCSV, false},
		{"xlsx", "catalog.xlsx", FormatXLSX, false},
		{"pdf", "catalog.pdf", FormatPDF, false},
		{"upper case", "CATALOG.PDF", FormatPDF, false},
		{"path", "/tmp/uploads/vendor.prices.csv", FormatCSV, false},
		{"legacy excel", "catalog.xls", "", true},
		{"text", "catalog.txt", "", true},
		{"no extension", "catalog", "", true},
		{"suffix without dot", "catalogcsv", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFormat(tt.fileName)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, catalog.ErrUnsupportedFormat))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	table, err := Load("catalog.docx", []byte("Item,Price\nWidget,100\n"))

	assert.Nil(t, table)
	assert.ErrorIs(t, err, catalog.ErrUnsupportedFormat)
}

func TestParser_Parse(t *testing.T) {
	t.Run("parses standard CSV", func(t *testing.T) {
		csv := "Item,Price\nWidget,100\n"

		table, err := Load("catalog.csv", []byte(csv))

		require.NoError(t, err)
		assert.Equal(t, []string{"Item", "Price"}, table.ColumnNames())
		require.Equal(t, 1, table.Len())
		assert.Equal(t, catalog.Row{"Widget", "100"}, table.Rows[0])
		assert.Equal(t, catalog.ColumnString, table.Columns[0].Type)
		assert.Equal(t, catalog.ColumnNumber, table.Columns[1].Type)
	})

	t.Run("handles quotes, BOM and blank lines", func(t *testing.T) {
		csv := "\xEF\xBB\xBFItem,Price,Notes\n\n\"Bolt, M8\",0.25,\"says \"\"hi\"\"\"\n\nNut,0.10,\n"

		table, err := Load("catalog.csv", []byte(csv))

		require.NoError(t, err)
		assert.Equal(t, []string{"Item", "Price", "Notes"}, table.ColumnNames())
		require.Equal(t, 2, table.Len())
		assert.Equal(t, catalog.Row{"Bolt, M8", "0.25", `says "hi"`}, table.Rows[0])
		assert.Equal(t, catalog.Row{"Nut", "0.10", ""}, table.Rows[1])
	})

	t.Run("pads short records", func(t *testing.T) {
		table, err := Load("catalog.csv", []byte("Item,Price,Notes\nWidget,100\n"))

		require.NoError(t, err)
		assert.Equal(t, catalog.Row{"Widget", "100", ""}, table.Rows[0])
	})

	t.Run("rejects records wider than the header", func(t *testing.T) {
		_, err := Load("catalog.csv", []byte("Item,Price\nWidget,100,extra\n"))

		assert.ErrorIs(t, err, catalog.ErrMalformedFile)
		assert.Contains(t, err.Error(), "row 1 has 3 fields")
	})

	t.Run("decodes Latin-1", func(t *testing.T) {
		table, err := Load("catalog.csv", []byte("Item,Price\nCaf\xe9,3\n"))

		require.NoError(t, err)
		assert.Equal(t, "Café", table.Rows[0][0])
	})

	t.Run("renames blank and duplicate headers", func(t *testing.T) {
		table, err := Load("catalog.csv", []byte(",Price,Price\n1,2,3\n"))

		require.NoError(t, err)
		assert.Equal(t, []string{"Unnamed: 0", "Price", "Price.1"}, table.ColumnNames())
	})

	t.Run("header whitespace is kept", func(t *testing.T) {
		table, err := Load("catalog.csv", []byte("Item, Price\nWidget,100\n"))
		require.NoError(t, err)
		assert.Equal(t, []string{"Item", " Price"}, table.ColumnNames())

		_, err = catalog.Adjust(table, catalog.DefaultMarkupPercent)

		assert.ErrorIs(t, err, catalog.ErrMissingColumn)
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := Load("catalog.csv", nil)

		assert.ErrorIs(t, err, catalog.ErrEmptyTable)
	})

	t.Run("header only", func(t *testing.T) {
		table, err := Load("catalog.csv", []byte("Item,Price\n"))

		require.NoError(t, err)
		assert.Equal(t, 0, table.Len())
		assert.Equal(t, catalog.ColumnString, table.Columns[1].Type)
	})

	t.Run("custom delimiter", func(t *testing.T) {
		config := DefaultConfig()
		config.Delimiter = ';'

		table, err := NewLoader(config).Load("catalog.csv", []byte("Item;Price\nWidget;100\n"))

		require.NoError(t, err)
		assert.Equal(t, []string{"Item", "Price"}, table.ColumnNames())
	})
}

func TestExcelParser_ParseExcel(t *testing.T) {
	t.Run("reads numeric cells unformatted", func(t *testing.T) {
		data, err := catalogtest.XLSX([]string{"Item", "Price"}, [][]string{{"A", "10"}, {"B", "20.5"}})
		require.NoError(t, err)

		table, err := Load("catalog.xlsx", data)

		require.NoError(t, err)
		assert.Equal(t, []string{"Item", "Price"}, table.ColumnNames())
		assert.Equal(t, []catalog.Row{{"A", "10"}, {"B", "20.5"}}, table.Rows)
		assert.Equal(t, catalog.ColumnNumber, table.Columns[1].Type)
	})

	t.Run("uses the first sheet only", func(t *testing.T) {
		data, err := catalogtest.XLSX([]string{"Item", "Price"}, [][]string{{"A", "1"}}, "Other")
		require.NoError(t, err)

		table, err := Load("catalog.xlsx", data)

		require.NoError(t, err)
		assert.Equal(t, []string{"Item", "Price"}, table.ColumnNames())
	})

	t.Run("pads short rows and names extra columns", func(t *testing.T) {
		data, err := catalogtest.XLSX([]string{"Item", "Price"}, [][]string{{"A"}, {"B", "2", "note"}})
		require.NoError(t, err)

		table, err := Load("catalog.xlsx", data)

		require.NoError(t, err)
		assert.Equal(t, []string{"Item", "Price", "Unnamed: 2"}, table.ColumnNames())
		assert.Equal(t, catalog.Row{"A", "", ""}, table.Rows[0])
		assert.Equal(t, catalog.Row{"B", "2", "note"}, table.Rows[1])
	})

	t.Run("rejects non-workbook bytes", func(t *testing.T) {
		_, err := Load("catalog.xlsx", []byte("Item,Price\n"))

		assert.ErrorIs(t, err, catalog.ErrMalformedFile)
		assert.Contains(t, err.Error(), "failed to open Excel file")
	})

	t.Run("empty sheet", func(t *testing.T) {
		data, err := catalogtest.XLSX(nil, nil)
		require.NoError(t, err)

		_, err = Load("catalog.xlsx", data)

		assert.ErrorIs(t, err, catalog.ErrEmptyTable)
	})
}

func TestPDFParser_ParsePDF(t *testing.T) {
	t.Run("extracts first table on first page", func(t *testing.T) {
		data := catalogtest.PDF(catalogtest.Page{
			{"Vendor Price List"},
			{},
			{"Item", "Price"},
			{"Widget", "100"},
			{"Blue Gadget", "20.5"},
			{},
			{"Prices valid until further notice"},
		})

		table, err := Load("catalog.pdf", data)

		require.NoError(t, err)
		assert.Equal(t, []string{"Item", "Price"}, table.ColumnNames())
		assert.Equal(t, []catalog.Row{{"Widget", "100"}, {"Blue Gadget", "20.5"}}, table.Rows)
		assert.Equal(t, catalog.ColumnNumber, table.Columns[1].Type)
	})

	t.Run("places missing cells by position", func(t *testing.T) {
		data := catalogtest.PDF(catalogtest.Page{
			{"SKU", "Item", "Price"},
			{"S-1", "Bolt", "1.5"},
			{"S-2", "", "2"},
		})

		table, err := Load("catalog.pdf", data)

		require.NoError(t, err)
		assert.Equal(t, []catalog.Row{{"S-1", "Bolt", "1.5"}, {"S-2", "", "2"}}, table.Rows)
	})

	t.Run("only the first region is read", func(t *testing.T) {
		data := catalogtest.PDF(catalogtest.Page{
			{"Item", "Price"},
			{"A", "1"},
			{"Totals"},
			{"Region", "Sum"},
			{"B", "2"},
		})

		table, err := Load("catalog.pdf", data)

		require.NoError(t, err)
		assert.Equal(t, []string{"Item", "Price"}, table.ColumnNames())
		assert.Equal(t, 1, table.Len())
	})

	t.Run("skips a title line directly above the table", func(t *testing.T) {
		data := catalogtest.PDF(catalogtest.Page{
			{"Makopo Vendor List", "", "Page 1"},
			{"Item", "Price"},
			{"Widget", "100"},
		})

		table, err := Load("catalog.pdf", data)

		require.NoError(t, err)
		assert.Equal(t, []string{"Item", "Price"}, table.ColumnNames())
		assert.Equal(t, []catalog.Row{{"Widget", "100"}}, table.Rows)

		adjusted, err := catalog.Adjust(table, catalog.DefaultMarkupPercent)
		require.NoError(t, err)
		assert.Equal(t, catalog.Row{"Widget", "100", "125.0"}, adjusted.Rows[0])
	})

	t.Run("a blank gap separates a heading row from the table", func(t *testing.T) {
		data := catalogtest.PDF(catalogtest.Page{
			{"Vendor", "Makopo"},
			{},
			{"Item", "Price"},
			{"Widget", "100"},
		})

		table, err := Load("catalog.pdf", data)

		require.NoError(t, err)
		assert.Equal(t, []string{"Item", "Price"}, table.ColumnNames())
		assert.Equal(t, 1, table.Len())
	})

	t.Run("a blank gap ends the table", func(t *testing.T) {
		data := catalogtest.PDF(catalogtest.Page{
			{"Item", "Price"},
			{"A", "1"},
			{"B", "2"},
			{},
			{"Subtotal", "3"},
		})

		table, err := Load("catalog.pdf", data)

		require.NoError(t, err)
		assert.Equal(t, []catalog.Row{{"A", "1"}, {"B", "2"}}, table.Rows)
	})

	t.Run("no table on first page", func(t *testing.T) {
		data := catalogtest.PDF(catalogtest.Page{
			{"Our catalog is attached on the next page."},
			{"Thank you for your business."},
		})

		table, err := Load("catalog.pdf", data)

		assert.Nil(t, table)
		assert.ErrorIs(t, err, catalog.ErrExtractionFailure)
	})

	t.Run("table on a later page is not found", func(t *testing.T) {
		data := catalogtest.PDF(
			catalogtest.Page{{"Cover page"}},
			catalogtest.Page{{"Item", "Price"}, {"Widget", "100"}},
		)

		_, err := Load("catalog.pdf", data)

		assert.ErrorIs(t, err, catalog.ErrExtractionFailure)
	})

	t.Run("single line is not a table", func(t *testing.T) {
		data := catalogtest.PDF(catalogtest.Page{{"Item", "Price"}})

		_, err := Load("catalog.pdf", data)

		assert.ErrorIs(t, err, catalog.ErrExtractionFailure)
	})

	t.Run("not a PDF", func(t *testing.T) {
		_, err := Load("catalog.pdf", []byte("Item,Price\nWidget,100\n"))

		assert.ErrorIs(t, err, catalog.ErrExtractionFailure)
	})
}

func TestWriteCSV(t *testing.T) {
	table, err := catalog.NewTable([]string{"Item", "Price", "New Price"}, [][]string{
		{"Widget", "100", "125.0"},
		{"Bolt, M8", "0.2", "0.25"},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, table))

	assert.Equal(t, "Item,Price,New Price\nWidget,100,125.0\n\"Bolt, M8\",0.2,0.25\n", buf.String())
}

func TestCSVRoundTrip(t *testing.T) {
	gen := catalogtest.NewGeneratorWithSeed(42)
	original, err := catalog.Adjust(gen.Catalog(50), catalog.DefaultMarkupPercent)
	require.NoError(t, err)

	data, err := MarshalCSV(original)
	require.NoError(t, err)

	reloaded, err := Load("updated_vendor_catalog.csv", data)
	require.NoError(t, err)

	assert.Equal(t, original.ColumnNames(), reloaded.ColumnNames())
	require.Equal(t, original.Len(), reloaded.Len())
	for _, name := range []string{catalog.PriceColumn, catalog.NewPriceColumn} {
		want, _ := original.Column(name)
		got, _ := reloaded.Column(name)
		for i := range want {
			assert.True(t, decimal.RequireFromString(want[i]).Equal(decimal.RequireFromString(got[i])),
				"%s row %d: %s != %s", name, i, want[i], got[i])
		}
	}

	// An independent reader sees the same records
	maps, err := gocsv.CSVToMaps(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, maps, original.Len())
	first, _ := original.Value(0, catalog.NewPriceColumn)
	assert.Equal(t, first, maps[0][catalog.NewPriceColumn])
}

func TestParser_LargeCatalog(t *testing.T) {
	gen := catalogtest.NewGeneratorWithSeed(7)
	table := gen.Catalog(2000)

	data, err := MarshalCSV(table)
	require.NoError(t, err)

	reloaded, err := Load("catalog.csv", data)
	require.NoError(t, err)
	assert.Equal(t, 2000, reloaded.Len())
	assert.True(t, strings.HasPrefix(reloaded.Rows[0][0], "SKU-"))
}
