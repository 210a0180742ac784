package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/BornStar-hub/Makopo-Industrial-Price-Adjuster/internal/domain/catalog"
)

// ExcelParser parses XLSX workbooks into a catalog table
type ExcelParser struct {
	config ParserConfig
}

// NewExcelParser creates a new Excel parser
func NewExcelParser(config ParserConfig) *ExcelParser {
	return &ExcelParser{config: config}
}

// ParseExcel reads the first sheet of the workbook. The first non-blank row is
// the header; blank rows are dropped and cell values are read unformatted.
func (p *ExcelParser) ParseExcel(reader io.Reader) (*catalog.Table, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open Excel file: %w", catalog.ErrMalformedFile, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets in workbook: %w", catalog.ErrEmptyTable)
	}
	sheetName := sheets[0]

	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read sheet %s: %w", catalog.ErrMalformedFile, sheetName, err)
	}

	var header []string
	records := make([][]string, 0, len(rows))
	width := 0
	for _, row := range rows {
		if isBlankRow(row) {
			continue
		}
		if header == nil {
			header = row
			width = len(row)
			continue
		}
		if len(row) > width {
			width = len(row)
		}
		records = append(records, row)
	}

	if header == nil {
		return nil, fmt.Errorf("sheet %s: %w", sheetName, catalog.ErrEmptyTable)
	}

	// Data wider than the header gets unnamed columns
	for len(header) < width {
		header = append(header, "")
	}

	table, err := catalog.NewTable(header, records)
	if err != nil {
		return nil, fmt.Errorf("%w: sheet %s: %w", catalog.ErrMalformedFile, sheetName, err)
	}
	return table, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
