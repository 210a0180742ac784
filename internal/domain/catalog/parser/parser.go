// Package parser decodes uploaded vendor catalogs (CSV, XLSX, PDF) into a
// catalog.Table and serializes tables back to CSV.
package parser

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BornStar-hub/Makopo-Industrial-Price-Adjuster/internal/domain/catalog"
)

// Format identifies an input encoding
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

// SupportedExtensions lists the accepted file extensions, in display order.
var SupportedExtensions = []string{".csv", ".xlsx", ".pdf"}

// DetectFormat maps a file name to its Format by extension, case-insensitively.
func DetectFormat(fileName string) (Format, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	case ".pdf":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("%w: %q (expected one of %s)",
			catalog.ErrUnsupportedFormat, fileName, strings.Join(SupportedExtensions, ", "))
	}
}

// ParserConfig configures the decoders
type ParserConfig struct {
	Delimiter rune // CSV field delimiter (default: ',')
	PDF       PDFConfig
}

// DefaultConfig returns a config matching the usual spreadsheet export defaults
func DefaultConfig() ParserConfig {
	return ParserConfig{
		Delimiter: ',',
		PDF:       DefaultPDFConfig(),
	}
}

// Loader dispatches raw uploads to the decoder for their format
type Loader struct {
	csv   *Parser
	excel *ExcelParser
	pdf   *PDFParser
}

// NewLoader creates a loader with the given configuration
func NewLoader(config ParserConfig) *Loader {
	return &Loader{
		csv:   NewParser(config),
		excel: NewExcelParser(config),
		pdf:   NewPDFParser(config.PDF),
	}
}

// Load decodes data according to the extension of fileName.
func (l *Loader) Load(fileName string, data []byte) (*catalog.Table, error) {
	format, err := DetectFormat(fileName)
	if err != nil {
		return nil, err
	}
	return l.LoadFormat(format, data)
}

// LoadFormat decodes data with the decoder for format
func (l *Loader) LoadFormat(format Format, data []byte) (*catalog.Table, error) {
	switch format {
	case FormatCSV:
		return l.csv.Parse(bytes.NewReader(data))
	case FormatXLSX:
		return l.excel.ParseExcel(bytes.NewReader(data))
	case FormatPDF:
		return l.pdf.ParsePDF(data)
	default:
		return nil, fmt.Errorf("%w: %s", catalog.ErrUnsupportedFormat, format)
	}
}

var defaultLoader = NewLoader(DefaultConfig())

// Load decodes data with the default configuration.
func Load(fileName string, data []byte) (*catalog.Table, error) {
	return defaultLoader.Load(fileName, data)
}
