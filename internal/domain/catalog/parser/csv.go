package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/gocarina/gocsv"

	"github.com/BornStar-hub/Makopo-Industrial-Price-Adjuster/internal/domain/catalog"
)

// Parser decodes delimited text into a catalog table
type Parser struct {
	config ParserConfig
}

// NewParser creates a new CSV parser with the given configuration
func NewParser(config ParserConfig) *Parser {
	if config.Delimiter == 0 {
		config.Delimiter = ','
	}
	return &Parser{config: config}
}

// Parse reads the whole input. The first record is the header; blank lines are
// skipped and short records are padded.
func (p *Parser) Parse(reader io.Reader) (*catalog.Table, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	csvReader := gocsv.LazyCSVReader(bytes.NewReader(normalizeCSVBytes(data)))
	if r, ok := csvReader.(*csv.Reader); ok {
		r.Comma = p.config.Delimiter
		r.FieldsPerRecord = -1
	}

	header, err := csvReader.Read()
	if errors.Is(err, io.EOF) {
		return nil, catalog.ErrEmptyTable
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read header: %w", catalog.ErrMalformedFile, err)
	}

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse CSV: %w", catalog.ErrMalformedFile, err)
	}

	table, err := catalog.NewTable(header, records)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse CSV: %w", catalog.ErrMalformedFile, err)
	}
	return table, nil
}

// normalizeCSVBytes strips a UTF-8 BOM and falls back to Latin-1 for input
// that is not valid UTF-8.
func normalizeCSVBytes(data []byte) []byte {
	data = stripUTF8BOM(data)
	if utf8.Valid(data) {
		return data
	}
	return decodeLatin1(data)
}

func stripUTF8BOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return data[3:]
	}
	return data
}

func decodeLatin1(data []byte) []byte {
	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return []byte(string(runes))
}
