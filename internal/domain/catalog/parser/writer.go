package parser

import (
	"bytes"
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"github.com/BornStar-hub/Makopo-Industrial-Price-Adjuster/internal/domain/catalog"
)

// WriteCSV writes the header and every row of t as comma-separated values.
func WriteCSV(w io.Writer, t *catalog.Table) error {
	writer := gocsv.DefaultCSVWriter(w)
	for _, record := range t.Records() {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

// MarshalCSV returns t encoded by WriteCSV
func MarshalCSV(t *catalog.Table) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
