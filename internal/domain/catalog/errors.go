package catalog

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedFormat indicates the file extension is not .csv, .xlsx or .pdf
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrMissingColumn indicates the table has no "Price" column
	ErrMissingColumn = errors.New("missing column")

	// ErrInvalidPrice indicates a "Price" cell that is blank or not a number
	ErrInvalidPrice = errors.New("invalid price")

	// ErrExtractionFailure indicates no table could be extracted from a PDF's first page
	ErrExtractionFailure = errors.New("table extraction failed")

	// ErrEmptyTable indicates the input had no header row
	ErrEmptyTable = errors.New("no header row found")

	// ErrInvalidMarkup indicates a markup percentage that is NaN or infinite
	ErrInvalidMarkup = errors.New("invalid markup percentage")

	// ErrMalformedFile indicates a CSV or XLSX file that could not be decoded
	ErrMalformedFile = errors.New("malformed file")
)

// MissingColumnError reports a required column that is absent.
type MissingColumnError struct {
	Column      string
	Available   []string
	Suggestions []string
}

func (e *MissingColumnError) Error() string {
	msg := fmt.Sprintf("The catalog must have a '%s' column.", e.Column)
	if len(e.Suggestions) > 0 {
		msg += fmt.Sprintf(" Did you mean '%s'?", strings.Join(e.Suggestions, "', '"))
	}
	return msg
}

func (e *MissingColumnError) Is(target error) bool {
	return target == ErrMissingColumn
}

// PriceError reports a price cell that cannot be read as a number.
// Row is 1-based and counts data rows only.
type PriceError struct {
	Row   int
	Value string
}

func (e *PriceError) Error() string {
	if strings.TrimSpace(e.Value) == "" {
		return fmt.Sprintf("row %d: price is blank", e.Row)
	}
	return fmt.Sprintf("row %d: price %q is not a number", e.Row, e.Value)
}

func (e *PriceError) Is(target error) bool {
	return target == ErrInvalidPrice
}
