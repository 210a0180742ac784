package handler

import (
	"errors"
	"net/http"

	"github.com/BornStar-hub/Makopo-Industrial-Price-Adjuster/internal/domain/catalog"
)

// Error codes returned by the JSON API
const (
	CodeUnsupportedFormat = "unsupported_format"
	CodeMissingColumn     = "missing_column"
	CodeInvalidPrice      = "invalid_price"
	CodeExtractionFailure = "extraction_failure"
	CodeEmptyTable        = "empty_table"
	CodeMalformedFile     = "malformed_file"
	CodeInvalidRequest    = "invalid_request"
	CodeFileTooLarge      = "file_too_large"
	CodeInternal          = "internal"
)

var (
	errNoFile       = errors.New("no file was uploaded; choose a .csv, .xlsx or .pdf file")
	errFileTooLarge = errors.New("the uploaded file is too large")
)

// APIError is the JSON body of a failed API request
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// classify maps a pipeline error to an HTTP status and an API error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, catalog.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType, CodeUnsupportedFormat
	case errors.Is(err, catalog.ErrMissingColumn):
		return http.StatusUnprocessableEntity, CodeMissingColumn
	case errors.Is(err, catalog.ErrInvalidPrice):
		return http.StatusUnprocessableEntity, CodeInvalidPrice
	case errors.Is(err, catalog.ErrExtractionFailure):
		return http.StatusUnprocessableEntity, CodeExtractionFailure
	case errors.Is(err, catalog.ErrEmptyTable):
		return http.StatusUnprocessableEntity, CodeEmptyTable
	case errors.Is(err, catalog.ErrMalformedFile):
		return http.StatusUnprocessableEntity, CodeMalformedFile
	case errors.Is(err, errNoFile):
		return http.StatusBadRequest, CodeInvalidRequest
	case errors.Is(err, errFileTooLarge):
		return http.StatusRequestEntityTooLarge, CodeFileTooLarge
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// userMessage is the text shown for err. Internal errors are not echoed.
func userMessage(err error, status int) string {
	if status >= http.StatusInternalServerError {
		return "the catalog could not be processed, please try again"
	}
	return err.Error()
}
