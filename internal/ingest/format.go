// Package ingest loads tabular files into tables and writes tables back out.
//
// Loading supports delimited text (comma, semicolon, tab or pipe separated),
// Excel workbooks (one sheet per load) and Parquet files. Export supports CSV,
// XLSX and Parquet.
package ingest

import (
	"errors"
	"path/filepath"
	"strings"
)

// Errors returned by loaders and writers.
var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrEmptyFile         = errors.New("file is empty")
	ErrNoHeader          = errors.New("file has no header row")
	ErrSheetRequired     = errors.New("workbook has several sheets; a sheet must be selected")
	ErrSheetNotFound     = errors.New("sheet not found")
	ErrFileTooLarge      = errors.New("file exceeds maximum size")
)

// Format identifies a file format.
type Format int

const (
	FormatUnknown Format = iota
	FormatCSV
	FormatXLSX
	FormatParquet
)

// String returns the lowercase format name, as used in query parameters.
func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatXLSX:
		return "xlsx"
	case FormatParquet:
		return "parquet"
	default:
		return "unknown"
	}
}

// Extension returns the file extension including the dot.
func (f Format) Extension() string {
	if f == FormatUnknown {
		return ""
	}
	return "." + f.String()
}

// ContentType returns the MIME type used when serving the format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatParquet:
		return "application/vnd.apache.parquet"
	default:
		return "application/octet-stream"
	}
}

// ParseFormat converts a format name ("csv", "xlsx", "parquet") to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), ".")) {
	case "csv", "txt", "tsv":
		return FormatCSV, nil
	case "xlsx", "xlsm", "excel":
		return FormatXLSX, nil
	case "parquet", "pq":
		return FormatParquet, nil
	}
	return FormatUnknown, ErrUnsupportedFormat
}

// DetectFormat picks a format from a file name's extension.
func DetectFormat(filename string) (Format, error) {
	ext := filepath.Ext(filename)
	if ext == "" {
		return FormatUnknown, ErrUnsupportedFormat
	}
	return ParseFormat(ext)
}
