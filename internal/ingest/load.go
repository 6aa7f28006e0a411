package ingest

import (
	"context"
	"fmt"
	"io"

	"github.com/JonMunkholm/wrangle/internal/table"
)

// Options control a load.
type Options struct {
	// Sheet selects the workbook sheet. Ignored for other formats.
	Sheet string
	// MaxBytes bounds the input size. Zero means unlimited.
	MaxBytes int64
}

// Source describes where a loaded table came from.
type Source struct {
	Name      string `json:"name"`
	Format    string `json:"format"`
	Sheet     string `json:"sheet,omitempty"`
	Delimiter string `json:"delimiter,omitempty"`
}

// Load reads a tabular file, choosing the parser from the file name.
func Load(ctx context.Context, name string, r io.Reader, opts Options) (*table.Table, Source, error) {
	src := Source{Name: name}
	format, err := DetectFormat(name)
	if err != nil {
		return nil, src, fmt.Errorf("%w: %q", err, name)
	}
	src.Format = format.String()
	r = LimitSize(r, opts.MaxBytes)

	var t *table.Table
	switch format {
	case FormatCSV:
		var delim rune
		t, delim, err = LoadCSV(r)
		src.Delimiter = DelimiterName(delim)
	case FormatXLSX:
		t, src.Sheet, err = LoadXLSX(r, opts.Sheet)
	case FormatParquet:
		t, err = LoadParquet(ctx, r)
	}
	if err != nil {
		return nil, src, err
	}
	if t.NumCols() == 0 {
		return nil, src, ErrNoHeader
	}
	return t, src, nil
}
