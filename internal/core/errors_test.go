package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/JonMunkholm/wrangle/internal/ingest"
	"github.com/JonMunkholm/wrangle/internal/ops"
	"github.com/JonMunkholm/wrangle/internal/warehouse"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{name: "nil error returns empty", err: nil, wantCode: ""},
		{name: "wrapped sentinel", err: fmt.Errorf("load sales.csv: %w", ingest.ErrFileTooLarge), wantCode: "FILE001"},
		{name: "sheet not found", err: fmt.Errorf("%w: %q", ingest.ErrSheetNotFound, "Q3"), wantCode: "FILE006"},
		{name: "invalid params", err: fmt.Errorf("%w: column %q not found", ops.ErrInvalidParams, "x"), wantCode: "OP001"},
		{name: "conversion", err: fmt.Errorf("%w: row 3", ops.ErrConversion), wantCode: "OP003"},
		{name: "not applied", err: fmt.Errorf("%w: mean fill needs a numeric column", ops.ErrNotApplied), wantCode: "OP007"},
		{name: "session not found", err: ErrSessionNotFound, wantCode: "SES001"},
		{name: "too many loads", err: ErrTooManyLoads, wantCode: "SES003"},
		{name: "cancelled", err: fmt.Errorf("load: %w", context.Canceled), wantCode: "SES005"},
		{name: "warehouse off", err: warehouse.ErrNotConfigured, wantCode: "DB001"},
		{name: "driver text", err: errors.New(`ERROR: relation "sales" already exists (SQLSTATE 42P07)`), wantCode: "DB003"},
		{name: "connection refused", err: errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"), wantCode: "DB004"},
		{name: "csv parse text", err: errors.New(`record on line 4: wrong number of fields`), wantCode: "FILE008"},
		{name: "case insensitive", err: errors.New("RATE LIMIT exceeded"), wantCode: "RATE001"},
		{name: "unknown error returns default", err: errors.New("some random internal error"), wantCode: "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MapError(tt.err); got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
		})
	}
}

func TestMapError_SentinelBeatsPattern(t *testing.T) {
	// The text mentions a timeout but the sentinel decides.
	err := fmt.Errorf("%w: parse timeout column", ops.ErrConversion)
	if got := MapError(err).Code; got != "OP003" {
		t.Errorf("code = %q, want OP003", got)
	}
}

func TestFormatUserError(t *testing.T) {
	got := FormatUserError(ErrNoPivot)
	want := "No pivot table has been generated (Code: OP012). Generate a pivot table first"
	if got != want {
		t.Errorf("FormatUserError() = %q, want %q", got, want)
	}
	if FormatUserError(nil) != "" {
		t.Error("FormatUserError(nil) should be empty")
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error is not user facing", nil, false},
		{"known error is user facing", ingest.ErrEmptyFile, true},
		{"unknown error is not user facing", errors.New("random internal error xyz"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}
