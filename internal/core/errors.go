package core

// errors.go maps technical errors to user-facing messages with support codes.
//
// Codes are grouped by category:
//
//	FILE001-FILE099  loading files (size, format, sheets, parse errors)
//	OP001-OP099      operator and view parameters
//	SES001-SES099    sessions and request lifecycle
//	DB001-DB099      warehouse export
//	RATE001          request throttling
//	ERR000           anything unrecognized; check the logs for the original error
//
// Sentinel errors are matched first with errors.Is. Errors that only carry
// text (driver errors, parser messages) fall back to case-insensitive
// substring patterns, first match wins.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/wrangle/internal/ingest"
	"github.com/JonMunkholm/wrangle/internal/ops"
	"github.com/JonMunkholm/wrangle/internal/profile"
	"github.com/JonMunkholm/wrangle/internal/table"
	"github.com/JonMunkholm/wrangle/internal/viz"
	"github.com/JonMunkholm/wrangle/internal/warehouse"
)

// UserMessage is an error explained for the user.
type UserMessage struct {
	Message string // what happened
	Action  string // what to do about it
	Code    string // support reference
}

type sentinelMessage struct {
	target error
	msg    UserMessage
}

// sentinels is checked in order; wrapped errors match their sentinel.
var sentinels = []sentinelMessage{
	{ingest.ErrFileTooLarge, UserMessage{"File exceeds the maximum upload size", "Split the file or remove unused columns", "FILE001"}},
	{ingest.ErrUnsupportedFormat, UserMessage{"This file type is not supported", "Upload a .csv, .xlsx or .parquet file", "FILE002"}},
	{ingest.ErrEmptyFile, UserMessage{"The uploaded file is empty", "Upload a file with a header row and data", "FILE003"}},
	{ingest.ErrNoHeader, UserMessage{"The file has no header row", "Make sure the first row holds column names", "FILE004"}},
	{ingest.ErrSheetRequired, UserMessage{"The workbook has several sheets", "Choose the sheet to load", "FILE005"}},
	{ingest.ErrSheetNotFound, UserMessage{"The selected sheet does not exist", "Pick one of the listed sheets", "FILE006"}},

	{ops.ErrInvalidParams, UserMessage{"Some options are missing or invalid", "Review the highlighted selections and try again", "OP001"}},
	{ops.ErrUnknownOperator, UserMessage{"Unknown operation", "Choose one of the available operations", "OP002"}},
	{ops.ErrConversion, UserMessage{"Some values cannot be converted to the chosen type", "Clean the column or pick another type", "OP003"}},
	{ops.ErrCannotAggregate, UserMessage{"These values cannot be aggregated that way", "Use count or first, or choose a numeric column", "OP004"}},
	{ops.ErrInsufficientColumns, UserMessage{"The data needs at least one categorical and one numeric column", "Convert a column to the required type first", "OP005"}},
	{ops.ErrNoNulls, UserMessage{"The column has no missing values", "Pick a column listed with missing values", "OP006"}},
	{ops.ErrNotApplied, UserMessage{"The operation was not applied", "Choose a column the operation supports", "OP007"}},
	{ops.ErrUnknownAgg, UserMessage{"Unknown aggregation", "Choose sum, mean, count, min or max", "OP008"}},
	{table.ErrColumnNotFound, UserMessage{"A selected column does not exist", "Refresh the page; the data may have changed", "OP009"}},
	{viz.ErrUnknownChart, UserMessage{"Unknown chart", "Choose one of the available charts", "OP010"}},
	{viz.ErrChartParams, UserMessage{"The chart does not fit the selected columns", "Choose columns of the types the chart needs", "OP011"}},
	{ErrNoPivot, UserMessage{"No pivot table has been generated", "Generate a pivot table first", "OP012"}},
	{profile.ErrEmptyTable, UserMessage{"There is no data to profile", "Reset or undo to restore columns", "OP013"}},

	{ErrSessionNotFound, UserMessage{"Session not found", "The session may have expired; upload the file again", "SES001"}},
	{ErrTooManySessions, UserMessage{"The server is at its session limit", "Please try again in a few minutes", "SES002"}},
	{ErrTooManyLoads, UserMessage{"Too many files are being loaded", "Please wait a moment and try again", "SES003"}},
	{ErrUnknownStep, UserMessage{"Unknown step", "Choose a step from the menu", "SES004"}},
	{context.Canceled, UserMessage{"Request was cancelled", "Please try again", "SES005"}},
	{context.DeadlineExceeded, UserMessage{"Request timed out", "Try a smaller file or try again later", "SES006"}},

	{warehouse.ErrNotConfigured, UserMessage{"Database export is not configured", "Set DATABASE_URL to enable it", "DB001"}},
	{warehouse.ErrInvalidTableName, UserMessage{"The table name is not valid", "Use letters, digits and underscores", "DB002"}},
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns match error text, lower-cased. Specific patterns come first.
var errorPatterns = []errorPattern{
	{"already exists", UserMessage{"A table with this name already exists", "Choose another table name", "DB003"}},
	{"connection refused", UserMessage{"Unable to connect to the database", "Please try again in a few moments", "DB004"}},
	{"connection reset", UserMessage{"Database connection was interrupted", "Please try again", "DB005"}},
	{"permission denied", UserMessage{"The database user cannot create tables", "Ask an administrator for access", "DB006"}},
	{"rate limit", UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}},
	{"request body too large", UserMessage{"File exceeds the maximum upload size", "Split the file or remove unused columns", "FILE001"}},
	{"no file", UserMessage{"No file was selected", "Please choose a file to upload", "FILE007"}},
	{"parse error", UserMessage{"The file could not be parsed", "Check that rows have a consistent number of fields", "FILE008"}},
	{"wrong number of fields", UserMessage{"The file could not be parsed", "Check that rows have a consistent number of fields", "FILE008"}},
	{"zip: not a valid zip file", UserMessage{"The workbook is damaged or not an .xlsx file", "Re-save the file as .xlsx", "FILE009"}},
	{"timeout", UserMessage{"Operation timed out", "Try a smaller file or try again later", "SES006"}},
}

// defaultMessage is the ERR000 fallback.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts an error to a user message. A nil error maps to the
// zero UserMessage.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}
	for _, s := range sentinels {
		if errors.Is(err, s.target) {
			return s.msg
		}
	}
	text := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(text, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError renders an error as "Message (Code: X). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	return err != nil && MapError(err).Code != defaultMessage.Code
}
