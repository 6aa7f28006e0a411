package web

// errors.go provides unified error responses for the web layer.
//
// Every failure is logged with its technical detail and the request ID, and
// the client receives the mapped user message, an action hint and a support
// code. The status code is chosen from the error itself, so handlers just
// pass the error along.

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/JonMunkholm/wrangle/internal/core"
	"github.com/JonMunkholm/wrangle/internal/ingest"
	"github.com/JonMunkholm/wrangle/internal/logging"
	"github.com/JonMunkholm/wrangle/internal/ops"
	"github.com/JonMunkholm/wrangle/internal/profile"
	"github.com/JonMunkholm/wrangle/internal/table"
	"github.com/JonMunkholm/wrangle/internal/viz"
	"github.com/JonMunkholm/wrangle/internal/warehouse"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// errBadRequest marks malformed requests: undecodable JSON, missing form
// fields or query values.
var errBadRequest = errors.New("bad request")

type statusRule struct {
	target error
	status int
}

var statusRules = []statusRule{
	{errBadRequest, http.StatusBadRequest},
	{core.ErrSessionNotFound, http.StatusNotFound},
	{core.ErrTooManySessions, http.StatusServiceUnavailable},
	{core.ErrTooManyLoads, http.StatusTooManyRequests},
	{ingest.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
	{ingest.ErrUnsupportedFormat, http.StatusUnsupportedMediaType},
	{ingest.ErrSheetNotFound, http.StatusUnprocessableEntity},
	{ingest.ErrSheetRequired, http.StatusUnprocessableEntity},
	{ingest.ErrEmptyFile, http.StatusUnprocessableEntity},
	{ingest.ErrNoHeader, http.StatusUnprocessableEntity},
	{core.ErrUnknownStep, http.StatusBadRequest},
	{ops.ErrUnknownOperator, http.StatusNotFound},
	{viz.ErrUnknownChart, http.StatusNotFound},
	{core.ErrNoPivot, http.StatusNotFound},
	{ops.ErrInvalidParams, http.StatusUnprocessableEntity},
	{ops.ErrUnknownAgg, http.StatusUnprocessableEntity},
	{ops.ErrConversion, http.StatusUnprocessableEntity},
	{ops.ErrCannotAggregate, http.StatusUnprocessableEntity},
	{ops.ErrInsufficientColumns, http.StatusUnprocessableEntity},
	{ops.ErrNoNulls, http.StatusUnprocessableEntity},
	{table.ErrColumnNotFound, http.StatusUnprocessableEntity},
	{viz.ErrChartParams, http.StatusUnprocessableEntity},
	{profile.ErrEmptyTable, http.StatusUnprocessableEntity},
	{warehouse.ErrNotConfigured, http.StatusNotImplemented},
	{warehouse.ErrInvalidTableName, http.StatusUnprocessableEntity},
}

// statusFor picks the HTTP status for err. Unrecognized errors are 500.
func statusFor(err error) int {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return http.StatusRequestEntityTooLarge
	}
	for _, rule := range statusRules {
		if errors.Is(err, rule.target) {
			return rule.status
		}
	}
	return http.StatusInternalServerError
}

// respondError logs err and writes the mapped JSON error response.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := core.MapError(err)

	log := logging.FromContext(r.Context()).With(
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"code", msg.Code,
		"error", err.Error(),
	)
	if status >= http.StatusInternalServerError {
		log.Error("request error")
	} else {
		log.Warn("request error")
	}

	if status == http.StatusTooManyRequests {
		w.Header().Set("Retry-After", "5")
	}
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}
