package web

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-chi/render"

	"github.com/JonMunkholm/wrangle/internal/ingest"
	"github.com/JonMunkholm/wrangle/internal/logging"
	"github.com/JonMunkholm/wrangle/internal/profile"
	"github.com/JonMunkholm/wrangle/internal/warehouse"
)

// ProfileResponse wraps a report with whether it came from the cache.
type ProfileResponse struct {
	Cached bool            `json:"cached"`
	Report *profile.Report `json:"report"`
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	report, cached, err := sessionFrom(r.Context()).GenerateProfile(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, r, ProfileResponse{Cached: cached, Report: report})
}

// handleProfileReport downloads the profile as a standalone HTML page,
// generating it first when needed.
func (s *Server) handleProfileReport(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	report, _, err := sess.GenerateProfile(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := profile.WriteHTML(r.Context(), &buf, report); err != nil {
		respondError(w, r, fmt.Errorf("render profile: %w", err))
		return
	}
	attachment(w, sess.Source().Name, "_profile", ".html", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// handleExport writes the working table as csv (default), xlsx or parquet.
// The file is built before any header is sent so failures still answer
// with a JSON error.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("format")
	if name == "" {
		name = "csv"
	}
	format, err := ingest.ParseFormat(name)
	if err != nil {
		respondError(w, r, fmt.Errorf("%w: %q", err, name))
		return
	}

	sess := sessionFrom(r.Context())
	var buf bytes.Buffer
	if err := sess.Export(&buf, format); err != nil {
		respondError(w, r, err)
		return
	}
	logging.FromContext(r.Context()).Info("exported", "format", format.String(), "bytes", buf.Len())
	attachment(w, sess.Source().Name, "_cleaned", format.Extension(), format.ContentType())
	_, _ = w.Write(buf.Bytes())
}

// handleWarehouse copies the working table into a new PostgreSQL table.
func (s *Server) handleWarehouse(w http.ResponseWriter, r *http.Request) {
	var req warehouse.Request
	if err := decodeJSON(w, r, &req, false); err != nil {
		respondError(w, r, err)
		return
	}
	sess := sessionFrom(r.Context())
	res, err := s.warehouse.Export(r.Context(), req, sess.Table())
	if err != nil {
		respondError(w, r, err)
		return
	}
	logging.FromContext(r.Context()).Info("warehouse export", "table", res.Table, "rows", res.Rows)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, res)
}
