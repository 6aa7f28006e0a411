package web

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/go-chi/render"

	"github.com/JonMunkholm/wrangle/internal/core"
	"github.com/JonMunkholm/wrangle/internal/ingest"
	"github.com/JonMunkholm/wrangle/internal/ops"
	"github.com/JonMunkholm/wrangle/internal/viz"
)

// PivotResponse carries a pivot summary and its rendered table.
type PivotResponse struct {
	*ops.PivotResult
	Table TableView `json:"table"`
}

// ChartRequest selects one chart variant and its columns.
type ChartRequest struct {
	Mode viz.Mode `json:"mode"`
	Kind viz.Kind `json:"kind"`
	viz.Params
}

func newPivotResponse(p *ops.PivotResult) PivotResponse {
	return PivotResponse{PivotResult: p, Table: newTableView(p.Table, maxViewRows)}
}

func (s *Server) handleGetPivot(w http.ResponseWriter, r *http.Request) {
	p := sessionFrom(r.Context()).Pivot()
	if p == nil {
		respondError(w, r, core.ErrNoPivot)
		return
	}
	render.JSON(w, r, newPivotResponse(p))
}

func (s *Server) handleGeneratePivot(w http.ResponseWriter, r *http.Request) {
	var p ops.SummaryParams
	if err := decodeJSON(w, r, &p, false); err != nil {
		respondError(w, r, err)
		return
	}
	res, err := sessionFrom(r.Context()).GeneratePivot(p)
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, r, newPivotResponse(res))
}

func (s *Server) handleClearPivot(w http.ResponseWriter, r *http.Request) {
	sessionFrom(r.Context()).ClearPivot()
	render.NoContent(w, r)
}

func (s *Server) handleExportPivot(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	var buf bytes.Buffer
	if err := sess.ExportPivot(&buf); err != nil {
		respondError(w, r, err)
		return
	}
	attachment(w, sess.Source().Name, "_pivot", ingest.FormatCSV.Extension(), ingest.FormatCSV.ContentType())
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	var p ops.FilterParams
	if err := decodeJSON(w, r, &p, false); err != nil {
		respondError(w, r, err)
		return
	}
	t, err := sessionFrom(r.Context()).Filter(p)
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, r, newTableView(t, parseIntParam(r, "limit", defaultViewRows)))
}

func (s *Server) handleGroup(w http.ResponseWriter, r *http.Request) {
	var p ops.GroupParams
	if err := decodeJSON(w, r, &p, false); err != nil {
		respondError(w, r, err)
		return
	}
	t, err := sessionFrom(r.Context()).Group(p)
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, r, newTableView(t, maxViewRows))
}

// handleListCharts returns the chart kinds that fit the selected columns,
// passed as query parameters: mode, x, y, z, size, hue and columns
// (comma separated).
func (s *Server) handleListCharts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode := viz.Mode(q.Get("mode"))
	if mode == "" {
		mode = viz.Univariate
	}
	var columns []string
	if c := q.Get("columns"); c != "" {
		columns = strings.Split(c, ",")
	}
	sess := sessionFrom(r.Context())
	options := sess.Charts(mode, viz.Params{
		X:       q.Get("x"),
		Y:       q.Get("y"),
		Z:       q.Get("z"),
		Size:    q.Get("size"),
		Hue:     q.Get("hue"),
		Columns: columns,
	})
	if options == nil {
		options = []viz.Option{}
	}
	render.JSON(w, r, map[string]any{
		"options": options,
		"legend":  viz.LegendColumns(sess.Table()),
	})
}

func (s *Server) handleBuildChart(w http.ResponseWriter, r *http.Request) {
	var req ChartRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		respondError(w, r, err)
		return
	}
	chart, err := sessionFrom(r.Context()).Chart(req.Mode, req.Kind, req.Params)
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, r, chart)
}
