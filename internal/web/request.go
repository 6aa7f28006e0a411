package web

// request.go holds request decoding and response shaping shared by the
// handlers.

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/render"

	"github.com/JonMunkholm/wrangle/internal/table"
)

const (
	// maxJSONBody bounds request bodies that carry parameters.
	maxJSONBody = 1 << 20
	// multipartMemory is kept in memory while parsing a form; larger parts
	// spill to temporary files.
	multipartMemory = 32 << 20

	defaultViewRows = 100
	maxViewRows     = 1000
)

// decodeJSON decodes the request body into v. An empty body leaves v
// untouched when allowEmpty is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, allowEmpty bool) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := render.DecodeJSON(r.Body, v); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	return nil
}

// readRaw returns the request body as raw JSON, "{}" when empty.
func readRaw(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return []byte("{}"), nil
	}
	return body, nil
}

// formFile opens the multipart "file" field. The body is capped slightly
// above the configured file size so oversized uploads fail early.
func (s *Server) formFile(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("%w: invalid form: %v", errBadRequest, err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, nil, fmt.Errorf("%w: no file provided", errBadRequest)
	}
	return file, header, nil
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// TableView is a table rendered for display: formatted cells, capped rows.
type TableView struct {
	Columns   []string   `json:"columns"`
	Types     []string   `json:"types"`
	Rows      [][]string `json:"rows"`
	TotalRows int        `json:"total_rows"`
	Truncated bool       `json:"truncated"`
}

func newTableView(t *table.Table, limit int) TableView {
	limit = min(limit, maxViewRows)
	head := t.Head(limit)
	v := TableView{
		Columns:   t.Names(),
		Types:     make([]string, t.NumCols()),
		Rows:      make([][]string, head.NumRows()),
		TotalRows: t.NumRows(),
		Truncated: t.NumRows() > head.NumRows(),
	}
	for j, c := range t.Columns() {
		v.Types[j] = c.Type.String()
	}
	for i := range v.Rows {
		row := make([]string, head.NumCols())
		for j, c := range head.Columns() {
			row[j] = c.Format(i)
		}
		v.Rows[i] = row
	}
	return v
}

// attachment sets download headers for a file derived from the source name.
func attachment(w http.ResponseWriter, source, suffix, ext, contentType string) {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	if base == "" || base == "." {
		base = "data"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", base+suffix+ext))
}
