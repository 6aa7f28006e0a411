package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/JonMunkholm/wrangle/internal/core"
	"github.com/JonMunkholm/wrangle/internal/logging"
)

// ActionResponse is returned by committing actions: what happened and the
// session as it is afterwards.
type ActionResponse struct {
	Outcome core.Outcome `json:"outcome"`
	State   core.State   `json:"state"`
}

type stepRequest struct {
	Step string `json:"step"`
}

func (s *Server) handleSteps(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string][]core.Step{"steps": core.Steps})
}

// handleSheets lists the sheets of an uploaded workbook so the user can
// pick one before loading. Other formats return an empty list.
func (s *Server) handleSheets(w http.ResponseWriter, r *http.Request) {
	file, header, err := s.formFile(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	defer file.Close()

	sheets, err := s.sessions.Sheets(r.Context(), header.Filename, file)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if sheets == nil {
		sheets = []string{}
	}
	render.JSON(w, r, map[string][]string{"sheets": sheets})
}

// handleLoad opens a session over an uploaded file. The optional "session"
// form field names a session the new upload replaces.
func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	file, header, err := s.formFile(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	defer file.Close()

	sess, err := s.sessions.Load(r.Context(), core.LoadRequest{
		Name:    header.Filename,
		Body:    file,
		Sheet:   r.FormValue("sheet"),
		Replace: r.FormValue("session"),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/sessions/"+sess.ID())
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, sess.State())
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, sessionFrom(r.Context()).State())
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	if err := s.sessions.Close(sess.ID()); err != nil {
		respondError(w, r, err)
		return
	}
	logging.FromContext(r.Context()).Info("session closed")
	render.NoContent(w, r)
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	var req stepRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		respondError(w, r, err)
		return
	}
	step, err := core.ParseStep(req.Step)
	if err != nil {
		respondError(w, r, err)
		return
	}
	sess := sessionFrom(r.Context())
	if err := sess.Navigate(step); err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, r, sess.State())
}

// handleApply runs a registered operator with the JSON body as parameters.
// A declined operator still answers 200 with status "not_applied".
func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	raw, err := readRaw(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	sess := sessionFrom(r.Context())
	out, err := sess.Apply(r.Context(), chi.URLParam(r, "op"), raw)
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, r, ActionResponse{Outcome: out, State: sess.State()})
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	out := sess.Undo(r.Context())
	render.JSON(w, r, ActionResponse{Outcome: out, State: sess.State()})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	out := sess.Reset(r.Context())
	render.JSON(w, r, ActionResponse{Outcome: out, State: sess.State()})
}

func (s *Server) handleCleanStatus(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, sessionFrom(r.Context()).CleanStatus())
}
