package core

// session.go implements the per-upload workbench session.
//
// A Session owns one Store and the side-channel artifacts derived from it
// (pivot summary, profile report). Every call that reads or changes session
// state takes the session mutex, so concurrent requests for the same session
// id are serialized. Operators never mutate their input, so they run against
// the current table directly.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/JonMunkholm/wrangle/internal/ingest"
	"github.com/JonMunkholm/wrangle/internal/logging"
	"github.com/JonMunkholm/wrangle/internal/ops"
	"github.com/JonMunkholm/wrangle/internal/profile"
	"github.com/JonMunkholm/wrangle/internal/table"
	"github.com/JonMunkholm/wrangle/internal/viz"
)

// ErrNoPivot is returned when exporting a pivot summary that was never
// generated or has been cleared.
var ErrNoPivot = errors.New("no pivot summary generated")

// ErrUnknownStep is returned by Navigate for names outside the step set.
var ErrUnknownStep = errors.New("unknown step")

// PreviewRows is the number of rows shown in a session snapshot.
const PreviewRows = 5

// Step is the workflow step the user is on.
type Step string

const (
	StepOverview    Step = "overview"
	StepReshape     Step = "reshape"
	StepClean       Step = "clean"
	StepConvert     Step = "convert"
	StepPivot       Step = "pivot"
	StepFilterGroup Step = "filter_group"
	StepVisualize   Step = "visualize"
	StepProfile     Step = "profile"
)

// Steps lists the workflow steps in menu order.
var Steps = []Step{
	StepOverview, StepReshape, StepClean, StepConvert,
	StepPivot, StepFilterGroup, StepVisualize, StepProfile,
}

// ParseStep converts a step name to a Step.
func ParseStep(s string) (Step, error) {
	for _, step := range Steps {
		if string(step) == s {
			return step, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStep, s)
}

// OutcomeStatus describes what an action did to the working table.
type OutcomeStatus string

const (
	// StatusApplied means the working table changed.
	StatusApplied OutcomeStatus = "applied"
	// StatusUnchanged means the action ran but produced an equal table.
	StatusUnchanged OutcomeStatus = "unchanged"
	// StatusNotApplied means the action could not apply to the selection
	// and was skipped without error.
	StatusNotApplied OutcomeStatus = "not_applied"
)

// Outcome reports the result of a committing action.
type Outcome struct {
	Action   string        `json:"action"`
	Status   OutcomeStatus `json:"status"`
	Changed  bool          `json:"changed"`
	Version  uint64        `json:"version"`
	Depth    int           `json:"history_depth"`
	Affected int           `json:"affected,omitempty"`
	Message  string        `json:"message"`
}

// CleanState is what the clean step should tell the user.
type CleanState string

const (
	CleanNoMissing   CleanState = "no_missing"
	CleanJustCleaned CleanState = "just_cleaned"
	CleanHasMissing  CleanState = "has_missing"
)

// CleanStatus is the clean step's view of the working table.
type CleanStatus struct {
	State   CleanState        `json:"state"`
	Message string            `json:"message"`
	Columns []table.NullCount `json:"columns,omitempty"`
}

// ColumnInfo describes one column of the working table.
type ColumnInfo struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Nulls int    `json:"nulls"`
}

// State is a snapshot of a session for rendering.
type State struct {
	ID         string        `json:"id"`
	Source     ingest.Source `json:"source"`
	Step       Step          `json:"step"`
	Rows       int           `json:"rows"`
	Cols       int           `json:"cols"`
	Columns    []ColumnInfo  `json:"columns"`
	Duplicates int           `json:"duplicates"`
	Depth      int           `json:"history_depth"`
	Version    uint64        `json:"version"`
	HasPivot   bool          `json:"has_pivot"`
	Preview    [][]string    `json:"preview"`
}

// Session is one user's workbench over one loaded table.
type Session struct {
	id      string
	source  ingest.Source
	created time.Time
	now     func() time.Time

	mu          sync.Mutex
	store       *Store
	step        Step
	justCleaned bool
	pivot       *ops.PivotResult
	report      *profile.Report
	profiled    *table.Table
	lastUsed    time.Time
}

// NewSession starts a session over a loaded table.
func NewSession(id string, t *table.Table, src ingest.Source) *Session {
	return newSession(id, t, src, time.Now)
}

func newSession(id string, t *table.Table, src ingest.Source, now func() time.Time) *Session {
	at := now()
	return &Session{
		id:       id,
		source:   src,
		created:  at,
		now:      now,
		store:    NewStore(t),
		step:     StepOverview,
		lastUsed: at,
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Source describes the loaded file.
func (s *Session) Source() ingest.Source { return s.source }

// Table returns the working table.
func (s *Session) Table() *table.Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.store.Current()
}

// LastUsed returns when the session last served a call.
func (s *Session) LastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

func (s *Session) touch() { s.lastUsed = s.now() }

// Step returns the current workflow step.
func (s *Session) Step() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

// Navigate moves to another step. It never changes the working table.
func (s *Session) Navigate(step Step) error {
	if _, err := ParseStep(string(step)); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.step = step
	return nil
}

// State returns a snapshot of the session for rendering.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	t := s.store.Current()
	rows, cols := t.Shape()
	st := State{
		ID:         s.id,
		Source:     s.source,
		Step:       s.step,
		Rows:       rows,
		Cols:       cols,
		Duplicates: ops.DuplicateCount(t),
		Depth:      s.store.Depth(),
		Version:    s.store.Version(),
		HasPivot:   s.pivot != nil,
	}
	for _, c := range t.Columns() {
		st.Columns = append(st.Columns, ColumnInfo{Name: c.Name, Type: c.Type.String(), Nulls: c.NullCount()})
	}
	head := t.Head(PreviewRows)
	for i := range head.NumRows() {
		row := make([]string, cols)
		for j, c := range head.Columns() {
			row[j] = c.Format(i)
		}
		st.Preview = append(st.Preview, row)
	}
	return st
}

// Apply runs the named operator on the working table and commits the
// result. A request the operator declines (ops.ErrNotApplied) is reported
// as StatusNotApplied with no error. Any other failure leaves the store
// untouched and is returned.
func (s *Session) Apply(ctx context.Context, name string, params json.RawMessage) (Outcome, error) {
	op, err := ops.Lookup(name)
	if err != nil {
		return Outcome{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	log := logging.WithFields(ctx, "session_id", s.id, "operator", name)
	start := time.Now()
	res, err := op.Run(s.store.Current(), params)
	operationDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

	out := Outcome{Action: name}
	switch {
	case errors.Is(err, ops.ErrNotApplied):
		operationsTotal.WithLabelValues(name, string(StatusNotApplied)).Inc()
		log.Info("operator not applied", "reason", err)
		out.Status = StatusNotApplied
		out.Message = notAppliedMessage(err)
		return s.finish(out), nil
	case err != nil:
		operationsTotal.WithLabelValues(name, "error").Inc()
		log.Warn("operator failed", "error", err)
		return Outcome{}, err
	}

	out.Affected = res.Affected
	out.Message = res.Message
	out.Changed = s.store.Commit(res.Table)
	if out.Changed {
		out.Status = StatusApplied
		if name == "clean" {
			s.justCleaned = true
		}
	} else {
		out.Status = StatusUnchanged
	}
	operationsTotal.WithLabelValues(name, string(out.Status)).Inc()
	log.Info("operator applied", "changed", out.Changed, "affected", out.Affected, "version", s.store.Version())
	return s.finish(out), nil
}

// notAppliedMessage strips the sentinel prefix so the user sees the reason.
func notAppliedMessage(err error) string {
	msg := err.Error()
	prefix := ops.ErrNotApplied.Error() + ": "
	if rest, ok := strings.CutPrefix(msg, prefix); ok {
		return rest
	}
	return msg
}

func (s *Session) finish(out Outcome) Outcome {
	out.Version = s.store.Version()
	out.Depth = s.store.Depth()
	return out
}

// Undo restores the previous working table. With an empty history it
// reports Changed false and does nothing else.
func (s *Session) Undo(ctx context.Context) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	changed := s.store.Undo()
	historyTotal.WithLabelValues("undo", boolResult(changed)).Inc()
	out := Outcome{Action: "undo", Changed: changed, Status: StatusApplied, Message: "Undid the last change."}
	if !changed {
		out.Status = StatusUnchanged
		out.Message = "Nothing to undo."
	}
	logging.WithFields(ctx, "session_id", s.id).Info("undo", "changed", changed)
	return s.finish(out)
}

// Reset restores the table as loaded and clears the history. Derived
// artifacts are kept.
func (s *Session) Reset(ctx context.Context) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	s.store.Reset()
	historyTotal.WithLabelValues("reset", "changed").Inc()
	logging.WithFields(ctx, "session_id", s.id).Info("reset")
	return s.finish(Outcome{Action: "reset", Status: StatusApplied, Changed: true, Message: "Data reset to the original upload."})
}

// CleanStatus reports the clean step message. The "just cleaned" state is
// shown once; the next call reports the table as it stands.
func (s *Session) CleanStatus() CleanStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	nulls := s.store.Current().NullReport()
	if len(nulls) > 0 {
		return CleanStatus{State: CleanHasMissing, Message: "Select a column and a strategy to handle missing values.", Columns: nulls}
	}
	if s.justCleaned {
		s.justCleaned = false
		return CleanStatus{State: CleanJustCleaned, Message: "Data is now cleaned."}
	}
	return CleanStatus{State: CleanNoMissing, Message: "No missing values!"}
}

// GeneratePivot builds a pivot summary of the working table and keeps it
// until cleared or replaced. The working table is not changed.
func (s *Session) GeneratePivot(p ops.SummaryParams) (*ops.PivotResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	res, err := ops.Summarize(s.store.Current(), p)
	if err != nil {
		return nil, err
	}
	s.pivot = res
	return res, nil
}

// ClearPivot drops the pivot summary.
func (s *Session) ClearPivot() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.pivot = nil
}

// Pivot returns the pivot summary, or nil.
func (s *Session) Pivot() *ops.PivotResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.pivot
}

// Filter returns a filtered view of the working table without committing.
func (s *Session) Filter(p ops.FilterParams) (*table.Table, error) {
	return ops.Filter(s.Table(), p)
}

// Group aggregates the working table without committing.
func (s *Session) Group(p ops.GroupParams) (*table.Table, error) {
	return ops.Group(s.Table(), p)
}

// Charts lists the charts available for a column selection.
func (s *Session) Charts(mode viz.Mode, p viz.Params) []viz.Option {
	return viz.Available(s.Table(), mode, p)
}

// Chart builds chart data from the working table.
func (s *Session) Chart(mode viz.Mode, kind viz.Kind, p viz.Params) (*viz.Chart, error) {
	return viz.Build(s.Table(), mode, kind, p)
}

// GenerateProfile profiles the working table. The report is cached by table
// content: while the working table is unchanged (or returns to the same
// content through undo or reset) the cached report is reused. The second
// result reports a cache hit.
func (s *Session) GenerateProfile(ctx context.Context) (*profile.Report, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	t := s.store.Current()
	if s.report != nil && s.report.Fingerprint == t.Fingerprint() && table.Equal(s.profiled, t) {
		profileTotal.WithLabelValues("cache").Inc()
		return s.report, true, nil
	}

	r, err := profile.Generate(t, profile.Options{Title: s.source.Name + " profile", Now: s.now})
	if err != nil {
		logging.WithFields(ctx, "session_id", s.id).Warn("profile failed", "error", err)
		return nil, false, err
	}
	profileTotal.WithLabelValues("generated").Inc()
	s.report = r
	s.profiled = t
	return r, false, nil
}

// Report returns the last generated profile, or nil.
func (s *Session) Report() *profile.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.report
}

// Export writes the working table in the given format.
func (s *Session) Export(w io.Writer, format ingest.Format) error {
	return ingest.Write(w, s.Table(), format)
}

// ExportPivot writes the pivot summary as CSV, row labels included.
func (s *Session) ExportPivot(w io.Writer) error {
	p := s.Pivot()
	if p == nil {
		return ErrNoPivot
	}
	return ingest.WriteCSV(w, p.Table)
}
