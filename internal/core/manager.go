package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/wrangle/internal/ingest"
	"github.com/JonMunkholm/wrangle/internal/logging"
)

var (
	// ErrSessionNotFound is returned for unknown or expired session ids.
	ErrSessionNotFound = errors.New("session not found")
	// ErrTooManySessions is returned when the session limit is reached.
	ErrTooManySessions = errors.New("too many open sessions")
)

// Defaults for ManagerConfig fields left zero.
const (
	DefaultSessionTTL  = 2 * time.Hour
	DefaultMaxSessions = 100
)

// ManagerConfig tunes a Manager.
type ManagerConfig struct {
	TTL                time.Duration
	MaxSessions        int
	MaxConcurrentLoads int
	LoadWait           time.Duration
	MaxFileSize        int64
}

// LoadRequest is one file to load into a new session.
type LoadRequest struct {
	Name  string
	Body  io.Reader
	Sheet string
	// Replace names a session that the new one supersedes. It is closed
	// only once the new file has loaded.
	Replace string
}

// Manager owns the open sessions, keyed by id.
type Manager struct {
	cfg     ManagerConfig
	limiter *LoadLimiter
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a Manager. Zero config fields select the defaults.
func NewManager(cfg ManagerConfig) *Manager {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultSessionTTL
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = DefaultMaxSessions
	}
	return &Manager{
		cfg:      cfg,
		limiter:  NewLoadLimiter(cfg.MaxConcurrentLoads, cfg.LoadWait),
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Limiter exposes the load limiter for health output and shutdown.
func (m *Manager) Limiter() *LoadLimiter { return m.limiter }

// Load parses a file and opens a session over it. A file that fails to load
// creates no session and leaves the replaced session open.
func (m *Manager) Load(ctx context.Context, req LoadRequest) (*Session, error) {
	release, err := m.limiter.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	log := logging.WithFields(ctx, "file", req.Name, "sheet", req.Sheet)
	start := time.Now()
	t, src, err := ingest.Load(ctx, req.Name, req.Body, ingest.Options{Sheet: req.Sheet, MaxBytes: m.cfg.MaxFileSize})
	if err != nil {
		loadsTotal.WithLabelValues(formatLabel(src.Format), "error").Inc()
		log.Warn("load failed", "error", err)
		return nil, fmt.Errorf("load %s: %w", req.Name, err)
	}
	loadsTotal.WithLabelValues(src.Format, "ok").Inc()

	m.mu.Lock()
	defer m.mu.Unlock()

	if req.Replace != "" {
		if _, ok := m.sessions[req.Replace]; ok {
			delete(m.sessions, req.Replace)
			sessionsActive.Dec()
		}
	}
	if len(m.sessions) >= m.cfg.MaxSessions {
		return nil, ErrTooManySessions
	}

	s := newSession(uuid.NewString(), t, src, m.now)
	m.sessions[s.ID()] = s
	sessionsActive.Inc()

	rows, cols := t.Shape()
	log.Info("session opened",
		"session_id", s.ID(),
		"replaced", req.Replace,
		"format", src.Format,
		"rows", rows,
		"cols", cols,
		"duration", time.Since(start),
	)
	return s, nil
}

func formatLabel(f string) string {
	if f == "" {
		return "unknown"
	}
	return f
}

// Sheets lists the sheet names of a workbook upload. Other formats have a
// single implicit sheet and yield nil.
func (m *Manager) Sheets(ctx context.Context, name string, body io.Reader) ([]string, error) {
	format, err := ingest.DetectFormat(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, name)
	}
	if format != ingest.FormatXLSX {
		return nil, nil
	}
	release, err := m.limiter.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return ingest.SheetNames(ingest.LimitSize(body, m.cfg.MaxFileSize))
}

// Get returns the session with the given id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// Close ends a session.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	delete(m.sessions, id)
	sessionsActive.Dec()
	return nil
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep closes sessions idle for longer than the TTL and returns how many
// it closed.
func (m *Manager) Sweep() int {
	cutoff := m.now().Add(-m.cfg.TTL)

	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, s := range m.sessions {
		if s.LastUsed().Before(cutoff) {
			delete(m.sessions, id)
			n++
		}
	}
	if n > 0 {
		sessionsActive.Sub(float64(n))
		sessionsExpired.Add(float64(n))
	}
	return n
}

// Run sweeps idle sessions until ctx is cancelled.
func (m *Manager) Run(ctx context.Context) {
	interval := max(m.cfg.TTL/4, time.Second)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				slog.Info("expired idle sessions", "count", n, "open", m.Len())
			}
		}
	}
}
