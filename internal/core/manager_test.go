package core

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/wrangle/internal/ingest"
)

const salesCSV = "region;units\nnorth;3\nsouth;5\n"

func load(t *testing.T, m *Manager, replace string) *Session {
	t.Helper()
	s, err := m.Load(context.Background(), LoadRequest{Name: "sales.csv", Body: strings.NewReader(salesCSV), Replace: replace})
	require.NoError(t, err)
	return s
}

func TestManager_LoadAndGet(t *testing.T) {
	m := NewManager(ManagerConfig{})
	s := load(t, m, "")

	assert.Equal(t, "semicolon", s.Source().Delimiter)
	got, err := m.Get(s.ID())
	require.NoError(t, err)
	assert.Same(t, s, got)
	assert.Equal(t, 1, m.Len())

	_, err = m.Get("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManager_FailedLoadCreatesNothing(t *testing.T) {
	m := NewManager(ManagerConfig{})
	old := load(t, m, "")

	_, err := m.Load(context.Background(), LoadRequest{Name: "notes.doc", Body: strings.NewReader("x"), Replace: old.ID()})
	require.ErrorIs(t, err, ingest.ErrUnsupportedFormat)

	_, err = m.Load(context.Background(), LoadRequest{Name: "empty.csv", Body: strings.NewReader(""), Replace: old.ID()})
	require.ErrorIs(t, err, ingest.ErrEmptyFile)

	assert.Equal(t, 1, m.Len())
	_, err = m.Get(old.ID())
	assert.NoError(t, err)
}

func TestManager_ReplaceAndClose(t *testing.T) {
	m := NewManager(ManagerConfig{})
	first := load(t, m, "")
	second := load(t, m, first.ID())

	assert.NotEqual(t, first.ID(), second.ID())
	_, err := m.Get(first.ID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, 1, m.Len())

	require.NoError(t, m.Close(second.ID()))
	assert.ErrorIs(t, m.Close(second.ID()), ErrSessionNotFound)
	assert.Equal(t, 0, m.Len())
}

func TestManager_MaxSessions(t *testing.T) {
	m := NewManager(ManagerConfig{MaxSessions: 1})
	first := load(t, m, "")

	_, err := m.Load(context.Background(), LoadRequest{Name: "sales.csv", Body: strings.NewReader(salesCSV)})
	assert.ErrorIs(t, err, ErrTooManySessions)

	// Replacing frees the slot for the new session.
	load(t, m, first.ID())
	assert.Equal(t, 1, m.Len())
}

func TestManager_FileSizeLimit(t *testing.T) {
	m := NewManager(ManagerConfig{MaxFileSize: 8})
	_, err := m.Load(context.Background(), LoadRequest{Name: "sales.csv", Body: strings.NewReader(salesCSV)})
	assert.ErrorIs(t, err, ingest.ErrFileTooLarge)
}

func TestManager_Sweep(t *testing.T) {
	m := NewManager(ManagerConfig{TTL: time.Hour})
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	idle := load(t, m, "")
	busy := load(t, m, "")

	now = now.Add(45 * time.Minute)
	busy.Table()
	now = now.Add(30 * time.Minute)

	assert.Equal(t, 1, m.Sweep())
	_, err := m.Get(idle.ID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = m.Get(busy.ID())
	assert.NoError(t, err)
}

func TestManager_Sheets(t *testing.T) {
	m := NewManager(ManagerConfig{})

	names, err := m.Sheets(context.Background(), "sales.csv", strings.NewReader(salesCSV))
	require.NoError(t, err)
	assert.Nil(t, names)

	f := excelize.NewFile()
	_, err = f.NewSheet("Q2")
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, f.Close())

	names, err = m.Sheets(context.Background(), "book.xlsx", &buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"Sheet1", "Q2"}, names)
}
