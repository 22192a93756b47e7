package dashboard

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"wcagscan/internal/api"
)

type fakeSource struct {
	scans    *api.ScanList
	projects *api.ProjectList
	err      error
	calls    int
}

func (f *fakeSource) ListScans(ctx context.Context, filter api.ScanFilter) (*api.ScanList, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.scans, nil
}

func (f *fakeSource) ListProjects(ctx context.Context, filter api.ProjectFilter) (*api.ProjectList, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.projects, nil
}

func sampleData() *fakeSource {
	return &fakeSource{
		scans: &api.ScanList{Scans: []api.Scan{
			{ID: "scan-1", Status: api.StatusCompleted, Summary: &api.ScanSummary{TotalIssues: 7}},
			{ID: "scan-2", Status: api.StatusScanning, Progress: &api.ScanProgress{PagesScanned: 3, TotalPages: 10}},
			{ID: "scan-3", Status: api.StatusFailed, ErrorMessage: "crawler crashed"},
		}},
		projects: &api.ProjectList{Projects: []api.Project{
			{ID: "proj-1", Name: "Example", BaseURL: "https://example.com"},
		}},
	}
}

func refresh(t *testing.T, m Model, src *fakeSource) Model {
	t.Helper()
	msg := m.fetchCmd()()
	updated, _ := m.Update(msg)
	return updated.(Model)
}

func TestRefreshPopulatesDataAndCounters(t *testing.T) {
	src := sampleData()
	m := NewModel(Options{Client: src})
	m.width = 100
	m.height = 40

	m = refresh(t, m, src)

	if !m.loaded {
		t.Fatal("model not marked loaded after successful refresh")
	}
	if len(m.scans) != 3 || len(m.projects) != 1 {
		t.Fatalf("unexpected data: %d scans, %d projects", len(m.scans), len(m.projects))
	}
	if m.stats.completed != 1 || m.stats.running != 1 || m.stats.failed != 1 {
		t.Fatalf("unexpected counters: %+v", m.stats)
	}
	if m.stats.totalIssues != 7 {
		t.Fatalf("totalIssues = %d, want 7", m.stats.totalIssues)
	}
}

func TestFailedRefreshKeepsPreviousView(t *testing.T) {
	src := sampleData()
	m := NewModel(Options{Client: src})
	m.width = 100
	m.height = 40

	m = refresh(t, m, src)

	src.err = errors.New("connection refused")
	m = refresh(t, m, src)

	if len(m.scans) != 3 {
		t.Fatalf("stale data dropped on failed refresh: %d scans", len(m.scans))
	}
	if m.lastError == nil {
		t.Fatal("expected lastError after failed refresh")
	}
	if !strings.Contains(m.View(), "cached data") {
		t.Fatal("view does not surface the refresh failure")
	}

	src.err = nil
	m = refresh(t, m, src)
	if m.lastError != nil {
		t.Fatalf("lastError not cleared after recovery: %v", m.lastError)
	}
}

func TestTickSchedulesFetchAndNextTick(t *testing.T) {
	m := NewModel(Options{Client: sampleData(), RefreshInterval: time.Second})

	updated, cmd := m.Update(tickMsg(time.Now()))
	m = updated.(Model)
	if cmd == nil {
		t.Fatal("tick must schedule a fetch and the next tick")
	}
	if !m.refreshing {
		t.Fatal("tick must mark a refresh in flight")
	}

	// A tick during an in-flight refresh reschedules without a second fetch.
	if _, cmd = m.Update(tickMsg(time.Now())); cmd == nil {
		t.Fatal("tick during refresh must still reschedule")
	}
}

func TestQuitKeys(t *testing.T) {
	m := NewModel(Options{Client: sampleData()})
	for _, key := range []string{"q", "ctrl+c"} {
		var msg tea.KeyMsg
		if key == "q" {
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}
		} else {
			msg = tea.KeyMsg{Type: tea.KeyCtrlC}
		}
		if _, cmd := m.Update(msg); cmd == nil {
			t.Fatalf("key %q did not produce a command", key)
		}
	}
}

func TestViewRendersSections(t *testing.T) {
	src := sampleData()
	m := NewModel(Options{Client: src})
	m.width = 100
	m.height = 40

	m = refresh(t, m, src)
	view := m.View()
	for _, want := range []string{"Recent Scans", "Projects", "scan-1", "Example", "7 issues", "3/10 pages"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}
