package dashboard

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Update handles messages. A failed refresh keeps the previous data on
// screen; only lastError changes, so a flaky service degrades to a stale
// view instead of a blank one.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			if m.refreshing {
				return m, nil
			}
			m.refreshing = true
			return m, m.fetchCmd()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		if m.refreshing {
			return m, m.tickCmd()
		}
		m.refreshing = true
		return m, tea.Batch(m.fetchCmd(), m.tickCmd())

	case refreshMsg:
		m.refreshing = false
		if msg.err != nil {
			m.lastError = msg.err
			m.logger.Warn("dashboard refresh failed", "error", msg.err)
			return m, nil
		}
		m.scans = msg.scans
		m.projects = msg.projects
		m.stats = summarize(msg.scans)
		m.lastRefresh = msg.at
		m.lastError = nil
		m.loaded = true
		return m, nil
	}

	return m, nil
}
