package dashboard

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"wcagscan/internal/api"
)

// refreshMsg carries the result of one fetch cycle. On error the data
// slices are nil and the previous view is kept.
type refreshMsg struct {
	scans    []api.Scan
	projects []api.Project
	at       time.Time
	err      error
}

const fetchTimeout = 10 * time.Second

// fetchCmd loads scans and projects off the update loop. The command owns
// its own context; the dashboard has no long-lived request state.
func (m Model) fetchCmd() tea.Cmd {
	client := m.client
	scanLimit := m.scanLimit
	projectLimit := m.projectLimit
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		scans, err := client.ListScans(ctx, api.ScanFilter{Limit: scanLimit})
		if err != nil {
			return refreshMsg{at: time.Now(), err: err}
		}
		projects, err := client.ListProjects(ctx, api.ProjectFilter{Limit: projectLimit})
		if err != nil {
			return refreshMsg{at: time.Now(), err: err}
		}
		return refreshMsg{scans: scans.Scans, projects: projects.Projects, at: time.Now()}
	}
}

func summarize(scans []api.Scan) summary {
	var stats summary
	for _, scan := range scans {
		switch scan.Status {
		case api.StatusCompleted:
			stats.completed++
		case api.StatusFailed:
			stats.failed++
		case api.StatusQueued, api.StatusCrawling, api.StatusScanning:
			stats.running++
		}
		if scan.Summary != nil {
			stats.totalIssues += scan.Summary.TotalIssues
		}
	}
	return stats
}
