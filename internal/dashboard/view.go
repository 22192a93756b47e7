package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"wcagscan/internal/api"
)

var (
	headerStyle = lipgloss.NewStyle().
		Background(lipgloss.Color("236")).
		Foreground(lipgloss.Color("255")).
		Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	sectionTitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("39"))

	completedStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("42"))

	runningStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("214"))

	failedStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("196"))

	dimmedStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("244"))

	statusBarStyle = lipgloss.NewStyle().
		Background(lipgloss.Color("236")).
		Foreground(lipgloss.Color("255"))

	errorBarStyle = lipgloss.NewStyle().
		Background(lipgloss.Color("52")).
		Foreground(lipgloss.Color("255"))
)

// View renders the dashboard.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder

	header := fmt.Sprintf(" WCAG Scanner │ Completed: %d │ Running: %d │ Failed: %d │ Issues: %d ",
		m.stats.completed, m.stats.running, m.stats.failed, m.stats.totalIssues)
	b.WriteString(headerStyle.Width(m.width).Render(header))
	b.WriteString("\n")

	b.WriteString(sectionStyle.Width(m.width - 2).Render(m.renderScans()))
	b.WriteString("\n")
	b.WriteString(sectionStyle.Width(m.width - 2).Render(m.renderProjects()))
	b.WriteString("\n")

	b.WriteString(m.renderStatusBar())
	return b.String()
}

func (m Model) renderScans() string {
	var b strings.Builder
	b.WriteString(sectionTitleStyle.Render("Recent Scans"))
	b.WriteString("\n")

	if !m.loaded {
		b.WriteString(dimmedStyle.Render("Fetching..."))
		return b.String()
	}
	if len(m.scans) == 0 {
		b.WriteString(dimmedStyle.Render("No scans yet"))
		return b.String()
	}

	for _, scan := range m.scans {
		line := fmt.Sprintf("%-10s %-38s %s", statusStyle(scan.Status).Render(string(scan.Status)),
			shorten(scan.ID, 38), scanDetail(scan))
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderProjects() string {
	var b strings.Builder
	b.WriteString(sectionTitleStyle.Render("Projects"))
	b.WriteString("\n")

	if !m.loaded {
		b.WriteString(dimmedStyle.Render("Fetching..."))
		return b.String()
	}
	if len(m.projects) == 0 {
		b.WriteString(dimmedStyle.Render("No projects registered"))
		return b.String()
	}

	for _, project := range m.projects {
		b.WriteString(fmt.Sprintf("%-24s %s", shorten(project.Name, 24), dimmedStyle.Render(project.BaseURL)))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderStatusBar() string {
	refreshed := "never"
	if !m.lastRefresh.IsZero() {
		refreshed = m.lastRefresh.Format("15:04:05")
	}
	bar := fmt.Sprintf(" q: quit │ r: refresh │ auto-refresh %s │ updated %s ",
		m.refreshInterval.Round(time.Second), refreshed)
	rendered := statusBarStyle.Width(m.width).Render(bar)
	if m.lastError != nil {
		rendered += "\n" + errorBarStyle.Width(m.width).Render(
			fmt.Sprintf(" service unreachable, showing cached data: %v ", m.lastError))
	}
	return rendered
}

func statusStyle(status api.ScanStatus) lipgloss.Style {
	switch status {
	case api.StatusCompleted:
		return completedStyle
	case api.StatusFailed, api.StatusCancelled:
		return failedStyle
	default:
		return runningStyle
	}
}

func scanDetail(scan api.Scan) string {
	switch scan.Status {
	case api.StatusCompleted:
		if scan.Summary != nil {
			return fmt.Sprintf("%d issues", scan.Summary.TotalIssues)
		}
		return ""
	case api.StatusFailed:
		return failedStyle.Render(shorten(scan.ErrorMessage, 40))
	default:
		if scan.Progress != nil && scan.Progress.TotalPages > 0 {
			return fmt.Sprintf("%d/%d pages", scan.Progress.PagesScanned, scan.Progress.TotalPages)
		}
		return ""
	}
}

func shorten(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
