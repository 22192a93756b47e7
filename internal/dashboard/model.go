// Package dashboard renders a live terminal view of recent scans and
// registered projects, refreshing itself on a fixed interval.
package dashboard

import (
	"context"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"wcagscan/internal/api"
	"wcagscan/internal/logging"
)

// DataSource is the slice of the API client the dashboard needs.
type DataSource interface {
	ListScans(ctx context.Context, filter api.ScanFilter) (*api.ScanList, error)
	ListProjects(ctx context.Context, filter api.ProjectFilter) (*api.ProjectList, error)
}

// Options configures the dashboard model.
type Options struct {
	Client          DataSource
	RefreshInterval time.Duration
	ScanLimit       int
	ProjectLimit    int
	Logger          *slog.Logger
}

// summary holds the aggregate counters shown in the header row.
type summary struct {
	completed   int
	running     int
	failed      int
	totalIssues int
}

// Model is the dashboard application state. All mutation happens inside
// Update; fetches run in commands and report back via refreshMsg.
type Model struct {
	client          DataSource
	refreshInterval time.Duration
	scanLimit       int
	projectLimit    int
	logger          *slog.Logger

	scans    []api.Scan
	projects []api.Project
	stats    summary

	width       int
	height      int
	lastRefresh time.Time
	lastError   error
	loaded      bool
	refreshing  bool
}

// NewModel constructs the dashboard model.
func NewModel(opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	interval := opts.RefreshInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	scanLimit := opts.ScanLimit
	if scanLimit <= 0 {
		scanLimit = 20
	}
	projectLimit := opts.ProjectLimit
	if projectLimit <= 0 {
		projectLimit = 10
	}
	return Model{
		client:          opts.Client,
		refreshInterval: interval,
		scanLimit:       scanLimit,
		projectLimit:    projectLimit,
		logger:          logger,
	}
}

// Init triggers the first fetch and starts the refresh timer.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetchCmd(), m.tickCmd())
}

// tickMsg fires once per refresh interval.
type tickMsg time.Time

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Run starts the dashboard in the alternate screen until the user quits.
func Run(opts Options) error {
	program := tea.NewProgram(NewModel(opts), tea.WithAltScreen())
	_, err := program.Run()
	return err
}
