package api

import "time"

// ScanStatus enumerates the lifecycle states reported by the scanner service.
type ScanStatus string

const (
	StatusQueued    ScanStatus = "queued"
	StatusCrawling  ScanStatus = "crawling"
	StatusScanning  ScanStatus = "scanning"
	StatusCompleted ScanStatus = "completed"
	StatusFailed    ScanStatus = "failed"
	StatusCancelled ScanStatus = "cancelled"
)

// Terminal reports whether no further status transitions can occur.
func (s ScanStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// ScanProgress carries the crawl/scan counters for a running scan.
type ScanProgress struct {
	PagesCrawled int    `json:"pages_crawled"`
	PagesScanned int    `json:"pages_scanned"`
	TotalPages   int    `json:"total_pages"`
	CurrentPage  string `json:"current_page,omitempty"`
}

// ScanStatusSnapshot is the lightweight per-poll view of a scan. Snapshots
// are replaced wholesale on every fetch, never mutated locally.
type ScanStatusSnapshot struct {
	Status       ScanStatus    `json:"status"`
	Progress     *ScanProgress `json:"progress,omitempty"`
	ErrorMessage string        `json:"error_message,omitempty"`
	StartedAt    *time.Time    `json:"started_at,omitempty"`
	CompletedAt  *time.Time    `json:"completed_at,omitempty"`
}

// ScanSummary aggregates issue counts for a completed scan.
type ScanSummary struct {
	TotalIssues int            `json:"total_issues"`
	ByImpact    map[string]int `json:"by_impact,omitempty"`
}

// ScanScores carries the compliance scores computed by the service.
type ScanScores struct {
	Overall float64 `json:"overall"`
}

// Scan is the full scan record, fetched once after a terminal status to
// obtain the summary and score payload.
type Scan struct {
	ID           string        `json:"id"`
	ProjectID    string        `json:"project_id"`
	ScanType     string        `json:"scan_type"`
	Status       ScanStatus    `json:"status"`
	Progress     *ScanProgress `json:"progress,omitempty"`
	Summary      *ScanSummary  `json:"summary,omitempty"`
	Scores       *ScanScores   `json:"scores,omitempty"`
	ErrorMessage string        `json:"error_message,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	StartedAt    *time.Time    `json:"started_at,omitempty"`
	CompletedAt  *time.Time    `json:"completed_at,omitempty"`
}

// ScanList is the paginated scan listing response.
type ScanList struct {
	Scans []Scan `json:"scans"`
	Total int    `json:"total"`
}

// ProjectSettings holds the crawl limits configured per project.
type ProjectSettings struct {
	MaxDepth  int    `json:"max_depth"`
	MaxPages  int    `json:"max_pages"`
	WCAGLevel string `json:"wcag_level,omitempty"`
}

// Project is a scan target registered with the service.
type Project struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	BaseURL     string          `json:"base_url"`
	Description string          `json:"description,omitempty"`
	Settings    ProjectSettings `json:"settings"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ProjectList is the paginated project listing response.
type ProjectList struct {
	Projects []Project `json:"projects"`
	Total    int       `json:"total"`
}

// Issue is one accessibility finding reported for a scanned page.
type Issue struct {
	ID          string `json:"id"`
	ScanID      string `json:"scan_id"`
	PageURL     string `json:"page_url,omitempty"`
	RuleID      string `json:"rule_id"`
	Impact      string `json:"impact"`
	WCAGLevel   string `json:"wcag_level,omitempty"`
	Description string `json:"description"`
	Status      string `json:"status,omitempty"`
}

// IssueList is the paginated issue listing response.
type IssueList struct {
	Issues []Issue `json:"issues"`
	Total  int     `json:"total"`
}

// ReportSummary aggregates the counters shown in a rendered report.
type ReportSummary struct {
	TotalPages  int            `json:"total_pages"`
	TotalIssues int            `json:"total_issues"`
	ByImpact    map[string]int `json:"by_impact,omitempty"`
	ByWCAGLevel map[string]int `json:"by_wcag_level,omitempty"`
}

// ReportScores carries the compliance scores section of a report.
type ReportScores struct {
	Overall     float64            `json:"overall"`
	ByPrinciple map[string]float64 `json:"by_principle,omitempty"`
}

// Report is the structured JSON report for a completed scan.
type Report struct {
	Scan    Scan          `json:"scan"`
	Project Project       `json:"project"`
	Summary ReportSummary `json:"summary"`
	Scores  ReportScores  `json:"scores"`
}

// User describes an authenticated account.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role,omitempty"`
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	AccessToken string `json:"access_token"`
	User        User   `json:"user"`
}

// ScanRequest configures a new scan.
type ScanRequest struct {
	MaxPages int      `json:"max_pages"`
	MaxDepth int      `json:"max_depth"`
	Scanners []string `json:"scanners"`
}

// ProjectRequest creates or updates a project. Nil/empty fields are omitted
// so partial updates only touch what the caller set.
type ProjectRequest struct {
	Name        string           `json:"name,omitempty"`
	BaseURL     string           `json:"base_url,omitempty"`
	Description string           `json:"description,omitempty"`
	Settings    *ProjectSettings `json:"settings,omitempty"`
}
