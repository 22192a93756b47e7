package main

import (
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const reportPayload = `{
	"scan": {"id": "scan-1", "project_id": "proj-1", "status": "completed"},
	"project": {"name": "Example Site", "base_url": "https://example.com"},
	"summary": {
		"total_pages": 12,
		"total_issues": 9,
		"by_impact": {"critical": 2, "serious": 3, "moderate": 4},
		"by_wcag_level": {"A": 4, "AA": 5}
	},
	"scores": {
		"overall": 81.5,
		"by_principle": {"perceivable": 74.0, "operable": 88.0}
	}
}`

func TestReportViewRendersTextReport(t *testing.T) {
	env := setupCLITestEnv(t)

	env.mux.HandleFunc("GET /scans/scan-1/reports/json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(reportPayload))
	})

	out, _, err := runCLI(t, env, "report", "view", "scan-1")
	if err != nil {
		t.Fatalf("report view: %v", err)
	}

	requireContains(t, out, "== WCAG Scan Report ==")
	requireContains(t, out, "Project: Example Site")
	requireContains(t, out, "URL:     https://example.com")
	requireContains(t, out, "Status:  completed")
	requireContains(t, out, "Total pages:  12")
	requireContains(t, out, "Total issues: 9")
	requireContains(t, out, "Issues by Impact")
	requireContains(t, out, "critical")
	requireContains(t, out, "Issues by WCAG Level")
	requireContains(t, out, "Overall: 81.5/100")
	requireContains(t, out, "Perceivable:")
	requireContains(t, out, "74.0/100")
	requireContains(t, out, "== End of Report ==")

	if strings.Index(out, "critical") > strings.Index(out, "serious") {
		t.Fatal("expected impact rows ordered by severity")
	}
}

func TestReportViewJSONFormatPreservesPayload(t *testing.T) {
	env := setupCLITestEnv(t)

	env.mux.HandleFunc("GET /scans/scan-1/reports/json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"scan":{"id":"scan-1"},"generator_version":"2.4.0"}`))
	})

	out, _, err := runCLI(t, env, "report", "view", "scan-1", "--format", "json")
	if err != nil {
		t.Fatalf("report view --format json: %v", err)
	}
	// Fields the client does not model survive, re-indented.
	requireContains(t, out, `"generator_version": "2.4.0"`)
	requireContains(t, out, "  \"scan\"")
}

func TestReportViewRejectsUnknownFormat(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, env, "report", "view", "scan-1", "--format", "yaml")
	if err == nil {
		t.Fatal("expected error for an unknown view format")
	}
	requireContains(t, err.Error(), "unknown format")
}

func TestReportExportFormats(t *testing.T) {
	env := setupCLITestEnv(t)

	env.mux.HandleFunc("GET /scans/scan-1/reports/json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"scan_id":"scan-1","issues":[]}`))
	})
	env.mux.HandleFunc("GET /scans/scan-1/reports/html", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body>scan-1</body></html>"))
	})
	env.mux.HandleFunc("GET /scans/scan-1/reports/csv", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte("rule,impact\nimage-alt,critical\n"))
	})

	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "reports", "scan-1.json")
	out, _, err := runCLI(t, env, "report", "export", "scan-1", "--output", jsonPath)
	if err != nil {
		t.Fatalf("report export json: %v", err)
	}
	requireContains(t, out, "Report exported to "+jsonPath)
	requireContains(t, out, "Format: JSON")
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("read exported json: %v", err)
	}
	if !strings.Contains(string(data), "  \"scan_id\"") {
		t.Fatalf("expected indented json export, got: %s", data)
	}

	htmlPath := filepath.Join(dir, "scan-1.html")
	out, _, err = runCLI(t, env, "report", "export", "scan-1", "--output", htmlPath, "--format", "html")
	if err != nil {
		t.Fatalf("report export html: %v", err)
	}
	requireContains(t, out, "Format: HTML")
	requireContains(t, out, "Open in browser: file://")
	data, err = os.ReadFile(htmlPath)
	if err != nil {
		t.Fatalf("read exported html: %v", err)
	}
	if !strings.Contains(string(data), "<html>") {
		t.Fatalf("unexpected html export: %s", data)
	}

	csvPath := filepath.Join(dir, "scan-1.csv")
	_, _, err = runCLI(t, env, "report", "export", "scan-1", "--output", csvPath, "--format", "csv")
	if err != nil {
		t.Fatalf("report export csv: %v", err)
	}
	data, err = os.ReadFile(csvPath)
	if err != nil {
		t.Fatalf("read exported csv: %v", err)
	}
	if !strings.Contains(string(data), "image-alt,critical") {
		t.Fatalf("unexpected csv export: %s", data)
	}
}

func TestReportExportRejectsUnknownFormat(t *testing.T) {
	env := setupCLITestEnv(t)

	target := filepath.Join(t.TempDir(), "report.pdf")
	_, _, err := runCLI(t, env, "report", "export", "scan-1", "--output", target, "--format", "pdf")
	if err == nil {
		t.Fatal("expected error for an unsupported export format")
	}
	requireContains(t, err.Error(), "unsupported report format")
}

func TestReportIssuesForwardsFilters(t *testing.T) {
	env := setupCLITestEnv(t)

	var query url.Values
	env.mux.HandleFunc("GET /issues", func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		writeJSONResponse(t, w, http.StatusOK, map[string]any{
			"issues": []map[string]string{
				{
					"id": "iss-1", "scan_id": "scan-1", "rule_id": "image-alt",
					"impact": "critical", "wcag_level": "A",
					"description": "Images must have alternate text", "status": "open",
				},
				{
					"id": "iss-2", "scan_id": "scan-1", "rule_id": "color-contrast",
					"impact": "serious", "wcag_level": "AA",
					"description": "Elements must have sufficient color contrast", "status": "open",
				},
			},
			"total": 5,
		})
	})

	out, _, err := runCLI(t, env, "report", "issues", "scan-1",
		"--impact", "critical", "--wcag-level", "AA", "--limit", "10")
	if err != nil {
		t.Fatalf("report issues: %v", err)
	}

	if got := query.Get("scan_id"); got != "scan-1" {
		t.Fatalf("scan_id = %q, want scan-1", got)
	}
	if got := query.Get("impact"); got != "critical" {
		t.Fatalf("impact = %q, want critical", got)
	}
	if got := query.Get("wcag_level"); got != "AA" {
		t.Fatalf("wcag_level = %q, want AA", got)
	}
	if got := query.Get("limit"); got != "10" {
		t.Fatalf("limit = %q, want 10", got)
	}

	requireContains(t, out, "Issues")
	requireContains(t, out, "image-alt")
	requireContains(t, out, "color-contrast")
	requireContains(t, out, "Showing 2 of 5 issues")
}

func TestReportIssuesEmpty(t *testing.T) {
	env := setupCLITestEnv(t)

	env.mux.HandleFunc("GET /issues", func(w http.ResponseWriter, r *http.Request) {
		writeJSONResponse(t, w, http.StatusOK, map[string]any{"issues": []any{}, "total": 0})
	})

	out, _, err := runCLI(t, env, "report", "issues", "scan-1")
	if err != nil {
		t.Fatalf("report issues: %v", err)
	}
	requireContains(t, out, "No issues found")
}

func TestReportViewMissingReport(t *testing.T) {
	env := setupCLITestEnv(t)

	env.mux.HandleFunc("GET /scans/scan-9/reports/json", func(w http.ResponseWriter, r *http.Request) {
		writeJSONResponse(t, w, http.StatusNotFound, map[string]string{"detail": "report not ready"})
	})

	_, _, err := runCLI(t, env, "report", "view", "scan-9")
	if err == nil {
		t.Fatal("expected error for a missing report")
	}
	requireContains(t, err.Error(), "has it completed")
}
