package main

import (
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"wcagscan/internal/api"
)

func TestScanStartWaitRendersSummaryAndRecordsHistory(t *testing.T) {
	env := setupCLITestEnv(t)

	created := time.Now().UTC()
	env.mux.HandleFunc("POST /projects/proj-1/scans", func(w http.ResponseWriter, r *http.Request) {
		writeJSONResponse(t, w, http.StatusCreated, api.Scan{
			ID:        "scan-1",
			ProjectID: "proj-1",
			Status:    api.StatusQueued,
			CreatedAt: created,
		})
	})

	var polls atomic.Int64
	env.mux.HandleFunc("GET /scans/scan-1/status", func(w http.ResponseWriter, r *http.Request) {
		if polls.Add(1) == 1 {
			writeJSONResponse(t, w, http.StatusOK, api.ScanStatusSnapshot{
				Status:   api.StatusScanning,
				Progress: &api.ScanProgress{PagesScanned: 2, TotalPages: 4},
			})
			return
		}
		writeJSONResponse(t, w, http.StatusOK, api.ScanStatusSnapshot{
			Status:   api.StatusCompleted,
			Progress: &api.ScanProgress{PagesScanned: 4, TotalPages: 4},
		})
	})
	env.mux.HandleFunc("GET /scans/scan-1", func(w http.ResponseWriter, r *http.Request) {
		writeJSONResponse(t, w, http.StatusOK, api.Scan{
			ID:        "scan-1",
			ProjectID: "proj-1",
			Status:    api.StatusCompleted,
			Summary:   &api.ScanSummary{TotalIssues: 9, ByImpact: map[string]int{"serious": 4, "minor": 5}},
			Scores:    &api.ScanScores{Overall: 81.5},
			CreatedAt: created,
		})
	})

	out, _, err := runCLI(t, env, "scan", "start", "proj-1", "--wait")
	if err != nil {
		t.Fatalf("scan start --wait: %v", err)
	}
	requireContains(t, out, "Scan scan-1 started")
	requireContains(t, out, "Scan completed successfully")
	requireContains(t, out, "Issues:  9")
	requireContains(t, out, "Score:   81.5")
	if polls.Load() < 2 {
		t.Fatalf("expected at least 2 status polls, got %d", polls.Load())
	}

	out, _, err = runCLI(t, env, "scan", "history")
	if err != nil {
		t.Fatalf("scan history: %v", err)
	}
	requireContains(t, out, "scan-1")
	requireContains(t, out, "completed")
	requireContains(t, out, "9")
}

func TestScanWaitFailedScanExitsZero(t *testing.T) {
	env := setupCLITestEnv(t)

	env.mux.HandleFunc("GET /scans/scan-9/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSONResponse(t, w, http.StatusOK, api.ScanStatusSnapshot{
			Status:       api.StatusFailed,
			ErrorMessage: "crawler crashed",
		})
	})

	out, _, err := runCLI(t, env, "scan", "status", "scan-9", "--follow")
	if err != nil {
		t.Fatalf("a failed scan is an outcome, not a CLI error: %v", err)
	}
	requireContains(t, out, "Scan failed: crawler crashed")
}

func TestScanFollowUnreachableServiceFails(t *testing.T) {
	env := setupCLITestEnv(t)
	env.server.Close()

	_, _, err := runCLI(t, env, "scan", "status", "scan-1", "--follow")
	if err == nil {
		t.Fatal("expected error when the service is unreachable")
	}
}

func TestScanStatusSingleShot(t *testing.T) {
	env := setupCLITestEnv(t)

	env.mux.HandleFunc("GET /scans/scan-2/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSONResponse(t, w, http.StatusOK, api.ScanStatusSnapshot{
			Status: api.StatusCrawling,
			Progress: &api.ScanProgress{
				PagesCrawled: 7,
				PagesScanned: 3,
				TotalPages:   10,
				CurrentPage:  "https://example.com/pricing",
			},
		})
	})

	out, _, err := runCLI(t, env, "scan", "status", "scan-2")
	if err != nil {
		t.Fatalf("scan status: %v", err)
	}
	requireContains(t, out, "Status: crawling")
	requireContains(t, out, "3/10 scanned")
	requireContains(t, out, "https://example.com/pricing")
}

func TestScanListRendersTable(t *testing.T) {
	env := setupCLITestEnv(t)

	env.mux.HandleFunc("GET /scans", func(w http.ResponseWriter, r *http.Request) {
		writeJSONResponse(t, w, http.StatusOK, api.ScanList{
			Scans: []api.Scan{
				{ID: "scan-1", Status: api.StatusCompleted, CreatedAt: time.Now(), Summary: &api.ScanSummary{TotalIssues: 3}},
				{ID: "scan-2", Status: api.StatusScanning, CreatedAt: time.Now()},
			},
			Total: 2,
		})
	})

	out, _, err := runCLI(t, env, "scan", "list")
	if err != nil {
		t.Fatalf("scan list: %v", err)
	}
	requireContains(t, out, "scan-1")
	requireContains(t, out, "scan-2")
	requireContains(t, out, "completed")
}

func TestScanNotFound(t *testing.T) {
	env := setupCLITestEnv(t)

	env.mux.HandleFunc("GET /scans/missing/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSONResponse(t, w, http.StatusNotFound, map[string]string{"detail": "scan not found"})
	})

	_, _, err := runCLI(t, env, "scan", "status", "missing")
	if err == nil {
		t.Fatal("expected error for a missing scan")
	}
	requireContains(t, err.Error(), "not found")
}
