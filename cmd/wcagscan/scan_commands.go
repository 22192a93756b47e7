package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"wcagscan/internal/api"
	"wcagscan/internal/history"
	"wcagscan/internal/poll"
	"wcagscan/internal/progress"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Start, follow, and inspect scans",
	}
	scanCmd.AddCommand(newScanStartCommand(ctx))
	scanCmd.AddCommand(newScanListCommand(ctx))
	scanCmd.AddCommand(newScanShowCommand(ctx))
	scanCmd.AddCommand(newScanStatusCommand(ctx))
	scanCmd.AddCommand(newScanCancelCommand(ctx))
	scanCmd.AddCommand(newScanDeleteCommand(ctx))
	scanCmd.AddCommand(newScanHistoryCommand(ctx))
	return scanCmd
}

func newScanStartCommand(ctx *commandContext) *cobra.Command {
	var wait bool
	var maxPages int
	var maxDepth int
	var scanners []string

	cmd := &cobra.Command{
		Use:   "start <project-id>",
		Short: "Start a scan for a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			client, err := ctx.client()
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()

			req := api.ScanRequest{
				MaxPages: maxPages,
				MaxDepth: maxDepth,
				Scanners: scanners,
			}
			if req.MaxPages <= 0 {
				req.MaxPages = cfg.Scan.MaxPages
			}
			if req.MaxDepth <= 0 {
				req.MaxDepth = cfg.Scan.MaxDepth
			}
			if len(req.Scanners) == 0 {
				req.Scanners = cfg.Scan.Scanners
			}

			scan, err := client.StartScan(cmd.Context(), args[0], req)
			if errors.Is(err, api.ErrNotFound) {
				return fmt.Errorf("project %s not found", args[0])
			}
			if err != nil {
				return err
			}

			recordScanStart(ctx, cmd, scan)
			fmt.Fprintf(stdout, "Scan %s started (%s)\n", scan.ID, scan.Status)

			if !wait {
				fmt.Fprintf(stdout, "Follow it with `wcagscan scan status %s --follow`\n", scan.ID)
				return nil
			}
			return followScan(ctx, cmd, client, scan.ID)
		},
	}

	cmd.Flags().BoolVar(&wait, "wait", false, "Follow progress until the scan finishes")
	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "Page limit for this scan")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "Crawl depth for this scan")
	cmd.Flags().StringSliceVar(&scanners, "scanner", nil, "Scanner engines to run")
	return cmd
}

func newScanListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	var projectID string
	var status string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent scans",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			list, err := client.ListScans(cmd.Context(), api.ScanFilter{
				ProjectID: projectID,
				Status:    status,
				Limit:     limit,
			})
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, list)
			}

			stdout := cmd.OutOrStdout()
			if len(list.Scans) == 0 {
				fmt.Fprintln(stdout, "No scans found")
				return nil
			}

			rows := make([][]string, 0, len(list.Scans))
			for _, scan := range list.Scans {
				issues := ""
				if scan.Summary != nil {
					issues = strconv.Itoa(scan.Summary.TotalIssues)
				}
				rows = append(rows, []string{
					scan.ID,
					string(scan.Status),
					scan.CreatedAt.Local().Format("2006-01-02 15:04"),
					issues,
				})
			}
			fmt.Fprintln(stdout, renderTable([]tableColumn{
				column("ID"),
				column("Status"),
				column("Created"),
				numericColumn("Issues"),
			}, rows))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON output")
	cmd.Flags().StringVar(&projectID, "project", "", "Filter by project id")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum scans to list")
	return cmd
}

func newScanShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <scan-id>",
		Short: "Show one scan with its summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			scan, err := client.GetScan(cmd.Context(), args[0])
			if errors.Is(err, api.ErrNotFound) {
				return fmt.Errorf("scan %s not found", args[0])
			}
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, scan)
			}
			renderScanDetail(cmd, scan)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON output")
	return cmd
}

func newScanStatusCommand(ctx *commandContext) *cobra.Command {
	var follow bool

	cmd := &cobra.Command{
		Use:   "status <scan-id>",
		Short: "Show or follow a scan's live status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			if follow {
				return followScan(ctx, cmd, client, args[0])
			}

			snapshot, err := client.ScanStatus(cmd.Context(), args[0])
			if errors.Is(err, api.ErrNotFound) {
				return fmt.Errorf("scan %s not found", args[0])
			}
			if err != nil {
				return err
			}

			stdout := cmd.OutOrStdout()
			fmt.Fprintf(stdout, "Status: %s\n", snapshot.Status)
			if snapshot.Progress != nil && snapshot.Progress.TotalPages > 0 {
				fmt.Fprintf(stdout, "Pages:  %d/%d scanned (%d crawled)\n",
					snapshot.Progress.PagesScanned, snapshot.Progress.TotalPages, snapshot.Progress.PagesCrawled)
				if snapshot.Progress.CurrentPage != "" {
					fmt.Fprintf(stdout, "Now:    %s\n", snapshot.Progress.CurrentPage)
				}
			}
			if snapshot.ErrorMessage != "" {
				fmt.Fprintf(stdout, "Error:  %s\n", snapshot.ErrorMessage)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&follow, "follow", false, "Poll until the scan reaches a terminal state")
	return cmd
}

func newScanCancelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <scan-id>",
		Short: "Cancel a running scan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			if err := client.CancelScan(cmd.Context(), args[0]); err != nil {
				if errors.Is(err, api.ErrNotFound) {
					return fmt.Errorf("scan %s not found", args[0])
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cancel requested for scan %s\n", args[0])
			return nil
		},
	}
}

func newScanDeleteCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <scan-id>",
		Short: "Delete a scan and its reports",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return errors.New("refusing to delete without --force")
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}
			if err := client.DeleteScan(cmd.Context(), args[0]); err != nil {
				if errors.Is(err, api.ErrNotFound) {
					return fmt.Errorf("scan %s not found", args[0])
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted scan %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Confirm deletion")
	return cmd
}

func newScanHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List scans launched from this machine",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}

			stdout := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(stdout, "No local scan history")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				issues := ""
				if entry.TotalIssues != nil {
					issues = strconv.Itoa(*entry.TotalIssues)
				}
				score := ""
				if entry.Score != nil {
					score = fmt.Sprintf("%.1f", *entry.Score)
				}
				rows = append(rows, []string{
					entry.ScanID,
					entry.ProjectName,
					entry.Status,
					entry.StartedAt.Local().Format("2006-01-02 15:04"),
					issues,
					score,
				})
			}
			fmt.Fprintln(stdout, renderTable([]tableColumn{
				column("Scan"),
				column("Project"),
				column("Status"),
				column("Started"),
				numericColumn("Issues"),
				numericColumn("Score"),
			}, rows))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum entries to list")
	return cmd
}

// followScan polls the scan with the configured interval, rendering progress
// to a bar on TTYs and plain lines otherwise. A terminal failed or cancelled
// scan is an outcome, not an error; only fetch failures return non-nil.
func followScan(ctx *commandContext, cmd *cobra.Command, client *api.Client, scanID string) error {
	cfg := ctx.configValue()
	interval := time.Duration(cfg.Scan.PollInterval) * time.Second

	stdout := cmd.OutOrStdout()
	var sink poll.Sink
	if file, ok := stdout.(*os.File); ok && shouldColorize(file) {
		sink = progress.NewBar(stdout)
	} else {
		sink = &progress.PlainSink{Out: stdout}
	}

	poller := poll.New(client, interval)
	snapshot, err := poller.Poll(cmd.Context(), scanID, sink)
	if err != nil {
		return err
	}

	var detail *api.Scan
	if snapshot.Status == api.StatusCompleted {
		detail, err = client.GetScan(cmd.Context(), scanID)
		if err != nil {
			ctx.loggerValue().Warn("fetch completed scan detail", "scan", scanID, "error", err)
		}
	}
	recordScanOutcome(ctx, cmd, scanID, snapshot, detail)

	if detail != nil {
		renderScanDetail(cmd, detail)
	}
	return nil
}

func renderScanDetail(cmd *cobra.Command, scan *api.Scan) {
	stdout := cmd.OutOrStdout()
	fmt.Fprintf(stdout, "Scan:    %s\n", scan.ID)
	fmt.Fprintf(stdout, "Project: %s\n", scan.ProjectID)
	fmt.Fprintf(stdout, "Status:  %s\n", scan.Status)
	if scan.ErrorMessage != "" {
		fmt.Fprintf(stdout, "Error:   %s\n", scan.ErrorMessage)
	}
	if scan.Summary != nil {
		fmt.Fprintf(stdout, "Issues:  %d\n", scan.Summary.TotalIssues)
		if len(scan.Summary.ByImpact) > 0 {
			rows := make([][]string, 0, len(scan.Summary.ByImpact))
			for _, impact := range []string{"critical", "serious", "moderate", "minor"} {
				if count, ok := scan.Summary.ByImpact[impact]; ok {
					rows = append(rows, []string{impact, strconv.Itoa(count)})
				}
			}
			fmt.Fprintln(stdout, renderTable([]tableColumn{
				column("Impact"),
				numericColumn("Count"),
			}, rows))
		}
	}
	if scan.Scores != nil {
		fmt.Fprintf(stdout, "Score:   %.1f\n", scan.Scores.Overall)
	}
}

// recordScanStart is best effort: a broken local history database never
// blocks the scan itself.
func recordScanStart(ctx *commandContext, cmd *cobra.Command, scan *api.Scan) {
	cfg := ctx.configValue()
	store, err := history.Open(cfg)
	if err != nil {
		ctx.loggerValue().Warn("open scan history", "error", err)
		return
	}
	defer store.Close()

	err = store.Record(cmd.Context(), history.Entry{
		ScanID:    scan.ID,
		ProjectID: scan.ProjectID,
		ScanType:  scan.ScanType,
		Status:    string(scan.Status),
		StartedAt: scan.CreatedAt,
	})
	if err != nil {
		ctx.loggerValue().Warn("record scan history", "scan", scan.ID, "error", err)
	}
}

func recordScanOutcome(ctx *commandContext, cmd *cobra.Command, scanID string, snapshot *api.ScanStatusSnapshot, detail *api.Scan) {
	cfg := ctx.configValue()
	store, err := history.Open(cfg)
	if err != nil {
		ctx.loggerValue().Warn("open scan history", "error", err)
		return
	}
	defer store.Close()

	var totalIssues *int
	var score *float64
	if detail != nil {
		if detail.Summary != nil {
			totalIssues = &detail.Summary.TotalIssues
		}
		if detail.Scores != nil {
			score = &detail.Scores.Overall
		}
	}

	err = store.UpdateOutcome(cmd.Context(), scanID, string(snapshot.Status), totalIssues, score, snapshot.ErrorMessage)
	if err != nil {
		ctx.loggerValue().Warn("update scan history", "scan", scanID, "error", err)
	}
}
