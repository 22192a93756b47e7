package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"wcagscan/internal/api"
)

func newReportCommand(ctx *commandContext) *cobra.Command {
	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "View and export scan reports",
	}
	reportCmd.AddCommand(newReportViewCommand(ctx))
	reportCmd.AddCommand(newReportExportCommand(ctx))
	reportCmd.AddCommand(newReportIssuesCommand(ctx))
	return reportCmd
}

func newReportViewCommand(ctx *commandContext) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "view <scan-id>",
		Short: "Render the report for a completed scan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			switch format {
			case "json":
				report, err := client.Report(cmd.Context(), args[0])
				if err != nil {
					return reportFetchError(args[0], err)
				}
				return writeJSON(cmd, report)
			case "text":
				report, err := client.ReportDocument(cmd.Context(), args[0])
				if err != nil {
					return reportFetchError(args[0], err)
				}
				renderTextReport(cmd, report)
				return nil
			default:
				return fmt.Errorf("unknown format %q (expected text or json)", format)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format (text or json)")
	return cmd
}

func newReportExportCommand(ctx *commandContext) *cobra.Command {
	var outputPath string
	var format string

	cmd := &cobra.Command{
		Use:   "export <scan-id>",
		Short: "Export a report to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			body, err := client.ReportExport(cmd.Context(), args[0], format)
			if err != nil {
				return reportFetchError(args[0], err)
			}

			if format == "json" {
				var buf bytes.Buffer
				if json.Indent(&buf, body, "", "  ") == nil {
					body = buf.Bytes()
				}
			}
			if len(body) == 0 || body[len(body)-1] != '\n' {
				body = append(body, '\n')
			}

			if dir := filepath.Dir(outputPath); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("create output directory: %w", err)
				}
			}
			if err := os.WriteFile(outputPath, body, 0o644); err != nil {
				return fmt.Errorf("write report: %w", err)
			}

			stdout := cmd.OutOrStdout()
			fmt.Fprintf(stdout, "Report exported to %s\n", outputPath)
			fmt.Fprintf(stdout, "Format: %s\n", strings.ToUpper(format))
			if format == "html" {
				if abs, err := filepath.Abs(outputPath); err == nil {
					fmt.Fprintf(stdout, "Open in browser: file://%s\n", abs)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Destination file")
	cmd.Flags().StringVar(&format, "format", "json", "Report format (json, html, or csv)")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func newReportIssuesCommand(ctx *commandContext) *cobra.Command {
	var impact string
	var wcagLevel string
	var limit int

	cmd := &cobra.Command{
		Use:   "issues <scan-id>",
		Short: "List the issues found by a scan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			list, err := client.ListIssues(cmd.Context(), api.IssueFilter{
				ScanID:    args[0],
				Impact:    impact,
				WCAGLevel: wcagLevel,
				Limit:     limit,
			})
			if errors.Is(err, api.ErrNotFound) {
				return fmt.Errorf("scan %s not found", args[0])
			}
			if err != nil {
				return err
			}

			stdout := cmd.OutOrStdout()
			if len(list.Issues) == 0 {
				fmt.Fprintln(stdout, "No issues found")
				return nil
			}

			rows := make([][]string, 0, len(list.Issues))
			for _, issue := range list.Issues {
				rows = append(rows, []string{
					issue.ID,
					issue.RuleID,
					issue.Impact,
					issue.WCAGLevel,
					issue.Description,
					issue.Status,
				})
			}
			fmt.Fprintln(stdout, renderTitledTable("Issues", []tableColumn{
				column("ID"),
				column("Rule"),
				column("Impact"),
				column("WCAG"),
				column("Description").withMaxWidth(48),
				column("Status"),
			}, rows))
			fmt.Fprintf(stdout, "Showing %d of %d issues\n", len(list.Issues), list.Total)
			return nil
		},
	}

	cmd.Flags().StringVar(&impact, "impact", "", "Filter by impact (critical, serious, moderate, minor)")
	cmd.Flags().StringVar(&wcagLevel, "wcag-level", "", "Filter by WCAG level (A, AA, AAA)")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum issues to list")
	return cmd
}

func reportFetchError(scanID string, err error) error {
	if errors.Is(err, api.ErrNotFound) {
		return fmt.Errorf("no report for scan %s (has it completed?)", scanID)
	}
	return err
}

func renderTextReport(cmd *cobra.Command, report *api.Report) {
	stdout := cmd.OutOrStdout()
	colorize := shouldColorize(stdout)

	printSection := func(title string) {
		for _, line := range renderSectionHeader(title, colorize) {
			fmt.Fprintln(stdout, line)
		}
	}

	printSection("WCAG Scan Report")
	fmt.Fprintf(stdout, "Project: %s\n", report.Project.Name)
	fmt.Fprintf(stdout, "URL:     %s\n", report.Project.BaseURL)
	fmt.Fprintf(stdout, "Scan:    %s\n", report.Scan.ID)
	fmt.Fprintf(stdout, "Status:  %s\n", report.Scan.Status)
	fmt.Fprintln(stdout)

	printSection("Summary")
	fmt.Fprintf(stdout, "Total pages:  %d\n", report.Summary.TotalPages)
	fmt.Fprintf(stdout, "Total issues: %d\n", report.Summary.TotalIssues)

	if len(report.Summary.ByImpact) > 0 {
		rows := make([][]string, 0, len(report.Summary.ByImpact))
		for _, impact := range []string{"critical", "serious", "moderate", "minor"} {
			if count, ok := report.Summary.ByImpact[impact]; ok {
				rows = append(rows, []string{impact, strconv.Itoa(count)})
			}
		}
		fmt.Fprintln(stdout)
		printSection("Issues by Impact")
		fmt.Fprintln(stdout, renderTable([]tableColumn{
			column("Impact"), numericColumn("Count"),
		}, rows))
	}
	if len(report.Summary.ByWCAGLevel) > 0 {
		rows := make([][]string, 0, len(report.Summary.ByWCAGLevel))
		for _, level := range []string{"A", "AA", "AAA"} {
			if count, ok := report.Summary.ByWCAGLevel[level]; ok {
				rows = append(rows, []string{level, strconv.Itoa(count)})
			}
		}
		fmt.Fprintln(stdout)
		printSection("Issues by WCAG Level")
		fmt.Fprintln(stdout, renderTable([]tableColumn{
			column("Level"), numericColumn("Count"),
		}, rows))
	}

	printSection("Compliance Scores")
	fmt.Fprintf(stdout, "Overall: %s\n", renderScore(report.Scores.Overall, colorize))
	if len(report.Scores.ByPrinciple) > 0 {
		principles := make([]string, 0, len(report.Scores.ByPrinciple))
		for principle := range report.Scores.ByPrinciple {
			principles = append(principles, principle)
		}
		sort.Strings(principles)
		for _, principle := range principles {
			fmt.Fprintf(stdout, "%s%-12s %.1f/100\n", statusIndent, titleWord(principle)+":", report.Scores.ByPrinciple[principle])
		}
	}
	fmt.Fprintln(stdout)
	printSection("End of Report")
}

// renderScore colors the overall score by band: 90+ green, 70+ yellow,
// anything lower red.
func renderScore(score float64, colorize bool) string {
	rendered := fmt.Sprintf("%.1f/100", score)
	if !colorize {
		return rendered
	}
	switch {
	case score >= 90:
		return ansiGreen + rendered + ansiReset
	case score >= 70:
		return ansiYellow + rendered + ansiReset
	default:
		return ansiRed + rendered + ansiReset
	}
}

func titleWord(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
