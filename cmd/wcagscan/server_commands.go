package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"wcagscan/internal/supervise"
)

func newServerCommand(ctx *commandContext) *cobra.Command {
	serverCmd := &cobra.Command{
		Use:   "server",
		Short: "Manage the local scanner server process",
	}
	serverCmd.AddCommand(newServerStartCommand(ctx))
	serverCmd.AddCommand(newServerStopCommand(ctx))
	serverCmd.AddCommand(newServerStatusCommand(ctx))
	serverCmd.AddCommand(newServerRestartCommand(ctx))
	return serverCmd
}

func newServerStartCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the scanner server in the background",
		RunE: func(cmd *cobra.Command, args []string) error {
			sup, err := ctx.supervisor()
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()

			pid, err := sup.Start(cmd.Context())
			var already *supervise.AlreadyRunningError
			if errors.As(err, &already) {
				fmt.Fprintf(stdout, "Server already running (pid %d)\n", already.PID)
				return nil
			}
			var startErr *supervise.StartFailedError
			if errors.As(err, &startErr) {
				fmt.Fprintln(stdout, "Server exited during startup:")
				if startErr.Output != "" {
					fmt.Fprintln(stdout, startErr.Output)
				}
				return errors.New("server failed to start")
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(stdout, "Server started (pid %d) on %s\n", pid, ctx.configValue().ServerAddr())
			return nil
		},
	}
}

func newServerStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the scanner server",
		RunE: func(cmd *cobra.Command, args []string) error {
			sup, err := ctx.supervisor()
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()

			result, err := sup.Stop(cmd.Context())
			if errors.Is(err, supervise.ErrNotRunning) {
				fmt.Fprintln(stdout, "Server is not running")
				return nil
			}
			if err != nil {
				return err
			}

			if result.Forced {
				fmt.Fprintf(stdout, "Server did not stop gracefully; killed pid %d\n", result.PID)
			} else {
				fmt.Fprintf(stdout, "Server stopped (pid %d)\n", result.PID)
			}
			return nil
		},
	}
}

func newServerStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show server process and service health",
		RunE: func(cmd *cobra.Command, args []string) error {
			sup, err := ctx.supervisor()
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			status, err := sup.Status(cmd.Context())
			if err != nil {
				return err
			}

			for _, line := range renderSectionHeader("Server Status", colorize) {
				fmt.Fprintln(stdout, line)
			}
			if !status.Running {
				fmt.Fprintln(stdout, renderStatusLine("Process", statusError, "not running", colorize))
				return nil
			}

			fmt.Fprintln(stdout, renderStatusLine("Process", statusOK, fmt.Sprintf("running (pid %d)", status.PID), colorize))
			fmt.Fprintln(stdout, renderStatusLine("Address", statusInfo, ctx.configValue().ServerAddr(), colorize))
			if !status.StartedAt.IsZero() {
				uptime := time.Since(status.StartedAt).Round(time.Second)
				fmt.Fprintln(stdout, renderStatusLine("Uptime", statusInfo, fmt.Sprintf("%s (since %s)", uptime, humanize.Time(status.StartedAt)), colorize))
			}
			if status.MemoryBytes > 0 {
				fmt.Fprintln(stdout, renderStatusLine("Memory", statusInfo, humanize.IBytes(status.MemoryBytes), colorize))
				fmt.Fprintln(stdout, renderStatusLine("CPU", statusInfo, fmt.Sprintf("%.1f%%", status.CPUPercent), colorize))
			}

			if status.Reachable {
				fmt.Fprintln(stdout, renderStatusLine("API", statusOK, "healthy", colorize))
			} else {
				fmt.Fprintln(stdout, renderStatusLine("API", statusWarn, "not responding", colorize))
			}
			return nil
		},
	}
}

func newServerRestartCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "restart",
		Short: "Restart the scanner server",
		RunE: func(cmd *cobra.Command, args []string) error {
			sup, err := ctx.supervisor()
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()

			pid, err := sup.Restart(cmd.Context())
			var startErr *supervise.StartFailedError
			if errors.As(err, &startErr) {
				fmt.Fprintln(stdout, "Server exited during startup:")
				if startErr.Output != "" {
					fmt.Fprintln(stdout, startErr.Output)
				}
				return errors.New("server failed to restart")
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(stdout, "Server restarted (pid %d)\n", pid)
			return nil
		},
	}
}
