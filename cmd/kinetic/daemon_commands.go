package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"kinetic/internal/daemonclient"
	"kinetic/internal/daemonrun"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the kinetic daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			client := ctx.client()

			if status, err := client.Status(cmd.Context()); err == nil && status.Running {
				fmt.Fprintln(stdout, "Daemon already running")
				return nil
			}

			exe, err := daemonExecutable()
			if err != nil {
				return err
			}
			fmt.Fprintln(stdout, "Daemon not running, launching...")
			opts := daemonclient.LaunchOptions{}
			if ctx.configFlag != nil {
				opts.ConfigPath = *ctx.configFlag
			}
			if err := daemonclient.Launch(exe, opts); err != nil {
				return err
			}
			if err := client.WaitForReady(cmd.Context(), 10*time.Second); err != nil {
				return err
			}
			fmt.Fprintln(stdout, "Daemon started")
			return nil
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the kinetic daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			cfg := ctx.configValue()
			pid, err := daemonclient.StopProcess(daemonrun.PIDPath(cfg))
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Stop signal sent to daemon (pid %d)\n", pid)
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and marketplace status",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			status, err := ctx.client().Status(cmd.Context())
			if err != nil {
				for _, line := range renderSectionHeader("Daemon", colorize) {
					fmt.Fprintln(stdout, line)
				}
				fmt.Fprintln(stdout, renderStatusLine("Running", statusError, "daemon unreachable", colorize))
				return nil
			}

			for _, line := range renderSectionHeader("Daemon", colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprintln(stdout, renderStatusLine("Running", statusKindFromBool(status.Running), fmt.Sprintf("pid %d", status.PID), colorize))
			fmt.Fprintln(stdout, renderStatusLine("Catalog DB", statusInfo, status.CatalogDBPath, colorize))
			fmt.Fprintln(stdout, renderStatusLine("Lock file", statusInfo, status.LockFilePath, colorize))
			fmt.Fprintln(stdout, renderStatusLine("Live sessions", statusInfo, strconv.Itoa(status.LiveSessions), colorize))
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Services", colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprintln(stdout, renderStatusLine("Pinning", statusKindFromBool(status.PinningConfigured), "", colorize))
			fmt.Fprintln(stdout, renderStatusLine("Identity", statusKindFromBool(status.IdentityConfigured), "", colorize))
			fmt.Fprintln(stdout, renderStatusLine("Chain", statusKindFromBool(status.ChainConfigured), "", colorize))
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Catalog", colorize) {
				fmt.Fprintln(stdout, line)
			}
			rows := categoryRows(status.VideosByCategory)
			if len(rows) == 0 {
				fmt.Fprintln(stdout, "No videos published yet")
				return nil
			}
			fmt.Fprintln(stdout, renderTable([]string{"Category", "Videos"}, rows, []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}

	return []*cobra.Command{startCmd, stopCmd, statusCmd}
}

func categoryRows(counts map[string]int) [][]string {
	if len(counts) == 0 {
		return nil
	}
	categories := make([]string, 0, len(counts))
	for category := range counts {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	rows := make([][]string, 0, len(categories))
	for _, category := range categories {
		rows = append(rows, []string{category, strconv.Itoa(counts[category])})
	}
	return rows
}

func daemonExecutable() (string, error) {
	self, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	candidate := filepath.Join(filepath.Dir(self), "kineticd")
	if _, err := os.Stat(candidate); err == nil {
		return candidate, nil
	}
	return "kineticd", nil
}
