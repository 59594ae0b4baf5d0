package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"kinetic/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var follow bool
	var component string
	var level string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent daemon log output",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			if cfg == nil {
				return fmt.Errorf("configuration unavailable")
			}
			path := filepath.Join(cfg.Paths.LogDir, "kinetic.log")
			stdout := cmd.OutOrStdout()

			page, err := logs.Read(cmd.Context(), path, logs.Options{
				Cursor:    -1,
				Limit:     limit,
				Component: component,
				MinLevel:  level,
			})
			if err != nil {
				return err
			}
			for _, line := range page.Lines {
				fmt.Fprintln(stdout, line)
			}
			if !follow {
				return nil
			}

			cursor := page.Cursor
			for {
				next, err := logs.Read(cmd.Context(), path, logs.Options{
					Cursor:    cursor,
					Component: component,
					MinLevel:  level,
					Follow:    true,
					Wait:      2 * time.Second,
				})
				if err != nil {
					if cmd.Context().Err() != nil {
						return nil
					}
					return err
				}
				for _, line := range next.Lines {
					fmt.Fprintln(stdout, line)
				}
				cursor = next.Cursor
			}
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 100, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep streaming new log lines")
	cmd.Flags().StringVar(&component, "component", "", "Only show lines from one component")
	cmd.Flags().StringVar(&level, "level", "", "Minimum log level to show")
	return cmd
}
