package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"reelcut/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var lines int
	var raw bool

	cmd := &cobra.Command{
		Use:   "logs [run-id]",
		Short: "Show the latest run log, or the log records of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			opts := logs.TailOptions{Offset: -1, Lines: lines}
			if lines <= 0 {
				opts.Offset = 0
			}
			var path string
			if len(args) == 1 {
				runID := strings.TrimSpace(args[0])
				path, err = logs.FindRun(cfg.Paths.LogDir, runID)
				opts.Match = logs.MatchRun(runID)
			} else {
				path, err = logs.Latest(cfg.Paths.LogDir)
			}
			if errors.Is(err, logs.ErrNoLogs) {
				fmt.Fprintln(cmd.OutOrStdout(), "No log entries available")
				return nil
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printed := false
			for {
				result, err := logs.Tail(cmd.Context(), path, opts)
				if err != nil {
					if cmd.Context().Err() != nil {
						return nil
					}
					return fmt.Errorf("tail %s: %w", path, err)
				}
				for _, line := range result.Lines {
					if raw {
						fmt.Fprintln(out, line)
					} else {
						fmt.Fprintln(out, logs.FormatLine(line))
					}
					printed = true
				}
				if !follow {
					if !printed {
						fmt.Fprintln(out, "No log entries available")
					}
					return nil
				}
				opts.Offset = result.Offset
				opts.Wait = time.Second
			}
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow log output")
	cmd.Flags().IntVarP(&lines, "lines", "n", 20, "Number of lines to show (0 for all)")
	cmd.Flags().BoolVar(&raw, "json", false, "Print raw JSON records")
	return cmd
}
