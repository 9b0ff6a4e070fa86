package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"reelcut/internal/logging"
	"reelcut/internal/pipeline"
	"reelcut/internal/staging"
)

func newCleanCommand(ctx *commandContext) *cobra.Command {
	var all bool
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove work directories left behind by interrupted runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			olderThan := pipeline.StaleWorkDirAge
			if all {
				lock := flock.New(filepath.Join(cfg.Paths.OutputDir, pipeline.LockFileName))
				ok, err := lock.TryLock()
				if err != nil {
					return fmt.Errorf("lock output dir: %w", err)
				}
				if !ok {
					return fmt.Errorf("a run is writing to %s; retry without --all", cfg.Paths.OutputDir)
				}
				defer lock.Unlock()
				olderThan = 0
			}

			if dryRun {
				dirs, err := staging.List(cfg.Paths.TempDir)
				if err != nil {
					return fmt.Errorf("list work dirs: %w", err)
				}
				cutoff := time.Now().Add(-olderThan)
				var rows [][]string
				for _, dir := range dirs {
					if olderThan > 0 && !dir.ModTime.Before(cutoff) {
						continue
					}
					rows = append(rows, []string{dir.Name, formatAge(time.Since(dir.ModTime)), humanBytes(dir.Size)})
				}
				if len(rows) == 0 {
					fmt.Fprintln(out, "Nothing to clean")
					return nil
				}
				fmt.Fprintln(out, renderTable(rows, "Directory", ">Age", ">Size"))
				return nil
			}

			result := staging.Sweep(cmd.Context(), cfg.Paths.TempDir, olderThan, nil, logging.NewNop())
			for _, failure := range result.Errors {
				fmt.Fprintf(cmd.ErrOrStderr(), "could not remove %s: %v\n", failure.Path, failure.Err)
			}
			if len(result.Removed) == 0 {
				fmt.Fprintln(out, "Nothing to clean")
			} else {
				fmt.Fprintf(out, "Removed %d work director%s, freed %s\n",
					len(result.Removed), plural(len(result.Removed), "y", "ies"), humanBytes(result.Freed()))
			}
			if len(result.Errors) > 0 {
				return fmt.Errorf("%d work directories could not be removed", len(result.Errors))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Remove every work directory, not only stale ones")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List what would be removed")
	return cmd
}

func formatAge(d time.Duration) string {
	switch {
	case d >= 24*time.Hour:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	case d >= time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
