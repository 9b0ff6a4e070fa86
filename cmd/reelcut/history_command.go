package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"reelcut/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var showClips bool

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recent runs, or the clips of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cfg.HistoryPath())
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			if len(args) == 1 {
				run, err := store.GetRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if run == nil {
					return fmt.Errorf("run %s not found", args[0])
				}
				return writeRunClips(cmd, store, out, *run)
			}

			runs, err := store.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			writeRuns(out, runs)
			if showClips {
				for _, run := range runs {
					if err := writeRunClips(cmd, store, out, run); err != nil {
						return err
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 10, "Number of runs to show")
	cmd.Flags().BoolVar(&showClips, "clips", false, "Also list the clips of each run")
	return cmd
}

func writeRuns(out io.Writer, runs []history.Run) {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			run.ID,
			run.StartedAt.Local().Format("2006-01-02 15:04"),
			runDuration(run),
			run.Title,
			filepath.Base(run.SourcePath),
			run.Style,
			fmt.Sprintf("%d/%d", run.ClipsSucceeded, run.ClipsRequested),
			string(run.Status),
		})
	}
	fmt.Fprintln(out, renderTable(rows, "Run", "Started", ">Took", "Title", "Source", "Style", ">Clips", "Status"))
}

func writeRunClips(cmd *cobra.Command, store *history.Store, out io.Writer, run history.Run) error {
	clips, err := store.ClipsForRun(cmd.Context(), run.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Run %s: %s [%s]\n", run.ID, run.Title, run.Status)
	if run.ErrorMessage != "" {
		fmt.Fprintf(out, "Error: %s\n", run.ErrorMessage)
	}
	if len(clips) == 0 {
		fmt.Fprintln(out, "No clips recorded")
		return nil
	}
	rows := make([][]string, 0, len(clips))
	for _, c := range clips {
		crop := "uncropped"
		if c.Cropped {
			crop = fmt.Sprintf("%d+%d", c.CropWidth, c.CropLeft)
		}
		result := filepath.Base(c.OutputPath)
		if c.Status != history.StatusCompleted {
			result = c.ErrorMessage
		}
		size := "-"
		if c.SizeBytes > 0 {
			size = humanBytes(c.SizeBytes)
		}
		rows = append(rows, []string{
			strconv.Itoa(c.Index),
			c.Title,
			formatSpan(c.Start, c.End),
			strconv.Itoa(c.Score),
			crop,
			strconv.Itoa(c.Detections),
			strconv.Itoa(c.CaptionWords),
			size,
			string(c.Status),
			result,
		})
	}
	fmt.Fprintln(out, renderTable(rows, ">#", "Title", "Span", ">Score", "Crop", ">Faces", ">Words", ">Size", "Status", "Output"))
	return nil
}

func runDuration(run history.Run) string {
	if run.FinishedAt == nil {
		return "-"
	}
	return run.FinishedAt.Sub(run.StartedAt).Round(time.Second).String()
}
