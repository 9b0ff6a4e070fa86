package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"reelcut/internal/config"
	"reelcut/internal/reframe"
)

func newTrackCommand(ctx *commandContext) *cobra.Command {
	var start, end float64

	cmd := &cobra.Command{
		Use:   "track <video>",
		Short: "Show face tracking samples and the chosen crop for one span",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			source, err := config.ExpandPath(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("resolve video path: %w", err)
			}
			logger, err := ctx.runLogger()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			sess, err := newSession(cfg, logger, false)
			if err != nil {
				return err
			}
			defer sess.Close()

			result, err := sess.processor.Track(cmd.Context(), source, start, end)
			if err != nil {
				return err
			}
			writeTrackReport(cmd.OutOrStdout(), sess.detector.Name(), start, result)
			return nil
		},
	}

	cmd.Flags().Float64Var(&start, "start", 0, "Span start in seconds")
	cmd.Flags().Float64Var(&end, "end", 0, "Span end in seconds")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func writeTrackReport(out io.Writer, detector string, offset float64, result reframe.Result) {
	if result.Skipped {
		fmt.Fprintf(out, "Source is already vertical; no crop applied (%s)\n", result.Window)
		return
	}
	rows := make([][]string, 0, len(result.Samples))
	for i, s := range result.Samples {
		smoothed := "-"
		if i < len(result.Smoothed) {
			smoothed = strconv.FormatFloat(result.Smoothed[i], 'f', 1, 64)
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			strconv.FormatFloat(s.Timestamp, 'f', 2, 64),
			formatTimestamp(offset + s.Timestamp),
			strconv.Itoa(s.Faces),
			strconv.FormatFloat(s.X, 'f', 0, 64),
			yesNo(s.Detected),
			smoothed,
		})
	}
	fmt.Fprintln(out, renderTable(rows, ">#", ">Clip t", ">Source t", ">Faces", ">X", "Detected", ">Smoothed"))
	fmt.Fprintf(out, "Detector: %s\n", detector)
	fmt.Fprintf(out, "Detections: %d of %d samples\n", result.Detections(), len(result.Samples))
	fmt.Fprintf(out, "Center: %d\n", result.Center)
	fmt.Fprintf(out, "Crop: %s\n", result.Window)
}
