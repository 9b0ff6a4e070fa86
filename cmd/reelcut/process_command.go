package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"reelcut/internal/config"
	"reelcut/internal/history"
	"reelcut/internal/pipeline"
)

type processOptions struct {
	transcript string
	manifest   string
	clips      int
	minSeconds float64
	maxSeconds float64
	style      string
	noCaptions bool
	skipChecks bool
}

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var opts processOptions

	cmd := &cobra.Command{
		Use:   "process <video>",
		Short: "Select, reframe, caption and encode clips from a video",
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

			if !opts.skipChecks {
				if err := runBlockingChecks(cmd, cfg, logger); err != nil {
					return err
				}
			}

			sess, err := newSession(cfg, logger, true)
			if err != nil {
				return err
			}
			defer sess.Close()

			result, runErr := sess.processor.Process(cmd.Context(), pipeline.Request{
				Source:         source,
				TranscriptPath: opts.transcript,
				ManifestPath:   opts.manifest,
				Clips:          opts.clips,
				MinSeconds:     opts.minSeconds,
				MaxSeconds:     opts.maxSeconds,
				Style:          opts.style,
				NoCaptions:     opts.noCaptions,
			})
			if result != nil && len(result.Outputs) > 0 {
				writeProcessSummary(cmd.OutOrStdout(), cfg, result)
			}
			if ctx.logPath != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Log: %s\n", ctx.logPath)
			}
			return runErr
		},
	}

	cmd.Flags().StringVarP(&opts.transcript, "transcript", "t", "", "WhisperX JSON transcript to use instead of transcribing")
	cmd.Flags().StringVarP(&opts.manifest, "manifest", "m", "", "JSON list of clips to cut instead of selecting")
	cmd.Flags().IntVarP(&opts.clips, "clips", "n", 0, "Number of clips (default selection.clips)")
	cmd.Flags().Float64Var(&opts.minSeconds, "min", 0, "Minimum clip length in seconds (default selection.min_seconds)")
	cmd.Flags().Float64Var(&opts.maxSeconds, "max", 0, "Maximum clip length in seconds (default selection.max_seconds)")
	cmd.Flags().StringVarP(&opts.style, "style", "s", "", "Caption style key or menu number (see `reelcut styles`)")
	cmd.Flags().BoolVar(&opts.noCaptions, "no-captions", false, "Encode clips without caption overlays")
	cmd.Flags().BoolVar(&opts.skipChecks, "skip-checks", false, "Skip preflight checks")
	return cmd
}

func writeProcessSummary(out io.Writer, cfg *config.Config, result *pipeline.Result) {
	rows := make([][]string, 0, len(result.Outputs))
	var total int64
	for _, o := range result.Outputs {
		status := string(o.Status)
		target := ""
		if o.Status == history.StatusCompleted {
			target = filepath.Base(o.Path)
			total += o.SizeBytes
		} else if o.Err != nil {
			target = o.Err.Error()
		}
		size := "-"
		if o.SizeBytes > 0 {
			size = humanBytes(o.SizeBytes)
		}
		rows = append(rows, []string{
			strconv.Itoa(o.Index),
			o.Spec.Title,
			formatSpan(o.Spec.Start, o.Spec.End),
			strconv.Itoa(o.Spec.Points()),
			o.Window.String(),
			strconv.Itoa(o.Words),
			size,
			status,
			target,
		})
	}

	fmt.Fprintf(out, "%s (%s selection)\n", result.Title, result.Method)
	fmt.Fprintln(out, renderTable(rows, ">#", "Title", "Span", ">Score", "Crop", ">Words", ">Size", "Status", "Output"))
	fmt.Fprintf(out, "%d of %d clips written to %s (%s)\n",
		result.Succeeded(), len(result.Outputs), cfg.Paths.OutputDir, humanBytes(total))
}
