package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"reelcut/internal/config"
	"reelcut/internal/fileutil"
	"reelcut/internal/language"
	"reelcut/internal/logging"
	"reelcut/internal/transcript"
)

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "transcribe <video>",
		Short: "Produce a word-timed WhisperX transcript for a video",
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
			if _, err := os.Stat(source); err != nil {
				return fmt.Errorf("inspect video: %w", err)
			}
			logger, err := ctx.runLogger()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			target := strings.TrimSpace(outPath)
			if target == "" {
				target = strings.TrimSuffix(source, filepath.Ext(source)) + ".json"
			} else if target, err = config.ExpandPath(target); err != nil {
				return fmt.Errorf("resolve output path: %w", err)
			}

			workDir, err := os.MkdirTemp(cfg.Paths.TempDir, "transcribe-")
			if err != nil {
				return fmt.Errorf("create work dir: %w", err)
			}
			defer os.RemoveAll(workDir)

			hint := ""
			if probe, err := newProbe(cfg)(cmd.Context(), source); err == nil {
				hint = probe.AudioLanguage()
			} else {
				logger.Debug("language probe failed", logging.Error(err))
			}

			svc := newTranscriber(cfg)
			logger.Info("transcription started",
				logging.String("source", source),
				logging.String("model", svc.Model()),
				logging.String("language_hint", hint),
			)
			jsonPath, err := svc.Transcribe(cmd.Context(), source, workDir, hint)
			if err != nil {
				return err
			}
			tr, err := transcript.Load(jsonPath)
			if err != nil {
				return fmt.Errorf("read transcript: %w", err)
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
			if _, err := fileutil.CopyFile(jsonPath, target); err != nil {
				return fmt.Errorf("write transcript: %w", err)
			}

			spoken := "language unknown"
			if tr.Language != "" {
				spoken = language.DisplayName(tr.Language)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote transcript to %s (%s, %d segments, %d words)\n",
				target, spoken, len(tr.Segments), len(tr.Words()))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Destination JSON path (default: next to the video)")
	return cmd
}
