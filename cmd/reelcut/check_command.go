package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"reelcut/internal/config"
	"reelcut/internal/deps"
	"reelcut/internal/logging"
	"reelcut/internal/preflight"
)

var errPreflightFailed = errors.New("preflight checks failed")

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report external tools, directories, detector and LLM readiness",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			results, statuses := collectChecks(cmd.Context(), cfg, logging.NewNop())

			report := newCheckReport(out)
			report.section("Configuration")
			configDetail := ctx.configPath
			if !ctx.configSeen {
				configDetail += " (not found; defaults in use)"
			}
			report.add("Config file", levelNote, configDetail)

			report.section("External tools")
			for _, s := range statuses {
				report.add(s.Name, dependencyLevel(s), dependencyDetail(s))
			}

			report.section("Preflight")
			for _, r := range results {
				report.add(r.Name, resultLevel(r), r.Detail)
			}
			if err := report.render(out); err != nil {
				return err
			}

			return checkFailures(results, statuses)
		},
	}
}

func collectChecks(ctx context.Context, cfg *config.Config, logger *slog.Logger) ([]preflight.Result, []deps.Status) {
	return preflight.RunAll(ctx, cfg, logger), preflight.CheckSystemDeps(ctx, cfg)
}

// runBlockingChecks runs preflight before processing and refuses to start
// when a required check fails.
func runBlockingChecks(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) error {
	results, statuses := collectChecks(cmd.Context(), cfg, logger)
	for _, r := range results {
		if !r.Passed {
			logger.Warn("preflight check failed",
				logging.String("check", r.Name),
				logging.String("detail", r.Detail),
				logging.Bool("optional", r.Optional),
			)
		}
	}
	return checkFailures(results, statuses)
}

func checkFailures(results []preflight.Result, statuses []deps.Status) error {
	var failures []string
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			failures = append(failures, fmt.Sprintf("%s: %s", s.Name, s.Detail))
		}
	}
	for _, r := range preflight.Blocking(results) {
		failures = append(failures, fmt.Sprintf("%s: %s", r.Name, r.Detail))
	}
	if len(failures) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", errPreflightFailed, strings.Join(failures, "; "))
}

func dependencyLevel(s deps.Status) checkLevel {
	return grade(s.Available, s.Optional)
}

func dependencyDetail(s deps.Status) string {
	if s.Available {
		if s.Version != "" {
			return fmt.Sprintf("%s (%s)", s.Command, s.Version)
		}
		return s.Command
	}
	detail := s.Detail
	if s.Description != "" {
		detail = fmt.Sprintf("%s (%s)", detail, s.Description)
	}
	return detail
}

func resultLevel(r preflight.Result) checkLevel {
	return grade(r.Passed, r.Optional)
}

func grade(ok, optional bool) checkLevel {
	switch {
	case ok:
		return levelPass
	case optional:
		return levelSkip
	default:
		return levelFail
	}
}
