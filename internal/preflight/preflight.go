package preflight

import (
	"context"
	"log/slog"

	"reelcut/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
	// Optional results never block a run.
	Optional bool
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is enabled.
func RunAll(ctx context.Context, cfg *config.Config, logger *slog.Logger) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckDirectoryAccess("Temp directory", cfg.Paths.TempDir),
		CheckDetector(cfg.Tracking),
	}

	if cfg.Captions.Enabled {
		results = append(results, CheckFonts(cfg.Captions, logger))
	}

	if cfg.Selection.UseLLM {
		llmCheck := CheckLLM(ctx, "Clip ranking LLM", cfg.GetLLM())
		// Selection falls back to transcript segments without the LLM.
		llmCheck.Optional = true
		results = append(results, llmCheck)
	}

	return results
}

// Blocking returns the required checks that failed.
func Blocking(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			failed = append(failed, r)
		}
	}
	return failed
}
