package selection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"

	"reelcut/internal/logging"
	"reelcut/internal/services/llm"
	"reelcut/internal/transcript"
)

// Completer issues JSON-only chat completions.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// LLMSelector ranks transcript moments with a language model.
type LLMSelector struct {
	client Completer
	logger *slog.Logger
}

// NewLLMSelector builds an LLMSelector around client.
func NewLLMSelector(client Completer, logger *slog.Logger) *LLMSelector {
	return &LLMSelector{client: client, logger: logging.NewComponentLogger(logger, "llm-selector")}
}

type llmReply struct {
	Clips []Spec `json:"clips"`
}

// Rank asks the model for clips and returns the valid ones, best first,
// at most req.Clips of them.
func (s *LLMSelector) Rank(ctx context.Context, tr *transcript.Transcript, req Request) ([]Spec, error) {
	if s == nil || s.client == nil {
		return nil, errors.New("llm selector not configured")
	}
	content, err := s.client.CompleteJSON(ctx, systemPrompt, buildUserPrompt(tr.Timestamped(), req))
	if err != nil {
		return nil, err
	}
	var reply llmReply
	if err := llm.DecodeLLMJSON(content, &reply); err != nil {
		return nil, fmt.Errorf("parse clip ranking: %w", err)
	}
	specs := Accept(reply.Clips, req)
	if len(specs) == 0 {
		return nil, errors.New("model returned no valid clips")
	}
	return specs, nil
}

// Select ranks clips and falls back to FromSegments on any failure other
// than cancellation. The returned Method tells which of the two produced the
// clips.
func (s *LLMSelector) Select(ctx context.Context, tr *transcript.Transcript, req Request, rng *rand.Rand) ([]Spec, Method, error) {
	logger := logging.WithContext(ctx, s.logger)
	specs, err := s.Rank(ctx, tr, req)
	if err == nil {
		for i, spec := range specs {
			logger.Info("llm clip selected",
				logging.Int("rank", i+1),
				logging.String("title", spec.Title),
				logging.Int("score", spec.Points()),
				logging.String("hook_type", spec.HookType),
			)
		}
		return specs, MethodLLM, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, "", ctxErr
	}
	logging.WarnWithContext(logger, "llm clip selection failed; using transcript segments", "llm_selection_failed",
		logging.Error(err),
		logging.String(logging.FieldImpact, "clips are picked from random transcript segments"),
	)
	return FromSegments(tr.Segments, req, rng), MethodSegments, nil
}

// Accept validates model-proposed clips against req. Clips longer than the
// maximum are truncated; clips outside the source or the duration bounds are
// dropped. The survivors are sorted by score, best first, and capped at
// req.Clips.
func Accept(candidates []Spec, req Request) []Spec {
	var out []Spec
	for i, c := range candidates {
		c = c.normalize(fmt.Sprintf("Clip %d", i+1))
		if c.End-c.Start > req.MaxSeconds {
			c.End = c.Start + req.MaxSeconds
		}
		d := c.Duration()
		if d < req.MinSeconds || d > req.MaxSeconds || c.End > req.Duration {
			continue
		}
		if Validate(c) != nil {
			continue
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	if req.Clips > 0 && len(out) > req.Clips {
		out = out[:req.Clips]
	}
	return out
}
