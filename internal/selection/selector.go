package selection

import (
	"context"
	"log/slog"
	"math/rand/v2"

	"reelcut/internal/logging"
	"reelcut/internal/transcript"
)

// Method names how a plan was produced.
type Method string

const (
	MethodManifest Method = "manifest"
	MethodLLM      Method = "llm"
	MethodSegments Method = "segments"
	MethodRandom   Method = "random"
)

// Plan is the outcome of a selection.
type Plan struct {
	Method Method
	Specs  []Spec
}

// Input carries everything a selection may draw on.
type Input struct {
	Request      Request
	Transcript   *transcript.Transcript
	ManifestPath string
}

// Selector chooses clips: manifest if given, else the LLM when configured
// and segments exist, else transcript segments, else random spans.
type Selector struct {
	llm    *LLMSelector
	rng    *rand.Rand
	logger *slog.Logger
}

// NewSelector builds a Selector. ranker may be nil to disable LLM ranking.
// seed 0 seeds from the runtime's random source.
func NewSelector(ranker *LLMSelector, seed int64, logger *slog.Logger) *Selector {
	var rng *rand.Rand
	if seed != 0 {
		rng = rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
	} else {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Selector{llm: ranker, rng: rng, logger: logging.NewComponentLogger(logger, "selector")}
}

// Select produces the clip plan for in.
func (s *Selector) Select(ctx context.Context, in Input) (Plan, error) {
	logger := logging.WithContext(ctx, s.logger)
	req := in.Request

	if in.ManifestPath != "" {
		specs, err := LoadManifest(in.ManifestPath)
		if err != nil {
			return Plan{}, err
		}
		kept := specs[:0]
		for _, spec := range specs {
			if req.Duration > 0 && spec.Start >= req.Duration {
				logging.WarnWithContext(logger, "manifest clip starts after the source ends; skipping", "manifest_clip_out_of_range",
					logging.String("title", spec.Title),
					logging.Float64("start", spec.Start),
				)
				continue
			}
			if req.Duration > 0 {
				spec.End = min(spec.End, req.Duration)
			}
			kept = append(kept, spec)
		}
		return Plan{Method: MethodManifest, Specs: kept}, nil
	}

	hasSegments := in.Transcript.HasSegments()
	switch {
	case s.llm != nil && hasSegments:
		specs, method, err := s.llm.Select(ctx, in.Transcript, req, s.rng)
		if err != nil {
			return Plan{}, err
		}
		return Plan{Method: method, Specs: specs}, nil
	case hasSegments:
		return Plan{Method: MethodSegments, Specs: FromSegments(in.Transcript.Segments, req, s.rng)}, nil
	default:
		logger.Info("no transcript segments; choosing random clips")
		return Plan{Method: MethodRandom, Specs: Random(req, s.rng)}, nil
	}
}
