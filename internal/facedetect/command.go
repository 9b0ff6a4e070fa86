package facedetect

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os/exec"
	"strings"

	"reelcut/internal/logging"
	"reelcut/internal/reframe"
)

// StdinRunner runs name with args, feeding stdin, and returns stdout.
type StdinRunner func(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error)

// Command detects faces by running an external program per frame. The
// program reads a PNG from stdin and prints
// {"faces":[{"x":..,"y":..,"width":..,"height":..,"score":..}]}
// with top-left box coordinates and scores in [0,1].
type Command struct {
	argv          []string
	minConfidence float64
	logger        *slog.Logger
	run           StdinRunner
}

type commandFace struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Score  float64 `json:"score"`
}

type commandOutput struct {
	Faces []commandFace `json:"faces"`
}

// NewCommand builds a Command detector for argv.
func NewCommand(argv []string, minConfidence float64, logger *slog.Logger) (*Command, error) {
	if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
		return nil, errors.New("detector command is required")
	}
	return &Command{
		argv:          append([]string(nil), argv...),
		minConfidence: minConfidence,
		logger:        logging.NewComponentLogger(logger, "detector-command"),
		run:           defaultStdinRunner,
	}, nil
}

// WithCommandRunner allows injecting a custom runner for tests.
func (c *Command) WithCommandRunner(r StdinRunner) {
	if c != nil && r != nil {
		c.run = r
	}
}

// Name identifies the backend.
func (c *Command) Name() string { return BackendCommand }

// Detect encodes frame as PNG and parses the program's JSON reply.
func (c *Command) Detect(ctx context.Context, frame image.Image) ([]reframe.Observation, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, frame); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	output, err := c.run(ctx, buf.Bytes(), c.argv[0], c.argv[1:]...)
	if err != nil {
		return nil, err
	}
	var payload commandOutput
	if err := json.Unmarshal(output, &payload); err != nil {
		return nil, fmt.Errorf("parse detector output: %w", err)
	}

	bounds := frame.Bounds()
	observations := make([]reframe.Observation, 0, len(payload.Faces))
	for _, face := range payload.Faces {
		if face.Score < c.minConfidence {
			continue
		}
		observations = append(observations, reframe.Observation{
			CenterX:    bounds.Min.X + int(face.X+face.Width/2),
			CenterY:    bounds.Min.Y + int(face.Y+face.Height/2),
			Width:      int(face.Width),
			Height:     int(face.Height),
			Confidence: face.Score,
		})
	}
	return observations, nil
}

// Close is a no-op; each frame runs its own process.
func (c *Command) Close() error { return nil }

func defaultStdinRunner(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	cmd.Stdin = bytes.NewReader(stdin)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return output, nil
}
