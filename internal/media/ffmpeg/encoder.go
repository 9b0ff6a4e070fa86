package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"reelcut/internal/compose"
	"reelcut/internal/logging"
)

// maxInlineFilterGraph is the longest filter graph passed on the command
// line; longer graphs go through -filter_complex_script.
const maxInlineFilterGraph = 8192

// EncodeOptions are the codec settings for rendered clips.
type EncodeOptions struct {
	VideoCodec  string
	AudioCodec  string
	Preset      string
	CRF         int
	Threads     int
	PixelFormat string
}

// Source is the clip shape the encoder understands.
type Source interface {
	Source() string
	Start() float64
	Duration() float64
	VideoFilter() string
}

// Encoder renders compositions to MP4 files.
type Encoder struct {
	binary string
	opts   EncodeOptions
	logger *slog.Logger
	run    CommandRunner
}

// NewEncoder constructs an Encoder.
func NewEncoder(binary string, opts EncodeOptions, logger *slog.Logger) *Encoder {
	if strings.TrimSpace(binary) == "" {
		binary = DefaultBinary
	}
	return &Encoder{
		binary: binary,
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "encoder"),
		run:    defaultCommandRunner,
	}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (e *Encoder) WithCommandRunner(r CommandRunner) {
	if e != nil && r != nil {
		e.run = r
	}
}

// Encode writes comp to output and returns the size of the written file.
func (e *Encoder) Encode(ctx context.Context, comp compose.Composition, output string) (int64, error) {
	if strings.TrimSpace(output) == "" {
		return 0, errors.New("encode: output path is required")
	}
	src, ok := comp.Base.(Source)
	if !ok {
		return 0, fmt.Errorf("encode: unsupported base clip %T", comp.Base)
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return 0, fmt.Errorf("encode: ensure output dir: %w", err)
	}

	graph := FilterGraph(src.VideoFilter(), comp.Overlays)
	scriptPath := ""
	if len(graph) > maxInlineFilterGraph {
		dir := comp.WorkDir
		if dir == "" {
			dir = filepath.Dir(output)
		}
		scriptPath = filepath.Join(dir, strings.TrimSuffix(filepath.Base(output), filepath.Ext(output))+".filtergraph")
		if err := os.WriteFile(scriptPath, []byte(graph), 0o644); err != nil {
			return 0, fmt.Errorf("encode: write filter script: %w", err)
		}
		defer os.Remove(scriptPath)
	}

	args := e.BuildArgs(src, comp.Overlays, graph, scriptPath, output)
	logger := logging.WithContext(ctx, e.logger)
	logger.Debug("running ffmpeg encode",
		logging.String("output", output),
		logging.Int("overlays", len(comp.Overlays)),
		logging.Bool("filter_script", scriptPath != ""),
	)
	if _, err := e.run(ctx, e.binary, args...); err != nil {
		return 0, fmt.Errorf("encode %s: %w", filepath.Base(output), err)
	}
	info, err := os.Stat(output)
	if err != nil {
		return 0, fmt.Errorf("encode: output missing: %w", err)
	}
	if info.Size() == 0 {
		return 0, fmt.Errorf("encode: %s is empty", filepath.Base(output))
	}
	return info.Size(), nil
}

// BuildArgs assembles the ffmpeg command line. graph is the output of
// FilterGraph; when scriptPath is set the graph is read from that file.
func (e *Encoder) BuildArgs(src Source, overlays []compose.Overlay, graph, scriptPath, output string) []string {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-ss", formatSeconds(src.Start()),
		"-t", formatSeconds(src.Duration()),
		"-i", src.Source(),
	}
	for _, o := range overlays {
		args = append(args, "-loop", "1", "-t", formatSeconds(o.End), "-i", o.ImagePath)
	}

	switch {
	case scriptPath != "":
		args = append(args, "-filter_complex_script", scriptPath, "-map", "[vout]")
	case graph != "":
		args = append(args, "-filter_complex", graph, "-map", "[vout]")
	default:
		args = append(args, "-map", "0:v:0")
	}
	args = append(args, "-map", "0:a?")

	opts := e.opts
	if opts.VideoCodec != "" {
		args = append(args, "-c:v", opts.VideoCodec)
	}
	if opts.Preset != "" {
		args = append(args, "-preset", opts.Preset)
	}
	if opts.CRF > 0 {
		args = append(args, "-crf", strconv.Itoa(opts.CRF))
	}
	if opts.PixelFormat != "" {
		args = append(args, "-pix_fmt", opts.PixelFormat)
	}
	if opts.Threads > 0 {
		args = append(args, "-threads", strconv.Itoa(opts.Threads))
	}
	if opts.AudioCodec != "" {
		args = append(args, "-c:a", opts.AudioCodec)
	}
	return append(args,
		"-t", formatSeconds(src.Duration()),
		"-movflags", "+faststart",
		output,
	)
}

// FilterGraph builds the filter_complex graph for a crop filter and caption
// overlays. Overlay n reads input n+1. It returns "" when neither is needed.
func FilterGraph(cropFilter string, overlays []compose.Overlay) string {
	if cropFilter == "" && len(overlays) == 0 {
		return ""
	}
	base := cropFilter
	if base == "" {
		base = "null"
	}
	if len(overlays) == 0 {
		return "[0:v]" + base + "[vout]"
	}

	var b strings.Builder
	b.WriteString("[0:v]" + base + "[base]")
	prev := "base"
	for i, o := range overlays {
		input := i + 1
		start, end := formatSeconds(o.Start), formatSeconds(o.End)
		fmt.Fprintf(&b, ";[%d:v]format=rgba,fade=t=in:st=%s:d=%s:alpha=1,fade=t=out:st=%s:d=%s:alpha=1[w%d]",
			input, start, formatSeconds(o.FadeIn), formatSeconds(o.FadeOutStart()), formatSeconds(o.FadeOut), input)
		next := fmt.Sprintf("v%d", input)
		if i == len(overlays)-1 {
			next = "vout"
		}
		fmt.Fprintf(&b, ";[%s][w%d]overlay=0:0:enable='between(t,%s,%s)'[%s]", prev, input, start, end, next)
		prev = next
	}
	return b.String()
}
