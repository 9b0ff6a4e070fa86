package ffprobe

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"reelcut/internal/language"
)

// Result captures the subset of ffprobe output reelcut relies on.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
	raw     []byte
}

// Stream describes an individual media stream.
type Stream struct {
	Index        int               `json:"index"`
	CodecName    string            `json:"codec_name"`
	CodecType    string            `json:"codec_type"`
	Duration     string            `json:"duration"`
	BitRate      string            `json:"bit_rate"`
	Width        int               `json:"width"`
	Height       int               `json:"height"`
	RFrameRate   string            `json:"r_frame_rate"`
	AvgFrameRate string            `json:"avg_frame_rate"`
	SampleRate   string            `json:"sample_rate"`
	Channels     int               `json:"channels"`
	Tags         map[string]string `json:"tags"`
	SideDataList []SideData        `json:"side_data_list"`
}

// SideData is one entry of a stream's side_data_list. Only display matrix
// rotation is decoded.
type SideData struct {
	Type     string  `json:"side_data_type"`
	Rotation float64 `json:"rotation"`
}

// Format describes container level metadata.
type Format struct {
	Filename   string            `json:"filename"`
	NBStreams  int               `json:"nb_streams"`
	Duration   string            `json:"duration"`
	Size       string            `json:"size"`
	BitRate    string            `json:"bit_rate"`
	FormatName string            `json:"format_name"`
	Tags       map[string]string `json:"tags"`
}

// Inspect runs ffprobe against the provided path and returns the parsed output.
func Inspect(ctx context.Context, binary, path string) (Result, error) {
	if binary == "" {
		binary = "ffprobe"
	}
	args := []string{
		"-v", "error",
		"-hide_banner",
		"-show_format",
		"-show_streams",
		"-of", "json",
		"--",
		path,
	}
	cmd := exec.CommandContext(ctx, binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		trimmed := strings.TrimSpace(string(output))
		return Result{}, fmt.Errorf("ffprobe: %w: %s", err, trimmed)
	}
	return Parse(output)
}

// Parse decodes ffprobe JSON output.
func Parse(data []byte) (Result, error) {
	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return Result{}, fmt.Errorf("parse ffprobe output: %w", err)
	}
	result.raw = append([]byte(nil), data...)
	return result, nil
}

// RawJSON returns the original JSON output from ffprobe.
func (r Result) RawJSON() []byte {
	return append([]byte(nil), r.raw...)
}

// VideoStream returns the first video stream.
func (r Result) VideoStream() (Stream, bool) {
	for _, stream := range r.Streams {
		if stream.CodecType == "video" {
			return stream, true
		}
	}
	return Stream{}, false
}

// HasAudio reports whether the container carries at least one audio stream.
func (r Result) HasAudio() bool {
	for _, stream := range r.Streams {
		if stream.CodecType == "audio" {
			return true
		}
	}
	return false
}

// AudioLanguage returns the ISO 639-1 language tagged on the first audio
// stream that carries one.
func (r Result) AudioLanguage() string {
	for _, stream := range r.Streams {
		if stream.CodecType != "audio" {
			continue
		}
		if code := language.FromTags(stream.Tags); code != "" {
			return code
		}
	}
	return ""
}

// VideoDimensions returns the display width and height of the first video
// stream. Streams rotated by 90 or 270 degrees report swapped dimensions.
func (r Result) VideoDimensions() (int, int, bool) {
	stream, ok := r.VideoStream()
	if !ok || stream.Width <= 0 || stream.Height <= 0 {
		return 0, 0, false
	}
	if stream.Rotated() {
		return stream.Height, stream.Width, true
	}
	return stream.Width, stream.Height, true
}

// Rotation returns the stream rotation in degrees normalised to [0, 360).
// Display matrix side data wins over the legacy rotate tag.
func (s Stream) Rotation() int {
	for _, sd := range s.SideDataList {
		if strings.EqualFold(sd.Type, "Display Matrix") && sd.Rotation != 0 {
			return normalizeRotation(int(math.Round(sd.Rotation)))
		}
	}
	if value, ok := s.Tags["rotate"]; ok {
		if deg, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return normalizeRotation(deg)
		}
	}
	return 0
}

// Rotated reports whether the stream is displayed on its side.
func (s Stream) Rotated() bool {
	rot := s.Rotation()
	return rot == 90 || rot == 270
}

func normalizeRotation(deg int) int {
	deg %= 360
	if deg < 0 {
		deg += 360
	}
	return deg
}

// FrameRate returns the video frame rate, preferring avg_frame_rate. It returns
// 0 when ffprobe did not report a usable rate.
func (r Result) FrameRate() float64 {
	stream, ok := r.VideoStream()
	if !ok {
		return 0
	}
	if rate := parseRational(stream.AvgFrameRate); rate > 0 {
		return rate
	}
	return parseRational(stream.RFrameRate)
}

// DurationSeconds returns the container duration in seconds, or NaN when
// ffprobe reported none.
func (r Result) DurationSeconds() float64 {
	if d := parseFloat(r.Format.Duration); !math.IsNaN(d) {
		return d
	}
	if stream, ok := r.VideoStream(); ok {
		return parseFloat(stream.Duration)
	}
	return math.NaN()
}

// SizeBytes returns the container size reported by ffprobe.
func (r Result) SizeBytes() int64 {
	value, err := strconv.ParseInt(strings.TrimSpace(r.Format.Size), 10, 64)
	if err != nil || value < 0 {
		return 0
	}
	return value
}

// Title returns the container title tag, if any.
func (r Result) Title() string {
	for key, value := range r.Format.Tags {
		if strings.EqualFold(key, "title") {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func parseFloat(value string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func parseRational(value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	num, den, found := strings.Cut(value, "/")
	n := parseFloat(num)
	if math.IsNaN(n) {
		return 0
	}
	if !found {
		return n
	}
	d := parseFloat(den)
	if math.IsNaN(d) || d == 0 {
		return 0
	}
	return n / d
}
