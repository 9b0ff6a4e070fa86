package deps

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// RequiredFilters are the ffmpeg filters used to crop and caption clips.
var RequiredFilters = []string{"crop", "overlay", "fade", "format"}

// Runner executes a command and returns its stdout.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func defaultRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// CheckFFmpegCapabilities verifies that binary provides the filters reelcut
// builds its filter graphs from and the configured video encoder.
func CheckFFmpegCapabilities(ctx context.Context, binary, videoCodec string, run Runner) Status {
	result := Status{
		Name:        "FFmpeg capabilities",
		Command:     binary,
		Description: "Filters and encoder used for clip output",
	}
	if run == nil {
		run = defaultRunner
	}

	out, err := run(ctx, binary, "-hide_banner", "-filters")
	if err != nil {
		result.Detail = fmt.Sprintf("list filters: %v", err)
		return result
	}
	filters := listedNames(out)
	var missing []string
	for _, name := range RequiredFilters {
		if !filters[name] {
			missing = append(missing, "filter "+name)
		}
	}

	if codec := strings.TrimSpace(videoCodec); codec != "" && codec != "copy" {
		out, err := run(ctx, binary, "-hide_banner", "-encoders")
		if err != nil {
			result.Detail = fmt.Sprintf("list encoders: %v", err)
			return result
		}
		if !listedNames(out)[codec] {
			missing = append(missing, "encoder "+codec)
		}
	}

	if len(missing) > 0 {
		result.Detail = "missing " + strings.Join(missing, ", ")
		return result
	}
	result.Available = true
	return result
}

// listedNames collects the name column from ffmpeg's -filters/-encoders
// listings, where each entry is "<flags> <name> <description>".
func listedNames(out []byte) map[string]bool {
	names := make(map[string]bool)
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		names[fields[1]] = true
	}
	return names
}
