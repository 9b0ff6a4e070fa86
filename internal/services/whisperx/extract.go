package whisperx

import (
	"context"
	"fmt"
)

// buildExtractArgs returns the ffmpeg arguments that write the first audio
// stream of source to dest as mono 16kHz PCM.
func buildExtractArgs(source, dest string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-map", "0:a:0",
		"-vn",
		"-sn",
		"-dn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		dest,
	}
}

// ExtractAudio writes the first audio stream of source to dest as a WAV file
// suitable for WhisperX.
func (s *Service) ExtractAudio(ctx context.Context, source, dest string) error {
	if err := s.exec(ctx, s.ffmpeg, buildExtractArgs(source, dest)); err != nil {
		return fmt.Errorf("ffmpeg extract: %w", err)
	}
	return nil
}
