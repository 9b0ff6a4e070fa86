package textutil

import (
	"strings"
	"testing"
)

func TestSanitizeFileName(t *testing.T) {
	if got := SanitizeFileName("  Why: AI? <now>  "); got != "Why- AI now" {
		t.Fatalf("unexpected sanitized name %q", got)
	}
	if got := SanitizeFileName("   "); got != "" {
		t.Fatalf("expected empty name, got %q", got)
	}
}

func TestSanitizeToken(t *testing.T) {
	tests := map[string]string{
		"My Talk (2024) - FINAL": "my_talk_2024_final",
		"__x__":                  "x",
		"???":                    "unknown",
		"":                       "unknown",
	}
	for in, want := range tests {
		if got := SanitizeToken(in); got != want {
			t.Errorf("SanitizeToken(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestClipFileName(t *testing.T) {
	if got := ClipFileName(2, 85, "/videos/My Talk.final.mp4"); got != "clip_2_85pts_my_talk_final.mp4" {
		t.Fatalf("unexpected clip name %q", got)
	}
	long := "/videos/" + strings.Repeat("ab ", 40) + ".mkv"
	stem := SourceStem(long)
	if len(stem) > maxStemLength || strings.HasSuffix(stem, "_") {
		t.Fatalf("stem not truncated cleanly: %q", stem)
	}
}
