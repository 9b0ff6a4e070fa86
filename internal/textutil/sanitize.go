package textutil

import (
	"fmt"
	"path/filepath"
	"strings"
)

// maxStemLength bounds the source-derived part of clip file names.
const maxStemLength = 60

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName replaces filesystem-unsafe characters in a filename.
// Slashes, backslashes, colons, and asterisks become dashes; other unsafe
// characters are removed. The result is trimmed of leading/trailing whitespace.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return strings.TrimSpace(fileNameReplacer.Replace(name))
}

// SanitizeToken converts a string to a lowercase filesystem-safe token.
// Letters and digits are kept, runs of anything else collapse into a single
// underscore. Returns "unknown" for empty input.
func SanitizeToken(value string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.TrimSpace(value) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		case r >= 'A' && r <= 'Z':
			r += 'a' - 'A'
		default:
			pendingSep = b.Len() > 0
			continue
		}
		if pendingSep {
			b.WriteByte('_')
			pendingSep = false
		}
		b.WriteRune(r)
	}
	if b.Len() == 0 {
		return "unknown"
	}
	return b.String()
}

// SourceStem returns the sanitized base name of path without its extension,
// truncated to a readable length.
func SourceStem(path string) string {
	base := filepath.Base(strings.TrimSpace(path))
	stem := SanitizeToken(strings.TrimSuffix(base, filepath.Ext(base)))
	if len(stem) > maxStemLength {
		stem = strings.TrimRight(stem[:maxStemLength], "_")
	}
	return stem
}

// ClipFileName names the index-th rendered clip (1-based) of source.
func ClipFileName(index, points int, source string) string {
	return fmt.Sprintf("clip_%d_%dpts_%s.mp4", index, points, SourceStem(source))
}
