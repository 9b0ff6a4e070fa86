package language

import (
	"fmt"
	"strings"

	xlanguage "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Auto asks WhisperX to detect the spoken language.
const Auto = "auto"

// Word forms and bibliographic ISO 639-2 codes that BCP 47 parsing does not
// fold on its own.
var aliases = map[string]string{
	"english":    "en",
	"spanish":    "es",
	"french":     "fr",
	"fre":        "fr",
	"german":     "de",
	"ger":        "de",
	"italian":    "it",
	"portuguese": "pt",
	"japanese":   "ja",
	"korean":     "ko",
	"chinese":    "zh",
	"chi":        "zh",
	"russian":    "ru",
	"arabic":     "ar",
	"hindi":      "hi",
	"dutch":      "nl",
	"dut":        "nl",
	"polish":     "pl",
	"swedish":    "sv",
	"danish":     "da",
	"norwegian":  "no",
	"finnish":    "fi",
}

// Normalize folds a language name or tag to its ISO 639-1 base code.
// Empty input and "auto" return "" meaning detection.
func Normalize(value string) (string, error) {
	value = strings.ToLower(strings.TrimSpace(strings.ReplaceAll(value, "\u0000", "")))
	if value == "" || value == Auto || value == "und" {
		return "", nil
	}
	if code, ok := aliases[value]; ok {
		return code, nil
	}
	tag, err := xlanguage.Parse(strings.ReplaceAll(value, "_", "-"))
	if err != nil {
		return "", fmt.Errorf("unrecognized language %q", value)
	}
	base, confidence := tag.Base()
	if confidence == xlanguage.No {
		return "", fmt.Errorf("unrecognized language %q", value)
	}
	return base.String(), nil
}

// DisplayName returns the English name for a language code.
func DisplayName(code string) string {
	code = strings.TrimSpace(code)
	if code == "" || strings.EqualFold(code, Auto) {
		return "Auto-detect"
	}
	normalized, err := Normalize(code)
	if err != nil || normalized == "" {
		return strings.ToUpper(code)
	}
	if name := display.English.Languages().Name(xlanguage.Make(normalized)); name != "" {
		return name
	}
	return strings.ToUpper(normalized)
}

// FromTags extracts the language of a media stream from its metadata tags.
// Unknown or undetermined values return "".
func FromTags(tags map[string]string) string {
	if len(tags) == 0 {
		return ""
	}
	for _, key := range []string{"language", "LANGUAGE", "Language", "language_ietf", "lang", "LANG"} {
		value, ok := tags[key]
		if !ok || strings.TrimSpace(value) == "" {
			continue
		}
		code, err := Normalize(value)
		if err != nil {
			return ""
		}
		return code
	}
	return ""
}
