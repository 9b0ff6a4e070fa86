package logging

import (
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// runLogKeys renames slog's built-in keys to the run log schema read back by `reelcut logs`.
var runLogKeys = map[string]string{
	slog.TimeKey:    "ts",
	slog.LevelKey:   "level",
	slog.MessageKey: "msg",
	slog.SourceKey:  "caller",
}

func newJSONHandler(w io.Writer, lvl slog.Leveler, addSource bool) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       lvl,
		AddSource:   addSource,
		ReplaceAttr: runLogAttr,
	})
}

func runLogAttr(groups []string, attr slog.Attr) slog.Attr {
	if len(groups) == 0 {
		if key, ok := runLogKeys[attr.Key]; ok {
			attr.Key = key
		}
	}
	v := attr.Value
	switch v.Kind() {
	case slog.KindTime:
		attr.Value = slog.StringValue(v.Time().UTC().Format(time.RFC3339Nano))
	case slog.KindDuration:
		// durations are written as seconds
		attr.Value = slog.Float64Value(v.Duration().Seconds())
	case slog.KindAny:
		if src, ok := v.Any().(*slog.Source); ok && src != nil {
			attr.Value = slog.StringValue(filepath.Base(src.File) + ":" + strconv.Itoa(src.Line))
		}
	}
	if attr.Key == "level" && len(groups) == 0 {
		attr.Value = slog.StringValue(strings.ToLower(v.String()))
	}
	return attr
}
