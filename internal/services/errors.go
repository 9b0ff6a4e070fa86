package services

import (
	"errors"
	"strings"

	"reelcut/internal/history"
)

// Sentinel markers classify failures. Match them with errors.Is.
var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// Error is a classified failure raised while processing a clip or run.
type Error struct {
	Marker  error
	Stage   string
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Marker.Error())
	b.WriteString(": ")
	b.WriteString(e.detail())
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Marker}
	}
	return []error{e.Marker, e.Err}
}

func (e *Error) detail() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{e.Stage, e.Op, e.Message} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}

// Wrap returns an *Error tagged with marker, defaulting to ErrTransient.
func Wrap(marker error, stage, operation, message string, err error) error {
	if marker == nil {
		marker = ErrTransient
	}
	return &Error{Marker: marker, Stage: stage, Op: operation, Message: message, Err: err}
}

// StageOf reports the stage recorded on the outermost *Error in err's chain.
func StageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return strings.TrimSpace(e.Stage)
	}
	return ""
}

// FailureStatus maps a clip error to the status recorded in the run history.
// Problems with the clip itself are rejected; everything else failed.
func FailureStatus(err error) history.Status {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConfiguration), errors.Is(err, ErrNotFound):
		return history.StatusRejected
	default:
		return history.StatusFailed
	}
}
