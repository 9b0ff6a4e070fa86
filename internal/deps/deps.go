// Package deps reports whether the external binaries reelcut drives are
// installed and capable.
package deps

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Requirement names one external binary. VersionArgs, when set, are passed to
// the binary to read a version banner.
type Requirement struct {
	Name        string
	Command     string
	Description string
	VersionArgs []string
	Optional    bool
}

// Status is the outcome of checking one Requirement. Command holds the
// resolved path once the binary is found.
type Status struct {
	Name        string
	Command     string
	Description string
	Version     string
	Optional    bool
	Available   bool
	Detail      string
}

// Check resolves each requirement on PATH and, for those found, reads the
// version banner with run (exec when nil). A failing version probe does not
// make a binary unavailable.
func Check(ctx context.Context, requirements []Requirement, run Runner) []Status {
	if run == nil {
		run = defaultRunner
	}
	out := make([]Status, len(requirements))
	for i, req := range requirements {
		out[i] = locate(ctx, req, run)
	}
	return out
}

func locate(ctx context.Context, req Requirement, run Runner) Status {
	st := Status{
		Name:        req.Name,
		Command:     strings.TrimSpace(req.Command),
		Description: strings.TrimSpace(req.Description),
		Optional:    req.Optional,
	}
	if st.Command == "" {
		st.Detail = "command not configured"
		return st
	}
	path, err := exec.LookPath(st.Command)
	if err != nil {
		st.Detail = fmt.Sprintf("binary %q not found", st.Command)
		return st
	}
	st.Command = path
	st.Available = true
	if len(req.VersionArgs) > 0 {
		if banner, err := run(ctx, path, req.VersionArgs...); err == nil {
			st.Version = firstLine(banner)
		}
	}
	return st
}

func firstLine(b []byte) string {
	line, _, _ := strings.Cut(strings.TrimSpace(string(b)), "\n")
	return strings.TrimSpace(line)
}
