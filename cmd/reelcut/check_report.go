package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// checkLevel grades one line of the check report.
type checkLevel int

const (
	levelNote checkLevel = iota
	levelPass
	levelSkip
	levelFail
)

type levelStyle struct {
	mark  string
	color string
}

var levelStyles = map[checkLevel]levelStyle{
	levelNote: {mark: "--", color: "\x1b[36m"},
	levelPass: {mark: "OK", color: "\x1b[32m"},
	levelSkip: {mark: "!!", color: "\x1b[33m"},
	levelFail: {mark: "XX", color: "\x1b[31m"},
}

const colorReset = "\x1b[0m"

// checkReport collects the sections printed by `reelcut check`. Labels are
// aligned per section.
type checkReport struct {
	color    bool
	sections []checkSection
}

type checkSection struct {
	title string
	rows  []checkRow
}

type checkRow struct {
	label  string
	level  checkLevel
	detail string
}

func newCheckReport(w io.Writer) *checkReport {
	return &checkReport{color: isTerminal(w)}
}

func (r *checkReport) section(title string) {
	r.sections = append(r.sections, checkSection{title: strings.TrimSpace(title)})
}

func (r *checkReport) add(label string, level checkLevel, detail string) {
	if len(r.sections) == 0 {
		r.section("")
	}
	last := &r.sections[len(r.sections)-1]
	last.rows = append(last.rows, checkRow{label: label, level: level, detail: strings.TrimSpace(detail)})
}

func (r *checkReport) render(w io.Writer) error {
	var b strings.Builder
	for i, sec := range r.sections {
		if i > 0 {
			b.WriteByte('\n')
		}
		if sec.title != "" {
			b.WriteString(r.paint(levelNote, sec.title))
			b.WriteByte('\n')
		}
		width := 0
		for _, row := range sec.rows {
			width = max(width, len(row.label))
		}
		for _, row := range sec.rows {
			line := fmt.Sprintf("  [%s] %-*s", levelStyles[row.level].mark, width, row.label)
			if row.detail != "" {
				line += "  " + row.detail
			}
			b.WriteString(r.paint(row.level, strings.TrimRight(line, " ")))
			b.WriteByte('\n')
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func (r *checkReport) paint(level checkLevel, text string) string {
	if !r.color {
		return text
	}
	return levelStyles[level].color + text + colorReset
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
