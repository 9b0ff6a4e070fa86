package main

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// renderTable draws rows under the given column titles. A title starting with
// ">" marks a right-aligned (numeric) column; the marker is not printed.
// Short rows are padded with blanks.
func renderTable(rows [][]string, columns ...string) string {
	if len(columns) == 0 {
		return ""
	}
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, title := range columns {
		align := text.AlignLeft
		if rest, ok := strings.CutPrefix(title, ">"); ok {
			title, align = rest, text.AlignRight
		}
		header[i] = title
		configs[i] = table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(columns))
		for i := range r {
			r[i] = ""
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}
	return tw.Render()
}

// humanBytes formats n with binary prefixes, e.g. "12.4 MiB".
func humanBytes(n int64) string {
	if n < 1024 {
		return fmt.Sprintf("%d B", n)
	}
	value := float64(n)
	prefix := -1
	for value >= 1024 && prefix < len("KMGTPE")-1 {
		value /= 1024
		prefix++
	}
	return fmt.Sprintf("%.1f %ciB", value, "KMGTPE"[prefix])
}

// formatSpan renders a clip range as "h:mm:ss-h:mm:ss".
func formatSpan(start, end float64) string {
	return formatTimestamp(start) + "-" + formatTimestamp(end)
}

func formatTimestamp(seconds float64) string {
	total := int(max(seconds, 0))
	return fmt.Sprintf("%d:%02d:%02d", total/3600, (total/60)%60, total%60)
}
