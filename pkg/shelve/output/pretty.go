package output

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// PrettyFormatter renders a styled report for terminals.
type PrettyFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *Report) error {
	w.WriteString(f.formatHeader(r))
	w.WriteString("\n")
	w.WriteString(f.formatTable(r))

	if len(r.Warnings) > 0 {
		w.WriteString(f.formatWarnings(r.Warnings))
		w.WriteString("\n")
	}
	return nil
}

func (f *PrettyFormatter) formatHeader(r *Report) string {
	lines := []string{TitleStyle.Render(r.Title)}

	width := 0
	for _, fld := range r.Fields {
		width = max(width, len(fld.Label)+1)
	}
	for _, fld := range r.Fields {
		label := LabelStyle.Render(padRight(fld.Label+":", width))
		lines = append(lines, fmt.Sprintf("%s %s", label, ValueStyle.Render(fld.Value)))
	}
	return HeaderBox.Render(strings.Join(lines, "\n"))
}

func (f *PrettyFormatter) formatTable(r *Report) string {
	if len(r.Rows) == 0 {
		return MutedStyle.Render("  "+r.Empty) + "\n"
	}

	widths := columnWidths(r)
	var sb strings.Builder

	headers := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		headers[i] = TableHeaderStyle.Render(align(c.Name, widths[i], c.Right))
	}
	sb.WriteString("  " + strings.Join(headers, "  ") + "\n")

	for i, row := range r.Rows {
		style := lipgloss.NewStyle()
		if i < len(r.Status) {
			style = statusStyle(r.Status[i])
		}
		cells := make([]string, len(r.Columns))
		for j, c := range r.Columns {
			cell := align(cellAt(row, j), widths[j], c.Right)
			if j == 0 {
				cell = style.Render(cell)
			}
			cells[j] = cell
		}
		sb.WriteString("  " + strings.TrimRight(strings.Join(cells, "  "), " ") + "\n")
	}
	return sb.String()
}

func (f *PrettyFormatter) formatWarnings(warnings []string) string {
	lines := []string{WarningStyle.Bold(true).Render("Warnings:")}
	for _, warning := range warnings {
		lines = append(lines, WarningStyle.Render(warning))
	}
	return FooterBox.Render(strings.Join(lines, "\n"))
}

// columnWidths returns the widest cell per column, headers included.
func columnWidths(r *Report) []int {
	widths := make([]int, len(r.Columns))
	for i, c := range r.Columns {
		widths[i] = lipgloss.Width(c.Name)
	}
	for _, row := range r.Rows {
		for i := range r.Columns {
			widths[i] = max(widths[i], lipgloss.Width(cellAt(row, i)))
		}
	}
	return widths
}

func cellAt(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func align(s string, width int, right bool) string {
	if right {
		return padLeft(s, width)
	}
	return padRight(s, width)
}

func padLeft(s string, width int) string {
	n := lipgloss.Width(s)
	if n >= width {
		return s
	}
	return strings.Repeat(" ", width-n) + s
}

func padRight(s string, width int) string {
	n := lipgloss.Width(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

var _ Formatter = (*PrettyFormatter)(nil)
