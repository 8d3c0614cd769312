package output

import (
	"bytes"
	"fmt"
	"strings"
	"text/tabwriter"
)

// PlainFormatter renders unstyled text suitable for scripts and pipes:
// "Label: value" lines, a blank line, then a tab-aligned table.
type PlainFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, r *Report) error {
	for _, fld := range r.Fields {
		fmt.Fprintf(w, "%s: %s\n", fld.Label, fld.Value)
	}
	if len(r.Fields) > 0 {
		w.WriteByte('\n')
	}

	if len(r.Rows) == 0 {
		w.WriteString(r.Empty + "\n")
	} else {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		names := make([]string, len(r.Columns))
		for i, c := range r.Columns {
			names[i] = c.Name
		}
		if _, err := fmt.Fprintln(tw, strings.Join(names, "\t")); err != nil {
			return err
		}
		for _, row := range r.Rows {
			cells := make([]string, len(r.Columns))
			for i := range r.Columns {
				cells[i] = cellAt(row, i)
			}
			if _, err := fmt.Fprintln(tw, strings.Join(cells, "\t")); err != nil {
				return err
			}
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	for _, warning := range r.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
	return nil
}

func init() {
	Register("plain", func() Formatter {
		return &PlainFormatter{}
	})
}

var _ Formatter = (*PlainFormatter)(nil)
