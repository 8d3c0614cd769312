package output

import (
	"bytes"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// tableWriter loads a report's columns and rows into a go-pretty writer.
func tableWriter(r *Report) table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(r.Columns))
	configs := make([]table.ColumnConfig, 0, len(r.Columns))
	for i, c := range r.Columns {
		header[i] = c.Name
		al := text.AlignLeft
		if c.Right {
			al = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       al,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range r.Rows {
		out := make(table.Row, len(r.Columns))
		for i := range r.Columns {
			out[i] = cellAt(row, i)
		}
		tw.AppendRow(out)
	}
	return tw
}

// TableFormatter renders the report's fields, then a bordered table.
type TableFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *TableFormatter) Format(w *bytes.Buffer, r *Report) error {
	if len(r.Fields) > 0 {
		fields := table.NewWriter()
		fields.SetStyle(table.StyleLight)
		fields.SetTitle(r.Title)
		for _, fld := range r.Fields {
			fields.AppendRow(table.Row{fld.Label, fld.Value})
		}
		w.WriteString(fields.Render())
		w.WriteString("\n")
	}

	if len(r.Rows) == 0 {
		w.WriteString(r.Empty + "\n")
	} else {
		w.WriteString(tableWriter(r).Render())
		w.WriteString("\n")
	}

	for _, warning := range r.Warnings {
		w.WriteString("warning: " + warning + "\n")
	}
	return nil
}

// CSVFormatter renders the table as comma-separated values.
type CSVFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *CSVFormatter) Format(w *bytes.Buffer, r *Report) error {
	w.WriteString(tableWriter(r).RenderCSV())
	w.WriteString("\n")
	return nil
}

// MarkdownFormatter renders the table as a GitHub-flavored Markdown table.
type MarkdownFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *MarkdownFormatter) Format(w *bytes.Buffer, r *Report) error {
	if r.Title != "" {
		w.WriteString("## " + r.Title + "\n\n")
	}
	for _, fld := range r.Fields {
		w.WriteString("- **" + fld.Label + "**: " + fld.Value + "\n")
	}
	if len(r.Fields) > 0 {
		w.WriteString("\n")
	}
	w.WriteString(tableWriter(r).RenderMarkdown())
	w.WriteString("\n")
	return nil
}

func init() {
	Register("table", func() Formatter { return &TableFormatter{} })
	Register("csv", func() Formatter { return &CSVFormatter{} })
	Register("markdown", func() Formatter { return &MarkdownFormatter{} })
}

var (
	_ Formatter = (*TableFormatter)(nil)
	_ Formatter = (*CSVFormatter)(nil)
	_ Formatter = (*MarkdownFormatter)(nil)
)
