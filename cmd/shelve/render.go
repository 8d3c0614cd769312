package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/jamesainslie/shelve/pkg/shelve/output"
)

var templateStr string

func init() {
	rootCmd.PersistentFlags().StringVar(&templateStr, "template", "", "Go template for output (implies --output template)")
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// formatName resolves the output format for w.
func formatName(w io.Writer) string {
	switch {
	case templateStr != "":
		return "template"
	case outputFormat != "":
		return outputFormat
	case quiet:
		return "null"
	case isTerminal(w):
		return "pretty"
	default:
		return "plain"
	}
}

// writeReport renders r to w in the selected format.
func writeReport(w io.Writer, r *output.Report) error {
	name := formatName(w)

	var f output.Formatter
	if name == "template" && templateStr != "" {
		f = output.NewTemplateFormatter(templateStr)
	} else {
		var err error
		if f, err = output.Get(name); err != nil {
			return fmt.Errorf("%w (available: %v)", err, output.Available())
		}
	}

	var buf bytes.Buffer
	if err := f.Format(&buf, r); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}
