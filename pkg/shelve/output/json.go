package output

import (
	"bytes"
	"encoding/json"
)

// document is the envelope shared by the json and yaml formatters.
type document struct {
	Kind     Kind     `json:"kind" yaml:"kind"`
	Result   any      `json:"result" yaml:"result"`
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

func newDocument(r *Report) document {
	return document{Kind: r.Kind, Result: r.Data, Warnings: r.Warnings}
}

// JSONFormatter writes the underlying result as one indented JSON object.
type JSONFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONFormatter) Format(w *bytes.Buffer, r *Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(newDocument(r))
}

func init() {
	Register("json", func() Formatter {
		return &JSONFormatter{}
	})
}

var _ Formatter = (*JSONFormatter)(nil)
