package output

import (
	"encoding/json"
	"io"

	"craft-cost/core/engine"
)

// JSONFormatter writes the evaluation as indented JSON
type JSONFormatter struct{}

// NewJSONFormatter creates a JSON formatter
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Format implements Formatter
func (f *JSONFormatter) Format() Format { return FormatJSON }

// Render implements Formatter
func (f *JSONFormatter) Render(w io.Writer, ev *engine.Evaluation) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ev)
}
