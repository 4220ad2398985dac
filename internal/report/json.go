package report

import (
	"encoding/json"
	"io"
)

// JSONReporter writes the full report envelope as indented JSON.
type JSONReporter struct {
	Writer io.Writer
}

// Generate writes JSON output.
func (r *JSONReporter) Generate(data Data) error {
	enc := json.NewEncoder(r.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
