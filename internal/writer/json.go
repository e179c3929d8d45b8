package writer

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/maherduit/statement-engine/internal/models"
)

// JSONWriter writes the full document result, diagnostics included.
type JSONWriter struct{}

// WriteToFile writes the result as indented JSON at path.
func (w *JSONWriter) WriteToFile(path string, doc models.DocumentResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	defer f.Close()

	return w.Write(f, doc)
}

// Write encodes the result as indented JSON.
func (w *JSONWriter) Write(out io.Writer, doc models.DocumentResult) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
