// Package writer serializes processed statements.
package writer

import (
	"fmt"
	"io"
	"strings"

	"github.com/maherduit/statement-engine/internal/models"
)

// Writer serializes one processed document.
type Writer interface {
	Write(out io.Writer, doc models.DocumentResult) error
	WriteToFile(path string, doc models.DocumentResult) error
}

// ForFormat returns the writer for an output format name: csv, xlsx or json.
func ForFormat(name string, includeHeader bool) (Writer, error) {
	switch strings.ToLower(name) {
	case "", "csv":
		return &CSVWriter{IncludeHeader: includeHeader}, nil
	case "xlsx":
		return &XLSXWriter{}, nil
	case "json":
		return &JSONWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %q", name)
	}
}

// Extension returns the file extension for an output format name.
func Extension(name string) string {
	switch strings.ToLower(name) {
	case "xlsx":
		return ".xlsx"
	case "json":
		return ".json"
	default:
		return ".csv"
	}
}
