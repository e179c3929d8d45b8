package extractor

import (
	"context"
	"path/filepath"
)

// FileSource reads one statement file for a batch run.
type FileSource struct {
	Path string
	Hint string
}

func (s FileSource) Name() string { return filepath.Base(s.Path) }

func (s FileSource) AccountHint() string { return s.Hint }

func (s FileSource) Pages(ctx context.Context) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ExtractPages(s.Path)
}

// BytesSource is an uploaded statement held in memory.
type BytesSource struct {
	FileName string
	Hint     string
	Data     []byte
}

func (s BytesSource) Name() string { return s.FileName }

func (s BytesSource) AccountHint() string { return s.Hint }

func (s BytesSource) Pages(ctx context.Context) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if filepath.Ext(s.FileName) == ".txt" {
		return SplitText(string(s.Data)), nil
	}
	return ExtractPagesFromBytes(s.Data)
}
