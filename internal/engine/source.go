package engine

import "context"

//go:generate mockgen -destination=mocks/mock_source.go -package=mocks -source=source.go Source

// Source supplies the extracted pages of one document to a batch run.
type Source interface {
	// Name identifies the document in batch results.
	Name() string
	// Pages returns the document's text, one slice of lines per page.
	Pages(ctx context.Context) ([][]string, error)
}

// HintedSource is a Source that also knows which account it belongs to.
type HintedSource interface {
	Source
	AccountHint() string
}

// PagesSource is an in-memory Source.
type PagesSource struct {
	DocName string
	Hint    string
	Content [][]string
}

func (s PagesSource) Name() string { return s.DocName }

func (s PagesSource) AccountHint() string { return s.Hint }

func (s PagesSource) Pages(ctx context.Context) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.Content, nil
}
