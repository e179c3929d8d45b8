package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/maherduit/statement-engine/internal/logging"
	"github.com/maherduit/statement-engine/internal/models"
)

// ErrBatchTooLarge is returned when a batch exceeds the configured document cap.
var ErrBatchTooLarge = errors.New("batch exceeds maximum number of documents")

// BatchItem is the outcome for one document of a batch, in input order.
type BatchItem struct {
	Name     string
	Result   *models.DocumentResult
	Err      error
	Duration time.Duration
}

// BatchSummary aggregates a batch run.
type BatchSummary struct {
	Documents    int `json:"documents"`
	Succeeded    int `json:"succeeded"`
	Failed       int `json:"failed"`
	Transactions int `json:"transactions"`
}

// Summarize counts the outcomes of a batch run.
func Summarize(items []BatchItem) BatchSummary {
	s := BatchSummary{Documents: len(items)}
	for _, it := range items {
		if it.Err != nil || it.Result == nil {
			s.Failed++
			continue
		}
		s.Succeeded++
		s.Transactions += it.Result.Result.TransactionCount
	}
	return s
}

// RunBatch processes documents on a pool of at most Options.Workers
// goroutines. A failing source is reported on its item and does not stop
// the others. Documents not yet started when ctx is cancelled carry ctx's
// error.
func (e *Engine) RunBatch(ctx context.Context, sources []Source) ([]BatchItem, error) {
	if len(sources) > e.opts.MaxBatchDocuments {
		return nil, fmt.Errorf("%w: got %d, limit %d", ErrBatchTooLarge, len(sources), e.opts.MaxBatchDocuments)
	}

	items := make([]BatchItem, len(sources))
	var g errgroup.Group
	g.SetLimit(e.opts.Workers)

	for i, src := range sources {
		name := src.Name()
		items[i].Name = name
		g.Go(func() error {
			items[i] = e.runOne(ctx, name, src)
			return nil
		})
	}
	_ = g.Wait()

	e.log.Info("batch complete",
		logging.F(logging.FieldCount, len(items)),
		logging.F(logging.FieldStatus, Summarize(items)))

	return items, nil
}

func (e *Engine) runOne(ctx context.Context, name string, src Source) BatchItem {
	start := time.Now()
	item := BatchItem{Name: name}

	if err := ctx.Err(); err != nil {
		item.Err = err
		return item
	}

	pages, err := src.Pages(ctx)
	if err != nil {
		item.Err = fmt.Errorf("failed to read %s: %w", item.Name, err)
		e.log.WithError(err).Warn("batch document failed", logging.F(logging.FieldFile, item.Name))
		item.Duration = time.Since(start)
		return item
	}

	hint := ""
	if hs, ok := src.(HintedSource); ok {
		hint = hs.AccountHint()
	}

	res := e.ProcessDocument(pages, hint)
	item.Result = &res
	item.Duration = time.Since(start)
	return item
}
