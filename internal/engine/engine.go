// Package engine runs the statement pipeline: normalize, classify, extract,
// parse fields and reconcile.
package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/maherduit/statement-engine/internal/config"
	"github.com/maherduit/statement-engine/internal/fields"
	"github.com/maherduit/statement-engine/internal/logging"
	"github.com/maherduit/statement-engine/internal/models"
	"github.com/maherduit/statement-engine/internal/normalize"
	"github.com/maherduit/statement-engine/internal/parser"
	"github.com/maherduit/statement-engine/internal/reconcile"
)

// Options are the tunables of one engine instance.
type Options struct {
	AcceptanceThreshold float64
	BalanceTolerance    decimal.Decimal
	MaxBatchDocuments   int
	Workers             int
}

// DefaultOptions returns the calibrated defaults.
func DefaultOptions() Options {
	return Options{
		AcceptanceThreshold: parser.DefaultAcceptanceThreshold,
		BalanceTolerance:    reconcile.DefaultTolerance,
		MaxBatchDocuments:   10,
		Workers:             4,
	}
}

// OptionsFromConfig maps the service configuration onto engine options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		AcceptanceThreshold: cfg.Engine.AcceptanceThreshold,
		BalanceTolerance:    cfg.Tolerance(),
		MaxBatchDocuments:   cfg.Batch.MaxDocuments,
		Workers:             cfg.Batch.Workers,
	}
}

// Engine processes statements. It holds configuration only, so one Engine
// may serve any number of concurrent documents.
type Engine struct {
	opts       Options
	classifier parser.Classifier
	reconciler reconcile.Reconciler
	log        logging.Logger

	newExtractor func(models.Format) (parser.Extractor, error)
}

// New creates an engine. A nil logger discards output.
func New(opts Options, log logging.Logger) *Engine {
	if log == nil {
		log = logging.Discard()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.MaxBatchDocuments < 1 {
		opts.MaxBatchDocuments = DefaultOptions().MaxBatchDocuments
	}
	return &Engine{
		opts:         opts,
		classifier:   parser.NewClassifier(opts.AcceptanceThreshold),
		reconciler:   reconcile.New(opts.BalanceTolerance),
		log:          log,
		newExtractor: parser.New,
	}
}

// Options returns the engine's effective options.
func (e *Engine) Options() Options {
	return e.opts
}

// Classify normalizes the pages and names their format.
func (e *Engine) Classify(rawPages [][]string) (models.Format, float64) {
	return e.classifier.Classify(normalize.Normalize(rawPages))
}

// ProcessDocument runs the full pipeline over one document's pages.
// accountHint may be empty. Data-quality problems are reported as
// diagnostics next to a best-effort result; this method never fails.
func (e *Engine) ProcessDocument(rawPages [][]string, accountHint string) models.DocumentResult {
	start := time.Now()
	lines := normalize.Normalize(rawPages)

	format, confidence := e.classifier.Classify(lines)
	res := models.DocumentResult{
		Format:      format,
		Confidence:  confidence,
		Diagnostics: []models.Diagnostic{},
	}
	e.log.Debug("classified document",
		logging.F(logging.FieldFormat, format),
		logging.F(logging.FieldConfidence, confidence),
		logging.F(logging.FieldCount, len(lines)))

	if format == models.FormatUnknown {
		hinted := models.FormatFromHint(accountHint)
		if hinted == models.FormatUnknown {
			res.Diagnostics = append(res.Diagnostics, models.Diagnostic{
				Kind:    models.KindClassificationUnknown,
				Message: "no statement format scored above the acceptance threshold",
			})
			res.Result = e.reconciler.Reconcile(nil, decimal.NullDecimal{})
			e.log.Warn("unrecognized statement", logging.F(logging.FieldCount, len(lines)))
			return res
		}

		res.Diagnostics = append(res.Diagnostics, models.Diagnostic{
			Kind:    models.KindClassificationUnknown,
			Message: fmt.Sprintf("no statement format scored above the acceptance threshold; using account hint %q (%s)", accountHint, hinted),
		})
		format = hinted
		res.Format = hinted
	}

	ext, err := e.newExtractor(format)
	if err != nil {
		// every known format has an extractor
		res.Diagnostics = append(res.Diagnostics, models.Diagnostic{
			Kind:    models.KindClassificationUnknown,
			Message: err.Error(),
		})
		res.Result = e.reconciler.Reconcile(nil, decimal.NullDecimal{})
		return res
	}

	extraction := ext.Extract(lines)
	for _, s := range extraction.Skipped {
		res.Diagnostics = append(res.Diagnostics, s.Diagnostic())
	}

	opening := e.statedBalance(extraction.OpeningText, format, "opening", &res)

	p := fields.NewParser(format, opening)
	txns := make([]models.Transaction, 0, len(extraction.Fragments))
	parseErrors := 0
	for _, frag := range extraction.Fragments {
		txn, err := p.Parse(frag)
		if err != nil {
			var perr *models.ParseError
			if errors.As(err, &perr) {
				res.Diagnostics = append(res.Diagnostics, perr.Diagnostic())
			}
			parseErrors++
			continue
		}
		txns = append(txns, txn)
	}

	res.Result = e.reconciler.Reconcile(txns, opening)
	for _, m := range res.Result.BalanceMismatches {
		res.Diagnostics = append(res.Diagnostics, models.Diagnostic{
			Kind:    models.KindBalanceMismatch,
			Message: fmt.Sprintf("row %d: stated balance %s, computed %s", m.Index, m.Expected.StringFixed(2), m.Computed.StringFixed(2)),
			Lines:   txns[m.Index].RawLines,
		})
	}

	closing := e.statedBalance(extraction.ClosingText, format, "closing", &res)
	if closing.Valid && res.Result.ClosingBalance.Valid &&
		!e.reconciler.Within(closing.Decimal, res.Result.ClosingBalance.Decimal) {
		m := models.BalanceMismatch{
			Index:    len(txns),
			Expected: closing.Decimal,
			Computed: res.Result.ClosingBalance.Decimal,
		}
		res.Result.BalanceMismatches = append(res.Result.BalanceMismatches, m)
		res.Diagnostics = append(res.Diagnostics, models.Diagnostic{
			Kind:    models.KindBalanceMismatch,
			Message: fmt.Sprintf("stated closing balance %s, computed %s", m.Expected.StringFixed(2), m.Computed.StringFixed(2)),
		})
	}

	e.log.Info("processed document",
		logging.F(logging.FieldFormat, res.Format),
		logging.F(logging.FieldCount, len(txns)),
		logging.F(logging.FieldSkipped, len(extraction.Skipped)),
		logging.F(logging.FieldParseErrors, parseErrors),
		logging.F(logging.FieldMismatches, len(res.Result.BalanceMismatches)),
		logging.F(logging.FieldDuration, time.Since(start).Milliseconds()))

	return res
}

// statedBalance parses an opening or closing balance printed on the
// statement. An unreadable value is reported and treated as absent.
func (e *Engine) statedBalance(text string, format models.Format, which string, res *models.DocumentResult) decimal.NullDecimal {
	if text == "" {
		return decimal.NullDecimal{}
	}
	v, err := fields.ParseStatedBalance(text, format)
	if err != nil {
		res.Diagnostics = append(res.Diagnostics, models.Diagnostic{
			Kind:    models.KindAmountUnparseable,
			Message: fmt.Sprintf("%s balance: %v", which, err),
			Text:    []string{text},
		})
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(v)
}
