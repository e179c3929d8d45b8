package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/maherduit/statement-engine/internal/engine"
	"github.com/maherduit/statement-engine/internal/extractor"
	"github.com/maherduit/statement-engine/internal/logging"
	"github.com/maherduit/statement-engine/internal/models"
	"github.com/maherduit/statement-engine/internal/writer"
)

// PageBreak separates pages in client-extracted text.
const PageBreak = "\n---PAGE_BREAK---\n"

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ProcessResponse is the JSON response from /process and /process-text.
type ProcessResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Data    *ProcessData `json:"data,omitempty"`
}

// ProcessData is the payload for one processed document.
type ProcessData struct {
	ProcessingID     string               `json:"processing_id"`
	BankDetected     models.Format        `json:"bank_detected"`
	Confidence       float64              `json:"confidence"`
	Transactions     []models.Transaction `json:"transactions"`
	TransactionCount int                  `json:"transaction_count"`
	CSV              string               `json:"csv"`
	Summary          Summary              `json:"summary"`
	Diagnostics      []models.Diagnostic  `json:"diagnostics"`
	ProcessingTime   float64              `json:"processing_time"`
}

// Summary is the statement overview shown next to the transactions.
type Summary struct {
	TransactionCount  int     `json:"transaction_count"`
	DebitCount        int     `json:"debit_count"`
	CreditCount       int     `json:"credit_count"`
	TotalDebits       string  `json:"total_debits"`
	TotalCredits      string  `json:"total_credits"`
	NetAmount         string  `json:"net_amount"`
	OpeningBalance    *string `json:"opening_balance"`
	ClosingBalance    *string `json:"closing_balance"`
	StartDate         *string `json:"start_date"`
	EndDate           *string `json:"end_date"`
	BalanceMismatches int     `json:"balance_mismatches"`
}

// TextRequest is the body of /process-text.
type TextRequest struct {
	Pages       [][]string `json:"pages"`
	AccountHint string     `json:"account_hint"`
}

// BatchResponse is the JSON response from /process-batch.
type BatchResponse struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	Data    *BatchData `json:"data,omitempty"`
}

// BatchData lists per-file outcomes in upload order.
type BatchData struct {
	BatchID string              `json:"batch_id"`
	Results []BatchResult       `json:"results"`
	Summary engine.BatchSummary `json:"summary"`
}

// BatchResult is one file's outcome in a batch.
type BatchResult struct {
	Filename string       `json:"filename"`
	Success  bool         `json:"success"`
	Error    string       `json:"error,omitempty"`
	Data     *ProcessData `json:"data,omitempty"`
}

// HandleRoot returns a service banner.
func (s *Server) HandleRoot(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "Statement engine API",
		"version": Version,
		"formats": models.KnownFormats,
	})
}

// HandleHealth reports liveness.
func (s *Server) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(map[string]string{
		"status":    "ok",
		"engine":    "fiber",
		"version":   Version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleProcess accepts a multipart upload: a "file" (PDF or text) or an
// "extractedText" field with pages separated by PageBreak, plus an optional
// "bank" hint.
func (s *Server) HandleProcess(c *fiber.Ctx) error {
	start := time.Now()
	hint := c.FormValue("bank")
	includeHeader := s.cfg.Output.IncludeHeader && c.FormValue("header") != "false"

	var pages [][]string
	if text := c.FormValue("extractedText"); strings.TrimSpace(text) != "" {
		pages = splitExtractedText(text)
	}

	if len(pages) == 0 {
		fh, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "No file uploaded. Use form field 'file' or 'extractedText'.")
		}
		src, err := readUpload(fh, hint)
		if err != nil {
			return err
		}
		pages, err = src.Pages(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusUnprocessableEntity, fmt.Sprintf("Text extraction failed: %v", err))
		}
	}

	data, err := s.process(pages, hint, includeHeader, start)
	if err != nil {
		return err
	}
	return c.JSON(ProcessResponse{Success: true, Message: message(data), Data: data})
}

// HandleProcessText accepts already-extracted pages as JSON. A body that is
// not a list of lists of strings is rejected.
func (s *Server) HandleProcessText(c *fiber.Ctx) error {
	start := time.Now()

	var req TextRequest
	dec := json.NewDecoder(bytes.NewReader(c.Body()))
	if err := dec.Decode(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("pages must be a list of lists of strings: %v", err))
	}
	if req.Pages == nil {
		return fiber.NewError(fiber.StatusBadRequest, "pages must be a list of lists of strings")
	}

	data, err := s.process(req.Pages, req.AccountHint, s.cfg.Output.IncludeHeader, start)
	if err != nil {
		return err
	}
	return c.JSON(ProcessResponse{Success: true, Message: message(data), Data: data})
}

// HandleProcessBatch processes every file in the "files" field.
func (s *Server) HandleProcessBatch(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Failed to parse form: %v", err))
	}
	files := form.File["files"]
	if len(files) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "No files uploaded. Use form field 'files'.")
	}
	if limit := s.engine.Options().MaxBatchDocuments; len(files) > limit {
		return fiber.NewError(fiber.StatusBadRequest,
			fmt.Sprintf("%v: got %d, limit %d", engine.ErrBatchTooLarge, len(files), limit))
	}
	hint := c.FormValue("bank")

	sources := make([]engine.Source, 0, len(files))
	for _, fh := range files {
		src, err := readUpload(fh, hint)
		if err != nil {
			return err
		}
		sources = append(sources, src)
	}

	batchID := uuid.NewString()
	items, err := s.engine.RunBatch(c.UserContext(), sources)
	if errors.Is(err, engine.ErrBatchTooLarge) {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err != nil {
		return err
	}

	results := make([]BatchResult, 0, len(items))
	for _, it := range items {
		r := BatchResult{Filename: it.Name}
		if it.Err != nil {
			r.Error = it.Err.Error()
		} else {
			d, err := s.buildData(*it.Result, s.cfg.Output.IncludeHeader, it.Duration)
			if err != nil {
				r.Error = err.Error()
			} else {
				r.Success = true
				r.Data = d
			}
		}
		results = append(results, r)
	}

	summary := engine.Summarize(items)
	s.log.Info("processed batch",
		logging.F(logging.FieldBatchID, batchID),
		logging.F(logging.FieldCount, summary.Documents),
		logging.F(logging.FieldStatus, fmt.Sprintf("%d ok / %d failed", summary.Succeeded, summary.Failed)))

	return c.JSON(BatchResponse{
		Success: true,
		Message: fmt.Sprintf("Processed %d of %d files", summary.Succeeded, summary.Documents),
		Data:    &BatchData{BatchID: batchID, Results: results, Summary: summary},
	})
}

func (s *Server) process(pages [][]string, hint string, includeHeader bool, start time.Time) (*ProcessData, error) {
	doc := s.engine.ProcessDocument(pages, hint)
	data, err := s.buildData(doc, includeHeader, time.Since(start))
	if err != nil {
		return nil, err
	}
	s.log.Info("processed upload",
		logging.F(logging.FieldProcessingID, data.ProcessingID),
		logging.F(logging.FieldFormat, doc.Format),
		logging.F(logging.FieldCount, data.TransactionCount))
	return data, nil
}

func (s *Server) buildData(doc models.DocumentResult, includeHeader bool, elapsed time.Duration) (*ProcessData, error) {
	var csvBuf bytes.Buffer
	w := &writer.CSVWriter{IncludeHeader: includeHeader}
	if err := w.Write(&csvBuf, doc); err != nil {
		return nil, fmt.Errorf("CSV generation failed: %w", err)
	}

	return &ProcessData{
		ProcessingID:     uuid.NewString(),
		BankDetected:     doc.Format,
		Confidence:       doc.Confidence,
		Transactions:     doc.Result.Transactions,
		TransactionCount: doc.Result.TransactionCount,
		CSV:              csvBuf.String(),
		Summary:          summarize(doc.Result),
		Diagnostics:      doc.Diagnostics,
		ProcessingTime:   elapsed.Seconds(),
	}, nil
}

func summarize(res models.ReconciliationResult) Summary {
	s := Summary{
		TransactionCount:  res.TransactionCount,
		DebitCount:        res.DebitCount,
		CreditCount:       res.CreditCount,
		TotalDebits:       res.TotalDebits.StringFixed(2),
		TotalCredits:      res.TotalCredits.StringFixed(2),
		NetAmount:         res.NetAmount.StringFixed(2),
		BalanceMismatches: len(res.BalanceMismatches),
	}
	if res.OpeningBalance.Valid {
		v := res.OpeningBalance.Decimal.StringFixed(2)
		s.OpeningBalance = &v
	}
	if res.ClosingBalance.Valid {
		v := res.ClosingBalance.Decimal.StringFixed(2)
		s.ClosingBalance = &v
	}
	if res.StartDate != nil {
		v := res.StartDate.Format("2006-01-02")
		s.StartDate = &v
	}
	if res.EndDate != nil {
		v := res.EndDate.Format("2006-01-02")
		s.EndDate = &v
	}
	return s
}

func message(d *ProcessData) string {
	if d.BankDetected == models.FormatUnknown {
		return "Statement format not recognized"
	}
	return fmt.Sprintf("Extracted %d transactions from %s statement", d.TransactionCount, d.BankDetected.DisplayName())
}

func splitExtractedText(text string) [][]string {
	var pages [][]string
	for _, page := range strings.Split(text, PageBreak) {
		if page = strings.TrimSpace(page); page != "" {
			pages = append(pages, strings.Split(page, "\n"))
		}
	}
	return pages
}

func readUpload(fh *multipart.FileHeader, hint string) (extractor.BytesSource, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if ext != ".pdf" && ext != ".txt" {
		return extractor.BytesSource{}, fiber.NewError(fiber.StatusBadRequest,
			fmt.Sprintf("%s: only PDF and text files are supported", fh.Filename))
	}

	f, err := fh.Open()
	if err != nil {
		return extractor.BytesSource{}, fmt.Errorf("failed to open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return extractor.BytesSource{}, fmt.Errorf("failed to read upload %s: %w", fh.Filename, err)
	}
	return extractor.BytesSource{FileName: fh.Filename, Hint: hint, Data: data}, nil
}
