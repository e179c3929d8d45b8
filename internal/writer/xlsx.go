package writer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/maherduit/statement-engine/internal/models"
)

const (
	transactionsSheet = "Transactions"
	summarySheet      = "Summary"
)

// XLSXWriter writes a workbook with a Transactions sheet and a Summary sheet.
type XLSXWriter struct{}

// WriteToFile saves the workbook at path, creating parent directories.
func (w *XLSXWriter) WriteToFile(path string, doc models.DocumentResult) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	defer f.Close()

	return w.Write(f, doc)
}

// Write streams the workbook to out.
func (w *XLSXWriter) Write(out io.Writer, doc models.DocumentResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), transactionsSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("failed to add summary sheet: %w", err)
	}

	headers := []string{"date", "description", "debit", "credit", "balance"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(transactionsSheet, cell, h)
	}

	for i, txn := range doc.Result.Transactions {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(transactionsSheet, cell, value)
		}

		set(1, txn.Date.Format(dateLayout))
		set(2, txn.Description)
		set(3, amountCell(txn.DebitAmount))
		set(4, amountCell(txn.CreditAmount))
		set(5, amountCell(txn.Balance))
	}

	row := 1
	put := func(key string, value any) {
		a, _ := excelize.CoordinatesToCellName(1, row)
		b, _ := excelize.CoordinatesToCellName(2, row)
		_ = f.SetCellValue(summarySheet, a, key)
		_ = f.SetCellValue(summarySheet, b, value)
		row++
	}
	for _, kv := range metadata(doc) {
		put(kv[0], kv[1])
	}
	put("Debit Count", doc.Result.DebitCount)
	put("Credit Count", doc.Result.CreditCount)
	put("Net Amount", doc.Result.NetAmount.StringFixed(2))

	if len(doc.Result.BalanceMismatches) > 0 {
		row++
		put("Mismatch Row", "Stated / Computed")
		for _, m := range doc.Result.BalanceMismatches {
			put(fmt.Sprintf("%d", m.Index+1), m.Expected.StringFixed(2)+" / "+m.Computed.StringFixed(2))
		}
	}

	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func amountCell(v decimal.NullDecimal) any {
	if !v.Valid {
		return ""
	}
	return v.Decimal.Round(2).InexactFloat64()
}
