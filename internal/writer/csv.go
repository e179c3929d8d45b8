package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"github.com/maherduit/statement-engine/internal/models"
)

const dateLayout = "2006-01-02"

// Row is one transaction as it appears in the CSV output.
type Row struct {
	Date        string `csv:"date"`
	Description string `csv:"description"`
	Debit       string `csv:"debit"`
	Credit      string `csv:"credit"`
	Balance     string `csv:"balance"`
}

// Rows converts the reconciled transactions into output rows.
func Rows(doc models.DocumentResult) []*Row {
	rows := make([]*Row, 0, len(doc.Result.Transactions))
	for _, txn := range doc.Result.Transactions {
		rows = append(rows, &Row{
			Date:        txn.Date.Format(dateLayout),
			Description: txn.Description,
			Debit:       formatAmount(txn.DebitAmount),
			Credit:      formatAmount(txn.CreditAmount),
			Balance:     formatAmount(txn.Balance),
		})
	}
	return rows
}

// CSVWriter writes transactions to CSV format.
type CSVWriter struct {
	IncludeHeader bool
}

// WriteToFile writes transactions to a CSV file at the given path.
func (w *CSVWriter) WriteToFile(path string, doc models.DocumentResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	defer f.Close()

	return w.Write(f, doc)
}

// Write writes transactions in CSV format to the given writer. With
// IncludeHeader set, "# Key,Value" metadata rows precede the column header.
func (w *CSVWriter) Write(out io.Writer, doc models.DocumentResult) error {
	writer := csv.NewWriter(out)

	if w.IncludeHeader {
		for _, kv := range metadata(doc) {
			if err := writer.Write([]string{"# " + kv[0], kv[1]}); err != nil {
				return fmt.Errorf("failed to write CSV metadata: %w", err)
			}
		}
	}

	if err := gocsv.MarshalCSV(Rows(doc), gocsv.NewSafeCSVWriter(writer)); err != nil {
		return fmt.Errorf("failed to write CSV rows: %w", err)
	}
	return nil
}

// ReadCSV parses output produced by CSVWriter, skipping metadata rows.
func ReadCSV(in io.Reader) ([]*Row, error) {
	r := csv.NewReader(in)
	r.Comment = '#'
	r.FieldsPerRecord = -1

	rows := []*Row{}
	if err := gocsv.UnmarshalCSV(r, &rows); err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	return rows, nil
}

// Totals are the figures that survive a CSV round trip.
type Totals struct {
	Count        int
	TotalDebits  decimal.Decimal
	TotalCredits decimal.Decimal
}

// SumRows totals parsed CSV rows.
func SumRows(rows []*Row) (Totals, error) {
	t := Totals{TotalDebits: decimal.Zero, TotalCredits: decimal.Zero}
	for i, row := range rows {
		t.Count++
		if row.Debit != "" {
			d, err := decimal.NewFromString(row.Debit)
			if err != nil {
				return Totals{}, fmt.Errorf("row %d: invalid debit %q: %w", i+1, row.Debit, err)
			}
			t.TotalDebits = t.TotalDebits.Add(d)
		}
		if row.Credit != "" {
			c, err := decimal.NewFromString(row.Credit)
			if err != nil {
				return Totals{}, fmt.Errorf("row %d: invalid credit %q: %w", i+1, row.Credit, err)
			}
			t.TotalCredits = t.TotalCredits.Add(c)
		}
	}
	return t, nil
}

// metadata lists the document-level key/value pairs shared by the writers.
func metadata(doc models.DocumentResult) [][2]string {
	res := doc.Result
	md := [][2]string{
		{"Format", doc.Format.DisplayName()},
		{"Confidence", strconv.FormatFloat(doc.Confidence, 'f', 2, 64)},
	}
	if res.OpeningBalance.Valid {
		md = append(md, [2]string{"Opening Balance", res.OpeningBalance.Decimal.StringFixed(2)})
	}
	if res.ClosingBalance.Valid {
		md = append(md, [2]string{"Closing Balance", res.ClosingBalance.Decimal.StringFixed(2)})
	}
	if res.StartDate != nil && res.EndDate != nil {
		md = append(md, [2]string{"Period", res.StartDate.Format(dateLayout) + " to " + res.EndDate.Format(dateLayout)})
	}
	md = append(md,
		[2]string{"Transactions", strconv.Itoa(res.TransactionCount)},
		[2]string{"Total Debits", res.TotalDebits.StringFixed(2)},
		[2]string{"Total Credits", res.TotalCredits.StringFixed(2)},
		[2]string{"Balance Mismatches", strconv.Itoa(len(res.BalanceMismatches))},
	)
	return md
}

func formatAmount(v decimal.NullDecimal) string {
	if !v.Valid {
		return ""
	}
	return v.Decimal.StringFixed(2)
}
