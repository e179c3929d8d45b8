package parser

import (
	"regexp"

	"github.com/maherduit/statement-engine/internal/models"
)

// CIMBExtractor handles CIMB Bank current and savings account statements.
//
// Layout:
//
//	Date | Description | Cheque / Ref No | Withdrawal | Deposits | Balance
//
// Date format: DD/MM/YYYY
// Example line: "05/02/2024 DUITNOW TRANSFER 100.00 1,100.00"
type CIMBExtractor struct{}

func (e *CIMBExtractor) Format() models.Format { return models.FormatCIMB }

func (e *CIMBExtractor) BankName() string { return models.FormatCIMB.DisplayName() }

func (e *CIMBExtractor) Extract(lines []models.NormalizedLine) Extraction {
	return cimbLayout.run(lines)
}

// Empty columns vanish in extracted text, so a row carries either one amount
// or both withdrawal and deposit before the balance.
var cimbRow = regexp.MustCompile(
	`^(?:(.*?)\s+)?(?:(` + amountRe + `)\s+)?(` + amountRe + `)\s+(-?` + amountRe + `(?:\s?DR)?)$`,
)

var cimbLayout = &layout{
	format: models.FormatCIMB,
	start:  regexp.MustCompile(`^(?P<date>\d{2}/\d{2}/\d{2}(?:\d{2})?)\s+(?P<rest>.*)$`),
	cut: func(text string) (string, columns, bool) {
		m := cimbRow.FindStringSubmatch(text)
		if m == nil {
			return "", columns{}, false
		}
		if m[2] != "" {
			return m[1], columns{debit: m[2], credit: m[3], balance: m[4]}, true
		}
		return m[1], columns{amount: m[3], balance: m[4]}, true
	},
	opening:     []string{"opening balance", "baki pembukaan", "balance b/f"},
	closing:     []string{"closing balance", "baki penutup", "balance c/f"},
	terminators: []string{"total withdrawal", "total deposit", "no of withdrawal", "no of deposit", "end of statement"},
	headers: [][]string{
		{"description", "withdrawal", "deposit"},
		{"cheque", "ref no"},
		{"tarikh", "diskripsi"},
	},
}
