package parser

import (
	"regexp"

	"github.com/maherduit/statement-engine/internal/models"
)

// AllianceExtractor handles Alliance Bank account statements.
//
// Layout:
//
//	Trans Date | Transaction Details | Cheque No | Amount | Balance
//
// Dates are printed compact (DDMMYY). The amount carries CR or DR and an
// overdrawn balance is suffixed with DR.
// Example line: "150124 IBG CREDIT PAYROLL 3,200.00 CR 4,120.50"
type AllianceExtractor struct{}

func (e *AllianceExtractor) Format() models.Format { return models.FormatAlliance }

func (e *AllianceExtractor) BankName() string { return models.FormatAlliance.DisplayName() }

func (e *AllianceExtractor) Extract(lines []models.NormalizedLine) Extraction {
	return allianceLayout.run(lines)
}

var allianceRow = regexp.MustCompile(
	`^(?:(.*?)\s+)?(` + amountRe + `\s?(?:CR|DR|Cr|Dr)?)\s+(-?` + amountRe + `(?:\s?(?:DR|Dr|CR|Cr))?)$`,
)

var allianceLayout = &layout{
	format: models.FormatAlliance,
	start:  regexp.MustCompile(`^(?P<date>\d{6}|\d{2}/\d{2}/\d{2})\s+(?P<rest>.*)$`),
	cut: func(text string) (string, columns, bool) {
		m := allianceRow.FindStringSubmatch(text)
		if m == nil {
			return "", columns{}, false
		}
		return m[1], columns{amount: m[2], balance: m[3]}, true
	},
	opening:     []string{"beginning balance", "opening balance", "balance b/f", "baki awal"},
	closing:     []string{"ending balance", "closing balance", "balance c/f", "baki akhir"},
	terminators: []string{"total debit", "total credit", "end of statement", "jumlah"},
	headers: [][]string{
		{"trans date", "balance"},
		{"transaction details", "cheque no"},
	},
}
