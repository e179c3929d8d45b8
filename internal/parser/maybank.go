package parser

import (
	"regexp"

	"github.com/maherduit/statement-engine/internal/models"
)

// MaybankExtractor handles Maybank savings and current account statements.
//
// Layout:
//
//	ENTRY DATE | TRANSACTION DESCRIPTION | TRANSACTION AMOUNT | STATEMENT BALANCE
//
// The amount carries a trailing "+" (credit) or "-" (debit). Detail lines such
// as the counterparty name are printed under the amount row.
// Example: "02/01/24 TRANSFER FR A/C 1,500.00+ 2,450.00"
type MaybankExtractor struct{}

func (e *MaybankExtractor) Format() models.Format { return models.FormatMaybank }

func (e *MaybankExtractor) BankName() string { return models.FormatMaybank.DisplayName() }

func (e *MaybankExtractor) Extract(lines []models.NormalizedLine) Extraction {
	return maybankLayout.run(lines)
}

var maybankRow = regexp.MustCompile(
	`^(?:(.*?)\s+)?(` + signedAmountRe + `)\s+(` + balanceRe + `)$`,
)

var maybankLayout = &layout{
	format: models.FormatMaybank,
	start:  regexp.MustCompile(`^(?P<date>\d{2}/\d{2}/\d{2}(?:\d{2})?)\s+(?P<rest>.*)$`),
	cut: func(text string) (string, columns, bool) {
		m := maybankRow.FindStringSubmatch(text)
		if m == nil {
			return "", columns{}, false
		}
		return m[1], columns{amount: m[2], balance: m[3]}, true
	},
	opening:     []string{"beginning balance", "baki permulaan", "opening balance"},
	closing:     []string{"ending balance", "baki akhir", "closing balance"},
	terminators: []string{"total debit", "total credit", "jumlah debit", "jumlah kredit", "end of statement", "ledger balance"},
	headers: [][]string{
		{"entry date", "transaction description"},
		{"tarikh masuk", "butiran urusniaga"},
		{"urusniaga akaun"},
		{"account transactions"},
	},
	outside: []string{
		"malayan banking berhad", "maybank islamic berhad",
		"statement date", "tarikh penyata",
		"account number", "nombor akaun",
		"perhatian", "muka/ page", "muka / page",
	},
	trailingDetail: true,
}
