package parser

import (
	"regexp"

	"github.com/maherduit/statement-engine/internal/models"
)

// MaybankCreditCardExtractor handles Maybank credit card statements.
//
// Layout:
//
//	Posting Date | Transaction Date | Transaction Description | Amount (RM)
//
// There is no running balance. Payments and refunds carry a trailing CR.
// Example line: "03/01/2024 02/01/2024 SHELL PETALING JAYA 85.40"
type MaybankCreditCardExtractor struct{}

func (e *MaybankCreditCardExtractor) Format() models.Format {
	return models.FormatMaybankCreditCard
}

func (e *MaybankCreditCardExtractor) BankName() string {
	return models.FormatMaybankCreditCard.DisplayName()
}

func (e *MaybankCreditCardExtractor) Extract(lines []models.NormalizedLine) Extraction {
	return creditCardLayout.run(lines)
}

var creditCardRow = regexp.MustCompile(
	`^(?:(.*?)\s+)?(\(?-?` + amountRe + `\)?(?:\s?(?:CR|DR|Cr|Dr))?)$`,
)

const ccDateRe = `\d{2}/\d{2}/\d{2}(?:\d{2})?`

var creditCardLayout = &layout{
	format: models.FormatMaybankCreditCard,
	start: regexp.MustCompile(
		`^(?P<posting>` + ccDateRe + `)\s+(?P<date>` + ccDateRe + `)\s+(?P<rest>.*)$`,
	),
	cut: func(text string) (string, columns, bool) {
		m := creditCardRow.FindStringSubmatch(text)
		if m == nil {
			return "", columns{}, false
		}
		return m[1], columns{amount: m[2]}, true
	},
	opening:     []string{"previous balance", "previous statement balance", "baki terdahulu"},
	closing:     []string{"current balance", "new balance", "baki semasa"},
	terminators: []string{"sub total", "subtotal", "total credit limit", "end of statement"},
	headers: [][]string{
		{"posting date", "transaction date"},
		{"tarikh pos", "tarikh transaksi"},
	},
}
