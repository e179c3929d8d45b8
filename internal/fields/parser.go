package fields

import (
	"errors"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/maherduit/statement-engine/internal/models"
)

// progressionTolerance is how close a replayed balance must be to the
// printed one for balance progression to decide a direction.
var progressionTolerance = decimal.RequireFromString("0.015")

var creditKeywords = regexp.MustCompile(
	`(?i)\b(SALARY|GAJI|DEPOSIT|REFUND|TRANSFER FR|INWARD|DIVIDEND|PROFIT PAID|INTEREST CREDIT|CR)\b`,
)

// Parser turns raw fragments of one document into transactions. It tracks
// the previous row balance so unsigned amounts can be resolved, so a Parser
// must not be shared between documents.
type Parser struct {
	format      models.Format
	prevBalance decimal.NullDecimal
}

// NewParser returns a parser for one document. opening seeds the balance
// progression when the statement declares an opening balance.
func NewParser(format models.Format, opening decimal.NullDecimal) *Parser {
	return &Parser{format: format, prevBalance: opening}
}

// ParseFields parses a single fragment with no balance context.
func ParseFields(frag models.RawFragment, format models.Format) (models.Transaction, error) {
	return NewParser(format, decimal.NullDecimal{}).Parse(frag)
}

// Parse converts a fragment into a transaction. A non-nil error is always a
// *models.ParseError.
func (p *Parser) Parse(frag models.RawFragment) (models.Transaction, error) {
	date, err := ParseDate(frag.DateText, p.format)
	if err != nil {
		return models.Transaction{}, p.fail(models.KindDateUnparseable, frag, "date", frag.DateText, err)
	}

	txn := models.Transaction{
		Date:        date,
		Description: joinDescription(frag.Description),
		RawLines:    append([]int{}, frag.Lines...),
	}

	if frag.BalanceText != "" {
		bal, err := parseRowBalance(frag.BalanceText)
		if err != nil {
			return models.Transaction{}, p.fail(models.KindAmountUnparseable, frag, "balance", frag.BalanceText, err)
		}
		txn.Balance = decimal.NewNullDecimal(bal)
	}

	if frag.DebitText != "" || frag.CreditText != "" {
		err = p.resolveColumns(&txn, frag)
	} else {
		err = p.resolveSingle(&txn, frag)
	}
	if err != nil {
		return models.Transaction{}, err
	}

	if txn.Balance.Valid {
		p.prevBalance = txn.Balance
	}
	return txn, nil
}

// resolveColumns handles layouts with separate withdrawal and deposit columns.
func (p *Parser) resolveColumns(txn *models.Transaction, frag models.RawFragment) error {
	var debit, credit Amount
	var err error

	if frag.DebitText != "" {
		if debit, err = ParseAmount(frag.DebitText); err != nil {
			return p.fail(models.KindAmountUnparseable, frag, "debit", frag.DebitText, err)
		}
	}
	if frag.CreditText != "" {
		if credit, err = ParseAmount(frag.CreditText); err != nil {
			return p.fail(models.KindAmountUnparseable, frag, "credit", frag.CreditText, err)
		}
	}

	hasDebit := frag.DebitText != "" && !debit.Value.IsZero()
	hasCredit := frag.CreditText != "" && !credit.Value.IsZero()

	switch {
	case hasDebit && hasCredit:
		return p.fail(models.KindAmountUnparseable, frag, "amount",
			frag.DebitText+" / "+frag.CreditText,
			errors.New("both withdrawal and deposit columns are filled"))
	case hasCredit:
		txn.CreditAmount = decimal.NewNullDecimal(credit.Value)
	case frag.DebitText != "":
		txn.DebitAmount = decimal.NewNullDecimal(debit.Value)
	default:
		txn.CreditAmount = decimal.NewNullDecimal(credit.Value)
	}
	return nil
}

// resolveSingle handles layouts with one amount column whose direction comes
// from a sign, a CR/DR marker, the balance progression or the description.
func (p *Parser) resolveSingle(txn *models.Transaction, frag models.RawFragment) error {
	if strings.TrimSpace(frag.AmountText) == "" {
		return p.fail(models.KindAmountUnparseable, frag, "amount", "", errors.New("no amount column"))
	}

	a, err := ParseAmount(frag.AmountText)
	if err != nil {
		return p.fail(models.KindAmountUnparseable, frag, "amount", frag.AmountText, err)
	}

	if p.isDebit(a, txn) {
		txn.DebitAmount = decimal.NewNullDecimal(a.Value)
	} else {
		txn.CreditAmount = decimal.NewNullDecimal(a.Value)
	}
	return nil
}

func (p *Parser) isDebit(a Amount, txn *models.Transaction) bool {
	switch a.Marker {
	case "DR":
		return true
	case "CR":
		return false
	}

	if p.format == models.FormatMaybankCreditCard {
		// card statements list charges unsigned and refunds negative
		return !a.Negative
	}

	switch {
	case a.Negative:
		return true
	case a.Positive:
		return false
	}
	return classifyByBalance(a.Value, txn.Balance, p.prevBalance, txn.Description)
}

// classifyByBalance decides the direction of an unsigned amount by
// comparing the previous and current balances, falling back to the
// description when the balances cannot decide.
func classifyByBalance(amt decimal.Decimal, bal, prev decimal.NullDecimal, desc string) bool {
	if bal.Valid && prev.Valid {
		debitDiff := prev.Decimal.Sub(amt).Sub(bal.Decimal).Abs()
		creditDiff := prev.Decimal.Add(amt).Sub(bal.Decimal).Abs()

		debitOK := debitDiff.LessThan(progressionTolerance)
		creditOK := creditDiff.LessThan(progressionTolerance)
		switch {
		case debitOK && !creditOK:
			return true
		case creditOK && !debitOK:
			return false
		case debitOK && creditOK:
			return debitDiff.LessThanOrEqual(creditDiff)
		}
	}

	return !creditKeywords.MatchString(desc)
}

func (p *Parser) fail(kind models.ErrorKind, frag models.RawFragment, field, value string, cause error) error {
	return &models.ParseError{
		Kind:     kind,
		Fragment: frag,
		Field:    field,
		Value:    value,
		Reason:   cause.Error(),
	}
}

func joinDescription(parts []string) string {
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}
