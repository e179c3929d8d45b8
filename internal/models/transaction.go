package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// NormalizedLine is one cleaned line of statement text with its provenance.
type NormalizedLine struct {
	Text      string `json:"text"`
	PageIndex int    `json:"pageIndex"`
	LineIndex int    `json:"lineIndex"`
}

// RawFragment holds the unparsed field strings of one transaction block.
// Lines are positions in the normalized line stream.
type RawFragment struct {
	Format          Format   `json:"format"`
	DateText        string   `json:"dateText"`
	PostingDateText string   `json:"postingDateText,omitempty"`
	Description     []string `json:"description"`
	AmountText      string   `json:"amountText,omitempty"` // single signed column, may carry DR/CR
	DebitText       string   `json:"debitText,omitempty"`
	CreditText      string   `json:"creditText,omitempty"`
	BalanceText     string   `json:"balanceText,omitempty"`
	Lines           []int    `json:"lines"`
}

// Transaction is the canonical output record.
// Exactly one of DebitAmount / CreditAmount is valid and it is never negative.
type Transaction struct {
	Date         time.Time           `json:"date"`
	Description  string              `json:"description"`
	DebitAmount  decimal.NullDecimal `json:"debitAmount"`
	CreditAmount decimal.NullDecimal `json:"creditAmount"`
	Balance      decimal.NullDecimal `json:"balance"`
	RawLines     []int               `json:"rawLines"`
}

// IsDebit reports whether the transaction reduces the balance.
func (t Transaction) IsDebit() bool {
	return t.DebitAmount.Valid
}

// SignedAmount returns the balance change: negative for debits.
func (t Transaction) SignedAmount() decimal.Decimal {
	if t.DebitAmount.Valid {
		return t.DebitAmount.Decimal.Neg()
	}
	return t.CreditAmount.Decimal
}

// Amount returns the unsigned amount regardless of direction.
func (t Transaction) Amount() decimal.Decimal {
	if t.DebitAmount.Valid {
		return t.DebitAmount.Decimal
	}
	return t.CreditAmount.Decimal
}

// BalanceMismatch records a row whose stated balance disagrees with the
// replayed running balance.
type BalanceMismatch struct {
	Index    int             `json:"index"`
	Expected decimal.Decimal `json:"expected"`
	Computed decimal.Decimal `json:"computed"`
}

// ReconciliationResult is the reconciled transaction list plus summary figures.
type ReconciliationResult struct {
	Transactions      []Transaction       `json:"transactions"`
	OpeningBalance    decimal.NullDecimal `json:"openingBalance"`
	ClosingBalance    decimal.NullDecimal `json:"closingBalance"`
	BalanceMismatches []BalanceMismatch   `json:"balanceMismatches"`
	TotalDebits       decimal.Decimal     `json:"totalDebits"`
	TotalCredits      decimal.Decimal     `json:"totalCredits"`
	NetAmount         decimal.Decimal     `json:"netAmount"`
	TransactionCount  int                 `json:"transactionCount"`
	DebitCount        int                 `json:"debitCount"`
	CreditCount       int                 `json:"creditCount"`
	StartDate         *time.Time          `json:"startDate,omitempty"`
	EndDate           *time.Time          `json:"endDate,omitempty"`
}

// DocumentResult is everything the engine returns for one document.
type DocumentResult struct {
	Format      Format               `json:"format"`
	Confidence  float64              `json:"confidence"`
	Result      ReconciliationResult `json:"result"`
	Diagnostics []Diagnostic         `json:"diagnostics"`
}
