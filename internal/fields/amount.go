package fields

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/maherduit/statement-engine/internal/models"
)

// Amount is a parsed monetary string. Value is never negative; the sign and
// any debit/credit marker are kept separately because their meaning depends
// on the statement format.
type Amount struct {
	Value    decimal.Decimal
	Negative bool   // leading or trailing "-", or parentheses
	Positive bool   // explicit "+"
	Marker   string // "CR", "DR" or ""
}

var (
	numericPattern  = regexp.MustCompile(`^\d+(\.\d+)?$`)
	markerPattern   = regexp.MustCompile(`\s*(CR|DR)$`)
	currencyReplace = strings.NewReplacer("RM", "", "MYR", "", "$", "", ",", "", " ", "")
)

// ParseAmount strips currency symbols, thousands separators and sign
// markers from s. It fails on an empty or non-numeric remainder.
func ParseAmount(s string) (Amount, error) {
	var a Amount
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return a, fmt.Errorf("empty amount: %w", models.ErrAmountUnparseable)
	}

	if m := markerPattern.FindStringSubmatch(s); m != nil {
		a.Marker = strings.ToUpper(m[1])
		s = strings.TrimSpace(s[:len(s)-len(m[0])])
	}

	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		a.Negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	switch {
	case strings.HasPrefix(s, "-"):
		a.Negative = true
		s = s[1:]
	case strings.HasSuffix(s, "-"):
		a.Negative = true
		s = s[:len(s)-1]
	case strings.HasPrefix(s, "+"):
		a.Positive = true
		s = s[1:]
	case strings.HasSuffix(s, "+"):
		a.Positive = true
		s = s[:len(s)-1]
	}

	s = currencyReplace.Replace(s)
	if !numericPattern.MatchString(s) {
		return Amount{}, fmt.Errorf("non-numeric amount %q: %w", s, models.ErrAmountUnparseable)
	}

	v, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("invalid amount %q: %w", s, models.ErrAmountUnparseable)
	}
	a.Value = v
	return a, nil
}

// ParseStatedBalance parses an opening or closing balance printed on the
// statement. Bank balances are negative when overdrawn (DR or "-"). Card
// balances are amounts owed, so they are negative unless marked CR.
func ParseStatedBalance(s string, format models.Format) (decimal.Decimal, error) {
	a, err := ParseAmount(s)
	if err != nil {
		return decimal.Zero, err
	}

	switch format {
	case models.FormatMaybankCreditCard:
		if a.Marker == "CR" || a.Negative {
			return a.Value, nil
		}
		return a.Value.Neg(), nil
	default:
		if a.Marker == "DR" || a.Negative {
			return a.Value.Neg(), nil
		}
		return a.Value, nil
	}
}

// parseRowBalance parses the running balance column of a bank row.
func parseRowBalance(s string) (decimal.Decimal, error) {
	return ParseStatedBalance(s, models.FormatMaybank)
}
