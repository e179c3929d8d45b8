// Package reconcile replays running balances over parsed transactions and
// computes the statement summary.
package reconcile

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/maherduit/statement-engine/internal/models"
)

// DefaultTolerance absorbs rounding in printed balances.
var DefaultTolerance = decimal.RequireFromString("0.01")

// Reconciler compares replayed balances against stated ones.
type Reconciler struct {
	Tolerance decimal.Decimal
}

// New returns a reconciler with the given tolerance. A negative tolerance
// is treated as zero.
func New(tolerance decimal.Decimal) Reconciler {
	if tolerance.IsNegative() {
		tolerance = decimal.Zero
	}
	return Reconciler{Tolerance: tolerance}
}

// Reconcile uses DefaultTolerance.
func Reconcile(txns []models.Transaction, declaredOpening decimal.NullDecimal) models.ReconciliationResult {
	return New(DefaultTolerance).Reconcile(txns, declaredOpening)
}

// Reconcile walks the transactions in document order. The running balance
// starts at declaredOpening, or is derived from the first transaction that
// states a balance. Each stated balance that differs from the running one by
// more than the tolerance is recorded, and the running balance then resumes
// from the stated value so one bad row is reported once.
func (r Reconciler) Reconcile(txns []models.Transaction, declaredOpening decimal.NullDecimal) models.ReconciliationResult {
	res := models.ReconciliationResult{
		Transactions:      txns,
		BalanceMismatches: []models.BalanceMismatch{},
		TotalDebits:       decimal.Zero,
		TotalCredits:      decimal.Zero,
		NetAmount:         decimal.Zero,
	}
	if res.Transactions == nil {
		res.Transactions = []models.Transaction{}
	}

	opening := declaredOpening
	if !opening.Valid {
		opening = deriveOpening(txns)
	}
	res.OpeningBalance = opening

	running := opening
	for i, t := range txns {
		if t.IsDebit() {
			res.TotalDebits = res.TotalDebits.Add(t.Amount())
			res.DebitCount++
		} else {
			res.TotalCredits = res.TotalCredits.Add(t.Amount())
			res.CreditCount++
		}

		if running.Valid {
			running.Decimal = running.Decimal.Add(t.SignedAmount())
		}

		if t.Balance.Valid {
			if running.Valid && running.Decimal.Sub(t.Balance.Decimal).Abs().GreaterThan(r.Tolerance) {
				res.BalanceMismatches = append(res.BalanceMismatches, models.BalanceMismatch{
					Index:    i,
					Expected: t.Balance.Decimal,
					Computed: running.Decimal,
				})
			}
			running = t.Balance
		}

		res.StartDate = earliest(res.StartDate, t.Date)
		res.EndDate = latest(res.EndDate, t.Date)
	}

	res.ClosingBalance = running
	res.TransactionCount = len(txns)
	res.NetAmount = res.TotalCredits.Sub(res.TotalDebits)
	return res
}

// Within reports whether a and b differ by no more than the tolerance.
func (r Reconciler) Within(a, b decimal.Decimal) bool {
	return !a.Sub(b).Abs().GreaterThan(r.Tolerance)
}

// deriveOpening backs out the opening balance from the first stated balance:
// opening = balance_k - sum(signed amounts 0..k).
func deriveOpening(txns []models.Transaction) decimal.NullDecimal {
	sum := decimal.Zero
	for _, t := range txns {
		sum = sum.Add(t.SignedAmount())
		if t.Balance.Valid {
			return decimal.NewNullDecimal(t.Balance.Decimal.Sub(sum))
		}
	}
	return decimal.NullDecimal{}
}

func earliest(cur *time.Time, t time.Time) *time.Time {
	if cur == nil || t.Before(*cur) {
		return &t
	}
	return cur
}

func latest(cur *time.Time, t time.Time) *time.Time {
	if cur == nil || t.After(*cur) {
		return &t
	}
	return cur
}
