package engine

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maherduit/statement-engine/internal/logging"
	"github.com/maherduit/statement-engine/internal/models"
	"github.com/maherduit/statement-engine/internal/parser"
)

var maybankPages = [][]string{
	{
		"MALAYAN BANKING BERHAD (3813-K)",
		"URUSNIAGA AKAUN / ACCOUNT TRANSACTIONS",
		"ENTRY DATE VALUE DATE TRANSACTION DESCRIPTION TRANSACTION AMOUNT STATEMENT BALANCE",
		"BEGINNING BALANCE 1,000.00",
		"02/01/24 GROCERY STORE 50.00- 950.00",
		"03/01/24 TRANSFER FR A/C 500.00+ 1,450.00",
		"AHMAD BIN ALI",
	},
	{
		"04/01/24 ATM WITHDRAWAL 100.00- 1,300.00",
		"05/01/24 BROKEN",
		"ENDING BALANCE 1,300.00",
	},
}

func kinds(diags []models.Diagnostic) []models.ErrorKind {
	out := []models.ErrorKind{}
	for _, d := range diags {
		out = append(out, d.Kind)
	}
	return out
}

func TestProcessDocument_OpeningBalanceScenario(t *testing.T) {
	e := New(DefaultOptions(), nil)
	pages := [][]string{{
		"01/01/24 OPENING BALANCE 1,000.00",
		"02/01/24 GROCERY STORE 50.00 950.00",
	}}

	res := e.ProcessDocument(pages, "maybank")

	assert.Equal(t, models.FormatMaybank, res.Format)
	require.Len(t, res.Result.Transactions, 1)
	txn := res.Result.Transactions[0]
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), txn.Date)
	require.True(t, txn.DebitAmount.Valid)
	assert.True(t, txn.DebitAmount.Decimal.Equal(decimal.RequireFromString("50.00")))
	assert.False(t, txn.CreditAmount.Valid)
	assert.True(t, txn.Balance.Decimal.Equal(decimal.RequireFromString("950.00")))
	assert.True(t, res.Result.OpeningBalance.Decimal.Equal(decimal.RequireFromString("1000")))
	assert.Empty(t, res.Result.BalanceMismatches)
}

func TestProcessDocument_Classified(t *testing.T) {
	log := logging.NewMockLogger()
	e := New(DefaultOptions(), log)

	res := e.ProcessDocument(maybankPages, "")

	assert.Equal(t, models.FormatMaybank, res.Format)
	assert.Greater(t, res.Confidence, parser.DefaultAcceptanceThreshold)
	require.Len(t, res.Result.Transactions, 3)
	assert.Equal(t, "TRANSFER FR A/C AHMAD BIN ALI", res.Result.Transactions[1].Description)
	assert.True(t, res.Result.TotalDebits.Equal(decimal.RequireFromString("150")))
	assert.True(t, res.Result.TotalCredits.Equal(decimal.RequireFromString("500")))

	require.Len(t, res.Result.BalanceMismatches, 1)
	assert.Equal(t, 2, res.Result.BalanceMismatches[0].Index)
	assert.Equal(t, []models.ErrorKind{models.KindFragmentSkipped, models.KindBalanceMismatch}, kinds(res.Diagnostics))
	assert.True(t, res.Result.ClosingBalance.Decimal.Equal(decimal.RequireFromString("1300")))

	assert.True(t, log.HasEntry("INFO", "processed document"))
}

func TestProcessDocument_StatedClosingMismatch(t *testing.T) {
	pages := [][]string{append([]string{}, maybankPages[0]...), {
		"04/01/24 ATM WITHDRAWAL 100.00- 1,350.00",
		"ENDING BALANCE 1,200.00",
	}}

	res := New(DefaultOptions(), nil).ProcessDocument(pages, "")

	require.Len(t, res.Result.BalanceMismatches, 1)
	m := res.Result.BalanceMismatches[0]
	assert.Equal(t, 3, m.Index)
	assert.True(t, m.Expected.Equal(decimal.RequireFromString("1200")))
	assert.True(t, m.Computed.Equal(decimal.RequireFromString("1350")))
	assert.Equal(t, []models.ErrorKind{models.KindBalanceMismatch}, kinds(res.Diagnostics))
}

func TestProcessDocument_Unknown(t *testing.T) {
	e := New(DefaultOptions(), nil)

	for _, pages := range [][][]string{
		nil,
		{},
		{{}},
		{{"lorem ipsum", "dolor sit amet"}},
	} {
		res := e.ProcessDocument(pages, "")
		assert.Equal(t, models.FormatUnknown, res.Format)
		assert.Zero(t, res.Confidence)
		assert.Empty(t, res.Result.Transactions)
		assert.NotNil(t, res.Result.Transactions)
		assert.Equal(t, []models.ErrorKind{models.KindClassificationUnknown}, kinds(res.Diagnostics))
	}
}

func TestProcessDocument_HintNeverOverridesClassification(t *testing.T) {
	res := New(DefaultOptions(), nil).ProcessDocument(maybankPages, "cimb")
	assert.Equal(t, models.FormatMaybank, res.Format)
	assert.NotContains(t, kinds(res.Diagnostics), models.KindClassificationUnknown)
}

type stubExtractor struct {
	out parser.Extraction
}

func (s stubExtractor) Extract([]models.NormalizedLine) parser.Extraction { return s.out }
func (s stubExtractor) Format() models.Format                             { return models.FormatCIMB }
func (s stubExtractor) BankName() string                                  { return "stub" }

func TestProcessDocument_AmountUnparseable(t *testing.T) {
	e := New(DefaultOptions(), nil)
	e.newExtractor = func(models.Format) (parser.Extractor, error) {
		return stubExtractor{out: parser.Extraction{
			Fragments: []models.RawFragment{
				{Format: models.FormatCIMB, DateText: "05/02/2024", Description: []string{"BAD"}, AmountText: "abc", BalanceText: "1,000.00", Lines: []int{0}},
				{Format: models.FormatCIMB, DateText: "06/02/2024", Description: []string{"GOOD"}, AmountText: "10.00", BalanceText: "990.00", Lines: []int{1}},
			},
		}}, nil
	}

	res := e.ProcessDocument([][]string{{"x", "y"}}, "cimb")

	require.Len(t, res.Result.Transactions, 1)
	assert.Equal(t, "GOOD", res.Result.Transactions[0].Description)
	assert.Contains(t, kinds(res.Diagnostics), models.KindAmountUnparseable)
	for _, d := range res.Diagnostics {
		if d.Kind == models.KindAmountUnparseable {
			assert.Equal(t, []int{0}, d.Lines)
			assert.Contains(t, d.Message, "abc")
		}
	}
}

func TestProcessDocument_NonNumericMaybankAmount(t *testing.T) {
	pages := [][]string{{
		"MALAYAN BANKING BERHAD (3813-K)",
		"URUSNIAGA AKAUN / ACCOUNT TRANSACTIONS",
		"ENTRY DATE VALUE DATE TRANSACTION DESCRIPTION TRANSACTION AMOUNT STATEMENT BALANCE",
		"BEGINNING BALANCE 1,000.00",
		"02/01/24 GROCERY STORE abc 950.00",
		"03/01/24 ATM WITHDRAWAL 100.00- 850.00",
	}}

	res := New(DefaultOptions(), nil).ProcessDocument(pages, "")

	require.Equal(t, models.FormatMaybank, res.Format)
	require.Len(t, res.Result.Transactions, 1)
	assert.Equal(t, "ATM WITHDRAWAL", res.Result.Transactions[0].Description)

	ks := kinds(res.Diagnostics)
	assert.Contains(t, ks, models.KindAmountUnparseable)
	assert.NotContains(t, ks, models.KindFragmentSkipped)
	for _, d := range res.Diagnostics {
		if d.Kind == models.KindAmountUnparseable {
			assert.Equal(t, []int{4}, d.Lines)
			assert.Contains(t, d.Message, "abc")
		}
	}
}

func TestProcessDocument_MaybankPageFurnitureNotInDescription(t *testing.T) {
	pages := [][]string{
		{
			"MALAYAN BANKING BERHAD (3813-K)",
			"URUSNIAGA AKAUN / ACCOUNT TRANSACTIONS",
			"ENTRY DATE VALUE DATE TRANSACTION DESCRIPTION TRANSACTION AMOUNT STATEMENT BALANCE",
			"BEGINNING BALANCE 1,000.00",
			"02/01/24 GROCERY STORE 50.00- 950.00",
			"Perhatian / Note: Semua maklumat adalah benar",
		},
		{
			"MALAYAN BANKING BERHAD (3813-K)",
			"MUKA/ PAGE : 2",
			"STATEMENT DATE : 31/01/24",
			"ACCOUNT NUMBER 512345-678901",
			"03/01/24 TRANSFER FR A/C 500.00+ 1,450.00",
			"ENDING BALANCE 1,450.00",
		},
	}

	res := New(DefaultOptions(), nil).ProcessDocument(pages, "")

	require.Len(t, res.Result.Transactions, 2)
	first := res.Result.Transactions[0]
	assert.Equal(t, "GROCERY STORE", first.Description)
	assert.Equal(t, []int{4}, first.RawLines)
	assert.Equal(t, "TRANSFER FR A/C", res.Result.Transactions[1].Description)
	assert.Empty(t, res.Result.BalanceMismatches)
}

func TestProcessDocument_Idempotent(t *testing.T) {
	e := New(DefaultOptions(), nil)

	first, err := json.Marshal(e.ProcessDocument(maybankPages, ""))
	require.NoError(t, err)
	second, err := json.Marshal(e.ProcessDocument(maybankPages, ""))
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestNew_ClampsOptions(t *testing.T) {
	e := New(Options{Workers: 0, MaxBatchDocuments: 0}, nil)
	assert.Equal(t, 1, e.Options().Workers)
	assert.Equal(t, 10, e.Options().MaxBatchDocuments)
}
