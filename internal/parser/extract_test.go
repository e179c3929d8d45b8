package parser

import (
	"reflect"
	"strings"
	"testing"

	"github.com/maherduit/statement-engine/internal/models"
)

func TestNew(t *testing.T) {
	for _, f := range models.KnownFormats {
		e, err := New(f)
		if err != nil {
			t.Fatalf("New(%q): unexpected error: %v", f, err)
		}
		if e.Format() != f {
			t.Errorf("New(%q).Format() = %q", f, e.Format())
		}
		if e.BankName() == "" || e.BankName() == "Unknown" {
			t.Errorf("New(%q).BankName() = %q", f, e.BankName())
		}
	}

	if _, err := New(models.FormatUnknown); err == nil {
		t.Error("expected error for unknown format, got nil")
	}
	if _, err := New(models.Format("hsbc")); err == nil {
		t.Error("expected error for unsupported format, got nil")
	}
}

func TestMaybankExtractor_Extract(t *testing.T) {
	lines := toLines(`URUSNIAGA AKAUN / ACCOUNT TRANSACTIONS
BEGINNING BALANCE 1,000.00
02/01/24 TRANSFER FR A/C 1,500.00+ 2,500.00
JOHN DOE
03/01/24 PAYMENT TO
TNB BILL 120.00- 2,380.00
04/01/24 BROKEN ROW
ENDING BALANCE 2,380.00`)

	got := (&MaybankExtractor{}).Extract(lines)

	if got.OpeningText != "1,000.00" {
		t.Errorf("opening: got %q, want %q", got.OpeningText, "1,000.00")
	}
	if got.ClosingText != "2,380.00" {
		t.Errorf("closing: got %q, want %q", got.ClosingText, "2,380.00")
	}
	if len(got.Fragments) != 2 {
		t.Fatalf("fragments: got %d, want 2", len(got.Fragments))
	}

	f := got.Fragments[0]
	if f.DateText != "02/01/24" {
		t.Errorf("frag[0].DateText: got %q", f.DateText)
	}
	if !reflect.DeepEqual(f.Description, []string{"TRANSFER FR A/C", "JOHN DOE"}) {
		t.Errorf("frag[0].Description: got %q", f.Description)
	}
	if f.AmountText != "1,500.00+" || f.BalanceText != "2,500.00" {
		t.Errorf("frag[0] amounts: got %q / %q", f.AmountText, f.BalanceText)
	}
	if !reflect.DeepEqual(f.Lines, []int{2, 3}) {
		t.Errorf("frag[0].Lines: got %v, want [2 3]", f.Lines)
	}

	f = got.Fragments[1]
	if !reflect.DeepEqual(f.Description, []string{"PAYMENT TO", "TNB BILL"}) {
		t.Errorf("frag[1].Description: got %q", f.Description)
	}
	if f.AmountText != "120.00-" || f.BalanceText != "2,380.00" {
		t.Errorf("frag[1] amounts: got %q / %q", f.AmountText, f.BalanceText)
	}

	if len(got.Skipped) != 1 {
		t.Fatalf("skipped: got %d, want 1", len(got.Skipped))
	}
	if !reflect.DeepEqual(got.Skipped[0].Lines, []int{6}) {
		t.Errorf("skipped lines: got %v, want [6]", got.Skipped[0].Lines)
	}
	if got.Skipped[0].Text[0] != "04/01/24 BROKEN ROW" {
		t.Errorf("skipped text: got %q", got.Skipped[0].Text)
	}
}

func TestMaybankExtractor_OpeningLineWithDate(t *testing.T) {
	lines := toLines("01/01/24 OPENING BALANCE 1,000.00\n02/01/24 GROCERY STORE 50.00 950.00")
	got := (&MaybankExtractor{}).Extract(lines)

	if got.OpeningText != "1,000.00" {
		t.Errorf("opening: got %q", got.OpeningText)
	}
	if len(got.Fragments) != 1 {
		t.Fatalf("fragments: got %d, want 1", len(got.Fragments))
	}
	f := got.Fragments[0]
	if f.DateText != "02/01/24" || f.AmountText != "50.00" || f.BalanceText != "950.00" {
		t.Errorf("got %+v", f)
	}
	if len(got.Skipped) != 0 {
		t.Errorf("skipped: got %d, want 0", len(got.Skipped))
	}
}

func TestCIMBExtractor_Extract(t *testing.T) {
	lines := toLines(`Date Description Cheque / Ref No Withdrawal Deposits Tax Balance
OPENING BALANCE 1,000.00
05/02/2024 DUITNOW TRANSFER 100.00 1,100.00
06/02/2024 CASH DEPOSIT
MACHINE 88 20.00 300.00 1,380.00
Page 1 of 2
CLOSING BALANCE 1,380.00`)

	got := (&CIMBExtractor{}).Extract(lines)

	if got.OpeningText != "1,000.00" || got.ClosingText != "1,380.00" {
		t.Errorf("stated balances: got %q / %q", got.OpeningText, got.ClosingText)
	}
	if len(got.Fragments) != 2 {
		t.Fatalf("fragments: got %d, want 2", len(got.Fragments))
	}

	f := got.Fragments[0]
	if f.AmountText != "100.00" || f.DebitText != "" || f.BalanceText != "1,100.00" {
		t.Errorf("frag[0]: got %+v", f)
	}

	f = got.Fragments[1]
	if f.DebitText != "20.00" || f.CreditText != "300.00" || f.BalanceText != "1,380.00" {
		t.Errorf("frag[1]: got %+v", f)
	}
	if !reflect.DeepEqual(f.Description, []string{"CASH DEPOSIT", "MACHINE 88"}) {
		t.Errorf("frag[1].Description: got %q", f.Description)
	}
}

func TestAllianceExtractor_Extract(t *testing.T) {
	lines := toLines(`Trans Date Transaction Details Cheque No Amount Balance
BEGINNING BALANCE 920.50
150124 IBG CREDIT PAYROLL 3,200.00 CR 4,120.50
160124 CHQ 000123
50.00 DR 4,070.50
TOTAL DEBIT 50.00`)

	got := (&AllianceExtractor{}).Extract(lines)

	if got.OpeningText != "920.50" {
		t.Errorf("opening: got %q", got.OpeningText)
	}
	if len(got.Fragments) != 2 {
		t.Fatalf("fragments: got %d, want 2", len(got.Fragments))
	}
	if f := got.Fragments[0]; f.DateText != "150124" || f.AmountText != "3,200.00 CR" || f.BalanceText != "4,120.50" {
		t.Errorf("frag[0]: got %+v", f)
	}
	f := got.Fragments[1]
	if f.AmountText != "50.00 DR" || !reflect.DeepEqual(f.Description, []string{"CHQ 000123"}) {
		t.Errorf("frag[1]: got %+v", f)
	}
	if !reflect.DeepEqual(f.Lines, []int{3, 4}) {
		t.Errorf("frag[1].Lines: got %v", f.Lines)
	}
}

func TestMaybankCreditCardExtractor_Extract(t *testing.T) {
	lines := toLines(`Posting Date Transaction Date Transaction Description Amount (RM)
PREVIOUS BALANCE 1,234.56
03/01/2024 02/01/2024 SHELL PETALING JAYA 85.40
10/01/2024 10/01/2024 PAYMENT - THANK YOU 500.00 CR
12/01/2024 11/01/2024 LAZADA
SUB TOTAL 85.40`)

	got := (&MaybankCreditCardExtractor{}).Extract(lines)

	if got.OpeningText != "1,234.56" {
		t.Errorf("opening: got %q", got.OpeningText)
	}
	if len(got.Fragments) != 2 {
		t.Fatalf("fragments: got %d, want 2", len(got.Fragments))
	}
	f := got.Fragments[0]
	if f.PostingDateText != "03/01/2024" || f.DateText != "02/01/2024" {
		t.Errorf("frag[0] dates: got %q / %q", f.PostingDateText, f.DateText)
	}
	if f.AmountText != "85.40" || f.BalanceText != "" {
		t.Errorf("frag[0] amounts: got %q / %q", f.AmountText, f.BalanceText)
	}
	if got.Fragments[1].AmountText != "500.00 CR" {
		t.Errorf("frag[1].AmountText: got %q", got.Fragments[1].AmountText)
	}
	if len(got.Skipped) != 1 {
		t.Fatalf("skipped: got %d, want 1", len(got.Skipped))
	}
	if got.Skipped[0].Format != models.FormatMaybankCreditCard {
		t.Errorf("skipped format: got %q", got.Skipped[0].Format)
	}
}

func TestExtract_EmptyInput(t *testing.T) {
	for _, f := range models.KnownFormats {
		e, _ := New(f)
		got := e.Extract(nil)
		if got.Fragments == nil || len(got.Fragments) != 0 {
			t.Errorf("%s: fragments got %v, want empty non-nil", f, got.Fragments)
		}
		if len(got.Skipped) != 0 {
			t.Errorf("%s: skipped got %v", f, got.Skipped)
		}
	}
}

// pagedLines numbers lines the way the normalizer does, one page per string.
func pagedLines(pages ...string) []models.NormalizedLine {
	var lines []models.NormalizedLine
	for p, page := range pages {
		for i, l := range strings.Split(page, "\n") {
			lines = append(lines, models.NormalizedLine{Text: l, PageIndex: p, LineIndex: i})
		}
	}
	return lines
}

func TestMaybankExtractor_DetailStopsAtPageFurniture(t *testing.T) {
	lines := pagedLines(`MALAYAN BANKING BERHAD (3813-K)
URUSNIAGA AKAUN / ACCOUNT TRANSACTIONS
ENTRY DATE VALUE DATE TRANSACTION DESCRIPTION TRANSACTION AMOUNT STATEMENT BALANCE
BEGINNING BALANCE 1,000.00
02/01/24 GROCERY STORE 50.00- 950.00
Perhatian / Note: Semua maklumat adalah benar`,
		`MALAYAN BANKING BERHAD (3813-K)
MUKA/ PAGE : 2
STATEMENT DATE : 31/01/24
ACCOUNT NUMBER 512345-678901
03/01/24 TRANSFER FR A/C 500.00+ 1,450.00
AHMAD BIN ALI
ENDING BALANCE 1,450.00`)

	got := (&MaybankExtractor{}).Extract(lines)

	if len(got.Fragments) != 2 {
		t.Fatalf("fragments: got %d, want 2", len(got.Fragments))
	}
	f := got.Fragments[0]
	if !reflect.DeepEqual(f.Description, []string{"GROCERY STORE"}) {
		t.Errorf("frag[0].Description: got %q, want [GROCERY STORE]", f.Description)
	}
	if !reflect.DeepEqual(f.Lines, []int{4}) {
		t.Errorf("frag[0].Lines: got %v, want [4]", f.Lines)
	}
	f = got.Fragments[1]
	if !reflect.DeepEqual(f.Description, []string{"TRANSFER FR A/C", "AHMAD BIN ALI"}) {
		t.Errorf("frag[1].Description: got %q", f.Description)
	}
	if len(got.Skipped) != 0 {
		t.Errorf("skipped: got %v, want none", got.Skipped)
	}
}

func TestMaybankExtractor_DetailStopsAtPageChange(t *testing.T) {
	lines := pagedLines(
		"02/01/24 GROCERY STORE 50.00- 950.00\nMYDIN MART",
		"SOME UNRECOGNISED PAGE HEADER\n03/01/24 ATM WITHDRAWAL 100.00- 850.00",
	)

	got := (&MaybankExtractor{}).Extract(lines)

	if len(got.Fragments) != 2 {
		t.Fatalf("fragments: got %d, want 2", len(got.Fragments))
	}
	if want := []string{"GROCERY STORE", "MYDIN MART"}; !reflect.DeepEqual(got.Fragments[0].Description, want) {
		t.Errorf("frag[0].Description: got %q, want %q", got.Fragments[0].Description, want)
	}
}

func TestMaybankExtractor_NonNumericAmount(t *testing.T) {
	lines := toLines("02/01/24 GROCERY STORE abc 950.00\n03/01/24 ATM WITHDRAWAL 100.00- 850.00")

	got := (&MaybankExtractor{}).Extract(lines)

	if len(got.Skipped) != 0 {
		t.Errorf("skipped: got %v, want none", got.Skipped)
	}
	if len(got.Fragments) != 2 {
		t.Fatalf("fragments: got %d, want 2", len(got.Fragments))
	}
	f := got.Fragments[0]
	if f.AmountText != "abc" || f.BalanceText != "950.00" {
		t.Errorf("frag[0] amounts: got %q / %q, want %q / %q", f.AmountText, f.BalanceText, "abc", "950.00")
	}
	if !reflect.DeepEqual(f.Description, []string{"GROCERY STORE"}) {
		t.Errorf("frag[0].Description: got %q", f.Description)
	}
}

func TestCreditCardExtractor_NoBalanceAnchor(t *testing.T) {
	// Without a balance column a trailing word is description, not an amount.
	lines := toLines("03/01/2024 02/01/2024 SHELL abc")

	got := (&MaybankCreditCardExtractor{}).Extract(lines)

	if len(got.Fragments) != 0 {
		t.Errorf("fragments: got %v, want none", got.Fragments)
	}
	if len(got.Skipped) != 1 {
		t.Errorf("skipped: got %d, want 1", len(got.Skipped))
	}
}

func TestIsPageNoise(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"MUKA/ PAGE : 2", true},
		{"Muka / Page 3 of 4", true},
		{"Page 1 of 2", true},
		{"2 / 5", true},
		{"PAYMENT PAGE 2", false},
	}
	for _, tt := range tests {
		if got := isPageNoise(tt.line); got != tt.want {
			t.Errorf("isPageNoise(%q): got %v, want %v", tt.line, got, tt.want)
		}
	}
}
