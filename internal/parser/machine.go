package parser

import (
	"regexp"
	"strings"

	"github.com/maherduit/statement-engine/internal/models"
)

// blockState is the position of the block recognizer.
type blockState int

const (
	stateIdle blockState = iota
	stateInBlock
	stateBlockComplete
)

func (s blockState) String() string {
	switch s {
	case stateInBlock:
		return "InBlock"
	case stateBlockComplete:
		return "BlockComplete"
	default:
		return "Idle"
	}
}

// columns are the raw amount fields cut from the end of a line.
type columns struct {
	amount  string
	debit   string
	credit  string
	balance string
}

// layout is the table that drives the shared block recognizer for one format.
type layout struct {
	format models.Format

	// start matches a line that opens a transaction block. It must expose
	// the named groups "date" and "rest", and may expose "posting".
	start *regexp.Regexp

	// cut splits trailing amount columns off a line. ok is false when the
	// line does not end with this format's amount columns.
	cut func(text string) (desc string, cols columns, ok bool)

	// opening and closing recognize stated balance lines. They are checked
	// before start because such lines may carry a date.
	opening []string
	closing []string

	// terminators end the current block, e.g. subtotal rows.
	terminators []string

	// headers are column-header lines skipped wherever they appear.
	headers [][]string

	// outside are page furniture lines printed outside the transaction
	// section, such as the bank name or footers. They close a completed
	// block and are never part of a description.
	outside []string

	// trailingDetail appends lines that follow a completed block to its
	// description, for layouts that print details under the amount row.
	trailingDetail bool
}

// Extraction is everything an extractor recovers from one document.
type Extraction struct {
	Fragments   []models.RawFragment     `json:"fragments"`
	Skipped     []models.SkippedFragment `json:"skipped"`
	OpeningText string                   `json:"openingText,omitempty"`
	ClosingText string                   `json:"closingText,omitempty"`
}

// block accumulates the lines of one candidate transaction.
type block struct {
	frag  models.RawFragment
	texts []string
	parts []string
}

// malformedRow is a block's first line that ends with a balance but whose
// amount column is not a number. The token is kept as the raw amount so the
// field parser reports it.
var malformedRow = regexp.MustCompile(`^(?:(.*?)\s+)?(\S+)\s+(` + balanceRe + `)$`)

// recognizer runs the Idle / InBlock / BlockComplete state machine.
type recognizer struct {
	l     *layout
	state blockState
	cur   *block
	page  int
	out   Extraction
}

func (l *layout) run(lines []models.NormalizedLine) Extraction {
	r := &recognizer{
		l: l,
		out: Extraction{
			Fragments: []models.RawFragment{},
			Skipped:   []models.SkippedFragment{},
		},
	}

	for i, line := range lines {
		r.step(i, line)
	}
	r.finish("statement ended before the block resolved to a complete transaction")

	return r.out
}

func (r *recognizer) step(i int, line models.NormalizedLine) {
	text := line.Text
	lower := strings.ToLower(text)

	if isPageNoise(text) || r.isHeader(lower) {
		return
	}

	if containsAny(lower, r.l.outside) {
		if r.state == stateBlockComplete {
			r.finish("")
		}
		return
	}

	if containsAny(lower, r.l.opening) {
		r.finish("opening balance line reached before the block resolved")
		if r.out.OpeningText == "" {
			r.out.OpeningText = lastAmount(text)
		}
		return
	}

	if containsAny(lower, r.l.closing) {
		r.finish("closing balance line reached before the block resolved")
		if amt := lastAmount(text); amt != "" {
			r.out.ClosingText = amt
		}
		return
	}

	if containsAny(lower, r.l.terminators) {
		r.finish("section terminator reached before the block resolved")
		return
	}

	if m := r.l.start.FindStringSubmatch(text); m != nil {
		r.finish("next transaction date reached before the block resolved")
		r.open(i, line, m)
		return
	}

	switch r.state {
	case stateInBlock:
		r.cur.frag.Lines = append(r.cur.frag.Lines, i)
		r.cur.texts = append(r.cur.texts, text)
		r.consume(text)
	case stateBlockComplete:
		if line.PageIndex != r.page {
			r.finish("")
			return
		}
		if r.l.trailingDetail {
			r.cur.frag.Lines = append(r.cur.frag.Lines, i)
			r.cur.texts = append(r.cur.texts, text)
			r.cur.frag.Description = append(r.cur.frag.Description, text)
		}
	}
}

func (r *recognizer) isHeader(lower string) bool {
	for _, words := range r.l.headers {
		all := true
		for _, w := range words {
			if !strings.Contains(lower, w) {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}

func (r *recognizer) open(i int, line models.NormalizedLine, m []string) {
	text := line.Text
	b := &block{
		frag: models.RawFragment{
			Format:      r.l.format,
			Description: []string{},
			Lines:       []int{i},
		},
		texts: []string{text},
	}
	for gi, name := range r.l.start.SubexpNames() {
		switch name {
		case "date":
			b.frag.DateText = m[gi]
		case "posting":
			b.frag.PostingDateText = m[gi]
		}
	}

	r.cur = b
	r.state = stateInBlock
	r.page = line.PageIndex

	rest := ""
	if gi := r.l.start.SubexpIndex("rest"); gi >= 0 {
		rest = strings.TrimSpace(m[gi])
	}
	if rest == "" {
		return
	}
	r.consume(rest)
	if r.state == stateInBlock && r.l.format.HasBalanceColumn() {
		if mm := malformedRow.FindStringSubmatch(rest); mm != nil {
			r.cur.parts = r.cur.parts[:len(r.cur.parts)-1]
			r.complete(mm[1], columns{amount: mm[2], balance: mm[3]})
		}
	}
}

// consume adds one piece of block text and completes the block when the
// piece ends with the format's amount columns.
func (r *recognizer) consume(text string) {
	desc, cols, ok := r.l.cut(text)
	if !ok {
		r.cur.parts = append(r.cur.parts, text)
		return
	}
	r.complete(desc, cols)
}

func (r *recognizer) complete(desc string, cols columns) {
	if desc = strings.TrimSpace(desc); desc != "" {
		r.cur.parts = append(r.cur.parts, desc)
	}
	r.cur.frag.Description = append(r.cur.frag.Description, r.cur.parts...)
	r.cur.parts = nil
	r.cur.frag.AmountText = cols.amount
	r.cur.frag.DebitText = cols.debit
	r.cur.frag.CreditText = cols.credit
	r.cur.frag.BalanceText = cols.balance
	r.state = stateBlockComplete
}

// finish closes the current block: complete blocks become fragments,
// unresolved ones are reported as skipped.
func (r *recognizer) finish(reason string) {
	switch r.state {
	case stateBlockComplete:
		r.out.Fragments = append(r.out.Fragments, r.cur.frag)
	case stateInBlock:
		r.out.Skipped = append(r.out.Skipped, models.SkippedFragment{
			Format: r.l.format,
			Lines:  r.cur.frag.Lines,
			Text:   r.cur.texts,
			Reason: reason,
		})
	}
	r.cur = nil
	r.state = stateIdle
}
