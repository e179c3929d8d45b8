package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a data-quality problem found while processing a document.
type ErrorKind string

const (
	KindClassificationUnknown ErrorKind = "ClassificationUnknown"
	KindFragmentSkipped       ErrorKind = "FragmentSkipped"
	KindDateUnparseable       ErrorKind = "DateUnparseable"
	KindAmountUnparseable     ErrorKind = "AmountUnparseable"
	KindBalanceMismatch       ErrorKind = "BalanceMismatch"
)

var (
	ErrDateUnparseable   = errors.New("date unparseable")
	ErrAmountUnparseable = errors.New("amount unparseable")
)

// Diagnostic is a non-fatal problem reported next to a best-effort result.
type Diagnostic struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Lines   []int     `json:"lines,omitempty"`
	Text    []string  `json:"text,omitempty"`
}

// SkippedFragment is a block that started like a transaction but never
// resolved into a complete one.
type SkippedFragment struct {
	Format Format   `json:"format"`
	Lines  []int    `json:"lines"`
	Text   []string `json:"text"`
	Reason string   `json:"reason"`
}

// Diagnostic converts the skipped block into a report entry.
func (s SkippedFragment) Diagnostic() Diagnostic {
	return Diagnostic{
		Kind:    KindFragmentSkipped,
		Message: s.Reason,
		Lines:   s.Lines,
		Text:    s.Text,
	}
}

// ParseError is a recognized fragment whose fields could not be normalized.
type ParseError struct {
	Kind     ErrorKind
	Fragment RawFragment
	Field    string
	Value    string
	Reason   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: failed to parse %s='%s': %s", e.Fragment.Format, e.Field, e.Value, e.Reason)
}

func (e *ParseError) Unwrap() error {
	switch e.Kind {
	case KindDateUnparseable:
		return ErrDateUnparseable
	case KindAmountUnparseable:
		return ErrAmountUnparseable
	}
	return nil
}

// Diagnostic converts the parse failure into a report entry.
func (e *ParseError) Diagnostic() Diagnostic {
	text := []string{e.Fragment.DateText}
	if len(e.Fragment.Description) > 0 {
		text = append(text, strings.Join(e.Fragment.Description, " "))
	}
	return Diagnostic{
		Kind:    e.Kind,
		Message: e.Error(),
		Lines:   e.Fragment.Lines,
		Text:    text,
	}
}
