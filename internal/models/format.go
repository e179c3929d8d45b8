package models

import "strings"

// Format identifies one statement layout the engine knows how to read.
// The set is closed: adding a layout means adding a constant here and an
// extractor in the parser package.
type Format string

const (
	FormatUnknown           Format = "unknown"
	FormatMaybank           Format = "maybank"
	FormatCIMB              Format = "cimb"
	FormatAlliance          Format = "alliance"
	FormatMaybankCreditCard Format = "maybank_credit_card"
)

// KnownFormats lists every format with an extractor, in classification order.
var KnownFormats = []Format{
	FormatMaybank,
	FormatCIMB,
	FormatAlliance,
	FormatMaybankCreditCard,
}

// DisplayName returns the human-readable bank name.
func (f Format) DisplayName() string {
	switch f {
	case FormatMaybank:
		return "Maybank"
	case FormatCIMB:
		return "CIMB Bank"
	case FormatAlliance:
		return "Alliance Bank"
	case FormatMaybankCreditCard:
		return "Maybank Credit Card"
	default:
		return "Unknown"
	}
}

// HasBalanceColumn reports whether statements in this format carry a
// running balance on every transaction row.
func (f Format) HasBalanceColumn() bool {
	switch f {
	case FormatMaybank, FormatCIMB, FormatAlliance:
		return true
	default:
		return false
	}
}

// FormatFromHint maps a free-form bank or account name onto a format.
// Returns FormatUnknown when nothing matches.
func FormatFromHint(hint string) Format {
	h := strings.ToLower(strings.TrimSpace(hint))
	switch {
	case h == "":
		return FormatUnknown
	case strings.Contains(h, "credit") || strings.Contains(h, "card"):
		return FormatMaybankCreditCard
	case strings.Contains(h, "maybank"):
		return FormatMaybank
	case strings.Contains(h, "cimb"):
		return FormatCIMB
	case strings.Contains(h, "alliance"):
		return FormatAlliance
	}
	return FormatUnknown
}
