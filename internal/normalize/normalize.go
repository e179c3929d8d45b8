// Package normalize turns raw extracted page text into a canonical line stream.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/maherduit/statement-engine/internal/models"
)

// mojibake maps UTF-8-read-as-Latin-1 sequences produced by some PDF text
// layers back to the intended characters.
var mojibake = strings.NewReplacer(
	"â€™", "'",
	"â€˜", "'",
	"â€œ", `"`,
	"â€\u009d", `"`,
	"â€“", "-",
	"â€”", "-",
	"Â ", " ",
	"Ã©", "é",
)

var (
	// "1,234; 56" or "1,234:56" -> "1,234.56"
	ocrGroupedDecimal = regexp.MustCompile(`(\d{1,3}(?:,\d{3})+)[;:]\s?(\d{2})\b`)
	// "25;99" -> "25.99"
	ocrSemicolonDecimal = regexp.MustCompile(`(\d);(\s*)(\d{2})\b`)
	// word broken across lines: "PAYM-" + "ent"
	hyphenBreak = regexp.MustCompile(`\p{L}-$`)
)

// Normalize cleans every line of every page and returns them in reading order.
// Lines that are empty after cleaning are dropped; provenance is kept on the
// survivors. Empty input yields an empty, non-nil slice.
func Normalize(rawPages [][]string) []models.NormalizedLine {
	out := make([]models.NormalizedLine, 0)

	for p, page := range rawPages {
		var pending *models.NormalizedLine
		for i, raw := range page {
			text := CleanLine(raw)
			if text == "" {
				continue
			}

			if pending != nil && hyphenBreak.MatchString(pending.Text) && startsLower(text) {
				pending.Text = pending.Text[:len(pending.Text)-1] + text
				continue
			}

			if pending != nil {
				out = append(out, *pending)
			}
			pending = &models.NormalizedLine{Text: text, PageIndex: p, LineIndex: i}
		}
		if pending != nil {
			out = append(out, *pending)
		}
	}

	return out
}

// SplitPages breaks page strings into lines, the shape Normalize expects.
func SplitPages(pages []string) [][]string {
	out := make([][]string, 0, len(pages))
	for _, page := range pages {
		page = strings.ReplaceAll(page, "\r\n", "\n")
		out = append(out, strings.Split(page, "\n"))
	}
	return out
}

// CleanLine applies the per-line fixes: encoding repair, NFKC folding,
// control character removal, whitespace collapsing and OCR amount repair.
func CleanLine(line string) string {
	line = strings.ToValidUTF8(line, "")
	line = mojibake.Replace(line)
	line = norm.NFKC.String(line)

	line = strings.Map(func(r rune) rune {
		switch {
		case r == '\t':
			return ' '
		case unicode.IsControl(r), unicode.Is(unicode.Cf, r):
			return -1
		case unicode.IsSpace(r):
			return ' '
		}
		return r
	}, line)

	line = strings.Join(strings.Fields(line), " ")
	return sanitizeOCRAmounts(line)
}

// sanitizeOCRAmounts fixes OCR misreads of the decimal point in amounts.
func sanitizeOCRAmounts(line string) string {
	line = ocrGroupedDecimal.ReplaceAllString(line, "$1.$2")
	line = ocrSemicolonDecimal.ReplaceAllString(line, "$1.$3")
	return line
}

func startsLower(s string) bool {
	for _, r := range s {
		return unicode.IsLower(r)
	}
	return false
}
