package parser

import (
	"regexp"
	"strings"
)

// Building blocks for the per-format line patterns.
const (
	// 1,234.56
	amountRe = `[\d,]+\.\d{2}`
	// 50.00- / 50.00+ / 50.00
	signedAmountRe = amountRe + `\s?[-+]?`
	// balance with optional overdraft marker: 950.00, -950.00, 950.00DR, 950.00-
	balanceRe = `-?` + amountRe + `(?:\s?(?:DR|Dr|CR|Cr|-))?`
)

// lastAmountPattern finds monetary amounts on stated-balance lines.
var lastAmountPattern = regexp.MustCompile(`-?` + amountRe + `(?:\s?(?:DR|Dr|CR|Cr|[-+]))?`)

// pageNoisePatterns match page furniture repeated on every page.
var pageNoisePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(page|halaman|muka surat)\s*:?\s*\d+(\s*(of|/|dari)\s*\d+)?$`),
	regexp.MustCompile(`(?i)^muka\s*/\s*page\s*:?\s*\d+(\s*(of|/|dari)\s*\d+)?$`),
	regexp.MustCompile(`^\d+\s*/\s*\d+$`),
	regexp.MustCompile(`(?i)^(continued|bersambung)\b`),
}

func containsAny(lower string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(lower, n) {
			return true
		}
	}
	return false
}

func isPageNoise(text string) bool {
	for _, re := range pageNoisePatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// lastAmount returns the right-most amount on a line, or "".
func lastAmount(text string) string {
	all := lastAmountPattern.FindAllString(text, -1)
	if len(all) == 0 {
		return ""
	}
	return strings.TrimSpace(all[len(all)-1])
}
