package parser

import (
	"math"
	"regexp"
	"strings"

	"github.com/maherduit/statement-engine/internal/models"
)

// DefaultAcceptanceThreshold is the minimum marker score a format needs
// before the classifier will name it.
const DefaultAcceptanceThreshold = 0.35

// marker is one distinguishing feature of a statement layout. Weight reflects
// how specific the marker is to its format.
type marker struct {
	name   string
	weight float64
	match  func(text, lower string) bool
}

// phrase matches when any of the phrases appears in the line, ignoring case.
func phrase(name string, weight float64, phrases ...string) marker {
	return marker{name: name, weight: weight, match: func(_, lower string) bool {
		return containsAny(lower, phrases)
	}}
}

// header matches when all words appear on the same line, ignoring case.
func header(name string, weight float64, words ...string) marker {
	return marker{name: name, weight: weight, match: func(_, lower string) bool {
		for _, w := range words {
			if !strings.Contains(lower, w) {
				return false
			}
		}
		return true
	}}
}

func pattern(name string, weight float64, re *regexp.Regexp) marker {
	return marker{name: name, weight: weight, match: func(text, _ string) bool {
		return re.MatchString(text)
	}}
}

var (
	maybankMarkers = []marker{
		phrase("bank name", 1, "maybank"),
		phrase("legal name", 3, "malayan banking berhad"),
		phrase("transaction section", 3, "urusniaga akaun", "account transactions"),
		header("column header", 4, "entry date", "transaction description", "transaction amount", "statement balance"),
		header("malay column header", 2, "tarikh masuk", "butiran urusniaga"),
		phrase("opening phrase", 2, "beginning balance", "baki permulaan"),
		pattern("account number", 2, regexp.MustCompile(`\b\d{6}-?\d{6}\b`)),
	}

	cimbMarkers = []marker{
		phrase("bank name", 1, "cimb"),
		phrase("legal name", 3, "cimb bank berhad", "cimb islamic bank berhad"),
		phrase("former name", 2, "commerce international merchant"),
		header("column header", 4, "description", "withdrawal", "deposit", "balance"),
		phrase("reference column", 2, "cheque / ref no", "cheque/ref no", "no cek / rujukan"),
		phrase("opening phrase", 1, "opening balance"),
		pattern("account number", 2, regexp.MustCompile(`\b\d{2}-\d{7}-\d\b`)),
	}

	allianceMarkers = []marker{
		phrase("bank name", 1, "alliance bank"),
		phrase("legal name", 3, "alliance bank malaysia berhad", "alliance islamic bank"),
		phrase("online banking", 2, "allianceonline"),
		header("column header", 4, "trans date", "cheque no", "amount", "balance"),
		pattern("compact date rows", 2, regexp.MustCompile(`^\d{6}\s+\S`)),
		pattern("account number", 2, regexp.MustCompile(`\b\d{3}-\d{2}-\d{7}-\d\b`)),
	}

	creditCardMarkers = []marker{
		phrase("bank name", 1, "maybank"),
		phrase("card statement", 3, "credit card statement", "penyata kad kredit", "maybankard", "maybank card"),
		phrase("minimum payment", 2, "minimum payment", "bayaran minimum"),
		phrase("due date", 2, "payment due date", "tarikh akhir pembayaran"),
		header("column header", 4, "posting date", "transaction date"),
		pattern("card number", 2, regexp.MustCompile(`(?i)\b\d{4}[ -]?\d{2}[\dx*]{2}[ -]?[\dx*]{4}[ -]?\d{4}\b`)),
		pattern("card scheme", 1, regexp.MustCompile(`(?i)\b(visa|mastercard|american express)\b`)),
	}
)

// markersFor returns the marker table for a format.
func markersFor(format models.Format) []marker {
	switch format {
	case models.FormatMaybank:
		return maybankMarkers
	case models.FormatCIMB:
		return cimbMarkers
	case models.FormatAlliance:
		return allianceMarkers
	case models.FormatMaybankCreditCard:
		return creditCardMarkers
	default:
		return nil
	}
}

// FormatScore is one format's result from a classification pass.
type FormatScore struct {
	Format    models.Format `json:"format"`
	Score     float64       `json:"score"`
	Matched   []string      `json:"matched"`
	FirstLine int           `json:"firstLine"` // -1 when nothing matched
}

// Classifier picks the statement format for a normalized line stream.
// It holds configuration only; every call scores the document from scratch.
type Classifier struct {
	Threshold float64
}

// NewClassifier returns a classifier with the given acceptance threshold.
func NewClassifier(threshold float64) Classifier {
	return Classifier{Threshold: threshold}
}

// Classify scores the lines with the default threshold.
func Classify(lines []models.NormalizedLine) (models.Format, float64) {
	return NewClassifier(DefaultAcceptanceThreshold).Classify(lines)
}

// Classify returns the best-scoring format and its confidence, or
// (FormatUnknown, 0) when no format clears the threshold.
// Equal scores go to the format whose first marker appears earliest.
func (c Classifier) Classify(lines []models.NormalizedLine) (models.Format, float64) {
	scores := c.Scores(lines)

	best := -1
	for i, s := range scores {
		if s.Score == 0 {
			continue
		}
		if best < 0 {
			best = i
			continue
		}
		b := scores[best]
		switch {
		case s.Score > b.Score+1e-9:
			best = i
		case math.Abs(s.Score-b.Score) <= 1e-9 && s.FirstLine < b.FirstLine:
			best = i
		}
	}

	if best < 0 || scores[best].Score <= c.Threshold {
		return models.FormatUnknown, 0
	}
	return scores[best].Format, scores[best].Score
}

// Scores evaluates every known format's markers against the full stream.
// A format's score is its matched marker weight over its total weight.
func (c Classifier) Scores(lines []models.NormalizedLine) []FormatScore {
	lowered := make([]string, len(lines))
	for i, l := range lines {
		lowered[i] = strings.ToLower(l.Text)
	}

	scores := make([]FormatScore, 0, len(models.KnownFormats))
	for _, format := range models.KnownFormats {
		markers := markersFor(format)
		fs := FormatScore{Format: format, FirstLine: -1, Matched: []string{}}

		var total, matched float64
		for _, m := range markers {
			total += m.weight
			for i, l := range lines {
				if !m.match(l.Text, lowered[i]) {
					continue
				}
				matched += m.weight
				fs.Matched = append(fs.Matched, m.name)
				if fs.FirstLine < 0 || i < fs.FirstLine {
					fs.FirstLine = i
				}
				break
			}
		}
		if total > 0 {
			fs.Score = matched / total
		}
		scores = append(scores, fs)
	}
	return scores
}
