package fields

import (
	"fmt"
	"strings"
	"time"

	"github.com/maherduit/statement-engine/internal/models"
)

const (
	minPlausibleYear = 1990
	maxPlausibleYear = 2099
)

// DateLayouts returns the accepted date layouts for a format in priority order.
func DateLayouts(format models.Format) []string {
	switch format {
	case models.FormatMaybank:
		return []string{"02/01/06", "02/01/2006"}
	case models.FormatCIMB:
		return []string{"02/01/2006", "02/01/06"}
	case models.FormatAlliance:
		return []string{"020106", "02/01/06"}
	case models.FormatMaybankCreditCard:
		return []string{"02/01/2006", "02/01/06"}
	default:
		return []string{"02/01/2006", "02/01/06", "2006-01-02"}
	}
}

// ParseDate tries the format's layouts in order and rejects dates outside
// the plausible statement years.
func ParseDate(s string, format models.Format) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range DateLayouts(format) {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if t.Year() < minPlausibleYear || t.Year() > maxPlausibleYear {
			return time.Time{}, fmt.Errorf("date %q outside %d-%d: %w",
				s, minPlausibleYear, maxPlausibleYear, models.ErrDateUnparseable)
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("date %q matches no %s layout: %w", s, format, models.ErrDateUnparseable)
}
