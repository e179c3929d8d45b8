package parser

import (
	"fmt"

	"github.com/maherduit/statement-engine/internal/models"
)

// Extractor recovers raw transaction fragments from one statement layout.
type Extractor interface {
	// Extract runs the block recognizer over the normalized line stream.
	Extract(lines []models.NormalizedLine) Extraction
	// Format returns the layout this extractor reads.
	Format() models.Format
	// BankName returns the human-readable bank name.
	BankName() string
}

// New returns the extractor for the given format.
func New(format models.Format) (Extractor, error) {
	switch format {
	case models.FormatMaybank:
		return &MaybankExtractor{}, nil
	case models.FormatCIMB:
		return &CIMBExtractor{}, nil
	case models.FormatAlliance:
		return &AllianceExtractor{}, nil
	case models.FormatMaybankCreditCard:
		return &MaybankCreditCardExtractor{}, nil
	case models.FormatUnknown:
		return nil, fmt.Errorf("no extractor for unclassified statement")
	default:
		return nil, fmt.Errorf("unsupported statement format: %q", format)
	}
}
