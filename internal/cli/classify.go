package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/maherduit/statement-engine/internal/extractor"
	"github.com/maherduit/statement-engine/internal/models"
	"github.com/maherduit/statement-engine/internal/normalize"
	"github.com/maherduit/statement-engine/internal/parser"
)

func newClassifyCmd(a *app) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "classify <statement>",
		Short: "Detect the statement layout and show per-format scores",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			pages, err := extractor.ExtractPages(args[0])
			if err != nil {
				return fmt.Errorf("processing %s: %w", args[0], err)
			}

			format, confidence := a.eng.Classify(pages)
			if format == models.FormatUnknown {
				printf(out, "Format: unknown (no layout scored above %.2f)\n", a.cfg.Engine.AcceptanceThreshold)
			} else {
				printf(out, "Format: %s (%s)\n", format, format.DisplayName())
				printf(out, "Confidence: %.2f\n", confidence)
			}

			scores := parser.NewClassifier(a.cfg.Engine.AcceptanceThreshold).Scores(normalize.Normalize(pages))
			printf(out, "\n%-22s %6s  %s\n", "LAYOUT", "SCORE", "MATCHED")
			for _, s := range scores {
				matched := "-"
				if len(s.Matched) > 0 {
					matched = strings.Join(s.Matched, ", ")
				}
				printf(out, "%-22s %6.2f  %s\n", s.Format, s.Score, matched)
				if verbose && s.FirstLine >= 0 {
					printf(out, "%-22s first marker on line %d\n", "", s.FirstLine)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show where each layout's first marker was found")
	return cmd
}
