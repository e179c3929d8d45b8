package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/maherduit/statement-engine/internal/extractor"
	"github.com/maherduit/statement-engine/internal/logging"
	"github.com/maherduit/statement-engine/internal/models"
	"github.com/maherduit/statement-engine/internal/writer"
)

type convertFlags struct {
	bank   string
	output string
	format string
	header bool
}

func newConvertCmd(a *app) *cobra.Command {
	f := &convertFlags{}

	cmd := &cobra.Command{
		Use:   "convert <statement> [statement...]",
		Short: "Convert statements into CSV, XLSX or JSON",
		Long: `Convert one or more statements (.pdf or extracted .txt) into a file of
reconciled transactions. The bank layout is detected from the content;
--bank is used only when detection fails.`,
		Example: `  statement-engine convert maybank-jan.pdf
  statement-engine convert --format xlsx --output jan.xlsx cimb-jan.pdf
  statement-engine convert --bank alliance jan.pdf feb.pdf mar.pdf`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := resolveBank(f.bank); err != nil {
				return err
			}
			if f.output != "" && len(args) > 1 {
				return errors.New("--output can only be used with a single input file")
			}
			if !cmd.Flags().Changed("header") {
				f.header = a.cfg.Output.IncludeHeader
			}
			w, err := writer.ForFormat(f.format, f.header)
			if err != nil {
				return err
			}

			for _, input := range args {
				if err := a.convertFile(cmd, input, f, w); err != nil {
					return fmt.Errorf("processing %s: %w", input, err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&f.bank, "bank", "", "fallback bank when detection fails: maybank, cimb, alliance, credit-card")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file (defaults to the input name with the format's extension)")
	cmd.Flags().StringVarP(&f.format, "format", "f", "csv", "output format: csv, xlsx, json")
	cmd.Flags().BoolVar(&f.header, "header", true, "include statement metadata rows in CSV output")
	return cmd
}

func (a *app) convertFile(cmd *cobra.Command, input string, f *convertFlags, w writer.Writer) error {
	out := cmd.OutOrStdout()

	if _, err := os.Stat(input); err != nil {
		return fmt.Errorf("input file not found: %w", err)
	}

	printf(out, "Processing: %s\n", input)

	pages, err := extractor.ExtractPages(input)
	if err != nil {
		return err
	}
	printf(out, "  Extracted text from %d page(s)\n", len(pages))

	doc := a.eng.ProcessDocument(pages, f.bank)
	res := doc.Result

	if doc.Format == models.FormatUnknown {
		return errors.New("statement layout not recognized, try --bank")
	}
	if doc.Confidence > 0 {
		printf(out, "  Detected: %s (confidence %.2f)\n", doc.Format.DisplayName(), doc.Confidence)
	} else {
		printf(out, "  Using %s layout from --bank\n", doc.Format.DisplayName())
	}
	printf(out, "  Found %d transaction(s): %d debit, %d credit\n", res.TransactionCount, res.DebitCount, res.CreditCount)

	if res.TransactionCount == 0 {
		printf(out, "  Warning: no transactions found. The layout may not match the expected patterns.\n")
	}
	if n := len(res.BalanceMismatches); n > 0 {
		printf(out, "  Warning: %d balance mismatch(es)\n", n)
	}
	for _, d := range doc.Diagnostics {
		a.log.Debug("diagnostic",
			logging.F(logging.FieldFile, input),
			logging.F("kind", d.Kind),
			logging.F("message", d.Message))
	}

	outPath := f.output
	if outPath == "" {
		outPath = strings.TrimSuffix(input, filepath.Ext(input)) + writer.Extension(f.format)
	}
	if err := w.WriteToFile(outPath, doc); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	printf(out, "  Output: %s\n", outPath)

	if res.OpeningBalance.Valid {
		printf(out, "  Opening balance: %s\n", res.OpeningBalance.Decimal.StringFixed(2))
	}
	if res.ClosingBalance.Valid {
		printf(out, "  Closing balance: %s\n", res.ClosingBalance.Decimal.StringFixed(2))
	}
	if res.StartDate != nil && res.EndDate != nil {
		printf(out, "  Period: %s to %s\n", res.StartDate.Format("2006-01-02"), res.EndDate.Format("2006-01-02"))
	}
	printf(out, "  Done.\n")
	return nil
}
