package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/maherduit/statement-engine/internal/engine"
	"github.com/maherduit/statement-engine/internal/extractor"
	"github.com/maherduit/statement-engine/internal/logging"
	"github.com/maherduit/statement-engine/internal/writer"
)

func newBatchCmd(a *app) *cobra.Command {
	var (
		bank      string
		outputDir string
		format    string
	)

	cmd := &cobra.Command{
		Use:   "batch <statement> [statement...]",
		Short: "Process several statements concurrently",
		Long: `Process several statements on a bounded worker pool (batch.workers).
A document that cannot be read is reported and does not stop the others.
With --output-dir each result is also written to that directory.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := resolveBank(bank); err != nil {
				return err
			}

			var w writer.Writer
			if outputDir != "" {
				var err error
				if w, err = writer.ForFormat(format, a.cfg.Output.IncludeHeader); err != nil {
					return err
				}
				if err := os.MkdirAll(outputDir, 0o755); err != nil {
					return fmt.Errorf("failed to create output directory: %w", err)
				}
			}

			sources := make([]engine.Source, 0, len(args))
			for _, path := range args {
				sources = append(sources, extractor.FileSource{Path: path, Hint: bank})
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			batchID := uuid.New().String()
			log := a.log.WithField(logging.FieldBatchID, batchID)
			log.Info("batch started", logging.F(logging.FieldCount, len(sources)))

			items, err := a.eng.RunBatch(ctx, sources)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printf(out, "Batch %s\n", batchID)
			printf(out, "%-30s %-20s %6s %10s  %s\n", "FILE", "LAYOUT", "TXNS", "MISMATCH", "STATUS")
			for i, it := range items {
				if it.Err != nil {
					printf(out, "%-30s %-20s %6s %10s  error: %v\n", it.Name, "-", "-", "-", it.Err)
					continue
				}
				res := it.Result.Result
				status := "ok"
				if w != nil {
					path := filepath.Join(outputDir, outputName(args[i], format))
					if err := w.WriteToFile(path, *it.Result); err != nil {
						status = fmt.Sprintf("write failed: %v", err)
					} else {
						status = path
					}
				}
				printf(out, "%-30s %-20s %6d %10d  %s\n",
					it.Name, it.Result.Format, res.TransactionCount, len(res.BalanceMismatches), status)
			}

			sum := engine.Summarize(items)
			printf(out, "\n%d document(s): %d succeeded, %d failed, %d transaction(s)\n",
				sum.Documents, sum.Succeeded, sum.Failed, sum.Transactions)

			if sum.Failed > 0 {
				return fmt.Errorf("%d of %d document(s) failed", sum.Failed, sum.Documents)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&bank, "bank", "", "fallback bank when detection fails")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "write each result into this directory")
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "output format for --output-dir: csv, xlsx, json")
	return cmd
}

func outputName(input, format string) string {
	base := filepath.Base(input)
	return strings.TrimSuffix(base, filepath.Ext(base)) + writer.Extension(format)
}
