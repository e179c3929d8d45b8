// Package cli wires the statement engine into a cobra command tree.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/maherduit/statement-engine/internal/api"
	"github.com/maherduit/statement-engine/internal/config"
	"github.com/maherduit/statement-engine/internal/engine"
	"github.com/maherduit/statement-engine/internal/logging"
	"github.com/maherduit/statement-engine/internal/models"
)

// app carries the state shared by every subcommand once the root
// PersistentPreRunE has loaded configuration.
type app struct {
	configFile string
	envFile    string
	logLevel   string

	cfg *config.Config
	log logging.Logger
	eng *engine.Engine
}

// NewRootCmd builds a fresh command tree. Each call returns independent
// flag state.
func NewRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "statement-engine",
		Short: "Convert Malaysian bank and credit card statements into reconciled transactions.",
		Long: `statement-engine reads Maybank, CIMB, Alliance Bank and Maybank credit
card statements (PDF or extracted text), detects the layout, extracts every
transaction and reconciles the running balance.

Results can be written as CSV, XLSX or JSON, or served over HTTP.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&a.configFile, "config", "", "config file (default: ./config.yaml or $HOME/.statement-engine/config.yaml)")
	cmd.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before configuration")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override log level: debug, info, warn, error")

	cmd.AddCommand(
		newConvertCmd(a),
		newClassifyCmd(a),
		newBatchCmd(a),
		newServeCmd(a),
		newVersionCmd(),
	)
	return cmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if err := config.LoadEnvFile(a.envFile); err != nil {
		return err
	}

	cfg, err := config.Load(a.configFile)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}

	a.cfg = cfg
	a.log = logging.NewLogrusAdapter(cfg.Log.Level, cfg.Log.Format)
	a.eng = engine.New(engine.OptionsFromConfig(cfg), a.log)

	a.log.Debug("configuration loaded",
		logging.F("command", cmd.Name()),
		logging.F("threshold", cfg.Engine.AcceptanceThreshold),
		logging.F("tolerance", cfg.Engine.BalanceTolerance))
	return nil
}

// resolveBank validates a --bank value. Empty means auto-detect.
func resolveBank(bank string) error {
	if bank == "" {
		return nil
	}
	if models.FormatFromHint(bank) == models.FormatUnknown {
		return fmt.Errorf("unknown bank %q, supported: maybank, cimb, alliance, credit-card", bank)
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		// Skip configuration loading.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			printf(cmd.OutOrStdout(), "statement-engine v%s\n", api.Version)
		},
	}
}

func printf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
