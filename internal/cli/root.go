// Package cli implements the docscan command line.
package cli

import (
	"fmt"
	"os"

	"github.com/raaihank/doc-sentinel/internal/analysis"
	"github.com/raaihank/doc-sentinel/internal/config"
	"github.com/raaihank/doc-sentinel/internal/logger"
	"github.com/raaihank/doc-sentinel/internal/rules"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
	rulePack   string

	cfg *config.Config
	log *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:           "docscan",
	Short:         "Scan Vietnamese documents for sensitive data",
	Long:          "Detects personal identifiers and internal secrets in documents, classifies them\ninto broad sensitivity categories and scores their risk.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			loaded.Logging.Level = logLevel
		}
		if rulePack != "" {
			loaded.Detection.RulePack = rulePack
		}

		l, err := logger.New(logger.Config{
			Level:  loaded.Logging.Level,
			Format: "console",
			Output: cmd.ErrOrStderr(),
		})
		if err != nil {
			return err
		}

		cfg, log = loaded, l
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVar(&rulePack, "rules", "", "Rule pack YAML appended to the built-in rules")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newEngine builds the rule table and engine from the loaded configuration.
func newEngine() (*analysis.Engine, *rules.Table, error) {
	table, err := rules.LoadTable(cfg.Detection.RulePack)
	if err != nil {
		return nil, nil, err
	}

	engine, err := analysis.NewEngine(table, nil, analysis.Options{
		EnableDetector:   cfg.Detection.Enabled,
		EnableClassifier: cfg.Detection.Classifier.Enabled,
		Subtypes:         cfg.Detection.Subtypes,
		TruncateLength:   cfg.Detection.TruncateLength,
	}, log.Logger)
	if err != nil {
		return nil, nil, err
	}
	return engine, table, nil
}
