package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/raaihank/doc-sentinel/internal/batch"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	batchOutput  string
	batchFormat  string
	batchWorkers int
	batchText    string
	batchID      string
)

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.Flags().StringVarP(&batchOutput, "output", "o", "", "Output file (default stdout)")
	batchCmd.Flags().StringVarP(&batchFormat, "format", "f", "", "Output format (jsonl|csv); defaults to the configured batch.output_format")
	batchCmd.Flags().IntVarP(&batchWorkers, "workers", "w", 0, "Number of workers; defaults to batch.workers")
	batchCmd.Flags().StringVar(&batchText, "text-column", "", "Column holding the text (CSV and JSON)")
	batchCmd.Flags().StringVar(&batchID, "id-column", "", "Column holding the record id (CSV and JSON)")
}

var batchCmd = &cobra.Command{
	Use:   "batch <dataset>",
	Short: "Scan a CSV, JSON or Parquet dataset of texts",
	Long: "Analyzes every record of a dataset with a pool of workers and writes one\n" +
		"result per record, in input order. Results never include detected values.\n\n" +
		"The format is chosen from the extension: .csv, .json/.jsonl or .parquet.",
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func runBatch(cmd *cobra.Command, args []string) error {
	engine, _, err := newEngine()
	if err != nil {
		return err
	}

	pcfg := &batch.Config{
		Workers:        cfg.Batch.Workers,
		BufferSize:     cfg.Batch.BufferSize,
		TextColumn:     cfg.Batch.TextColumn,
		IDColumn:       cfg.Batch.IDColumn,
		OutputFormat:   cfg.Batch.OutputFormat,
		ProgressReport: 1000,
	}
	if batchFormat != "" {
		pcfg.OutputFormat = batchFormat
	}
	if batchWorkers > 0 {
		pcfg.Workers = batchWorkers
	}
	if batchText != "" {
		pcfg.TextColumn = batchText
	}
	if batchID != "" {
		pcfg.IDColumn = batchID
	}

	pipeline, err := batch.NewPipeline(engine, pcfg, log.WithComponent("batch").Logger)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if batchOutput != "" {
		f, err := os.Create(batchOutput)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := pipeline.ProcessFile(ctx, args[0], out)
	if err != nil {
		return err
	}

	log.Info("Batch finished", zap.Int64("analyzed", result.Analyzed), zap.Duration("duration", result.Duration))
	summary, _ := json.MarshalIndent(result, "", "  ")
	fmt.Fprintln(cmd.ErrOrStderr(), string(summary))
	return nil
}
