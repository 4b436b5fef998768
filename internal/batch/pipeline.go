package batch

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/raaihank/doc-sentinel/internal/analysis"
	"github.com/raaihank/doc-sentinel/internal/risk"
	"go.uber.org/zap"
)

// Pipeline analyzes every record of a dataset and writes one result per
// record in input order
type Pipeline struct {
	engine *analysis.Engine
	config *Config
	logger *zap.Logger
}

type job struct {
	index  int
	record Record
}

type scanned struct {
	index  int
	output OutputRecord
}

// NewPipeline creates a new batch pipeline. Zero config fields fall back to
// DefaultConfig.
func NewPipeline(engine *analysis.Engine, config *Config, logger *zap.Logger) (*Pipeline, error) {
	if engine == nil {
		return nil, fmt.Errorf("engine is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg := *DefaultConfig()
	if config != nil {
		if config.Workers > 0 {
			cfg.Workers = config.Workers
		}
		if config.BufferSize > 0 {
			cfg.BufferSize = config.BufferSize
		}
		if config.TextColumn != "" {
			cfg.TextColumn = config.TextColumn
		}
		if config.IDColumn != "" {
			cfg.IDColumn = config.IDColumn
		}
		if config.OutputFormat != "" {
			cfg.OutputFormat = config.OutputFormat
		}
		cfg.ProgressReport = config.ProgressReport
	}
	if cfg.OutputFormat != OutputJSONL && cfg.OutputFormat != OutputCSV {
		return nil, fmt.Errorf("unsupported output format: %s", cfg.OutputFormat)
	}

	return &Pipeline{engine: engine, config: &cfg, logger: logger}, nil
}

// ProcessFile processes a dataset file (CSV, Parquet, or JSON) and writes
// the results to out
func (p *Pipeline) ProcessFile(ctx context.Context, filePath string, out io.Writer) (*ProcessingResult, error) {
	format := DetectFileFormat(filePath)

	p.logger.Info("Starting batch scan",
		zap.String("file", filePath),
		zap.String("format", string(format)),
		zap.Int("workers", p.config.Workers),
		zap.String("output_format", p.config.OutputFormat))

	read := func(ctx context.Context, emit emitFunc, result *ProcessingResult) error {
		return p.readParquet(ctx, filePath, emit)
	}
	if format != FormatParquet {
		file, err := os.Open(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s file: %w", format, err)
		}
		defer file.Close()

		read = func(ctx context.Context, emit emitFunc, result *ProcessingResult) error {
			if format == FormatJSON {
				return p.readJSON(ctx, file, emit, result)
			}
			return p.readCSV(ctx, file, emit, result)
		}
	}

	result, err := p.run(ctx, read, out)
	if err != nil {
		return result, fmt.Errorf("%s processing failed: %w", format, err)
	}

	p.logger.Info("Batch scan completed",
		zap.Int64("total_records", result.TotalRecords),
		zap.Int64("analyzed", result.Analyzed),
		zap.Int64("skipped", result.Skipped),
		zap.Int64("failed", result.Failed),
		zap.Int64("with_findings", result.WithFindings),
		zap.Duration("duration", result.Duration))

	return result, nil
}

// ProcessRecords analyzes in-memory records
func (p *Pipeline) ProcessRecords(ctx context.Context, records []Record, out io.Writer) (*ProcessingResult, error) {
	return p.run(ctx, func(ctx context.Context, emit emitFunc, _ *ProcessingResult) error {
		for _, rec := range records {
			if !emit(rec) {
				return ctx.Err()
			}
		}
		return nil
	}, out)
}

func (p *Pipeline) run(
	ctx context.Context,
	read func(context.Context, emitFunc, *ProcessingResult) error,
	out io.Writer,
) (*ProcessingResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	start := time.Now()
	result := &ProcessingResult{ByLevel: make(map[risk.Level]int64, len(risk.Levels))}

	writer, err := newOutputWriter(p.config.OutputFormat, out)
	if err != nil {
		return result, err
	}

	jobs := make(chan job, p.config.BufferSize)
	results := make(chan scanned, p.config.BufferSize)

	// The reader owns TotalRecords, Skipped, Failed and Errors until it is done.
	var readErr error
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		defer close(jobs)

		index := 0
		readErr = read(ctx, func(rec Record) bool {
			result.TotalRecords++
			if strings.TrimSpace(rec.Text) == "" {
				result.Skipped++
				return true
			}
			select {
			case jobs <- job{index: index, record: rec}:
				index++
				return true
			case <-ctx.Done():
				return false
			}
		}, result)
	}()

	var wg sync.WaitGroup
	for i := 0; i < p.config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				report := p.engine.AnalyzeDocument(analysis.Source{Filename: j.record.ID}, j.record.Text)
				select {
				case results <- scanned{index: j.index, output: toOutput(j.record.ID, report)}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	// Reassemble input order.
	pending := make(map[int]OutputRecord)
	next := 0
	var writeErr error
	for s := range results {
		if writeErr != nil {
			continue
		}
		pending[s.index] = s.output
		for {
			rec, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			next++

			if err := writer.Write(rec); err != nil {
				writeErr = fmt.Errorf("failed to write result: %w", err)
				cancel()
				break
			}
			p.count(result, rec)
		}
	}
	<-readDone

	if err := writer.Flush(); err != nil && writeErr == nil {
		writeErr = fmt.Errorf("failed to flush results: %w", err)
	}
	result.Duration = time.Since(start)

	if writeErr != nil {
		return result, writeErr
	}
	if readErr != nil {
		return result, readErr
	}
	return result, ctx.Err()
}

func (p *Pipeline) count(result *ProcessingResult, rec OutputRecord) {
	result.Analyzed++
	result.ByLevel[rec.RiskLevel]++
	if rec.TotalMatches > 0 {
		result.WithFindings++
	}

	if p.config.ProgressReport > 0 && result.Analyzed%int64(p.config.ProgressReport) == 0 {
		p.logger.Info("Processing progress",
			zap.Int64("records_analyzed", result.Analyzed),
			zap.Int64("with_findings", result.WithFindings))
	}
}

func toOutput(id string, report *analysis.Report) OutputRecord {
	out := OutputRecord{
		ID:            id,
		ContentLength: report.ContentLength,
		TotalMatches:  report.TotalMatches,
		Subtypes:      make([]string, 0, len(report.SubtypesFound)),
		Categories:    make([]string, 0, len(report.CategoriesFound)),
		RiskScore:     report.Risk.Score,
		RiskLevel:     report.Risk.Level,
	}
	for _, s := range report.SubtypesFound {
		out.Subtypes = append(out.Subtypes, string(s))
	}
	for _, c := range report.CategoriesFound {
		out.Categories = append(out.Categories, string(c))
	}
	if report.Classification != nil {
		out.Classification = report.Classification.Summary
	}
	return out
}
