// Package batch scans datasets of pre-extracted text with a bounded
// worker pool.
package batch

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/raaihank/doc-sentinel/internal/risk"
)

// Record is one input row. Parquet files must use the id and text columns.
type Record struct {
	ID   string `parquet:"id" json:"id"`
	Text string `parquet:"text" json:"text"`
}

// Config contains batch pipeline configuration
type Config struct {
	Workers      int    `yaml:"workers" mapstructure:"workers"`             // 4
	BufferSize   int    `yaml:"buffer_size" mapstructure:"buffer_size"`     // 100
	TextColumn   string `yaml:"text_column" mapstructure:"text_column"`     // text
	IDColumn     string `yaml:"id_column" mapstructure:"id_column"`         // id
	OutputFormat string `yaml:"output_format" mapstructure:"output_format"` // jsonl
	// ProgressReport logs progress every N analyzed records; zero disables it.
	ProgressReport int `yaml:"progress_report" mapstructure:"progress_report"`
}

// DefaultConfig returns the pipeline defaults
func DefaultConfig() *Config {
	return &Config{
		Workers:        4,
		BufferSize:     100,
		TextColumn:     "text",
		IDColumn:       "id",
		OutputFormat:   OutputJSONL,
		ProgressReport: 1000,
	}
}

// Output formats
const (
	OutputJSONL = "jsonl"
	OutputCSV   = "csv"
)

// ProcessingResult summarizes a processed dataset
type ProcessingResult struct {
	TotalRecords int64                `json:"total_records"`
	Analyzed     int64                `json:"analyzed"`
	Skipped      int64                `json:"skipped"`
	Failed       int64                `json:"failed"`
	WithFindings int64                `json:"with_findings"`
	ByLevel      map[risk.Level]int64 `json:"by_level"`
	Duration     time.Duration        `json:"duration"`
	Errors       []string             `json:"errors,omitempty"`
}

// OutputRecord is the per-record scan result. It carries no detected values.
type OutputRecord struct {
	ID             string     `json:"id"`
	ContentLength  int        `json:"content_length"`
	TotalMatches   int        `json:"total_matches"`
	Subtypes       []string   `json:"subtypes"`
	Categories     []string   `json:"categories"`
	Classification string     `json:"classification,omitempty"`
	RiskScore      float64    `json:"risk_score"`
	RiskLevel      risk.Level `json:"risk_level"`
}

// FileFormat represents supported file formats
type FileFormat string

const (
	FormatCSV     FileFormat = "csv"
	FormatParquet FileFormat = "parquet"
	FormatJSON    FileFormat = "json"
)

// DetectFileFormat detects file format from extension, defaulting to CSV
func DetectFileFormat(filename string) FileFormat {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".parquet":
		return FormatParquet
	case ".json", ".jsonl", ".ndjson":
		return FormatJSON
	default:
		return FormatCSV
	}
}
