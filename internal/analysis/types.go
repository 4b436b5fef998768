package analysis

import (
	"github.com/raaihank/doc-sentinel/internal/classifier"
	"github.com/raaihank/doc-sentinel/internal/privacy"
	"github.com/raaihank/doc-sentinel/internal/risk"
	"github.com/raaihank/doc-sentinel/internal/rules"
)

// DefaultTruncateLength bounds item values in the sensitive_info summary.
const DefaultTruncateLength = 50

// Options controls which stages an Engine runs.
type Options struct {
	EnableDetector   bool
	EnableClassifier bool
	// Subtypes restricts the detector; empty or "all" enables every rule.
	Subtypes       []string
	TruncateLength int
}

// DefaultOptions enables both stages over every subtype.
func DefaultOptions() Options {
	return Options{
		EnableDetector:   true,
		EnableClassifier: true,
		Subtypes:         []string{"all"},
		TruncateLength:   DefaultTruncateLength,
	}
}

// Source describes the document a text came from. All fields are optional.
type Source struct {
	Filename string `json:"filename,omitempty"`
	MIMEType string `json:"mime_type,omitempty"`
	FileSize int64  `json:"file_size,omitempty"`
}

// Classification is the broad classifier result plus its summary string.
type Classification struct {
	classifier.Result
	Summary string `json:"summary"`
}

// RiskSummary is the document-level part of an assessment.
type RiskSummary struct {
	Score             float64              `json:"score"`
	Level             risk.Level           `json:"level"`
	Status            risk.Status          `json:"status"`
	RiskTypeByFinding map[string]risk.Type `json:"risk_type_by_finding"`
}

// Report is the full analysis of one text.
type Report struct {
	Source
	ContentLength   int               `json:"content_length"`
	TotalMatches    int               `json:"total_matches"`
	Matches         []privacy.Finding `json:"matches"`
	CategoriesFound []rules.Category  `json:"categories_found"`
	SubtypesFound   []rules.Subtype   `json:"subtypes_found"`
	Classification  *Classification   `json:"classification,omitempty"`
	Risk            RiskSummary       `json:"risk"`
	// RiskTypes holds the risk type of each match, in match order.
	RiskTypes []risk.Type `json:"risk_types"`

	// TruncateLength bounds values in SensitiveInfo. Zero means the default.
	TruncateLength int `json:"-"`
}

// SensitiveInfo is the compact summary stored alongside a document.
type SensitiveInfo struct {
	TotalItems       int              `json:"total_items"`
	RiskCategories   []string         `json:"risk_categories"`
	DetectionSummary DetectionSummary `json:"detection_summary"`
	Items            []SensitiveItem  `json:"items"`
}

// DetectionSummary counts findings per stage.
type DetectionSummary struct {
	RegexMatches int `json:"regex_matches"`
	AIDetections int `json:"ai_detections"`
}

// SensitiveItem is one finding in the summary.
type SensitiveItem struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Method   string `json:"method"`
	Position string `json:"position"`
}

// RiskRow is one persisted risk record derived from a report.
type RiskRow struct {
	RiskType risk.Type `json:"risk_type" db:"risk_type"`
	RiskKey  string    `json:"risk_key" db:"risk_key"`
	Content  string    `json:"content" db:"content"`
}
