package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/raaihank/doc-sentinel/internal/risk"
)

// SensitiveInfo builds the compact summary of the report.
func (r *Report) SensitiveInfo() SensitiveInfo {
	info := SensitiveInfo{
		TotalItems:     len(r.Matches),
		RiskCategories: []string{},
		DetectionSummary: DetectionSummary{
			RegexMatches: len(r.Matches),
		},
		Items: make([]SensitiveItem, 0, len(r.Matches)),
	}

	if r.Classification != nil {
		for _, c := range r.Classification.Categories {
			info.RiskCategories = append(info.RiskCategories, string(c))
		}
		info.DetectionSummary.AIDetections = len(r.Classification.Details)
	}

	limit := r.TruncateLength
	if limit <= 0 {
		limit = DefaultTruncateLength
	}
	for _, m := range r.Matches {
		info.Items = append(info.Items, SensitiveItem{
			Type:     m.Label(),
			Value:    truncate(m.Value, limit),
			Method:   "regex",
			Position: fmt.Sprintf("%d-%d", m.Start, m.End),
		})
	}

	return info
}

// SensitiveInfoJSON renders SensitiveInfo as compact JSON with non-ASCII
// text kept as-is.
func (r *Report) SensitiveInfoJSON() (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r.SensitiveInfo()); err != nil {
		return "", fmt.Errorf("failed to encode sensitive info: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// RiskRows returns one row per finding followed by one row per classifier
// detail.
func (r *Report) RiskRows() []RiskRow {
	rows := make([]RiskRow, 0, len(r.Matches))
	for i, m := range r.Matches {
		t := risk.TypeConfidential
		if i < len(r.RiskTypes) {
			t = r.RiskTypes[i]
		}
		rows = append(rows, RiskRow{RiskType: t, RiskKey: m.Label(), Content: m.Value})
	}

	if r.Classification != nil {
		for _, d := range r.Classification.Details {
			rows = append(rows, RiskRow{
				RiskType: risk.TypeConfidential,
				RiskKey:  d.Type,
				Content:  strings.Join(d.Matches, ", "),
			})
		}
	}

	return rows
}

func truncate(s string, limit int) string {
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	return string(rs[:limit]) + "..."
}
