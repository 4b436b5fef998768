// Package classifier assigns coarse sensitivity categories to text using the
// broad taxonomy. It is independent of the keyword-anchored detector and its
// output is never merged with detector findings.
package classifier

import (
	"strings"

	"github.com/raaihank/doc-sentinel/internal/rules"
	"go.uber.org/zap"
)

// Detail describes one detected broad data type.
type Detail struct {
	Type        string                `json:"type"`
	Categories  []rules.BroadCategory `json:"categories"`
	Matches     []string              `json:"matches"`
	Description string                `json:"description"`
}

// Result is the outcome of classifying a text. Categories is a set rendered
// in canonical order.
type Result struct {
	Categories    []rules.BroadCategory `json:"categories"`
	DetectedTypes []string              `json:"detected_types"`
	Details       []Detail              `json:"details"`
}

// Has reports whether c is among the result categories.
func (r Result) Has(c rules.BroadCategory) bool {
	for _, got := range r.Categories {
		if got == c {
			return true
		}
	}
	return false
}

var canonicalOrder = []rules.BroadCategory{
	rules.BroadPersonalSensitive,
	rules.BroadInternalSensitive,
	rules.BroadNotClassified,
}

// Classifier runs the broad taxonomy over text. Safe for concurrent use.
type Classifier struct {
	types  []preparedType
	logger *zap.Logger
}

type preparedType struct {
	dataType rules.BroadDataType
	lowered  []string
}

// New creates a classifier over the broad types of table.
func New(table *rules.Table, log *zap.Logger) *Classifier {
	if log == nil {
		log = zap.NewNop()
	}

	c := &Classifier{logger: log}
	for _, bt := range table.BroadTypes() {
		pt := preparedType{dataType: bt, lowered: make([]string, len(bt.Keywords))}
		for i, kw := range bt.Keywords {
			pt.lowered[i] = strings.ToLower(kw)
		}
		c.types = append(c.types, pt)
	}

	return c
}

// Classify checks every broad type for keyword containment and pattern
// matches. A type with at least one hit is detected and contributes its
// categories. Nothing detected yields NOT_CLASSIFIED.
func (c *Classifier) Classify(text string) Result {
	result := Result{
		DetectedTypes: []string{},
		Details:       []Detail{},
	}

	seen := make(map[rules.BroadCategory]bool)
	if text != "" {
		lower := strings.ToLower(text)

		for _, pt := range c.types {
			matches := pt.match(lower)
			if len(matches) == 0 {
				continue
			}

			bt := pt.dataType
			result.DetectedTypes = append(result.DetectedTypes, bt.Name)
			result.Details = append(result.Details, Detail{
				Type:        bt.Name,
				Categories:  bt.Categories,
				Matches:     matches,
				Description: bt.Description,
			})
			for _, cat := range bt.Categories {
				seen[cat] = true
			}
		}
	}

	if len(seen) == 0 {
		seen[rules.BroadNotClassified] = true
	}
	for _, cat := range canonicalOrder {
		if seen[cat] {
			result.Categories = append(result.Categories, cat)
		}
	}

	c.logger.Debug("Text classified",
		zap.Int("text_length", len(text)),
		zap.Strings("detected_types", result.DetectedTypes),
	)

	return result
}

func (pt preparedType) match(lower string) []string {
	var matches []string
	for i, kw := range pt.lowered {
		if strings.Contains(lower, kw) {
			matches = append(matches, "Keyword: "+pt.dataType.Keywords[i])
		}
	}
	for _, m := range pt.dataType.FindPatterns(lower) {
		matches = append(matches, "Pattern: "+m)
	}
	return matches
}

// Summary reduces the classification of text to a single string.
func (c *Classifier) Summary(text string) string {
	return SummaryOf(c.Classify(text))
}

// SummaryOf returns NOT_CLASSIFIED if present, both sensitive categories
// joined in fixed order if both are present, or else the sole category.
func SummaryOf(r Result) string {
	if r.Has(rules.BroadNotClassified) {
		return string(rules.BroadNotClassified)
	}
	if r.Has(rules.BroadPersonalSensitive) && r.Has(rules.BroadInternalSensitive) {
		return string(rules.BroadPersonalSensitive) + ", " + string(rules.BroadInternalSensitive)
	}
	if len(r.Categories) > 0 {
		return string(r.Categories[0])
	}
	return string(rules.BroadNotClassified)
}

// ListCategories maps each sensitive category to the names of the broad
// types that declare it.
func (c *Classifier) ListCategories() map[rules.BroadCategory][]string {
	out := map[rules.BroadCategory][]string{
		rules.BroadPersonalSensitive: {},
		rules.BroadInternalSensitive: {},
	}
	for _, pt := range c.types {
		for _, cat := range pt.dataType.Categories {
			if _, ok := out[cat]; ok {
				out[cat] = append(out[cat], pt.dataType.Name)
			}
		}
	}
	return out
}
