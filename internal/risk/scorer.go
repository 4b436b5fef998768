// Package risk turns detector findings into an aggregate score, a level and
// a per-finding risk type. Tables are fixed at construction and never mutated.
package risk

import (
	"fmt"

	"github.com/raaihank/doc-sentinel/internal/privacy"
	"github.com/raaihank/doc-sentinel/internal/rules"
)

const (
	// MaxScore caps the aggregate score.
	MaxScore = 100.0
	// DefaultWeight applies to labels missing from the weight table.
	DefaultWeight = 10
)

// DefaultWeights keys weights by subtype code. The legacy display names used
// by earlier reports are kept as aliases so stored labels still score.
var DefaultWeights = map[string]int{
	string(rules.SubtypeIDCard):          25,
	string(rules.SubtypePersonalID):      25,
	string(rules.SubtypeTaxIDPersonal):   20,
	string(rules.SubtypeTaxIDOrg):        20,
	string(rules.SubtypeBankAccount):     30,
	string(rules.SubtypeCardNumber):      35,
	string(rules.SubtypePhone):           15,
	string(rules.SubtypeSocialInsurance): 20,
	string(rules.SubtypeSecretKey):       45,
	string(rules.SubtypePassword):        50,

	"CMND/CCCD":        25,
	"MST":              20,
	"Bank Account":     30,
	"Credit Card":      35,
	"Email":            10,
	"Phone":            15,
	"Social Insurance": 20,
	"API Key":          40,
	"Secret Key":       45,
	"Password":         50,
	"Access Token":     35,
}

// DefaultTypes maps finding labels to risk types.
var DefaultTypes = map[string]Type{
	string(rules.SubtypeIDCard):          TypeIdentity,
	string(rules.SubtypePersonalID):      TypeIdentity,
	string(rules.SubtypeTaxIDPersonal):   TypeFinancial,
	string(rules.SubtypeTaxIDOrg):        TypeFinancial,
	string(rules.SubtypeBankAccount):     TypeFinancial,
	string(rules.SubtypeCardNumber):      TypeFinancial,
	string(rules.SubtypePhone):           TypePersonal,
	string(rules.SubtypeSocialInsurance): TypePersonal,
	string(rules.SubtypeSecretKey):       TypeAuthentication,
	string(rules.SubtypePassword):        TypeAuthentication,

	"CMND/CCCD":        TypeIdentity,
	"MST":              TypeFinancial,
	"Bank Account":     TypeFinancial,
	"Credit Card":      TypeFinancial,
	"Email":            TypePersonal,
	"Phone":            TypePersonal,
	"Social Insurance": TypePersonal,
	"API Key":          TypeAuthentication,
	"Secret Key":       TypeAuthentication,
	"Password":         TypeAuthentication,
	"Access Token":     TypeAuthentication,
}

// DefaultScorer uses DefaultWeights and DefaultTypes.
var DefaultScorer = mustScorer(DefaultWeights, DefaultTypes)

// Scorer computes risk from finding labels. Safe for concurrent use.
type Scorer struct {
	weights map[string]int
	types   map[string]Type
}

// NewScorer copies the given tables into a new scorer. Negative weights and
// unknown risk types are rejected.
func NewScorer(weights map[string]int, types map[string]Type) (*Scorer, error) {
	s := &Scorer{
		weights: make(map[string]int, len(weights)),
		types:   make(map[string]Type, len(types)),
	}
	for label, w := range weights {
		if w < 0 {
			return nil, fmt.Errorf("negative weight %d for %q", w, label)
		}
		s.weights[label] = w
	}
	for label, t := range types {
		if !t.Valid() {
			return nil, fmt.Errorf("unknown risk type %q for %q", t, label)
		}
		s.types[label] = t
	}
	return s, nil
}

func mustScorer(weights map[string]int, types map[string]Type) *Scorer {
	s, err := NewScorer(weights, types)
	if err != nil {
		panic(err)
	}
	return s
}

// Weight returns the weight of label, or DefaultWeight if unmapped.
func (s *Scorer) Weight(label string) int {
	if w, ok := s.weights[label]; ok {
		return w
	}
	return DefaultWeight
}

// Score sums the weights of labels and caps the total at MaxScore.
func (s *Scorer) Score(labels []string) float64 {
	total := 0
	for _, l := range labels {
		total += s.Weight(l)
	}
	return min(float64(total), MaxScore)
}

// ScoreFindings scores findings by their subtype label.
func (s *Scorer) ScoreFindings(findings []privacy.Finding) float64 {
	return s.Score(labelsOf(findings))
}

// Level buckets a score. Upper bounds are inclusive.
func (s *Scorer) Level(score float64) Level {
	return LevelFor(score)
}

// LevelFor buckets a score without a scorer.
func LevelFor(score float64) Level {
	switch {
	case score <= 0:
		return LevelNone
	case score <= 25:
		return LevelLow
	case score <= 50:
		return LevelMedium
	case score <= 75:
		return LevelHigh
	default:
		return LevelCritical
	}
}

// Status returns the document status for a finished analysis. Every score
// yields COMPLETED.
func (s *Scorer) Status(score float64) Status {
	return StatusCompleted
}

// RiskType maps label to its risk type, defaulting to CONFIDENTIAL_DATA.
func (s *Scorer) RiskType(label string) Type {
	if t, ok := s.types[label]; ok {
		return t
	}
	return TypeConfidential
}

// Assess scores findings and classifies each of them.
func (s *Scorer) Assess(findings []privacy.Finding) Assessment {
	labels := labelsOf(findings)
	score := s.Score(labels)

	a := Assessment{
		Score:             score,
		Level:             s.Level(score),
		Status:            s.Status(score),
		RiskTypeByFinding: make(map[string]Type),
		PerFinding:        make([]Type, len(labels)),
	}
	for i, l := range labels {
		t := s.RiskType(l)
		a.PerFinding[i] = t
		a.RiskTypeByFinding[l] = t
	}
	return a
}

func labelsOf(findings []privacy.Finding) []string {
	labels := make([]string, len(findings))
	for i, f := range findings {
		labels[i] = f.Label()
	}
	return labels
}
