package risk

import (
	"testing"

	"github.com/raaihank/doc-sentinel/internal/privacy"
	"github.com/raaihank/doc-sentinel/internal/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelBoundaries(t *testing.T) {
	tests := []struct {
		score float64
		want  Level
	}{
		{0, LevelNone},
		{0.5, LevelLow},
		{25, LevelLow},
		{25.01, LevelMedium},
		{50, LevelMedium},
		{51, LevelHigh},
		{75, LevelHigh},
		{75.5, LevelCritical},
		{100, LevelCritical},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, DefaultScorer.Level(tt.score), "score %v", tt.score)
	}
}

func TestScore(t *testing.T) {
	s := DefaultScorer

	assert.Equal(t, 0.0, s.Score(nil))
	assert.Equal(t, 15.0, s.Score([]string{"PHONE"}))
	assert.Equal(t, 10.0, s.Score([]string{"SALARY"}), "unmapped labels use the default weight")
	assert.Equal(t, 75.0, s.Score([]string{"Password", "ID_CARD"}))
	assert.Equal(t, 100.0, s.Score([]string{"PASSWORD", "PASSWORD", "PASSWORD"}), "score is capped")
}

func TestScoreMonotonic(t *testing.T) {
	s := DefaultScorer
	labels := []string{"PHONE", "UNKNOWN", "SECRET_KEY", "BANK_ACCOUNT", "PASSWORD", "EMAIL"}

	prev := 0.0
	for i := range labels {
		got := s.Score(labels[:i+1])
		assert.GreaterOrEqual(t, got, prev)
		assert.LessOrEqual(t, got, MaxScore)
		prev = got
	}
}

func TestStatusAlwaysCompleted(t *testing.T) {
	for _, score := range []float64{0, 10, 29, 30, 69, 70, 100} {
		assert.Equal(t, StatusCompleted, DefaultScorer.Status(score))
	}
}

func TestRiskType(t *testing.T) {
	s := DefaultScorer

	assert.Equal(t, TypeIdentity, s.RiskType("PERSONAL_ID"))
	assert.Equal(t, TypeIdentity, s.RiskType("CMND/CCCD"))
	assert.Equal(t, TypeFinancial, s.RiskType("BANK_ACCOUNT"))
	assert.Equal(t, TypePersonal, s.RiskType("PHONE"))
	assert.Equal(t, TypeAuthentication, s.RiskType("Access Token"))
	assert.Equal(t, TypeConfidential, s.RiskType("SALARY"))
	assert.Equal(t, TypeConfidential, s.RiskType(""))
}

func TestAssess(t *testing.T) {
	findings := []privacy.Finding{
		{Subtype: rules.SubtypePhone, Value: "0912345678"},
		{Subtype: rules.SubtypePassword, Value: "x"},
		{Subtype: rules.SubtypeSalary, Value: "Bảng lương"},
	}

	a := DefaultScorer.Assess(findings)
	assert.Equal(t, 75.0, a.Score)
	assert.Equal(t, LevelHigh, a.Level)
	assert.Equal(t, StatusCompleted, a.Status)
	assert.Equal(t, []Type{TypePersonal, TypeAuthentication, TypeConfidential}, a.PerFinding)
	assert.Equal(t, map[string]Type{
		"PHONE":    TypePersonal,
		"PASSWORD": TypeAuthentication,
		"SALARY":   TypeConfidential,
	}, a.RiskTypeByFinding)
	assert.Equal(t, a.Score, DefaultScorer.ScoreFindings(findings))
}

func TestAssessEmpty(t *testing.T) {
	a := DefaultScorer.Assess(nil)
	assert.Equal(t, 0.0, a.Score)
	assert.Equal(t, LevelNone, a.Level)
	assert.Empty(t, a.PerFinding)
	assert.NotNil(t, a.RiskTypeByFinding)
}

func TestNewScorer(t *testing.T) {
	_, err := NewScorer(map[string]int{"X": -1}, nil)
	require.Error(t, err)

	_, err = NewScorer(nil, map[string]Type{"X": "BOGUS"})
	require.Error(t, err)

	weights := map[string]int{"X": 60}
	s, err := NewScorer(weights, map[string]Type{"X": TypeHealth})
	require.NoError(t, err)
	weights["X"] = 1

	assert.Equal(t, 60, s.Weight("X"), "tables are copied")
	assert.Equal(t, DefaultWeight, s.Weight("Y"))
	assert.Equal(t, TypeHealth, s.RiskType("X"))
}

func TestStatusValid(t *testing.T) {
	assert.True(t, StatusArchived.Valid())
	assert.False(t, Status("DONE").Valid())
	assert.Equal(t, "Dữ liệu xác thực", TypeAuthentication.Label())
	assert.Equal(t, "OTHER", Type("OTHER").Label())
}
