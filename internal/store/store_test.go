package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/raaihank/doc-sentinel/internal/analysis"
	"github.com/raaihank/doc-sentinel/internal/risk"
	"github.com/raaihank/doc-sentinel/internal/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskDatabaseURL(t *testing.T) {
	assert.Equal(t,
		"postgres://sentinel:xxxxx@db:5432/docs?sslmode=disable",
		maskDatabaseURL("postgres://sentinel:hunter2@db:5432/docs?sslmode=disable"))
	assert.Equal(t, "postgres://db:5432/docs", maskDatabaseURL("postgres://db:5432/docs"))
	assert.Equal(t, "postgres://user@db/docs", maskDatabaseURL("postgres://user@db/docs"))
}

func TestSummarizeRisks(t *testing.T) {
	got := summarizeRisks([]DocumentRisk{
		{RiskType: "PERSONAL_DATA", RiskKey: "PHONE"},
		{RiskType: "PERSONAL_DATA", RiskKey: "PHONE"},
		{RiskType: "CONFIDENTIAL_DATA", RiskKey: "Mật khẩu người dùng"},
		{RiskType: "", RiskKey: ""},
	})

	assert.Equal(t, 4, got.TotalRisks)
	assert.Equal(t, []string{"PERSONAL_DATA", "CONFIDENTIAL_DATA"}, got.RiskTypes)
	assert.Equal(t, []string{"PHONE", "Mật khẩu người dùng"}, got.RiskKeys)
}

func TestParseSensitiveInfo(t *testing.T) {
	assert.Empty(t, parseSensitiveInfo(""))
	assert.Equal(t, map[string]any{"error": "Invalid JSON"}, parseSensitiveInfo("{"))
	assert.Equal(t, float64(2), parseSensitiveInfo(`{"total_items":2}`)["total_items"])
}

func TestBuildAnalysis(t *testing.T) {
	doc := Document{ID: 7, Filename: "a.docx", Content: "Số điện thoại", RiskScore: 60, Status: "COMPLETED"}

	a := buildAnalysis(doc, nil)
	assert.Equal(t, int64(7), a.Document.ID)
	assert.Equal(t, risk.LevelHigh, a.Document.RiskLevel)
	assert.Equal(t, 13, a.Document.ContentLength)
	assert.NotNil(t, a.Risks)
	assert.Equal(t, 0, a.Summary.TotalRisks)
}

func TestBuildStatistics(t *testing.T) {
	counts := DocumentCounts{Total: 3, Completed: 2, Error: 1}
	stats := buildStatistics(counts, []float64{0, 20, 80}, map[string]int{"PERSONAL_DATA": 4}, 5)

	assert.Equal(t, counts, stats.Documents)
	assert.Equal(t, RiskCounts{Total: 5, AveragePerDocument: 1.67}, stats.Risks)
	assert.Equal(t, map[risk.Level]int{
		risk.LevelNone:     1,
		risk.LevelLow:      1,
		risk.LevelMedium:   0,
		risk.LevelHigh:     0,
		risk.LevelCritical: 1,
	}, stats.RiskLevels)
	assert.Equal(t, 33.33, stats.AverageRiskScore)
}

func TestBuildStatisticsEmpty(t *testing.T) {
	stats := buildStatistics(DocumentCounts{}, nil, map[string]int{}, 0)
	assert.Zero(t, stats.AverageRiskScore)
	assert.Zero(t, stats.Risks.AveragePerDocument)
	assert.Len(t, stats.RiskLevels, 5)
}

func TestBuildSaveResult(t *testing.T) {
	engine, err := analysis.NewEngine(rules.Default(), nil, analysis.DefaultOptions(), nil)
	require.NoError(t, err)
	report := engine.Analyze("Mật khẩu: abc123")

	res := buildSaveResult(9, SaveRequest{Filename: "x.txt", Report: report}, len(report.RiskRows()), 1500*time.Millisecond)
	assert.Equal(t, int64(9), res.DocumentID)
	assert.Equal(t, len(report.Matches), res.RegexDetections)
	assert.Equal(t, 1, res.AIDetections)
	assert.Equal(t, int64(1500), res.ProcessingTimeMs)
	assert.Equal(t, risk.StatusCompleted, res.Status)
}

// Runs against a real database when SENTINEL_TEST_DATABASE_URL is set.
func TestStoreRoundTrip(t *testing.T) {
	dsn := os.Getenv("SENTINEL_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("SENTINEL_TEST_DATABASE_URL not set")
	}

	s, err := New(&Config{DatabaseURL: dsn, MaxOpenConns: 2, MaxIdleConns: 1, AutoMigrate: true}, nil)
	require.NoError(t, err)
	defer s.Close()

	engine, err := analysis.NewEngine(rules.Default(), nil, analysis.DefaultOptions(), nil)
	require.NoError(t, err)
	text := "Số điện thoại 0912345678"
	report := engine.Analyze(text)

	ctx := context.Background()
	saved, err := s.SaveAnalysis(ctx, SaveRequest{
		Filename: "roundtrip.txt", MIMEType: "text/plain", FileSize: int64(len(text)),
		Content: text, Report: report, OwnerUserID: 4242, UploadedBy: "test",
	})
	require.NoError(t, err)

	got, err := s.GetAnalysis(ctx, saved.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, "roundtrip.txt", got.Document.Filename)
	require.Len(t, got.Risks, 1)
	assert.Equal(t, "PHONE", got.Risks[0].RiskKey)

	require.NoError(t, s.UpdateStatus(ctx, saved.DocumentID, risk.StatusArchived))
	assert.Error(t, s.UpdateStatus(ctx, saved.DocumentID, "DONE"))

	docs, err := s.ListDocuments(ctx, ListOptions{Limit: 5, OwnerUserID: 4242})
	require.NoError(t, err)
	require.NotEmpty(t, docs)
	assert.Equal(t, saved.DocumentID, docs[0].ID)

	_, err = s.Statistics(ctx, 4242)
	require.NoError(t, err)

	_, err = s.GetAnalysis(ctx, -1)
	assert.True(t, errors.Is(err, ErrNotFound))
}
