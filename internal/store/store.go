// Package store persists analyzed documents and their risk rows in
// PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"time"
	"unicode/utf8"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/raaihank/doc-sentinel/internal/analysis"
	"github.com/raaihank/doc-sentinel/internal/risk"
	"go.uber.org/zap"
)

const defaultListLimit = 50

// Store handles document storage operations with PostgreSQL
type Store struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// New connects to the database and optionally creates the schema
func New(config *Config, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sqlx.Connect("postgres", config.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	s := &Store{db: db, logger: logger}

	if config.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to initialize store: %w", err)
		}
	}

	logger.Info("Document store initialized successfully",
		zap.String("database_url", maskDatabaseURL(config.DatabaseURL)),
		zap.Int("max_open_conns", config.MaxOpenConns),
		zap.Int("max_idle_conns", config.MaxIdleConns))

	return s, nil
}

// Migrate creates tables that do not exist yet
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	s.logger.Info("Database schema ready")
	return nil
}

// SaveRequest is an analyzed document ready to be persisted
type SaveRequest struct {
	Filename    string
	MIMEType    string
	FileSize    int64
	Content     string
	Report      *analysis.Report
	OwnerUserID int64
	UploadedBy  string
}

// SaveAnalysis stores the document, its sensitive_info summary and one risk
// row per finding and classifier detail in a single transaction
func (s *Store) SaveAnalysis(ctx context.Context, req SaveRequest) (*SaveResult, error) {
	if req.Report == nil {
		return nil, fmt.Errorf("report is required")
	}

	start := time.Now()

	info, err := req.Report.SensitiveInfoJSON()
	if err != nil {
		return nil, err
	}
	rows := req.Report.RiskRows()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := ensureUser(ctx, tx, req.OwnerUserID, req.UploadedBy); err != nil {
		return nil, err
	}

	var id int64
	err = tx.QueryRowxContext(ctx, `
		INSERT INTO documents (filename, mime_type, file_size, content, sensitive_info, risk_score, status, owner_user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		req.Filename,
		req.MIMEType,
		req.FileSize,
		req.Content,
		info,
		req.Report.Risk.Score,
		string(req.Report.Risk.Status),
		req.OwnerUserID,
	).Scan(&id)
	if err != nil {
		s.logger.Error("Failed to insert document", zap.Error(err), zap.String("filename", req.Filename))
		return nil, fmt.Errorf("failed to insert document: %w", err)
	}

	for _, row := range rows {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO documents_risk (document_id, risk_type, risk_key, content) VALUES ($1, $2, $3, $4)`,
			id, string(row.RiskType), row.RiskKey, row.Content)
		if err != nil {
			return nil, fmt.Errorf("failed to insert document risk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit analysis: %w", err)
	}

	result := buildSaveResult(id, req, len(rows), time.Since(start))

	s.logger.Info("Analysis saved",
		zap.Int64("document_id", id),
		zap.Int("total_risks", result.TotalRisks),
		zap.Float64("risk_score", result.RiskScore),
		zap.Duration("duration", result.Duration))

	return result, nil
}

func ensureUser(ctx context.Context, tx *sqlx.Tx, id int64, uploadedBy string) error {
	name := uploadedBy
	if name == "" {
		name = "default_user"
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO users (id, username, email, full_name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING`,
		id, fmt.Sprintf("%s_%d", name, id), fmt.Sprintf("%s_%d@example.com", name, id), name)
	if err != nil {
		return fmt.Errorf("failed to ensure owner user: %w", err)
	}
	return nil
}

func buildSaveResult(id int64, req SaveRequest, totalRisks int, took time.Duration) *SaveResult {
	r := req.Report
	aiDetections := 0
	if r.Classification != nil {
		aiDetections = len(r.Classification.Details)
	}
	return &SaveResult{
		DocumentID:       id,
		Filename:         req.Filename,
		RiskScore:        r.Risk.Score,
		RiskLevel:        r.Risk.Level,
		Status:           r.Risk.Status,
		TotalRisks:       totalRisks,
		RegexDetections:  len(r.Matches),
		AIDetections:     aiDetections,
		ProcessingTimeMs: took.Milliseconds(),
		Duration:         took,
	}
}

// GetAnalysis returns a stored document with its risks
func (s *Store) GetAnalysis(ctx context.Context, id int64) (*Analysis, error) {
	var doc Document
	err := s.db.GetContext(ctx, &doc, `
		SELECT id, filename, mime_type, file_size, COALESCE(content, '') AS content,
			COALESCE(sensitive_info, '') AS sensitive_info, COALESCE(risk_score, 0) AS risk_score,
			COALESCE(status, '') AS status, owner_user_id, uploaded_at, last_modified_at
		FROM documents WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}

	var risks []DocumentRisk
	err = s.db.SelectContext(ctx, &risks, `
		SELECT id, document_id, COALESCE(risk_type, '') AS risk_type,
			COALESCE(risk_key, '') AS risk_key, COALESCE(content, '') AS content
		FROM documents_risk WHERE document_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load document risks: %w", err)
	}

	return buildAnalysis(doc, risks), nil
}

func buildAnalysis(doc Document, risks []DocumentRisk) *Analysis {
	if risks == nil {
		risks = []DocumentRisk{}
	}
	return &Analysis{
		Document: DocumentView{
			ID:             doc.ID,
			Filename:       doc.Filename,
			MIMEType:       doc.MIMEType,
			FileSize:       doc.FileSize,
			Status:         doc.Status,
			RiskScore:      doc.RiskScore,
			RiskLevel:      risk.LevelFor(doc.RiskScore),
			UploadedAt:     doc.UploadedAt,
			LastModifiedAt: doc.LastModifiedAt,
			ContentLength:  utf8.RuneCountInString(doc.Content),
		},
		SensitiveInfo: parseSensitiveInfo(doc.SensitiveInfo),
		Risks:         risks,
		Summary:       summarizeRisks(risks),
	}
}

func parseSensitiveInfo(raw string) map[string]any {
	info := map[string]any{}
	if raw == "" {
		return info
	}
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		return map[string]any{"error": "Invalid JSON"}
	}
	return info
}

func summarizeRisks(risks []DocumentRisk) AnalysisSummary {
	sum := AnalysisSummary{TotalRisks: len(risks), RiskTypes: []string{}, RiskKeys: []string{}}
	seenType := map[string]bool{}
	seenKey := map[string]bool{}
	for _, r := range risks {
		if r.RiskType != "" && !seenType[r.RiskType] {
			seenType[r.RiskType] = true
			sum.RiskTypes = append(sum.RiskTypes, r.RiskType)
		}
		if r.RiskKey != "" && !seenKey[r.RiskKey] {
			seenKey[r.RiskKey] = true
			sum.RiskKeys = append(sum.RiskKeys, r.RiskKey)
		}
	}
	return sum
}

// ListDocuments returns the most recently uploaded documents first
func (s *Store) ListDocuments(ctx context.Context, opts ListOptions) ([]DocumentSummary, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	query := `
		SELECT d.id, d.filename, d.mime_type, d.file_size, COALESCE(d.status, '') AS status,
			COALESCE(d.risk_score, 0) AS risk_score, d.uploaded_at, d.owner_user_id,
			(SELECT COUNT(*) FROM documents_risk r WHERE r.document_id = d.id) AS total_risks
		FROM documents d`
	args := []interface{}{}
	if opts.OwnerUserID != 0 {
		query += " WHERE d.owner_user_id = $1"
		args = append(args, opts.OwnerUserID)
	}
	query += fmt.Sprintf(" ORDER BY d.uploaded_at DESC LIMIT $%d", len(args)+1)
	args = append(args, limit)

	docs := []DocumentSummary{}
	if err := s.db.SelectContext(ctx, &docs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	for i := range docs {
		docs[i].RiskLevel = risk.LevelFor(docs[i].RiskScore)
	}

	return docs, nil
}

// Statistics aggregates stored documents. A zero owner covers every owner.
func (s *Store) Statistics(ctx context.Context, ownerUserID int64) (*Statistics, error) {
	where, args := "", []interface{}{}
	if ownerUserID != 0 {
		where, args = " WHERE d.owner_user_id = $1", []interface{}{ownerUserID}
	}

	var counts DocumentCounts
	err := s.db.GetContext(ctx, &counts, `
		SELECT COUNT(*) AS total,
			COUNT(CASE WHEN d.status = 'COMPLETED' THEN 1 END) AS completed,
			COUNT(CASE WHEN d.status = 'PROCESSING' THEN 1 END) AS processing,
			COUNT(CASE WHEN d.status = 'ERROR' THEN 1 END) AS error
		FROM documents d`+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}

	var scores []float64
	if err := s.db.SelectContext(ctx, &scores, `SELECT COALESCE(d.risk_score, 0) FROM documents d`+where, args...); err != nil {
		return nil, fmt.Errorf("failed to load risk scores: %w", err)
	}

	var typeRows []struct {
		RiskType string `db:"risk_type"`
		Count    int    `db:"count"`
	}
	err = s.db.SelectContext(ctx, &typeRows, `
		SELECT r.risk_type, COUNT(*) AS count
		FROM documents_risk r JOIN documents d ON d.id = r.document_id`+where+andOrWhere(where)+`r.risk_type IS NOT NULL
		GROUP BY r.risk_type`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count risk types: %w", err)
	}

	types := make(map[string]int, len(typeRows))
	for _, row := range typeRows {
		types[row.RiskType] = row.Count
	}

	var totalRisks int
	err = s.db.GetContext(ctx, &totalRisks, `
		SELECT COUNT(*) FROM documents_risk r JOIN documents d ON d.id = r.document_id`+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count risks: %w", err)
	}

	return buildStatistics(counts, scores, types, totalRisks), nil
}

func andOrWhere(where string) string {
	if where == "" {
		return " WHERE "
	}
	return " AND "
}

func buildStatistics(counts DocumentCounts, scores []float64, types map[string]int, totalRisks int) *Statistics {
	stats := &Statistics{
		Documents:  counts,
		Risks:      RiskCounts{Total: totalRisks},
		RiskLevels: make(map[risk.Level]int, len(risk.Levels)),
		RiskTypes:  types,
	}
	for _, l := range risk.Levels {
		stats.RiskLevels[l] = 0
	}

	total := 0.0
	for _, sc := range scores {
		stats.RiskLevels[risk.LevelFor(sc)]++
		total += sc
	}

	if counts.Total > 0 {
		stats.Risks.AveragePerDocument = round2(float64(totalRisks) / float64(counts.Total))
		stats.AverageRiskScore = round2(total / float64(counts.Total))
	}

	return stats
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// UpdateStatus changes the lifecycle status of a document
func (s *Store) UpdateStatus(ctx context.Context, id int64, status risk.Status) error {
	if !status.Valid() {
		return fmt.Errorf("invalid document status: %s", status)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE documents SET status = $1, last_modified_at = NOW() WHERE id = $2`, string(status), id)
	if err != nil {
		return fmt.Errorf("failed to update document status: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update document status: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	s.logger.Info("Document status updated", zap.Int64("document_id", id), zap.String("status", string(status)))
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// maskDatabaseURL masks the password in a database URL for logging
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "[invalid database url]"
	}
	return u.Redacted()
}
