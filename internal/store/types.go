package store

import (
	"errors"
	"time"

	"github.com/raaihank/doc-sentinel/internal/risk"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("document not found")

// Config contains database configuration
type Config struct {
	DatabaseURL     string        `yaml:"database_url" mapstructure:"database_url"`
	MaxOpenConns    int           `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" mapstructure:"conn_max_idle_time"`
	AutoMigrate     bool          `yaml:"auto_migrate" mapstructure:"auto_migrate"`
}

// Document is a row of the documents table
type Document struct {
	ID             int64     `db:"id" json:"id"`
	Filename       string    `db:"filename" json:"filename"`
	MIMEType       string    `db:"mime_type" json:"mime_type"`
	FileSize       int64     `db:"file_size" json:"file_size"`
	Content        string    `db:"content" json:"-"`
	SensitiveInfo  string    `db:"sensitive_info" json:"-"`
	RiskScore      float64   `db:"risk_score" json:"risk_score"`
	Status         string    `db:"status" json:"status"`
	OwnerUserID    int64     `db:"owner_user_id" json:"owner_user_id"`
	UploadedAt     time.Time `db:"uploaded_at" json:"uploaded_at"`
	LastModifiedAt time.Time `db:"last_modified_at" json:"last_modified_at"`
}

// DocumentRisk is a row of the documents_risk table
type DocumentRisk struct {
	ID         int64  `db:"id" json:"id"`
	DocumentID int64  `db:"document_id" json:"-"`
	RiskType   string `db:"risk_type" json:"risk_type"`
	RiskKey    string `db:"risk_key" json:"risk_key"`
	Content    string `db:"content" json:"content"`
}

// SaveResult summarizes a persisted analysis
type SaveResult struct {
	DocumentID       int64         `json:"document_id"`
	Filename         string        `json:"filename"`
	RiskScore        float64       `json:"risk_score"`
	RiskLevel        risk.Level    `json:"risk_level"`
	Status           risk.Status   `json:"status"`
	TotalRisks       int           `json:"total_risks"`
	RegexDetections  int           `json:"regex_detections"`
	AIDetections     int           `json:"ai_detections"`
	ProcessingTimeMs int64         `json:"processing_time_ms"`
	Duration         time.Duration `json:"-"`
}

// DocumentView is a document as returned to API clients
type DocumentView struct {
	ID             int64      `json:"id"`
	Filename       string     `json:"filename"`
	MIMEType       string     `json:"mime_type"`
	FileSize       int64      `json:"file_size"`
	Status         string     `json:"status"`
	RiskScore      float64    `json:"risk_score"`
	RiskLevel      risk.Level `json:"risk_level"`
	UploadedAt     time.Time  `json:"uploaded_at"`
	LastModifiedAt time.Time  `json:"last_modified_at"`
	ContentLength  int        `json:"content_length"`
}

// Analysis is a stored document with its risks
type Analysis struct {
	Document      DocumentView    `json:"document"`
	SensitiveInfo map[string]any  `json:"sensitive_info"`
	Risks         []DocumentRisk  `json:"risks"`
	Summary       AnalysisSummary `json:"summary"`
}

// AnalysisSummary aggregates the risks of one document
type AnalysisSummary struct {
	TotalRisks int      `json:"total_risks"`
	RiskTypes  []string `json:"risk_types"`
	RiskKeys   []string `json:"risk_keys"`
}

// ListOptions filters ListDocuments
type ListOptions struct {
	Limit       int
	OwnerUserID int64 // zero means every owner
}

// DocumentSummary is one entry of ListDocuments
type DocumentSummary struct {
	ID          int64      `db:"id" json:"id"`
	Filename    string     `db:"filename" json:"filename"`
	MIMEType    string     `db:"mime_type" json:"mime_type"`
	FileSize    int64      `db:"file_size" json:"file_size"`
	Status      string     `db:"status" json:"status"`
	RiskScore   float64    `db:"risk_score" json:"risk_score"`
	RiskLevel   risk.Level `db:"-" json:"risk_level"`
	TotalRisks  int        `db:"total_risks" json:"total_risks"`
	UploadedAt  time.Time  `db:"uploaded_at" json:"uploaded_at"`
	OwnerUserID int64      `db:"owner_user_id" json:"owner_user_id"`
}

// Statistics is the aggregate view over stored documents
type Statistics struct {
	Documents        DocumentCounts     `json:"documents"`
	Risks            RiskCounts         `json:"risks"`
	RiskLevels       map[risk.Level]int `json:"risk_levels"`
	RiskTypes        map[string]int     `json:"risk_types"`
	AverageRiskScore float64            `json:"average_risk_score"`
}

// DocumentCounts counts documents by status
type DocumentCounts struct {
	Total      int `db:"total" json:"total"`
	Completed  int `db:"completed" json:"completed"`
	Processing int `db:"processing" json:"processing"`
	Error      int `db:"error" json:"error"`
}

// RiskCounts counts risk rows
type RiskCounts struct {
	Total              int     `json:"total"`
	AveragePerDocument float64 `json:"average_per_document"`
}
