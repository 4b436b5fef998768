package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/raaihank/doc-sentinel/internal/analysis"
	"github.com/raaihank/doc-sentinel/internal/risk"
)

// EventType represents the type of WebSocket event
type EventType string

const (
	// EventTypeDetection is emitted after every document analysis
	EventTypeDetection EventType = "detection"
	// EventTypeSystemStatus represents a system status event
	EventTypeSystemStatus EventType = "system_status"
	// EventTypeConnection represents connection events
	EventTypeConnection EventType = "connection"
	// EventTypePong answers a client ping
	EventTypePong EventType = "pong"
)

// Event represents a WebSocket event sent to clients
type Event struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
	RequestID string      `json:"request_id,omitempty"`
}

// DetectionEvent summarizes an analysis. It never carries detected values.
type DetectionEvent struct {
	RequestID      string     `json:"request_id,omitempty"`
	Filename       string     `json:"filename,omitempty"`
	MIMEType       string     `json:"mime_type,omitempty"`
	ContentLength  int        `json:"content_length"`
	TotalMatches   int        `json:"total_matches"`
	Subtypes       []string   `json:"subtypes"`
	Categories     []string   `json:"categories"`
	Classification string     `json:"classification,omitempty"`
	RiskScore      float64    `json:"risk_score"`
	RiskLevel      risk.Level `json:"risk_level"`
	DocumentID     int64      `json:"document_id,omitempty"`
	ProcessingMS   float64    `json:"processing_ms"`
}

// NewDetectionEvent builds the detection event for report.
func NewDetectionEvent(requestID string, report *analysis.Report, took time.Duration) Event {
	data := DetectionEvent{
		RequestID:     requestID,
		Filename:      report.Filename,
		MIMEType:      report.MIMEType,
		ContentLength: report.ContentLength,
		TotalMatches:  report.TotalMatches,
		Subtypes:      make([]string, 0, len(report.SubtypesFound)),
		Categories:    make([]string, 0, len(report.CategoriesFound)),
		RiskScore:     report.Risk.Score,
		RiskLevel:     report.Risk.Level,
		ProcessingMS:  float64(took.Microseconds()) / 1000,
	}
	for _, s := range report.SubtypesFound {
		data.Subtypes = append(data.Subtypes, string(s))
	}
	for _, c := range report.CategoriesFound {
		data.Categories = append(data.Categories, string(c))
	}
	if report.Classification != nil {
		data.Classification = report.Classification.Summary
	}

	return Event{
		Type:      EventTypeDetection,
		Timestamp: time.Now(),
		Data:      data,
		RequestID: requestID,
	}
}

// SystemStatusEvent represents system status information
type SystemStatusEvent struct {
	Status           string `json:"status"`
	Uptime           string `json:"uptime"`
	TotalAnalyses    int64  `json:"total_analyses"`
	ActiveRules      int    `json:"active_rules"`
	ConnectedClients int    `json:"connected_clients"`
}

// ConnectionEvent represents WebSocket connection events
type ConnectionEvent struct {
	Action    string `json:"action"` // "connected", "disconnected"
	ClientID  string `json:"client_id"`
	ClientIP  string `json:"client_ip"`
	UserAgent string `json:"user_agent,omitempty"`
	Message   string `json:"message,omitempty"`
}

// ClientMessage represents messages sent from clients to server
type ClientMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// SubscriptionRequest represents a client subscription request
type SubscriptionRequest struct {
	Events []EventType  `json:"events"`
	Filter *EventFilter `json:"filter,omitempty"`
}

// EventFilter narrows detection events
type EventFilter struct {
	MinLevel risk.Level `json:"min_level,omitempty"`
	Subtypes []string   `json:"subtypes,omitempty"`
}

// Client represents a WebSocket client connection
type Client struct {
	ID           string
	Conn         *websocket.Conn
	Send         chan Event
	Subscription *SubscriptionRequest
	ConnectedAt  time.Time
	LastPing     time.Time
	IP           string
	UserAgent    string

	mu sync.Mutex
}
