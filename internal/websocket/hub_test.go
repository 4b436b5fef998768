package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/raaihank/doc-sentinel/internal/analysis"
	"github.com/raaihank/doc-sentinel/internal/risk"
	"github.com/raaihank/doc-sentinel/internal/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T, cfg *HubConfig) (*Hub, *httptest.Server) {
	t.Helper()

	hub := NewHub(cfg, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sampleReport(t *testing.T) *analysis.Report {
	t.Helper()
	e, err := analysis.NewEngine(rules.Default(), nil, analysis.DefaultOptions(), nil)
	require.NoError(t, err)
	return e.AnalyzeDocument(analysis.Source{Filename: "a.txt"}, "Số điện thoại 0912345678")
}

func TestNewDetectionEventHasNoValues(t *testing.T) {
	ev := NewDetectionEvent("req-1", sampleReport(t), 1500*time.Microsecond)

	assert.Equal(t, EventTypeDetection, ev.Type)
	data, ok := ev.Data.(DetectionEvent)
	require.True(t, ok)
	assert.Equal(t, "a.txt", data.Filename)
	assert.Equal(t, 1, data.TotalMatches)
	assert.Equal(t, []string{"PHONE"}, data.Subtypes)
	assert.Equal(t, risk.LevelLow, data.RiskLevel)
	assert.Equal(t, "NOT_CLASSIFIED", data.Classification)
	assert.InDelta(t, 1.5, data.ProcessingMS, 0.001)
}

func TestBroadcastDetection(t *testing.T) {
	hub, srv := startHub(t, nil)
	conn := dial(t, srv)

	require.Eventually(t, func() bool { return hub.Stats().ActiveConnections == 1 }, time.Second, 10*time.Millisecond)

	hub.BroadcastEvent(NewDetectionEvent("req-1", sampleReport(t), time.Millisecond))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "0912345678")

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "detection", got["type"])
	assert.Equal(t, "req-1", got["request_id"])
}

func TestDisabledEventTypesAreNotQueued(t *testing.T) {
	cfg := DefaultHubConfig()
	cfg.BroadcastDetections = false
	hub := NewHub(cfg, nil)

	hub.BroadcastEvent(Event{Type: EventTypeDetection})
	hub.BroadcastEvent(Event{Type: "unknown"})
	assert.Len(t, hub.broadcast, 0)

	hub.BroadcastEvent(Event{Type: EventTypeSystemStatus})
	assert.Len(t, hub.broadcast, 1)
}

func TestBasicAuth(t *testing.T) {
	cfg := DefaultHubConfig()
	cfg.Username, cfg.Password = "ops", "secret"
	_, srv := startHub(t, cfg)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	header := http.Header{}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.SetBasicAuth("ops", "secret")
	header.Set("Authorization", req.Header.Get("Authorization"))
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	conn.Close()
}

func TestEventFilter(t *testing.T) {
	high := Event{Type: EventTypeDetection, Data: DetectionEvent{RiskLevel: risk.LevelHigh, Subtypes: []string{"PASSWORD"}}}
	low := Event{Type: EventTypeDetection, Data: DetectionEvent{RiskLevel: risk.LevelLow, Subtypes: []string{"PHONE"}}}
	status := Event{Type: EventTypeSystemStatus, Data: SystemStatusEvent{}}

	c := &Client{}
	assert.True(t, shouldSendToClient(c, low))

	c.setSubscription(&SubscriptionRequest{Events: []EventType{EventTypeDetection}, Filter: &EventFilter{MinLevel: risk.LevelMedium}})
	assert.True(t, shouldSendToClient(c, high))
	assert.False(t, shouldSendToClient(c, low))
	assert.False(t, shouldSendToClient(c, status))

	c.setSubscription(&SubscriptionRequest{Filter: &EventFilter{Subtypes: []string{"PHONE"}}})
	assert.False(t, shouldSendToClient(c, high))
	assert.True(t, shouldSendToClient(c, low))
	assert.True(t, shouldSendToClient(c, status))
}

func TestCheckOrigin(t *testing.T) {
	cfg := DefaultHubConfig()
	cfg.AllowedOrigins = []string{"https://dash.example.com"}
	hub := NewHub(cfg, nil)

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	assert.True(t, hub.checkOrigin(req))

	req.Header.Set("Origin", "https://dash.example.com")
	assert.True(t, hub.checkOrigin(req))

	req.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, hub.checkOrigin(req))
}
