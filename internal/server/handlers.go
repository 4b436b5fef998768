package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/raaihank/doc-sentinel/internal/analysis"
	"github.com/raaihank/doc-sentinel/internal/classifier"
	"github.com/raaihank/doc-sentinel/internal/extract"
	"github.com/raaihank/doc-sentinel/internal/risk"
	"github.com/raaihank/doc-sentinel/internal/rules"
	"github.com/raaihank/doc-sentinel/internal/store"
	"github.com/raaihank/doc-sentinel/internal/websocket"
	"go.uber.org/zap"
)

const maxJSONBody = 1 << 20

// DetectRequest is the JSON body of POST /api/v1/detect
type DetectRequest struct {
	Text     string `json:"text"`
	Filename string `json:"filename,omitempty"`
	Save     bool   `json:"save,omitempty"`
}

// DetectResponse wraps the analysis of one document
type DetectResponse struct {
	Success      bool              `json:"success"`
	RequestID    string            `json:"request_id"`
	Filename     string            `json:"filename,omitempty"`
	MIMEType     string            `json:"mime_type,omitempty"`
	FileSize     int64             `json:"file_size,omitempty"`
	Cached       bool              `json:"cached"`
	DocumentID   int64             `json:"document_id,omitempty"`
	ProcessingMS float64           `json:"processing_ms"`
	Report       *analysis.Report  `json:"report"`
	Saved        *store.SaveResult `json:"saved,omitempty"`
}

// ClassifyResponse is the body of POST /api/v1/classify
type ClassifyResponse struct {
	Success bool              `json:"success"`
	Summary string            `json:"summary"`
	Result  classifier.Result `json:"result"`
}

type detectInput struct {
	source analysis.Source
	text   string
	save   bool
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   Version,
	})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	info := map[string]any{
		"service":        "doc-sentinel",
		"version":        Version,
		"uptime":         time.Since(s.started).Round(time.Second).String(),
		"total_analyses": s.analyses.Load(),
		"features": map[string]bool{
			"detector":   s.config.Detection.Enabled,
			"classifier": s.config.Detection.Classifier.Enabled,
			"store":      s.deps.Store != nil,
			"cache":      s.deps.Cache != nil,
			"websocket":  s.deps.Hub != nil && s.config.WebSocket.Enabled,
			"rate_limit": s.limiter != nil,
		},
		"rules":       len(s.deps.Table.Rules()),
		"broad_types": len(s.deps.Table.BroadTypes()),
	}
	if s.deps.Hub != nil {
		info["websocket_stats"] = s.deps.Hub.Stats()
	}
	writeJSON(w, http.StatusOK, info)
}

type ruleView struct {
	Subtype       rules.Subtype  `json:"subtype"`
	Label         string         `json:"label"`
	Category      rules.Category `json:"category"`
	CategoryLabel string         `json:"category_label"`
	Keywords      []string       `json:"keywords"`
	HasPattern    bool           `json:"has_pattern"`
}

func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	table := s.deps.Table.Rules()
	views := make([]ruleView, 0, len(table))
	for _, rule := range table {
		views = append(views, ruleView{
			Subtype:       rule.Subtype,
			Label:         rule.Subtype.Label(),
			Category:      rule.Category,
			CategoryLabel: rule.Category.Label(),
			Keywords:      rule.Keywords,
			HasPattern:    rule.HasPattern(),
		})
	}

	resp := map[string]any{
		"success": true,
		"rules":   views,
	}
	if c := s.deps.Engine.Classifier(); c != nil {
		resp["broad_categories"] = c.ListCategories()
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleDetect analyzes a JSON text body or a multipart "file" upload
func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	requestID := getRequestID(r.Context())
	log := s.logger.WithRequestID(requestID)
	start := time.Now()

	in, status, err := s.readDetectInput(w, r)
	if err != nil {
		log.Warn("Rejected detect request", zap.Int("status", status), zap.Error(err))
		writeError(w, status, err.Error())
		return
	}
	if in.save && s.deps.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "document store is not configured")
		return
	}

	report, cached := s.analyze(r, in)
	s.analyses.Add(1)

	resp := DetectResponse{
		Success:   true,
		RequestID: requestID,
		Filename:  in.source.Filename,
		MIMEType:  in.source.MIMEType,
		FileSize:  in.source.FileSize,
		Cached:    cached,
		Report:    report,
	}

	if in.save {
		saved, err := s.deps.Store.SaveAnalysis(r.Context(), store.SaveRequest{
			Filename:    in.source.Filename,
			MIMEType:    in.source.MIMEType,
			FileSize:    in.source.FileSize,
			Content:     in.text,
			Report:      report,
			OwnerUserID: s.config.Database.OwnerUserID,
			UploadedBy:  getClientIP(r),
		})
		if err != nil {
			log.Error("Failed to save analysis", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to save analysis")
			return
		}
		resp.Saved = saved
		resp.DocumentID = saved.DocumentID
	}

	took := time.Since(start)
	resp.ProcessingMS = float64(took.Microseconds()) / 1000

	if s.deps.Hub != nil {
		event := websocket.NewDetectionEvent(requestID, report, took)
		if d, ok := event.Data.(websocket.DetectionEvent); ok {
			d.DocumentID = resp.DocumentID
			event.Data = d
		}
		s.deps.Hub.BroadcastEvent(event)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) readDetectInput(w http.ResponseWriter, r *http.Request) (detectInput, int, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		return s.readUpload(w, r)
	}

	var req DetectRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(&req); err != nil {
		return detectInput{}, http.StatusBadRequest, errors.New("invalid JSON body")
	}
	if strings.TrimSpace(req.Text) == "" {
		return detectInput{}, http.StatusBadRequest, errors.New("text is required")
	}
	return detectInput{
		source: analysis.Source{
			Filename: req.Filename,
			MIMEType: extract.MIMEPlainText,
			FileSize: int64(len(req.Text)),
		},
		text: req.Text,
		save: req.Save,
	}, http.StatusOK, nil
}

func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (detectInput, int, error) {
	limit := s.config.Server.MaxUploadSize
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return detectInput{}, http.StatusRequestEntityTooLarge, fmt.Errorf("upload exceeds %d bytes", limit)
		}
		return detectInput{}, http.StatusBadRequest, errors.New("invalid multipart form")
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return detectInput{}, http.StatusBadRequest, errors.New("file is required")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return detectInput{}, http.StatusBadRequest, errors.New("failed to read upload")
	}

	mimeType := extract.DetectMIME(header.Header.Get("Content-Type"), header.Filename)
	text, err := extract.Extract(mimeType, data)
	if err != nil {
		if errors.Is(err, extract.ErrUnsupportedType) {
			return detectInput{}, http.StatusUnsupportedMediaType, err
		}
		return detectInput{}, http.StatusUnprocessableEntity, err
	}

	save, _ := strconv.ParseBool(r.FormValue("save"))
	return detectInput{
		source: analysis.Source{
			Filename: header.Filename,
			MIMEType: mimeType,
			FileSize: int64(len(data)),
		},
		text: text,
		save: save,
	}, http.StatusOK, nil
}

// analyze returns a cached report when one exists for the text
func (s *Server) analyze(r *http.Request, in detectInput) (*analysis.Report, bool) {
	if s.deps.Cache != nil {
		if cached, ok := s.deps.Cache.Get(r.Context(), in.text); ok {
			report := *cached
			report.Source = in.source
			return &report, true
		}
	}

	report := s.deps.Engine.AnalyzeDocument(in.source, in.text)

	if s.deps.Cache != nil {
		if err := s.deps.Cache.Put(r.Context(), in.text, report); err != nil {
			s.logger.Warn("Failed to cache report", zap.Error(err))
		}
	}
	return report, false
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	c := s.deps.Engine.Classifier()
	if c == nil {
		writeError(w, http.StatusServiceUnavailable, "classifier is disabled")
		return
	}

	var req DetectRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result := c.Classify(req.Text)
	writeJSON(w, http.StatusOK, ClassifyResponse{
		Success: true,
		Summary: classifier.SummaryOf(result),
		Result:  result,
	})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}

	opts := store.ListOptions{}
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		opts.Limit = limit
	}
	if v := q.Get("owner"); v != "" {
		owner, err := strconv.ParseInt(v, 10, 64)
		if err != nil || owner <= 0 {
			writeError(w, http.StatusBadRequest, "owner must be a positive integer")
			return
		}
		opts.OwnerUserID = owner
	}

	docs, err := s.deps.Store.ListDocuments(r.Context(), opts)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"total":     len(docs),
		"documents": docs,
	})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	id, ok := documentID(w, r)
	if !ok {
		return
	}

	result, err := s.deps.Store.GetAnalysis(r.Context(), id)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"analysis": result,
	})
}

type statusRequest struct {
	Status risk.Status `json:"status"`
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	id, ok := documentID(w, r)
	if !ok {
		return
	}

	var req statusRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if !req.Status.Valid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid status %q", req.Status))
		return
	}

	if err := s.deps.Store.UpdateStatus(r.Context(), id, req.Status); err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"document_id": id,
		"status":      req.Status,
	})
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}

	var owner int64
	if v := r.URL.Query().Get("owner"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "owner must be a positive integer")
			return
		}
		owner = parsed
	}

	stats, err := s.deps.Store.Statistics(r.Context(), owner)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"statistics": stats,
	})
}

func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.deps.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "document store is not configured")
		return false
	}
	return true
}

func (s *Server) storeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	s.logger.WithRequestID(getRequestID(r.Context())).Error("Store operation failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

func documentID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid document id")
		return 0, false
	}
	return id, true
}
