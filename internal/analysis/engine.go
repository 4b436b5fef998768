// Package analysis runs the detector, the broad classifier and the risk
// scorer over a text and shapes the combined result.
package analysis

import (
	"fmt"
	"unicode/utf8"

	"github.com/raaihank/doc-sentinel/internal/classifier"
	"github.com/raaihank/doc-sentinel/internal/locator"
	"github.com/raaihank/doc-sentinel/internal/privacy"
	"github.com/raaihank/doc-sentinel/internal/risk"
	"github.com/raaihank/doc-sentinel/internal/rules"
	"go.uber.org/zap"
)

// Engine is immutable after construction and safe for concurrent use.
type Engine struct {
	detector   *privacy.Detector
	classifier *classifier.Classifier
	scorer     *risk.Scorer
	opts       Options
	logger     *zap.Logger
}

// NewEngine wires the stages enabled in opts over table. A nil scorer uses
// risk.DefaultScorer.
func NewEngine(table *rules.Table, scorer *risk.Scorer, opts Options, log *zap.Logger) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if scorer == nil {
		scorer = risk.DefaultScorer
	}
	if len(opts.Subtypes) == 0 {
		opts.Subtypes = []string{"all"}
	}
	if opts.TruncateLength <= 0 {
		opts.TruncateLength = DefaultTruncateLength
	}

	e := &Engine{scorer: scorer, opts: opts, logger: log}

	if opts.EnableDetector {
		d, err := privacy.NewWithSubtypes(table, opts.Subtypes, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create detector: %w", err)
		}
		e.detector = d
	}
	if opts.EnableClassifier {
		e.classifier = classifier.New(table, log)
	}

	log.Info("Analysis engine initialized",
		zap.Bool("detector", opts.EnableDetector),
		zap.Bool("classifier", opts.EnableClassifier),
	)

	return e, nil
}

// Classifier exposes the broad classifier, or nil when disabled.
func (e *Engine) Classifier() *classifier.Classifier {
	return e.classifier
}

// Analyze runs every enabled stage over text.
func (e *Engine) Analyze(text string) *Report {
	return e.AnalyzeDocument(Source{}, text)
}

// AnalyzeDocument is Analyze with source metadata attached to the report.
func (e *Engine) AnalyzeDocument(src Source, text string) *Report {
	matches := []privacy.Finding{}
	if e.detector != nil {
		matches = e.detector.Detect(text)
	}

	assessment := e.scorer.Assess(matches)
	r := &Report{
		Source:          src,
		ContentLength:   utf8.RuneCountInString(text),
		TotalMatches:    len(matches),
		Matches:         matches,
		CategoriesFound: []rules.Category{},
		SubtypesFound:   []rules.Subtype{},
		Risk: RiskSummary{
			Score:             assessment.Score,
			Level:             assessment.Level,
			Status:            assessment.Status,
			RiskTypeByFinding: assessment.RiskTypeByFinding,
		},
		RiskTypes:      assessment.PerFinding,
		TruncateLength: e.opts.TruncateLength,
	}

	seenCat := make(map[rules.Category]bool)
	seenSub := make(map[rules.Subtype]bool)
	for _, m := range matches {
		if !seenCat[m.Category] {
			seenCat[m.Category] = true
			r.CategoriesFound = append(r.CategoriesFound, m.Category)
		}
		if !seenSub[m.Subtype] {
			seenSub[m.Subtype] = true
			r.SubtypesFound = append(r.SubtypesFound, m.Subtype)
		}
	}

	if e.classifier != nil {
		res := e.classifier.Classify(text)
		r.Classification = &Classification{Result: res, Summary: classifier.SummaryOf(res)}
	}

	e.logDetection(src, text, r)
	return r
}

// logDetection never records values or line text, only where findings are.
func (e *Engine) logDetection(src Source, text string, r *Report) {
	e.logger.Info("Document analyzed",
		zap.String("filename", src.Filename),
		zap.String("mime_type", src.MIMEType),
		zap.Int64("file_size", src.FileSize),
		zap.Int("content_length", r.ContentLength),
		zap.Int("total_matches", r.TotalMatches),
		zap.Float64("risk_score", r.Risk.Score),
		zap.String("risk_level", string(r.Risk.Level)),
	)

	if !e.logger.Core().Enabled(zap.DebugLevel) {
		return
	}
	for i, m := range r.Matches {
		pos := locator.Locate(text, m.Start)
		e.logger.Debug("Sensitive data detected",
			zap.Int("index", i+1),
			zap.String("category", string(m.Category)),
			zap.String("subtype", string(m.Subtype)),
			zap.String("position", fmt.Sprintf("%d-%d", m.Start, m.End)),
			zap.Int("line", pos.Line),
			zap.Int("column", pos.Column),
			zap.String("method", string(m.Method)),
			zap.String("keyword", m.KeywordFound),
		)
	}
}
