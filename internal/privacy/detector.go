package privacy

import (
	"fmt"

	"github.com/raaihank/doc-sentinel/internal/rules"
	"go.uber.org/zap"
)

// Detector extracts keyword-anchored findings from text. It is immutable
// after New and safe for concurrent use.
type Detector struct {
	rules  []preparedRule
	logger *zap.Logger
}

type preparedRule struct {
	rule     rules.Rule
	keywords []preparedKeyword
}

type preparedKeyword struct {
	literal string
	lower   []rune
}

// New creates a detector over every rule of table.
func New(table *rules.Table, log *zap.Logger) *Detector {
	d, _ := NewWithSubtypes(table, []string{"all"}, log)
	return d
}

// NewWithSubtypes creates a detector restricted to the named subtypes. The
// name "all" enables every rule. Unknown names are an error.
func NewWithSubtypes(table *rules.Table, subtypes []string, log *zap.Logger) (*Detector, error) {
	if log == nil {
		log = zap.NewNop()
	}

	enabled, err := resolveSubtypes(table, subtypes)
	if err != nil {
		return nil, fmt.Errorf("failed to configure detector: %w", err)
	}

	d := &Detector{logger: log}
	for _, r := range table.Rules() {
		if !enabled[r.Subtype] {
			continue
		}
		if err := r.PatternErr(); err != nil {
			log.Warn("Validating pattern does not compile, rule will never match",
				zap.String("subtype", string(r.Subtype)),
				zap.Error(err),
			)
		}

		pr := preparedRule{rule: r, keywords: make([]preparedKeyword, 0, len(r.Keywords))}
		for _, kw := range r.Keywords {
			pr.keywords = append(pr.keywords, preparedKeyword{
				literal: kw,
				lower:   lowerRunes([]rune(kw)),
			})
		}
		d.rules = append(d.rules, pr)
	}

	log.Info("Privacy detector initialized",
		zap.Int("total_rules", len(table.Rules())),
		zap.Int("enabled_rules", len(d.rules)),
	)

	return d, nil
}

func resolveSubtypes(table *rules.Table, names []string) (map[rules.Subtype]bool, error) {
	all := table.Rules()
	enabled := make(map[rules.Subtype]bool, len(all))

	for _, name := range names {
		if name == "all" {
			for _, r := range all {
				enabled[r.Subtype] = true
			}
			continue
		}

		if _, ok := table.Rule(rules.Subtype(name)); !ok {
			return nil, fmt.Errorf("unknown subtype: %s", name)
		}
		enabled[rules.Subtype(name)] = true
	}

	return enabled, nil
}

// Detect scans text and returns findings grouped by rule declaration order,
// then keyword declaration order, then ascending start offset. Occurrences
// of a keyword may overlap: the search resumes one rune after each hit.
func (d *Detector) Detect(text string) []Finding {
	findings := make([]Finding, 0)
	if text == "" {
		return findings
	}

	runes := []rune(text)
	lower := lowerRunes(runes)

	for _, pr := range d.rules {
		for _, kw := range pr.keywords {
			for pos := indexFrom(lower, kw.lower, 0); pos >= 0; pos = indexFrom(lower, kw.lower, pos+1) {
				if f, ok := d.match(pr.rule, kw, runes, pos); ok {
					findings = append(findings, f)
				}
			}
		}
	}

	return findings
}

// match builds the finding for one keyword occurrence at pos. It reports
// false when the rule's validating pattern rejects the captured value.
func (d *Detector) match(rule rules.Rule, kw preparedKeyword, text []rune, pos int) (Finding, bool) {
	keywordEnd := pos + len(kw.lower)

	f := Finding{
		Category:     rule.Category,
		Subtype:      rule.Subtype,
		Start:        pos,
		KeywordFound: kw.literal,
	}

	captured, ok := captureValue(text, keywordEnd)
	if !ok {
		f.Value = string(text[pos:keywordEnd])
		f.End = keywordEnd
		f.Method = MethodKeyword
		return f, true
	}

	f.End = captured.end

	if !rule.HasPattern() {
		f.Value = captured.value
		f.Method = MethodKeyword
		return f, true
	}

	refined, ok := rule.Validate(captured.value)
	if !ok {
		return Finding{}, false
	}
	refined = collapseSpace(refined)
	if refined == "" {
		return Finding{}, false
	}

	f.Value = refined
	f.Method = MethodKeywordRegex
	return f, true
}

// EnabledSubtypes returns the subtypes scanned by this detector, in order.
func (d *Detector) EnabledSubtypes() []rules.Subtype {
	out := make([]rules.Subtype, 0, len(d.rules))
	for _, pr := range d.rules {
		out = append(out, pr.rule.Subtype)
	}
	return out
}
