package privacy

import "github.com/raaihank/doc-sentinel/internal/rules"

// Method records how a finding was accepted.
type Method string

const (
	// MethodKeyword means the value following the keyword was taken as-is.
	MethodKeyword Method = "keyword"
	// MethodKeywordRegex means the rule's validating pattern matched inside
	// the value following the keyword.
	MethodKeywordRegex Method = "keyword+regex"
)

// Finding is a single keyword-anchored detection. Start and End are offsets
// in Unicode code points; Start is the keyword occurrence, End is the end of
// the captured value.
type Finding struct {
	Category     rules.Category `json:"category"`
	Subtype      rules.Subtype  `json:"subtype"`
	Value        string         `json:"value"`
	Start        int            `json:"start"`
	End          int            `json:"end"`
	Method       Method         `json:"method"`
	KeywordFound string         `json:"keyword_found"`
}

// Label is the key used for risk weighting and risk-type mapping.
func (f Finding) Label() string {
	return string(f.Subtype)
}
