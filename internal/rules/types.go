package rules

import (
	"slices"
	"strings"

	"github.com/dlclark/regexp2"
)

// Subtype identifies a fine-grained kind of sensitive value.
type Subtype string

const (
	SubtypePhone           Subtype = "PHONE"
	SubtypeIDCard          Subtype = "ID_CARD"
	SubtypePersonalID      Subtype = "PERSONAL_ID"
	SubtypePassport        Subtype = "PASSPORT"
	SubtypeDriverLicense   Subtype = "DRIVER_LICENSE"
	SubtypeLicensePlate    Subtype = "LICENSE_PLATE"
	SubtypeTaxIDPersonal   Subtype = "TAX_ID_PERSONAL"
	SubtypeSocialInsurance Subtype = "SOCIAL_INSURANCE"
	SubtypeHealthInsurance Subtype = "HEALTH_INSURANCE"
	SubtypeTaxIDOrg        Subtype = "TAX_ID_ORG"
	SubtypeBankAccount     Subtype = "BANK_ACCOUNT"
	SubtypeSalary          Subtype = "SALARY"
	SubtypeCardNumber      Subtype = "CARD_NUMBER"
	SubtypeSecretKey       Subtype = "SECRET_KEY"
	SubtypePassword        Subtype = "PASSWORD"
	SubtypeUnknown         Subtype = "UNKNOWN"
)

var subtypeLabels = map[Subtype]string{
	SubtypePhone:           "Số điện thoại",
	SubtypeIDCard:          "Số chứng minh nhân dân",
	SubtypePersonalID:      "Số định danh cá nhân",
	SubtypePassport:        "Số hộ chiếu",
	SubtypeDriverLicense:   "Số giấy phép lái xe",
	SubtypeLicensePlate:    "Số biển số xe",
	SubtypeTaxIDPersonal:   "Số mã số thuế cá nhân",
	SubtypeSocialInsurance: "Số bảo hiểm xã hội",
	SubtypeHealthInsurance: "Số thẻ bảo hiểm y tế",
	SubtypeTaxIDOrg:        "Mã số thuế tổ chức",
	SubtypeBankAccount:     "Số tài khoản ngân hàng",
	SubtypeSalary:          "Thông tin lương thưởng",
	SubtypeCardNumber:      "Số thẻ",
	SubtypeSecretKey:       "Secret/API Key/Token",
	SubtypePassword:        "Mật khẩu",
	SubtypeUnknown:         "Không xác định",
}

// Label returns the Vietnamese display label, or the code itself for
// subtypes contributed by rule packs.
func (s Subtype) Label() string {
	if label, ok := subtypeLabels[s]; ok {
		return label
	}
	return string(s)
}

// Category groups subtypes.
type Category string

const (
	CategoryNone         Category = "NO_CATEGORY"
	CategoryInternal     Category = "INTERNAL"
	CategoryIdentifiable Category = "IDENTIFIABLE"
)

var categoryLabels = map[Category]string{
	CategoryNone:         "Không phân loại",
	CategoryInternal:     "Dữ liệu nội bộ nhạy cảm",
	CategoryIdentifiable: "Dữ liệu định danh nhạy cảm",
}

// Label returns the Vietnamese display label.
func (c Category) Label() string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return string(c)
}

// BroadCategory is a coarse label produced by the broad classifier.
type BroadCategory string

const (
	BroadPersonalSensitive BroadCategory = "PERSONAL_SENSITIVE"
	BroadInternalSensitive BroadCategory = "INTERNAL_SENSITIVE"
	BroadNotClassified     BroadCategory = "NOT_CLASSIFIED"
)

var broadLabels = map[BroadCategory]string{
	BroadPersonalSensitive: "Dữ liệu cá nhân nhạy cảm",
	BroadInternalSensitive: "Dữ liệu nội bộ nhạy cảm",
	BroadNotClassified:     "Không phân loại",
}

// Label returns the Vietnamese display label.
func (c BroadCategory) Label() string {
	if label, ok := broadLabels[c]; ok {
		return label
	}
	return string(c)
}

// Rule anchors detection of one subtype on a list of keywords. Pattern, when
// non-blank, must match inside the value captured after the keyword.
type Rule struct {
	Subtype  Subtype  `yaml:"subtype" json:"subtype"`
	Category Category `yaml:"category" json:"category"`
	Keywords []string `yaml:"keywords" json:"keywords"`
	Pattern  string   `yaml:"pattern" json:"pattern,omitempty"`

	validator  *regexp2.Regexp
	patternErr error
}

// HasPattern reports whether the rule gates findings on a validating pattern.
func (r Rule) HasPattern() bool {
	return strings.TrimSpace(r.Pattern) != ""
}

// PatternErr returns the compile error of a malformed pattern, if any.
func (r Rule) PatternErr() error {
	return r.patternErr
}

// Validate searches the pattern inside value and returns the leftmost match.
// A malformed pattern or a failed search never matches.
func (r Rule) Validate(value string) (string, bool) {
	if r.validator == nil {
		return "", false
	}
	m, err := r.validator.FindStringMatch(value)
	if err != nil || m == nil {
		return "", false
	}
	return m.String(), true
}

func (r Rule) clone() Rule {
	r.Keywords = slices.Clone(r.Keywords)
	return r
}

// BroadDataType is an entry of the broad classification taxonomy. It is
// unrelated to Rule and the two are never reconciled.
type BroadDataType struct {
	Name        string          `yaml:"name" json:"name"`
	Categories  []BroadCategory `yaml:"categories" json:"categories"`
	Keywords    []string        `yaml:"keywords" json:"keywords"`
	Patterns    []string        `yaml:"patterns" json:"patterns,omitempty"`
	Description string          `yaml:"description" json:"description"`

	compiled []*regexp2.Regexp
}

// FindPatterns returns every non-overlapping match of every pattern, in
// pattern order. Matching is case-insensitive; malformed patterns are skipped.
func (b BroadDataType) FindPatterns(text string) []string {
	var out []string
	for _, re := range b.compiled {
		if re == nil {
			continue
		}
		m, err := re.FindStringMatch(text)
		for err == nil && m != nil {
			out = append(out, m.String())
			m, err = re.FindNextMatch(m)
		}
	}
	return out
}

func (b BroadDataType) clone() BroadDataType {
	b.Categories = slices.Clone(b.Categories)
	b.Keywords = slices.Clone(b.Keywords)
	b.Patterns = slices.Clone(b.Patterns)
	b.compiled = slices.Clone(b.compiled)
	return b
}
