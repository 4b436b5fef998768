package risk

// Level is the qualitative bucket of an aggregate risk score.
type Level string

const (
	LevelNone     Level = "none"
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

// Levels lists every level from lowest to highest.
var Levels = []Level{LevelNone, LevelLow, LevelMedium, LevelHigh, LevelCritical}

// Type is the coarse risk classification of a single finding.
type Type string

const (
	TypePersonal       Type = "PERSONAL_DATA"
	TypeFinancial      Type = "FINANCIAL_DATA"
	TypeIdentity       Type = "IDENTITY_DATA"
	TypeConfidential   Type = "CONFIDENTIAL_DATA"
	TypeAuthentication Type = "AUTHENTICATION_DATA"
	TypeLocation       Type = "LOCATION_DATA"
	TypeHealth         Type = "HEALTH_DATA"
	TypePolitical      Type = "POLITICAL_DATA"
	TypeCriminal       Type = "CRIMINAL_DATA"
)

var typeLabels = map[Type]string{
	TypePersonal:       "Dữ liệu cá nhân",
	TypeFinancial:      "Dữ liệu tài chính",
	TypeIdentity:       "Dữ liệu định danh",
	TypeConfidential:   "Dữ liệu bí mật",
	TypeAuthentication: "Dữ liệu xác thực",
	TypeLocation:       "Dữ liệu vị trí",
	TypeHealth:         "Dữ liệu sức khỏe",
	TypePolitical:      "Dữ liệu chính trị",
	TypeCriminal:       "Dữ liệu tội phạm",
}

// Label returns the display label, or the code for unknown types.
func (t Type) Label() string {
	if l, ok := typeLabels[t]; ok {
		return l
	}
	return string(t)
}

// Valid reports whether t is a known risk type.
func (t Type) Valid() bool {
	_, ok := typeLabels[t]
	return ok
}

// Status is the lifecycle state of an analyzed document.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusError      Status = "ERROR"
	StatusArchived   Status = "ARCHIVED"
)

// Valid reports whether s is a known document status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusError, StatusArchived:
		return true
	}
	return false
}

// Assessment is the scorer output for one document.
type Assessment struct {
	Score  float64 `json:"score"`
	Level  Level   `json:"level"`
	Status Status  `json:"status"`
	// RiskTypeByFinding maps each distinct finding label to its risk type.
	RiskTypeByFinding map[string]Type `json:"risk_type_by_finding"`
	// PerFinding holds the risk type of each finding, in input order.
	PerFinding []Type `json:"-"`
}
