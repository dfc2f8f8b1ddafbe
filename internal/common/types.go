package common

// Severity is the severity tier assigned to a threat report.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// SeverityOrder fixes the enumeration order used for tie-breaking in
// classification: the first tier with the maximum trigger count wins.
var SeverityOrder = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}

// Valid reports whether s is one of the four known tiers.
func (s Severity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

// RiskLevel labels the outcome of a URL, content, or email scan.
type RiskLevel string

const (
	RiskSafe    RiskLevel = "safe"
	RiskLow     RiskLevel = "low"
	RiskMedium  RiskLevel = "medium"
	RiskHigh    RiskLevel = "high"
	RiskUnknown RiskLevel = "unknown"
)

// ReportStatus tracks a threat report through moderation.
type ReportStatus string

const (
	StatusPending  ReportStatus = "pending"
	StatusVerified ReportStatus = "verified"
	StatusFlagged  ReportStatus = "flagged"
	StatusResolved ReportStatus = "resolved"
	StatusRejected ReportStatus = "rejected"
)
