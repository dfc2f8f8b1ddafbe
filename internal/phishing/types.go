// Package phishing scores URLs, page content, and emails for phishing risk
// using an additive, auditable point system.
package phishing

import "threatwatch/internal/common"

// Assessment is the result of a single scan. It is transient: returned to the
// caller and never persisted.
type Assessment struct {
	URL        string           `json:"url,omitempty"`
	RiskScore  int              `json:"risk_score"`
	RiskLevel  common.RiskLevel `json:"risk_level"`
	Indicators []string         `json:"indicators"`
	Flagged    bool             `json:"is_phishing"`
}

// riskLevel maps a URL/content score to its level band.
func riskLevel(score int) common.RiskLevel {
	switch {
	case score >= 60:
		return common.RiskHigh
	case score >= 40:
		return common.RiskMedium
	case score >= 20:
		return common.RiskLow
	}
	return common.RiskSafe
}

// emailRiskLevel uses the email scale, which bands differently from URLs.
func emailRiskLevel(score int) common.RiskLevel {
	switch {
	case score >= 60:
		return common.RiskHigh
	case score >= 30:
		return common.RiskMedium
	}
	return common.RiskLow
}

func capScore(score int) int {
	if score > 100 {
		return 100
	}
	return score
}
