// Package classify assigns a severity tier and ATT&CK technique mapping to
// free-text threat descriptions using a transparent keyword rule engine.
package classify

import (
	"strings"

	"threatwatch/internal/common"
	"threatwatch/internal/indicator"
)

// Result is the outcome of classifying a single report description. It is
// immutable once computed.
type Result struct {
	PredictedSeverity common.Severity `json:"predicted_severity"`
	Confidence        float64         `json:"confidence"`
	TechniqueIDs      []string        `json:"technique_ids"`
	Indicators        indicator.Set   `json:"indicators"`
}

// severityLexicon maps each tier to its trigger phrases. Matching is
// case-insensitive substring containment.
var severityLexicon = map[common.Severity][]string{
	common.SeverityCritical: {"ransomware", "breach", "zero-day", "exploit", "compromised", "stolen credentials"},
	common.SeverityHigh:     {"malware", "trojan", "backdoor", "privilege escalation", "lateral movement"},
	common.SeverityMedium:   {"phishing", "suspicious", "scan", "probe", "attempted"},
	common.SeverityLow:      {"informational", "alert", "notification", "warning"},
}

// mitreTaxonomy maps threat types to MITRE ATT&CK technique IDs. Unknown
// types map to nothing rather than erroring.
var mitreTaxonomy = map[string][]string{
	"malware":       {"T1055", "T1059", "T1204"},
	"phishing":      {"T1566", "T1598"},
	"ransomware":    {"T1486", "T1490"},
	"ddos":          {"T1498", "T1499"},
	"data_breach":   {"T1567", "T1041"},
	"sql_injection": {"T1190"},
	"xss":           {"T1189"},
}

// Classify scores description against the severity lexicon and maps
// threatType to its technique taxonomy. Confidence grows with the total
// trigger count and is capped at 0.95; with no triggers at all the severity
// defaults to medium at the 0.6 floor.
func Classify(description, threatType string) Result {
	lower := strings.ToLower(description)

	counts := make(map[common.Severity]int, len(severityLexicon))
	total := 0
	for tier, phrases := range severityLexicon {
		for _, phrase := range phrases {
			n := strings.Count(lower, phrase)
			counts[tier] += n
			total += n
		}
	}

	// Stable argmax over the fixed tier order: the first tier holding the
	// maximum count wins ties.
	predicted := common.SeverityMedium
	if total > 0 {
		best := -1
		for _, tier := range common.SeverityOrder {
			if counts[tier] > best {
				best = counts[tier]
				predicted = tier
			}
		}
	}

	confidence := 0.6 + float64(total)*0.1
	if confidence > 0.95 {
		confidence = 0.95
	}

	return Result{
		PredictedSeverity: predicted,
		Confidence:        confidence,
		TechniqueIDs:      Techniques(threatType),
		Indicators:        indicator.Extract(description),
	}
}

// Techniques returns the ATT&CK technique IDs for a threat type, or nil when
// the type is not in the taxonomy.
func Techniques(threatType string) []string {
	return mitreTaxonomy[threatType]
}
