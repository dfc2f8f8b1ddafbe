package phishing

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// blockedSenderFragments mark throwaway or spoofed sender domains.
	blockedSenderFragments = []string{"temp", "fake", "spam"}

	urgencyWords = []string{"urgent", "immediate", "expire", "suspended", "limited time"}

	sensitiveRequests = []string{"password", "credit card", "ssn", "social security", "account number"}

	embeddedURLPattern = regexp.MustCompile(`https?://[a-zA-Z0-9$\-_@.&+!*(),%/?=#~;:]+`)
)

// ScoreEmail analyzes an email body and its sender address. The email scale
// is independent of the URL scale: levels band at 60/30 and flagging happens
// at 50 rather than 40.
func (s *Scorer) ScoreEmail(body, sender string) Assessment {
	score := 0
	var indicators []string
	lowerBody := strings.ToLower(body)

	if at := strings.Index(sender, "@"); at >= 0 {
		domain := strings.ToLower(sender[at+1:])
		for _, fragment := range blockedSenderFragments {
			if strings.Contains(domain, fragment) {
				score += 30
				indicators = append(indicators, "Suspicious sender domain")
				break
			}
		}
	}

	urgencyCount := 0
	for _, w := range urgencyWords {
		if strings.Contains(lowerBody, w) {
			urgencyCount++
		}
	}
	if urgencyCount >= 2 {
		score += 25
		indicators = append(indicators, "Urgency tactics detected")
	}

	if urls := embeddedURLPattern.FindAllString(body, -1); len(urls) > 0 {
		suspicious := 0
		for _, u := range urls {
			if s.ScoreURL(u).RiskScore > 40 {
				suspicious++
			}
		}
		if suspicious > 0 {
			score += 30
			indicators = append(indicators, fmt.Sprintf("%d suspicious links found", suspicious))
		}
	}

	for _, req := range sensitiveRequests {
		if strings.Contains(lowerBody, req) {
			score += 35
			indicators = append(indicators, "Requests for sensitive information")
			break
		}
	}

	score = capScore(score)
	return Assessment{
		RiskScore:  score,
		RiskLevel:  emailRiskLevel(score),
		Indicators: indicators,
		Flagged:    score >= 50,
	}
}
