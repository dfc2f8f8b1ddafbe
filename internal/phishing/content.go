package phishing

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// suspiciousKeywords is the phishing term lexicon used for keyword density.
var suspiciousKeywords = []string{
	"verify", "suspended", "urgent", "click here", "confirm", "password",
	"account", "security", "update", "billing", "paypal", "bank", "prize",
}

// AnalyzeContent scores page or file text for phishing signals. pageHost is
// the host the content was served from, used to tell external script
// includes apart from same-origin ones. Unparseable markup degrades to a
// zero contribution.
func AnalyzeContent(html, pageHost string) (int, []string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return 0, nil
	}

	score := 0
	var indicators []string
	text := strings.ToLower(doc.Text())

	keywordCount := 0
	for _, kw := range suspiciousKeywords {
		if strings.Contains(text, kw) {
			keywordCount++
		}
	}
	if keywordCount > 3 {
		score += 20
		indicators = append(indicators, fmt.Sprintf("Multiple suspicious keywords (%d)", keywordCount))
	}

	// One password form is enough; further matches add nothing.
	if doc.Find(`form input[type="password"]`).Length() > 0 {
		score += 15
		indicators = append(indicators, "Password input field detected")
	}

	externalScripts := 0
	doc.Find("script[src]").Each(func(_ int, sel *goquery.Selection) {
		src, _ := sel.Attr("src")
		if u, err := url.Parse(src); err == nil && u.Host != "" && !strings.EqualFold(u.Host, pageHost) {
			externalScripts++
		}
	})
	if externalScripts > 5 {
		score += 10
		indicators = append(indicators, "Multiple external scripts")
	}

	if doc.Find(`meta[name="description"]`).Length() == 0 {
		score += 5
		indicators = append(indicators, "Missing meta description")
	}

	return score, indicators
}

// ScoreContent runs content analysis standalone, for uploaded files or raw
// text, and wraps the result in a full assessment on the URL scale.
func ScoreContent(content, name string) Assessment {
	score, indicators := AnalyzeContent(content, name)
	score = capScore(score)
	return Assessment{
		RiskScore:  score,
		RiskLevel:  riskLevel(score),
		Indicators: indicators,
		Flagged:    score >= 40,
	}
}
