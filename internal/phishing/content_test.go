package phishing

import (
	"strings"
	"testing"

	"threatwatch/internal/common"
)

func TestAnalyzeContentPasswordForm(t *testing.T) {
	html := `<html><head><meta name="description" content="x"></head>
	<body><form action="/l"><input type="text"><input type="password"></form></body></html>`

	score, indicators := AnalyzeContent(html, "example.com")
	if score != 15 {
		t.Errorf("expected 15 for password form, got %d (%v)", score, indicators)
	}
}

func TestAnalyzeContentKeywordDensity(t *testing.T) {
	html := `<html><head><meta name="description" content="x"></head>
	<body>Please verify your account urgently: suspended billing, confirm password</body></html>`

	score, indicators := AnalyzeContent(html, "example.com")
	if score != 20 {
		t.Errorf("expected 20 for keyword density, got %d (%v)", score, indicators)
	}
}

func TestAnalyzeContentExternalScripts(t *testing.T) {
	var b strings.Builder
	b.WriteString(`<html><head><meta name="description" content="x">`)
	for i := 0; i < 6; i++ {
		b.WriteString(`<script src="http://cdn.elsewhere.net/a.js"></script>`)
	}
	b.WriteString(`<script src="/local.js"></script></head><body></body></html>`)

	score, _ := AnalyzeContent(b.String(), "example.com")
	if score != 10 {
		t.Errorf("expected 10 for external scripts, got %d", score)
	}
}

func TestAnalyzeContentMissingMeta(t *testing.T) {
	score, indicators := AnalyzeContent("<html><body>hello</body></html>", "example.com")
	if score != 5 {
		t.Errorf("expected 5 for missing meta description, got %d (%v)", score, indicators)
	}
}

func TestAnalyzeContentGarbage(t *testing.T) {
	// goquery tolerates broken markup; the result must still be a valid
	// zero-or-more contribution, never an error.
	score, _ := AnalyzeContent("<<<%%% not html", "example.com")
	if score < 0 || score > 50 {
		t.Errorf("score %d outside contribution range", score)
	}
}

func TestScoreContentStandalone(t *testing.T) {
	a := ScoreContent(`<html><body><form><input type="password"></form>
	verify account suspended urgent billing</body></html>`, "upload.html")

	// Password form +15, keywords +20, missing meta +5.
	if a.RiskScore != 40 {
		t.Errorf("expected 40, got %d (%v)", a.RiskScore, a.Indicators)
	}
	if a.RiskLevel != common.RiskMedium || !a.Flagged {
		t.Errorf("expected flagged medium, got %s flagged=%v", a.RiskLevel, a.Flagged)
	}
}
