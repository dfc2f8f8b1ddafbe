package phishing

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/willf/bloom"

	"threatwatch/internal/common"
)

// suspiciousTLDs carry disproportionate abuse rates.
var suspiciousTLDs = []string{".tk", ".ml", ".ga", ".cf", ".gq", ".zip"}

// shortenerDomains are link shorteners and redirect services that obfuscate
// the real destination.
var shortenerDomains = []string{
	"bit.ly", "tinyurl.com", "short.link", "t.co", "ow.ly", "goo.gl",
	"is.gd", "buff.ly", "adf.ly", "bitly.com", "lnkd.in", "rb.gy",
	"shorturl.at", "rebrand.ly", "cutt.ly", "tiny.cc", "soo.gd", "v.gd",
	"short.cm",
}

var ipHostPattern = regexp.MustCompile(`^\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}`)

const maxContentBytes = 1 << 20

// Scorer evaluates URLs and emails for phishing signals. Scans never fail:
// parse errors produce an "unknown" assessment and network errors degrade to
// structure-only scoring. Safe for concurrent use.
type Scorer struct {
	client        *http.Client
	cache         *scanCache
	shortenerSet  map[string]struct{}
	shortenerFast *bloom.BloomFilter
}

// NewScorer builds a Scorer. A nil client gets a default with a short timeout
// so a dead page can never stall a scan.
func NewScorer(client *http.Client) *Scorer {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	s := &Scorer{
		client:        client,
		cache:         newScanCache(1024, 5*time.Minute),
		shortenerSet:  make(map[string]struct{}, len(shortenerDomains)),
		shortenerFast: bloom.New(100000, 5),
	}
	for _, d := range shortenerDomains {
		s.shortenerSet[d] = struct{}{}
		s.shortenerFast.Add([]byte(d))
	}
	return s
}

// ScoreURL analyzes a URL's structure and, when the page is reachable, its
// content. Each signal contributes points independently; the total is capped
// at 100.
func (s *Scorer) ScoreURL(rawURL string) Assessment {
	if cached, ok := s.cache.get(rawURL); ok {
		return cached
	}

	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" && parsed.Scheme == "" {
		return Assessment{
			URL:        rawURL,
			RiskScore:  0,
			RiskLevel:  common.RiskUnknown,
			Indicators: []string{fmt.Sprintf("Analysis error: unparseable URL %q", rawURL)},
		}
	}

	score := 0
	var indicators []string
	host := strings.ToLower(parsed.Host)

	if ipHostPattern.MatchString(host) {
		score += 30
		indicators = append(indicators, "IP address used instead of domain")
	}

	for _, tld := range suspiciousTLDs {
		if strings.HasSuffix(host, tld) {
			score += 25
			indicators = append(indicators, "Suspicious TLD detected")
			break
		}
	}

	if len(rawURL) > 75 {
		score += 15
		indicators = append(indicators, "Unusually long URL")
	}

	if strings.Contains(rawURL, "@") {
		score += 30
		indicators = append(indicators, "@ symbol detected (possible obfuscation)")
	}

	if n := strings.Count(host, "."); n > 3 {
		score += 20
		indicators = append(indicators, fmt.Sprintf("Excessive subdomains (%d)", n))
	}

	if s.isShortener(host) {
		// Shorteners weigh a little more since they hide the target.
		score += 15
		indicators = append(indicators, "URL shortener detected")
		expandScore, expandIndicators := s.expandShortener(rawURL)
		score += expandScore
		indicators = append(indicators, expandIndicators...)
	}

	if parsed.Scheme != "https" {
		score += 10
		indicators = append(indicators, "No HTTPS encryption")
	}

	if contentScore, contentIndicators, ok := s.fetchAndScoreContent(rawURL, host); ok {
		score += contentScore
		indicators = append(indicators, contentIndicators...)
	}

	score = capScore(score)
	assessment := Assessment{
		URL:        rawURL,
		RiskScore:  score,
		RiskLevel:  riskLevel(score),
		Indicators: indicators,
		Flagged:    score >= 40,
	}
	s.cache.set(rawURL, assessment)
	return assessment
}

// isShortener reports whether host embeds a known shortener domain. The
// bloom-screened suffix walk settles the common case of the shortener being
// the host itself; the substring scan catches shorteners buried inside a
// longer host, such as bit.ly.evil.com.
func (s *Scorer) isShortener(host string) bool {
	for suffix := host; suffix != ""; {
		if s.shortenerFast.Test([]byte(suffix)) {
			if _, ok := s.shortenerSet[suffix]; ok {
				return true
			}
		}
		i := strings.Index(suffix, ".")
		if i < 0 {
			break
		}
		suffix = suffix[i+1:]
	}
	for d := range s.shortenerSet {
		if strings.Contains(host, d) {
			return true
		}
	}
	return false
}

// expandShortener follows redirects to inspect the final destination. Any
// failure is skipped silently; expansion must never fail the scan.
func (s *Scorer) expandShortener(rawURL string) (int, []string) {
	resp, err := s.client.Head(rawURL)
	if err != nil {
		slog.Debug("shortener expansion skipped", "url", rawURL, "err", err)
		return 0, nil
	}
	defer resp.Body.Close()

	final := resp.Request.URL
	if final == nil || final.String() == rawURL {
		return 0, nil
	}

	score := 0
	finalHost := strings.ToLower(final.Host)
	indicators := []string{fmt.Sprintf("Shortener expands to %s", final.Host)}

	if final.Scheme != "https" {
		score += 5
		indicators = append(indicators, "Expanded URL has no HTTPS")
	}
	if s.isShortener(finalHost) {
		score += 10
		indicators = append(indicators, "Expanded destination appears to be a shortener or suspicious domain")
	}
	return score, indicators
}

// fetchAndScoreContent retrieves the page and runs content analysis on it.
// An unreachable page contributes nothing.
func (s *Scorer) fetchAndScoreContent(rawURL, host string) (int, []string, bool) {
	resp, err := s.client.Get(rawURL)
	if err != nil {
		slog.Debug("content fetch skipped", "url", rawURL, "err", err)
		return 0, nil, false
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxContentBytes))
	if err != nil {
		return 0, nil, false
	}

	score, indicators := AnalyzeContent(string(body), host)
	return score, indicators, true
}
