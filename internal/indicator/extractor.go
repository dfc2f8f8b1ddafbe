// Package indicator extracts indicators of compromise from free text.
package indicator

import "regexp"

// Set holds the extracted indicators, one slice per category. Each slice is
// deduplicated in first-seen order. Categories are matched independently, so a
// token may legitimately appear in more than one of them.
type Set struct {
	IPs     []string `json:"ips"`
	Domains []string `json:"domains"`
	Hashes  []string `json:"hashes"`
}

var (
	ipPattern     = regexp.MustCompile(`\b(?:[0-9]{1,3}\.){3}[0-9]{1,3}\b`)
	domainPattern = regexp.MustCompile(`\b(?:[a-zA-Z0-9-]+\.)+[a-zA-Z]{2,}\b`)

	// MD5, SHA1, SHA256 candidates by length.
	hashPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b[a-fA-F0-9]{32}\b`),
		regexp.MustCompile(`\b[a-fA-F0-9]{40}\b`),
		regexp.MustCompile(`\b[a-fA-F0-9]{64}\b`),
	}
)

// Extract scans text for IPv4 addresses, domain-like tokens, and hex hash
// candidates. It is a pure function with no side effects.
func Extract(text string) Set {
	set := Set{
		IPs:     dedupe(ipPattern.FindAllString(text, -1)),
		Domains: dedupe(domainPattern.FindAllString(text, -1)),
	}

	var hashes []string
	for _, p := range hashPatterns {
		hashes = append(hashes, p.FindAllString(text, -1)...)
	}
	set.Hashes = dedupe(hashes)

	return set
}

// Total returns the number of indicators across all categories.
func (s Set) Total() int {
	return len(s.IPs) + len(s.Domains) + len(s.Hashes)
}

func dedupe(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
