// Package scrub detects leaked credentials in prompts and model responses.
// Findings carry masked previews only: the scanner must never re-leak what
// it found.
package scrub

import (
	"regexp"
	"sort"
	"strings"
)

// Finding is one credential hit. Masked holds a redacted preview, never
// the raw secret.
type Finding struct {
	Rule   string `json:"rule"`   // Which pattern fired
	Masked string `json:"masked"` // Redacted preview of the match
	Index  int    `json:"index"`  // Byte offset of the match
}

type rule struct {
	name string
	re   *regexp.Regexp
}

// Patterns ordered specific-first so an Anthropic key is not also reported
// as a generic bearer token prefix.
var rules = []rule{
	{"anthropic-api-key", regexp.MustCompile(`sk-ant-[A-Za-z0-9-]{32,}`)},
	{"openai-api-key", regexp.MustCompile(`sk-(?:proj-)?[A-Za-z0-9]{32,}`)},
	{"aws-access-key", regexp.MustCompile(`(?:AKIA|ASIA|AGPA|AIDA|AROA)[A-Z0-9]{16}`)},
	{"github-token", regexp.MustCompile(`(?:ghp|gho|ghu|ghs|ghr)_[A-Za-z0-9]{36,}`)},
	{"github-pat", regexp.MustCompile(`github_pat_[A-Za-z0-9]{22}_[A-Za-z0-9]{59}`)},
	{"slack-token", regexp.MustCompile(`xox[baprs]-[0-9A-Za-z-]{10,}`)},
	{"stripe-key", regexp.MustCompile(`(?:sk|pk)_(?:live|test)_[0-9a-zA-Z]{24,}`)},
	{"bearer-token", regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9._~+/=-]{20,}`)},
	{"private-key-block", regexp.MustCompile(`-----BEGIN (?:RSA |DSA |EC |OPENSSH )?PRIVATE KEY-----`)},
	{"generic-api-key", regexp.MustCompile(`(?i)(?:api[_-]?key|apikey)\s*[=:]\s*["']?[A-Za-z0-9_-]{20,}["']?`)},
}

// Scan returns every credential-looking match in text, sorted by offset.
func Scan(text string) []Finding {
	var findings []Finding
	for _, r := range rules {
		for _, loc := range r.re.FindAllStringIndex(text, -1) {
			findings = append(findings, Finding{
				Rule:   r.name,
				Masked: Mask(text[loc[0]:loc[1]]),
				Index:  loc[0],
			})
		}
	}
	sort.Slice(findings, func(i, j int) bool {
		if findings[i].Index != findings[j].Index {
			return findings[i].Index < findings[j].Index
		}
		return findings[i].Rule < findings[j].Rule
	})
	return findings
}

// Redact replaces every match in text with its masked form and returns the
// findings alongside.
func Redact(text string) (string, []Finding) {
	findings := Scan(text)
	out := text
	for _, r := range rules {
		out = r.re.ReplaceAllStringFunc(out, Mask)
	}
	return out, findings
}

// Mask redacts a secret for display. Short secrets vanish entirely; longer
// ones keep two characters on each end.
func Mask(secret string) string {
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:2] + strings.Repeat("*", len(secret)-4) + secret[len(secret)-2:]
}
