package extract

import (
	"regexp"
	"strings"

	"github.com/veridex/veridex/internal/model"
)

// Rules holds the marker vocabularies that drive claim typing. Matching is
// case-insensitive; single-word markers match whole tokens, multi-word
// markers match as phrases.
type Rules struct {
	OpinionMarkers   []string `yaml:"opinion_markers"`
	InferenceMarkers []string `yaml:"inference_markers"`
	FactVerbs        []string `yaml:"fact_verbs"`
}

// DefaultRules returns the built-in marker vocabularies.
func DefaultRules() *Rules {
	return &Rules{
		OpinionMarkers: []string{
			"i think", "i believe", "i feel", "i suspect", "i would argue",
			"in my opinion", "my view", "personally", "it seems to me",
			"i prefer",
		},
		InferenceMarkers: []string{
			"therefore", "thus", "hence", "implies", "imply", "suggests",
			"suggest", "indicates", "indicate", "likely", "probably",
			"presumably", "consequently", "follows", "appears", "appear",
			"may", "might", "could", "because",
		},
		FactVerbs: []string{
			"is", "are", "was", "were", "has", "have", "had",
			"contains", "consists", "equals", "measures", "comprises",
		},
	}
}

var (
	yearRe    = regexp.MustCompile(`\b(?:1[89]|20)\d{2}\b`)
	numberRe  = regexp.MustCompile(`\d`)
	subjectRe = regexp.MustCompile(`(?i)^(?:the|an?)\s+\w+\s+\w+(?:s|ed)\b`)
	tokenRe   = regexp.MustCompile(`[a-z0-9']+`)
)

// classifier applies the marker rules with fixed precedence:
// OPINION, then INFERENCE, then FACT, else ASSERTION.
type classifier struct {
	rules *Rules
}

func newClassifier(rules *Rules) *classifier {
	if rules == nil {
		rules = DefaultRules()
	}
	return &classifier{rules: rules}
}

// Classify assigns a claim type to one sentence.
func (c *classifier) Classify(sentence string) model.ClaimType {
	lower := strings.ToLower(sentence)
	toks := tokenSet(lower)

	if matchAny(lower, toks, c.rules.OpinionMarkers) {
		return model.ClaimTypeOpinion
	}
	if matchAny(lower, toks, c.rules.InferenceMarkers) {
		return model.ClaimTypeInference
	}
	if c.looksFactual(lower, toks) {
		return model.ClaimTypeFact
	}
	return model.ClaimTypeAssertion
}

// looksFactual checks the declarative cues: a copular or measuring verb, a
// year or other numeral, or a plain "The X does" subject-verb opening.
func (c *classifier) looksFactual(lower string, toks map[string]bool) bool {
	for _, verb := range c.rules.FactVerbs {
		if toks[verb] {
			return true
		}
	}
	if yearRe.MatchString(lower) || numberRe.MatchString(lower) {
		return true
	}
	return subjectRe.MatchString(lower)
}

// matchAny reports whether any marker is present: phrase markers by
// substring, single-word markers by whole token.
func matchAny(lower string, toks map[string]bool, markers []string) bool {
	for _, m := range markers {
		if strings.ContainsRune(m, ' ') {
			if strings.Contains(lower, m) {
				return true
			}
			continue
		}
		if toks[m] {
			return true
		}
	}
	return false
}

// TokenSet lowercases text and returns the set of its word tokens. The
// validator shares this tokenization so hedge checks and claim typing agree
// on word boundaries.
func TokenSet(text string) map[string]bool {
	return tokenSet(strings.ToLower(text))
}

func tokenSet(lower string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range tokenRe.FindAllString(lower, -1) {
		set[tok] = true
	}
	return set
}
