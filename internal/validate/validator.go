package validate

import (
	"fmt"
	"strings"

	"github.com/veridex/veridex/internal/extract"
	"github.com/veridex/veridex/internal/model"
)

// DefaultMinEvidenceLen is the FACT evidence floor in bytes, measured on
// the whitespace-trimmed first-span slice.
const DefaultMinEvidenceLen = 10

// Policy tunes the discipline rules. Zero-valued fields fall back to the
// defaults, so a partially filled policy from config is safe.
type Policy struct {
	MinEvidenceLen int
	HedgeWords     []string
}

// DefaultPolicy returns the built-in discipline policy. The hedge list
// deliberately excludes bare "so": an inference reading "So." carries no
// epistemic signal and must be flagged.
func DefaultPolicy() *Policy {
	return &Policy{
		MinEvidenceLen: DefaultMinEvidenceLen,
		HedgeWords: []string{
			"therefore", "thus", "hence", "implies", "imply", "suggests",
			"suggest", "indicates", "indicate", "likely", "probably",
			"presumably", "may", "might", "could", "appears", "appear",
			"because", "consequently", "follows", "seems", "perhaps",
			"possibly",
		},
	}
}

// PolicyFromConfig builds a policy from the user configuration, filling
// anything unset from the defaults.
func PolicyFromConfig(cfg model.ValidatorConfig) *Policy {
	policy := DefaultPolicy()
	if cfg.MinEvidenceLen > 0 {
		policy.MinEvidenceLen = cfg.MinEvidenceLen
	}
	if len(cfg.HedgeWords) > 0 {
		policy.HedgeWords = cfg.HedgeWords
	}
	return policy
}

// Validator checks a claim ledger against the source text it was tagged
// from. Validation is pure and total: it reports violations as data and
// never returns an error, whatever the ledger contains.
type Validator struct {
	policy       *Policy
	hedgeTokens  map[string]bool
	hedgePhrases []string
}

// NewValidator creates a validator. A nil policy uses DefaultPolicy.
func NewValidator(policy *Policy) *Validator {
	if policy == nil {
		policy = DefaultPolicy()
	}
	if policy.MinEvidenceLen <= 0 {
		policy.MinEvidenceLen = DefaultMinEvidenceLen
	}
	if len(policy.HedgeWords) == 0 {
		policy.HedgeWords = DefaultPolicy().HedgeWords
	}

	v := &Validator{
		policy:      policy,
		hedgeTokens: make(map[string]bool),
	}
	for _, w := range policy.HedgeWords {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		if strings.ContainsRune(w, ' ') {
			v.hedgePhrases = append(v.hedgePhrases, w)
		} else {
			v.hedgeTokens[w] = true
		}
	}
	return v
}

// Validate applies every rule to every claim. A single claim can accrue
// several violations. Passed is true exactly when no rule fired.
func (v *Validator) Validate(ledger model.Ledger, source string) model.ValidationResult {
	violations := make([]model.ValidationViolation, 0)
	add := func(claimID, rule, detail string) {
		violations = append(violations, model.ValidationViolation{
			ClaimID: claimID,
			Rule:    rule,
			Detail:  detail,
		})
	}

	for _, claim := range ledger.Claims {
		if claim.ID == "" {
			add(claim.ID, model.RuleMissingID, "claim has no id")
		}
		if !model.ValidClaimType(claim.Type) {
			add(claim.ID, model.RuleInvalidType, fmt.Sprintf("unknown claim type %q", string(claim.Type)))
		}

		if len(claim.SpanRefs) == 0 {
			add(claim.ID, model.RuleNoSpanRef, "claim has no span refs")
			continue
		}

		for i, span := range claim.SpanRefs {
			if !spanValid(span, len(source)) {
				add(claim.ID, model.RuleInvalidSpan,
					fmt.Sprintf("span %d is [%d,%d) but source is %d bytes", i, span.Start, span.End, len(source)))
			}
		}

		// Evidence rules read the first-span slice; an invalid first span
		// was already reported above and cannot be sliced.
		first := claim.SpanRefs[0]
		if !spanValid(first, len(source)) {
			continue
		}
		slice := source[first.Start:first.End]

		switch claim.Type {
		case model.ClaimTypeFact:
			trimmed := strings.TrimSpace(slice)
			if len(trimmed) < v.policy.MinEvidenceLen {
				add(claim.ID, model.RuleFactWithoutEvidence,
					fmt.Sprintf("evidence %q is %d bytes, need at least %d", trimmed, len(trimmed), v.policy.MinEvidenceLen))
			}
		case model.ClaimTypeInference:
			if !v.hasHedge(slice) {
				add(claim.ID, model.RuleInferenceLaundering,
					fmt.Sprintf("no hedge token in %q", slice))
			}
		}
	}

	return model.ValidationResult{
		Passed:     len(violations) == 0,
		Violations: violations,
	}
}

func spanValid(s model.Span, sourceLen int) bool {
	return s.Start >= 0 && s.End <= sourceLen && s.Start < s.End
}

func (v *Validator) hasHedge(slice string) bool {
	lower := strings.ToLower(slice)
	for tok := range extract.TokenSet(slice) {
		if v.hedgeTokens[tok] {
			return true
		}
	}
	for _, phrase := range v.hedgePhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
