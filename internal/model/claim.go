package model

import "time"

// ClaimType categorizes the epistemic nature of a claim
type ClaimType string

const (
	ClaimTypeFact      ClaimType = "FACT"      // Checkable statement about the world
	ClaimTypeInference ClaimType = "INFERENCE" // Conclusion drawn from other statements
	ClaimTypeAssertion ClaimType = "ASSERTION" // Declaration offered without support
	ClaimTypeOpinion   ClaimType = "OPINION"   // First-person stance or preference
)

// ValidClaimType reports whether t is one of the closed claim types.
func ValidClaimType(t ClaimType) bool {
	switch t {
	case ClaimTypeFact, ClaimTypeInference, ClaimTypeAssertion, ClaimTypeOpinion:
		return true
	}
	return false
}

// Span is a half-open byte range [Start, End) into the source text.
type Span struct {
	Start int `json:"start"` // First byte of the referenced region
	End   int `json:"end"`   // One past the last byte
}

// Claim represents a single epistemic claim extracted from response text
type Claim struct {
	ID       string    `json:"id"`        // Unique claim identifier
	Type     ClaimType `json:"type"`      // FACT, INFERENCE, ASSERTION, or OPINION
	Text     string    `json:"text"`      // The claim sentence, trimmed
	SpanRefs []Span    `json:"span_refs"` // Byte spans locating the claim in the source
}

// Ledger is the full set of claims tagged in one pass over a source text
type Ledger struct {
	TaggedAt      time.Time `json:"tagged_at"`      // When tagging occurred
	SentenceCount int       `json:"sentence_count"` // Sentences considered
	Claims        []Claim   `json:"claims"`         // Claims in sentence order
}

// Validation rule identifiers. The set is closed; validators emit only these.
const (
	RuleMissingID           = "MISSING_ID"
	RuleInvalidType         = "INVALID_TYPE"
	RuleNoSpanRef           = "NO_SPAN_REF"
	RuleInvalidSpan         = "INVALID_SPAN"
	RuleFactWithoutEvidence = "FACT_WITHOUT_EVIDENCE"
	RuleInferenceLaundering = "INFERENCE_LAUNDERING"
)

// ValidationViolation records one discipline failure for one claim
type ValidationViolation struct {
	ClaimID string `json:"claimId"` // Offending claim (may be empty when the ID itself is missing)
	Rule    string `json:"rule"`    // One of the Rule* identifiers
	Detail  string `json:"detail"`  // Human-readable specifics
}

// ValidationResult is the outcome of validating a ledger against its source
type ValidationResult struct {
	Passed     bool                  `json:"passed"`     // True iff Violations is empty
	Violations []ValidationViolation `json:"violations"` // All failures, never nil
}
