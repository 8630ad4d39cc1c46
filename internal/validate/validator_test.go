package validate

import (
	"testing"
	"time"

	"github.com/veridex/veridex/internal/extract"
	"github.com/veridex/veridex/internal/model"
)

func ledgerWith(claims ...model.Claim) model.Ledger {
	return model.Ledger{
		TaggedAt:      time.Now().UTC(),
		SentenceCount: len(claims),
		Claims:        claims,
	}
}

func rulesFired(result model.ValidationResult) map[string]int {
	fired := make(map[string]int)
	for _, v := range result.Violations {
		fired[v.Rule]++
	}
	return fired
}

func TestValidate_TaggedTextPasses(t *testing.T) {
	source := "The earth orbits the sun. This implies gravity is real."
	ledger := extract.NewTagger(nil).Tag(source)

	result := NewValidator(nil).Validate(ledger, source)
	if !result.Passed {
		t.Errorf("Expected pass, got violations: %+v", result.Violations)
	}
	if len(result.Violations) != 0 {
		t.Errorf("Expected no violations, got %d", len(result.Violations))
	}
}

func TestValidate_EmptyLedgerPasses(t *testing.T) {
	result := NewValidator(nil).Validate(ledgerWith(), "")
	if !result.Passed {
		t.Errorf("Empty ledger should pass, got %+v", result.Violations)
	}
	if result.Violations == nil {
		t.Error("Violations should be empty, not nil")
	}
}

func TestValidate_MissingID(t *testing.T) {
	source := "The earth orbits the sun."
	claim := model.Claim{
		ID:       "",
		Type:     model.ClaimTypeFact,
		Text:     source,
		SpanRefs: []model.Span{{Start: 0, End: len(source)}},
	}

	result := NewValidator(nil).Validate(ledgerWith(claim), source)
	if result.Passed {
		t.Fatal("Expected failure")
	}
	if rulesFired(result)[model.RuleMissingID] != 1 {
		t.Errorf("Expected MISSING_ID, got %+v", result.Violations)
	}
}

func TestValidate_InvalidType(t *testing.T) {
	source := "Some sentence that is long enough."
	claim := model.Claim{
		ID:       "c1",
		Type:     model.ClaimType("GUESS"),
		Text:     source,
		SpanRefs: []model.Span{{Start: 0, End: len(source)}},
	}

	result := NewValidator(nil).Validate(ledgerWith(claim), source)
	if rulesFired(result)[model.RuleInvalidType] != 1 {
		t.Errorf("Expected INVALID_TYPE, got %+v", result.Violations)
	}
}

func TestValidate_NoSpanRef(t *testing.T) {
	claim := model.Claim{ID: "c1", Type: model.ClaimTypeAssertion, Text: "anything"}

	result := NewValidator(nil).Validate(ledgerWith(claim), "anything")
	if rulesFired(result)[model.RuleNoSpanRef] != 1 {
		t.Errorf("Expected NO_SPAN_REF, got %+v", result.Violations)
	}
}

func TestValidate_InvalidSpanBounds(t *testing.T) {
	source := "short text"
	cases := []model.Span{
		{Start: -1, End: 5},
		{Start: 0, End: len(source) + 1},
		{Start: 4, End: 4},
		{Start: 7, End: 3},
	}

	validator := NewValidator(nil)
	for _, span := range cases {
		claim := model.Claim{
			ID:       "c1",
			Type:     model.ClaimTypeAssertion,
			Text:     source,
			SpanRefs: []model.Span{span},
		}
		result := validator.Validate(ledgerWith(claim), source)
		if rulesFired(result)[model.RuleInvalidSpan] != 1 {
			t.Errorf("Span %+v should be invalid, got %+v", span, result.Violations)
		}
	}
}

func TestValidate_FactWithoutEvidence(t *testing.T) {
	source := "Yes. The rest of the text goes on for a while."
	claim := model.Claim{
		ID:       "c1",
		Type:     model.ClaimTypeFact,
		Text:     "Yes.",
		SpanRefs: []model.Span{{Start: 0, End: 4}},
	}

	result := NewValidator(nil).Validate(ledgerWith(claim), source)
	if result.Passed {
		t.Fatal("Expected failure")
	}
	fired := rulesFired(result)
	if fired[model.RuleFactWithoutEvidence] != 1 {
		t.Errorf("Expected FACT_WITHOUT_EVIDENCE, got %+v", result.Violations)
	}
}

func TestValidate_FactWithEvidencePasses(t *testing.T) {
	source := "The earth orbits the sun."
	claim := model.Claim{
		ID:       "c1",
		Type:     model.ClaimTypeFact,
		Text:     source,
		SpanRefs: []model.Span{{Start: 0, End: len(source)}},
	}

	result := NewValidator(nil).Validate(ledgerWith(claim), source)
	if !result.Passed {
		t.Errorf("25 bytes of evidence should pass, got %+v", result.Violations)
	}
}

func TestValidate_InferenceLaundering(t *testing.T) {
	source := "So."
	claim := model.Claim{
		ID:       "c1",
		Type:     model.ClaimTypeInference,
		Text:     "So.",
		SpanRefs: []model.Span{{Start: 0, End: 3}},
	}

	result := NewValidator(nil).Validate(ledgerWith(claim), source)
	if result.Passed {
		t.Fatal("Expected failure")
	}
	if rulesFired(result)[model.RuleInferenceLaundering] != 1 {
		t.Errorf("Expected INFERENCE_LAUNDERING, got %+v", result.Violations)
	}
}

func TestValidate_HedgedInferencePasses(t *testing.T) {
	source := "This implies gravity is real."
	claim := model.Claim{
		ID:       "c1",
		Type:     model.ClaimTypeInference,
		Text:     source,
		SpanRefs: []model.Span{{Start: 0, End: len(source)}},
	}

	result := NewValidator(nil).Validate(ledgerWith(claim), source)
	if !result.Passed {
		t.Errorf("Hedged inference should pass, got %+v", result.Violations)
	}
}

func TestValidate_MultipleViolationsPerClaim(t *testing.T) {
	claim := model.Claim{
		ID:   "",
		Type: model.ClaimType("HUNCH"),
	}

	result := NewValidator(nil).Validate(ledgerWith(claim), "source text")
	fired := rulesFired(result)
	for _, rule := range []string{model.RuleMissingID, model.RuleInvalidType, model.RuleNoSpanRef} {
		if fired[rule] != 1 {
			t.Errorf("Expected %s to fire once, got %+v", rule, result.Violations)
		}
	}
	if len(result.Violations) != 3 {
		t.Errorf("Expected 3 violations, got %d", len(result.Violations))
	}
}

func TestValidate_EvidenceRulesSkipInvalidFirstSpan(t *testing.T) {
	claim := model.Claim{
		ID:       "c1",
		Type:     model.ClaimTypeFact,
		Text:     "out of range",
		SpanRefs: []model.Span{{Start: 50, End: 90}},
	}

	result := NewValidator(nil).Validate(ledgerWith(claim), "tiny")
	fired := rulesFired(result)
	if fired[model.RuleInvalidSpan] != 1 {
		t.Errorf("Expected INVALID_SPAN, got %+v", result.Violations)
	}
	if fired[model.RuleFactWithoutEvidence] != 0 {
		t.Errorf("Evidence rule should not fire on an unsliceable span: %+v", result.Violations)
	}
}

func TestValidate_PolicyOverrides(t *testing.T) {
	source := "The earth orbits the sun."
	fact := model.Claim{
		ID:       "c1",
		Type:     model.ClaimTypeFact,
		Text:     source,
		SpanRefs: []model.Span{{Start: 0, End: len(source)}},
	}

	strict := NewValidator(&Policy{MinEvidenceLen: 30})
	result := strict.Validate(ledgerWith(fact), source)
	if rulesFired(result)[model.RuleFactWithoutEvidence] != 1 {
		t.Errorf("25 bytes should fail a 30-byte floor, got %+v", result.Violations)
	}

	custom := NewValidator(&Policy{HedgeWords: []string{"ergo"}})
	inference := model.Claim{
		ID:       "c2",
		Type:     model.ClaimTypeInference,
		Text:     source,
		SpanRefs: []model.Span{{Start: 0, End: len(source)}},
	}
	result = custom.Validate(ledgerWith(inference), source)
	if rulesFired(result)[model.RuleInferenceLaundering] != 1 {
		t.Errorf("Default hedges should not match a custom-only list, got %+v", result.Violations)
	}
}

func TestValidate_ConfigPolicyDefaults(t *testing.T) {
	policy := PolicyFromConfig(model.ValidatorConfig{})
	if policy.MinEvidenceLen != DefaultMinEvidenceLen {
		t.Errorf("Zero config should keep the default floor, got %d", policy.MinEvidenceLen)
	}
	if len(policy.HedgeWords) == 0 {
		t.Error("Zero config should keep the default hedge list")
	}

	policy = PolicyFromConfig(model.ValidatorConfig{MinEvidenceLen: 42})
	if policy.MinEvidenceLen != 42 {
		t.Errorf("Config floor not applied, got %d", policy.MinEvidenceLen)
	}
}

func TestValidate_HostileLedgerNeverPanics(t *testing.T) {
	claims := []model.Claim{
		{ID: "a", Type: model.ClaimTypeFact, SpanRefs: []model.Span{{Start: -100, End: 100000}}},
		{ID: "", Type: model.ClaimType(""), SpanRefs: nil},
		{ID: "b", Type: model.ClaimTypeInference, SpanRefs: []model.Span{{Start: 0, End: 0}}},
	}

	result := NewValidator(nil).Validate(ledgerWith(claims...), "")
	if result.Passed {
		t.Error("Hostile ledger should not pass")
	}
}
