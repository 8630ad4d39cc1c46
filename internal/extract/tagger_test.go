package extract

import (
	"strings"
	"testing"

	"github.com/veridex/veridex/internal/model"
)

func TestTagger_TagTypesFactAndInference(t *testing.T) {
	source := "The earth orbits the sun. This implies gravity is real."
	ledger := NewTagger(nil).Tag(source)

	if ledger.SentenceCount != 2 {
		t.Fatalf("Expected 2 sentences, got %d", ledger.SentenceCount)
	}
	if len(ledger.Claims) != 2 {
		t.Fatalf("Expected 2 claims, got %d", len(ledger.Claims))
	}

	if ledger.Claims[0].Type != model.ClaimTypeFact {
		t.Errorf("First claim type = %s, want FACT", ledger.Claims[0].Type)
	}
	if ledger.Claims[1].Type != model.ClaimTypeInference {
		t.Errorf("Second claim type = %s, want INFERENCE", ledger.Claims[1].Type)
	}

	for i, claim := range ledger.Claims {
		if claim.ID == "" {
			t.Errorf("Claim %d has no ID", i)
		}
		if len(claim.SpanRefs) != 1 {
			t.Fatalf("Claim %d has %d spans, want 1", i, len(claim.SpanRefs))
		}
		span := claim.SpanRefs[0]
		if got := source[span.Start:span.End]; got != claim.Text {
			t.Errorf("Claim %d span slices to %q, want %q", i, got, claim.Text)
		}
	}
}

func TestTagger_Classification(t *testing.T) {
	cases := []struct {
		sentence string
		want     model.ClaimType
	}{
		{"I think the plan will work.", model.ClaimTypeOpinion},
		{"In my opinion this design is wrong.", model.ClaimTypeOpinion},
		{"Therefore the cache must be stale.", model.ClaimTypeInference},
		{"The data suggests a regression.", model.ClaimTypeInference},
		{"Water boils at 100 degrees Celsius.", model.ClaimTypeFact},
		{"The treaty was signed in 1648.", model.ClaimTypeFact},
		{"The earth orbits the sun.", model.ClaimTypeFact},
		{"Go home now.", model.ClaimTypeAssertion},
		{"Trust the process.", model.ClaimTypeAssertion},
	}

	tagger := NewTagger(nil)
	for _, c := range cases {
		ledger := tagger.Tag(c.sentence)
		if len(ledger.Claims) != 1 {
			t.Fatalf("Tag(%q) produced %d claims, want 1", c.sentence, len(ledger.Claims))
		}
		if got := ledger.Claims[0].Type; got != c.want {
			t.Errorf("Tag(%q) type = %s, want %s", c.sentence, got, c.want)
		}
	}
}

func TestTagger_OpinionWinsOverFactCues(t *testing.T) {
	// Precedence: a first-person marker outranks the numeric fact cue.
	ledger := NewTagger(nil).Tag("I believe the earth is 4.5 billion years old.")
	if len(ledger.Claims) != 1 {
		t.Fatalf("Expected 1 claim, got %d", len(ledger.Claims))
	}
	if ledger.Claims[0].Type != model.ClaimTypeOpinion {
		t.Errorf("Type = %s, want OPINION", ledger.Claims[0].Type)
	}
}

func TestTagger_RepeatedSentencesGetDistinctSpans(t *testing.T) {
	source := "It rains today. It rains today."
	ledger := NewTagger(nil).Tag(source)

	if len(ledger.Claims) != 2 {
		t.Fatalf("Expected 2 claims, got %d", len(ledger.Claims))
	}

	first := ledger.Claims[0].SpanRefs[0]
	second := ledger.Claims[1].SpanRefs[0]
	if first == second {
		t.Errorf("Repeated sentences share a span: %+v", first)
	}
	if second.Start < first.End {
		t.Errorf("Spans overlap: first %+v, second %+v", first, second)
	}
	if source[first.Start:first.End] != source[second.Start:second.End] {
		t.Errorf("Both spans should slice to the same sentence text")
	}
}

func TestTagger_SpansStayInBounds(t *testing.T) {
	sources := []string{
		"One. Two! Three? Four.",
		"No terminator at the end",
		"Tab\tseparated. Newline\nseparated. Done.",
		"Ünïcode text grüßt die Welt. 日本語の文もある. The end is here.",
	}

	tagger := NewTagger(nil)
	for _, source := range sources {
		ledger := tagger.Tag(source)
		prevEnd := 0
		for i, claim := range ledger.Claims {
			for _, span := range claim.SpanRefs {
				if span.Start < 0 || span.End > len(source) || span.Start >= span.End {
					t.Errorf("Tag(%q) claim %d has invalid span %+v", source, i, span)
				}
				if span.Start < prevEnd {
					t.Errorf("Tag(%q) claim %d span %+v starts before previous end %d", source, i, span, prevEnd)
				}
				prevEnd = span.End
			}
		}
	}
}

func TestTagger_EmptyInput(t *testing.T) {
	for _, source := range []string{"", "   ", "\n\t  \n"} {
		ledger := NewTagger(nil).Tag(source)
		if ledger.SentenceCount != 0 {
			t.Errorf("Tag(%q) sentence count = %d, want 0", source, ledger.SentenceCount)
		}
		if len(ledger.Claims) != 0 {
			t.Errorf("Tag(%q) produced %d claims, want 0", source, len(ledger.Claims))
		}
		if ledger.Claims == nil {
			t.Errorf("Tag(%q) claims should be empty, not nil", source)
		}
		if ledger.TaggedAt.IsZero() {
			t.Errorf("Tag(%q) should still stamp tagged_at", source)
		}
	}
}

func TestTagger_DecimalsDoNotSplit(t *testing.T) {
	ledger := NewTagger(nil).Tag("Pi is 3.14159 to five places. That is enough precision.")
	if ledger.SentenceCount != 2 {
		t.Fatalf("Decimal point split the sentence: %d sentences", ledger.SentenceCount)
	}
	if !strings.Contains(ledger.Claims[0].Text, "3.14159") {
		t.Errorf("First sentence lost the decimal: %q", ledger.Claims[0].Text)
	}
}

func TestTagger_TrailingTextWithoutTerminator(t *testing.T) {
	source := "First sentence here. trailing fragment without a stop"
	ledger := NewTagger(nil).Tag(source)
	if len(ledger.Claims) != 2 {
		t.Fatalf("Expected trailing fragment to become a claim, got %d claims", len(ledger.Claims))
	}
	last := ledger.Claims[1]
	if last.Text != "trailing fragment without a stop" {
		t.Errorf("Unexpected trailing claim text: %q", last.Text)
	}
}

func TestTagger_CustomRules(t *testing.T) {
	rules := &Rules{
		OpinionMarkers:   []string{"frankly"},
		InferenceMarkers: []string{"ergo"},
		FactVerbs:        []string{"weighs"},
	}
	tagger := NewTagger(rules)

	cases := []struct {
		sentence string
		want     model.ClaimType
	}{
		{"Frankly the plan smells.", model.ClaimTypeOpinion},
		{"Ergo the butler did it.", model.ClaimTypeInference},
		{"The crate weighs a ton.", model.ClaimTypeFact},
	}
	for _, c := range cases {
		ledger := tagger.Tag(c.sentence)
		if got := ledger.Claims[0].Type; got != c.want {
			t.Errorf("Tag(%q) type = %s, want %s", c.sentence, got, c.want)
		}
	}
}
