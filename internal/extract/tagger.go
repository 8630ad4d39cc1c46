package extract

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/veridex/veridex/internal/model"
)

// Injectable for deterministic tests.
var (
	nowFunc    = time.Now
	newClaimID = uuid.NewString
)

// Tagger splits response text into sentences and types each one as an
// epistemic claim. Span refs are byte offsets into the exact source string
// handed to Tag; validators must slice the same string.
type Tagger struct {
	classifier *classifier
}

// NewTagger creates a tagger. A nil rules argument uses DefaultRules.
func NewTagger(rules *Rules) *Tagger {
	return &Tagger{classifier: newClassifier(rules)}
}

// Tag produces the claim ledger for source. Empty or whitespace-only input
// yields an empty ledger. Tag never fails: every sentence becomes exactly
// one claim with one span.
func (t *Tagger) Tag(source string) model.Ledger {
	sentences := splitSentences(source)

	claims := make([]model.Claim, 0, len(sentences))
	cursor := 0
	for _, sentence := range sentences {
		idx := strings.Index(source[cursor:], sentence)
		if idx < 0 {
			continue
		}
		start := cursor + idx
		end := start + len(sentence)
		// The cursor only moves forward, so repeated sentences land on
		// successive occurrences and spans never overlap.
		cursor = end

		claims = append(claims, model.Claim{
			ID:       newClaimID(),
			Type:     t.classifier.Classify(sentence),
			Text:     sentence,
			SpanRefs: []model.Span{{Start: start, End: end}},
		})
	}

	return model.Ledger{
		TaggedAt:      nowFunc().UTC(),
		SentenceCount: len(sentences),
		Claims:        claims,
	}
}

// splitSentences splits text on sentence terminators followed by whitespace
// or end of text. Sentences are trimmed; empty ones are dropped. The text is
// never rewritten, so every returned sentence is a verbatim substring of it.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	flush := func() {
		sentence := strings.TrimSpace(current.String())
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
		current.Reset()
	}

	for i, r := range text {
		current.WriteRune(r)

		if r == '.' || r == '!' || r == '?' {
			// Split only when whitespace follows, so decimals and
			// abbreviations stay in one piece.
			if i+1 >= len(text) || isSpace(text[i+1]) {
				flush()
			}
		}
	}
	flush()

	return sentences
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
