package score

import (
	"fmt"

	"github.com/veridex/veridex/internal/model"
)

// Penalty per violation, by discipline rule class.
const (
	structuralPenalty      = 20
	unsupportedFactPenalty = 10
	launderingPenalty      = 15
)

// Scorer calculates the hygiene index and generates signals
type Scorer struct{}

// NewScorer creates a new scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Calculate derives the hygiene index and diagnostic signals from a
// tagged ledger and its validation outcome. The index starts at 100 and
// loses points per violation; signals expose the inputs behind it.
func (s *Scorer) Calculate(ledger model.Ledger, validation model.ValidationResult) model.Score {
	var signals []model.Signal

	// Classify violations by rule
	structural := 0
	unsupported := 0
	laundered := 0
	for _, v := range validation.Violations {
		switch v.Rule {
		case model.RuleFactWithoutEvidence:
			unsupported++
		case model.RuleInferenceLaundering:
			laundered++
		default:
			structural++
		}
	}

	counts := countByType(ledger.Claims)

	// 1. Claim distribution
	signals = append(signals, s.claimDistribution(ledger, counts))

	// 2. Hedge density
	signals = append(signals, s.hedgeDensity(counts[model.ClaimTypeInference], laundered))

	// 3. Unsupported facts
	signals = append(signals, s.unsupportedFacts(counts[model.ClaimTypeFact], unsupported))

	// 4. Laundered inferences
	signals = append(signals, s.launderedInference(counts[model.ClaimTypeInference], laundered))

	// 5. Structural defects (only when present)
	if structural > 0 {
		signals = append(signals, s.structuralDefects(structural, validation.Violations))
	}

	// 6. Opinion share (only when opinions dominate)
	if opinionSignal, dominated := s.detectOpinionShare(counts, len(ledger.Claims)); dominated {
		signals = append(signals, opinionSignal)
	}

	index := 100 - structural*structuralPenalty - unsupported*unsupportedFactPenalty - laundered*launderingPenalty
	if index < 0 {
		index = 0
	}

	confidence := s.determineConfidence(len(ledger.Claims), index)

	return model.Score{
		Index:      index,
		Confidence: confidence,
		Signals:    signals,
	}
}

func countByType(claims []model.Claim) map[model.ClaimType]int {
	counts := make(map[model.ClaimType]int)
	for _, c := range claims {
		counts[c.Type]++
	}
	return counts
}

// claimDistribution reports the mix of claim types
func (s *Scorer) claimDistribution(ledger model.Ledger, counts map[model.ClaimType]int) model.Signal {
	total := len(ledger.Claims)

	if total == 0 {
		return model.Signal{
			Type:        model.SignalClaimDistribution,
			Severity:    model.SeverityCritical,
			Description: "No claims extracted",
			Data: map[string]any{
				"claims":    0,
				"sentences": ledger.SentenceCount,
			},
		}
	}

	return model.Signal{
		Type:     model.SignalClaimDistribution,
		Severity: model.SeverityInfo,
		Description: fmt.Sprintf("Claim mix: %d FACT, %d INFERENCE, %d ASSERTION, %d OPINION",
			counts[model.ClaimTypeFact], counts[model.ClaimTypeInference],
			counts[model.ClaimTypeAssertion], counts[model.ClaimTypeOpinion]),
		Data: map[string]any{
			"claims":    total,
			"sentences": ledger.SentenceCount,
			"fact":      counts[model.ClaimTypeFact],
			"inference": counts[model.ClaimTypeInference],
			"assertion": counts[model.ClaimTypeAssertion],
			"opinion":   counts[model.ClaimTypeOpinion],
		},
	}
}

// hedgeDensity reports how many inferences carry hedging language
func (s *Scorer) hedgeDensity(inferences, laundered int) model.Signal {
	if inferences == 0 {
		return model.Signal{
			Type:        model.SignalHedgeDensity,
			Severity:    model.SeverityInfo,
			Description: "No inferences to hedge",
			Data:        map[string]any{"inferences": 0},
		}
	}

	hedged := inferences - laundered
	if hedged < 0 {
		hedged = 0
	}
	density := float64(hedged) / float64(inferences)

	severity := model.SeverityInfo
	if density < 0.5 {
		severity = model.SeverityCritical
	} else if density < 1.0 {
		severity = model.SeverityWarning
	}

	return model.Signal{
		Type:        model.SignalHedgeDensity,
		Severity:    severity,
		Description: fmt.Sprintf("Hedge density: %d/%d inferences hedged", hedged, inferences),
		Data: map[string]any{
			"inferences": inferences,
			"hedged":     hedged,
			"density":    density,
			"formula":    "hedged_inferences / total_inferences",
		},
	}
}

// unsupportedFacts reports FACT claims that cite no evidence
func (s *Scorer) unsupportedFacts(facts, unsupported int) model.Signal {
	severity := model.SeverityInfo
	if unsupported >= 3 {
		severity = model.SeverityCritical
	} else if unsupported > 0 {
		severity = model.SeverityWarning
	}

	return model.Signal{
		Type:        model.SignalUnsupportedFacts,
		Severity:    severity,
		Description: fmt.Sprintf("Unsupported facts: %d of %d FACT claims lack evidence", unsupported, facts),
		Data: map[string]any{
			"facts":        facts,
			"unsupported":  unsupported,
			"penalty_each": unsupportedFactPenalty,
			"penalty":      unsupported * unsupportedFactPenalty,
		},
	}
}

// launderedInference reports inferences presented as settled fact
func (s *Scorer) launderedInference(inferences, laundered int) model.Signal {
	severity := model.SeverityInfo
	if laundered >= 2 {
		severity = model.SeverityCritical
	} else if laundered > 0 {
		severity = model.SeverityWarning
	}

	return model.Signal{
		Type:        model.SignalLaunderedInference,
		Severity:    severity,
		Description: fmt.Sprintf("Laundered inferences: %d of %d presented without hedging", laundered, inferences),
		Data: map[string]any{
			"inferences":   inferences,
			"laundered":    laundered,
			"penalty_each": launderingPenalty,
			"penalty":      laundered * launderingPenalty,
		},
	}
}

// structuralDefects reports malformed claims in the ledger
func (s *Scorer) structuralDefects(count int, violations []model.ValidationViolation) model.Signal {
	rules := make(map[string]int)
	for _, v := range violations {
		switch v.Rule {
		case model.RuleFactWithoutEvidence, model.RuleInferenceLaundering:
		default:
			rules[v.Rule]++
		}
	}

	return model.Signal{
		Type:        model.SignalStructuralDefects,
		Severity:    model.SeverityCritical,
		Description: fmt.Sprintf("Structural defects: %d malformed claims in ledger", count),
		Data: map[string]any{
			"count":        count,
			"rules":        rules,
			"penalty_each": structuralPenalty,
			"penalty":      count * structuralPenalty,
		},
	}
}

// detectOpinionShare flags responses where opinions outweigh everything else
func (s *Scorer) detectOpinionShare(counts map[model.ClaimType]int, total int) (model.Signal, bool) {
	opinions := counts[model.ClaimTypeOpinion]
	if total < 2 || opinions*2 <= total {
		return model.Signal{}, false
	}

	share := float64(opinions) / float64(total)

	return model.Signal{
		Type:        model.SignalOpinionShare,
		Severity:    model.SeverityWarning,
		Description: fmt.Sprintf("Opinion-heavy response: %.0f%% of claims are opinions", share*100),
		Data: map[string]any{
			"opinions": opinions,
			"claims":   total,
			"share":    share,
			"formula":  "opinion_count / claim_count",
		},
	}, true
}

// determineConfidence scales confidence with claim count and index
func (s *Scorer) determineConfidence(claimCount, index int) string {
	if claimCount < 3 {
		return "low"
	}

	if index >= 80 {
		return "high"
	} else if index >= 60 {
		return "medium"
	}
	return "low"
}
