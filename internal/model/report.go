package model

import "time"

// Report is the complete artifact of one harness run: the raw response
// bound into a receipt, the claim ledger tagged from it, discipline
// validation, and the transparent hygiene score.
type Report struct {
	RunID     string    `json:"run_id"`    // Unique run identifier
	Prompt    string    `json:"prompt"`    // Prompt sent to the provider
	Provider  string    `json:"provider"`  // openai, anthropic, ollama
	Model     string    `json:"model"`     // Model that produced the response
	InvokedAt time.Time `json:"invoked_at"`
	Cached    bool      `json:"cached"` // Whether the response came from cache

	Receipt    Receipt          `json:"receipt"`    // Tamper-evident envelope around the response
	Ledger     Ledger           `json:"ledger"`     // Tagged epistemic claims
	Validation ValidationResult `json:"validation"` // Discipline check outcome

	Score      Score      `json:"score"`              // Hygiene index and scoring breakdown
	Warnings   []string   `json:"warnings,omitempty"` // Non-fatal findings (e.g. credential leakage)
	Guarantees Guarantees `json:"guarantees"`         // Properties the artifact chain provides
}

// Score represents the transparent scoring breakdown
type Score struct {
	Index      int      `json:"index"`      // Overall hygiene index (0-100)
	Confidence string   `json:"confidence"` // "low", "medium", "high"
	Signals    []Signal `json:"signals"`    // Diagnostic signals with transparent data
}

// Signal represents a diagnostic signal with transparent scoring data
type Signal struct {
	Type        SignalType     `json:"type"`           // Signal classification
	Severity    SignalSeverity `json:"severity"`       // info, warning, critical
	Description string         `json:"description"`    // Human-readable description
	Data        map[string]any `json:"data,omitempty"` // Transparent scoring data (formulas, inputs)
}

// SignalType classifies the type of diagnostic signal
type SignalType string

const (
	SignalClaimDistribution  SignalType = "claim_distribution"  // Share of each claim type
	SignalHedgeDensity       SignalType = "hedge_density"       // Hedged inferences vs total inferences
	SignalUnsupportedFacts   SignalType = "unsupported_facts"   // FACT claims lacking evidence
	SignalLaunderedInference SignalType = "laundered_inference" // Inferences presented without hedging
	SignalStructuralDefects  SignalType = "structural_defects"  // Malformed claims in the ledger
	SignalOpinionShare       SignalType = "opinion_share"       // Opinion-heavy responses
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)

// Guarantees documents which integrity properties the run's artifacts carry
type Guarantees struct {
	TamperEvident     bool `json:"tamper_evident"`     // Receipt binds the raw response
	OfflineVerifiable bool `json:"offline_verifiable"` // Verification needs no network
	Transparent       bool `json:"transparent"`        // All scoring explainable from signals
}

// DefaultGuarantees returns the properties every standard run provides
func DefaultGuarantees() Guarantees {
	return Guarantees{
		TamperEvident:     true,
		OfflineVerifiable: true,
		Transparent:       true,
	}
}
