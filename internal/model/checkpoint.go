package model

// UnknownField is the fallback for transcript metadata the upstream payload
// did not carry. It is a literal string, not an absence marker: downstream
// hashing must see the same bytes on every run.
const UnknownField = "unknown"

// Message is one turn of a model conversation.
type Message struct {
	Role    string `json:"role"`    // "user", "assistant", "system", ...
	Content string `json:"content"` // Turn text, verbatim
}

// Transcript is the canonical shape every upstream payload is normalized
// into before hashing or signing. Heterogeneous inputs (prompt/completion
// pairs, nested request/response envelopes, bare strings) all land here.
type Transcript struct {
	Messages  []Message      `json:"messages"`
	Model     string         `json:"model"`            // Producing model, or "unknown"
	CreatedAt string         `json:"created_at"`       // Upstream timestamp string, or "unknown"
	Inputs    map[string]any `json:"inputs,omitempty"` // Residual upstream fields, preserved
}

// AssistantText returns the assistant-authored portion of the transcript,
// turns joined by blank lines. This is the text claims are tagged from.
func (t Transcript) AssistantText() string {
	var out string
	for _, m := range t.Messages {
		if m.Role != "assistant" {
			continue
		}
		if out != "" {
			out += "\n\n"
		}
		out += m.Content
	}
	return out
}

// MasterReceiptVersion is stamped into every master receipt.
const MasterReceiptVersion = "1.0"

// Signature schemes accepted for master receipts.
const (
	SchemeEd25519    = "ed25519"
	SchemeDilithium3 = "dilithium3"
)

// MasterReceipt is the plaintext-free, signed half of a checkpoint. It binds
// the content hash of a canonical transcript without embedding the
// transcript itself; the transcript travels separately in the EvidencePack.
type MasterReceipt struct {
	ReceiptVersion  string          `json:"receipt_version"`
	ReceiptID       string          `json:"receipt_id"`
	ContentHash     string          `json:"content_hash"`     // Hex sha256 of the canonical transcript
	SignatureScheme string          `json:"signature_scheme"` // "ed25519" or "dilithium3"
	Signature       string          `json:"signature"`        // Base64 signature over the domain-prefixed envelope digest
	Metadata        ReceiptMetadata `json:"metadata"`
	Verification    Verification    `json:"verification"`
}

// ReceiptMetadata carries non-sensitive facts about the checkpointed run.
type ReceiptMetadata struct {
	Model        string `json:"model"`
	CreatedAt    string `json:"created_at"`
	MessageCount int    `json:"message_count"`
	ContentCID   string `json:"content_cid,omitempty"` // CIDv1 (raw, sha2-256) of the canonical transcript
	Producer     string `json:"producer,omitempty"`    // Tool and version that produced the receipt
}

// Verification is the producer's self-reported check status. Offline
// verifiers recompute everything and must never trust these fields.
type Verification struct {
	SelfTestPassed bool   `json:"self_test_passed"`
	CheckedAt      string `json:"checked_at,omitempty"`
}

// EvidencePack is the companion artifact to a MasterReceipt: the normalized
// transcript, the epistemic claims derived from it, and operator notes. It
// shares ReceiptID and ContentHash with its master receipt.
type EvidencePack struct {
	ReceiptID     string     `json:"receipt_id"`
	ContentHash   string     `json:"content_hash"`
	Transcript    Transcript `json:"transcript"`
	EliAssertions []Claim    `json:"eli_assertions"` // Claims tagged from the assistant text
	Notes         string     `json:"notes"`
}

// Protocol check names, in execution order.
const (
	CheckAuthenticate  = "authenticate"
	CheckCheckpoint    = "checkpoint"
	CheckNoPlaintext   = "no-plaintext"
	CheckSelfTest      = "self-test"
	CheckOfflineVerify = "offline-verify"
)

// ProtocolCheck is one named step of a checkpoint protocol run.
type ProtocolCheck struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// ProtocolReport summarizes a full checkpoint protocol run.
type ProtocolReport struct {
	RunID      string          `json:"run_id"`
	Status     string          `json:"status"` // "PASS" or "FAIL"
	Checks     []ProtocolCheck `json:"checks"`
	StartedAt  string          `json:"started_at"`
	FinishedAt string          `json:"finished_at"`
}

// Passed reports whether every check in the run passed.
func (r ProtocolReport) Passed() bool {
	for _, c := range r.Checks {
		if !c.Passed {
			return false
		}
	}
	return len(r.Checks) > 0
}
