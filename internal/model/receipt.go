package model

// ReceiptSchemaVersion is stamped into every simple receipt.
const ReceiptSchemaVersion = "1.0"

// Receipt wraps one raw provider response in a tamper-evident envelope.
// The signature is an HMAC-SHA256 over "id|timestamp|responseHash"; the
// exact payload layout is load-bearing and must not change between versions.
type Receipt struct {
	ID            string `json:"id"`             // Unique receipt identifier
	Timestamp     string `json:"timestamp"`      // RFC3339 UTC signing time
	ResponseHash  string `json:"responseHash"`   // Lowercase hex sha256 of Response
	Signature     string `json:"signature"`      // Lowercase hex HMAC-SHA256
	Response      string `json:"response"`       // The raw response text, verbatim
	SchemaVersion string `json:"schema_version"` // Receipt schema version
}

// VerifyResult reports the outcome of a receipt or checkpoint verification.
// Reason is empty on success and one of a small closed vocabulary on failure.
type VerifyResult struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}
