package checkpoint

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/veridex/veridex/internal/canon"
	"github.com/veridex/veridex/internal/model"
)

// Upstream authentication strategies, in the order they are tried.
const (
	StrategyCanonicalTranscript = "canonical-transcript"
	StrategyCanonicalPayload    = "canonical-payload-unsigned"
	StrategyTranscriptHashField = "transcript-hash-field"
)

// signatureFields are stripped from the payload before hashing it for the
// canonical-payload-unsigned strategy: the upstream MAC cannot have covered
// its own value.
var signatureFields = []string{"hmac", "signature", "sig", "mac"}

// AuthResult reports which strategy authenticated the payload, or why none
// did.
type AuthResult struct {
	OK       bool   `json:"ok"`
	Strategy string `json:"strategy,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

type authStrategy struct {
	name string
	// material returns the bytes the upstream may have MACed, or false
	// when the strategy does not apply to this payload.
	material func(payload map[string]any, transcript model.Transcript) (string, bool)
}

var authStrategies = []authStrategy{
	{
		name: StrategyCanonicalTranscript,
		material: func(_ map[string]any, transcript model.Transcript) (string, bool) {
			return canon.Canonicalize(transcript), true
		},
	},
	{
		name: StrategyCanonicalPayload,
		material: func(payload map[string]any, _ model.Transcript) (string, bool) {
			if len(payload) == 0 {
				return "", false
			}
			stripped := make(map[string]any, len(payload))
			for k, v := range payload {
				stripped[k] = v
			}
			for _, f := range signatureFields {
				delete(stripped, f)
			}
			return canon.Canonicalize(stripped), true
		},
	},
	{
		name: StrategyTranscriptHashField,
		material: func(payload map[string]any, _ model.Transcript) (string, bool) {
			h := stringField(payload, "transcript_hash", "transcriptHash", "content_hash")
			return h, h != ""
		},
	},
}

// Authenticate checks the upstream MAC against each strategy in order and
// accepts the first match. The presented MAC is compared on decoded bytes,
// so hex case and surrounding whitespace never matter; the comparison is
// constant-time.
func Authenticate(payload map[string]any, transcript model.Transcript, key []byte, upstreamMAC string) AuthResult {
	if len(key) == 0 {
		return AuthResult{OK: false, Reason: "no upstream key provided"}
	}

	presented, err := hex.DecodeString(strings.ToLower(strings.TrimSpace(upstreamMAC)))
	if err != nil || len(presented) == 0 {
		return AuthResult{OK: false, Reason: "upstream hmac is not valid hex"}
	}

	for _, strategy := range authStrategies {
		material, ok := strategy.material(payload, transcript)
		if !ok {
			continue
		}
		expected := hmacSHA256(key, material)
		if hmac.Equal(presented, expected) {
			return AuthResult{OK: true, Strategy: strategy.name}
		}
	}

	return AuthResult{OK: false, Reason: "upstream hmac matched no authentication strategy"}
}

// HMACHex computes the lowercase hex HMAC-SHA256 of material. Upstreams
// use this to produce MACs veridex will accept.
func HMACHex(key []byte, material string) string {
	return hex.EncodeToString(hmacSHA256(key, material))
}

func hmacSHA256(key []byte, material string) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(material))
	return mac.Sum(nil)
}
