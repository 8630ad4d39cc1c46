// Package receipt wraps raw provider responses in tamper-evident HMAC
// envelopes. A receipt binds the response text to a hash and a signature
// over "id|timestamp|responseHash"; anyone holding the key can verify both
// offline.
package receipt

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/veridex/veridex/internal/canon"
	"github.com/veridex/veridex/internal/model"
)

// Verification failure reasons. The vocabulary is closed: callers may
// switch on these strings.
const (
	ReasonHashMismatch   = "response hash mismatch"
	ReasonSigLenMismatch = "signature length mismatch"
	ReasonSigMismatch    = "signature mismatch"
	ReasonMalformedSig   = "signature is not valid hex"
)

// Injectable for deterministic tests.
var (
	nowFunc      = time.Now
	newReceiptID = uuid.NewString
)

// Sign wraps response in a signed receipt. The signature payload is exactly
// "id|timestamp|responseHash"; changing the layout would invalidate every
// receipt ever issued.
func Sign(response string, key []byte) (model.Receipt, error) {
	if len(key) == 0 {
		return model.Receipt{}, fmt.Errorf("hmac key is empty")
	}

	id := newReceiptID()
	timestamp := nowFunc().UTC().Format(time.RFC3339)
	responseHash := canon.SHA256Hex(response)

	return model.Receipt{
		ID:            id,
		Timestamp:     timestamp,
		ResponseHash:  responseHash,
		Signature:     computeSignature(id, timestamp, responseHash, key),
		Response:      response,
		SchemaVersion: model.ReceiptSchemaVersion,
	}, nil
}

// Verify checks a receipt against the key. Checks run in a fixed order and
// the first failure wins: the response hash is recomputed before any MAC
// work, a length mismatch is reported distinctly, and the final comparison
// is constant-time.
func Verify(r model.Receipt, key []byte) model.VerifyResult {
	if canon.SHA256Hex(r.Response) != r.ResponseHash {
		return model.VerifyResult{Valid: false, Reason: ReasonHashMismatch}
	}

	presented, err := hex.DecodeString(r.Signature)
	if err != nil {
		return model.VerifyResult{Valid: false, Reason: ReasonMalformedSig}
	}

	expected := computeMAC(r.ID, r.Timestamp, r.ResponseHash, key)
	if len(presented) != len(expected) {
		return model.VerifyResult{Valid: false, Reason: ReasonSigLenMismatch}
	}
	if !hmac.Equal(presented, expected) {
		return model.VerifyResult{Valid: false, Reason: ReasonSigMismatch}
	}

	return model.VerifyResult{Valid: true}
}

func computeSignature(id, timestamp, responseHash string, key []byte) string {
	return hex.EncodeToString(computeMAC(id, timestamp, responseHash, key))
}

func computeMAC(id, timestamp, responseHash string, key []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(id + "|" + timestamp + "|" + responseHash))
	return mac.Sum(nil)
}
