package checkpoint

import (
	"fmt"

	"github.com/veridex/veridex/internal/canon"
	"github.com/veridex/veridex/internal/keys"
	"github.com/veridex/veridex/internal/model"
)

// VerifyOffline checks a master receipt against its evidence pack using
// nothing but the artifacts and a public key. The transcript hash is
// recomputed from the pack and must agree three ways with both recorded
// hashes before the envelope signature is checked. The receipt's own
// verification block is self-reported and ignored here.
func VerifyOffline(master model.MasterReceipt, pack model.EvidencePack, verifier keys.Verifier) model.VerifyResult {
	if master.ContentHash != pack.ContentHash {
		return model.VerifyResult{Reason: "content_hash mismatch (master receipt and evidence pack disagree)"}
	}

	recomputed := canon.CanonicalHash(pack.Transcript)
	if recomputed != master.ContentHash {
		return model.VerifyResult{Reason: "content_hash mismatch (recomputed transcript hash differs from recorded value)"}
	}

	if pack.ReceiptID != master.ReceiptID {
		return model.VerifyResult{Reason: "receipt_id mismatch between master receipt and evidence pack"}
	}

	scheme := master.SignatureScheme
	if !keys.ValidScheme(scheme) {
		return model.VerifyResult{Reason: fmt.Sprintf("unsupported signature scheme %q", scheme)}
	}
	if verifier == nil {
		return model.VerifyResult{Reason: fmt.Sprintf("missing verify key for scheme %s", scheme)}
	}
	if verifier.Scheme() != scheme {
		return model.VerifyResult{Reason: fmt.Sprintf("verify key is for scheme %s but receipt uses %s", verifier.Scheme(), scheme)}
	}

	digest := envelopeDigest(master.ReceiptID, master.ContentHash, scheme)
	if err := verifier.Verify(digest, master.Signature); err != nil {
		return model.VerifyResult{Reason: fmt.Sprintf("%s signature verification failed", scheme)}
	}

	return model.VerifyResult{Valid: true}
}
