package checkpoint

import (
	"crypto/sha256"
	"time"

	"github.com/google/uuid"

	"github.com/veridex/veridex/internal/canon"
	"github.com/veridex/veridex/internal/extract"
	"github.com/veridex/veridex/internal/keys"
	"github.com/veridex/veridex/internal/model"
	"github.com/veridex/veridex/internal/verr"
)

// domainPrefix separates checkpoint signatures from any other use of the
// same key. It is prepended to the canonical envelope before hashing and
// must never change within a receipt version.
const domainPrefix = "veridex/checkpoint@1\x00"

// Injectable for deterministic tests.
var (
	nowFunc      = time.Now
	newReceiptID = uuid.NewString
)

// Options tune checkpoint production.
type Options struct {
	Signer   keys.Signer
	Producer string          // Stamped into receipt metadata
	Notes    string          // Stamped into the evidence pack
	Tagger   *extract.Tagger // nil uses default tagging rules
}

// Artifacts is the output of one checkpoint: the signed, plaintext-free
// master receipt and its companion evidence pack.
type Artifacts struct {
	Master model.MasterReceipt
	Pack   model.EvidencePack
}

// Produce binds a normalized transcript into a master receipt and evidence
// pack. The master receipt carries only hashes, metadata and the signature;
// production fails outright if any plaintext key leaks into it.
func Produce(transcript model.Transcript, opts Options) (*Artifacts, error) {
	if opts.Signer == nil {
		return nil, verr.New(verr.KindKey, "no-signer", "checkpoint production requires a signer")
	}

	transcript = fillDefaults(transcript)
	canonical := canon.Canonicalize(transcript)
	contentHash := canon.SHA256Hex(canonical)

	receiptID := newReceiptID()
	scheme := opts.Signer.Scheme()

	signature, err := opts.Signer.Sign(envelopeDigest(receiptID, contentHash, scheme))
	if err != nil {
		return nil, verr.Wrap(err, verr.KindSignature, "envelope-sign", "sign checkpoint envelope")
	}

	contentCID, err := canon.CIDv1RawSHA256([]byte(canonical))
	if err != nil {
		return nil, verr.Wrap(err, verr.KindFormat, "content-cid", "derive content CID")
	}

	tagger := opts.Tagger
	if tagger == nil {
		tagger = extract.NewTagger(nil)
	}
	assertions := tagger.Tag(transcript.AssistantText()).Claims

	master := model.MasterReceipt{
		ReceiptVersion:  model.MasterReceiptVersion,
		ReceiptID:       receiptID,
		ContentHash:     contentHash,
		SignatureScheme: scheme,
		Signature:       signature,
		Metadata: model.ReceiptMetadata{
			Model:        transcript.Model,
			CreatedAt:    transcript.CreatedAt,
			MessageCount: len(transcript.Messages),
			ContentCID:   contentCID,
			Producer:     opts.Producer,
		},
	}

	if err := CheckNoPlaintext(master); err != nil {
		return nil, err
	}

	pack := model.EvidencePack{
		ReceiptID:     receiptID,
		ContentHash:   contentHash,
		Transcript:    transcript,
		EliAssertions: assertions,
		Notes:         opts.Notes,
	}

	return &Artifacts{Master: master, Pack: pack}, nil
}

// envelopeDigest hashes the domain-prefixed canonical signable envelope.
// Only these four fields are signed: metadata and verification stay
// mutable without invalidating the signature.
func envelopeDigest(receiptID, contentHash, scheme string) []byte {
	envelope := map[string]any{
		"receipt_version":  model.MasterReceiptVersion,
		"receipt_id":       receiptID,
		"content_hash":     contentHash,
		"signature_scheme": scheme,
	}
	sum := sha256.Sum256([]byte(domainPrefix + canon.Canonicalize(envelope)))
	return sum[:]
}
