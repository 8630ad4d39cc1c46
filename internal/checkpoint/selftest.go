package checkpoint

import (
	"github.com/veridex/veridex/internal/keys"
	"github.com/veridex/veridex/internal/model"
	"github.com/veridex/veridex/internal/verr"
)

// SelfTest proves the verification machinery is alive by tampering with
// copies of the artifacts and demanding that verification catch it. A
// verifier that waves tampered artifacts through is worse than none.
func SelfTest(master model.MasterReceipt, pack model.EvidencePack, verifier keys.Verifier) error {
	if res := VerifyOffline(master, pack, verifier); !res.Valid {
		return verr.New(verr.KindState, "selftest-baseline", "genuine artifacts failed offline verify: %s", res.Reason)
	}

	tampered := clonePack(pack)
	if len(tampered.Transcript.Messages) > 0 {
		tampered.Transcript.Messages[0].Content += " [tampered]"
	} else {
		tampered.Transcript.Model += "-tampered"
	}
	if res := VerifyOffline(master, tampered, verifier); res.Valid {
		return verr.New(verr.KindState, "selftest-transcript", "tampered transcript passed offline verify")
	}

	flipped := master
	flipped.ContentHash = flipHexChar(master.ContentHash)
	if res := VerifyOffline(flipped, pack, verifier); res.Valid {
		return verr.New(verr.KindState, "selftest-hash", "flipped content hash passed offline verify")
	}

	return nil
}

// clonePack deep-copies the message slice so tampering cannot touch the
// caller's pack.
func clonePack(pack model.EvidencePack) model.EvidencePack {
	out := pack
	out.Transcript.Messages = make([]model.Message, len(pack.Transcript.Messages))
	copy(out.Transcript.Messages, pack.Transcript.Messages)
	return out
}

func flipHexChar(h string) string {
	if h == "" {
		return "0"
	}
	b := []byte(h)
	if b[0] == 'a' {
		b[0] = 'b'
	} else {
		b[0] = 'a'
	}
	return string(b)
}
