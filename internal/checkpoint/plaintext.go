package checkpoint

import (
	"encoding/json"
	"strings"

	"github.com/veridex/veridex/internal/model"
	"github.com/veridex/veridex/internal/verr"
)

// plaintextKeys are field names that carry conversation content. None of
// them may appear anywhere in a serialized master receipt, at any depth.
var plaintextKeys = []string{
	"transcript",
	"messages",
	"prompt",
	"completion",
	"response",
	"output_text",
	"raw_response",
}

// CheckNoPlaintext serializes the master receipt and walks the resulting
// JSON tree looking for transcript-bearing keys. A hit fails the check:
// the master receipt must stay safe to publish.
func CheckNoPlaintext(master model.MasterReceipt) error {
	raw, err := json.Marshal(master)
	if err != nil {
		return verr.Wrap(err, verr.KindFormat, "plaintext-marshal", "serialize master receipt")
	}
	var tree any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return verr.Wrap(err, verr.KindFormat, "plaintext-decode", "decode master receipt")
	}
	if key := findPlaintextKey(tree); key != "" {
		return verr.New(verr.KindState, "plaintext-leak", "master receipt contains plaintext-bearing key %q", key)
	}
	return nil
}

// findPlaintextKey returns the first denylisted key found in the tree, or
// an empty string. Matching is case-insensitive.
func findPlaintextKey(tree any) string {
	switch node := tree.(type) {
	case map[string]any:
		for k, v := range node {
			lower := strings.ToLower(k)
			for _, banned := range plaintextKeys {
				if lower == banned {
					return k
				}
			}
			if hit := findPlaintextKey(v); hit != "" {
				return hit
			}
		}
	case []any:
		for _, v := range node {
			if hit := findPlaintextKey(v); hit != "" {
				return hit
			}
		}
	}
	return ""
}
