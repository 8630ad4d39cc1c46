// Package canon produces the deterministic serialization that all hashing
// and signing in veridex is computed over. Equal structures canonicalize to
// byte-identical strings regardless of field order, so content hashes are
// stable across runs and across machines.
package canon

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Canonicalize renders v as compact JSON with object keys sorted
// lexicographically at every depth. Arrays keep their order. Values that
// cannot be represented as JSON degrade to their string rendering, encoded
// as a JSON string. The function is total: it never returns an error and
// never panics on data.
func Canonicalize(v any) string {
	tree, ok := toTree(v)
	if !ok {
		tree = fmt.Sprintf("%v", v)
	}
	var sb strings.Builder
	writeValue(&sb, tree)
	return sb.String()
}

// SHA256Hex returns the lowercase hex sha256 of s.
func SHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// CanonicalHash is the content hash of v: sha256 over its canonical form.
func CanonicalHash(v any) string {
	return SHA256Hex(Canonicalize(v))
}

// toTree round-trips v through JSON into the generic tree form
// (map[string]any / []any / json.Number / string / bool / nil) so that
// structs, maps and decoded JSON all canonicalize identically. Numbers are
// kept as json.Number to preserve their literal form.
func toTree(v any) (any, bool) {
	if v == nil {
		return nil, true
	}
	raw, err := encodeJSON(v)
	if err != nil {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, false
	}
	return tree, true
}

func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func writeValue(sb *strings.Builder, v any) {
	switch x := v.(type) {
	case nil:
		sb.WriteString("null")
	case bool:
		if x {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	case json.Number:
		sb.WriteString(x.String())
	case string:
		sb.WriteString(encodeString(x))
	case []any:
		sb.WriteByte('[')
		for i, elem := range x {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeValue(sb, elem)
		}
		sb.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(encodeString(k))
			sb.WriteByte(':')
			writeValue(sb, x[k])
		}
		sb.WriteByte('}')
	default:
		// Not reachable after a JSON round trip.
		sb.WriteString(encodeString(fmt.Sprintf("%v", x)))
	}
}

func encodeString(s string) string {
	raw, err := encodeJSON(s)
	if err != nil {
		return `""`
	}
	return string(raw)
}
