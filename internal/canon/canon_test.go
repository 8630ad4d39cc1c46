package canon

import (
	"strings"
	"testing"
)

func TestCanonicalize_SortsKeysAtEveryDepth(t *testing.T) {
	a := map[string]any{"z": 1, "a": map[string]any{"b": []any{2, 1}}}
	b := map[string]any{"a": map[string]any{"b": []any{2, 1}}, "z": 1}

	ca := Canonicalize(a)
	cb := Canonicalize(b)

	if ca != cb {
		t.Errorf("Key order changed the canonical form:\n%s\n%s", ca, cb)
	}
	want := `{"a":{"b":[2,1]},"z":1}`
	if ca != want {
		t.Errorf("Canonical form = %s, want %s", ca, want)
	}
}

func TestCanonicalize_ArraysKeepOrder(t *testing.T) {
	got := Canonicalize([]any{3, 1, 2})
	if got != "[3,1,2]" {
		t.Errorf("Array order not preserved: %s", got)
	}
}

func TestCanonicalize_Scalars(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{nil, "null"},
		{true, "true"},
		{false, "false"},
		{42, "42"},
		{4.5, "4.5"},
		{"plain", `"plain"`},
		{`quote " and \ backslash`, `"quote \" and \\ backslash"`},
		{"", `""`},
	}
	for _, c := range cases {
		if got := Canonicalize(c.in); got != c.want {
			t.Errorf("Canonicalize(%v) = %s, want %s", c.in, got, c.want)
		}
	}
}

func TestCanonicalize_StructAndMapAgree(t *testing.T) {
	type inner struct {
		B []int `json:"b"`
	}
	type outer struct {
		Z int   `json:"z"`
		A inner `json:"a"`
	}
	s := Canonicalize(outer{Z: 1, A: inner{B: []int{2, 1}}})
	m := Canonicalize(map[string]any{"a": map[string]any{"b": []any{2, 1}}, "z": 1})
	if s != m {
		t.Errorf("Struct and map canonical forms differ:\n%s\n%s", s, m)
	}
}

func TestCanonicalize_UnicodePassthrough(t *testing.T) {
	got := Canonicalize(map[string]any{"text": "héllo wörld 日本語"})
	if !strings.Contains(got, "héllo wörld 日本語") {
		t.Errorf("Unicode was escaped or mangled: %s", got)
	}
}

func TestCanonicalize_NoHTMLEscaping(t *testing.T) {
	got := Canonicalize("<b>&</b>")
	if got != `"<b>&</b>"` {
		t.Errorf("HTML characters should pass through verbatim, got %s", got)
	}
}

func TestCanonicalize_LargeIntegerKeepsLiteral(t *testing.T) {
	got := Canonicalize(map[string]any{"n": int64(9007199254740993)})
	if !strings.Contains(got, "9007199254740993") {
		t.Errorf("Large integer lost precision: %s", got)
	}
}

func TestCanonicalize_UnencodableFallsBackToString(t *testing.T) {
	ch := make(chan int)
	got := Canonicalize(ch)
	if !strings.HasPrefix(got, `"`) || !strings.HasSuffix(got, `"`) {
		t.Errorf("Unencodable value should degrade to a JSON string, got %s", got)
	}
}

func TestCanonicalize_Deterministic(t *testing.T) {
	v := map[string]any{
		"model":    "test-model",
		"messages": []any{map[string]any{"role": "user", "content": "hi"}},
		"nested":   map[string]any{"y": 2, "x": 1},
	}
	first := Canonicalize(v)
	for i := 0; i < 50; i++ {
		if got := Canonicalize(v); got != first {
			t.Fatalf("Canonical form changed on iteration %d:\n%s\n%s", i, first, got)
		}
	}
}

func TestSHA256Hex(t *testing.T) {
	// Well-known vector: sha256 of the empty string.
	got := SHA256Hex("")
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got != want {
		t.Errorf("SHA256Hex(\"\") = %s, want %s", got, want)
	}
}

func TestCanonicalHash_StableAcrossKeyOrder(t *testing.T) {
	h1 := CanonicalHash(map[string]any{"b": 2, "a": 1})
	h2 := CanonicalHash(map[string]any{"a": 1, "b": 2})
	if h1 != h2 {
		t.Errorf("Hash depends on key order: %s vs %s", h1, h2)
	}
	if len(h1) != 64 {
		t.Errorf("Expected 64 hex chars, got %d", len(h1))
	}
}

func TestDigestHex_Algorithms(t *testing.T) {
	data := []byte("veridex")
	for _, alg := range []string{AlgSHA256, AlgSHA512, AlgSHA3256} {
		got, err := DigestHex(alg, data)
		if err != nil {
			t.Fatalf("DigestHex(%s) failed: %v", alg, err)
		}
		if len(got) == 0 {
			t.Errorf("DigestHex(%s) returned empty digest", alg)
		}
	}

	if _, err := DigestHex("md5", data); err == nil {
		t.Error("Expected error for unsupported algorithm, got nil")
	}
}

func TestDigestHex_SHA256MatchesSHA256Hex(t *testing.T) {
	got, err := DigestHex(AlgSHA256, []byte("same bytes"))
	if err != nil {
		t.Fatalf("DigestHex failed: %v", err)
	}
	if got != SHA256Hex("same bytes") {
		t.Errorf("sha256 digests disagree: %s vs %s", got, SHA256Hex("same bytes"))
	}
}

func TestCIDv1RawSHA256(t *testing.T) {
	c, err := CIDv1RawSHA256([]byte("canonical transcript bytes"))
	if err != nil {
		t.Fatalf("CIDv1RawSHA256 failed: %v", err)
	}
	// CIDv1 raw + sha2-256 always encodes with this base32 prefix.
	if !strings.HasPrefix(c, "bafkrei") {
		t.Errorf("Unexpected CID form: %s", c)
	}

	again, err := CIDv1RawSHA256([]byte("canonical transcript bytes"))
	if err != nil {
		t.Fatalf("CIDv1RawSHA256 failed: %v", err)
	}
	if c != again {
		t.Errorf("CID not deterministic: %s vs %s", c, again)
	}
}
