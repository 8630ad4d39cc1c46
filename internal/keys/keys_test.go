package keys

import (
	"crypto/sha256"
	"os"
	"strings"
	"testing"

	"github.com/veridex/veridex/internal/model"
	"github.com/veridex/veridex/internal/verr"
)

func digestOf(s string) []byte {
	sum := sha256.Sum256([]byte(s))
	return sum[:]
}

func TestEd25519_PEMRoundTrip(t *testing.T) {
	pub, priv, err := GenerateEd25519()
	if err != nil {
		t.Fatalf("GenerateEd25519 failed: %v", err)
	}

	privPEM, err := MarshalPrivatePEM(priv)
	if err != nil {
		t.Fatalf("MarshalPrivatePEM failed: %v", err)
	}
	pubPEM, err := MarshalPublicPEM(pub)
	if err != nil {
		t.Fatalf("MarshalPublicPEM failed: %v", err)
	}

	if !strings.Contains(string(privPEM), "PRIVATE KEY") {
		t.Errorf("Private PEM missing header: %s", privPEM)
	}
	if !strings.Contains(string(pubPEM), "PUBLIC KEY") {
		t.Errorf("Public PEM missing header: %s", pubPEM)
	}

	priv2, err := ParsePrivatePEM(privPEM)
	if err != nil {
		t.Fatalf("ParsePrivatePEM failed: %v", err)
	}
	pub2, err := ParsePublicPEM(pubPEM)
	if err != nil {
		t.Fatalf("ParsePublicPEM failed: %v", err)
	}

	signer, err := NewEd25519Signer(priv2)
	if err != nil {
		t.Fatalf("NewEd25519Signer failed: %v", err)
	}
	verifier, err := NewEd25519Verifier(pub2)
	if err != nil {
		t.Fatalf("NewEd25519Verifier failed: %v", err)
	}

	digest := digestOf("envelope bytes")
	sig, err := signer.Sign(digest)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	if err := verifier.Verify(digest, sig); err != nil {
		t.Errorf("Round-tripped key failed to verify: %v", err)
	}
}

func TestParsePrivatePEM_Rejections(t *testing.T) {
	if _, err := ParsePrivatePEM([]byte("not pem at all")); err == nil {
		t.Error("Expected error for non-PEM input")
	}

	pub, _, err := GenerateEd25519()
	if err != nil {
		t.Fatalf("GenerateEd25519 failed: %v", err)
	}
	pubPEM, err := MarshalPublicPEM(pub)
	if err != nil {
		t.Fatalf("MarshalPublicPEM failed: %v", err)
	}
	if _, err := ParsePrivatePEM(pubPEM); err == nil {
		t.Error("Expected error when parsing a public block as private")
	}
}

func TestEd25519Verifier_Rejections(t *testing.T) {
	pub, priv, err := GenerateEd25519()
	if err != nil {
		t.Fatalf("GenerateEd25519 failed: %v", err)
	}
	signer, _ := NewEd25519Signer(priv)
	verifier, _ := NewEd25519Verifier(pub)

	digest := digestOf("message")
	sig, err := signer.Sign(digest)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	if err := verifier.Verify(digestOf("different message"), sig); err == nil {
		t.Error("Expected failure for a different digest")
	}
	if !verr.IsKind(verifier.Verify(digestOf("different message"), sig), verr.KindSignature) {
		t.Error("Digest mismatch should be a signature-kind error")
	}

	if err := verifier.Verify(digest, "!!not-base64!!"); err == nil {
		t.Error("Expected failure for non-base64 signature")
	}
	if err := verifier.Verify(digest, "c2hvcnQ="); err == nil {
		t.Error("Expected failure for wrong-length signature")
	}
}

func TestDilithium3_RoundTrip(t *testing.T) {
	pub, priv, err := GenerateDilithium3()
	if err != nil {
		t.Fatalf("GenerateDilithium3 failed: %v", err)
	}

	priv2, err := ParseDilithium3Private(MarshalDilithium3Private(priv))
	if err != nil {
		t.Fatalf("ParseDilithium3Private failed: %v", err)
	}
	pub2, err := ParseDilithium3Public(MarshalDilithium3Public(pub))
	if err != nil {
		t.Fatalf("ParseDilithium3Public failed: %v", err)
	}

	signer, err := NewDilithium3Signer(priv2)
	if err != nil {
		t.Fatalf("NewDilithium3Signer failed: %v", err)
	}
	verifier, err := NewDilithium3Verifier(pub2)
	if err != nil {
		t.Fatalf("NewDilithium3Verifier failed: %v", err)
	}

	digest := digestOf("envelope bytes")
	sig, err := signer.Sign(digest)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	if err := verifier.Verify(digest, sig); err != nil {
		t.Errorf("Round-tripped dilithium3 key failed to verify: %v", err)
	}
	if err := verifier.Verify(digestOf("tampered"), sig); err == nil {
		t.Error("Expected failure for tampered digest")
	}
}

func TestStore_GenerateSignVerify(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	if err := store.Generate(model.SchemeEd25519); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	info, err := os.Stat(store.PrivatePath(model.SchemeEd25519))
	if err != nil {
		t.Fatalf("Private key file missing: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("Private key permissions = %o, want 600", perm)
	}

	signer, err := store.Signer(model.SchemeEd25519)
	if err != nil {
		t.Fatalf("Signer failed: %v", err)
	}
	verifier, err := store.Verifier(model.SchemeEd25519)
	if err != nil {
		t.Fatalf("Verifier failed: %v", err)
	}

	digest := digestOf("stored key material")
	sig, err := signer.Sign(digest)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	if err := verifier.Verify(digest, sig); err != nil {
		t.Errorf("Store-loaded keys failed to verify: %v", err)
	}
}

func TestStore_NeverOverwrites(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if err := store.Generate(model.SchemeEd25519); err != nil {
		t.Fatalf("First generate failed: %v", err)
	}

	err = store.Generate(model.SchemeEd25519)
	if err == nil {
		t.Fatal("Second generate should refuse to overwrite")
	}
	if verr.Rule(err) != "key-exists" {
		t.Errorf("Expected key-exists rule, got %v", err)
	}
}

func TestStore_MissingKey(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	_, err = store.Signer(model.SchemeEd25519)
	if err == nil {
		t.Fatal("Expected error for missing key")
	}
	if !verr.IsKind(err, verr.KindKey) {
		t.Errorf("Expected key-kind error, got %v", err)
	}
}

func TestStore_UnsupportedScheme(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if err := store.Generate("rsa4096"); err == nil {
		t.Error("Expected error for unsupported scheme")
	}
}

func TestValidScheme(t *testing.T) {
	if !ValidScheme(model.SchemeEd25519) || !ValidScheme(model.SchemeDilithium3) {
		t.Error("Built-in schemes should be valid")
	}
	if ValidScheme("rot13") {
		t.Error("Unknown scheme should be invalid")
	}
}
