package keys

import (
	"crypto/ed25519"
	"encoding/base64"
	"strings"

	"github.com/cloudflare/circl/sign/dilithium/mode3"

	"github.com/veridex/veridex/internal/model"
	"github.com/veridex/veridex/internal/verr"
)

// Signer produces a detached base64 signature over a pre-hashed envelope
// digest. Implementations exist for each scheme in the closed set.
type Signer interface {
	Scheme() string
	Sign(digest []byte) (string, error)
}

// Verifier checks a detached base64 signature over a digest. A nil return
// means the signature is good; failures carry a structured error.
type Verifier interface {
	Scheme() string
	Verify(digest []byte, signature string) error
}

// ValidScheme reports whether scheme is one of the supported signature
// schemes.
func ValidScheme(scheme string) bool {
	return scheme == model.SchemeEd25519 || scheme == model.SchemeDilithium3
}

type ed25519Signer struct{ priv ed25519.PrivateKey }

// NewEd25519Signer wraps an ed25519 private key as a Signer.
func NewEd25519Signer(priv ed25519.PrivateKey) (Signer, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return nil, verr.New(verr.KindKey, "ed25519-key-size", "private key is %d bytes, want %d", len(priv), ed25519.PrivateKeySize)
	}
	return ed25519Signer{priv: priv}, nil
}

func (s ed25519Signer) Scheme() string { return model.SchemeEd25519 }

func (s ed25519Signer) Sign(digest []byte) (string, error) {
	sig := ed25519.Sign(s.priv, digest)
	return base64.StdEncoding.EncodeToString(sig), nil
}

type ed25519Verifier struct{ pub ed25519.PublicKey }

// NewEd25519Verifier wraps an ed25519 public key as a Verifier.
func NewEd25519Verifier(pub ed25519.PublicKey) (Verifier, error) {
	if len(pub) != ed25519.PublicKeySize {
		return nil, verr.New(verr.KindKey, "ed25519-key-size", "public key is %d bytes, want %d", len(pub), ed25519.PublicKeySize)
	}
	return ed25519Verifier{pub: pub}, nil
}

func (v ed25519Verifier) Scheme() string { return model.SchemeEd25519 }

func (v ed25519Verifier) Verify(digest []byte, signature string) error {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return verr.Wrap(err, verr.KindFormat, "sig-base64", "decode signature")
	}
	if len(raw) != ed25519.SignatureSize {
		return verr.New(verr.KindSignature, "sig-size", "signature is %d bytes, want %d", len(raw), ed25519.SignatureSize)
	}
	if !ed25519.Verify(v.pub, digest, raw) {
		return verr.New(verr.KindSignature, "ed25519-verify", "ed25519 signature verification failed")
	}
	return nil
}

type dilithium3Signer struct{ priv *mode3.PrivateKey }

// NewDilithium3Signer wraps a dilithium3 private key as a Signer.
func NewDilithium3Signer(priv *mode3.PrivateKey) (Signer, error) {
	if priv == nil {
		return nil, verr.New(verr.KindKey, "dilithium3-nil", "private key is nil")
	}
	return dilithium3Signer{priv: priv}, nil
}

func (s dilithium3Signer) Scheme() string { return model.SchemeDilithium3 }

func (s dilithium3Signer) Sign(digest []byte) (string, error) {
	sig := make([]byte, mode3.SignatureSize)
	mode3.SignTo(s.priv, digest, sig)
	return base64.StdEncoding.EncodeToString(sig), nil
}

type dilithium3Verifier struct{ pub *mode3.PublicKey }

// NewDilithium3Verifier wraps a dilithium3 public key as a Verifier.
func NewDilithium3Verifier(pub *mode3.PublicKey) (Verifier, error) {
	if pub == nil {
		return nil, verr.New(verr.KindKey, "dilithium3-nil", "public key is nil")
	}
	return dilithium3Verifier{pub: pub}, nil
}

func (v dilithium3Verifier) Scheme() string { return model.SchemeDilithium3 }

func (v dilithium3Verifier) Verify(digest []byte, signature string) error {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return verr.Wrap(err, verr.KindFormat, "sig-base64", "decode signature")
	}
	if len(raw) != mode3.SignatureSize {
		return verr.New(verr.KindSignature, "sig-size", "signature is %d bytes, want %d", len(raw), mode3.SignatureSize)
	}
	if !mode3.Verify(v.pub, digest, raw) {
		return verr.New(verr.KindSignature, "dilithium3-verify", "dilithium3 signature verification failed")
	}
	return nil
}
