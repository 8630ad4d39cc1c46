// Package keys manages the signing keys behind checkpoint master receipts:
// ed25519 by default, dilithium3 as the post-quantum alternative. Private
// keys live in a filesystem keystore and never leave it.
package keys

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"

	"github.com/veridex/veridex/internal/verr"
)

const (
	pemTypePrivate = "PRIVATE KEY"
	pemTypePublic  = "PUBLIC KEY"
)

// GenerateEd25519 creates a fresh ed25519 key pair.
func GenerateEd25519() (ed25519.PublicKey, ed25519.PrivateKey, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, verr.Wrap(err, verr.KindKey, "ed25519-generate", "generate ed25519 key")
	}
	return pub, priv, nil
}

// MarshalPrivatePEM encodes an ed25519 private key as PKCS#8 PEM.
func MarshalPrivatePEM(priv ed25519.PrivateKey) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, verr.Wrap(err, verr.KindKey, "pkcs8-marshal", "encode private key")
	}
	return pem.EncodeToMemory(&pem.Block{Type: pemTypePrivate, Bytes: der}), nil
}

// MarshalPublicPEM encodes an ed25519 public key as PKIX PEM.
func MarshalPublicPEM(pub ed25519.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, verr.Wrap(err, verr.KindKey, "pkix-marshal", "encode public key")
	}
	return pem.EncodeToMemory(&pem.Block{Type: pemTypePublic, Bytes: der}), nil
}

// ParsePrivatePEM decodes a PKCS#8 PEM block and requires an ed25519 key.
func ParsePrivatePEM(data []byte) (ed25519.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, verr.New(verr.KindFormat, "pem-decode", "no PEM block found")
	}
	if block.Type != pemTypePrivate {
		return nil, verr.New(verr.KindFormat, "pem-type", "expected %q PEM block, got %q", pemTypePrivate, block.Type)
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, verr.Wrap(err, verr.KindFormat, "pkcs8-parse", "parse private key")
	}
	priv, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, verr.New(verr.KindKey, "key-scheme", "private key is %T, want ed25519", parsed)
	}
	return priv, nil
}

// ParsePublicPEM decodes a PKIX PEM block and requires an ed25519 key.
func ParsePublicPEM(data []byte) (ed25519.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, verr.New(verr.KindFormat, "pem-decode", "no PEM block found")
	}
	if block.Type != pemTypePublic {
		return nil, verr.New(verr.KindFormat, "pem-type", "expected %q PEM block, got %q", pemTypePublic, block.Type)
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, verr.Wrap(err, verr.KindFormat, "pkix-parse", "parse public key")
	}
	pub, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, verr.New(verr.KindKey, "key-scheme", "public key is %T, want ed25519", parsed)
	}
	return pub, nil
}
