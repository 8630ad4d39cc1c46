package keys

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/cloudflare/circl/sign/dilithium/mode3"

	"github.com/veridex/veridex/internal/verr"
)

// GenerateDilithium3 creates a fresh dilithium3 key pair.
func GenerateDilithium3() (*mode3.PublicKey, *mode3.PrivateKey, error) {
	pub, priv, err := mode3.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, verr.Wrap(err, verr.KindKey, "dilithium3-generate", "generate dilithium3 key")
	}
	return pub, priv, nil
}

// MarshalDilithium3Private encodes a dilithium3 private key as base64.
func MarshalDilithium3Private(priv *mode3.PrivateKey) []byte {
	return []byte(base64.StdEncoding.EncodeToString(priv.Bytes()) + "\n")
}

// MarshalDilithium3Public encodes a dilithium3 public key as base64.
func MarshalDilithium3Public(pub *mode3.PublicKey) []byte {
	return []byte(base64.StdEncoding.EncodeToString(pub.Bytes()) + "\n")
}

// ParseDilithium3Private decodes a base64 dilithium3 private key.
func ParseDilithium3Private(data []byte) (*mode3.PrivateKey, error) {
	raw, err := base64.StdEncoding.DecodeString(trimKeyFile(data))
	if err != nil {
		return nil, verr.Wrap(err, verr.KindFormat, "dilithium3-base64", "decode private key")
	}
	var priv mode3.PrivateKey
	if err := priv.UnmarshalBinary(raw); err != nil {
		return nil, verr.Wrap(err, verr.KindKey, "dilithium3-unpack", "unpack private key")
	}
	return &priv, nil
}

// ParseDilithium3Public decodes a base64 dilithium3 public key.
func ParseDilithium3Public(data []byte) (*mode3.PublicKey, error) {
	raw, err := base64.StdEncoding.DecodeString(trimKeyFile(data))
	if err != nil {
		return nil, verr.Wrap(err, verr.KindFormat, "dilithium3-base64", "decode public key")
	}
	var pub mode3.PublicKey
	if err := pub.UnmarshalBinary(raw); err != nil {
		return nil, verr.Wrap(err, verr.KindKey, "dilithium3-unpack", "unpack public key")
	}
	return &pub, nil
}
