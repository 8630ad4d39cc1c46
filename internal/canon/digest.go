package canon

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// Digest algorithms accepted by DigestHex.
const (
	AlgSHA256  = "sha256"
	AlgSHA512  = "sha512"
	AlgSHA3256 = "sha3-256"
)

// DigestHex hashes data with the named algorithm and returns lowercase hex.
// The algorithm set is closed; anything else is an error.
func DigestHex(alg string, data []byte) (string, error) {
	switch alg {
	case AlgSHA256:
		sum := sha256.Sum256(data)
		return hex.EncodeToString(sum[:]), nil
	case AlgSHA512:
		sum := sha512.Sum512(data)
		return hex.EncodeToString(sum[:]), nil
	case AlgSHA3256:
		sum := sha3.Sum256(data)
		return hex.EncodeToString(sum[:]), nil
	default:
		return "", fmt.Errorf("unsupported digest algorithm: %q (want sha256, sha512, or sha3-256)", alg)
	}
}
