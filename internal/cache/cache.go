package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// CompletionKey generates a cache key for one completion call. Provider,
// model and prompt all participate: the same prompt against a different
// model is a different entry.
func CompletionKey(provider, model, prompt string) string {
	hash := sha256.Sum256([]byte(strings.Join([]string{provider, model, prompt}, "|")))
	return "veridex:v1:" + hex.EncodeToString(hash[:])
}

// DefaultDir returns the default disk cache directory
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".veridex", "cache"), nil
}
