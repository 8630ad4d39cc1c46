package keys

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/veridex/veridex/internal/model"
	"github.com/veridex/veridex/internal/verr"
)

// Store persists checkpoint signing keys under one directory, one file pair
// per scheme: <scheme>.key holds the private key, <scheme>.pub the public
// key. ed25519 pairs are PEM, dilithium3 pairs are base64 packed keys.
type Store struct {
	Dir string
}

// DefaultDir returns ~/.veridex/keys.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", verr.Wrap(err, verr.KindIO, "home-dir", "find home directory")
	}
	return filepath.Join(home, ".veridex", "keys"), nil
}

// NewStore opens a keystore at dir, or the default directory when dir is
// empty. The directory is created on first write, not here.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		var err error
		dir, err = DefaultDir()
		if err != nil {
			return nil, err
		}
	}
	return &Store{Dir: dir}, nil
}

// PrivatePath returns the private key file for scheme.
func (s *Store) PrivatePath(scheme string) string {
	return filepath.Join(s.Dir, scheme+".key")
}

// PublicPath returns the public key file for scheme.
func (s *Store) PublicPath(scheme string) string {
	return filepath.Join(s.Dir, scheme+".pub")
}

// Generate creates and stores a fresh key pair for scheme. Existing key
// files are never overwritten; delete them first to rotate.
func (s *Store) Generate(scheme string) error {
	switch scheme {
	case model.SchemeEd25519:
		pub, priv, err := GenerateEd25519()
		if err != nil {
			return err
		}
		privPEM, err := MarshalPrivatePEM(priv)
		if err != nil {
			return err
		}
		pubPEM, err := MarshalPublicPEM(pub)
		if err != nil {
			return err
		}
		if err := s.writeKeyFile(s.PrivatePath(scheme), privPEM); err != nil {
			return err
		}
		return s.writeKeyFile(s.PublicPath(scheme), pubPEM)

	case model.SchemeDilithium3:
		pub, priv, err := GenerateDilithium3()
		if err != nil {
			return err
		}
		if err := s.writeKeyFile(s.PrivatePath(scheme), MarshalDilithium3Private(priv)); err != nil {
			return err
		}
		return s.writeKeyFile(s.PublicPath(scheme), MarshalDilithium3Public(pub))

	default:
		return verr.New(verr.KindKey, "unsupported-scheme", "unsupported signature scheme %q", scheme)
	}
}

// Signer loads the private key for scheme and wraps it as a Signer.
func (s *Store) Signer(scheme string) (Signer, error) {
	data, err := s.readKeyFile(s.PrivatePath(scheme))
	if err != nil {
		return nil, err
	}
	switch scheme {
	case model.SchemeEd25519:
		priv, err := ParsePrivatePEM(data)
		if err != nil {
			return nil, err
		}
		return NewEd25519Signer(priv)
	case model.SchemeDilithium3:
		priv, err := ParseDilithium3Private(data)
		if err != nil {
			return nil, err
		}
		return NewDilithium3Signer(priv)
	default:
		return nil, verr.New(verr.KindKey, "unsupported-scheme", "unsupported signature scheme %q", scheme)
	}
}

// Verifier loads the public key for scheme and wraps it as a Verifier.
func (s *Store) Verifier(scheme string) (Verifier, error) {
	data, err := s.readKeyFile(s.PublicPath(scheme))
	if err != nil {
		return nil, err
	}
	return ParseVerifier(scheme, data)
}

// ParseVerifier builds a Verifier from raw public key file contents.
func ParseVerifier(scheme string, data []byte) (Verifier, error) {
	switch scheme {
	case model.SchemeEd25519:
		pub, err := ParsePublicPEM(data)
		if err != nil {
			return nil, err
		}
		return NewEd25519Verifier(pub)
	case model.SchemeDilithium3:
		pub, err := ParseDilithium3Public(data)
		if err != nil {
			return nil, err
		}
		return NewDilithium3Verifier(pub)
	default:
		return nil, verr.New(verr.KindKey, "unsupported-scheme", "unsupported signature scheme %q", scheme)
	}
}

func (s *Store) writeKeyFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return verr.Wrap(err, verr.KindIO, "keystore-mkdir", "create keystore directory")
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if os.IsExist(err) {
			return verr.New(verr.KindIO, "key-exists", "key file already exists: %s", path)
		}
		return verr.Wrap(err, verr.KindIO, "key-write", "create key file %s", path)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return verr.Wrap(err, verr.KindIO, "key-write", "write key file %s", path)
	}
	return f.Close()
}

func (s *Store) readKeyFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, verr.New(verr.KindKey, "key-missing", "no key file at %s (run `veridex keys generate` first)", path)
		}
		return nil, verr.Wrap(err, verr.KindIO, "key-read", "read key file %s", path)
	}
	return data, nil
}

func trimKeyFile(data []byte) string {
	return strings.TrimSpace(string(data))
}
