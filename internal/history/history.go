// Package history persists run reports in a local Badger store. Every
// value carries an at-rest digest that is recomputed on read, so a
// record that was altered on disk surfaces as corrupted instead of
// silently feeding back into reports.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/veridex/veridex/internal/canon"
	"github.com/veridex/veridex/internal/model"
)

// ErrNotFound is returned when no record exists for the requested ID.
var ErrNotFound = errors.New("history record not found")

// nowFunc is injectable for tests
var nowFunc = time.Now

const keyPrefix = "run:"

// RunRecord is one stored run
type RunRecord struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"` // "run" or "checkpoint"
	CreatedAt time.Time       `json:"created_at"`
	Status    string          `json:"status"`
	Report    json.RawMessage `json:"report,omitempty"`
}

// envelope wraps the serialized record with its at-rest digest. The
// digest covers the exact payload bytes, not a re-marshaled form.
type envelope struct {
	DigestAlg string          `json:"digest_alg"`
	Digest    string          `json:"digest"`
	Payload   json.RawMessage `json:"payload"`
}

// Store is a Badger-backed run history
type Store struct {
	db        *badger.DB
	digestAlg string
}

// DefaultDir returns the default history directory (~/.veridex/history)
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".veridex", "history")
	}
	return filepath.Join(home, ".veridex", "history")
}

// Open opens a persistent history store at the given directory
func Open(path, digestAlg string) (*Store, error) {
	if path == "" {
		return nil, errors.New("history path is required")
	}
	if err := os.MkdirAll(path, 0o750); err != nil {
		return nil, fmt.Errorf("create history directory %s: %w", path, err)
	}

	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	return newStore(db, digestAlg)
}

// OpenInMemory opens an in-memory store. Data is lost on Close.
func OpenInMemory(digestAlg string) (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open in-memory history database: %w", err)
	}

	return newStore(db, digestAlg)
}

// FromConfig creates a store from config, or nil when history is disabled
func FromConfig(cfg model.HistoryConfig) (*Store, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	path := cfg.Path
	if path == "" {
		path = DefaultDir()
	}

	return Open(path, cfg.DigestAlg)
}

func newStore(db *badger.DB, digestAlg string) (*Store, error) {
	if digestAlg == "" {
		digestAlg = "sha256"
	}
	// Reject unknown algorithms at open time, not first write
	if _, err := canon.DigestHex(digestAlg, nil); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history digest: %w", err)
	}

	return &Store{db: db, digestAlg: digestAlg}, nil
}

// Put stores a run record
func (s *Store) Put(rec RunRecord) error {
	if rec.ID == "" {
		return errors.New("record ID is required")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = nowFunc().UTC()
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	digest, err := canon.DigestHex(s.digestAlg, payload)
	if err != nil {
		return fmt.Errorf("digest record: %w", err)
	}

	value, err := json.Marshal(envelope{
		DigestAlg: s.digestAlg,
		Digest:    digest,
		Payload:   payload,
	})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPrefix+rec.ID), value)
	})
	if err != nil {
		return fmt.Errorf("store record %s: %w", rec.ID, err)
	}

	return nil
}

// Get retrieves a run record by ID, verifying its at-rest digest
func (s *Store) Get(id string) (*RunRecord, error) {
	var value []byte

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + id))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("record %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read record %s: %w", id, err)
	}

	return s.decode(id, value)
}

// List returns up to limit records, newest first. A non-positive limit
// returns everything.
func (s *Store) List(limit int) ([]RunRecord, error) {
	var records []RunRecord

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			id := string(item.Key()[len(prefix):])

			value, err := item.ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("read record %s: %w", id, err)
			}

			rec, err := s.decode(id, value)
			if err != nil {
				return err
			}
			records = append(records, *rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Keys are random run IDs, so order by time instead of key
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	return records, nil
}

// Delete removes a record. Deleting a missing ID is not an error.
func (s *Store) Delete(id string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(keyPrefix + id))
	})
	if err != nil {
		return fmt.Errorf("delete record %s: %w", id, err)
	}
	return nil
}

// Clear removes all records
func (s *Store) Clear() error {
	var keys [][]byte

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("list records: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("clear records: %w", err)
	}

	return nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// decode unpacks an envelope and verifies the at-rest digest
func (s *Store) decode(id string, value []byte) (*RunRecord, error) {
	var env envelope
	if err := json.Unmarshal(value, &env); err != nil {
		return nil, fmt.Errorf("history record corrupted: %s: %w", id, err)
	}

	digest, err := canon.DigestHex(env.DigestAlg, env.Payload)
	if err != nil {
		return nil, fmt.Errorf("history record corrupted: %s: %w", id, err)
	}
	if digest != env.Digest {
		return nil, fmt.Errorf("history record corrupted: %s: digest mismatch", id)
	}

	var rec RunRecord
	if err := json.Unmarshal(env.Payload, &rec); err != nil {
		return nil, fmt.Errorf("history record corrupted: %s: %w", id, err)
	}

	return &rec, nil
}
