package cache

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/rohankatakam/sceneaudit/internal/treesitter"
)

const bucketName = "declarations"

// storedDeclarations is the on-disk record for one script.
type storedDeclarations struct {
	Digest string   `json:"digest"`
	Fields []string `json:"fields"`
}

// BoltStore persists extracted declarations across runs in a bbolt file.
// Records are keyed by script path and only served while the digest of the
// source (and extraction options) still matches.
type BoltStore struct {
	db *bolt.DB
}

// OpenBoltStore opens or creates the store at path.
func OpenBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open declaration store %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize declaration store: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Load returns the fields stored for path if they were computed from a
// source with the same digest.
func (s *BoltStore) Load(path, digest string) (treesitter.FieldSet, bool, error) {
	var rec storedDeclarations
	found := false

	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		if bucket == nil {
			return nil
		}
		data := bucket.Get([]byte(path))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &rec)
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to load declarations for %s: %w", path, err)
	}
	if !found || rec.Digest != digest {
		return nil, false, nil
	}

	return treesitter.NewFieldSet(rec.Fields...), true, nil
}

// Save records the fields extracted from a source with the given digest.
func (s *BoltStore) Save(path, digest string, fields treesitter.FieldSet) error {
	data, err := json.Marshal(storedDeclarations{Digest: digest, Fields: fields.Names()})
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		if err != nil {
			return err
		}
		return bucket.Put([]byte(path), data)
	})
}

// Close closes the underlying database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}
