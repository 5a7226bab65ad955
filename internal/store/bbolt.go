package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Bucket names used in the bbolt database.
var (
	bucketMeta        = []byte("_meta")
	bucketCredentials = []byte("credentials")
)

// Keys within the _meta bucket.
var (
	metaKey     = []byte("vault_meta")
	attemptsKey = []byte("failed_attempts")
)

// Sentinel errors returned by store operations.
var (
	ErrNotFound = errors.New("not found")
	ErrCorrupt  = errors.New("stored data is corrupt")
)

// BoltStore implements Store using bbolt.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (or creates) a bbolt database at the given path and
// ensures all required buckets exist. The file is created with 0600 permissions.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	if err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketMeta, bucketCredentials} {
			if _, bErr := tx.CreateBucketIfNotExists(b); bErr != nil {
				return fmt.Errorf("create bucket %s: %w", b, bErr)
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Close closes the underlying bbolt database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// Vault metadata
// ---------------------------------------------------------------------------

// GetMeta returns the vault metadata, ErrNotFound if no vault has been
// created, or ErrCorrupt if the stored blob cannot be decoded.
func (s *BoltStore) GetMeta() (*VaultMeta, error) {
	var meta VaultMeta
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketMeta).Get(metaKey)
		if v == nil {
			return ErrNotFound
		}
		if uErr := json.Unmarshal(v, &meta); uErr != nil {
			return fmt.Errorf("%w: %v", ErrCorrupt, uErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &meta, nil
}

// SetMeta stores the vault metadata.
func (s *BoltStore) SetMeta(meta *VaultMeta) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal meta: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketMeta).Put(metaKey, data)
	})
}

// FailedAttempts returns the persisted failed-unlock counter. A missing or
// mangled counter reads as zero.
func (s *BoltStore) FailedAttempts() (uint32, error) {
	var n uint32
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketMeta).Get(attemptsKey)
		if len(v) == 4 {
			n = binary.BigEndian.Uint32(v)
		}
		return nil
	})
	return n, err
}

// SetFailedAttempts persists the failed-unlock counter.
func (s *BoltStore) SetFailedAttempts(n uint32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], n)
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketMeta).Put(attemptsKey, buf[:])
	})
}

// ---------------------------------------------------------------------------
// Credential records
// ---------------------------------------------------------------------------

// PutCredential inserts or overwrites a credential record.
func (s *BoltStore) PutCredential(rec *CredentialRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal credential: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketCredentials).Put([]byte(rec.ID), data)
	})
}

// GetCredential returns the record with the given id, or ErrNotFound.
func (s *BoltStore) GetCredential(id string) (*CredentialRecord, error) {
	var rec CredentialRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketCredentials).Get([]byte(id))
		if v == nil {
			return ErrNotFound
		}
		if uErr := json.Unmarshal(v, &rec); uErr != nil {
			return fmt.Errorf("%w: %v", ErrCorrupt, uErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListCredentials returns all stored records in key order.
func (s *BoltStore) ListCredentials() ([]*CredentialRecord, error) {
	var recs []*CredentialRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketCredentials).ForEach(func(_, v []byte) error {
			var rec CredentialRecord
			if uErr := json.Unmarshal(v, &rec); uErr != nil {
				return fmt.Errorf("%w: %v", ErrCorrupt, uErr)
			}
			recs = append(recs, &rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return recs, nil
}

// DeleteCredential removes the record with the given id, or returns
// ErrNotFound if it does not exist.
func (s *BoltStore) DeleteCredential(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCredentials)
		if b.Get([]byte(id)) == nil {
			return ErrNotFound
		}
		return b.Delete([]byte(id))
	})
}

// ReplaceAll atomically swaps the metadata and the full record set.
func (s *BoltStore) ReplaceAll(meta *VaultMeta, recs []*CredentialRecord) error {
	metaData, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal meta: %w", err)
	}

	encoded := make(map[string][]byte, len(recs))
	for _, rec := range recs {
		data, mErr := json.Marshal(rec)
		if mErr != nil {
			return fmt.Errorf("marshal credential %s: %w", rec.ID, mErr)
		}
		encoded[rec.ID] = data
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketCredentials); err != nil {
			return fmt.Errorf("drop credentials: %w", err)
		}
		b, err := tx.CreateBucket(bucketCredentials)
		if err != nil {
			return fmt.Errorf("recreate credentials: %w", err)
		}
		for id, data := range encoded {
			if err := b.Put([]byte(id), data); err != nil {
				return err
			}
		}
		mb := tx.Bucket(bucketMeta)
		if err := mb.Put(metaKey, metaData); err != nil {
			return err
		}
		var zero [4]byte
		return mb.Put(attemptsKey, zero[:])
	})
}

// DeleteAll removes the metadata, the counter and every credential record in
// a single transaction. After this the store reports no vault.
func (s *BoltStore) DeleteAll() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		if err := meta.Delete(metaKey); err != nil {
			return err
		}
		if err := meta.Delete(attemptsKey); err != nil {
			return err
		}
		if err := tx.DeleteBucket(bucketCredentials); err != nil {
			return fmt.Errorf("drop credentials: %w", err)
		}
		_, err := tx.CreateBucket(bucketCredentials)
		return err
	})
}
