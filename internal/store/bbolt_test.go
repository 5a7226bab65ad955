package store

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/nihmadev/Axion/internal/crypto"
)

func newTestStore(t *testing.T) *BoltStore {
	t.Helper()
	s, err := NewBoltStore(filepath.Join(t.TempDir(), "passwords.db"))
	if err != nil {
		t.Fatalf("NewBoltStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testMeta() *VaultMeta {
	return &VaultMeta{
		Version:   1,
		Salt:      bytes.Repeat([]byte{0xab}, crypto.SaltSize),
		KDF:       crypto.DefaultParams(),
		Verifier:  []byte("sealed"),
		CreatedAt: time.Now().UTC(),
		VaultID:   "test-vault",
	}
}

func testRecord(id string) *CredentialRecord {
	now := time.Now().UTC()
	return &CredentialRecord{
		ID:                id,
		URL:               "https://example.com",
		Username:          "alice",
		EncryptedPassword: []byte("ciphertext"),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func TestMeta_RoundTrip(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.GetMeta(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on empty store, got %v", err)
	}

	meta := testMeta()
	if err := s.SetMeta(meta); err != nil {
		t.Fatalf("SetMeta: %v", err)
	}

	got, err := s.GetMeta()
	if err != nil {
		t.Fatalf("GetMeta: %v", err)
	}
	if !bytes.Equal(got.Salt, meta.Salt) || got.VaultID != meta.VaultID {
		t.Fatalf("meta mismatch: got %+v", got)
	}
	if got.KDF != meta.KDF {
		t.Fatalf("KDF params mismatch: got %+v, want %+v", got.KDF, meta.KDF)
	}
}

func TestMeta_Corrupt(t *testing.T) {
	s := newTestStore(t)
	if err := s.SetMeta(testMeta()); err != nil {
		t.Fatalf("SetMeta: %v", err)
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketMeta).Put(metaKey, []byte("{not json"))
	})
	if err != nil {
		t.Fatalf("corrupt meta: %v", err)
	}

	if _, err := s.GetMeta(); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}

func TestFailedAttempts(t *testing.T) {
	s := newTestStore(t)

	n, err := s.FailedAttempts()
	if err != nil {
		t.Fatalf("FailedAttempts: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 on fresh store, got %d", n)
	}

	if err := s.SetFailedAttempts(14); err != nil {
		t.Fatalf("SetFailedAttempts: %v", err)
	}
	n, err = s.FailedAttempts()
	if err != nil {
		t.Fatalf("FailedAttempts: %v", err)
	}
	if n != 14 {
		t.Fatalf("expected 14, got %d", n)
	}
}

// The counter must survive metadata corruption so failed unlocks keep
// counting toward the self-destruct threshold.
func TestFailedAttempts_SurvivesCorruptMeta(t *testing.T) {
	s := newTestStore(t)
	if err := s.SetMeta(testMeta()); err != nil {
		t.Fatalf("SetMeta: %v", err)
	}
	if err := s.SetFailedAttempts(3); err != nil {
		t.Fatalf("SetFailedAttempts: %v", err)
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketMeta).Put(metaKey, []byte("garbage"))
	})
	if err != nil {
		t.Fatalf("corrupt meta: %v", err)
	}

	n, err := s.FailedAttempts()
	if err != nil {
		t.Fatalf("FailedAttempts: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected counter 3 after corruption, got %d", n)
	}
	if err := s.SetFailedAttempts(4); err != nil {
		t.Fatalf("SetFailedAttempts after corruption: %v", err)
	}
}

func TestCredentials_CRUD(t *testing.T) {
	s := newTestStore(t)

	if err := s.PutCredential(testRecord("a")); err != nil {
		t.Fatalf("PutCredential: %v", err)
	}
	if err := s.PutCredential(testRecord("b")); err != nil {
		t.Fatalf("PutCredential: %v", err)
	}

	got, err := s.GetCredential("a")
	if err != nil {
		t.Fatalf("GetCredential: %v", err)
	}
	if got.Username != "alice" {
		t.Fatalf("unexpected record: %+v", got)
	}

	recs, err := s.ListCredentials()
	if err != nil {
		t.Fatalf("ListCredentials: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}

	if err := s.DeleteCredential("a"); err != nil {
		t.Fatalf("DeleteCredential: %v", err)
	}
	if _, err := s.GetCredential("a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.DeleteCredential("a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on double delete, got %v", err)
	}
}

func TestReplaceAll(t *testing.T) {
	s := newTestStore(t)
	if err := s.SetMeta(testMeta()); err != nil {
		t.Fatalf("SetMeta: %v", err)
	}
	if err := s.SetFailedAttempts(5); err != nil {
		t.Fatalf("SetFailedAttempts: %v", err)
	}
	if err := s.PutCredential(testRecord("old")); err != nil {
		t.Fatalf("PutCredential: %v", err)
	}

	newMeta := testMeta()
	newMeta.VaultID = "rotated"
	if err := s.ReplaceAll(newMeta, []*CredentialRecord{testRecord("new")}); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	meta, err := s.GetMeta()
	if err != nil {
		t.Fatalf("GetMeta: %v", err)
	}
	if meta.VaultID != "rotated" {
		t.Fatalf("expected rotated meta, got %q", meta.VaultID)
	}

	if _, err := s.GetCredential("old"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("old record should be gone, got %v", err)
	}
	if _, err := s.GetCredential("new"); err != nil {
		t.Fatalf("new record missing: %v", err)
	}

	n, err := s.FailedAttempts()
	if err != nil {
		t.Fatalf("FailedAttempts: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected counter reset by ReplaceAll, got %d", n)
	}
}

func TestDeleteAll(t *testing.T) {
	s := newTestStore(t)
	if err := s.SetMeta(testMeta()); err != nil {
		t.Fatalf("SetMeta: %v", err)
	}
	if err := s.PutCredential(testRecord("a")); err != nil {
		t.Fatalf("PutCredential: %v", err)
	}

	if err := s.DeleteAll(); err != nil {
		t.Fatalf("DeleteAll: %v", err)
	}

	if _, err := s.GetMeta(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after DeleteAll, got %v", err)
	}
	recs, err := s.ListCredentials()
	if err != nil {
		t.Fatalf("ListCredentials: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("expected no records, got %d", len(recs))
	}
}
