package vault

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/nihmadev/Axion/internal/crypto"
)

const testMasterPassword = "correct-horse-battery"

// fastOptions keeps Argon2id cheap in tests.
func fastOptions() Options {
	return Options{KDF: crypto.Params{Time: 1, Memory: 8 * 1024, Threads: 1}}
}

func openTestVault(t *testing.T) *Vault {
	t.Helper()
	v, err := Open(filepath.Join(t.TempDir(), "vault"), fastOptions())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { v.Close() })
	return v
}

func createTestVault(t *testing.T) *Vault {
	t.Helper()
	v := openTestVault(t)
	if err := v.Create(testMasterPassword); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return v
}

func TestCreate(t *testing.T) {
	v := openTestVault(t)

	if v.Exists() {
		t.Fatal("fresh vault should not exist")
	}
	if err := v.Create(testMasterPassword); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !v.Exists() {
		t.Fatal("vault should exist after Create")
	}
	if !v.IsUnlocked() {
		t.Fatal("vault should be unlocked after Create")
	}
}

func TestCreate_ShortPassword(t *testing.T) {
	v := openTestVault(t)
	if err := v.Create("short"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if v.Exists() {
		t.Fatal("failed Create should not leave a vault behind")
	}
}

func TestCreate_AlreadyExists(t *testing.T) {
	v := createTestVault(t)
	if err := v.Create(testMasterPassword); !errors.Is(err, ErrVaultExists) {
		t.Fatalf("expected ErrVaultExists, got %v", err)
	}
}

func TestUnlock(t *testing.T) {
	v := createTestVault(t)
	v.Lock()
	if v.IsUnlocked() {
		t.Fatal("vault should be locked after Lock")
	}

	if err := v.Unlock("wrong-password"); !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("expected ErrWrongPassword, got %v", err)
	}
	if err := v.Unlock(testMasterPassword); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if !v.IsUnlocked() {
		t.Fatal("vault should be unlocked")
	}

	// Unlocking an unlocked vault is a no-op, even with a wrong password.
	if err := v.Unlock("wrong-password"); err != nil {
		t.Fatalf("Unlock while unlocked: %v", err)
	}
}

func TestUnlock_NoVault(t *testing.T) {
	v := openTestVault(t)
	if err := v.Unlock(testMasterPassword); !errors.Is(err, ErrNoVault) {
		t.Fatalf("expected ErrNoVault, got %v", err)
	}
}

func TestUnlock_SelfDestruct(t *testing.T) {
	v := createTestVault(t)
	if _, err := v.AddPassword("https://example.com", "alice", "hunter22"); err != nil {
		t.Fatalf("AddPassword: %v", err)
	}
	v.Lock()

	for i := uint32(1); i < DefaultMaxFailedAttempts; i++ {
		if err := v.Unlock("wrong-password"); !errors.Is(err, ErrWrongPassword) {
			t.Fatalf("attempt %d: expected ErrWrongPassword, got %v", i, err)
		}
		remaining, err := v.RemainingAttempts()
		if err != nil {
			t.Fatalf("RemainingAttempts: %v", err)
		}
		if remaining != DefaultMaxFailedAttempts-i {
			t.Fatalf("attempt %d: expected %d remaining, got %d", i, DefaultMaxFailedAttempts-i, remaining)
		}
	}

	// The final attempt deletes the vault.
	if err := v.Unlock("wrong-password"); !errors.Is(err, ErrVaultDeleted) {
		t.Fatalf("expected ErrVaultDeleted, got %v", err)
	}
	if v.Exists() {
		t.Fatal("vault should be gone after self-destruct")
	}

	// Even the correct password cannot recover it.
	if err := v.Unlock(testMasterPassword); !errors.Is(err, ErrNoVault) {
		t.Fatalf("expected ErrNoVault after self-destruct, got %v", err)
	}
}

func TestUnlock_CounterResetOnSuccess(t *testing.T) {
	v := createTestVault(t)
	v.Lock()

	for i := 0; i < 5; i++ {
		if err := v.Unlock("wrong-password"); !errors.Is(err, ErrWrongPassword) {
			t.Fatalf("expected ErrWrongPassword, got %v", err)
		}
	}
	if err := v.Unlock(testMasterPassword); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	v.Lock()

	remaining, err := v.RemainingAttempts()
	if err != nil {
		t.Fatalf("RemainingAttempts: %v", err)
	}
	if remaining != DefaultMaxFailedAttempts {
		t.Fatalf("expected full attempt allowance after success, got %d", remaining)
	}
}

func TestUnlock_CorruptVerifierPenalized(t *testing.T) {
	v := createTestVault(t)
	v.Lock()

	// Truncate the verifier ciphertext in place. Tampered storage must
	// look exactly like a wrong password and consume an attempt, so
	// corrupting the vault never buys a free retry.
	meta, err := v.store.GetMeta()
	if err != nil {
		t.Fatalf("GetMeta: %v", err)
	}
	meta.Verifier = meta.Verifier[:3]
	if err := v.store.SetMeta(meta); err != nil {
		t.Fatalf("SetMeta: %v", err)
	}

	if err := v.Unlock(testMasterPassword); !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("expected ErrWrongPassword for corrupt verifier, got %v", err)
	}
	remaining, err := v.RemainingAttempts()
	if err != nil {
		t.Fatalf("RemainingAttempts: %v", err)
	}
	if remaining != DefaultMaxFailedAttempts-1 {
		t.Fatalf("corruption should consume an attempt, got %d remaining", remaining)
	}
}

func TestUnlock_CustomThreshold(t *testing.T) {
	opts := fastOptions()
	opts.MaxFailedAttempts = 3
	v, err := Open(filepath.Join(t.TempDir(), "vault"), opts)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer v.Close()
	if err := v.Create(testMasterPassword); err != nil {
		t.Fatalf("Create: %v", err)
	}
	v.Lock()

	for i := 0; i < 2; i++ {
		if err := v.Unlock("wrong-password"); !errors.Is(err, ErrWrongPassword) {
			t.Fatalf("expected ErrWrongPassword, got %v", err)
		}
	}
	if err := v.Unlock("wrong-password"); !errors.Is(err, ErrVaultDeleted) {
		t.Fatalf("expected ErrVaultDeleted on third failure, got %v", err)
	}
}

func TestLock_Idempotent(t *testing.T) {
	v := createTestVault(t)
	v.Lock()
	v.Lock()
	if v.IsUnlocked() {
		t.Fatal("vault should stay locked")
	}
}

func TestPersistence_AcrossReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "vault")

	v, err := Open(dir, fastOptions())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := v.Create(testMasterPassword); err != nil {
		t.Fatalf("Create: %v", err)
	}
	entry, err := v.AddPassword("https://example.com", "alice", "hunter22")
	if err != nil {
		t.Fatalf("AddPassword: %v", err)
	}
	v.Close()

	v2, err := Open(dir, fastOptions())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer v2.Close()

	if !v2.Exists() {
		t.Fatal("vault should exist after reopen")
	}
	if v2.IsUnlocked() {
		t.Fatal("vault should be locked after reopen")
	}
	if err := v2.Unlock(testMasterPassword); err != nil {
		t.Fatalf("Unlock: %v", err)
	}

	got, err := v2.GetPassword(entry.ID)
	if err != nil {
		t.Fatalf("GetPassword: %v", err)
	}
	if got.Password != "hunter22" {
		t.Fatalf("expected stored password, got %q", got.Password)
	}
}

func TestChangeMasterPassword(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "vault")
	v, err := Open(dir, fastOptions())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := v.Create(testMasterPassword); err != nil {
		t.Fatalf("Create: %v", err)
	}
	entry, err := v.AddPassword("https://example.com", "alice", "hunter22")
	if err != nil {
		t.Fatalf("AddPassword: %v", err)
	}

	const newPassword = "new-master-password"
	if err := v.ChangeMasterPassword(testMasterPassword, newPassword); err != nil {
		t.Fatalf("ChangeMasterPassword: %v", err)
	}

	// Session stays unlocked under the new key.
	got, err := v.GetPassword(entry.ID)
	if err != nil {
		t.Fatalf("GetPassword after rotation: %v", err)
	}
	if got.Password != "hunter22" {
		t.Fatalf("expected password preserved, got %q", got.Password)
	}
	v.Close()

	v2, err := Open(dir, fastOptions())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer v2.Close()

	if err := v2.Unlock(testMasterPassword); !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("old password should be rejected, got %v", err)
	}
	if err := v2.Unlock(newPassword); err != nil {
		t.Fatalf("Unlock with new password: %v", err)
	}
	got, err = v2.GetPassword(entry.ID)
	if err != nil {
		t.Fatalf("GetPassword: %v", err)
	}
	if got.Password != "hunter22" {
		t.Fatalf("expected password preserved across rotation, got %q", got.Password)
	}
}

func TestChangeMasterPassword_WrongOld(t *testing.T) {
	v := createTestVault(t)
	if err := v.ChangeMasterPassword("not-the-password", "another-password"); !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("expected ErrWrongPassword, got %v", err)
	}
	// The old password still works.
	v.Lock()
	if err := v.Unlock(testMasterPassword); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
}

func TestChangeMasterPassword_Locked(t *testing.T) {
	v := createTestVault(t)
	v.Lock()
	if err := v.ChangeMasterPassword(testMasterPassword, "another-password"); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}

func TestDestroy(t *testing.T) {
	v := createTestVault(t)
	if _, err := v.AddPassword("https://example.com", "alice", "hunter22"); err != nil {
		t.Fatalf("AddPassword: %v", err)
	}

	if err := v.Destroy(); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if v.Exists() {
		t.Fatal("vault should not exist after Destroy")
	}
	if v.IsUnlocked() {
		t.Fatal("session should be locked after Destroy")
	}

	// The store is reusable: a new vault can be created in place.
	if err := v.Create("fresh-password"); err != nil {
		t.Fatalf("Create after Destroy: %v", err)
	}
	entries, err := v.Passwords()
	if err != nil {
		t.Fatalf("Passwords: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("new vault should be empty, got %d entries", len(entries))
	}
}
