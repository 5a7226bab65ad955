// Package vault implements the encrypted password vault: the session state
// machine (NoVault, Locked, Unlocked), the brute-force lockout policy, and
// the credential repository operating over decrypted entries.
//
// The master key exists only in memory while a session is unlocked and is
// zeroized on lock. A vault instance is safe for concurrent use; a single
// mutex makes unlock attempts, counter updates and the self-destruct
// transition mutually exclusive.
package vault

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nihmadev/Axion/internal/crypto"
	"github.com/nihmadev/Axion/internal/store"
)

const (
	dbFilename = "passwords.db"

	// verifyText is the known plaintext sealed under the master key at
	// creation time. Unlock succeeds iff the candidate key opens it.
	// Changing it breaks unlock for every existing vault.
	verifyText = "AXION_VAULT_VERIFICATION"

	// MinMasterPasswordLen is the minimum master password length.
	MinMasterPasswordLen = 8

	// DefaultMaxFailedAttempts is the number of consecutive failed unlock
	// attempts after which the vault destroys itself.
	DefaultMaxFailedAttempts = 15
)

// Options configures a vault instance. The zero value selects defaults.
type Options struct {
	// MaxFailedAttempts overrides DefaultMaxFailedAttempts when non-zero.
	MaxFailedAttempts uint32

	// KDF overrides the Argon2id parameters used for new vaults and
	// password changes when non-zero.
	KDF crypto.Params
}

// Vault owns the store, the in-memory master key and the session state.
type Vault struct {
	mu          sync.Mutex
	store       store.Store
	key         []byte // master key; nil when locked
	maxAttempts uint32
	kdfParams   crypto.Params
	dir         string
}

// Open opens (or creates) the vault database under dir. The returned vault
// is in the NoVault state if no vault has been created yet, otherwise Locked.
func Open(dir string, opts Options) (*Vault, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create vault directory: %w", err)
	}

	s, err := store.NewBoltStore(filepath.Join(dir, dbFilename))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	maxAttempts := opts.MaxFailedAttempts
	if maxAttempts == 0 {
		maxAttempts = DefaultMaxFailedAttempts
	}
	params := opts.KDF
	if !params.Valid() {
		params = crypto.DefaultParams()
	}

	return &Vault{
		store:       s,
		maxAttempts: maxAttempts,
		kdfParams:   params,
		dir:         dir,
	}, nil
}

// Dir returns the directory holding the vault database.
func (v *Vault) Dir() string {
	return v.dir
}

// Exists reports whether a vault has been created. Valid in every state.
func (v *Vault) Exists() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.existsLocked()
}

func (v *Vault) existsLocked() bool {
	_, err := v.store.GetMeta()
	// Corrupt metadata still counts as an existing vault: it must go
	// through the penalized unlock path, not appear absent.
	return err == nil || errors.Is(err, store.ErrCorrupt)
}

// IsUnlocked reports whether a session currently holds the master key.
func (v *Vault) IsUnlocked() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.key != nil
}

// Create creates a new vault protected by masterPassword and leaves the
// session unlocked. Valid only in the NoVault state.
func (v *Vault) Create(masterPassword string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if len(masterPassword) < MinMasterPasswordLen {
		return fmt.Errorf("%w: master password must be at least %d characters", ErrInvalidInput, MinMasterPasswordLen)
	}
	if v.existsLocked() {
		return ErrVaultExists
	}

	salt, err := crypto.GenerateSalt()
	if err != nil {
		return err
	}

	key, err := crypto.DeriveKey([]byte(masterPassword), salt, v.kdfParams)
	if err != nil {
		return fmt.Errorf("derive key: %w", err)
	}

	verifier, err := crypto.Encrypt(key, []byte(verifyText))
	if err != nil {
		crypto.ZeroBytes(key)
		return fmt.Errorf("create verifier: %w", err)
	}

	meta := &store.VaultMeta{
		Version:   1,
		Salt:      salt,
		KDF:       v.kdfParams,
		Verifier:  verifier,
		CreatedAt: time.Now().UTC(),
		VaultID:   uuid.New().String(),
	}
	if err := v.store.SetMeta(meta); err != nil {
		crypto.ZeroBytes(key)
		return fmt.Errorf("set meta: %w", err)
	}
	if err := v.store.SetFailedAttempts(0); err != nil {
		crypto.ZeroBytes(key)
		return fmt.Errorf("reset attempts: %w", err)
	}

	v.key = key
	return nil
}

// Unlock derives a candidate key from masterPassword and verifies it against
// the stored verifier. A wrong password, or corrupt metadata or ciphertext,
// advances the persisted failed-attempt counter; when the counter reaches the
// threshold the vault and all credential ciphertext are deleted irreversibly
// and ErrVaultDeleted is returned. Unlocking an already-unlocked vault is a
// no-op.
func (v *Vault) Unlock(masterPassword string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.key != nil {
		return nil
	}

	meta, err := v.store.GetMeta()
	if errors.Is(err, store.ErrNotFound) {
		return ErrNoVault
	}
	if err != nil {
		// Tampered or truncated metadata: same penalty as a wrong
		// password, so corrupting storage never buys a free retry.
		return v.recordFailureLocked()
	}

	key, err := crypto.DeriveKey([]byte(masterPassword), meta.Salt, meta.KDF)
	if err != nil {
		return v.recordFailureLocked()
	}

	plaintext, err := crypto.Decrypt(key, meta.Verifier)
	if err != nil || string(plaintext) != verifyText {
		crypto.ZeroBytes(key)
		return v.recordFailureLocked()
	}

	if err := v.store.SetFailedAttempts(0); err != nil {
		crypto.ZeroBytes(key)
		return fmt.Errorf("reset attempts: %w", err)
	}

	v.key = key
	return nil
}

// recordFailureLocked increments the failed-attempt counter and triggers the
// self-destruct once the threshold is reached. Caller must hold v.mu.
func (v *Vault) recordFailureLocked() error {
	n, err := v.store.FailedAttempts()
	if err != nil {
		return fmt.Errorf("read attempts: %w", err)
	}
	n++

	if n >= v.maxAttempts {
		if err := v.destroyLocked(); err != nil {
			return fmt.Errorf("self-destruct: %w", err)
		}
		return ErrVaultDeleted
	}

	if err := v.store.SetFailedAttempts(n); err != nil {
		return fmt.Errorf("persist attempts: %w", err)
	}
	return ErrWrongPassword
}

// Lock zeroizes the in-memory master key. Valid in every state; locking a
// locked vault is a no-op.
func (v *Vault) Lock() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lockLocked()
}

func (v *Vault) lockLocked() {
	if v.key != nil {
		crypto.ZeroBytes(v.key)
		v.key = nil
	}
}

// RemainingAttempts returns how many failed unlocks remain before the vault
// self-destructs.
func (v *Vault) RemainingAttempts() (uint32, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.existsLocked() {
		return v.maxAttempts, nil
	}
	n, err := v.store.FailedAttempts()
	if err != nil {
		return 0, fmt.Errorf("read attempts: %w", err)
	}
	if n >= v.maxAttempts {
		return 0, nil
	}
	return v.maxAttempts - n, nil
}

// ChangeMasterPassword re-encrypts the entire vault under a key derived from
// newPassword. The old password is verified first; on any failure the vault
// remains fully decryptable under the old password. Requires Unlocked.
func (v *Vault) ChangeMasterPassword(oldPassword, newPassword string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.key == nil {
		return ErrLocked
	}
	if len(newPassword) < MinMasterPasswordLen {
		return fmt.Errorf("%w: new master password must be at least %d characters", ErrInvalidInput, MinMasterPasswordLen)
	}

	meta, err := v.store.GetMeta()
	if err != nil {
		return fmt.Errorf("get meta: %w", err)
	}

	// Re-verify the old password against the stored verifier rather than
	// trusting the session key's provenance.
	oldKey, err := crypto.DeriveKey([]byte(oldPassword), meta.Salt, meta.KDF)
	if err != nil {
		return fmt.Errorf("derive old key: %w", err)
	}
	plaintext, err := crypto.Decrypt(oldKey, meta.Verifier)
	if err != nil || string(plaintext) != verifyText {
		crypto.ZeroBytes(oldKey)
		return ErrWrongPassword
	}

	recs, err := v.store.ListCredentials()
	if err != nil {
		crypto.ZeroBytes(oldKey)
		return fmt.Errorf("list credentials: %w", err)
	}

	newSalt, err := crypto.GenerateSalt()
	if err != nil {
		crypto.ZeroBytes(oldKey)
		return err
	}
	newKey, err := crypto.DeriveKey([]byte(newPassword), newSalt, v.kdfParams)
	if err != nil {
		crypto.ZeroBytes(oldKey)
		return fmt.Errorf("derive new key: %w", err)
	}

	now := time.Now().UTC()
	reencrypted := make([]*store.CredentialRecord, 0, len(recs))
	for _, rec := range recs {
		password, dErr := crypto.Decrypt(oldKey, rec.EncryptedPassword)
		if dErr != nil {
			crypto.ZeroBytes(oldKey)
			crypto.ZeroBytes(newKey)
			return fmt.Errorf("decrypt entry %s: %w", rec.ID, dErr)
		}
		sealed, eErr := crypto.Encrypt(newKey, password)
		crypto.ZeroBytes(password)
		if eErr != nil {
			crypto.ZeroBytes(oldKey)
			crypto.ZeroBytes(newKey)
			return fmt.Errorf("re-encrypt entry %s: %w", rec.ID, eErr)
		}

		clone := *rec
		clone.EncryptedPassword = sealed
		clone.UpdatedAt = now
		reencrypted = append(reencrypted, &clone)
	}
	crypto.ZeroBytes(oldKey)

	verifier, err := crypto.Encrypt(newKey, []byte(verifyText))
	if err != nil {
		crypto.ZeroBytes(newKey)
		return fmt.Errorf("create verifier: %w", err)
	}

	newMeta := *meta
	newMeta.Salt = newSalt
	newMeta.KDF = v.kdfParams
	newMeta.Verifier = verifier

	// Single transaction: callers never observe a half-rotated vault.
	if err := v.store.ReplaceAll(&newMeta, reencrypted); err != nil {
		crypto.ZeroBytes(newKey)
		return fmt.Errorf("persist rotated vault: %w", err)
	}

	crypto.ZeroBytes(v.key)
	v.key = newKey
	return nil
}

// Destroy deletes the vault metadata and all credential ciphertext
// irreversibly and locks the session. Valid in every state.
func (v *Vault) Destroy() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.destroyLocked()
}

func (v *Vault) destroyLocked() error {
	v.lockLocked()
	if err := v.store.DeleteAll(); err != nil {
		return fmt.Errorf("delete vault: %w", err)
	}
	return nil
}

// Close locks the vault and closes the underlying store.
func (v *Vault) Close() error {
	v.Lock()
	return v.store.Close()
}

// requireUnlockedLocked returns ErrLocked (or ErrNoVault) when no session key
// is held. Caller must hold v.mu.
func (v *Vault) requireUnlockedLocked() error {
	if v.key == nil {
		if !v.existsLocked() {
			return ErrNoVault
		}
		return ErrLocked
	}
	return nil
}
