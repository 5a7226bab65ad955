// Package store provides the durable, encrypted-at-rest container for the
// password vault: credential ciphertext plus the unlock metadata (salt, KDF
// parameters, verifier, failed-attempt counter).
package store

// Store defines the interface for vault storage operations.
type Store interface {
	// Vault metadata. GetMeta returns ErrNotFound when no vault has been
	// created and ErrCorrupt when the stored metadata cannot be decoded.
	GetMeta() (*VaultMeta, error)
	SetMeta(meta *VaultMeta) error

	// Failed-attempt counter. Kept outside the metadata blob so the
	// brute-force penalty can still advance when the metadata itself has
	// been tampered with.
	FailedAttempts() (uint32, error)
	SetFailedAttempts(n uint32) error

	// Credential records.
	PutCredential(rec *CredentialRecord) error
	GetCredential(id string) (*CredentialRecord, error)
	ListCredentials() ([]*CredentialRecord, error)
	DeleteCredential(id string) error

	// ReplaceAll atomically swaps the metadata and the full record set in a
	// single transaction. Used by master password rotation.
	ReplaceAll(meta *VaultMeta, recs []*CredentialRecord) error

	// DeleteAll removes the metadata, the counter and every credential
	// record in a single transaction. This is the vault self-destruct.
	DeleteAll() error

	// Lifecycle
	Close() error
}
