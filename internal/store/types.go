package store

import (
	"time"

	"github.com/nihmadev/Axion/internal/crypto"
)

// VaultMeta holds vault-level metadata. Its presence in the store is the
// canonical "a vault exists" state.
type VaultMeta struct {
	Version   int           `json:"version"`
	Salt      []byte        `json:"salt"`
	KDF       crypto.Params `json:"kdf"`
	Verifier  []byte        `json:"verifier"`
	CreatedAt time.Time     `json:"created_at"`
	VaultID   string        `json:"vault_id"`
}

// CredentialRecord is a credential entry as stored on disk. The password is
// ciphertext; the username and URL are stored in the clear, matching what the
// autofill popup needs to display before a fill is requested.
type CredentialRecord struct {
	ID                string    `json:"id"`
	URL               string    `json:"url"`
	Username          string    `json:"username"`
	EncryptedPassword []byte    `json:"encrypted_password"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
