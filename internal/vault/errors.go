package vault

import "errors"

var (
	// ErrInvalidInput is returned for policy violations: master passwords
	// shorter than MinMasterPasswordLen, empty required fields, or generator
	// lengths outside the allowed range.
	ErrInvalidInput = errors.New("invalid input")

	// ErrWrongPassword is returned when the master password does not match.
	// Each occurrence during unlock advances the failed-attempt counter.
	ErrWrongPassword = errors.New("wrong master password")

	// ErrLocked is returned when an operation requires an unlocked vault.
	ErrLocked = errors.New("vault is locked")

	// ErrNoVault is returned when an operation requires a vault to exist.
	ErrNoVault = errors.New("vault does not exist")

	// ErrVaultExists is returned when creating a vault that already exists.
	ErrVaultExists = errors.New("vault already exists")

	// ErrVaultDeleted is returned when the failed-attempt threshold was
	// reached and the vault self-destructed. Terminal for this vault:
	// retrying the same password cannot help, the ciphertext is gone.
	ErrVaultDeleted = errors.New("too many failed attempts: vault has been deleted")

	// ErrNotFound is returned for update/delete of unknown credential ids.
	ErrNotFound = errors.New("credential entry not found")
)
