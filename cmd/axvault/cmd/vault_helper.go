package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/term"

	"github.com/nihmadev/Axion/internal/vault"
)

const defaultDataDirName = ".axion"

// getDataDir returns the vault data directory.
// Priority: --data-dir flag > AXION_DATA_DIR env > ~/.axion
func getDataDir() string {
	if dataDir != "" {
		return dataDir
	}
	if dir := os.Getenv("AXION_DATA_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return defaultDataDirName
	}
	return filepath.Join(home, defaultDataDirName)
}

// openVault opens the vault without unlocking it.
func openVault() (*vault.Vault, error) {
	return vault.Open(getDataDir(), vault.Options{})
}

// openAndUnlockVault opens and unlocks the vault. It tries the
// AXION_MASTER_PASSWORD env var first (for scripting), then prompts.
func openAndUnlockVault() (*vault.Vault, error) {
	v, err := openVault()
	if err != nil {
		return nil, err
	}
	if !v.Exists() {
		v.Close()
		return nil, fmt.Errorf("no vault found at %s, run 'axvault init' first", getDataDir())
	}

	password := os.Getenv("AXION_MASTER_PASSWORD")
	if password == "" {
		password, err = promptPassword("Enter master password: ")
		if err != nil {
			v.Close()
			return nil, fmt.Errorf("failed to read master password: %w", err)
		}
	}

	if err := v.Unlock(password); err != nil {
		if remaining, rErr := v.RemainingAttempts(); rErr == nil && remaining > 0 {
			Warning("%d attempts remaining before the vault is deleted", remaining)
		}
		v.Close()
		return nil, err
	}

	return v, nil
}

// promptPassword reads a password from the terminal with echo disabled.
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	bytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// promptPasswordConfirm prompts for a password twice and ensures they match.
func promptPasswordConfirm() (string, error) {
	pass, err := promptPassword("Enter master password: ")
	if err != nil {
		return "", err
	}
	if pass == "" {
		return "", fmt.Errorf("master password cannot be empty")
	}
	confirm, err := promptPassword("Confirm master password: ")
	if err != nil {
		return "", err
	}
	if pass != confirm {
		return "", fmt.Errorf("passwords do not match")
	}
	return pass, nil
}
