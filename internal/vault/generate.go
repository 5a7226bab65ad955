package vault

import (
	"errors"
	"fmt"

	"github.com/nihmadev/Axion/internal/crypto"
)

// GeneratePassword returns a random password of exactly length characters.
// It touches no vault state and is valid in every session state. Lengths
// outside [8, 128] fail with ErrInvalidInput.
func GeneratePassword(length int, includeSymbols bool) (string, error) {
	password, err := crypto.GeneratePassword(length, includeSymbols)
	if errors.Is(err, crypto.ErrInvalidLength) {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return password, err
}
