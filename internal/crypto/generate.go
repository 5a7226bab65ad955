package crypto

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	// MinGeneratedLength is the shortest password GeneratePassword accepts.
	MinGeneratedLength = 8

	// MaxGeneratedLength is the longest password GeneratePassword accepts.
	MaxGeneratedLength = 128
)

const (
	lowerChars  = "abcdefghijklmnopqrstuvwxyz"
	upperChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digitChars  = "0123456789"
	symbolChars = "!@#$%^&*()_+-=[]{}|;:,.<>?"
)

// ErrInvalidLength is returned when a requested password length is outside
// the [MinGeneratedLength, MaxGeneratedLength] range.
var ErrInvalidLength = fmt.Errorf("password length must be between %d and %d", MinGeneratedLength, MaxGeneratedLength)

// GeneratePassword returns a random password of exactly length characters
// drawn from a cryptographically secure source. The character set is
// lowercase, uppercase and digits, plus the symbol set when includeSymbols
// is true.
func GeneratePassword(length int, includeSymbols bool) (string, error) {
	if length < MinGeneratedLength || length > MaxGeneratedLength {
		return "", ErrInvalidLength
	}

	charset := lowerChars + upperChars + digitChars
	if includeSymbols {
		charset += symbolChars
	}

	max := big.NewInt(int64(len(charset)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate password: %w", err)
		}
		out[i] = charset[n.Int64()]
	}

	return string(out), nil
}
