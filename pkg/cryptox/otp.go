package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
)

// GenerateNumericCode returns a random code of the given number of decimal
// digits, suitable for out-of-band delivery (email verification, password
// reset). Leading zeros are preserved.
func GenerateNumericCode(digits int) (string, error) {
	if digits <= 0 {
		return "", fmt.Errorf("code length must be positive, got %d", digits)
	}

	code := make([]byte, digits)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("failed to generate random code: %w", err)
		}
		code[i] = '0' + byte(n.Int64())
	}
	return string(code), nil
}

// ConstantTimeEquals compares two short secrets without leaking how far the
// comparison got. Used for one-time codes, never for password hashes.
func ConstantTimeEquals(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
