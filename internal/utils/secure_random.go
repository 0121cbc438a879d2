package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// GenerateCode returns length characters drawn uniformly from alphabet using crypto/rand.
func GenerateCode(alphabet string, length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("length must be positive")
	}
	if len(alphabet) < 2 {
		return "", fmt.Errorf("alphabet must have at least two characters")
	}
	max := big.NewInt(int64(len(alphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to read random index: %w", err)
		}
		out[i] = alphabet[n.Int64()]
	}
	return string(out), nil
}
