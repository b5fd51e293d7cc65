package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	InviteCodeLength = 6
	TokenLength      = 16

	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var alphabetSize = big.NewInt(int64(len(codeAlphabet)))

// GenerateCode returns n characters drawn uniformly from [A-Z0-9].
func GenerateCode(n int) (string, error) {
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", fmt.Errorf("reading random: %w", err)
		}
		b[i] = codeAlphabet[idx.Int64()]
	}
	return string(b), nil
}
