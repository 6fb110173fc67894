package aria2

import (
	"crypto/rand"
	"math/big"
)

const (
	secretLength  = 15
	secretLetters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// GenerateSecret returns a random RPC secret made of ASCII letters, suitable
// for aria2c --rpc-secret.
func GenerateSecret() (string, error) {
	limit := big.NewInt(int64(len(secretLetters)))
	secret := make([]byte, secretLength)

	for i := range secret {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}

		secret[i] = secretLetters[n.Int64()]
	}

	return string(secret), nil
}
