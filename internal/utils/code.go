package utils

import (
	"crypto/rand"
	"math/big"
)

const digitAlphabet = "0123456789"

// RandomDigits returns n random decimal digits drawn from crypto/rand.
func RandomDigits(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}
	b := make([]byte, n)
	for i := 0; i < n; i++ {
		idxBig, err := rand.Int(rand.Reader, big.NewInt(int64(len(digitAlphabet))))
		if err != nil {
			return "", err
		}
		b[i] = digitAlphabet[idxBig.Int64()]
	}
	return string(b), nil
}
