package common

import (
	"crypto/rand"
	"encoding/hex"
)

// RandomBytes returns n bytes read from crypto/rand.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// RandomHex returns a hex string encoding n random bytes, so the result is
// 2*n characters long.
func RandomHex(n int) (string, error) {
	b, err := RandomBytes(n)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Wipe zeroes b. Used for password bytes read from a terminal.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
