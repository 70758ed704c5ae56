package common

import (
	"crypto/rand"
	"encoding/hex"
)

// MakeRandHexString returns size random bytes hex encoded, so the result is
// twice as long as size.
func MakeRandHexString(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// MustRandHexString is MakeRandHexString for startup paths; it panics when
// the system random source fails.
func MustRandHexString(size int) string {
	s, err := MakeRandHexString(size)
	if err != nil {
		panic(err)
	}
	return s
}

// GenerateRandByteArray returns size bytes read from crypto/rand, or nil if
// the random source fails.
func GenerateRandByteArray(size int) []byte {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return nil
	}
	return b
}

// WipeByteArray zeroes b in place. Used on passwords read from the terminal
// once they have been hashed.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
