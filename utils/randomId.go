package utils

import (
	"crypto/rand"
	"math/big"
)

const (
	RandomIdLength   = 18
	randomIdAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var randomIdAlphabetSize = big.NewInt(int64(len(randomIdAlphabet)))

// NewRandomId mints an 18 character id over [a-zA-Z0-9] (~107 bits of entropy).
func NewRandomId() string {
	return NewRandomIdOfLength(RandomIdLength)
}

func NewRandomIdOfLength(n int) string {
	buf := make([]byte, n)
	for i := range buf {
		idx, err := rand.Int(rand.Reader, randomIdAlphabetSize)
		if err != nil {
			// crypto/rand only fails when the OS entropy source is broken
			panic(err)
		}
		buf[i] = randomIdAlphabet[idx.Int64()]
	}
	return string(buf)
}
