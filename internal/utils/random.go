package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// RandomString returns length hex characters from crypto/rand.
func RandomString(length int) string {
	bytes := make([]byte, length)
	_, err := rand.Read(bytes)
	if err != nil {
		panic(err)
	}
	return hex.EncodeToString(bytes)[:length]
}
