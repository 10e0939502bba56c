// Package otp implements one-time-code issuance and the pending-code
// registry used by the verification handshake.
package otp

import (
	"crypto/rand"
	"math/big"
)

const (
	// CodeLength is the number of digits in a one-time code.
	CodeLength = 6
	// AuthKeyLength is the number of characters in an issued auth key.
	AuthKeyLength = 32

	digits       = "0123456789"
	alphanumeric = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
)

// GenerateCode returns a 6-digit numeric one-time code. Codes are not
// unique across calls; a collision with an outstanding code for another
// principal is acceptable.
func GenerateCode() string {
	return randomString(digits, CodeLength)
}

// GenerateAuthKey returns a 32-character alphanumeric bearer key. No
// uniqueness check is performed; the collision probability over a
// 62-character alphabet is treated as negligible.
func GenerateAuthKey() string {
	return randomString(alphanumeric, AuthKeyLength)
}

func randomString(alphabet string, length int) string {
	max := big.NewInt(int64(len(alphabet)))
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(err)
		}
		b[i] = alphabet[n.Int64()]
	}
	return string(b)
}
