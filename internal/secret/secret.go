// Package secret generates and disposes of sensitive values.
package secret

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
)

// Token returns n random bytes encoded as unpadded URL-safe base64.
func Token(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Equal compares two secrets in constant time.
func Equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Wipe zeroes b. Use it on passwords once they have been sent.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
