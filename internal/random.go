// Package internal holds crypto-random primitives shared by the engine.
// Everything here draws from crypto/rand; predictability of codes or
// token identifiers would break the security model outright.
package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"math/big"
	"strings"
)

// NewOTP returns a string of cryptographically random decimal digits.
// Each digit is drawn independently so the value is uniform over the
// full 10^digits space.
func NewOTP(digits int) (string, error) {
	if digits < 6 || digits > 10 {
		return "", errors.New("invalid otp digits")
	}

	var b strings.Builder
	b.Grow(digits)

	max := big.NewInt(10)
	for i := 0; i < digits; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}

	return b.String(), nil
}

// HashCode returns the SHA-256 digest of a code value. Stores keep only
// the digest, never the plaintext.
func HashCode(code string) [32]byte {
	return sha256.Sum256([]byte(code))
}

// HashEqual compares two digests in constant time.
func HashEqual(a, b [32]byte) bool {
	return subtle.ConstantTimeCompare(a[:], b[:]) == 1
}
