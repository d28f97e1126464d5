// Package credential implements the two cryptographic primitives the wiki
// relies on: HMAC signing of session cookie values and salted password
// hashing. The secret is injected at construction rather than read from
// the environment so the whole package stays testable.
package credential

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

const saltLength = 5

const saltLetters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Signer signs and verifies cookie values with an HMAC keyed by a
// server secret.
type Signer struct {
	secret []byte
}

// NewSigner creates a Signer with the given secret key.
func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Sign returns the value with its hex HMAC-SHA256 signature appended,
// in the form "<value>|<signature>".
func (s *Signer) Sign(value string) string {
	return fmt.Sprintf("%s|%s", value, s.signature(value))
}

// Verify splits a signed string on its first '|', recomputes the
// signature for the prefix and returns the prefix only if the result
// matches the input exactly. A missing separator or a tampered
// signature yields ok=false; there is no error to handle, just the
// absence of a value.
func (s *Signer) Verify(signed string) (string, bool) {
	value, _, found := strings.Cut(signed, "|")
	if !found {
		return "", false
	}
	if !hmac.Equal([]byte(signed), []byte(s.Sign(value))) {
		return "", false
	}
	return value, true
}

func (s *Signer) signature(value string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(value))
	return hex.EncodeToString(mac.Sum(nil))
}

// HashPassword returns a salted digest in the form "<salt>,<hex digest>"
// where the digest is SHA-256 over username+password+salt. A fresh
// random alphabetic salt is generated on every call.
func HashPassword(username, password string) (string, error) {
	salt, err := makeSalt()
	if err != nil {
		return "", err
	}
	return hashWithSalt(username, password, salt), nil
}

// CheckPassword recomputes the digest with the salt stored in the
// digest string and compares for exact equality.
func CheckPassword(username, password, stored string) bool {
	salt, _, found := strings.Cut(stored, ",")
	if !found {
		return false
	}
	return hmac.Equal([]byte(stored), []byte(hashWithSalt(username, password, salt)))
}

func hashWithSalt(username, password, salt string) string {
	sum := sha256.Sum256([]byte(username + password + salt))
	return fmt.Sprintf("%s,%s", salt, hex.EncodeToString(sum[:]))
}

func makeSalt() (string, error) {
	b := make([]byte, saltLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(saltLetters))))
		if err != nil {
			return "", fmt.Errorf("failed to generate salt: %w", err)
		}
		b[i] = saltLetters[n.Int64()]
	}
	return string(b), nil
}
