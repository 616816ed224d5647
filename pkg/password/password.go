// Package password hashes and verifies principal credentials.
//
// Verification is a pure function over the stored hash and the candidate
// secret. Principals authenticated through an external identity provider
// carry no local hash; verification of such records reports
// NoLocalCredential and never Match.
package password

import (
	"crypto/rand"
	"errors"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

// VerifyResult is the outcome of checking a candidate secret against a
// stored credential record.
type VerifyResult int

const (
	// Mismatch means a hash is stored but the candidate does not match it.
	Mismatch VerifyResult = iota
	// Match means the candidate matches the stored hash.
	Match
	// NoLocalCredential means no hash is stored; the principal authenticates
	// through an external provider and a secret can never match.
	NoLocalCredential
)

// Hasher hashes and verifies secrets against stored hashes.
type Hasher interface {
	Hash(secret string) (string, error)
	Verify(storedHash, candidate string) (VerifyResult, error)
}

// BcryptHasher implements Hasher using bcrypt.
type BcryptHasher struct {
	// Cost overrides bcrypt.DefaultCost when positive.
	Cost int
}

// Hash hashes the plain-text secret using bcrypt.
func (h *BcryptHasher) Hash(secret string) (string, error) {
	if secret == "" {
		return "", errors.New("password cannot be empty")
	}
	cost := h.Cost
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify compares the candidate secret with the stored hash. An empty
// stored hash is a credential-less record, not an error.
func (h *BcryptHasher) Verify(storedHash, candidate string) (VerifyResult, error) {
	if storedHash == "" {
		return NoLocalCredential, nil
	}
	err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(candidate))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return Mismatch, nil
		}
		return Mismatch, err
	}
	return Match, nil
}

const tempPasswordChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// GenerateTempPassword creates a random opaque credential for bootstrap
// accounts, to be delivered out of band and rotated on first use.
func GenerateTempPassword(length int) (string, error) {
	if length <= 0 {
		length = 16
	}
	buf := make([]byte, length)
	max := big.NewInt(int64(len(tempPasswordChars)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = tempPasswordChars[n.Int64()]
	}
	return string(buf), nil
}
