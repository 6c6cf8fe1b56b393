// Package password holds the operator credential policy: bcrypt hashing at a
// process-wide cost and the SHA-256 digests stored for refresh tokens.
package password

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultCost applies until SetCost is called
	DefaultCost = 12

	MinLength = 8
	// MaxLength is the bcrypt input limit in bytes
	MaxLength = 72
)

var (
	ErrTooShort = errors.New("password must be at least 8 characters")
	ErrTooLong  = errors.New("password must be at most 72 bytes")
)

var cost = DefaultCost

// SetCost sets the bcrypt work factor used by Hash, clamped to the range
// bcrypt accepts. Zero restores DefaultCost. Call it once at startup.
func SetCost(c int) int {
	switch {
	case c == 0:
		c = DefaultCost
	case c < bcrypt.MinCost:
		c = bcrypt.MinCost
	case c > bcrypt.MaxCost:
		c = bcrypt.MaxCost
	}
	cost = c
	return cost
}

// Cost reports the current work factor
func Cost() int { return cost }

// Check enforces the operator password policy
func Check(plain string) error {
	if len(plain) < MinLength {
		return ErrTooShort
	}
	if len(plain) > MaxLength {
		return ErrTooLong
	}
	return nil
}

// Hash checks the policy and returns the bcrypt hash
func Hash(plain string) (string, error) {
	if err := Check(plain); err != nil {
		return "", err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func Verify(plain, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}

// HashToken digests a refresh token for storage and lookup
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
