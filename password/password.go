// Package password turns plaintext credentials into stored digests and
// checks candidates against them.
package password

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	SHA256Name = "sha256"
	BcryptName = "bcrypt"
)

var ErrUnknownHasher = errors.New("password: unknown hasher")

// Hasher is a one-way transform of a credential into a comparable digest.
type Hasher interface {
	Hash(plain string) (string, error)
	Verify(plain, digest string) bool
	Name() string
}

// New returns the hasher registered under name. cost only applies to bcrypt.
func New(name string, cost int) (Hasher, error) {
	switch name {
	case "", SHA256Name:
		return SHA256{}, nil
	case BcryptName:
		if cost == 0 {
			cost = bcrypt.DefaultCost
		}
		if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
			return nil, fmt.Errorf("password: bcrypt cost %d out of range", cost)
		}
		return Bcrypt{Cost: cost}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownHasher, name)
	}
}

// SHA256 is the unsalted hex SHA-256 digest. It is deterministic, so two
// users with the same password share a digest.
type SHA256 struct{}

func (SHA256) Name() string { return SHA256Name }

func (SHA256) Hash(plain string) (string, error) {
	return digest(plain), nil
}

func (SHA256) Verify(plain, stored string) bool {
	return subtle.ConstantTimeCompare([]byte(digest(plain)), []byte(stored)) == 1
}

func digest(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}

// Bcrypt salts every digest; Hash fails for inputs longer than 72 bytes.
type Bcrypt struct {
	Cost int
}

func (Bcrypt) Name() string { return BcryptName }

func (b Bcrypt) Hash(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), b.Cost)
	if err != nil {
		return "", fmt.Errorf("password: could not hash password: %w", err)
	}
	return string(hashed), nil
}

func (Bcrypt) Verify(plain, stored string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(plain)) == nil
}
