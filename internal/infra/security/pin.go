package security

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

const pinDigits = 4

// BcryptPinIssuer issues numeric handover PINs and stores them as bcrypt
// hashes.
type BcryptPinIssuer struct {
	Cost int
}

func (h BcryptPinIssuer) Generate() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10_000))
	if err != nil {
		return "", fmt.Errorf("pin: entropy read failed: %w", err)
	}
	return fmt.Sprintf("%0*d", pinDigits, n.Int64()), nil
}

func (h BcryptPinIssuer) Hash(pin string) (string, error) {
	out, err := bcrypt.GenerateFromPassword([]byte(pin), h.cost())
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (h BcryptPinIssuer) Compare(hash, pin string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)) == nil
}

func (h BcryptPinIssuer) cost() int {
	if h.Cost >= bcrypt.MinCost && h.Cost <= bcrypt.MaxCost {
		return h.Cost
	}
	return bcrypt.DefaultCost
}
