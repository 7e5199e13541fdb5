package security

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPinIssuerRoundTrip(t *testing.T) {
	issuer := BcryptPinIssuer{Cost: bcrypt.MinCost}
	digits := regexp.MustCompile(`^\d{4}$`)

	for i := 0; i < 20; i++ {
		pin, err := issuer.Generate()
		require.NoError(t, err)
		assert.Regexp(t, digits, pin)
	}

	hash, err := issuer.Hash("0042")
	require.NoError(t, err)
	assert.NotEqual(t, "0042", hash)
	assert.True(t, issuer.Compare(hash, "0042"))
	assert.False(t, issuer.Compare(hash, "0043"))
	assert.False(t, issuer.Compare("not-a-hash", "0042"))
}

func TestPinIssuerCostFallsBackToDefault(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, BcryptPinIssuer{}.cost())
	assert.Equal(t, bcrypt.DefaultCost, BcryptPinIssuer{Cost: 99}.cost())
	assert.Equal(t, 5, BcryptPinIssuer{Cost: 5}.cost())
}

func TestTokenVerifier(t *testing.T) {
	v := NewTokenVerifier("secret")
	token, err := v.Issue("renter-1", time.Hour)
	require.NoError(t, err)

	subject, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "renter-1", subject)

	_, err = NewTokenVerifier("other").Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = v.Verify("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenVerifierRejectsExpiredAndAnonymousTokens(t *testing.T) {
	v := NewTokenVerifier("secret")
	issuedAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	v.now = func() time.Time { return issuedAt }
	token, err := v.Issue("renter-1", time.Minute)
	require.NoError(t, err)

	v.now = func() time.Time { return issuedAt.Add(time.Hour) }
	_, err = v.Verify(token)
	assert.True(t, errors.Is(err, ErrInvalidToken))

	v.now = func() time.Time { return issuedAt }
	anonymous, err := v.Issue("", time.Hour)
	require.NoError(t, err)
	_, err = v.Verify(anonymous)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
