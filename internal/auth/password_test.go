package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	Cost = bcrypt.MinCost
	m.Run()
}

func TestHashAndCheck(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)

	assert.NoError(t, CheckPassword(hash, "s3cret"))
	assert.ErrorIs(t, CheckPassword(hash, "wrong"), ErrMismatch)
	assert.Error(t, CheckPassword("not-a-hash", "s3cret"))

	other, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "salted")
}

func TestValidateCredentials(t *testing.T) {
	assert.NoError(t, ValidateCredentials("asha", "pw"))
	assert.ErrorIs(t, ValidateCredentials("", "pw"), ErrEmptyCredentials)
	assert.ErrorIs(t, ValidateCredentials("   ", "pw"), ErrEmptyCredentials)
	assert.ErrorIs(t, ValidateCredentials("asha", ""), ErrEmptyCredentials)

	_, err := HashPassword("")
	assert.ErrorIs(t, err, ErrEmptyCredentials)
}
