package crypto_test

import (
	"strings"
	"testing"

	"github.com/hugh/langhub/pkg/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptor_SealOpen(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	enc, err := crypto.NewEncryptor(key)
	require.NoError(t, err)

	sealed, err := enc.Seal([]byte(`{"plan":"team"}`))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sealed, "-----BEGIN AGE ENCRYPTED FILE-----"))

	plain, err := enc.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, `{"plan":"team"}`, string(plain))
}

func TestSealFor_OtherInstance(t *testing.T) {
	mine, err := crypto.NewEphemeralEncryptor()
	require.NoError(t, err)
	theirs, err := crypto.NewEphemeralEncryptor()
	require.NoError(t, err)

	sealed, err := crypto.SealFor(theirs.PublicKey(), []byte("payload"))
	require.NoError(t, err)

	_, err = mine.Open(sealed)
	assert.Error(t, err, "payload sealed to another instance must not open")

	plain, err := theirs.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(plain))
}

func TestNewEncryptor_Invalid(t *testing.T) {
	_, err := crypto.NewEncryptor("")
	assert.ErrorIs(t, err, crypto.ErrMissingKey)

	_, err = crypto.NewEncryptor("not-a-key")
	assert.Error(t, err)

	_, err = crypto.SealFor("age1invalid", []byte("x"))
	assert.Error(t, err)
}

func TestGenerateRandomString(t *testing.T) {
	a, err := crypto.GenerateRandomString(32)
	require.NoError(t, err)
	b, err := crypto.GenerateRandomString(32)
	require.NoError(t, err)
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}
