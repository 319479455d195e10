package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCipher_RoundTrip(t *testing.T) {
	c, err := NewCipher("a-development-passphrase")
	require.NoError(t, err)

	sealed, err := c.Encrypt("xxxx yyyy zzzz wwww")
	require.NoError(t, err)
	assert.NotEqual(t, "xxxx yyyy zzzz wwww", sealed)

	opened, err := c.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, "xxxx yyyy zzzz wwww", opened)
}

func TestCipher_NoncesDiffer(t *testing.T) {
	c, err := NewCipher("a-development-passphrase")
	require.NoError(t, err)

	first, err := c.Encrypt("same credential")
	require.NoError(t, err)
	second, err := c.Encrypt("same credential")
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "each seal uses a fresh nonce")
}

func TestCipher_WrongKey(t *testing.T) {
	c1, err := NewCipher("first passphrase")
	require.NoError(t, err)
	c2, err := NewCipher("second passphrase")
	require.NoError(t, err)

	sealed, err := c1.Encrypt("credential")
	require.NoError(t, err)

	_, err = c2.Decrypt(sealed)
	assert.Error(t, err)
}

func TestCipher_RejectsGarbage(t *testing.T) {
	c, err := NewCipher("a-development-passphrase")
	require.NoError(t, err)

	_, err = c.Decrypt("not base64!!!")
	assert.Error(t, err)

	_, err = c.Decrypt("c2hvcnQ=")
	assert.Error(t, err, "ciphertext shorter than a nonce is rejected")
}

func TestNewCipher_EmptySecret(t *testing.T) {
	_, err := NewCipher("")
	assert.Error(t, err)
}
