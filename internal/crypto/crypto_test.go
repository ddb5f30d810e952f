package crypto

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecrypt(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)

	ciphertext, err := Encrypt([]byte("session"), key)
	require.NoError(t, err)
	assert.NotContains(t, string(ciphertext), "session")

	plaintext, err := Decrypt(ciphertext, key)
	require.NoError(t, err)
	assert.Equal(t, "session", string(plaintext))
}

func TestDecryptWrongKey(t *testing.T) {
	key, _ := GenerateKey()
	other, _ := GenerateKey()

	ciphertext, err := Encrypt([]byte("session"), key)
	require.NoError(t, err)

	_, err = Decrypt(ciphertext, other)
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestInvalidInputs(t *testing.T) {
	_, err := Encrypt([]byte("x"), []byte("short"))
	assert.ErrorIs(t, err, ErrInvalidKeySize)

	key, _ := GenerateKey()
	_, err = Decrypt([]byte{1, 2}, key)
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestKeyManagerSealOpen(t *testing.T) {
	km, err := NewKeyManager("correct horse battery staple")
	require.NoError(t, err)

	blob := []byte{0x00, 0x01, 0xfe, 0xff}
	sealed, err := km.Seal(blob)
	require.NoError(t, err)

	again, err := km.Seal(blob)
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "each seal uses a fresh salt and nonce")

	opened, err := km.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, blob, opened)

	fresh, err := NewKeyManager("correct horse battery staple")
	require.NoError(t, err)
	opened, err = fresh.Open(again)
	require.NoError(t, err)
	assert.Equal(t, blob, opened)
}

func TestKeyManagerCachesLatestKeyOnly(t *testing.T) {
	km, err := NewKeyManager("secret")
	require.NoError(t, err)

	var blobs []string
	for i := 0; i < 5; i++ {
		blob, err := km.Seal([]byte("data"))
		require.NoError(t, err)
		blobs = append(blobs, blob)
	}

	raw, err := base64.StdEncoding.DecodeString(blobs[4])
	require.NoError(t, err)
	assert.Equal(t, raw[:saltSize], km.cacheSalt)

	// Older blobs still open; their key is derived again.
	plaintext, err := km.Open(blobs[0])
	require.NoError(t, err)
	assert.Equal(t, "data", string(plaintext))

	raw, err = base64.StdEncoding.DecodeString(blobs[0])
	require.NoError(t, err)
	assert.Equal(t, raw[:saltSize], km.cacheSalt)
	assert.Len(t, km.cacheKey, KeySize)
}

func TestKeyManagerWrongSecret(t *testing.T) {
	km, _ := NewKeyManager("one")
	other, _ := NewKeyManager("two")

	sealed, err := km.Seal([]byte("data"))
	require.NoError(t, err)

	_, err = other.Open(sealed)
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestKeyManagerInvalidBlob(t *testing.T) {
	km, _ := NewKeyManager("secret")

	_, err := km.Open("not base64!")
	assert.ErrorIs(t, err, ErrInvalidBlob)

	_, err = km.Open(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.ErrorIs(t, err, ErrInvalidBlob)

	_, err = NewKeyManager("")
	assert.ErrorIs(t, err, ErrSecretNotSet)
}
