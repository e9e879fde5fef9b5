package logicom

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "0123456789abcdef0123456789abcdef"

func decrypt(t *testing.T, key, encoded string) string {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	block, err := aes.NewCipher([]byte(key))
	require.NoError(t, err)
	require.Zero(t, len(raw)%aes.BlockSize)

	out := make([]byte, len(raw))
	cipher.NewCBCDecrypter(block, make([]byte, aes.BlockSize)).CryptBlocks(out, raw)
	pad := int(out[len(out)-1])
	require.True(t, pad > 0 && pad <= aes.BlockSize)
	require.Equal(t, bytes.Repeat([]byte{byte(pad)}, pad), out[len(out)-pad:])
	return string(out[:len(out)-pad])
}

func TestNewSigner_RejectsWrongKeyLength(t *testing.T) {
	for _, key := range []string{"", "short", testKey + "x"} {
		_, err := NewSigner(key)

		var authErr *AuthError
		require.True(t, errors.As(err, &authErr), "key %q", key)
		assert.ErrorIs(t, err, ErrInvalidKeyLength)
	}
}

func TestSigner_EncryptRoundTrip(t *testing.T) {
	signer, err := NewSigner(testKey)
	require.NoError(t, err)

	for _, text := range []string{"ck;cs", "", "exactly sixteen!", "a longer plaintext spanning several blocks"} {
		assert.Equal(t, text, decrypt(t, testKey, signer.Encrypt(text)))
	}
}

func TestSigner_EncryptIsDeterministic(t *testing.T) {
	signer, err := NewSigner(testKey)
	require.NoError(t, err)

	assert.Equal(t, signer.Encrypt("same input"), signer.Encrypt("same input"))
}

func TestSigner_RequestSignatureIsDoubleEncoded(t *testing.T) {
	signer, err := NewSigner(testKey)
	require.NoError(t, err)

	sig := signer.RequestSignature("tok", "1700000000")

	inner, err := base64.StdEncoding.DecodeString(sig)
	require.NoError(t, err)
	assert.Equal(t, "tok1700000000", decrypt(t, testKey, string(inner)))
}
