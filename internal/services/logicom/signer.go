package logicom

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
)

// Signer encrypts handshake and request signatures with AES-256-CBC under the
// access-token key. The IV is all zeroes, as the supplier expects.
type Signer struct {
	block cipher.Block
}

func NewSigner(accessTokenKey string) (*Signer, error) {
	key := []byte(accessTokenKey)
	if len(key) != 32 {
		return nil, &AuthError{Op: "load signing key", Err: ErrInvalidKeyLength}
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, &AuthError{Op: "load signing key", Err: err}
	}
	return &Signer{block: block}, nil
}

// Encrypt returns base64(AES-CBC(PKCS#7(text))).
func (s *Signer) Encrypt(text string) string {
	plain := pkcs7Pad([]byte(text), aes.BlockSize)
	out := make([]byte, len(plain))
	iv := make([]byte, aes.BlockSize)
	cipher.NewCBCEncrypter(s.block, iv).CryptBlocks(out, plain)
	return base64.StdEncoding.EncodeToString(out)
}

// RequestSignature signs token+timestamp and base64-encodes the already
// base64 ciphertext a second time.
func (s *Signer) RequestSignature(token, timestamp string) string {
	encrypted := s.Encrypt(token + timestamp)
	return base64.StdEncoding.EncodeToString([]byte(encrypted))
}

func pkcs7Pad(b []byte, blockSize int) []byte {
	n := blockSize - len(b)%blockSize
	return append(b, bytes.Repeat([]byte{byte(n)}, n)...)
}
