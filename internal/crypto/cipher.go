// Package crypto provides symmetric encryption for sensitive fields
// (SSNs, insurance IDs) stored at rest.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
)

const keyLength = 32 // AES-256

// Cipher encrypts and decrypts strings with AES-256-GCM under a single
// process-wide key. Each call uses a fresh random nonce, so identical
// plaintexts produce different ciphertexts. The stored blob is
// base64(nonce ‖ ciphertext).
type Cipher struct {
	key []byte
}

// NewCipher builds a Cipher from an arbitrary-length secret. The secret is
// normalized to exactly 32 bytes: padded with '0' or truncated. Callers must
// not hand the raw secret to the AES primitive directly.
func NewCipher(secret string) *Cipher {
	return &Cipher{key: normalizeKey([]byte(secret))}
}

func normalizeKey(key []byte) []byte {
	normalized := make([]byte, keyLength)
	copy(normalized, key)
	for i := len(key); i < keyLength; i++ {
		normalized[i] = '0'
	}
	return normalized
}

// Encrypt encrypts plaintext. The empty string passes through unchanged so
// optional fields stay optional.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	gcm, err := c.gcm()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	// Prepend the nonce so Decrypt can split it out.
	blob := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(blob), nil
}

// Decrypt reverses Encrypt. The empty string passes through unchanged.
func (c *Cipher) Decrypt(encrypted string) (string, error) {
	if encrypted == "" {
		return "", nil
	}

	blob, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return "", fmt.Errorf("decode base64: %w", err)
	}

	gcm, err := c.gcm()
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(blob) < nonceSize {
		return "", fmt.Errorf("ciphertext too short")
	}
	nonce, ciphertext := blob[:nonceSize], blob[nonceSize:]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("decrypt data: %w", err)
	}
	return string(plaintext), nil
}

func (c *Cipher) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return gcm, nil
}
