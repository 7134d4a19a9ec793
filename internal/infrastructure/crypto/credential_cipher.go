// Package crypto encrypts platform credentials before they reach the database.
package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

var (
	// ErrInvalidKey is returned when the configured key is not 32 bytes of base64
	ErrInvalidKey = errors.New("crypto: credential key must be 32 bytes, base64 encoded")
	// ErrCiphertextTooShort is returned for a ciphertext shorter than its nonce
	ErrCiphertextTooShort = errors.New("crypto: ciphertext too short")
	// ErrDecryptFailed is returned when authentication of the ciphertext fails
	ErrDecryptFailed = errors.New("crypto: unable to decrypt credentials")
)

// CredentialCipher seals credential documents with XChaCha20-Poly1305.
// The output is nonce || ciphertext; the connection ID is bound as
// additional data so a row's ciphertext cannot be moved to another row.
type CredentialCipher struct {
	key []byte
}

// NewCredentialCipher creates a cipher from a base64 encoded 32-byte key
func NewCredentialCipher(encodedKey string) (*CredentialCipher, error) {
	key, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil || len(key) != chacha20poly1305.KeySize {
		return nil, ErrInvalidKey
	}
	return &CredentialCipher{key: key}, nil
}

// GenerateKey returns a fresh random key in the encoding NewCredentialCipher expects
func GenerateKey() (string, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("crypto: generate key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

// Seal encrypts plaintext, binding it to associatedData
func (c *CredentialCipher) Seal(plaintext, associatedData []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("crypto: generate nonce: %w", err)
	}
	return aead.Seal(nonce, nonce, plaintext, associatedData), nil
}

// Open decrypts a value produced by Seal with the same associatedData
func (c *CredentialCipher) Open(sealed, associatedData []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return nil, err
	}
	if len(sealed) < aead.NonceSize()+aead.Overhead() {
		return nil, ErrCiphertextTooShort
	}
	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, associatedData)
	if err != nil {
		return nil, ErrDecryptFailed
	}
	return plaintext, nil
}
