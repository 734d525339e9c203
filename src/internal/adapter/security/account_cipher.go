package security

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

var ErrCipherNotConfigured = errors.New("account number key is not configured")

// AccountCipher seals stored account numbers with XChaCha20-Poly1305.
// Ciphertexts are base64(nonce || sealed).
type AccountCipher struct {
	key []byte
}

func NewAccountCipher(key []byte) (*AccountCipher, error) {
	if len(key) == 0 {
		return &AccountCipher{}, nil
	}
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("account number key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}
	return &AccountCipher{key: append([]byte(nil), key...)}, nil
}

func (c *AccountCipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	aead, err := c.aead()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (c *AccountCipher) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}
	aead, err := c.aead()
	if err != nil {
		return "", err
	}

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("decode account number: %w", err)
	}
	if len(raw) < aead.NonceSize() {
		return "", errors.New("account number ciphertext is too short")
	}

	nonce, sealed := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("open account number: %w", err)
	}
	return string(plain), nil
}

func (c *AccountCipher) aead() (cipher.AEAD, error) {
	if len(c.key) == 0 {
		return nil, ErrCipherNotConfigured
	}
	return chacha20poly1305.NewX(c.key)
}
