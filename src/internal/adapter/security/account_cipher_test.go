package security

import (
	"bytes"
	"errors"
	"testing"
)

func TestAccountCipherRoundTrip(t *testing.T) {
	c, err := NewAccountCipher(bytes.Repeat([]byte{7}, 32))
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	sealed, err := c.Encrypt("000123456789")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if sealed == "000123456789" {
		t.Fatal("expected ciphertext to differ from plaintext")
	}

	plain, err := c.Decrypt(sealed)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if plain != "000123456789" {
		t.Fatalf("expected original account number, got %q", plain)
	}
}

func TestAccountCipherRejectsTamperedCiphertext(t *testing.T) {
	c, _ := NewAccountCipher(bytes.Repeat([]byte{7}, 32))
	other, _ := NewAccountCipher(bytes.Repeat([]byte{9}, 32))

	sealed, err := c.Encrypt("000123456789")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if _, err := other.Decrypt(sealed); err == nil {
		t.Fatal("expected decrypt with a different key to fail")
	}
}

func TestAccountCipherWithoutKey(t *testing.T) {
	c, err := NewAccountCipher(nil)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if _, err := c.Decrypt("c2VhbGVk"); !errors.Is(err, ErrCipherNotConfigured) {
		t.Fatalf("expected ErrCipherNotConfigured, got %v", err)
	}
	if plain, err := c.Decrypt(""); err != nil || plain != "" {
		t.Fatalf("expected empty ciphertext to decrypt to empty string, got %q, %v", plain, err)
	}
}

func TestNewAccountCipherRejectsShortKey(t *testing.T) {
	if _, err := NewAccountCipher([]byte("short")); err == nil {
		t.Fatal("expected error for short key")
	}
}
