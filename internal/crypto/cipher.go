// Package crypto seals and opens provider credentials with AES-256-GCM.
//
// Sealed values are stored as three independently base64-encoded parts:
// ciphertext, IV and authentication tag. Splitting the tag out keeps the
// storage schema explicit about what each column holds and lets integrity
// failures be distinguished from decode failures.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

const (
	// KeySize is the required key length for AES-256.
	KeySize = 32
	// ivSize is the GCM-standard 96-bit nonce length.
	ivSize = 12
	// tagSize is the GCM authentication tag length.
	tagSize = 16
)

// ErrIntegrity is returned when a sealed value fails authentication,
// either because it was tampered with or because it was encrypted under
// a different key.
var ErrIntegrity = errors.New("crypto: ciphertext integrity check failed")

// Sealed is an encrypted value with its parts base64-encoded for storage.
type Sealed struct {
	Ciphertext string
	IV         string
	AuthTag    string
}

// Cipher encrypts and decrypts short secrets under a fixed AES-256 key.
// It is safe for concurrent use.
type Cipher struct {
	aead cipher.AEAD
	rand io.Reader
}

// New creates a Cipher from a raw 32-byte key.
func New(key []byte) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("crypto: key must be %d bytes, got %d", KeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("crypto: init AES: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("crypto: init GCM: %w", err)
	}

	return &Cipher{aead: aead, rand: rand.Reader}, nil
}

// NewFromBase64 creates a Cipher from a base64-encoded 32-byte key, the
// form in which keys arrive from configuration.
func NewFromBase64(encoded string) (*Cipher, error) {
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("crypto: decode key: %w", err)
	}
	return New(key)
}

// Seal encrypts plaintext under a fresh random IV.
func (c *Cipher) Seal(plaintext []byte) (Sealed, error) {
	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(c.rand, iv); err != nil {
		return Sealed{}, fmt.Errorf("crypto: generate IV: %w", err)
	}

	// GCM appends the tag to the ciphertext; split it back out so the
	// two are stored in separate columns.
	out := c.aead.Seal(nil, iv, plaintext, nil)
	ciphertext, tag := out[:len(out)-tagSize], out[len(out)-tagSize:]

	return Sealed{
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
		IV:         base64.StdEncoding.EncodeToString(iv),
		AuthTag:    base64.StdEncoding.EncodeToString(tag),
	}, nil
}

// Open decrypts a sealed value and verifies its authentication tag.
// A malformed encoding or a failed integrity check both return
// ErrIntegrity: a corrupt stored credential is unrecoverable either way.
func (c *Cipher) Open(s Sealed) ([]byte, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(s.Ciphertext)
	if err != nil {
		return nil, ErrIntegrity
	}
	iv, err := base64.StdEncoding.DecodeString(s.IV)
	if err != nil || len(iv) != ivSize {
		return nil, ErrIntegrity
	}
	tag, err := base64.StdEncoding.DecodeString(s.AuthTag)
	if err != nil || len(tag) != tagSize {
		return nil, ErrIntegrity
	}

	plaintext, err := c.aead.Open(nil, iv, append(ciphertext, tag...), nil)
	if err != nil {
		return nil, ErrIntegrity
	}
	return plaintext, nil
}
