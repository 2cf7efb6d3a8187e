// Package passcrypto encrypts profile passwords before they are persisted.
//
// The strong path is AES-256-GCM with a fresh random key and nonce for every
// Encrypt call. The key and nonce are stored next to the ciphertext, so this
// protects against casual inspection of the settings file and detects
// tampering, but anyone who can read the whole file can recover the password.
//
// When AES-GCM cannot be used the fallback path applies a fixed, reversible
// XOR transform. That is obfuscation only and gives no confidentiality.
package passcrypto

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
	keySize   = 32
	nonceSize = 12
)

// ErrCipherMismatch is returned when a ciphertext cannot be opened with the
// supplied key and vector.
var ErrCipherMismatch = errors.New("ciphertext does not match key or vector")

// fallbackMask is XORed over the plaintext bytes on the fallback path
var fallbackMask = []byte("wpctl-password-obfuscation")

// Encrypted is a password as persisted in a profile.
// Key and Vector are empty when the fallback transform was used.
type Encrypted struct {
	Encrypted string `json:"encrypted"`
	Key       string `json:"key,omitempty"`
	Vector    string `json:"vector,omitempty"`
}

// Cipher encrypts and decrypts passwords
type Cipher struct {
	random   io.Reader
	fallback bool
}

// New creates a Cipher that uses AES-GCM when the runtime supports it
func New() *Cipher {
	return &Cipher{random: rand.Reader}
}

// NewFallback creates a Cipher that always uses the obfuscation fallback
func NewFallback() *Cipher {
	return &Cipher{random: rand.Reader, fallback: true}
}

// CanUse reports whether the authenticated cipher is available
func (c *Cipher) CanUse() bool {
	if c.fallback || c.random == nil {
		return false
	}
	block, err := aes.NewCipher(make([]byte, keySize))
	if err != nil {
		return false
	}
	_, err = cipher.NewGCM(block)
	return err == nil
}

// Encrypt encrypts message with a freshly generated key and vector
func (c *Cipher) Encrypt(message string) (Encrypted, error) {
	if !c.CanUse() {
		return Encrypted{Encrypted: obfuscate([]byte(message))}, nil
	}

	key := make([]byte, keySize)
	if _, err := io.ReadFull(c.random, key); err != nil {
		return Encrypted{}, fmt.Errorf("failed to generate key: %w", err)
	}
	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(c.random, nonce); err != nil {
		return Encrypted{}, fmt.Errorf("failed to generate vector: %w", err)
	}

	aead, err := newGCM(key)
	if err != nil {
		return Encrypted{}, err
	}
	sealed := aead.Seal(nil, nonce, []byte(message), nil)

	return Encrypted{
		Encrypted: base64.StdEncoding.EncodeToString(sealed),
		Key:       base64.StdEncoding.EncodeToString(key),
		Vector:    base64.StdEncoding.EncodeToString(nonce),
	}, nil
}

// Decrypt reverses Encrypt. An empty key and vector select the fallback
// transform. A key or vector that does not match the ciphertext returns
// ErrCipherMismatch.
func (c *Cipher) Decrypt(encrypted, key, vector string) (string, error) {
	if key == "" && vector == "" {
		plain, err := deobfuscate(encrypted)
		if err != nil {
			return "", fmt.Errorf("failed to decode password: %w", err)
		}
		return string(plain), nil
	}
	if key == "" || vector == "" {
		return "", fmt.Errorf("%w: key and vector must both be set", ErrCipherMismatch)
	}

	rawKey, err := base64.StdEncoding.DecodeString(key)
	if err != nil || len(rawKey) != keySize {
		return "", fmt.Errorf("%w: invalid key", ErrCipherMismatch)
	}
	nonce, err := base64.StdEncoding.DecodeString(vector)
	if err != nil || len(nonce) != nonceSize {
		return "", fmt.Errorf("%w: invalid vector", ErrCipherMismatch)
	}
	sealed, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return "", fmt.Errorf("%w: invalid ciphertext", ErrCipherMismatch)
	}

	aead, err := newGCM(rawKey)
	if err != nil {
		return "", err
	}
	plain, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrCipherMismatch
	}
	return string(plain), nil
}

// DecryptBundle decrypts a persisted password bundle
func (c *Cipher) DecryptBundle(e Encrypted) (string, error) {
	return c.Decrypt(e.Encrypted, e.Key, e.Vector)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aead, nil
}

func obfuscate(plain []byte) string {
	return base64.StdEncoding.EncodeToString(xorMask(plain))
}

func deobfuscate(s string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return xorMask(raw), nil
}

func xorMask(in []byte) []byte {
	out := make([]byte, len(in))
	for i, b := range in {
		out[i] = b ^ fallbackMask[i%len(fallbackMask)]
	}
	return out
}
