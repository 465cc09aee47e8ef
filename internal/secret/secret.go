// Package secret seals and opens credential values kept in config files.
// Sealed values carry the "enc:" prefix; anything else is plaintext.
package secret

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// EnvKey names the environment variable holding the passphrase.
const EnvKey = "DROIDFLOW_SECRET_KEY"

const prefix = "enc:"

// Argon2id parameters for deriving the AES-256 key from the passphrase.
const (
	saltLength  = 16
	iterations  = 1
	memoryKiB   = 64 * 1024
	parallelism = 4
	keyLength   = 32
)

// ErrNoKey is returned when a sealed value is opened without a key.
var ErrNoKey = errors.New("sealed value found but " + EnvKey + " is not set")

// Box seals values with AES-256-GCM. Each sealed value carries its own
// random salt: enc:base64(salt|nonce|ciphertext).
type Box struct {
	passphrase []byte
}

// NewBox returns a Box for passphrase. An empty passphrase yields a Box
// that passes plaintext through and refuses sealed values.
func NewBox(passphrase string) (*Box, error) {
	if passphrase == "" {
		return &Box{}, nil
	}
	return &Box{passphrase: []byte(passphrase)}, nil
}

// IsSealed reports whether v carries the sealed prefix.
func IsSealed(v string) bool { return strings.HasPrefix(v, prefix) }

func (b *Box) aead(salt []byte) (cipher.AEAD, error) {
	key := argon2.IDKey(b.passphrase, salt, iterations, memoryKiB, parallelism, keyLength)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}
	return gcm, nil
}

// Seal encrypts plaintext under a fresh salt and nonce.
func (b *Box) Seal(plaintext string) (string, error) {
	if len(b.passphrase) == 0 {
		return "", ErrNoKey
	}
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	gcm, err := b.aead(salt)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	out := make([]byte, 0, saltLength+len(nonce)+len(plaintext)+gcm.Overhead())
	out = append(out, salt...)
	out = append(out, nonce...)
	out = gcm.Seal(out, nonce, []byte(plaintext), nil)
	return prefix + base64.StdEncoding.EncodeToString(out), nil
}

// Open returns v unchanged unless it is sealed, in which case it is
// decrypted.
func (b *Box) Open(v string) (string, error) {
	if !IsSealed(v) {
		return v, nil
	}
	if len(b.passphrase) == 0 {
		return "", ErrNoKey
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(v, prefix))
	if err != nil {
		return "", fmt.Errorf("decode base64: %w", err)
	}
	if len(data) < saltLength {
		return "", fmt.Errorf("ciphertext too short")
	}
	gcm, err := b.aead(data[:saltLength])
	if err != nil {
		return "", err
	}
	data = data[saltLength:]
	n := gcm.NonceSize()
	if len(data) < n {
		return "", fmt.Errorf("ciphertext too short")
	}
	plaintext, err := gcm.Open(nil, data[:n], data[n:], nil)
	if err != nil {
		return "", fmt.Errorf("decrypt: %w", err)
	}
	return string(plaintext), nil
}

// OpenAll opens each pointed-to value in place.
func (b *Box) OpenAll(values ...*string) error {
	for _, v := range values {
		opened, err := b.Open(*v)
		if err != nil {
			return err
		}
		*v = opened
	}
	return nil
}
