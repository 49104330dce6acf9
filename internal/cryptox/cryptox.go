// Package cryptox implements password-based authenticated encryption of
// note bodies. The stored blob is base64(salt || nonce || ciphertext+tag)
// with an Argon2id-derived AES-256-GCM key; the plaintext carries a fixed
// magic header so a wrong password is always detected.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/mirelh/laguz/internal/apperr"
)

const (
	magicHeader = "NOTE_APP_v1|"
	saltSize    = 16
	nonceSize   = 12
	keySize     = 32
)

// Params controls the Argon2id key derivation cost.
type Params struct {
	Time    uint32
	MemoryK uint32 // KiB
	Threads uint8
}

// DefaultParams are the baseline derivation costs: 3 passes over 64 MiB,
// single lane.
func DefaultParams() Params {
	return Params{Time: 3, MemoryK: 64 * 1024, Threads: 1}
}

// Box encrypts and decrypts note content under a caller-supplied password.
type Box struct {
	params      Params
	minPassword int
}

// New creates a Box. minPassword is the policy-level minimum password
// length; zero permits empty passwords.
func New(params Params, minPassword int) *Box {
	if params.Time == 0 || params.MemoryK == 0 || params.Threads == 0 {
		params = DefaultParams()
	}
	return &Box{params: params, minPassword: minPassword}
}

func (b *Box) deriveKey(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, b.params.Time, b.params.MemoryK, b.params.Threads, keySize)
}

// Encrypt seals plaintext under password and returns the stored blob.
// A fresh salt and nonce are generated on every call.
func (b *Box) Encrypt(plaintext, password string) (string, error) {
	if len(password) < b.minPassword {
		return "", fmt.Errorf("cryptox: password shorter than %d characters", b.minPassword)
	}

	buf := make([]byte, saltSize+nonceSize)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("cryptox: random: %w", err)
	}
	salt, nonce := buf[:saltSize], buf[saltSize:]

	aead, err := newAEAD(b.deriveKey(password, salt))
	if err != nil {
		return "", err
	}

	sealed := aead.Seal(nil, nonce, []byte(magicHeader+plaintext), nil)

	out := make([]byte, 0, len(buf)+len(sealed))
	out = append(out, buf...)
	out = append(out, sealed...)
	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt opens a stored blob. A wrong password, a tampered blob, and a
// truncated blob are all reported as the same apperr.ErrDecryptionFailed;
// callers never learn which check failed.
func (b *Box) Decrypt(blob, password string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil || len(raw) < saltSize+nonceSize {
		return "", apperr.ErrDecryptionFailed
	}
	salt := raw[:saltSize]
	nonce := raw[saltSize : saltSize+nonceSize]
	sealed := raw[saltSize+nonceSize:]

	aead, err := newAEAD(b.deriveKey(password, salt))
	if err != nil {
		return "", err
	}

	plain, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", apperr.ErrDecryptionFailed
	}
	text := string(plain)
	if !strings.HasPrefix(text, magicHeader) {
		return "", apperr.ErrDecryptionFailed
	}
	return strings.TrimPrefix(text, magicHeader), nil
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cryptox: cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cryptox: gcm: %w", err)
	}
	return aead, nil
}
