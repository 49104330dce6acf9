package cryptox

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/mirelh/laguz/internal/apperr"
)

// fastParams keeps key derivation cheap in tests.
var fastParams = Params{Time: 1, MemoryK: 8 * 1024, Threads: 1}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	b := New(fastParams, 0)

	plaintext := "<p>Shopping list</p><ul><li>Milk</li></ul>"
	blob, err := b.Encrypt(plaintext, "hunter2")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	got, err := b.Decrypt(blob, "hunter2")
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if got != plaintext {
		t.Errorf("round trip = %q, want %q", got, plaintext)
	}
}

func TestDecryptWrongPassword(t *testing.T) {
	b := New(fastParams, 0)

	blob, err := b.Encrypt("secret", "correct")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	_, err = b.Decrypt(blob, "wrong")
	if !errors.Is(err, apperr.ErrDecryptionFailed) {
		t.Errorf("err = %v, want ErrDecryptionFailed", err)
	}
}

func TestDecryptGarbage(t *testing.T) {
	b := New(fastParams, 0)

	cases := []string{
		"not base64 at all!!!",
		base64.StdEncoding.EncodeToString([]byte("short")),
		"",
	}
	for _, blob := range cases {
		if _, err := b.Decrypt(blob, "pw"); !errors.Is(err, apperr.ErrDecryptionFailed) {
			t.Errorf("Decrypt(%q) err = %v, want ErrDecryptionFailed", blob, err)
		}
	}
}

func TestDecryptTamperedBlob(t *testing.T) {
	b := New(fastParams, 0)

	blob, err := b.Encrypt("secret", "pw")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	raw, _ := base64.StdEncoding.DecodeString(blob)
	raw[len(raw)-1] ^= 0xFF
	tampered := base64.StdEncoding.EncodeToString(raw)

	if _, err := b.Decrypt(tampered, "pw"); !errors.Is(err, apperr.ErrDecryptionFailed) {
		t.Errorf("err = %v, want ErrDecryptionFailed", err)
	}
}

func TestEncryptFreshSaltAndNonce(t *testing.T) {
	b := New(fastParams, 0)

	one, err := b.Encrypt("same", "pw")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	two, err := b.Encrypt("same", "pw")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if one == two {
		t.Error("two encryptions of the same plaintext must differ")
	}
	// Both still decrypt.
	for _, blob := range []string{one, two} {
		got, err := b.Decrypt(blob, "pw")
		if err != nil || got != "same" {
			t.Errorf("Decrypt = %q, %v", got, err)
		}
	}
}

func TestEncryptEmptyPlaintextAndPassword(t *testing.T) {
	b := New(fastParams, 0)

	blob, err := b.Encrypt("", "")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	got, err := b.Decrypt(blob, "")
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestMinPasswordPolicy(t *testing.T) {
	b := New(fastParams, 8)

	if _, err := b.Encrypt("x", "short"); err == nil {
		t.Error("expected error for short password")
	}
	if _, err := b.Encrypt("x", "long enough"); err != nil {
		t.Errorf("Encrypt: %v", err)
	}
}

func TestBlobLayout(t *testing.T) {
	b := New(fastParams, 0)

	blob, err := b.Encrypt("layout", "pw")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		t.Fatalf("blob is not base64: %v", err)
	}
	// salt + nonce + at least the GCM tag over the magic header.
	if len(raw) < saltSize+nonceSize+len(magicHeader)+16 {
		t.Errorf("blob too short: %d bytes", len(raw))
	}
	if strings.Contains(blob, "layout") {
		t.Error("plaintext leaked into blob")
	}
}

func TestZeroParamsFallBackToDefaults(t *testing.T) {
	b := New(Params{}, 0)
	if b.params != DefaultParams() {
		t.Errorf("params = %+v, want defaults", b.params)
	}
}
