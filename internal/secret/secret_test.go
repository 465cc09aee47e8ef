package secret

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

func TestSealOpen(t *testing.T) {
	box, err := NewBox("correct horse battery staple")
	if err != nil {
		t.Fatalf("NewBox: %v", err)
	}

	sealed, err := box.Seal("auth-token-123")
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if !IsSealed(sealed) || strings.Contains(sealed, "auth-token-123") {
		t.Fatalf("sealed value %q leaks or lacks prefix", sealed)
	}

	got, err := box.Open(sealed)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got != "auth-token-123" {
		t.Errorf("Open() = %q, want %q", got, "auth-token-123")
	}

	other, _ := NewBox("another passphrase")
	if _, err := other.Open(sealed); err == nil {
		t.Error("Open with the wrong key succeeded")
	}
}

func TestPlaintextPassThrough(t *testing.T) {
	box, _ := NewBox("")
	got, err := box.Open("plain-value")
	if err != nil || got != "plain-value" {
		t.Fatalf("Open(plain) = %q, %v", got, err)
	}
	if _, err := box.Open("enc:AAAA"); !errors.Is(err, ErrNoKey) {
		t.Errorf("Open(sealed) without key err = %v, want ErrNoKey", err)
	}
	if _, err := box.Seal("x"); !errors.Is(err, ErrNoKey) {
		t.Errorf("Seal without key err = %v, want ErrNoKey", err)
	}
}

func TestOpenAll(t *testing.T) {
	box, _ := NewBox("k")
	sealed, _ := box.Seal("s3cret")
	a, b := sealed, "plain"
	if err := box.OpenAll(&a, &b); err != nil {
		t.Fatalf("OpenAll: %v", err)
	}
	if a != "s3cret" || b != "plain" {
		t.Errorf("OpenAll = %q, %q", a, b)
	}

	bad := "enc:not-base64!"
	if err := box.OpenAll(&bad); err == nil {
		t.Error("OpenAll accepted malformed ciphertext")
	}
}

func TestSealUsesFreshSaltPerValue(t *testing.T) {
	box, _ := NewBox("hunter2")
	first, err := box.Seal("twilio-token")
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	second, err := box.Seal("twilio-token")
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	salt := func(v string) []byte {
		data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(v, prefix))
		if err != nil || len(data) < saltLength {
			t.Fatalf("malformed sealed value %q: %v", v, err)
		}
		return data[:saltLength]
	}
	if bytes.Equal(salt(first), salt(second)) {
		t.Error("two seals of the same value share a salt")
	}
	for _, v := range []string{first, second} {
		if got, err := box.Open(v); err != nil || got != "twilio-token" {
			t.Errorf("Open(%q) = %q, %v", v, got, err)
		}
	}
}

func TestSealedKeyIsNotPlainHashOfPassphrase(t *testing.T) {
	box, _ := NewBox("hunter2")
	sealed, err := box.Seal("twilio-token")
	if err != nil {
		t.Fatal(err)
	}
	data, _ := base64.StdEncoding.DecodeString(strings.TrimPrefix(sealed, prefix))

	key := sha256.Sum256([]byte("hunter2"))
	block, _ := aes.NewCipher(key[:])
	gcm, _ := cipher.NewGCM(block)
	for _, off := range []int{0, saltLength} {
		rest := data[off:]
		n := gcm.NonceSize()
		if _, err := gcm.Open(nil, rest[:n], rest[n:], nil); err == nil {
			t.Fatalf("sealed value opened with sha256(passphrase) at offset %d", off)
		}
	}
}
