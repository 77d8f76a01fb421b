package crypto

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
)

func TestPlainDecrypt(t *testing.T) {
	dec, err := New("plain", Options{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if dec.Name() != "plain" {
		t.Errorf("Expected backend 'plain', got %s", dec.Name())
	}

	text, err := dec.Decrypt(context.Background(), []byte("hunter2\nalice\n"))
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if text != "hunter2\nalice\n" {
		t.Errorf("Expected plaintext to pass through, got %q", text)
	}

	_, err = dec.Decrypt(context.Background(), []byte{0xff, 0xfe})
	if !errors.Is(err, ErrDecrypt) {
		t.Errorf("Expected ErrDecrypt for invalid UTF-8, got %v", err)
	}
}

func TestUnsupportedBackend(t *testing.T) {
	_, err := New("unsupported", Options{})
	if err == nil {
		t.Error("Expected error for unsupported backend")
	}
}

func TestSupportedBackends(t *testing.T) {
	backends := SupportedBackends()
	if len(backends) == 0 {
		t.Error("Expected at least one supported backend")
	}

	found := false
	for _, b := range backends {
		if b == "gpg" {
			found = true
			break
		}
	}

	if !found {
		t.Error("Expected 'gpg' to be in supported backends")
	}
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-gpg")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("writing script: %v", err)
	}
	return path
}

func TestGPGDecrypt(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		dec := NewGPG(writeScript(t, "cat"))
		text, err := dec.Decrypt(context.Background(), []byte("hunter2\n"))
		if err != nil {
			t.Fatalf("Decrypt failed: %v", err)
		}
		if text != "hunter2\n" {
			t.Errorf("Expected %q, got %q", "hunter2\n", text)
		}
	})

	t.Run("failure carries stderr", func(t *testing.T) {
		dec := NewGPG(writeScript(t, "echo 'no secret key' >&2; exit 2"))
		_, err := dec.Decrypt(context.Background(), []byte("x"))
		if !errors.Is(err, ErrDecrypt) {
			t.Fatalf("Expected ErrDecrypt, got %v", err)
		}
		if !strings.Contains(err.Error(), "no secret key") {
			t.Errorf("Expected stderr in error, got %v", err)
		}
	})

	t.Run("missing binary", func(t *testing.T) {
		dec := NewGPG(filepath.Join(t.TempDir(), "does-not-exist"))
		_, err := dec.Decrypt(context.Background(), []byte("x"))
		if !errors.Is(err, ErrDecrypt) {
			t.Errorf("Expected ErrDecrypt, got %v", err)
		}
	})

	t.Run("default binary", func(t *testing.T) {
		if NewGPG("").binary != "gpg" {
			t.Error("Expected default binary 'gpg'")
		}
	})
}

func newTestEntity(t *testing.T) (*openpgp.Entity, []byte) {
	t.Helper()
	entity, err := openpgp.NewEntity("Test", "", "test@example.com", nil)
	if err != nil {
		t.Fatalf("NewEntity failed: %v", err)
	}
	var keyring bytes.Buffer
	if err := entity.SerializePrivate(&keyring, nil); err != nil {
		t.Fatalf("SerializePrivate failed: %v", err)
	}
	return entity, keyring.Bytes()
}

func encryptFor(t *testing.T, entity *openpgp.Entity, plaintext string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := openpgp.Encrypt(&buf, []*openpgp.Entity{entity}, nil, nil, nil)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if _, err := w.Write([]byte(plaintext)); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	return buf.Bytes()
}

func TestOpenPGPDecrypt(t *testing.T) {
	entity, keyring := newTestEntity(t)

	dec, err := NewOpenPGP(bytes.NewReader(keyring), nil)
	if err != nil {
		t.Fatalf("NewOpenPGP failed: %v", err)
	}

	ciphertext := encryptFor(t, entity, "hunter2\nalice\n")
	text, err := dec.Decrypt(context.Background(), ciphertext)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if text != "hunter2\nalice\n" {
		t.Errorf("Expected decrypted entry, got %q", text)
	}
}

func TestOpenPGPWrongKey(t *testing.T) {
	_, keyring := newTestEntity(t)
	other, _ := newTestEntity(t)

	dec, err := NewOpenPGP(bytes.NewReader(keyring), nil)
	if err != nil {
		t.Fatalf("NewOpenPGP failed: %v", err)
	}

	_, err = dec.Decrypt(context.Background(), encryptFor(t, other, "hunter2"))
	if !errors.Is(err, ErrDecrypt) {
		t.Errorf("Expected ErrDecrypt, got %v", err)
	}
}

func TestOpenPGPFromFile(t *testing.T) {
	entity, keyring := newTestEntity(t)
	path := filepath.Join(t.TempDir(), "secring.gpg")
	if err := os.WriteFile(path, keyring, 0o600); err != nil {
		t.Fatalf("writing keyring: %v", err)
	}

	dec, err := New("openpgp", Options{KeyringPath: path})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	text, err := dec.Decrypt(context.Background(), encryptFor(t, entity, "hunter2"))
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if text != "hunter2" {
		t.Errorf("Expected 'hunter2', got %q", text)
	}

	if _, err := New("openpgp", Options{}); err == nil {
		t.Error("Expected error for missing keyring path")
	}
}

func newProtectedKeyring(t *testing.T, passphrase string) (*openpgp.Entity, []byte) {
	t.Helper()
	entity, _ := newTestEntity(t)
	if err := entity.EncryptPrivateKeys([]byte(passphrase), nil); err != nil {
		t.Fatalf("EncryptPrivateKeys failed: %v", err)
	}
	var keyring bytes.Buffer
	if err := entity.SerializePrivateWithoutSigning(&keyring, nil); err != nil {
		t.Fatalf("SerializePrivateWithoutSigning failed: %v", err)
	}
	return entity, keyring.Bytes()
}

func TestOpenPGPPassphrase(t *testing.T) {
	entity, keyring := newProtectedKeyring(t, "correct horse")
	ciphertext := encryptFor(t, entity, "hunter2\nalice\n")

	tests := []struct {
		name       string
		passphrase []byte
		wantErr    bool
	}{
		{"correct", []byte("correct horse"), false},
		{"wrong", []byte("battery staple"), true},
		{"missing", nil, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dec, err := NewOpenPGP(bytes.NewReader(keyring), tc.passphrase)
			if tc.wantErr {
				if err == nil {
					t.Error("Expected error unlocking keyring")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewOpenPGP failed: %v", err)
			}
			text, err := dec.Decrypt(context.Background(), ciphertext)
			if err != nil {
				t.Fatalf("Decrypt failed: %v", err)
			}
			if text != "hunter2\nalice\n" {
				t.Errorf("Expected decrypted entry, got %q", text)
			}
		})
	}
}

// Decrypt is called from concurrently running operations and must not
// touch the shared keyring; run with -race.
func TestOpenPGPConcurrentDecrypt(t *testing.T) {
	entity, keyring := newProtectedKeyring(t, "correct horse")
	dec, err := NewOpenPGP(bytes.NewReader(keyring), []byte("correct horse"))
	if err != nil {
		t.Fatalf("NewOpenPGP failed: %v", err)
	}

	const workers = 8
	ciphertexts := make([][]byte, workers)
	for i := range ciphertexts {
		ciphertexts[i] = encryptFor(t, entity, "entry")
	}

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			text, err := dec.Decrypt(context.Background(), ciphertexts[i])
			if err == nil && text != "entry" {
				err = errors.New("unexpected plaintext " + text)
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("Decrypt failed: %v", err)
		}
	}
}
