package crypto

import (
	"context"
	"unicode/utf8"
)

// Plain implements the "plain" backend for unencrypted stores
type Plain struct{}

// NewPlain creates a new plain decryptor
func NewPlain() *Plain {
	return &Plain{}
}

// Name returns "plain"
func (p *Plain) Name() string {
	return BackendPlain
}

// Decrypt returns the ciphertext as-is
func (p *Plain) Decrypt(ctx context.Context, ciphertext []byte) (string, error) {
	if !utf8.Valid(ciphertext) {
		return "", decryptError(BackendPlain, errInvalidUTF8)
	}
	return string(ciphertext), nil
}
