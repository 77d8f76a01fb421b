package crypto

import (
	"context"
	"errors"
	"fmt"
)

// Backend names
const (
	BackendGPG     = "gpg"
	BackendOpenPGP = "openpgp"
	BackendPlain   = "plain"
)

// ErrDecrypt is wrapped by every decryption failure
var ErrDecrypt = errors.New("decryption failed")

// Decryptor turns the ciphertext of a store entry into its UTF-8 text
type Decryptor interface {
	// Name returns the backend name
	Name() string

	// Decrypt decrypts ciphertext, blocking until the backend is done
	Decrypt(ctx context.Context, ciphertext []byte) (string, error)
}

// Options holds backend-specific settings
type Options struct {
	// GPGBinary is the gpg executable used by the gpg backend
	GPGBinary string

	// KeyringPath is the secret keyring used by the openpgp backend
	KeyringPath string

	// Passphrase unlocks the keyring of the openpgp backend
	Passphrase []byte
}

// New creates a decryptor for the named backend
func New(backend string, opts Options) (Decryptor, error) {
	switch backend {
	case BackendGPG:
		return NewGPG(opts.GPGBinary), nil
	case BackendOpenPGP:
		return NewOpenPGPFromFile(opts.KeyringPath, opts.Passphrase)
	case BackendPlain:
		return NewPlain(), nil
	default:
		return nil, fmt.Errorf("unsupported backend: %s", backend)
	}
}

// SupportedBackends returns the list of supported backend names
func SupportedBackends() []string {
	return []string{BackendGPG, BackendOpenPGP, BackendPlain}
}

func decryptError(backend string, err error) error {
	return fmt.Errorf("%w (%s): %v", ErrDecrypt, backend, err)
}
