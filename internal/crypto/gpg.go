package crypto

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"unicode/utf8"
)

var errInvalidUTF8 = errors.New("decrypted data is not valid UTF-8")

// GPG decrypts by running the gpg binary, so key lookup, gpg-agent and
// pinentry are handled by the user's GnuPG setup
type GPG struct {
	binary string
}

// NewGPG creates a gpg-backed decryptor. An empty binary means "gpg".
func NewGPG(binary string) *GPG {
	if binary == "" {
		binary = "gpg"
	}
	return &GPG{binary: binary}
}

// Name returns "gpg"
func (g *GPG) Name() string {
	return BackendGPG
}

// Decrypt pipes ciphertext through gpg --decrypt
func (g *GPG) Decrypt(ctx context.Context, ciphertext []byte) (string, error) {
	cmd := exec.CommandContext(ctx, g.binary, "--decrypt", "--batch", "--quiet", "--yes")
	cmd.Stdin = bytes.NewReader(ciphertext)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", decryptError(BackendGPG, fmt.Errorf("%w: %s", err, msg))
		}
		return "", decryptError(BackendGPG, err)
	}

	if !utf8.Valid(stdout.Bytes()) {
		return "", decryptError(BackendGPG, errInvalidUTF8)
	}
	return stdout.String(), nil
}
