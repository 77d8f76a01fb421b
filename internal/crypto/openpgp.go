package crypto

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/ProtonMail/go-crypto/openpgp/packet"
)

const armorHeader = "-----BEGIN PGP"

// OpenPGP decrypts in-process with a secret keyring. The keyring is unlocked
// once when the decryptor is created and is read-only afterwards, so Decrypt
// is safe for concurrent use.
type OpenPGP struct {
	keyring openpgp.EntityList
}

// NewOpenPGP creates a decryptor from an armored or binary secret keyring.
// Passphrase-protected keys are unlocked with passphrase; a wrong or missing
// passphrase fails here rather than on every Decrypt.
func NewOpenPGP(keyring io.Reader, passphrase []byte) (*OpenPGP, error) {
	data, err := io.ReadAll(keyring)
	if err != nil {
		return nil, fmt.Errorf("reading keyring: %w", err)
	}

	var entities openpgp.EntityList
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte(armorHeader)) {
		entities, err = openpgp.ReadArmoredKeyRing(bytes.NewReader(data))
	} else {
		entities, err = openpgp.ReadKeyRing(bytes.NewReader(data))
	}
	if err != nil {
		return nil, fmt.Errorf("parsing keyring: %w", err)
	}
	if len(entities.DecryptionKeys()) == 0 {
		return nil, errors.New("keyring holds no decryption keys")
	}

	if err := unlock(entities, passphrase); err != nil {
		return nil, err
	}

	return &OpenPGP{keyring: entities}, nil
}

// unlock decrypts every encrypted private key and subkey in place
func unlock(entities openpgp.EntityList, passphrase []byte) error {
	var keys []*packet.PrivateKey
	for _, e := range entities {
		keys = append(keys, e.PrivateKey)
		for _, sub := range e.Subkeys {
			keys = append(keys, sub.PrivateKey)
		}
	}

	for _, pk := range keys {
		if pk == nil || !pk.Encrypted || pk.Dummy() {
			continue
		}
		if len(passphrase) == 0 {
			return errors.New("keyring is passphrase-protected and no passphrase was given")
		}
		if err := pk.Decrypt(passphrase); err != nil {
			return fmt.Errorf("unlocking key %X: %w", pk.KeyId, err)
		}
	}
	return nil
}

// NewOpenPGPFromFile reads the keyring at path
func NewOpenPGPFromFile(path string, passphrase []byte) (*OpenPGP, error) {
	if path == "" {
		return nil, errors.New("openpgp backend requires a keyring path")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	defer f.Close()
	return NewOpenPGP(f, passphrase)
}

// Name returns "openpgp"
func (o *OpenPGP) Name() string {
	return BackendOpenPGP
}

// Decrypt decrypts a binary or armored OpenPGP message
func (o *OpenPGP) Decrypt(ctx context.Context, ciphertext []byte) (string, error) {
	var r io.Reader = bytes.NewReader(ciphertext)
	if bytes.HasPrefix(bytes.TrimSpace(ciphertext), []byte(armorHeader)) {
		block, err := armor.Decode(bytes.NewReader(ciphertext))
		if err != nil {
			return "", decryptError(BackendOpenPGP, err)
		}
		r = block.Body
	}

	md, err := openpgp.ReadMessage(r, o.keyring, nil, nil)
	if err != nil {
		return "", decryptError(BackendOpenPGP, err)
	}

	plain, err := io.ReadAll(md.UnverifiedBody)
	if err != nil {
		return "", decryptError(BackendOpenPGP, err)
	}
	if !utf8.Valid(plain) {
		return "", decryptError(BackendOpenPGP, errInvalidUTF8)
	}
	return string(plain), nil
}
