package store

import (
	"context"
	"fmt"
	"os"

	"github.com/nikicat/pass-engine/internal/crypto"
)

// FileSource reads entries from the store directory and decrypts them
type FileSource struct {
	mapper    *Mapper
	decryptor crypto.Decryptor
}

// NewFileSource creates a source for the store mapped by m
func NewFileSource(m *Mapper, dec crypto.Decryptor) *FileSource {
	return &FileSource{mapper: m, decryptor: dec}
}

// Name returns the decryptor backend name
func (s *FileSource) Name() string {
	return s.decryptor.Name()
}

// Contents reads and decrypts the entry with the given ID
func (s *FileSource) Contents(ctx context.Context, id string) (string, error) {
	p, err := s.mapper.Resolve(id)
	if err != nil {
		return "", err
	}
	ciphertext, err := os.ReadFile(p)
	if err != nil {
		return "", fmt.Errorf("reading entry %s: %w", id, err)
	}
	return s.decryptor.Decrypt(ctx, ciphertext)
}
