package store

import (
	"context"
	"fmt"

	"github.com/gopasspw/gopass/pkg/gopass"
	"github.com/gopasspw/gopass/pkg/gopass/api"

	"github.com/nikicat/pass-engine/internal/crypto"
)

// BackendGopass is the source name of the gopass-backed source
const BackendGopass = "gopass"

// gopassGetter is the part of the gopass API used here
type gopassGetter interface {
	Get(ctx context.Context, name, revision string) (gopass.Secret, error)
	Close(ctx context.Context) error
}

// GopassSource reads entries through the gopass Go API, which handles
// mounts, recipients and the configured crypto backend
type GopassSource struct {
	store gopassGetter
}

// NewGopassSource creates a new gopass-backed source
func NewGopassSource(ctx context.Context) (*GopassSource, error) {
	store, err := api.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gopass: %w", err)
	}
	return &GopassSource{store: store}, nil
}

// Name returns "gopass"
func (s *GopassSource) Name() string {
	return BackendGopass
}

// Contents returns the full text of the latest revision of an entry
func (s *GopassSource) Contents(ctx context.Context, id string) (string, error) {
	if err := ValidateID(id); err != nil {
		return "", err
	}
	sec, err := s.store.Get(ctx, id, "latest")
	if err != nil {
		return "", fmt.Errorf("%w (gopass): %v", crypto.ErrDecrypt, err)
	}
	return string(sec.Bytes()), nil
}

// Close closes the gopass store
func (s *GopassSource) Close(ctx context.Context) error {
	return s.store.Close(ctx)
}
