package store

import (
	"context"
	"errors"
	"testing"

	"github.com/gopasspw/gopass/pkg/gopass"
	"github.com/gopasspw/gopass/pkg/gopass/secrets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikicat/pass-engine/internal/crypto"
	"github.com/nikicat/pass-engine/internal/secret"
)

func TestFileSource(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "web/example.gpg", "hunter2\nalice\n")

	src := NewFileSource(NewMapper(root, "gpg"), crypto.NewPlain())
	assert.Equal(t, "plain", src.Name())

	text, err := src.Contents(context.Background(), "web/example")
	require.NoError(t, err)
	assert.Equal(t, "hunter2\nalice\n", text)

	_, err = src.Contents(context.Background(), "web/missing")
	assert.Error(t, err)

	_, err = src.Contents(context.Background(), "../outside")
	assert.Error(t, err)
}

type fakeGopass struct {
	secrets map[string]gopass.Secret
	closed  bool
}

func (f *fakeGopass) Get(ctx context.Context, name, revision string) (gopass.Secret, error) {
	sec, ok := f.secrets[name]
	if !ok {
		return nil, errors.New("entry is not in the password store")
	}
	return sec, nil
}

func (f *fakeGopass) Close(ctx context.Context) error {
	f.closed = true
	return nil
}

func TestGopassSource(t *testing.T) {
	sec := secrets.New()
	sec.SetPassword("hunter2")

	fake := &fakeGopass{secrets: map[string]gopass.Secret{"web/example": sec}}
	src := &GopassSource{store: fake}
	assert.Equal(t, "gopass", src.Name())

	text, err := src.Contents(context.Background(), "web/example")
	require.NoError(t, err)
	password, err := secret.Password(text)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", password)

	_, err = src.Contents(context.Background(), "web/missing")
	assert.ErrorIs(t, err, crypto.ErrDecrypt)

	require.NoError(t, src.Close(context.Background()))
	assert.True(t, fake.closed)
}
