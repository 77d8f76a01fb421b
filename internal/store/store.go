package store

import (
	"context"
	"errors"
	"io/fs"
	"time"

	"github.com/dustin/go-humanize"
)

// DefaultExtension is the suffix of encrypted entries
const DefaultExtension = "gpg"

// ErrIndex is wrapped when the store root cannot be scanned
var ErrIndex = errors.New("cannot index password store")

// CredentialInfo is a snapshot of one store entry taken at index time
type CredentialInfo struct {
	// ID is the slash-separated path relative to the store root, without suffix
	ID string

	// Path is the file path of the encrypted entry
	Path string

	// ModTime is the last modification time of the file
	ModTime time.Time

	// Size is the size of the encrypted file in bytes
	Size int64

	// Mode is the file mode
	Mode fs.FileMode
}

// LastModified formats the modification time as a medium date with a short
// time, or "Unknown" when it is not available
func (c CredentialInfo) LastModified() string {
	if c.ModTime.IsZero() {
		return "Unknown"
	}
	return c.ModTime.Local().Format("Jan 2, 2006, 3:04 PM")
}

// ModifiedAgo returns the modification time relative to now ("3 days ago")
func (c CredentialInfo) ModifiedAgo() string {
	if c.ModTime.IsZero() {
		return "Unknown"
	}
	return humanize.Time(c.ModTime)
}

// HumanSize returns the file size in human units
func (c CredentialInfo) HumanSize() string {
	return humanize.Bytes(uint64(c.Size))
}

// Source returns the decrypted text of an entry
type Source interface {
	// Name returns the source name for logs
	Name() string

	// Contents decrypts the entry with the given ID, blocking until done
	Contents(ctx context.Context, id string) (string, error)
}
