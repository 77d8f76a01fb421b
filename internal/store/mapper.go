package store

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Mapper handles mapping between credential IDs and store file paths
type Mapper struct {
	root string
	ext  string
}

// NewMapper creates a new mapper for the store at root.
// ext is the entry suffix without the dot; empty means "gpg".
func NewMapper(root, ext string) *Mapper {
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		ext = DefaultExtension
	}
	return &Mapper{root: root, ext: ext}
}

// Root returns the store root
func (m *Mapper) Root() string {
	return m.root
}

// Ext returns the entry suffix without the dot
func (m *Mapper) Ext() string {
	return m.ext
}

// IsEntry checks if a file name carries the entry suffix (case-insensitive)
// after a non-empty stem. A bare ".gpg" is a dotfile, not an entry.
func (m *Mapper) IsEntry(name string) bool {
	base := path.Base(filepath.ToSlash(name))
	if len(base) <= len(m.ext)+1 {
		return false
	}
	return strings.EqualFold(filepath.Ext(base), "."+m.ext)
}

// Path returns the file path for a credential ID
func (m *Mapper) Path(id string) (string, error) {
	if err := ValidateID(id); err != nil {
		return "", err
	}
	return filepath.Join(m.root, filepath.FromSlash(id)+"."+m.ext), nil
}

// Resolve returns the path of an existing entry, matching the suffix
// case-insensitively when the exact name is missing
func (m *Mapper) Resolve(id string) (string, error) {
	p, err := m.Path(id)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(p); err == nil || !os.IsNotExist(err) {
		return p, err
	}

	dir, base := filepath.Split(filepath.Join(m.root, filepath.FromSlash(id)))
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		name := e.Name()
		if m.IsEntry(name) && strings.TrimSuffix(name, filepath.Ext(name)) == base {
			return filepath.Join(dir, name), nil
		}
	}
	return "", fmt.Errorf("entry not found: %s", id)
}

// ID returns the credential ID for a file path under the root
func (m *Mapper) ID(filePath string) (string, error) {
	rel, err := filepath.Rel(m.root, filePath)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("path is outside the store: %s", filePath)
	}
	if !m.IsEntry(rel) {
		return "", fmt.Errorf("path is not a store entry: %s", filePath)
	}
	id := rel[:len(rel)-len(m.ext)-1]
	if err := ValidateID(id); err != nil {
		return "", err
	}
	return id, nil
}

// ValidateID checks that id is a clean relative path inside the store
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("empty credential id")
	}
	if strings.HasPrefix(id, "/") || path.Clean(id) != id {
		return fmt.Errorf("invalid credential id: %s", id)
	}
	for _, part := range strings.Split(id, "/") {
		if part == ".." || part == "." {
			return fmt.Errorf("invalid credential id: %s", id)
		}
	}
	return nil
}
