package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
)

// Build scans the store at root and returns its entries sorted by ID.
// Only an unreadable root fails the scan; unreadable subdirectories and
// files are skipped.
func Build(root, ext string, logger *log.Logger) ([]CredentialInfo, error) {
	if logger == nil {
		logger = log.Default()
	}
	m := NewMapper(root, ext)

	var infos []CredentialInfo
	visited := make(map[string]bool)
	if err := m.walk(root, visited, &infos, logger); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndex, err)
	}

	sort.SliceStable(infos, func(i, j int) bool {
		return infos[i].ID < infos[j].ID
	})
	return infos, nil
}

// walk collects entries below dir, following directory symlinks once
func (m *Mapper) walk(dir string, visited map[string]bool, out *[]CredentialInfo, logger *log.Logger) error {
	if real, err := filepath.EvalSymlinks(dir); err == nil {
		if visited[real] {
			return nil
		}
		visited[real] = true
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	for _, e := range entries {
		p := filepath.Join(dir, e.Name())

		fi, err := os.Stat(p)
		if err != nil {
			logger.Debugf("Skipping %s: %v", p, err)
			continue
		}

		if fi.IsDir() {
			if err := m.walk(p, visited, out, logger); err != nil {
				logger.Debugf("Skipping unreadable directory %s: %v", p, err)
			}
			continue
		}

		if !fi.Mode().IsRegular() || !m.IsEntry(e.Name()) {
			continue
		}

		id, err := m.ID(p)
		if err != nil {
			logger.Debugf("Skipping %s: %v", p, err)
			continue
		}

		*out = append(*out, CredentialInfo{
			ID:      id,
			Path:    p,
			ModTime: fi.ModTime(),
			Size:    fi.Size(),
			Mode:    fi.Mode(),
		})
	}
	return nil
}

// Filter returns the entries whose ID matches pattern.
// Patterns with glob metacharacters use doublestar syntax ("web/**");
// anything else is a case-insensitive substring match.
func Filter(infos []CredentialInfo, pattern string) ([]CredentialInfo, error) {
	if pattern == "" {
		return infos, nil
	}

	if !strings.ContainsAny(pattern, "*?[{") {
		needle := strings.ToLower(pattern)
		var result []CredentialInfo
		for _, info := range infos {
			if strings.Contains(strings.ToLower(info.ID), needle) {
				result = append(result, info)
			}
		}
		return result, nil
	}

	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern: %s", pattern)
	}

	var result []CredentialInfo
	for _, info := range infos {
		ok, err := doublestar.Match(pattern, info.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if ok {
			result = append(result, info)
		}
	}
	return result, nil
}
