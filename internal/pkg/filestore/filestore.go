// Package filestore keeps uploaded files (payment proofs, custom form
// attachments) on local disk under a configurable root.
package filestore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

type Store struct {
	root string
}

func New(root string) (*Store, error) {
	if root == "" {
		root = "./uploads"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("os.MkdirAll -> %w", err)
	}

	return &Store{root: root}, nil
}

// Save streams src into a fresh file under dir and returns the relative
// path to persist. The stored name is random; the original name travels
// separately in the database.
func (s *Store) Save(dir, originalName string, src io.Reader) (string, error) {
	ext := sanitizeExt(filepath.Ext(originalName))
	rel := filepath.Join(dir, uuid.NewString()+ext)

	full := filepath.Join(s.root, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("os.MkdirAll -> %w", err)
	}

	dst, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("os.Create -> %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		_ = os.Remove(full)
		return "", fmt.Errorf("io.Copy -> %w", err)
	}

	return rel, nil
}

// Open returns the stored file for streaming back to a client.
func (s *Store) Open(rel string) (*os.File, error) {
	f, err := os.Open(filepath.Join(s.root, rel))
	if err != nil {
		return nil, fmt.Errorf("os.Open -> %w", err)
	}

	return f, nil
}

// Delete removes a stored file. A missing file is not an error; cleanup
// paths call this without checking existence first.
func (s *Store) Delete(rel string) error {
	if rel == "" {
		return nil
	}

	err := os.Remove(filepath.Join(s.root, rel))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("os.Remove -> %w", err)
	}

	return nil
}

func sanitizeExt(ext string) string {
	ext = strings.ToLower(ext)
	for _, r := range ext[min(1, len(ext)):] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	if len(ext) > 10 {
		return ""
	}

	return ext
}

func min(a, b int) int {
	if a < b {
		return a
	}

	return b
}
