// Package storage implements the on-disk blob store backing document
// uploads. Blobs are addressed by opaque keys (ULIDs) and fanned out
// into two directory levels to keep directories small.
package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrNotFound is returned when a storage key has no blob.
	ErrNotFound = errors.New("blob not found")

	// ErrInvalidKey is returned for keys that are too short or contain
	// characters outside [0-9A-Za-z].
	ErrInvalidKey = errors.New("invalid storage key")
)

// Store persists document blobs under a root directory.
type Store struct {
	root string
}

// New creates the root and scratch directories if needed.
func New(root string) (*Store, error) {
	if root == "" {
		return nil, errors.New("storage root is required")
	}
	if err := os.MkdirAll(filepath.Join(root, "tmp"), 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &Store{root: root}, nil
}

// Save streams r into the blob for key and returns the byte count and
// hex-encoded SHA-256 checksum. The data lands in a scratch file first
// and is renamed into place, so readers never observe partial blobs.
func (s *Store) Save(key string, r io.Reader) (int64, string, error) {
	if err := validateKey(key); err != nil {
		return 0, "", err
	}

	tmp, err := os.CreateTemp(filepath.Join(s.root, "tmp"), "upload-*")
	if err != nil {
		return 0, "", fmt.Errorf("create scratch file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		tmp.Close()
		os.Remove(tmpName)
	}()

	hasher := sha256.New()
	size, err := io.Copy(io.MultiWriter(tmp, hasher), r)
	if err != nil {
		return 0, "", fmt.Errorf("write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, "", fmt.Errorf("close scratch file: %w", err)
	}

	dest := s.path(key)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, "", fmt.Errorf("create blob directory: %w", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return 0, "", fmt.Errorf("finalize blob: %w", err)
	}

	return size, hex.EncodeToString(hasher.Sum(nil)), nil
}

// Open returns a reader over the blob for key. The caller must close it.
func (s *Store) Open(key string) (io.ReadCloser, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open blob: %w", err)
	}
	return f, nil
}

// Delete removes the blob for key. Deleting an absent key is not an error,
// so cleanup paths can retry safely.
func (s *Store) Delete(key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.root, strings.ToLower(key[:2]), strings.ToLower(key[2:4]), key)
}

// validateKey rejects anything that could escape the storage root.
func validateKey(key string) error {
	if len(key) < 8 {
		return ErrInvalidKey
	}
	for _, r := range key {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		default:
			return ErrInvalidKey
		}
	}
	return nil
}
