package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"docdash-backend/internal/shared/storage/object"
)

// metaDir holds one sidecar per object with its content type. Keys under it
// are rejected so sidecars are never served as objects.
const metaDir = ".meta"

// Store implements ObjectStore using the local filesystem.
type Store struct {
	baseDir       string
	publicBaseURL string
}

// New creates a new local object store rooted at baseDir. Objects are publicly
// addressed as {publicBaseURL}/{key}.
func New(baseDir, publicBaseURL string) *Store {
	return &Store{baseDir: baseDir, publicBaseURL: publicBaseURL}
}

// Put writes data at key. It fails with object.ErrAlreadyExists if the key is taken.
func (s *Store) Put(ctx context.Context, key string, contentType string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	clean, err := cleanKey(key)
	if err != nil {
		return err
	}

	fullPath := s.objectPath(clean)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("put %s: %w", clean, object.ErrAlreadyExists)
		}
		return fmt.Errorf("open file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(fullPath)
		return fmt.Errorf("write body: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(fullPath)
		return fmt.Errorf("close file: %w", err)
	}

	if ct := strings.TrimSpace(contentType); ct != "" {
		if err := s.writeContentType(clean, ct); err != nil {
			_ = os.Remove(fullPath)
			return err
		}
	}
	return nil
}

// Open opens a stored object for reading along with its recorded content type.
func (s *Store) Open(ctx context.Context, key string) (*object.Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	clean, err := cleanKey(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(s.objectPath(clean))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, object.ErrNotFound
		}
		return nil, err
	}

	ct, err := os.ReadFile(s.metaPath(clean))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		_ = f.Close()
		return nil, fmt.Errorf("read content type: %w", err)
	}
	return &object.Object{ReadCloser: f, ContentType: strings.TrimSpace(string(ct))}, nil
}

// PublicURL returns the address the object is served from.
func (s *Store) PublicURL(key string) string {
	return object.JoinURL(s.publicBaseURL, key)
}

func (s *Store) writeContentType(clean, contentType string) error {
	p := s.metaPath(clean)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("mkdir meta: %w", err)
	}
	if err := os.WriteFile(p, []byte(contentType), 0o644); err != nil {
		return fmt.Errorf("write content type: %w", err)
	}
	return nil
}

func (s *Store) objectPath(clean string) string {
	return filepath.Join(s.baseDir, filepath.FromSlash(clean))
}

func (s *Store) metaPath(clean string) string {
	return filepath.Join(s.baseDir, metaDir, filepath.FromSlash(clean))
}

func cleanKey(key string) (string, error) {
	clean, err := object.CleanKey(key)
	if err != nil {
		return "", err
	}
	if clean == metaDir || strings.HasPrefix(clean, metaDir+"/") {
		return "", object.ErrInvalidKey
	}
	return clean, nil
}

var _ object.ObjectStore = (*Store)(nil)
