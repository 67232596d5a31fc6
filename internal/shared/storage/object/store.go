package object

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

var (
	// ErrAlreadyExists is returned by Put when the key is already taken.
	ErrAlreadyExists = errors.New("object already exists")
	// ErrInvalidKey is returned for empty, absolute, or traversing keys.
	ErrInvalidKey = errors.New("invalid storage key")
	// ErrNotFound is returned by Open when no object exists at the key.
	ErrNotFound = errors.New("object not found")
)

// Object is an open stored object. ContentType is the type recorded at Put,
// or empty when none was stored.
type Object struct {
	io.ReadCloser
	ContentType string
}

// ObjectStore defines the contract for saving and retrieving binary objects.
// Put never overwrites an existing object.
type ObjectStore interface {
	Put(ctx context.Context, key string, contentType string, data []byte) error
	Open(ctx context.Context, key string) (*Object, error)
	PublicURL(key string) string
}

// CleanKey validates a slash-separated storage key and returns its clean form.
func CleanKey(key string) (string, error) {
	k := strings.TrimSpace(key)
	if k == "" || strings.HasPrefix(k, "/") || strings.Contains(k, `\`) {
		return "", ErrInvalidKey
	}
	clean := path.Clean(k)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", ErrInvalidKey
	}
	for _, part := range strings.Split(k, "/") {
		if part == ".." {
			return "", ErrInvalidKey
		}
	}
	return clean, nil
}

// JoinURL joins a base URL and a storage key with a single slash.
func JoinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
