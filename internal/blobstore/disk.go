package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/corpnet/microblog/pkg/logging"
	"github.com/corpnet/microblog/pkg/telemetry"
)

var (
	// ErrTooLarge is returned when an upload exceeds the configured limit
	ErrTooLarge = errors.New("blob exceeds size limit")
	// ErrInvalidRef is returned for references that do not name a stored blob
	ErrInvalidRef = errors.New("invalid blob reference")
)

// Store persists uploaded blobs and hands back stable references. A
// reference is an opaque generated name; callers never choose it.
type Store interface {
	Save(ctx context.Context, filename string, r io.Reader) (string, error)
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
	Remove(ctx context.Context, ref string) error
}

// DiskStore keeps blobs as flat files under a single directory.
type DiskStore struct {
	dir      string
	maxBytes int64
}

// NewDiskStore creates the directory if needed and returns a store over it
func NewDiskStore(dir string, maxBytes int64) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}
	logging.GetLogger().Info("Blob store ready at " + dir)
	return &DiskStore{dir: dir, maxBytes: maxBytes}, nil
}

// Dir returns the directory blobs live in
func (s *DiskStore) Dir() string {
	return s.dir
}

// Save streams the blob to disk under a generated name and returns that
// name. The write goes to a temp file first so a partial upload never
// becomes visible under a final reference.
func (s *DiskStore) Save(ctx context.Context, filename string, r io.Reader) (string, error) {
	_, span := telemetry.StartSpan(ctx, "blobstore.save")
	defer span.End()

	ref := uuid.New().String() + safeExt(filename)

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	src := r
	if s.maxBytes > 0 {
		src = io.LimitReader(r, s.maxBytes+1)
	}

	n, err := io.Copy(tmp, src)
	if err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write blob: %w", err)
	}
	if s.maxBytes > 0 && n > s.maxBytes {
		tmp.Close()
		return "", ErrTooLarge
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, ref)); err != nil {
		return "", fmt.Errorf("failed to place blob: %w", err)
	}

	return ref, nil
}

// Open returns a reader over a stored blob
func (s *DiskStore) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	_, span := telemetry.StartSpan(ctx, "blobstore.open")
	defer span.End()

	if !validRef(ref) {
		return nil, ErrInvalidRef
	}
	f, err := os.Open(filepath.Join(s.dir, ref))
	if err != nil {
		return nil, fmt.Errorf("failed to open blob: %w", err)
	}
	return f, nil
}

// Remove deletes a stored blob
func (s *DiskStore) Remove(ctx context.Context, ref string) error {
	_, span := telemetry.StartSpan(ctx, "blobstore.remove")
	defer span.End()

	if !validRef(ref) {
		return ErrInvalidRef
	}
	return os.Remove(filepath.Join(s.dir, ref))
}

// validRef rejects anything that would escape the blob directory
func validRef(ref string) bool {
	if ref == "" || ref == "." || ref == ".." {
		return false
	}
	return filepath.Base(ref) == ref
}

// safeExt keeps a short alphanumeric extension from the upload name and
// drops everything else
func safeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if len(ext) < 2 || len(ext) > 10 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
