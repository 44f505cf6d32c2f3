package local

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrPathInvalid is returned for bucket or key values that would escape the root.
var ErrPathInvalid = errors.New("local store: invalid path")

// DirStore is an object store backed by a directory tree: <root>/<bucket>/<key>.
type DirStore struct {
	root string
}

// NewDirStore returns a DirStore rooted at root.
func NewDirStore(root string) (*DirStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("local store: root is required")
	}
	return &DirStore{root: root}, nil
}

func (s *DirStore) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.path(bucket, key)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(p)
}

// Put writes data through a temp file in the destination directory and renames
// it into place, so readers never observe a partial object.
func (s *DirStore) Put(ctx context.Context, bucket, key string, data []byte, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dest, err := s.path(bucket, key)
	if err != nil {
		return err
	}
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

func (s *DirStore) path(bucket, key string) (string, error) {
	if strings.TrimSpace(bucket) == "" || strings.ContainsAny(bucket, `/\`) || bucket == "." || bucket == ".." {
		return "", ErrPathInvalid
	}
	rel := filepath.Clean(filepath.FromSlash(key))
	if rel == "." || rel == "" || filepath.IsAbs(rel) {
		return "", ErrPathInvalid
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrPathInvalid
	}
	return filepath.Join(s.root, bucket, rel), nil
}
