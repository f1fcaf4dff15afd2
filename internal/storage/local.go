package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	apperrors "github.com/sanchitvj/sparkify-lake/internal/errors"
)

// LocalStore maps keys onto filesystem paths. Metadata is not persisted.
type LocalStore struct{}

// NewLocalStore returns a Store over the local filesystem.
func NewLocalStore() *LocalStore {
	return &LocalStore{}
}

// List walks the directory part of prefix and returns every regular file whose
// slash-separated path starts with prefix.
func (s *LocalStore) List(ctx context.Context, prefix string) ([]string, error) {
	dir := prefix
	if !strings.HasSuffix(prefix, "/") {
		dir = path.Dir(prefix)
	}
	if dir == "" {
		dir = "."
	}

	var keys []string
	err := filepath.WalkDir(filepath.FromSlash(dir), func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return fs.SkipDir
			}
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}
		key := filepath.ToSlash(p)
		if dir == "." && !strings.HasPrefix(prefix, "./") {
			key = strings.TrimPrefix(key, "./")
		}
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.NewRead(fmt.Sprintf("list %s", prefix), err)
	}
	sort.Strings(keys)
	return keys, nil
}

// Get opens the file at key.
func (s *LocalStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewRead(fmt.Sprintf("get %s", key), err)
	}
	f, err := os.Open(filepath.FromSlash(key))
	if err != nil {
		return nil, apperrors.NewRead(fmt.Sprintf("get %s", key), err)
	}
	return f, nil
}

// Put writes body to key, creating parent directories.
func (s *LocalStore) Put(ctx context.Context, key string, body []byte, _ map[string]string) error {
	if err := ctx.Err(); err != nil {
		return apperrors.NewWrite(fmt.Sprintf("put %s", key), err)
	}
	p := filepath.FromSlash(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return apperrors.NewWrite(fmt.Sprintf("create directory for %s", key), err)
	}
	if err := os.WriteFile(p, body, 0o644); err != nil {
		return apperrors.NewWrite(fmt.Sprintf("put %s", key), err)
	}
	return nil
}

// Delete removes the file at key. Missing files are not an error.
func (s *LocalStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return apperrors.NewWrite(fmt.Sprintf("delete %s", key), err)
	}
	if err := os.Remove(filepath.FromSlash(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return apperrors.NewWrite(fmt.Sprintf("delete %s", key), err)
	}
	return nil
}

// DeletePrefix removes a directory prefix ("songs/") recursively, or the matching files
// of a non-directory prefix.
func (s *LocalStore) DeletePrefix(ctx context.Context, prefix string) error {
	if prefix == "" || prefix == "/" || prefix == "./" {
		return apperrors.NewWrite(fmt.Sprintf("refusing to delete prefix %q", prefix), nil)
	}
	if strings.HasSuffix(prefix, "/") {
		if err := ctx.Err(); err != nil {
			return apperrors.NewWrite(fmt.Sprintf("delete %s", prefix), err)
		}
		if err := os.RemoveAll(filepath.FromSlash(prefix)); err != nil {
			return apperrors.NewWrite(fmt.Sprintf("delete %s", prefix), err)
		}
		return nil
	}

	keys, err := s.List(ctx, prefix)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := s.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}
