package kv

import (
	"context"
	stderrors "errors"
	"io/fs"
	"net/url"
	"strings"
	"sync"

	"github.com/hack-pad/hackpadfs"

	"kgraph/pkg/errors"
)

// FileStore keeps one file per key inside a directory on a hackpadfs
// filesystem. The FS abstraction keeps it portable across the OS
// filesystem and the in-memory one used by tests.
type FileStore struct {
	mu  sync.RWMutex
	fs  hackpadfs.FS
	dir string
}

// NewFileStore creates a file-backed store rooted at dir
func NewFileStore(fsys hackpadfs.FS, dir string) (*FileStore, error) {
	if err := hackpadfs.MkdirAll(fsys, dir, 0755); err != nil {
		return nil, errors.NewStorageError("mkdir", err)
	}
	return &FileStore{fs: fsys, dir: dir}, nil
}

// path maps a key to its file path. Keys are escaped so arbitrary key
// characters never break out of the directory.
func (s *FileStore) path(key string) string {
	return s.dir + "/" + url.PathEscape(key)
}

// Get implements ports.KeyValueStore
func (s *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	content, err := hackpadfs.ReadFile(s.fs, s.path(key))
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.NewNotFoundError("key " + key)
		}
		return nil, errors.NewStorageError("read", err)
	}
	return content, nil
}

// Set implements ports.KeyValueStore
func (s *FileStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := hackpadfs.WriteFullFile(s.fs, s.path(key), value, 0644); err != nil {
		return errors.NewStorageError("write", err)
	}
	return nil
}

// Delete implements ports.KeyValueStore
func (s *FileStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := hackpadfs.Remove(s.fs, s.path(key)); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return errors.NewStorageError("delete", err)
	}
	return nil
}

// Keys implements ports.KeyValueStore
func (s *FileStore) Keys(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries, err := fs.ReadDir(s.fs, s.dir)
	if err != nil {
		return nil, errors.NewStorageError("list", err)
	}

	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		key, err := url.PathUnescape(entry.Name())
		if err != nil {
			continue
		}
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// Close implements ports.KeyValueStore
func (s *FileStore) Close() error {
	return nil
}
