package store

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileStore keeps one file per key under a root directory. The filesystem is
// the source of truth; no index is held in memory. Each operation is a single
// open/read/write/unlink, so two concurrent SETs on the same key are
// last-writer-wins unless the per-key lock is taken, which Set does.
type FileStore struct {
	root          string
	allowPathKeys bool
	locks         keyLocks
}

// Options tune FileStore behavior.
type Options struct {
	// AllowPathKeys disables key confinement and uses the raw key as a path
	// relative to the root. Keys like ../x can then escape the directory.
	AllowPathKeys bool
}

// NewFileStore opens a store rooted at dir, creating it if absent.
func NewFileStore(dir string, opts Options) (*FileStore, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileStore{root: dir, allowPathKeys: opts.AllowPathKeys}, nil
}

// path maps a key to its backing file, rejecting keys that name another
// directory unless AllowPathKeys is set.
func (s *FileStore) path(key string) (string, error) {
	if !s.allowPathKeys {
		if key == ".." || key != filepath.Base(key) {
			return "", fmt.Errorf("%w: %q", ErrKeyRejected, key)
		}
	}
	return filepath.Join(s.root, key), nil
}

func (s *FileStore) Set(key string, value []byte) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	unlock := s.locks.lock(key)
	defer unlock()

	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	n, werr := f.Write(value)
	if werr == nil && n == 0 {
		werr = ErrShortWrite
	}
	cerr := f.Close()
	if werr != nil {
		return werr
	}
	return cerr
}

func (s *FileStore) Get(key string, maxSize int) ([]byte, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	unlock := s.locks.lock(key)
	defer unlock()

	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	defer f.Close()

	buf := make([]byte, maxSize)
	n, err := f.Read(buf)
	// An empty file reads zero bytes and reports the key as absent.
	if n == 0 {
		return nil, ErrNotFound
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return buf[:n], nil
}

func (s *FileStore) Del(key string) error {
	p, err := s.path(key)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	unlock := s.locks.lock(key)
	defer unlock()

	if err := os.Remove(p); err != nil {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return nil
}
