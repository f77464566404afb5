package store

import "errors"

var (
	// ErrNotFound reports an absent or unreadable key.
	ErrNotFound = errors.New("key not found")
	// ErrKeyRejected reports a key that would escape the data directory.
	ErrKeyRejected = errors.New("key escapes data directory")
	// ErrShortWrite reports a write that stored zero bytes.
	ErrShortWrite = errors.New("zero bytes written")
)

// Store maps opaque string keys to byte values. Get reads at most maxSize
// bytes; a longer value is silently truncated.
type Store interface {
	Set(key string, value []byte) error
	Get(key string, maxSize int) ([]byte, error)
	Del(key string) error
}
