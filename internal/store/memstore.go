package store

import "sync"

// MemStore is a mutex-protected in-memory backend, selectable instead of the
// file store when the server runs one goroutine per connection. Pair it with
// the write-ahead log to survive restarts.
type MemStore struct {
	mu sync.RWMutex
	m  map[string][]byte
}

func NewMemStore() *MemStore {
	return &MemStore{m: make(map[string][]byte)}
}

func (t *MemStore) Set(key string, value []byte) error {
	buf := make([]byte, len(value))
	copy(buf, value)
	t.mu.Lock()
	t.m[key] = buf
	t.mu.Unlock()
	return nil
}

func (t *MemStore) Get(key string, maxSize int) ([]byte, error) {
	t.mu.RLock()
	v, ok := t.m[key]
	t.mu.RUnlock()
	// Zero-length values read as absent, matching the file backend.
	if !ok || len(v) == 0 {
		return nil, ErrNotFound
	}
	if len(v) > maxSize {
		v = v[:maxSize]
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (t *MemStore) Del(key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.m[key]; !ok {
		return ErrNotFound
	}
	delete(t.m, key)
	return nil
}

// Len reports the number of live keys.
func (t *MemStore) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.m)
}
