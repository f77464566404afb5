package store

import (
	"hash/fnv"
	"sync"
)

const lockStripes = 16

// keyLocks hands out per-key advisory locks, striped by key hash. Only
// contended when the server runs one goroutine per connection; the serial
// mode never blocks here.
type keyLocks struct {
	stripes [lockStripes]sync.Mutex
}

func (l *keyLocks) lock(key string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	m := &l.stripes[h.Sum32()%lockStripes]
	m.Lock()
	return m.Unlock
}
