package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStoreSetGetDel(t *testing.T) {
	st := NewMemStore()

	require.NoError(t, st.Set("foo", []byte("bar")))
	val, err := st.Get("foo", 128)
	require.NoError(t, err)
	assert.Equal(t, "bar", string(val))
	assert.Equal(t, 1, st.Len())

	require.NoError(t, st.Del("foo"))
	_, err = st.Get("foo", 128)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, st.Del("foo"), ErrNotFound)
	assert.Equal(t, 0, st.Len())
}

func TestMemStoreGetTruncates(t *testing.T) {
	st := NewMemStore()
	require.NoError(t, st.Set("big", []byte("0123456789")))

	val, err := st.Get("big", 4)
	require.NoError(t, err)
	assert.Equal(t, "0123", string(val))
}

func TestMemStoreCopiesValues(t *testing.T) {
	st := NewMemStore()
	in := []byte("abc")
	require.NoError(t, st.Set("k", in))
	in[0] = 'x'

	val, err := st.Get("k", 128)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(val))

	// Mutating a returned value must not leak back into the store.
	val[0] = 'y'
	again, err := st.Get("k", 128)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
}

func TestMemStoreConcurrentAccess(t *testing.T) {
	st := NewMemStore()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = st.Set("shared", []byte("value"))
				_, _ = st.Get("shared", 128)
			}
		}()
	}
	wg.Wait()

	val, err := st.Get("shared", 128)
	require.NoError(t, err)
	assert.Equal(t, "value", string(val))
}
