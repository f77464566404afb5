package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, opts Options) (*FileStore, string) {
	t.Helper()
	dir := t.TempDir()
	st, err := NewFileStore(dir, opts)
	require.NoError(t, err)
	return st, dir
}

func TestFileStoreSetGetDel(t *testing.T) {
	st, dir := newTestStore(t, Options{})

	require.NoError(t, st.Set("foo", []byte("bar")))

	data, err := os.ReadFile(filepath.Join(dir, "foo"))
	require.NoError(t, err)
	assert.Equal(t, "bar", string(data))

	val, err := st.Get("foo", 128)
	require.NoError(t, err)
	assert.Equal(t, "bar", string(val))

	require.NoError(t, st.Del("foo"))
	_, err = os.Stat(filepath.Join(dir, "foo"))
	assert.True(t, os.IsNotExist(err))
}

func TestFileStoreGetMissing(t *testing.T) {
	st, _ := newTestStore(t, Options{})
	_, err := st.Get("missing", 128)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStoreGetEmptyFile(t *testing.T) {
	st, dir := newTestStore(t, Options{})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty"), nil, 0o644))

	// A zero-byte file reads as absent.
	_, err := st.Get("empty", 128)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStoreGetTruncates(t *testing.T) {
	st, _ := newTestStore(t, Options{})
	require.NoError(t, st.Set("big", []byte("0123456789")))

	val, err := st.Get("big", 4)
	require.NoError(t, err)
	assert.Equal(t, "0123", string(val))
}

func TestFileStoreSetIdempotent(t *testing.T) {
	st, _ := newTestStore(t, Options{})
	require.NoError(t, st.Set("k", []byte("first")))
	require.NoError(t, st.Set("k", []byte("second")))
	require.NoError(t, st.Set("k", []byte("second")))

	val, err := st.Get("k", 128)
	require.NoError(t, err)
	assert.Equal(t, "second", string(val))
}

func TestFileStoreDelTwice(t *testing.T) {
	st, _ := newTestStore(t, Options{})
	require.NoError(t, st.Set("k", []byte("v")))
	require.NoError(t, st.Del("k"))
	assert.ErrorIs(t, st.Del("k"), ErrNotFound)
}

func TestFileStoreSetFileMode(t *testing.T) {
	st, dir := newTestStore(t, Options{})
	require.NoError(t, st.Set("k", []byte("v")))

	info, err := os.Stat(filepath.Join(dir, "k"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestFileStoreRejectsPathKeys(t *testing.T) {
	st, dir := newTestStore(t, Options{})

	outside := filepath.Join(dir, "..", "escape")
	err := st.Set("../escape", []byte("v"))
	assert.ErrorIs(t, err, ErrKeyRejected)
	_, serr := os.Stat(outside)
	assert.True(t, os.IsNotExist(serr))

	assert.ErrorIs(t, st.Set("..", []byte("v")), ErrKeyRejected)
	assert.ErrorIs(t, st.Set("a/b", []byte("v")), ErrKeyRejected)

	_, err = st.Get("../escape", 128)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, st.Del("../escape"), ErrNotFound)
}

func TestFileStoreAllowPathKeys(t *testing.T) {
	st, dir := newTestStore(t, Options{AllowPathKeys: true})
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))

	require.NoError(t, st.Set("sub/k", []byte("v")))
	val, err := st.Get("sub/k", 128)
	require.NoError(t, err)
	assert.Equal(t, "v", string(val))
}
