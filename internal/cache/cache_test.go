package cache

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/shadergraph/spirv"
)

func openCache(t *testing.T) *Cache {
	t.Helper()

	c, err := Open(t.TempDir())
	require.NoError(t, err)

	t.Cleanup(func() {
		assert.NoError(t, c.Close())
	})

	return c
}

func TestKeyOf(t *testing.T) {
	doc := []byte("main: []\n")
	s := spirv.DefaultSettings()

	k := KeyOf(doc, s)
	assert.Equal(t, k, KeyOf(doc, s))
	assert.NotEqual(t, k, KeyOf([]byte("main: [ ]\n"), s))

	debug := s
	debug.Debug = true
	assert.NotEqual(t, k, KeyOf(doc, debug))

	version := s
	version.Version = spirv.Version1_4
	assert.NotEqual(t, k, KeyOf(doc, version))

	wg := s
	wg.WorkgroupSize[2] = 2
	assert.NotEqual(t, k, KeyOf(doc, wg))

	parsed, err := ParseKey(k.String())
	require.NoError(t, err)
	assert.Equal(t, k, parsed)

	_, err = ParseKey("abcd")
	assert.Error(t, err)

	_, err = ParseKey(strings.Repeat("zz", 32))
	assert.Error(t, err)
}

func TestPutGet(t *testing.T) {
	c := openCache(t)

	k := KeyOf([]byte("graph"), spirv.DefaultSettings())

	_, ok, err := c.Get(k)
	require.NoError(t, err)
	assert.False(t, ok)

	data := make([]byte, 4096)
	for i := range data {
		data[i] = byte(i % 7)
	}

	require.NoError(t, c.Put(k, data))

	got, ok, err := c.Get(k)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, data, got)

	_, _, err = c.Get(k)
	require.NoError(t, err)

	st, err := c.Stats()
	require.NoError(t, err)
	assert.Equal(t, Stats{Entries: 1, Size: 4096, Hits: 2}, st)

	info, err := os.Stat(c.blobPath(k))
	require.NoError(t, err)
	assert.Less(t, info.Size(), int64(len(data)), "blob is compressed")

	require.NoError(t, c.Put(k, []byte{1, 2, 3, 4}))

	got, ok, err = c.Get(k)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3, 4}, got)
}

func TestMissingBlob(t *testing.T) {
	c := openCache(t)

	k := KeyOf([]byte("graph"), spirv.DefaultSettings())
	require.NoError(t, c.Put(k, []byte("spirv")))
	require.NoError(t, os.Remove(c.blobPath(k)))

	_, ok, err := c.Get(k)
	require.NoError(t, err)
	assert.False(t, ok)

	st, err := c.Stats()
	require.NoError(t, err)
	assert.Zero(t, st.Entries)
}

func TestCorruptBlob(t *testing.T) {
	c := openCache(t)

	k := KeyOf([]byte("graph"), spirv.DefaultSettings())
	require.NoError(t, c.Put(k, []byte("spirv")))
	require.NoError(t, os.WriteFile(c.blobPath(k), []byte("not zstd"), 0o600))

	_, _, err := c.Get(k)
	assert.Error(t, err)
}

func TestPrune(t *testing.T) {
	c := openCache(t)

	base := time.Unix(1_700_000_000, 0)

	c.now = func() time.Time { return base }
	old := KeyOf([]byte("old"), spirv.DefaultSettings())
	require.NoError(t, c.Put(old, []byte("a")))

	c.now = func() time.Time { return base.Add(time.Hour) }
	fresh := KeyOf([]byte("fresh"), spirv.DefaultSettings())
	require.NoError(t, c.Put(fresh, []byte("b")))

	n, err := c.Prune(base.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, ok, err := c.Get(old)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = os.Stat(c.blobPath(old))
	assert.True(t, os.IsNotExist(err))

	_, ok, err = c.Get(fresh)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestConcurrentPut(t *testing.T) {
	c := openCache(t)

	var wg sync.WaitGroup

	for i := range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			k := KeyOf([]byte{byte(i)}, spirv.DefaultSettings())
			assert.NoError(t, c.Put(k, []byte{byte(i), 1, 2, 3}))
		}()
	}

	wg.Wait()

	st, err := c.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(8), st.Entries)
}

func TestReopen(t *testing.T) {
	dir := t.TempDir()

	c, err := Open(dir)
	require.NoError(t, err)

	k := KeyOf([]byte("graph"), spirv.DefaultSettings())
	require.NoError(t, c.Put(k, []byte("spirv")))
	require.NoError(t, c.Close())

	c, err = Open(dir)
	require.NoError(t, err)

	defer c.Close()

	got, ok, err := c.Get(k)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("spirv"), got)

	assert.FileExists(t, filepath.Join(dir, "index.db"))
}
