package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, maxBytes int64) (*DiskStore, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewDiskStore(dir, "http://localhost:8080", "/uploads/", maxBytes)
	require.NoError(t, err)
	return store, dir
}

func TestSaveWritesFileAndReturnsURL(t *testing.T) {
	store, dir := newTestStore(t, 1<<20)

	url, err := store.Save(context.Background(), strings.NewReader("jpeg bytes"), "wave.JPG", "image/jpeg")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://localhost:8080/uploads/"), "url %q", url)
	assert.True(t, strings.HasSuffix(url, ".jpg"), "extension should be lower-cased: %q", url)

	name := strings.TrimPrefix(url, "http://localhost:8080/uploads/")
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(data))
}

func TestSaveRejectsEmptyPayload(t *testing.T) {
	store, dir := newTestStore(t, 1<<20)

	_, err := store.Save(context.Background(), strings.NewReader(""), "wave.jpg", "image/jpeg")
	assert.ErrorIs(t, err, ErrEmptyMedia)
	assertDirEmpty(t, dir)
}

func TestSaveRejectsOversizedPayloadAndCleansUp(t *testing.T) {
	store, dir := newTestStore(t, 8)

	_, err := store.Save(context.Background(), strings.NewReader("more than eight bytes"), "wave.jpg", "image/jpeg")
	assert.ErrorIs(t, err, ErrTooLarge)
	assertDirEmpty(t, dir)
}

func TestConcurrentSavesNeverCollide(t *testing.T) {
	store, _ := newTestStore(t, 1<<20)

	const n = 32
	urls := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			url, err := store.Save(context.Background(), strings.NewReader(fmt.Sprintf("payload %d", i)), "wave.jpg", "image/jpeg")
			assert.NoError(t, err)
			urls[i] = url
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for _, url := range urls {
		assert.False(t, seen[url], "duplicate media url %q", url)
		seen[url] = true
	}
}

func TestNewDiskStoreCreatesNestedDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", "uploads")
	_, err := NewDiskStore(dir, "http://localhost", "/uploads/", 0)
	require.NoError(t, err)
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// Idempotent on repeat startup.
	_, err = NewDiskStore(dir, "http://localhost", "/uploads/", 0)
	require.NoError(t, err)
}

func assertDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no file should remain after a failed save")
}
