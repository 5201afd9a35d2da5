package persistence

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStores(t *testing.T) map[string]Store {
	t.Helper()

	fileStore, err := NewFileStore(filepath.Join(t.TempDir(), "gob"))
	require.NoError(t, err)

	sqliteStore, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { sqliteStore.Close() })

	return map[string]Store{
		BackendMemory: NewMemoryStore(),
		BackendGob:    fileStore,
		BackendSQLite: sqliteStore,
	}
}

func TestStores_GetSet(t *testing.T) {
	ctx := context.Background()

	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			_, found, err := store.Get(ctx, KeyClusterTree)
			require.NoError(t, err)
			assert.False(t, found)

			require.NoError(t, store.Set(ctx, KeyClusterTree, []byte(`{"id":"root"}`)))
			value, found, err := store.Get(ctx, KeyClusterTree)
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, `{"id":"root"}`, string(value))

			require.NoError(t, store.Set(ctx, KeyClusterTree, []byte(`{"id":"root","children":[]}`)))
			value, _, err = store.Get(ctx, KeyClusterTree)
			require.NoError(t, err)
			assert.Equal(t, `{"id":"root","children":[]}`, string(value))

			_, found, err = store.Get(ctx, KeyTFIDF)
			require.NoError(t, err)
			assert.False(t, found, "keys are independent")
		})
	}
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	value := []byte("abc")
	require.NoError(t, store.Set(ctx, "k", value))
	value[0] = 'z'

	got, _, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	got[1] = 'z'
	again, _, _ := store.Get(ctx, "k")
	assert.Equal(t, "abc", string(again))
	assert.Equal(t, 1, store.Keys())
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := NewMemoryStore()
	assert.Error(t, store.Set(ctx, "k", []byte("v")))
	_, _, err := store.Get(ctx, "k")
	assert.Error(t, err)
}

func TestFileStore_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	first, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, KeyLibraryItems, []byte("items")))

	_, err = os.Stat(filepath.Join(dir, KeyLibraryItems+".gob"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, KeyLibraryItems+".gob.tmp"))
	assert.True(t, os.IsNotExist(err), "temporary file must be renamed away")

	second, err := NewFileStore(dir)
	require.NoError(t, err)
	value, found, err := second.Get(ctx, KeyLibraryItems)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "items", string(value))
}

func TestFileStore_RejectsUnsafeKeys(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "../escape", "a/b", ".hidden"} {
		assert.Error(t, store.Set(context.Background(), key, []byte("v")), "key %q", key)
	}
}

func TestFileStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, KeyTFIDF+".gob"), []byte("not gob"), 0600))
	_, _, err = store.Get(context.Background(), KeyTFIDF)
	assert.Error(t, err)
}

func TestSQLiteStore_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	first, err := OpenSQLiteStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, KeyTFIDF, []byte("state")))
	require.NoError(t, first.Close())

	second, err := OpenSQLiteStore(dir)
	require.NoError(t, err)
	defer second.Close()

	value, found, err := second.Get(ctx, KeyTFIDF)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "state", string(value))

	var journalMode string
	require.NoError(t, second.db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		backend string
		wantErr bool
	}{
		{BackendMemory, false},
		{BackendGob, false},
		{"", false},
		{BackendSQLite, false},
		{"redis", true},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			store, err := Open(tt.backend, filepath.Join(dir, "data-"+tt.backend))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, Close(store))
		})
	}
}
