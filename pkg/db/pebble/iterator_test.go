package pebble

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glimmerco/glimmer/pkg/db"
)

func TestIterator(t *testing.T) {
	tests := []struct {
		name string
		fn   func(t *testing.T, store db.KVStore)
	}{
		{
			name: "prefix_scan",
			fn:   testPrefixScan,
		},
		{
			name: "full_scan",
			fn:   testFullScan,
		},
		{
			name: "empty_prefix_result",
			fn:   testEmptyPrefixResult,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store, err := New(t.TempDir())
			require.NoError(t, err)
			defer store.Close()

			tc.fn(t, store)
		})
	}
}

func seedStore(t *testing.T, store db.KVStore) {
	t.Helper()
	for _, kv := range [][2]string{
		{"a/1", "one"},
		{"a/2", "two"},
		{"b/1", "three"},
		{"c/1", "four"},
	} {
		require.NoError(t, store.Put([]byte(kv[0]), []byte(kv[1])))
	}
}

func testPrefixScan(t *testing.T, store db.KVStore) {
	seedStore(t, store)

	iter, err := store.NewIterator([]byte("a/"))
	require.NoError(t, err)
	defer iter.Close()

	var keys, values []string
	for iter.Next() {
		keys = append(keys, string(iter.Key()))
		v, err := iter.Value()
		require.NoError(t, err)
		values = append(values, string(v))
	}
	assert.Equal(t, []string{"a/1", "a/2"}, keys)
	assert.Equal(t, []string{"one", "two"}, values)
	require.NoError(t, iter.Close())
}

func testFullScan(t *testing.T, store db.KVStore) {
	seedStore(t, store)

	iter, err := store.NewIterator(nil)
	require.NoError(t, err)
	defer iter.Close()

	count := 0
	for iter.Next() {
		count++
	}
	assert.Equal(t, 4, count)
}

func testEmptyPrefixResult(t *testing.T, store db.KVStore) {
	seedStore(t, store)

	iter, err := store.NewIterator([]byte("z/"))
	require.NoError(t, err)
	defer iter.Close()

	assert.False(t, iter.Next())
}
