// Copyright (c) 2026 The Mynta developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package evodb

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestPutGetDelete(t *testing.T) {
	db := openTestDB(t)

	_, found, err := db.Get(NamespaceMNList, []byte("k"))
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, db.Put(NamespaceMNList, []byte("k"), []byte("v")))
	v, found, err := db.Get(NamespaceMNList, []byte("k"))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte("v"), v)

	require.NoError(t, db.Delete(NamespaceMNList, []byte("k")))
	_, found, err = db.Get(NamespaceMNList, []byte("k"))
	require.NoError(t, err)
	require.False(t, found)
}

func TestNamespaceIsolation(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.Put(NamespaceMNList, []byte("k"), []byte("mn")))
	require.NoError(t, db.Put(NamespaceOrderBook, []byte("k"), []byte("ob")))

	v, found, err := db.Get(NamespaceOrderBook, []byte("k"))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte("ob"), v)

	count := 0
	require.NoError(t, db.ForEach(NamespaceOrderBook, func(k, v []byte) bool {
		count++
		require.Equal(t, []byte("k"), k)
		require.Equal(t, []byte("ob"), v)
		return true
	}))
	require.Equal(t, 1, count)
}

func TestBatchAtomicity(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Put(NamespaceChainLocks, []byte("old"), []byte("x")))

	batch := db.NewBatch()
	batch.Put(NamespaceChainLocks, []byte("a"), []byte("1"))
	batch.Put(NamespaceChainLocks, []byte("b"), []byte("2"))
	batch.Delete(NamespaceChainLocks, []byte("old"))
	require.NoError(t, db.Write(batch))

	_, found, err := db.Get(NamespaceChainLocks, []byte("old"))
	require.NoError(t, err)
	require.False(t, found)
	for _, k := range []string{"a", "b"} {
		_, found, err = db.Get(NamespaceChainLocks, []byte(k))
		require.NoError(t, err)
		require.True(t, found)
	}
}
