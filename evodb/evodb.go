// Copyright (c) 2026 The Mynta developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package evodb

import (
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// Namespace prefixes segment the single key space between the consumers of
// the state database.
const (
	// NamespaceMNList holds serialized masternode list snapshots keyed
	// by block hash.
	NamespaceMNList = "dmn_S"

	// NamespaceChainLocks holds the best chainlock height and the
	// per-height chainlock signatures.
	NamespaceChainLocks = "clk_"

	// NamespaceOrderBook holds atomic swap offers and their funding
	// outpoints.
	NamespaceOrderBook = "ob_"
)

// DB is the consensus state database.  It is a correctness-preserving
// cache: every record in it can be rebuilt from the chain, it only spares
// the replay.
type DB struct {
	mtx sync.RWMutex
	ldb *leveldb.DB
}

// Open opens (creating if necessary) the state database at the given
// directory.
func Open(path string) (*DB, error) {
	ldb, err := leveldb.OpenFile(path, &opt.Options{})
	if err != nil {
		return nil, err
	}
	log.Infof("Opened consensus state database at %s", path)
	return &DB{ldb: ldb}, nil
}

// Close flushes and closes the underlying database.
func (db *DB) Close() error {
	db.mtx.Lock()
	defer db.mtx.Unlock()
	return db.ldb.Close()
}

// key builds a namespaced key.
func key(namespace string, k []byte) []byte {
	out := make([]byte, 0, len(namespace)+len(k))
	out = append(out, namespace...)
	out = append(out, k...)
	return out
}

// Get returns the value stored under the namespaced key.  The second
// return is false when the key does not exist.
func (db *DB) Get(namespace string, k []byte) ([]byte, bool, error) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()

	v, err := db.ldb.Get(key(namespace, k), nil)
	if err == leveldb.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// Put stores the value under the namespaced key.
func (db *DB) Put(namespace string, k, v []byte) error {
	db.mtx.Lock()
	defer db.mtx.Unlock()
	return db.ldb.Put(key(namespace, k), v, nil)
}

// Delete removes the namespaced key.  Deleting a missing key is not an
// error.
func (db *DB) Delete(namespace string, k []byte) error {
	db.mtx.Lock()
	defer db.mtx.Unlock()
	return db.ldb.Delete(key(namespace, k), nil)
}

// Batch applies a set of writes atomically.
type Batch struct {
	b *leveldb.Batch
}

// NewBatch returns an empty write batch.
func (db *DB) NewBatch() *Batch {
	return &Batch{b: new(leveldb.Batch)}
}

// Put adds a write to the batch.
func (b *Batch) Put(namespace string, k, v []byte) {
	b.b.Put(key(namespace, k), v)
}

// Delete adds a deletion to the batch.
func (b *Batch) Delete(namespace string, k []byte) {
	b.b.Delete(key(namespace, k))
}

// Write commits the batch.
func (db *DB) Write(b *Batch) error {
	db.mtx.Lock()
	defer db.mtx.Unlock()
	return db.ldb.Write(b.b, nil)
}

// ForEach iterates every key/value pair in the namespace.  The callback
// receives the key with the namespace prefix stripped; returning false
// stops the iteration.  The slices passed to the callback are only valid
// for the duration of the call.
func (db *DB) ForEach(namespace string, fn func(k, v []byte) bool) error {
	db.mtx.RLock()
	defer db.mtx.RUnlock()

	iter := db.ldb.NewIterator(util.BytesPrefix([]byte(namespace)), nil)
	defer iter.Release()
	for iter.Next() {
		if !fn(iter.Key()[len(namespace):], iter.Value()) {
			break
		}
	}
	return iter.Error()
}
