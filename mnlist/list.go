// Copyright (c) 2026 The Mynta developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mnlist

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/Slashx124/mynta-core/provider"
)

// Unique property domain prefixes.  The index key is the hash of the
// prefix concatenated with the serialized property value; the index maps
// that key to the internal id of the owning entry, never to the entry
// itself, so retrieval is always a two step lookup.
const (
	uniquePropCollateral = "utxo"
	uniquePropAddress    = "addr"
	uniquePropOwnerKey   = "key"
)

func hashUniqueProperty(prefix string, data []byte) chainhash.Hash {
	buf := make([]byte, 0, len(prefix)+len(data))
	buf = append(buf, prefix...)
	buf = append(buf, data...)
	return chainhash.DoubleHashH(buf)
}

func collateralKey(op *wire.OutPoint) chainhash.Hash {
	var buf bytes.Buffer
	_ = writeOutPoint(&buf, op)
	return hashUniqueProperty(uniquePropCollateral, buf.Bytes())
}

func addressKey(svc *provider.Service) chainhash.Hash {
	var buf bytes.Buffer
	_ = svc.Write(&buf)
	return hashUniqueProperty(uniquePropAddress, buf.Bytes())
}

func ownerKeyKey(k *provider.KeyID) chainhash.Hash {
	return hashUniqueProperty(uniquePropOwnerKey, k[:])
}

// MasternodeList is an immutable snapshot of the deterministic masternode
// list as of a particular block.  All mutating operations return a new
// list sharing unchanged entries with the receiver.
type MasternodeList struct {
	// BlockHash and Height identify the block the snapshot was computed
	// at.
	BlockHash chainhash.Hash
	Height    int32

	// TotalRegisteredCount counts every registration ever accepted up
	// to this block, including since-removed entries.  It seeds the
	// internal id of the next registration.
	TotalRegisteredCount uint64

	entries     map[uint64]*Entry
	byProTxHash map[chainhash.Hash]uint64
	uniqueProps map[chainhash.Hash]uint64
}

// NewMasternodeList returns an empty snapshot for the given block.
func NewMasternodeList(blockHash chainhash.Hash, height int32) *MasternodeList {
	return &MasternodeList{
		BlockHash:   blockHash,
		Height:      height,
		entries:     make(map[uint64]*Entry),
		byProTxHash: make(map[chainhash.Hash]uint64),
		uniqueProps: make(map[chainhash.Hash]uint64),
	}
}

// clone returns a shallow copy of the list with fresh maps, pointing at
// the same entry values.  Callers must replace, never mutate, entries.
func (l *MasternodeList) clone(blockHash chainhash.Hash, height int32) *MasternodeList {
	c := &MasternodeList{
		BlockHash:            blockHash,
		Height:               height,
		TotalRegisteredCount: l.TotalRegisteredCount,
		entries:              make(map[uint64]*Entry, len(l.entries)),
		byProTxHash:          make(map[chainhash.Hash]uint64, len(l.byProTxHash)),
		uniqueProps:          make(map[chainhash.Hash]uint64, len(l.uniqueProps)),
	}
	for id, e := range l.entries {
		c.entries[id] = e
	}
	for h, id := range l.byProTxHash {
		c.byProTxHash[h] = id
	}
	for h, id := range l.uniqueProps {
		c.uniqueProps[h] = id
	}
	return c
}

// Len returns the number of entries in the snapshot.
func (l *MasternodeList) Len() int {
	return len(l.entries)
}

// ValidCount returns the number of valid entries.
func (l *MasternodeList) ValidCount() int {
	n := 0
	for _, e := range l.entries {
		if e.IsValid() {
			n++
		}
	}
	return n
}

// GetEntry returns the entry registered under the given proTxHash, or nil.
func (l *MasternodeList) GetEntry(proTxHash *chainhash.Hash) *Entry {
	id, ok := l.byProTxHash[*proTxHash]
	if !ok {
		return nil
	}
	return l.entries[id]
}

// GetEntryByCollateral returns the entry pledging the given collateral
// outpoint, or nil.
func (l *MasternodeList) GetEntryByCollateral(op *wire.OutPoint) *Entry {
	id, ok := l.uniqueProps[collateralKey(op)]
	if !ok {
		return nil
	}
	return l.entries[id]
}

// HasUniqueAddress returns whether some entry advertises the endpoint.
func (l *MasternodeList) HasUniqueAddress(svc *provider.Service) bool {
	_, ok := l.uniqueProps[addressKey(svc)]
	return ok
}

// HasUniqueOwnerKey returns whether some entry is owned by the key.
func (l *MasternodeList) HasUniqueOwnerKey(k *provider.KeyID) bool {
	_, ok := l.uniqueProps[ownerKeyKey(k)]
	return ok
}

// HasCollateral returns whether some entry pledges the outpoint.
func (l *MasternodeList) HasCollateral(op *wire.OutPoint) bool {
	_, ok := l.uniqueProps[collateralKey(op)]
	return ok
}

// ForEachEntry invokes fn for every entry, or only the valid ones.  The
// iteration order is ascending internal id, so it is deterministic.
func (l *MasternodeList) ForEachEntry(onlyValid bool, fn func(*Entry) bool) {
	ids := make([]uint64, 0, len(l.entries))
	for id := range l.entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		e := l.entries[id]
		if onlyValid && !e.IsValid() {
			continue
		}
		if !fn(e) {
			return
		}
	}
}

// addEntry inserts a new entry.  The caller has already checked the
// unique properties for collisions.
func (l *MasternodeList) addEntry(e *Entry) {
	l.entries[e.InternalID] = e
	l.byProTxHash[e.Registration.ProTxHash] = e.InternalID
	l.uniqueProps[collateralKey(&e.Registration.CollateralOutpoint)] = e.InternalID
	l.uniqueProps[addressKey(&e.State.Service)] = e.InternalID
	l.uniqueProps[ownerKeyKey(&e.Registration.OwnerKeyID)] = e.InternalID
}

// replaceEntry swaps the stored entry for an updated copy, moving the
// endpoint index when the service changed.
func (l *MasternodeList) replaceEntry(old, updated *Entry) {
	if old.State.Service != updated.State.Service {
		delete(l.uniqueProps, addressKey(&old.State.Service))
		l.uniqueProps[addressKey(&updated.State.Service)] = updated.InternalID
	}
	l.entries[updated.InternalID] = updated
}

// removeEntry drops the entry and all of its unique properties.
func (l *MasternodeList) removeEntry(e *Entry) {
	delete(l.entries, e.InternalID)
	delete(l.byProTxHash, e.Registration.ProTxHash)
	delete(l.uniqueProps, collateralKey(&e.Registration.CollateralOutpoint))
	delete(l.uniqueProps, addressKey(&e.State.Service))
	delete(l.uniqueProps, ownerKeyKey(&e.Registration.OwnerKeyID))
}

// Serialize writes the snapshot in its persistent form.  The unique
// property index is not written; it is rebuilt on load.
func (l *MasternodeList) Serialize(w io.Writer) error {
	if err := writeHash(w, &l.BlockHash); err != nil {
		return err
	}
	if err := writeUint32(w, uint32(l.Height)); err != nil {
		return err
	}
	if err := wire.WriteVarInt(w, 0, l.TotalRegisteredCount); err != nil {
		return err
	}
	if err := wire.WriteVarInt(w, 0, uint64(len(l.entries))); err != nil {
		return err
	}
	var err error
	l.ForEachEntry(false, func(e *Entry) bool {
		err = e.serialize(w)
		return err == nil
	})
	return err
}

// DeserializeMasternodeList reads a snapshot from its persistent form and
// rebuilds the indexes.
func DeserializeMasternodeList(r io.Reader) (*MasternodeList, error) {
	var blockHash chainhash.Hash
	if err := readHash(r, &blockHash); err != nil {
		return nil, err
	}
	height, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	l := NewMasternodeList(blockHash, int32(height))
	if l.TotalRegisteredCount, err = wire.ReadVarInt(r, 0); err != nil {
		return nil, err
	}
	count, err := wire.ReadVarInt(r, 0)
	if err != nil {
		return nil, err
	}
	for i := uint64(0); i < count; i++ {
		e := new(Entry)
		if err := e.deserialize(r); err != nil {
			return nil, err
		}
		if _, ok := l.entries[e.InternalID]; ok {
			return nil, fmt.Errorf("duplicate internal id %d in snapshot", e.InternalID)
		}
		l.addEntry(e)
	}
	return l, nil
}
