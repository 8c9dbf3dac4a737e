// Copyright (c) 2026 The Mynta developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"math/big"
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// BlockNode represents one block within the block index.  Nodes form a tree
// rooted at genesis through the Parent pointers; the main chain is the branch
// ending at the index tip.
type BlockNode struct {
	// Hash is the hash of the block this node represents.
	Hash chainhash.Hash

	// Parent is the parent block for this node, nil for genesis.
	Parent *BlockNode

	// Height is the position in the block chain.
	Height int32

	// WorkSum is the total amount of work in the chain up to and
	// including this node.
	WorkSum *big.Int
}

// NewBlockNode returns a new block node linked to the given parent with the
// accumulated work of the parent plus the work contributed by this block.
func NewBlockNode(hash chainhash.Hash, parent *BlockNode, work *big.Int) *BlockNode {
	node := &BlockNode{
		Hash:    hash,
		Parent:  parent,
		WorkSum: new(big.Int).Set(work),
	}
	if parent != nil {
		node.Height = parent.Height + 1
		node.WorkSum.Add(node.WorkSum, parent.WorkSum)
	}
	return node
}

// Ancestor returns the ancestor block node at the provided height by
// following the chain backwards from this node.  The returned block will be
// nil when a height is requested that is after the height of the passed node
// or is less than zero.
func (node *BlockNode) Ancestor(height int32) *BlockNode {
	if height < 0 || height > node.Height {
		return nil
	}

	n := node
	for n != nil && n.Height != height {
		n = n.Parent
	}
	return n
}

// LastCommonAncestor returns the block node that is the fork point between
// the chains ending at a and b, or nil when the two nodes do not share any
// history.
func LastCommonAncestor(a, b *BlockNode) *BlockNode {
	if a == nil || b == nil {
		return nil
	}
	if a.Height > b.Height {
		a = a.Ancestor(b.Height)
	} else if b.Height > a.Height {
		b = b.Ancestor(a.Height)
	}
	for a != nil && b != nil && a != b {
		a = a.Parent
		b = b.Parent
	}
	return a
}

// BlockIndex provides facilities for keeping track of an in-memory index of
// the block chain.  It is safe for concurrent access.
type BlockIndex struct {
	sync.RWMutex
	index map[chainhash.Hash]*BlockNode
	tip   *BlockNode
}

// NewBlockIndex returns a new empty instance of a block index.
func NewBlockIndex() *BlockIndex {
	return &BlockIndex{
		index: make(map[chainhash.Hash]*BlockNode),
	}
}

// LookupNode returns the block node identified by the provided hash.  It
// returns nil if there is no entry for the hash.
func (bi *BlockIndex) LookupNode(hash *chainhash.Hash) *BlockNode {
	bi.RLock()
	node := bi.index[*hash]
	bi.RUnlock()
	return node
}

// HaveBlock returns whether or not the block index contains the provided
// hash.
func (bi *BlockIndex) HaveBlock(hash *chainhash.Hash) bool {
	bi.RLock()
	_, exists := bi.index[*hash]
	bi.RUnlock()
	return exists
}

// AddNode adds the provided node to the block index.
func (bi *BlockIndex) AddNode(node *BlockNode) {
	bi.Lock()
	bi.index[node.Hash] = node
	bi.Unlock()
}

// SetTip sets the best chain tip to the provided node.
func (bi *BlockIndex) SetTip(node *BlockNode) {
	bi.Lock()
	bi.tip = node
	bi.Unlock()
}

// Tip returns the current best chain tip, or nil when the index is empty.
func (bi *BlockIndex) Tip() *BlockNode {
	bi.RLock()
	tip := bi.tip
	bi.RUnlock()
	return tip
}

// NodeAtHeight returns the node on the main chain at the given height.
func (bi *BlockIndex) NodeAtHeight(height int32) *BlockNode {
	bi.RLock()
	tip := bi.tip
	bi.RUnlock()
	if tip == nil {
		return nil
	}
	return tip.Ancestor(height)
}
