// Copyright (c) 2026 The Mynta developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/require"
)

// buildChain creates a linear chain of n blocks on top of parent (nil for
// a fresh chain) and registers them with the index.
func buildChain(bi *BlockIndex, parent *BlockNode, tag string, n int) []*BlockNode {
	nodes := make([]*BlockNode, 0, n)
	for i := 0; i < n; i++ {
		hash := chainhash.HashH([]byte(fmt.Sprintf("%s-%d", tag, i)))
		node := NewBlockNode(hash, parent, big.NewInt(10))
		bi.AddNode(node)
		nodes = append(nodes, node)
		parent = node
	}
	return nodes
}

func TestAncestorLookup(t *testing.T) {
	bi := NewBlockIndex()
	nodes := buildChain(bi, nil, "main", 10)
	tip := nodes[len(nodes)-1]
	bi.SetTip(tip)

	require.Equal(t, int32(9), tip.Height)
	require.Same(t, nodes[4], tip.Ancestor(4))
	require.Same(t, tip, tip.Ancestor(9))
	require.Nil(t, tip.Ancestor(10))
	require.Nil(t, tip.Ancestor(-1))

	require.Same(t, nodes[7], bi.NodeAtHeight(7))
	require.True(t, bi.HaveBlock(&nodes[3].Hash))
	require.Same(t, nodes[3], bi.LookupNode(&nodes[3].Hash))
}

func TestLastCommonAncestor(t *testing.T) {
	bi := NewBlockIndex()
	main := buildChain(bi, nil, "main", 10)

	// A side chain branching off at height 4.
	side := buildChain(bi, main[4], "side", 5)

	fork := LastCommonAncestor(main[9], side[4])
	require.Same(t, main[4], fork)
	require.Same(t, main[4], LastCommonAncestor(side[4], main[9]))
	require.Same(t, main[9], LastCommonAncestor(main[9], main[9]))

	// Two unrelated chains share no history.
	other := buildChain(bi, nil, "other", 3)
	require.Nil(t, LastCommonAncestor(main[9], other[2]))
}

func TestWorkSumAccumulates(t *testing.T) {
	bi := NewBlockIndex()
	nodes := buildChain(bi, nil, "work", 3)
	require.Equal(t, int64(10), nodes[0].WorkSum.Int64())
	require.Equal(t, int64(30), nodes[2].WorkSum.Int64())
}

func TestCalcWork(t *testing.T) {
	// A negative difficulty target yields no work.
	require.Equal(t, int64(0), CalcWork(0x01800000).Int64())

	// Smaller targets represent more work.
	easy := CalcWork(0x1d00ffff)
	hard := CalcWork(0x1c00ffff)
	require.True(t, hard.Cmp(easy) > 0)
}
