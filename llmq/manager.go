// Copyright (c) 2026 The Mynta developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package llmq

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	lru "github.com/hashicorp/golang-lru"

	"github.com/Slashx124/mynta-core/blockchain"
	"github.com/Slashx124/mynta-core/chaincfg"
	"github.com/Slashx124/mynta-core/mnlist"
)

// quorumCacheSize bounds the number of cached quorums per manager.
const quorumCacheSize = 64

// ListSource provides masternode list snapshots per block.  It is
// implemented by the mnlist manager.
type ListSource interface {
	GetListForBlock(blockHash *chainhash.Hash) (*mnlist.MasternodeList, error)
}

// QuorumConfig is a descriptor containing the quorum manager
// configuration.
type QuorumConfig struct {
	// ChainParams identifies the chain and its quorum layouts.
	ChainParams *chaincfg.Params

	// Chain is the block index used to locate formation blocks.
	Chain *blockchain.BlockIndex

	// MNList provides the masternode list snapshot at each formation
	// block.
	MNList ListSource
}

// QuorumManager builds, caches and selects the active quorums.  Quorums
// are deterministic, so the manager holds no lock of its own across the
// list manager calls: the worst concurrent case is building the same
// quorum twice, and the thread-safe cache keeps one of them.
type QuorumManager struct {
	cfg   QuorumConfig
	cache *lru.Cache // chainhash.Hash (quorum hash) -> *Quorum
}

// NewQuorumManager returns a new quorum manager.
func NewQuorumManager(cfg *QuorumConfig) (*QuorumManager, error) {
	cache, err := lru.New(quorumCacheSize)
	if err != nil {
		return nil, err
	}
	return &QuorumManager{
		cfg:   *cfg,
		cache: cache,
	}, nil
}

// GetQuorumAtHeight returns the quorum of the given type formed at the
// given height, building it if it is not cached.  The height must be a
// formation height on the main chain.
func (qm *QuorumManager) GetQuorumAtHeight(t chaincfg.LLMQType, height int32) (*Quorum, error) {
	params := qm.cfg.ChainParams.LLMQParams(t)
	if params == nil {
		return nil, fmt.Errorf("no quorum layout for type %v", t)
	}
	node := qm.cfg.Chain.NodeAtHeight(height)
	if node == nil {
		return nil, fmt.Errorf("no main chain block at height %d", height)
	}

	quorumHash := CalcQuorumHash(t, &node.Hash)
	if v, ok := qm.cache.Get(quorumHash); ok {
		return v.(*Quorum), nil
	}

	list, err := qm.cfg.MNList.GetListForBlock(&node.Hash)
	if err != nil {
		return nil, err
	}
	q, err := BuildQuorum(params, &node.Hash, height, list)
	if err != nil {
		return nil, err
	}
	qm.cache.Add(quorumHash, q)
	log.Debugf("Built %s quorum %v at height %d with %d members",
		params.Name, q.QuorumHash, height, len(q.Members))
	return q, nil
}

// GetQuorum returns the quorum with the given hash, or nil when no
// active quorum carries it.
func (qm *QuorumManager) GetQuorum(t chaincfg.LLMQType, quorumHash *chainhash.Hash) (*Quorum, error) {
	if v, ok := qm.cache.Get(*quorumHash); ok {
		return v.(*Quorum), nil
	}
	active, err := qm.GetActiveSet(t)
	if err != nil {
		return nil, err
	}
	for _, q := range active {
		if q.QuorumHash == *quorumHash {
			return q, nil
		}
	}
	return nil, nil
}

// GetActiveSet returns the quorums of the given type currently eligible
// for signing sessions: the most recent ActiveCount formations at or
// below the chain tip.
func (qm *QuorumManager) GetActiveSet(t chaincfg.LLMQType) ([]*Quorum, error) {
	params := qm.cfg.ChainParams.LLMQParams(t)
	if params == nil {
		return nil, fmt.Errorf("no quorum layout for type %v", t)
	}
	tip := qm.cfg.Chain.Tip()
	if tip == nil {
		return nil, nil
	}

	// The active set is the fixed window of the ActiveCount most recent
	// formation heights.  Invalid quorums are omitted from the result;
	// they never extend the window further into history.
	var quorums []*Quorum
	height := (tip.Height / params.Interval) * params.Interval
	for i := 0; i < params.ActiveCount && height >= 0; i++ {
		q, err := qm.GetQuorumAtHeight(t, height)
		if err != nil {
			return nil, err
		}
		if q.IsValid() {
			quorums = append(quorums, q)
		}
		height -= params.Interval
	}
	return quorums, nil
}

// SelectQuorumForRequest returns the designated quorum for a signing
// request: the member of the active set whose hash minimizes the
// selection score for the request id.
func (qm *QuorumManager) SelectQuorumForRequest(t chaincfg.LLMQType,
	requestID *chainhash.Hash) (*Quorum, error) {

	active, err := qm.GetActiveSet(t)
	if err != nil {
		return nil, err
	}
	var best *Quorum
	var bestScore chainhash.Hash
	for _, q := range active {
		score := calcSelectionScore(&q.QuorumHash, requestID)
		if best == nil || bytes.Compare(score[:], bestScore[:]) < 0 {
			best, bestScore = q, score
		}
	}
	return best, nil
}
