// Copyright (c) 2026 The Mynta developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package llmq

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/Slashx124/mynta-core/blockchain"
	"github.com/Slashx124/mynta-core/bls"
	"github.com/Slashx124/mynta-core/chaincfg"
	"github.com/Slashx124/mynta-core/evodb"
)

const (
	// clsigRequestTag prefixes the request id hash of chainlock signing
	// sessions.
	clsigRequestTag = "clsig_request"

	// pendingLockMaxDepth is how far behind the tip a parked chainlock
	// for an unknown block may fall before being dropped.
	pendingLockMaxDepth = 100
)

// Persistent chainlock keys inside the chainlock namespace.
const (
	chainLockBestKey  = "H"
	chainLockEntryKey = "L"
)

// ChainLockSig is a quorum attestation that a specific block hash occupies
// a specific height.  An accepted chainlock forbids reorganizations whose
// fork point lies below the locked height.
type ChainLockSig struct {
	Height    int32
	BlockHash chainhash.Hash
	Sig       *bls.Signature
}

// Serialize writes the chainlock in wire form.
func (cls *ChainLockSig) Serialize(w io.Writer) error {
	if _, err := w.Write(heightBytes(cls.Height)); err != nil {
		return err
	}
	if _, err := w.Write(cls.BlockHash[:]); err != nil {
		return err
	}
	_, err := w.Write(cls.Sig.Serialize())
	return err
}

// DeserializeChainLockSig reads a chainlock from wire form.
func DeserializeChainLockSig(r io.Reader) (*ChainLockSig, error) {
	var hbuf [4]byte
	if _, err := io.ReadFull(r, hbuf[:]); err != nil {
		return nil, err
	}
	cls := &ChainLockSig{
		Height: int32(uint32(hbuf[0]) | uint32(hbuf[1])<<8 |
			uint32(hbuf[2])<<16 | uint32(hbuf[3])<<24),
	}
	if _, err := io.ReadFull(r, cls.BlockHash[:]); err != nil {
		return nil, err
	}
	var sigBytes [bls.SignatureSize]byte
	if _, err := io.ReadFull(r, sigBytes[:]); err != nil {
		return nil, err
	}
	var err error
	if cls.Sig, err = bls.ParseSignature(sigBytes[:]); err != nil {
		return nil, err
	}
	return cls, nil
}

// RequestID computes the signing session id for the chainlock at a
// height.
func (cls *ChainLockSig) RequestID() chainhash.Hash {
	return CalcChainLockRequestID(cls.Height)
}

// CalcChainLockRequestID computes the chainlock signing request id for a
// height.
func CalcChainLockRequestID(height int32) chainhash.Hash {
	var buf bytes.Buffer
	buf.WriteString(clsigRequestTag)
	buf.Write(heightBytes(height))
	return chainhash.DoubleHashH(buf.Bytes())
}

// ChainLocksConfig is a descriptor containing the chainlock manager
// configuration.
type ChainLocksConfig struct {
	// ChainParams identifies the chain and the activation height.
	ChainParams *chaincfg.Params

	// Chain is the block index used for fork point computation and to
	// resolve locked blocks.
	Chain *blockchain.BlockIndex

	// Signing runs the threshold sessions.
	Signing *SigningManager

	// DB persists the best locked height and the per-height locks.  It
	// may be nil for a purely in-memory manager.
	DB *evodb.DB

	// PublishLock broadcasts a newly accepted chainlock.  It may be
	// nil.
	PublishLock func(*ChainLockSig)
}

// ChainLocksManager orchestrates block hash locking and enforces the
// resulting fork-choice restrictions.  All public methods are safe for
// concurrent access.
type ChainLocksManager struct {
	mtx sync.Mutex

	cfg ChainLocksConfig

	bestHeight int32
	bestHash   chainhash.Hash
	locks      map[int32]*ChainLockSig

	// pending parks verified locks whose block we do not have yet,
	// keyed by block hash.
	pending map[chainhash.Hash]*ChainLockSig

	lastSignedHeight int32
}

// NewChainLocksManager returns a new chainlock manager, restoring its
// state from the database when one is configured.
func NewChainLocksManager(cfg *ChainLocksConfig) (*ChainLocksManager, error) {
	cm := &ChainLocksManager{
		cfg:        *cfg,
		bestHeight: -1,
		locks:      make(map[int32]*ChainLockSig),
		pending:    make(map[chainhash.Hash]*ChainLockSig),
	}
	if cfg.DB != nil {
		if err := cm.load(); err != nil {
			return nil, err
		}
	}
	return cm, nil
}

func (cm *ChainLocksManager) load() error {
	raw, found, err := cm.cfg.DB.Get(evodb.NamespaceChainLocks, []byte(chainLockBestKey))
	if err != nil {
		return err
	}
	if found && len(raw) == 4 {
		cm.bestHeight = int32(uint32(raw[0]) | uint32(raw[1])<<8 |
			uint32(raw[2])<<16 | uint32(raw[3])<<24)
	}
	err = cm.cfg.DB.ForEach(evodb.NamespaceChainLocks, func(k, v []byte) bool {
		if len(k) == 0 || k[0] != chainLockEntryKey[0] {
			return true
		}
		cls, derr := DeserializeChainLockSig(bytes.NewReader(v))
		if derr != nil {
			cllog.Warnf("Corrupt chainlock record: %v", derr)
			return true
		}
		cm.locks[cls.Height] = cls
		if cls.Height == cm.bestHeight {
			cm.bestHash = cls.BlockHash
		}
		return true
	})
	if err != nil {
		return err
	}
	if cm.bestHeight >= 0 {
		cllog.Infof("Restored chainlocks up to height %d", cm.bestHeight)
	}
	return nil
}

// BestLocked returns the best locked height and block hash.  The height
// is -1 before any lock has been accepted.
func (cm *ChainLocksManager) BestLocked() (int32, chainhash.Hash) {
	cm.mtx.Lock()
	defer cm.mtx.Unlock()
	return cm.bestHeight, cm.bestHash
}

// GetLockAtHeight returns the accepted chainlock at the height, or nil.
func (cm *ChainLocksManager) GetLockAtHeight(height int32) *ChainLockSig {
	cm.mtx.Lock()
	defer cm.mtx.Unlock()
	return cm.locks[height]
}

// HasChainLock returns whether the given block hash is chainlocked at the
// given height.
func (cm *ChainLocksManager) HasChainLock(height int32, blockHash *chainhash.Hash) bool {
	cm.mtx.Lock()
	defer cm.mtx.Unlock()
	cls, ok := cm.locks[height]
	return ok && cls.BlockHash.IsEqual(blockHash)
}

// UpdatedBlockTip drives the manager on each tip change: stale parked
// locks are dropped, parked locks for now-known blocks are enforced,
// signing sessions are aged out and a lock attempt for the new tip is
// started.
func (cm *ChainLocksManager) UpdatedBlockTip(tip *blockchain.BlockNode) {
	cm.cfg.Signing.Cleanup(tip.Height)

	cm.mtx.Lock()
	var retry []*ChainLockSig
	for hash, cls := range cm.pending {
		if cls.Height < tip.Height-pendingLockMaxDepth {
			delete(cm.pending, hash)
			continue
		}
		if cm.cfg.Chain.HaveBlock(&hash) {
			delete(cm.pending, hash)
			retry = append(retry, cls)
		}
	}
	cm.mtx.Unlock()

	for _, cls := range retry {
		if err := cm.ProcessNewChainLock(cls); err != nil {
			cllog.Debugf("Parked chainlock for %v rejected on retry: %v",
				cls.BlockHash, err)
		}
	}

	cm.TrySignChainTip(tip)
}

// TrySignChainTip initiates a chainlock signing session for the tip.
func (cm *ChainLocksManager) TrySignChainTip(tip *blockchain.BlockNode) {
	if tip.Height < cm.cfg.ChainParams.ChainLockActivationHeight {
		return
	}

	cm.mtx.Lock()
	if tip.Height <= cm.bestHeight || tip.Height <= cm.lastSignedHeight {
		cm.mtx.Unlock()
		return
	}
	cm.lastSignedHeight = tip.Height
	cm.mtx.Unlock()

	t := cm.cfg.ChainParams.LLMQTypeChainLocks
	requestID := CalcChainLockRequestID(tip.Height)
	if err := cm.cfg.Signing.AsyncSign(t, requestID, tip.Hash); err != nil {
		cllog.Debugf("Chainlock signing for height %d not started: %v",
			tip.Height, err)
	}
}

// HandleNewRecoveredSig turns a recovered chainlock signature into a lock.
func (cm *ChainLocksManager) HandleNewRecoveredSig(rs *RecoveredSig) {
	if rs.LLMQType != cm.cfg.ChainParams.LLMQTypeChainLocks {
		return
	}
	node := cm.cfg.Chain.LookupNode(&rs.MsgHash)
	if node == nil {
		return
	}
	if rs.RequestID != CalcChainLockRequestID(node.Height) {
		return
	}
	cls := &ChainLockSig{
		Height:    node.Height,
		BlockHash: rs.MsgHash,
		Sig:       rs.Sig,
	}
	if err := cm.ProcessNewChainLock(cls); err != nil {
		cllog.Errorf("Rejected locally recovered chainlock for height %d: %v",
			cls.Height, err)
	}
}

// ProcessNewChainLock validates and enforces a chainlock, local or
// received.  Locks for blocks we do not have yet are parked and retried
// on tip updates.
func (cm *ChainLocksManager) ProcessNewChainLock(cls *ChainLockSig) error {
	if cls.Height < cm.cfg.ChainParams.ChainLockActivationHeight {
		return ruleError(ErrChainLockNotActive,
			fmt.Sprintf("chainlock at height %d below activation height %d",
				cls.Height, cm.cfg.ChainParams.ChainLockActivationHeight))
	}

	cm.mtx.Lock()
	if cls.Height < cm.bestHeight {
		cm.mtx.Unlock()
		return ruleError(ErrChainLockLowerHeight,
			fmt.Sprintf("chainlock height %d below best locked height %d",
				cls.Height, cm.bestHeight))
	}
	if cls.Height == cm.bestHeight && !cls.BlockHash.IsEqual(&cm.bestHash) {
		cm.mtx.Unlock()
		// Two valid locks at one height cannot happen with an honest
		// quorum; record the conflict loudly.
		cllog.Criticalf("Conflicting chainlock at height %d: have %v, got %v",
			cls.Height, cm.bestHash, cls.BlockHash)
		return ruleError(ErrChainLockConflict,
			fmt.Sprintf("conflicting chainlock at height %d", cls.Height))
	}
	cm.mtx.Unlock()

	if err := cm.verifyChainLockSig(cls); err != nil {
		return err
	}

	cm.mtx.Lock()
	defer cm.mtx.Unlock()

	if !cm.cfg.Chain.HaveBlock(&cls.BlockHash) {
		// Valid lock for a block we have not seen: park it and retry
		// on the next tip update.
		cm.pending[cls.BlockHash] = cls
		cllog.Debugf("Parked chainlock for unknown block %v at height %d",
			cls.BlockHash, cls.Height)
		return nil
	}

	cm.locks[cls.Height] = cls
	if cls.Height > cm.bestHeight {
		cm.bestHeight = cls.Height
		cm.bestHash = cls.BlockHash
	}
	cm.persist(cls)

	cllog.Infof("Chainlock accepted at height %d for block %v",
		cls.Height, cls.BlockHash)
	if cm.cfg.PublishLock != nil {
		cm.cfg.PublishLock(cls)
	}
	return nil
}

// verifyChainLockSig checks the chainlock signature against the
// designated quorum for its request.
func (cm *ChainLocksManager) verifyChainLockSig(cls *ChainLockSig) error {
	t := cm.cfg.ChainParams.LLMQTypeChainLocks
	requestID := cls.RequestID()
	quorum, err := cm.cfg.Signing.cfg.Quorums.SelectQuorumForRequest(t, &requestID)
	if err != nil {
		return err
	}
	if quorum == nil || !quorum.IsValid() {
		return ruleError(ErrBadQuorum,
			fmt.Sprintf("no valid quorum for chainlock at height %d", cls.Height))
	}
	signHash := CalcSignHash(t, &quorum.QuorumHash, &requestID, &cls.BlockHash)
	if cls.Sig == nil || !cls.Sig.VerifyInsecure(quorum.AggregatedPubKey, signHash[:]) {
		return ruleError(ErrBadSignature,
			fmt.Sprintf("chainlock signature for height %d does not verify",
				cls.Height))
	}
	return nil
}

// persist writes the lock and the best height marker.  The caller holds
// the manager lock.
func (cm *ChainLocksManager) persist(cls *ChainLockSig) {
	if cm.cfg.DB == nil {
		return
	}
	var buf bytes.Buffer
	if err := cls.Serialize(&buf); err != nil {
		cllog.Errorf("Failed to serialize chainlock: %v", err)
		return
	}
	batch := cm.cfg.DB.NewBatch()
	batch.Put(evodb.NamespaceChainLocks,
		append([]byte(chainLockEntryKey), heightBytes(cls.Height)...), buf.Bytes())
	batch.Put(evodb.NamespaceChainLocks, []byte(chainLockBestKey),
		heightBytes(cm.bestHeight))
	if err := cm.cfg.DB.Write(batch); err != nil {
		cllog.Errorf("Failed to persist chainlock: %v", err)
	}
}

// BlockDisconnected rewinds the tip bookkeeping when a block is
// disconnected.  Installed locks are retained: their signatures remain
// valid, and a disconnected-then-reconnected block keeps its lock.
func (cm *ChainLocksManager) BlockDisconnected(node *blockchain.BlockNode) {
	cm.mtx.Lock()
	defer cm.mtx.Unlock()
	if cm.lastSignedHeight >= node.Height {
		cm.lastSignedHeight = node.Height - 1
	}
}

// ShouldPreferBlock returns whether chain a is preferred over chain b
// under the chainlock-aware fork choice: a chainlocked tip beats an
// unlocked one, otherwise more accumulated work wins.
func (cm *ChainLocksManager) ShouldPreferBlock(a, b *blockchain.BlockNode) bool {
	lockedA := cm.HasChainLock(a.Height, &a.Hash)
	lockedB := cm.HasChainLock(b.Height, &b.Hash)
	if lockedA != lockedB {
		return lockedA
	}
	return a.WorkSum.Cmp(b.WorkSum) > 0
}

// CanReorg returns whether switching from oldTip to newTip is permitted:
// the fork point must not be below the best locked height.  A reorg
// attempt below the best locked height is a consensus violation.
func (cm *ChainLocksManager) CanReorg(newTip, oldTip *blockchain.BlockNode) bool {
	cm.mtx.Lock()
	best := cm.bestHeight
	cm.mtx.Unlock()
	if best < 0 {
		return true
	}
	fork := blockchain.LastCommonAncestor(newTip, oldTip)
	if fork == nil {
		return false
	}
	return fork.Height >= best
}

// PendingCount returns the number of parked chainlocks.
func (cm *ChainLocksManager) PendingCount() int {
	cm.mtx.Lock()
	defer cm.mtx.Unlock()
	return len(cm.pending)
}
