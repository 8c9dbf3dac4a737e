// Copyright (c) 2026 The Mynta developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package llmq

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/Slashx124/mynta-core/bls"
	"github.com/Slashx124/mynta-core/chaincfg"
)

const (
	// maxInstantSendInputs is the largest number of inputs an
	// InstantSend eligible transaction may spend.
	maxInstantSendInputs = 32

	// islockRequestTag prefixes the request id hash of InstantSend
	// signing sessions.
	islockRequestTag = "islock_request"
)

// InstantSendLock is a quorum attestation that a set of outpoints may only
// ever be spent by the named transaction.
type InstantSendLock struct {
	Inputs     []wire.OutPoint
	TxID       chainhash.Hash
	QuorumHash chainhash.Hash
	Sig        *bls.Signature
}

// Serialize writes the lock in wire form.
func (isl *InstantSendLock) Serialize(w io.Writer) error {
	if err := wire.WriteVarInt(w, 0, uint64(len(isl.Inputs))); err != nil {
		return err
	}
	for i := range isl.Inputs {
		if _, err := w.Write(isl.Inputs[i].Hash[:]); err != nil {
			return err
		}
		var idx [4]byte
		idx[0] = byte(isl.Inputs[i].Index)
		idx[1] = byte(isl.Inputs[i].Index >> 8)
		idx[2] = byte(isl.Inputs[i].Index >> 16)
		idx[3] = byte(isl.Inputs[i].Index >> 24)
		if _, err := w.Write(idx[:]); err != nil {
			return err
		}
	}
	if _, err := w.Write(isl.TxID[:]); err != nil {
		return err
	}
	if _, err := w.Write(isl.QuorumHash[:]); err != nil {
		return err
	}
	_, err := w.Write(isl.Sig.Serialize())
	return err
}

// DeserializeInstantSendLock reads a lock from wire form.
func DeserializeInstantSendLock(r io.Reader) (*InstantSendLock, error) {
	count, err := wire.ReadVarInt(r, 0)
	if err != nil {
		return nil, err
	}
	if count > maxInstantSendInputs {
		return nil, fmt.Errorf("lock spans %d inputs, max %d", count,
			maxInstantSendInputs)
	}
	isl := &InstantSendLock{Inputs: make([]wire.OutPoint, count)}
	for i := range isl.Inputs {
		if _, err := io.ReadFull(r, isl.Inputs[i].Hash[:]); err != nil {
			return nil, err
		}
		var idx [4]byte
		if _, err := io.ReadFull(r, idx[:]); err != nil {
			return nil, err
		}
		isl.Inputs[i].Index = uint32(idx[0]) | uint32(idx[1])<<8 |
			uint32(idx[2])<<16 | uint32(idx[3])<<24
	}
	if _, err := io.ReadFull(r, isl.TxID[:]); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(r, isl.QuorumHash[:]); err != nil {
		return nil, err
	}
	var sigBytes [bls.SignatureSize]byte
	if _, err := io.ReadFull(r, sigBytes[:]); err != nil {
		return nil, err
	}
	if isl.Sig, err = bls.ParseSignature(sigBytes[:]); err != nil {
		return nil, err
	}
	return isl, nil
}

// Hash returns the lock's identity: the hash of its serialization.
func (isl *InstantSendLock) Hash() chainhash.Hash {
	var buf bytes.Buffer
	_ = isl.Serialize(&buf)
	return chainhash.DoubleHashH(buf.Bytes())
}

// RequestID computes the signing session id binding the set of locked
// outpoints.  The outpoints are hashed in sorted order, so the id depends
// on the set, not the spend order.
func (isl *InstantSendLock) RequestID() chainhash.Hash {
	return CalcInstantSendRequestID(isl.Inputs)
}

// CalcInstantSendRequestID computes the InstantSend signing request id for
// a set of outpoints.
func CalcInstantSendRequestID(inputs []wire.OutPoint) chainhash.Hash {
	sorted := make([]wire.OutPoint, len(inputs))
	copy(sorted, inputs)
	sort.Slice(sorted, func(i, j int) bool {
		if c := bytes.Compare(sorted[i].Hash[:], sorted[j].Hash[:]); c != 0 {
			return c < 0
		}
		return sorted[i].Index < sorted[j].Index
	})

	var buf bytes.Buffer
	buf.WriteString(islockRequestTag)
	for i := range sorted {
		buf.Write(sorted[i].Hash[:])
		var idx [4]byte
		idx[0] = byte(sorted[i].Index)
		idx[1] = byte(sorted[i].Index >> 8)
		idx[2] = byte(sorted[i].Index >> 16)
		idx[3] = byte(sorted[i].Index >> 24)
		buf.Write(idx[:])
	}
	return chainhash.DoubleHashH(buf.Bytes())
}

// pendingRequest tracks a transaction we are trying to lock.
type pendingRequest struct {
	inputs    []wire.OutPoint
	requestID chainhash.Hash
	attempted time.Time
}

// InstantSendConfig is a descriptor containing the InstantSend manager
// configuration.
type InstantSendConfig struct {
	// ChainParams identifies the chain.
	ChainParams *chaincfg.Params

	// Signing runs the threshold sessions.
	Signing *SigningManager

	// PublishLock broadcasts a newly committed lock.  It may be nil.
	PublishLock func(*InstantSendLock)
}

// InstantSendManager orchestrates input locking: it initiates signing
// sessions for eligible transactions, turns recovered signatures into
// locks and maintains the lock database consulted by the mempool and
// block validation.  All public methods are safe for concurrent access.
type InstantSendManager struct {
	mtx sync.Mutex

	cfg InstantSendConfig

	pending map[chainhash.Hash]*pendingRequest

	// The lock database and its three indexes.
	locksByHash  map[chainhash.Hash]*InstantSendLock
	locksByTxID  map[chainhash.Hash]chainhash.Hash
	lockOutpoint map[wire.OutPoint]chainhash.Hash
}

// NewInstantSendManager returns a new InstantSend manager.
func NewInstantSendManager(cfg *InstantSendConfig) *InstantSendManager {
	return &InstantSendManager{
		cfg:          *cfg,
		pending:      make(map[chainhash.Hash]*pendingRequest),
		locksByHash:  make(map[chainhash.Hash]*InstantSendLock),
		locksByTxID:  make(map[chainhash.Hash]chainhash.Hash),
		lockOutpoint: make(map[wire.OutPoint]chainhash.Hash),
	}
}

// IsEligible returns whether the transaction can be InstantSend locked:
// it is not a coinbase and spends at most 32 inputs.  Whether all inputs
// are confirmed is the caller's concern.
func IsEligible(tx *wire.MsgTx) bool {
	if len(tx.TxIn) == 0 || len(tx.TxIn) > maxInstantSendInputs {
		return false
	}
	// A coinbase spends the null outpoint.
	first := &tx.TxIn[0].PreviousOutPoint
	if first.Index == wire.MaxPrevOutIndex && first.Hash == (chainhash.Hash{}) {
		return false
	}
	return true
}

// ProcessTx attempts to initiate a lock for the transaction.  It returns
// without error when the transaction is simply not eligible; it returns a
// RuleError when one of the inputs is already locked under a different
// transaction.
func (im *InstantSendManager) ProcessTx(tx *wire.MsgTx) error {
	if !IsEligible(tx) {
		return nil
	}
	txid := tx.TxHash()

	im.mtx.Lock()
	if _, ok := im.locksByTxID[txid]; ok {
		im.mtx.Unlock()
		return nil
	}
	// An honest quorum will never sign two locks over one outpoint, so
	// do not even start a session that would conflict.
	for _, in := range tx.TxIn {
		if lockHash, ok := im.lockOutpoint[in.PreviousOutPoint]; ok {
			if lock := im.locksByHash[lockHash]; lock != nil && lock.TxID != txid {
				im.mtx.Unlock()
				return ruleError(ErrConflictingISLock,
					fmt.Sprintf("input %v already locked by tx %v",
						in.PreviousOutPoint, lock.TxID))
			}
		}
	}

	inputs := make([]wire.OutPoint, len(tx.TxIn))
	for i, in := range tx.TxIn {
		inputs[i] = in.PreviousOutPoint
	}
	requestID := CalcInstantSendRequestID(inputs)
	im.pending[txid] = &pendingRequest{
		inputs:    inputs,
		requestID: requestID,
		attempted: time.Now(),
	}
	im.mtx.Unlock()

	t := im.cfg.ChainParams.LLMQTypeInstantSend
	if err := im.cfg.Signing.AsyncSign(t, requestID, txid); err != nil {
		islog.Debugf("InstantSend signing for %v not started: %v", txid, err)
	}
	return nil
}

// HandleNewRecoveredSig turns a recovered signature for one of our pending
// requests into a committed lock.  Signatures for unknown requests are
// ignored; other subsystems share the signing manager.
func (im *InstantSendManager) HandleNewRecoveredSig(rs *RecoveredSig) {
	if rs.LLMQType != im.cfg.ChainParams.LLMQTypeInstantSend {
		return
	}

	im.mtx.Lock()
	req, ok := im.pending[rs.MsgHash]
	if !ok || req.requestID != rs.RequestID {
		im.mtx.Unlock()
		return
	}
	im.mtx.Unlock()

	lock := &InstantSendLock{
		Inputs:     req.inputs,
		TxID:       rs.MsgHash,
		QuorumHash: rs.QuorumHash,
		Sig:        rs.Sig,
	}
	if err := im.ProcessLock(lock); err != nil {
		islog.Errorf("Rejected locally recovered InstantSend lock for %v: %v",
			lock.TxID, err)
	}
}

// ProcessLock validates and commits an InstantSend lock, local or
// received.  Conflicting locks are rejected with the maximum DoS score.
func (im *InstantSendManager) ProcessLock(lock *InstantSendLock) error {
	if len(lock.Inputs) == 0 || len(lock.Inputs) > maxInstantSendInputs {
		return ruleError(ErrTxIneligible,
			fmt.Sprintf("lock spans %d inputs", len(lock.Inputs)))
	}
	if err := im.verifyLockSig(lock); err != nil {
		return err
	}

	im.mtx.Lock()
	defer im.mtx.Unlock()

	if _, ok := im.locksByTxID[lock.TxID]; ok {
		return nil
	}
	for i := range lock.Inputs {
		if lockHash, ok := im.lockOutpoint[lock.Inputs[i]]; ok {
			other := im.locksByHash[lockHash]
			if other != nil && other.TxID != lock.TxID {
				return ruleError(ErrConflictingISLock,
					fmt.Sprintf("outpoint %v already locked by tx %v",
						lock.Inputs[i], other.TxID))
			}
		}
	}

	lockHash := lock.Hash()
	im.locksByHash[lockHash] = lock
	im.locksByTxID[lock.TxID] = lockHash
	for i := range lock.Inputs {
		im.lockOutpoint[lock.Inputs[i]] = lockHash
	}
	delete(im.pending, lock.TxID)

	islog.Infof("InstantSend lock committed for tx %v over %d inputs",
		lock.TxID, len(lock.Inputs))
	if im.cfg.PublishLock != nil {
		im.cfg.PublishLock(lock)
	}
	return nil
}

// verifyLockSig checks the lock signature against the quorum it names.
func (im *InstantSendManager) verifyLockSig(lock *InstantSendLock) error {
	t := im.cfg.ChainParams.LLMQTypeInstantSend
	quorum, err := im.cfg.Signing.cfg.Quorums.GetQuorum(t, &lock.QuorumHash)
	if err != nil {
		return err
	}
	if quorum == nil || !quorum.IsValid() {
		return ruleError(ErrBadQuorum,
			fmt.Sprintf("lock references unknown or invalid quorum %v",
				lock.QuorumHash))
	}
	requestID := lock.RequestID()
	signHash := CalcSignHash(t, &lock.QuorumHash, &requestID, &lock.TxID)
	if lock.Sig == nil || !lock.Sig.VerifyInsecure(quorum.AggregatedPubKey, signHash[:]) {
		return ruleError(ErrBadSignature,
			fmt.Sprintf("lock signature for tx %v does not verify", lock.TxID))
	}
	return nil
}

// IsLocked returns whether the transaction holds an InstantSend lock.
func (im *InstantSendManager) IsLocked(txid *chainhash.Hash) bool {
	im.mtx.Lock()
	defer im.mtx.Unlock()
	_, ok := im.locksByTxID[*txid]
	return ok
}

// GetLockByTxID returns the lock for a transaction, or nil.
func (im *InstantSendManager) GetLockByTxID(txid *chainhash.Hash) *InstantSendLock {
	im.mtx.Lock()
	defer im.mtx.Unlock()
	lockHash, ok := im.locksByTxID[*txid]
	if !ok {
		return nil
	}
	return im.locksByHash[lockHash]
}

// GetConflictingTx returns the transaction that holds a lock over the
// outpoint, if any.  The mempool consults it to refuse conflicting
// spends, and block validation to refuse blocks that would invalidate a
// lock.
func (im *InstantSendManager) GetConflictingTx(op *wire.OutPoint) (chainhash.Hash, bool) {
	im.mtx.Lock()
	defer im.mtx.Unlock()
	lockHash, ok := im.lockOutpoint[*op]
	if !ok {
		return chainhash.Hash{}, false
	}
	lock := im.locksByHash[lockHash]
	if lock == nil {
		return chainhash.Hash{}, false
	}
	return lock.TxID, true
}

// ConnectBlock drops pending lock attempts for transactions confirmed by
// the block.
func (im *InstantSendManager) ConnectBlock(txs []*wire.MsgTx) {
	im.mtx.Lock()
	defer im.mtx.Unlock()
	for _, tx := range txs {
		delete(im.pending, tx.TxHash())
	}
}

// DisconnectBlock re-queues lock attempts for transactions returned to
// the mempool by a reorg.  Committed locks persist: they still forbid
// double spends of their inputs.
func (im *InstantSendManager) DisconnectBlock(txs []*wire.MsgTx) {
	for _, tx := range txs {
		txid := tx.TxHash()
		im.mtx.Lock()
		_, locked := im.locksByTxID[txid]
		im.mtx.Unlock()
		if !locked {
			if err := im.ProcessTx(tx); err != nil {
				islog.Debugf("InstantSend retry for %v refused: %v", txid, err)
			}
		}
	}
}

// RemoveExpired drops pending lock attempts older than the configured
// timeout.  Callers may re-submit.
func (im *InstantSendManager) RemoveExpired(now time.Time) int {
	timeout := im.cfg.ChainParams.InstantSendPendingTimeout

	im.mtx.Lock()
	defer im.mtx.Unlock()
	removed := 0
	for txid, req := range im.pending {
		if now.Sub(req.attempted) >= timeout {
			delete(im.pending, txid)
			removed++
		}
	}
	if removed > 0 {
		islog.Debugf("Dropped %d expired InstantSend attempts", removed)
	}
	return removed
}

// PendingCount returns the number of in-flight lock attempts.
func (im *InstantSendManager) PendingCount() int {
	im.mtx.Lock()
	defer im.mtx.Unlock()
	return len(im.pending)
}

// LockCount returns the number of committed locks.
func (im *InstantSendManager) LockCount() int {
	im.mtx.Lock()
	defer im.mtx.Unlock()
	return len(im.locksByHash)
}
