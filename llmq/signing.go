// Copyright (c) 2026 The Mynta developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package llmq

import (
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/decred/dcrd/lru"

	"github.com/Slashx124/mynta-core/bls"
	"github.com/Slashx124/mynta-core/chaincfg"
)

const (
	// sessionMaxAge is how many blocks a signing session outlives its
	// creation before being purged.
	sessionMaxAge = 100

	// maxSessions bounds the number of concurrently tracked sessions.
	maxSessions = 256

	// recentSigCacheSize bounds the duplicate-suppression cache of
	// recently recovered signature ids.
	recentSigCacheSize = 512
)

// SigShare is one member's partial signature for a signing session.
type SigShare struct {
	LLMQType   chaincfg.LLMQType
	QuorumHash chainhash.Hash
	RequestID  chainhash.Hash
	MsgHash    chainhash.Hash
	ProTxHash  chainhash.Hash
	Share      *bls.Signature
}

// RecoveredSig is a threshold signature recovered from at least the
// designated quorum's threshold of shares.
type RecoveredSig struct {
	LLMQType   chaincfg.LLMQType
	QuorumHash chainhash.Hash
	RequestID  chainhash.Hash
	MsgHash    chainhash.Hash
	Sig        *bls.Signature
}

// SignHash returns the hash the recovered signature covers.
func (rs *RecoveredSig) SignHash() chainhash.Hash {
	return CalcSignHash(rs.LLMQType, &rs.QuorumHash, &rs.RequestID, &rs.MsgHash)
}

// sessionKey identifies a signing session.
type sessionKey struct {
	llmqType  chaincfg.LLMQType
	requestID chainhash.Hash
}

// session accumulates shares for one (type, request id) pair.
type session struct {
	quorum    *Quorum
	msgHash   chainhash.Hash
	shares    map[chainhash.Hash]*bls.Signature
	recovered bool
	createdAt int32
}

// LocalSigner holds the identity and share key material this node uses to
// contribute shares.  The share secret comes from the out-of-band
// distributed key generation; GetShareKey returns nil when this node holds
// no share for the quorum.
type LocalSigner struct {
	ProTxHash   chainhash.Hash
	GetShareKey func(q *Quorum) *bls.SecretKey
}

// SigningConfig is a descriptor containing the signing manager
// configuration.
type SigningConfig struct {
	// ChainParams identifies the chain and its quorum layouts.
	ChainParams *chaincfg.Params

	// Quorums selects and resolves quorums.
	Quorums *QuorumManager

	// Signer is the optional local share signer.  A node that is not a
	// masternode leaves it nil and only aggregates foreign shares.
	Signer *LocalSigner

	// BestHeight returns the current chain height, used to age out
	// sessions.
	BestHeight func() int32

	// OnRecovered is invoked, outside the manager lock, for every newly
	// recovered signature.
	OnRecovered func(*RecoveredSig)

	// PublishShare broadcasts a locally produced share.  It may be nil.
	PublishShare func(*SigShare)
}

// SigningManager runs the threshold signing sessions.  All public methods
// are safe for concurrent access.
type SigningManager struct {
	mtx sync.Mutex

	cfg        SigningConfig
	sessions   map[sessionKey]*session
	recentSigs lru.Cache
}

// NewSigningManager returns a new signing manager.
func NewSigningManager(cfg *SigningConfig) *SigningManager {
	return &SigningManager{
		cfg:        *cfg,
		sessions:   make(map[sessionKey]*session),
		recentSigs: lru.NewCache(recentSigCacheSize),
	}
}

// AsyncSign opens (or joins) the signing session for the request and, when
// this node is a member of the designated quorum, contributes its share.
// The call never blocks on the network: it signs locally, publishes, and
// lets recovery happen as shares arrive.
func (sm *SigningManager) AsyncSign(t chaincfg.LLMQType, requestID, msgHash chainhash.Hash) error {
	quorum, err := sm.cfg.Quorums.SelectQuorumForRequest(t, &requestID)
	if err != nil {
		return err
	}
	if quorum == nil {
		return fmt.Errorf("no active %v quorum for request %v", t, requestID)
	}

	sm.mtx.Lock()
	s, err := sm.getOrCreateSession(t, requestID, msgHash, quorum)
	if err != nil {
		sm.mtx.Unlock()
		return err
	}
	if s.recovered {
		sm.mtx.Unlock()
		return nil
	}
	sm.mtx.Unlock()

	signer := sm.cfg.Signer
	if signer == nil || !quorum.IsMember(&signer.ProTxHash) {
		// Not our quorum; we still keep the session to aggregate
		// foreign shares.
		return nil
	}
	shareKey := signer.GetShareKey(quorum)
	if shareKey == nil {
		return nil
	}

	signHash := CalcSignHash(t, &quorum.QuorumHash, &requestID, &msgHash)
	sig, err := shareKey.Sign(signHash[:])
	if err != nil {
		return err
	}
	share := &SigShare{
		LLMQType:   t,
		QuorumHash: quorum.QuorumHash,
		RequestID:  requestID,
		MsgHash:    msgHash,
		ProTxHash:  signer.ProTxHash,
		Share:      sig,
	}
	if sm.cfg.PublishShare != nil {
		sm.cfg.PublishShare(share)
	}
	return sm.ProcessSigShare(share)
}

// ProcessSigShare records a partial signature and opportunistically
// attempts threshold recovery.
func (sm *SigningManager) ProcessSigShare(share *SigShare) error {
	quorum, err := sm.cfg.Quorums.GetQuorum(share.LLMQType, &share.QuorumHash)
	if err != nil {
		return err
	}
	if quorum == nil || !quorum.IsValid() {
		return ruleError(ErrBadQuorum,
			fmt.Sprintf("share references unknown or invalid quorum %v",
				share.QuorumHash))
	}
	if !quorum.IsMember(&share.ProTxHash) {
		return ruleError(ErrBadQuorum,
			fmt.Sprintf("share from %v which is not a member of quorum %v",
				share.ProTxHash, share.QuorumHash))
	}

	sm.mtx.Lock()
	s, err := sm.getOrCreateSession(share.LLMQType, share.RequestID, share.MsgHash, quorum)
	if err != nil {
		sm.mtx.Unlock()
		return err
	}
	if s.recovered {
		sm.mtx.Unlock()
		return nil
	}
	if _, ok := s.shares[share.ProTxHash]; !ok {
		s.shares[share.ProTxHash] = share.Share
	}
	rs := sm.tryRecover(share.LLMQType, share.RequestID, s)
	sm.mtx.Unlock()

	if rs != nil && sm.cfg.OnRecovered != nil {
		sm.cfg.OnRecovered(rs)
	}
	return nil
}

// getOrCreateSession returns the session for the key, creating it when
// absent.  The caller holds the manager lock.  Two attempts for the same
// request with different message hashes indicate an upstream conflict and
// are refused.
func (sm *SigningManager) getOrCreateSession(t chaincfg.LLMQType,
	requestID, msgHash chainhash.Hash, quorum *Quorum) (*session, error) {

	key := sessionKey{llmqType: t, requestID: requestID}
	if s, ok := sm.sessions[key]; ok {
		if s.msgHash != msgHash {
			return nil, fmt.Errorf("session %v already signing message %v, "+
				"refusing %v", requestID, s.msgHash, msgHash)
		}
		return s, nil
	}

	if len(sm.sessions) >= maxSessions {
		sm.purgeOldest()
	}
	var height int32
	if sm.cfg.BestHeight != nil {
		height = sm.cfg.BestHeight()
	}
	s := &session{
		quorum:    quorum,
		msgHash:   msgHash,
		shares:    make(map[chainhash.Hash]*bls.Signature),
		createdAt: height,
	}
	sm.sessions[key] = s
	return s, nil
}

// tryRecover attempts threshold recovery for the session.  The caller
// holds the manager lock.  It returns the recovered signature, or nil when
// the threshold has not been reached yet.
func (sm *SigningManager) tryRecover(t chaincfg.LLMQType,
	requestID chainhash.Hash, s *session) *RecoveredSig {

	threshold := s.quorum.Threshold()
	if len(s.shares) < threshold {
		return nil
	}

	// Deterministic recovery: the first threshold shares in ascending
	// member proTxHash order.
	members := s.quorum.ValidMembersSorted()
	shares := make([]*bls.Signature, 0, threshold)
	ids := make([][]byte, 0, threshold)
	for _, m := range members {
		share, ok := s.shares[m.ProTxHash]
		if !ok {
			continue
		}
		proTx := m.ProTxHash
		shares = append(shares, share)
		ids = append(ids, proTx[:])
		if len(shares) == threshold {
			break
		}
	}
	if len(shares) < threshold {
		return nil
	}

	sig, err := bls.RecoverThresholdSignature(shares, ids, threshold)
	if err != nil {
		log.Errorf("Threshold recovery failed for session %v: %v", requestID, err)
		return nil
	}

	signHash := CalcSignHash(t, &s.quorum.QuorumHash, &requestID, &s.msgHash)
	if !sig.VerifyInsecure(s.quorum.AggregatedPubKey, signHash[:]) {
		log.Errorf("Recovered signature for session %v does not verify "+
			"under the quorum key", requestID)
		return nil
	}

	s.recovered = true
	sm.recentSigs.Add(signHash)
	log.Debugf("Recovered threshold signature for session %v from %d shares",
		requestID, threshold)
	return &RecoveredSig{
		LLMQType:   t,
		QuorumHash: s.quorum.QuorumHash,
		RequestID:  requestID,
		MsgHash:    s.msgHash,
		Sig:        sig,
	}
}

// VerifyRecoveredSig checks a recovered signature against the quorum it
// names.
func (sm *SigningManager) VerifyRecoveredSig(rs *RecoveredSig) error {
	quorum, err := sm.cfg.Quorums.GetQuorum(rs.LLMQType, &rs.QuorumHash)
	if err != nil {
		return err
	}
	if quorum == nil || !quorum.IsValid() {
		return ruleError(ErrBadQuorum,
			fmt.Sprintf("recovered sig references unknown or invalid "+
				"quorum %v", rs.QuorumHash))
	}
	signHash := rs.SignHash()
	if !rs.Sig.VerifyInsecure(quorum.AggregatedPubKey, signHash[:]) {
		return ruleError(ErrBadSignature,
			fmt.Sprintf("recovered sig for request %v does not verify",
				rs.RequestID))
	}
	return nil
}

// HasRecentRecoveredSig returns whether a signature covering the sign
// hash was recovered recently.
func (sm *SigningManager) HasRecentRecoveredSig(signHash chainhash.Hash) bool {
	sm.mtx.Lock()
	defer sm.mtx.Unlock()
	return sm.recentSigs.Contains(signHash)
}

// Cleanup purges sessions older than the age horizon.  It is driven by
// block tip updates.
func (sm *SigningManager) Cleanup(currentHeight int32) {
	sm.mtx.Lock()
	defer sm.mtx.Unlock()

	for key, s := range sm.sessions {
		if s.createdAt < currentHeight-sessionMaxAge {
			delete(sm.sessions, key)
		}
	}
}

// purgeOldest evicts the oldest session.  The caller holds the manager
// lock.
func (sm *SigningManager) purgeOldest() {
	var oldestKey sessionKey
	oldest := int32(-1)
	first := true
	for key, s := range sm.sessions {
		if first || s.createdAt < oldest {
			oldestKey, oldest = key, s.createdAt
			first = false
		}
	}
	if !first {
		delete(sm.sessions, oldestKey)
	}
}

// SessionCount returns the number of live signing sessions.
func (sm *SigningManager) SessionCount() int {
	sm.mtx.Lock()
	defer sm.mtx.Unlock()
	return len(sm.sessions)
}
