// Copyright (c) 2026 The Mynta developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mnlist

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	lru "github.com/hashicorp/golang-lru"

	"github.com/Slashx124/mynta-core/blockchain"
	"github.com/Slashx124/mynta-core/chaincfg"
	"github.com/Slashx124/mynta-core/evodb"
	"github.com/Slashx124/mynta-core/provider"
)

// snapshotCacheSize bounds the number of in-memory list snapshots.  Older
// snapshots stay reachable through the state database.
const snapshotCacheSize = 100

// Config is a descriptor containing the masternode list manager
// configuration.
type Config struct {
	// ChainParams identifies the chain the manager operates on.
	ChainParams *chaincfg.Params

	// Chain is the block index used for ancestor walks when a snapshot
	// has to be rebuilt.
	Chain *blockchain.BlockIndex

	// DB is the state database snapshots are persisted to.  It may be
	// nil, in which case snapshots outside the in-memory cache are
	// rebuilt by replay.
	DB *evodb.DB

	// FetchBlockTxs returns the transactions of the block with the
	// given hash.  It is required to rebuild snapshots by replay.
	FetchBlockTxs func(*chainhash.Hash) ([]*wire.MsgTx, error)

	// CollateralValue looks up the value of an unspent output.  When
	// set, registrations must reference an outpoint holding exactly the
	// required collateral.
	CollateralValue func(*wire.OutPoint) (int64, bool)

	// AllowPrivateEndpoints relaxes the endpoint routability check for
	// regression test networks.
	AllowPrivateEndpoints bool
}

// Manager maintains the deterministic masternode list across block
// connects and disconnects.  All public methods are safe for concurrent
// access.
type Manager struct {
	mtx sync.RWMutex

	cfg   Config
	cache *lru.Cache // chainhash.Hash -> *MasternodeList
	tip   *MasternodeList
}

// NewManager returns a new masternode list manager.
func NewManager(cfg *Config) (*Manager, error) {
	cache, err := lru.New(snapshotCacheSize)
	if err != nil {
		return nil, err
	}
	return &Manager{
		cfg:   *cfg,
		cache: cache,
	}, nil
}

// GetListAtTip returns the snapshot at the current chain tip.  The empty
// list is returned before any block has been connected.
func (m *Manager) GetListAtTip() *MasternodeList {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	if m.tip == nil {
		return NewMasternodeList(chainhash.Hash{}, -1)
	}
	return m.tip
}

// GetListForBlock returns the snapshot as of the block with the given
// hash.  The snapshot is served from the cache or the state database, or
// rebuilt by replaying forward from the nearest available ancestor
// snapshot.
func (m *Manager) GetListForBlock(blockHash *chainhash.Hash) (*MasternodeList, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return m.getListForBlock(blockHash)
}

func (m *Manager) getListForBlock(blockHash *chainhash.Hash) (*MasternodeList, error) {
	if list := m.lookupSnapshot(blockHash); list != nil {
		return list, nil
	}

	node := m.cfg.Chain.LookupNode(blockHash)
	if node == nil {
		return nil, fmt.Errorf("no block index entry for %v", blockHash)
	}

	// Walk back to the nearest snapshot we can serve, then replay
	// forward.  The walk bottoming out at genesis starts from the empty
	// list.
	var missing []*blockchain.BlockNode
	base := NewMasternodeList(chainhash.Hash{}, -1)
	for n := node; n != nil; n = n.Parent {
		if list := m.lookupSnapshot(&n.Hash); list != nil {
			base = list
			break
		}
		missing = append(missing, n)
	}

	if m.cfg.FetchBlockTxs == nil && len(missing) > 0 {
		return nil, fmt.Errorf("snapshot for %v unavailable and no "+
			"block source to replay", blockHash)
	}
	for i := len(missing) - 1; i >= 0; i-- {
		n := missing[i]
		txs, err := m.cfg.FetchBlockTxs(&n.Hash)
		if err != nil {
			return nil, err
		}
		base, err = m.buildList(base, n, txs)
		if err != nil {
			return nil, err
		}
		m.storeSnapshot(base)
	}
	return base, nil
}

// GetEntry returns the tip entry registered under proTxHash, or nil.
func (m *Manager) GetEntry(proTxHash *chainhash.Hash) *Entry {
	return m.GetListAtTip().GetEntry(proTxHash)
}

// GetEntryByCollateral returns the tip entry pledging the outpoint.
func (m *Manager) GetEntryByCollateral(op *wire.OutPoint) *Entry {
	return m.GetListAtTip().GetEntryByCollateral(op)
}

// HasUniqueAddress returns whether the endpoint is taken at the tip.
func (m *Manager) HasUniqueAddress(svc *provider.Service) bool {
	return m.GetListAtTip().HasUniqueAddress(svc)
}

// ConnectBlock applies the provider transactions of a newly connected
// block and publishes the resulting snapshot as the new tip.
func (m *Manager) ConnectBlock(node *blockchain.BlockNode, txs []*wire.MsgTx) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	prev := NewMasternodeList(chainhash.Hash{}, -1)
	if node.Parent != nil {
		var err error
		prev, err = m.getListForBlock(&node.Parent.Hash)
		if err != nil {
			return err
		}
	}

	list, err := m.buildList(prev, node, txs)
	if err != nil {
		return err
	}
	m.storeSnapshot(list)
	m.tip = list

	if diff := list.Len() - prev.Len(); diff != 0 {
		log.Debugf("Masternode list at height %d: %d entries (%+d)",
			list.Height, list.Len(), diff)
	}
	return nil
}

// DisconnectBlock drops the snapshot of a disconnected block and rewinds
// the tip pointer to its parent.
func (m *Manager) DisconnectBlock(node *blockchain.BlockNode) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	m.cache.Remove(node.Hash)
	if m.cfg.DB != nil {
		if err := m.cfg.DB.Delete(evodb.NamespaceMNList, node.Hash[:]); err != nil {
			return err
		}
	}

	if node.Parent == nil {
		m.tip = nil
		return nil
	}
	prev, err := m.getListForBlock(&node.Parent.Hash)
	if err != nil {
		return err
	}
	m.tip = prev
	return nil
}

// lookupSnapshot serves a snapshot from the cache or state database.
func (m *Manager) lookupSnapshot(blockHash *chainhash.Hash) *MasternodeList {
	if v, ok := m.cache.Get(*blockHash); ok {
		return v.(*MasternodeList)
	}
	if m.cfg.DB == nil {
		return nil
	}
	raw, found, err := m.cfg.DB.Get(evodb.NamespaceMNList, blockHash[:])
	if err != nil || !found {
		return nil
	}
	list, err := DeserializeMasternodeList(bytes.NewReader(raw))
	if err != nil {
		log.Warnf("Corrupt masternode snapshot for %v: %v", blockHash, err)
		return nil
	}
	m.cache.Add(*blockHash, list)
	return list
}

// storeSnapshot caches and persists a snapshot.
func (m *Manager) storeSnapshot(list *MasternodeList) {
	m.cache.Add(list.BlockHash, list)
	if m.cfg.DB == nil {
		return
	}
	var buf bytes.Buffer
	if err := list.Serialize(&buf); err != nil {
		log.Errorf("Failed to serialize masternode snapshot for %v: %v",
			list.BlockHash, err)
		return
	}
	if err := m.cfg.DB.Put(evodb.NamespaceMNList, list.BlockHash[:], buf.Bytes()); err != nil {
		log.Errorf("Failed to persist masternode snapshot for %v: %v",
			list.BlockHash, err)
	}
}

// buildList derives the snapshot for a block from its parent snapshot by
// applying collateral spends and provider payloads.
func (m *Manager) buildList(prev *MasternodeList, node *blockchain.BlockNode,
	txs []*wire.MsgTx) (*MasternodeList, error) {

	list := prev.clone(node.Hash, node.Height)

	for _, tx := range txs {
		// Spending a collateral outpoint de-registers the operator,
		// regardless of the kind of transaction doing the spend.
		for _, in := range tx.TxIn {
			if e := list.GetEntryByCollateral(&in.PreviousOutPoint); e != nil {
				log.Infof("Masternode %v removed at height %d: "+
					"collateral spent", e.Registration.ProTxHash, node.Height)
				list.removeEntry(e)
			}
		}

		if !provider.IsProviderTx(tx) {
			continue
		}
		payload, err := provider.GetPayload(tx)
		if err != nil {
			return nil, err
		}
		if err := payload.SanityCheck(); err != nil {
			return nil, err
		}
		switch p := payload.(type) {
		case *provider.ProRegTx:
			err = m.applyProRegTx(list, node, tx, p)
		case *provider.ProUpServTx:
			err = m.applyProUpServTx(list, tx, p)
		case *provider.ProUpRegTx:
			err = m.applyProUpRegTx(list, node, tx, p)
		case *provider.ProUpRevTx:
			err = m.applyProUpRevTx(list, node, tx, p)
		}
		if err != nil {
			return nil, err
		}
	}
	return list, nil
}

func checkInputsHash(tx *wire.MsgTx, got chainhash.Hash) error {
	if want := provider.CalcInputsHash(tx); !want.IsEqual(&got) {
		return ruleError(provider.ErrBadInputsHash,
			"payload inputs hash does not commit to the transaction inputs")
	}
	return nil
}

func (m *Manager) applyProRegTx(list *MasternodeList, node *blockchain.BlockNode,
	tx *wire.MsgTx, p *provider.ProRegTx) error {

	if err := checkInputsHash(tx, p.InputsHash); err != nil {
		return err
	}
	if !provider.CheckOwnerSignature(p.Signature, p.SignatureHash(), p.OwnerKeyID) {
		return ruleError(provider.ErrBadSignature,
			"registration signature does not recover to the owner key")
	}
	if !p.Service.IsRoutable(m.cfg.AllowPrivateEndpoints) {
		return ruleError(provider.ErrBadEndpoint,
			fmt.Sprintf("endpoint %v is not routable", p.Service.String()))
	}
	if m.cfg.CollateralValue != nil {
		value, ok := m.cfg.CollateralValue(&p.CollateralOutpoint)
		if !ok || value != m.cfg.ChainParams.MasternodeCollateral {
			return ruleError(provider.ErrMalformedPayload,
				"collateral outpoint missing or of wrong value")
		}
	}

	if list.HasCollateral(&p.CollateralOutpoint) {
		return ruleError(provider.ErrDuplicateUniqueProperty,
			"collateral outpoint already registered")
	}
	if list.HasUniqueAddress(&p.Service) {
		return ruleError(provider.ErrDuplicateUniqueProperty,
			"endpoint already registered")
	}
	if list.HasUniqueOwnerKey(&p.OwnerKeyID) {
		return ruleError(provider.ErrDuplicateUniqueProperty,
			"owner key already registered")
	}

	proTxHash := tx.TxHash()
	e := newEntry(proTxHash, p, node.Height, list.TotalRegisteredCount)
	list.addEntry(e)
	list.TotalRegisteredCount++

	log.Infof("Masternode %v registered at height %d, endpoint %v",
		proTxHash, node.Height, p.Service.String())
	return nil
}

func (m *Manager) applyProUpServTx(list *MasternodeList, tx *wire.MsgTx,
	p *provider.ProUpServTx) error {

	if err := checkInputsHash(tx, p.InputsHash); err != nil {
		return err
	}
	old := list.GetEntry(&p.ProTxHash)
	if old == nil {
		return ruleError(provider.ErrNoSuchMasternode,
			fmt.Sprintf("service update references unknown masternode %v",
				p.ProTxHash))
	}
	if !p.Service.IsRoutable(m.cfg.AllowPrivateEndpoints) {
		return ruleError(provider.ErrBadEndpoint,
			fmt.Sprintf("endpoint %v is not routable", p.Service.String()))
	}

	// The new endpoint must not collide with another entry.  Keeping
	// one's own endpoint is fine.
	if old.State.Service != p.Service && list.HasUniqueAddress(&p.Service) {
		return ruleError(provider.ErrDuplicateUniqueProperty,
			"endpoint already registered")
	}

	updated := old.Copy()
	updated.State.Service = p.Service
	if len(p.OperatorPayoutScript) != 0 {
		updated.State.OperatorPayoutScript = append([]byte(nil), p.OperatorPayoutScript...)
	}
	list.replaceEntry(old, updated)
	return nil
}

func (m *Manager) applyProUpRegTx(list *MasternodeList, node *blockchain.BlockNode,
	tx *wire.MsgTx, p *provider.ProUpRegTx) error {

	if err := checkInputsHash(tx, p.InputsHash); err != nil {
		return err
	}
	old := list.GetEntry(&p.ProTxHash)
	if old == nil {
		return ruleError(provider.ErrNoSuchMasternode,
			fmt.Sprintf("registrar update references unknown masternode %v",
				p.ProTxHash))
	}
	if !provider.CheckOwnerSignature(p.Signature, p.SignatureHash(),
		old.Registration.OwnerKeyID) {
		return ruleError(provider.ErrBadSignature,
			"registrar update signature does not recover to the owner key")
	}

	updated := old.Copy()
	updated.State.VotingKeyID = p.VotingKeyID
	if len(p.PayoutScript) != 0 {
		updated.State.PayoutScript = append([]byte(nil), p.PayoutScript...)
	}
	if p.HasOperatorKey() {
		var newKey [provider.OperatorKeySize]byte
		copy(newKey[:], p.OperatorPubKey)
		if newKey != old.State.OperatorPubKey {
			// A fresh operator key clears the proof-of-service
			// record and lifts any ban.
			updated.State.OperatorPubKey = newKey
			updated.State.PoSePenalty = 0
			updated.State.PoSeBanHeight = notBanned
			updated.State.PoSeRevivedHeight = node.Height
			updated.State.RevocationReason = 0
			log.Infof("Masternode %v operator key rotated at height %d",
				p.ProTxHash, node.Height)
		}
	}
	list.replaceEntry(old, updated)
	return nil
}

func (m *Manager) applyProUpRevTx(list *MasternodeList, node *blockchain.BlockNode,
	tx *wire.MsgTx, p *provider.ProUpRevTx) error {

	if err := checkInputsHash(tx, p.InputsHash); err != nil {
		return err
	}
	old := list.GetEntry(&p.ProTxHash)
	if old == nil {
		return ruleError(provider.ErrNoSuchMasternode,
			fmt.Sprintf("revocation references unknown masternode %v",
				p.ProTxHash))
	}

	updated := old.Copy()
	updated.State.RevocationReason = p.Reason
	updated.State.PoSeBanHeight = node.Height
	list.replaceEntry(old, updated)

	log.Infof("Masternode %v revoked at height %d, reason %d",
		p.ProTxHash, node.Height, p.Reason)
	return nil
}
