// Copyright (c) 2026 The Mynta developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package llmq

import (
	"fmt"
	"math/big"
	"net"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/Slashx124/mynta-core/blockchain"
	"github.com/Slashx124/mynta-core/bls"
	"github.com/Slashx124/mynta-core/chaincfg"
	"github.com/Slashx124/mynta-core/mnlist"
	"github.com/Slashx124/mynta-core/provider"
)

// member bundles one synthetic masternode operator.
type member struct {
	proTxHash chainhash.Hash
	operator  *bls.SecretKey
	share     *bls.SecretKey
}

// harness drives a full quorum stack over a synthetic chain: a masternode
// list fed by register transactions, a quorum manager, and a signing
// manager whose member shares come from a locally dealt polynomial whose
// free coefficient is the aggregate of the member operator secrets.
type harness struct {
	t       *testing.T
	params  *chaincfg.Params
	chain   *blockchain.BlockIndex
	tip     *blockchain.BlockNode
	blocks  map[chainhash.Hash][]*wire.MsgTx
	mnmgr   *mnlist.Manager
	quorums *QuorumManager
	signing *SigningManager

	members   []*member
	recovered []*RecoveredSig
	nextNum   int
}

func newHarness(t *testing.T, memberCount int) *harness {
	t.Helper()
	h := &harness{
		t:      t,
		params: &chaincfg.RegressionNetParams,
		chain:  blockchain.NewBlockIndex(),
		blocks: make(map[chainhash.Hash][]*wire.MsgTx),
	}

	mnmgr, err := mnlist.NewManager(&mnlist.Config{
		ChainParams:           h.params,
		Chain:                 h.chain,
		FetchBlockTxs:         h.fetchBlockTxs,
		AllowPrivateEndpoints: true,
	})
	require.NoError(t, err)
	h.mnmgr = mnmgr

	h.quorums, err = NewQuorumManager(&QuorumConfig{
		ChainParams: h.params,
		Chain:       h.chain,
		MNList:      mnmgr,
	})
	require.NoError(t, err)

	// Genesis.
	h.connect()

	// Register the members in one block.
	var regTxs []*wire.MsgTx
	for i := 0; i < memberCount; i++ {
		tx, operator := h.registerTx(byte(i + 1))
		regTxs = append(regTxs, tx)
		h.members = append(h.members, &member{
			proTxHash: tx.TxHash(),
			operator:  operator,
		})
	}
	h.connect(regTxs...)

	// Advance to the next formation height so the quorum selects the
	// registered members.
	interval := h.params.LLMQs[h.params.LLMQTypeInstantSend].Interval
	for h.tip.Height%interval != 0 || h.tip.Height == 0 {
		h.connect()
	}

	h.dealShares()

	h.signing = NewSigningManager(&SigningConfig{
		ChainParams: h.params,
		Quorums:     h.quorums,
		Signer: &LocalSigner{
			ProTxHash: h.members[0].proTxHash,
			GetShareKey: func(q *Quorum) *bls.SecretKey {
				return h.members[0].share
			},
		},
		BestHeight: func() int32 { return h.tip.Height },
		OnRecovered: func(rs *RecoveredSig) {
			h.recovered = append(h.recovered, rs)
		},
	})
	return h
}

func (h *harness) fetchBlockTxs(hash *chainhash.Hash) ([]*wire.MsgTx, error) {
	txs, ok := h.blocks[*hash]
	if !ok {
		return nil, fmt.Errorf("no such block %v", hash)
	}
	return txs, nil
}

// connect mines a block on top of the tip.
func (h *harness) connect(txs ...*wire.MsgTx) *blockchain.BlockNode {
	h.t.Helper()
	h.nextNum++
	hash := chainhash.HashH([]byte(fmt.Sprintf("llmq-block-%d", h.nextNum)))
	node := blockchain.NewBlockNode(hash, h.tip, big.NewInt(2))
	h.chain.AddNode(node)
	h.chain.SetTip(node)
	h.blocks[hash] = txs
	require.NoError(h.t, h.mnmgr.ConnectBlock(node, txs))
	h.tip = node
	return node
}

// connectSide mines a block on top of an arbitrary parent without moving
// the masternode list, for fork tests.
func (h *harness) connectSide(parent *blockchain.BlockNode, work int64) *blockchain.BlockNode {
	h.t.Helper()
	h.nextNum++
	hash := chainhash.HashH([]byte(fmt.Sprintf("llmq-side-%d", h.nextNum)))
	node := blockchain.NewBlockNode(hash, parent, big.NewInt(work))
	h.chain.AddNode(node)
	return node
}

func (h *harness) registerTx(num byte) (*wire.MsgTx, *bls.SecretKey) {
	h.t.Helper()

	owner, err := btcec.NewPrivateKey()
	require.NoError(h.t, err)
	var seed [bls.SecretKeySize]byte
	seed[0] = num
	seed[1] = 0x71
	operator, err := bls.SecretKeyFromSeed(seed)
	require.NoError(h.t, err)

	payout, err := txscript.NewScriptBuilder().
		AddOp(txscript.OP_DUP).AddOp(txscript.OP_HASH160).
		AddData(make([]byte, 20)).
		AddOp(txscript.OP_EQUALVERIFY).AddOp(txscript.OP_CHECKSIG).
		Script()
	require.NoError(h.t, err)

	tx := wire.NewMsgTx(3)
	tx.AddTxIn(&wire.TxIn{PreviousOutPoint: wire.OutPoint{
		Hash: chainhash.HashH([]byte{0xfd, num}),
	}})
	p := &provider.ProRegTx{
		Version: provider.ProRegTxVersion,
		CollateralOutpoint: wire.OutPoint{
			Hash: chainhash.HashH([]byte{0xcc, num}),
		},
		Service:      provider.NewServiceFromIP(net.IPv4(10, 2, 2, num), 9999),
		OwnerKeyID:   provider.KeyIDForPubKey(owner.PubKey()),
		PayoutScript: payout,
		InputsHash:   provider.CalcInputsHash(tx),
	}
	copy(p.OperatorPubKey[:], operator.PublicKey().Serialize())
	sig, err := provider.SignPayload(p, owner)
	require.NoError(h.t, err)
	p.Signature = sig
	require.NoError(h.t, provider.SetPayload(tx, p))
	return tx, operator
}

// dealShares deals a threshold sharing of the aggregate operator secret
// to the members, standing in for the distributed key generation.
func (h *harness) dealShares() {
	h.t.Helper()

	quorum := h.instantSendQuorum()
	secrets := make([]*bls.SecretKey, 0, len(h.members))
	for _, m := range h.members {
		secrets = append(secrets, m.operator)
	}
	aggSecret, err := bls.AggregateSecretKeys(secrets)
	require.NoError(h.t, err)

	threshold := quorum.Threshold()
	coeffs := make([]*bls.SecretKey, threshold)
	coeffs[0] = aggSecret
	for i := 1; i < threshold; i++ {
		var seed [bls.SecretKeySize]byte
		seed[0] = 0xd0
		seed[1] = byte(i)
		c, err := bls.SecretKeyFromSeed(seed)
		require.NoError(h.t, err)
		coeffs[i] = c
	}
	for _, m := range h.members {
		share, err := bls.SecretKeyShare(coeffs, m.proTxHash[:])
		require.NoError(h.t, err)
		m.share = share
	}
}

// instantSendQuorum returns the active quorum used by both lock
// subsystems on the regression network.
func (h *harness) instantSendQuorum() *Quorum {
	h.t.Helper()
	q, err := h.quorums.SelectQuorumForRequest(
		h.params.LLMQTypeInstantSend, &chainhash.Hash{})
	require.NoError(h.t, err)
	require.NotNil(h.t, q)
	return q
}

// contributeShare signs the session hash with the given member's share
// and feeds it to the signing manager.
func (h *harness) contributeShare(m *member, t chaincfg.LLMQType,
	quorum *Quorum, requestID, msgHash chainhash.Hash) {

	h.t.Helper()
	signHash := CalcSignHash(t, &quorum.QuorumHash, &requestID, &msgHash)
	sig, err := m.share.Sign(signHash[:])
	require.NoError(h.t, err)
	require.NoError(h.t, h.signing.ProcessSigShare(&SigShare{
		LLMQType:   t,
		QuorumHash: quorum.QuorumHash,
		RequestID:  requestID,
		MsgHash:    msgHash,
		ProTxHash:  m.proTxHash,
		Share:      sig,
	}))
}

// signWithQuorumKey signs the session hash directly with the aggregate
// operator secret, producing the signature threshold recovery would
// yield.
func (h *harness) signWithQuorumKey(t chaincfg.LLMQType, quorum *Quorum,
	requestID, msgHash chainhash.Hash) *bls.Signature {

	h.t.Helper()
	secrets := make([]*bls.SecretKey, 0, len(h.members))
	for _, m := range h.members {
		secrets = append(secrets, m.operator)
	}
	aggSecret, err := bls.AggregateSecretKeys(secrets)
	require.NoError(h.t, err)
	signHash := CalcSignHash(t, &quorum.QuorumHash, &requestID, &msgHash)
	sig, err := aggSecret.Sign(signHash[:])
	require.NoError(h.t, err)
	return sig
}
