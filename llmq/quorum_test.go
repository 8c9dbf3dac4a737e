// Copyright (c) 2026 The Mynta developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package llmq

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/Slashx124/mynta-core/bls"
)

func TestQuorumSelectionDeterminism(t *testing.T) {
	h := newHarness(t, 3)

	q1, err := h.quorums.GetQuorumAtHeight(h.params.LLMQTypeInstantSend, 24)
	require.NoError(t, err)
	require.NotNil(t, q1)
	require.True(t, q1.IsValid())
	require.Equal(t, 3, q1.ValidCount)

	// Rebuilding from scratch yields the identical committee.
	fresh, err := NewQuorumManager(&QuorumConfig{
		ChainParams: h.params,
		Chain:       h.chain,
		MNList:      h.mnmgr,
	})
	require.NoError(t, err)
	q2, err := fresh.GetQuorumAtHeight(h.params.LLMQTypeInstantSend, 24)
	require.NoError(t, err)

	require.Equal(t, q1.QuorumHash, q2.QuorumHash)
	require.Equal(t, len(q1.Members), len(q2.Members))
	for i := range q1.Members {
		require.Equal(t, q1.Members[i].ProTxHash, q2.Members[i].ProTxHash)
	}
	require.True(t, q1.AggregatedPubKey.IsEqual(q2.AggregatedPubKey))
}

func TestQuorumMembersAreRegisteredMasternodes(t *testing.T) {
	h := newHarness(t, 3)
	q := h.instantSendQuorum()

	require.Len(t, q.Members, 3)
	for _, m := range h.members {
		require.True(t, q.IsMember(&m.proTxHash))
	}
	var random chainhash.Hash
	random[0] = 0x99
	require.False(t, q.IsMember(&random))
}

func TestActiveSetSkipsUndersizedQuorums(t *testing.T) {
	h := newHarness(t, 3)

	active, err := h.quorums.GetActiveSet(h.params.LLMQTypeInstantSend)
	require.NoError(t, err)
	// The genesis formation has no members and must not appear.
	require.Len(t, active, 1)
	require.Equal(t, int32(24), active[0].Height)
}

func TestActiveSetWindowIsFixed(t *testing.T) {
	h := newHarness(t, 3)
	params := h.params.LLMQs[h.params.LLMQTypeInstantSend]

	// Advance one more formation interval so the window of
	// ActiveCount (2) formation heights is [48, 24].  The undersized
	// genesis formation at height 0 sits outside the window; an
	// invalid quorum never extends the window further back, so it
	// must not appear even though the set has room for it.
	for h.tip.Height < 2*params.Interval {
		h.connect()
	}

	active, err := h.quorums.GetActiveSet(h.params.LLMQTypeInstantSend)
	require.NoError(t, err)
	require.Len(t, active, 2)
	require.Equal(t, int32(48), active[0].Height)
	require.Equal(t, int32(24), active[1].Height)
}

func TestActiveSetDoesNotBackfillPastWindow(t *testing.T) {
	h := newHarness(t, 3)
	params := h.params.LLMQs[h.params.LLMQTypeInstantSend]

	// De-register every masternode right after the height-24 formation
	// by spending the collaterals, then advance two more intervals.
	// The window [72, 48] holds only undersized quorums; the still
	// valid height-24 quorum sits outside it and must not be pulled
	// in as a replacement.
	spend := wire.NewMsgTx(2)
	for _, m := range h.members {
		e := h.mnmgr.GetEntry(&m.proTxHash)
		require.NotNil(t, e)
		spend.AddTxIn(&wire.TxIn{
			PreviousOutPoint: e.Registration.CollateralOutpoint,
		})
	}
	h.connect(spend)
	for h.tip.Height < 3*params.Interval {
		h.connect()
	}

	active, err := h.quorums.GetActiveSet(h.params.LLMQTypeInstantSend)
	require.NoError(t, err)
	require.Empty(t, active)
}

func TestSigningThresholdRecovery(t *testing.T) {
	h := newHarness(t, 3)
	lt := h.params.LLMQTypeInstantSend
	quorum := h.instantSendQuorum()

	requestID := chainhash.HashH([]byte("request"))
	msgHash := chainhash.HashH([]byte("message"))

	// The local signer contributes the first share.
	require.NoError(t, h.signing.AsyncSign(lt, requestID, msgHash))
	require.Empty(t, h.recovered)

	// The second share reaches the 60% threshold of three members.
	h.contributeShare(h.members[1], lt, quorum, requestID, msgHash)
	require.Len(t, h.recovered, 1)

	rs := h.recovered[0]
	require.Equal(t, requestID, rs.RequestID)
	require.Equal(t, msgHash, rs.MsgHash)
	require.NoError(t, h.signing.VerifyRecoveredSig(rs))

	// The recovered signature equals the one the aggregate secret
	// would produce directly: recovery is independent of which share
	// subset arrived.
	direct := h.signWithQuorumKey(lt, quorum, requestID, msgHash)
	require.True(t, rs.Sig.IsEqual(direct))
}

func TestSigningRecoveryIndependentOfShareSubset(t *testing.T) {
	h := newHarness(t, 3)
	lt := h.params.LLMQTypeInstantSend
	quorum := h.instantSendQuorum()

	requestID := chainhash.HashH([]byte("subset-request"))
	msgHash := chainhash.HashH([]byte("subset-message"))

	// Shares from members 1 and 2 only; the local signer never signs.
	h.contributeShare(h.members[1], lt, quorum, requestID, msgHash)
	h.contributeShare(h.members[2], lt, quorum, requestID, msgHash)
	require.Len(t, h.recovered, 1)

	direct := h.signWithQuorumKey(lt, quorum, requestID, msgHash)
	require.True(t, h.recovered[0].Sig.IsEqual(direct))
}

func TestSigningRejectsForeignShare(t *testing.T) {
	h := newHarness(t, 3)
	lt := h.params.LLMQTypeInstantSend
	quorum := h.instantSendQuorum()

	requestID := chainhash.HashH([]byte("foreign"))
	msgHash := chainhash.HashH([]byte("msg"))
	signHash := CalcSignHash(lt, &quorum.QuorumHash, &requestID, &msgHash)

	outsider, err := bls.GenerateSecretKey()
	require.NoError(t, err)
	sig, err := outsider.Sign(signHash[:])
	require.NoError(t, err)

	err = h.signing.ProcessSigShare(&SigShare{
		LLMQType:   lt,
		QuorumHash: quorum.QuorumHash,
		RequestID:  requestID,
		MsgHash:    msgHash,
		ProTxHash:  chainhash.HashH([]byte("not-a-member")),
		Share:      sig,
	})
	var rerr RuleError
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, ErrBadQuorum, rerr.ErrorCode)
}

func TestVerifyRecoveredSigRejectsTamperedMessage(t *testing.T) {
	h := newHarness(t, 3)
	lt := h.params.LLMQTypeInstantSend
	quorum := h.instantSendQuorum()

	requestID := chainhash.HashH([]byte("tamper"))
	msgHash := chainhash.HashH([]byte("msg"))
	sig := h.signWithQuorumKey(lt, quorum, requestID, msgHash)

	rs := &RecoveredSig{
		LLMQType:   lt,
		QuorumHash: quorum.QuorumHash,
		RequestID:  requestID,
		MsgHash:    chainhash.HashH([]byte("a different msg")),
		Sig:        sig,
	}
	err := h.signing.VerifyRecoveredSig(rs)
	var rerr RuleError
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, ErrBadSignature, rerr.ErrorCode)
}

func TestSessionCleanup(t *testing.T) {
	h := newHarness(t, 3)
	lt := h.params.LLMQTypeInstantSend

	requestID := chainhash.HashH([]byte("cleanup"))
	msgHash := chainhash.HashH([]byte("msg"))
	require.NoError(t, h.signing.AsyncSign(lt, requestID, msgHash))
	require.Equal(t, 1, h.signing.SessionCount())

	h.signing.Cleanup(h.tip.Height + sessionMaxAge + 1)
	require.Equal(t, 0, h.signing.SessionCount())
}
