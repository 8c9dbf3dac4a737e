// Copyright (c) 2026 The Mynta developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package provider

import (
	"bytes"
	"net"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/Slashx124/mynta-core/bls"
)

func p2pkhScript(t *testing.T, b byte) []byte {
	t.Helper()
	var h [20]byte
	for i := range h {
		h[i] = b
	}
	script, err := txscript.NewScriptBuilder().
		AddOp(txscript.OP_DUP).AddOp(txscript.OP_HASH160).
		AddData(h[:]).
		AddOp(txscript.OP_EQUALVERIFY).AddOp(txscript.OP_CHECKSIG).
		Script()
	require.NoError(t, err)
	return script
}

func testOperatorKey(t *testing.T, seedByte byte) [OperatorKeySize]byte {
	t.Helper()
	var seed [bls.SecretKeySize]byte
	for i := range seed {
		seed[i] = seedByte
	}
	sk, err := bls.SecretKeyFromSeed(seed)
	require.NoError(t, err)
	var key [OperatorKeySize]byte
	copy(key[:], sk.PublicKey().Serialize())
	return key
}

func testProRegTx(t *testing.T) *ProRegTx {
	t.Helper()
	p := &ProRegTx{
		Version: ProRegTxVersion,
		CollateralOutpoint: wire.OutPoint{
			Hash:  chainhash.HashH([]byte("collateral")),
			Index: 1,
		},
		Service:        NewServiceFromIP(net.ParseIP("203.0.113.7"), 9999),
		OperatorPubKey: testOperatorKey(t, 0x31),
		OperatorReward: 250,
		PayoutScript:   p2pkhScript(t, 0x01),
		InputsHash:     chainhash.HashH([]byte("inputs")),
		Signature:      bytes.Repeat([]byte{0x05}, 65),
	}
	copy(p.OwnerKeyID[:], bytes.Repeat([]byte{0x0a}, KeyIDSize))
	copy(p.VotingKeyID[:], bytes.Repeat([]byte{0x0b}, KeyIDSize))
	return p
}

func roundTrip(t *testing.T, in, out Payload) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, in.Serialize(&buf))
	require.NoError(t, out.Deserialize(bytes.NewReader(buf.Bytes())))
	require.Equal(t, in, out)
}

func TestProRegTxRoundTrip(t *testing.T) {
	roundTrip(t, testProRegTx(t), new(ProRegTx))
}

func TestProUpServTxRoundTrip(t *testing.T) {
	p := &ProUpServTx{
		Version:              ProUpServTxVersion,
		ProTxHash:            chainhash.HashH([]byte("protx")),
		Service:              NewServiceFromIP(net.ParseIP("2001:db8::44"), 19999),
		OperatorPayoutScript: []byte{},
		InputsHash:           chainhash.HashH([]byte("inputs")),
		Signature:            bytes.Repeat([]byte{0x06}, 96),
	}
	roundTrip(t, p, new(ProUpServTx))
}

func TestProUpRegTxRoundTrip(t *testing.T) {
	key := testOperatorKey(t, 0x44)
	p := &ProUpRegTx{
		Version:        ProUpRegTxVersion,
		ProTxHash:      chainhash.HashH([]byte("protx")),
		OperatorPubKey: key[:],
		PayoutScript:   p2pkhScript(t, 0x02),
		InputsHash:     chainhash.HashH([]byte("inputs")),
		Signature:      bytes.Repeat([]byte{0x07}, 65),
	}
	copy(p.VotingKeyID[:], bytes.Repeat([]byte{0x0c}, KeyIDSize))
	roundTrip(t, p, new(ProUpRegTx))
}

func TestProUpRevTxRoundTrip(t *testing.T) {
	p := &ProUpRevTx{
		Version:    ProUpRevTxVersion,
		ProTxHash:  chainhash.HashH([]byte("protx")),
		Reason:     RevocationReasonCompromised,
		InputsHash: chainhash.HashH([]byte("inputs")),
		Signature:  bytes.Repeat([]byte{0x08}, 96),
	}
	roundTrip(t, p, new(ProUpRevTx))
}

func TestDeserializeRejectsTrailingBytes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, testProRegTx(t).Serialize(&buf))
	buf.WriteByte(0x00)
	err := new(ProRegTx).Deserialize(bytes.NewReader(buf.Bytes()))
	require.Error(t, err)
}

func TestProRegTxSanity(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ProRegTx)
		code   ErrorCode
	}{
		{"bad version", func(p *ProRegTx) { p.Version = 2 }, ErrBadVersion},
		{"bad mode", func(p *ProRegTx) { p.Mode = 1 }, ErrBadMode},
		{"reward over 100%", func(p *ProRegTx) { p.OperatorReward = 10001 }, ErrBadOperatorReward},
		{"garbage operator key", func(p *ProRegTx) {
			p.OperatorPubKey = [OperatorKeySize]byte{}
		}, ErrBadOperatorKey},
		{"non standard payout", func(p *ProRegTx) {
			p.PayoutScript = []byte{txscript.OP_TRUE}
		}, ErrBadPayoutScript},
		{"missing signature", func(p *ProRegTx) { p.Signature = nil }, ErrBadSignature},
	}
	for _, test := range tests {
		p := testProRegTx(t)
		test.mutate(p)
		err := p.SanityCheck()
		require.Error(t, err, test.name)
		var rerr RuleError
		require.ErrorAs(t, err, &rerr, test.name)
		require.Equal(t, test.code, rerr.ErrorCode, test.name)
	}

	require.NoError(t, testProRegTx(t).SanityCheck())
}

func TestProUpRevTxSanityReasonRange(t *testing.T) {
	p := &ProUpRevTx{
		Version:   ProUpRevTxVersion,
		Reason:    MaxRevocationReason,
		Signature: bytes.Repeat([]byte{0x01}, 96),
	}
	require.NoError(t, p.SanityCheck())
	p.Reason = MaxRevocationReason + 1
	err := p.SanityCheck()
	var rerr RuleError
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, ErrBadRevocationReason, rerr.ErrorCode)
}

func TestOwnerSignatureRecovery(t *testing.T) {
	key, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	p := testProRegTx(t)
	p.OwnerKeyID = KeyIDForPubKey(key.PubKey())

	sig, err := SignPayload(p, key)
	require.NoError(t, err)
	p.Signature = sig

	require.True(t, CheckOwnerSignature(p.Signature, p.SignatureHash(), p.OwnerKeyID))

	// Signature hash changes with the payload, so a mutated payload no
	// longer recovers to the owner.
	p.OperatorReward++
	require.False(t, CheckOwnerSignature(p.Signature, p.SignatureHash(), p.OwnerKeyID))
}

func TestSignatureHashExcludesSignature(t *testing.T) {
	p := testProRegTx(t)
	h1 := p.SignatureHash()
	p.Signature = bytes.Repeat([]byte{0x55}, 65)
	h2 := p.SignatureHash()
	require.Equal(t, h1, h2)
}

func TestPayloadCarrier(t *testing.T) {
	tx := wire.NewMsgTx(3)
	tx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{Hash: chainhash.HashH([]byte("in")), Index: 0},
	})

	p := testProRegTx(t)
	p.InputsHash = CalcInputsHash(tx)
	require.NoError(t, SetPayload(tx, p))

	require.Equal(t, TxTypeRegister, GetTxType(tx))
	require.True(t, IsProviderTx(tx))

	got, err := GetPayload(tx)
	require.NoError(t, err)
	require.Equal(t, p, got)
}

func TestGetTxTypeNormal(t *testing.T) {
	tx := wire.NewMsgTx(2)
	require.Equal(t, TxTypeNormal, GetTxType(tx))
	require.False(t, IsProviderTx(tx))

	// Version 3 with no type tag is still a normal transaction.
	tx.Version = 3
	require.Equal(t, TxTypeNormal, GetTxType(tx))
}

func TestCalcInputsHashOrderMatters(t *testing.T) {
	op1 := wire.OutPoint{Hash: chainhash.HashH([]byte("a")), Index: 0}
	op2 := wire.OutPoint{Hash: chainhash.HashH([]byte("b")), Index: 1}

	tx1 := wire.NewMsgTx(3)
	tx1.AddTxIn(&wire.TxIn{PreviousOutPoint: op1})
	tx1.AddTxIn(&wire.TxIn{PreviousOutPoint: op2})

	tx2 := wire.NewMsgTx(3)
	tx2.AddTxIn(&wire.TxIn{PreviousOutPoint: op2})
	tx2.AddTxIn(&wire.TxIn{PreviousOutPoint: op1})

	require.NotEqual(t, CalcInputsHash(tx1), CalcInputsHash(tx2))
}
