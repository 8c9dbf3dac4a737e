// Copyright (c) 2026 The Mynta developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package dex

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	btcchaincfg "github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/stretchr/testify/require"
)

// sequentialPreimage returns the 32 byte preimage 0x01..0x20.
func sequentialPreimage() []byte {
	preimage := make([]byte, 32)
	for i := range preimage {
		preimage[i] = byte(i + 1)
	}
	return preimage
}

func TestVerifyPreimageVector(t *testing.T) {
	preimage := sequentialPreimage()

	wantLock, err := hex.DecodeString(
		"ae216c2ef5247a3782c135efa279a3e4cdc61094270f5d2be58c6204b7a612c9")
	require.NoError(t, err)
	require.Equal(t, wantLock, func() []byte {
		h := sha256.Sum256(preimage)
		return h[:]
	}())

	htlc := &HTLC{TimeLock: 1000}
	copy(htlc.HashLock[:], wantLock)

	require.True(t, htlc.VerifyPreimage(preimage))

	flipped := append([]byte(nil), preimage...)
	flipped[0] = 0xff
	require.False(t, htlc.VerifyPreimage(flipped))
}

func TestCanRefundBoundary(t *testing.T) {
	htlc := &HTLC{TimeLock: 1100}
	require.False(t, htlc.CanRefund(1099))
	require.True(t, htlc.CanRefund(1100))
}

func testScriptParts(t *testing.T) ([HashLockSize]byte, [20]byte, [20]byte) {
	t.Helper()
	hashLock := sha256.Sum256([]byte("lock"))
	var receiver, sender [20]byte
	for i := range receiver {
		receiver[i] = 0xaa
		sender[i] = 0xbb
	}
	return hashLock, receiver, sender
}

func TestCreateHTLCScriptStructure(t *testing.T) {
	hashLock, receiver, sender := testScriptParts(t)
	script, err := CreateHTLCScript(hashLock, receiver, sender, 1500)
	require.NoError(t, err)

	// Both spend paths and their guards must be present.
	var opcodes []byte
	tokenizer := txscript.MakeScriptTokenizer(0, script)
	for tokenizer.Next() {
		opcodes = append(opcodes, tokenizer.Opcode())
	}
	require.NoError(t, tokenizer.Err())
	require.Equal(t, byte(txscript.OP_IF), opcodes[0])
	require.Contains(t, opcodes, byte(txscript.OP_SHA256))
	require.Contains(t, opcodes, byte(txscript.OP_CHECKLOCKTIMEVERIFY))
	require.Equal(t, byte(txscript.OP_ENDIF), opcodes[len(opcodes)-1])
}

func TestExtractTimeLock(t *testing.T) {
	hashLock, receiver, sender := testScriptParts(t)

	for _, timeLock := range []int32{0, 1, 16, 17, 1000, 1500, 500000} {
		script, err := CreateHTLCScript(hashLock, receiver, sender, timeLock)
		require.NoError(t, err)
		got, err := ExtractTimeLock(script)
		require.NoError(t, err)
		require.Equal(t, timeLock, got)
	}
}

func TestExtractTimeLockRejectsForeignScript(t *testing.T) {
	// A plain P2PKH script has no refund branch.
	script, err := txscript.NewScriptBuilder().
		AddOp(txscript.OP_DUP).AddOp(txscript.OP_HASH160).
		AddData(make([]byte, 20)).
		AddOp(txscript.OP_EQUALVERIFY).AddOp(txscript.OP_CHECKSIG).
		Script()
	require.NoError(t, err)
	_, err = ExtractTimeLock(script)
	require.ErrorIs(t, err, ErrNoTimeLock)
}

func TestP2SHScript(t *testing.T) {
	hashLock, receiver, sender := testScriptParts(t)
	redeem, err := CreateHTLCScript(hashLock, receiver, sender, 1200)
	require.NoError(t, err)

	p2sh, err := P2SHScript(redeem, &btcchaincfg.MainNetParams)
	require.NoError(t, err)
	require.Equal(t, txscript.ScriptHashTy, txscript.GetScriptClass(p2sh))
}

func TestSpendScripts(t *testing.T) {
	hashLock, receiver, sender := testScriptParts(t)
	redeem, err := CreateHTLCScript(hashLock, receiver, sender, 1200)
	require.NoError(t, err)

	sig := make([]byte, 71)
	pubKey := make([]byte, 33)
	preimage := sequentialPreimage()

	claim, err := CreateClaimSigScript(sig, pubKey, preimage, redeem)
	require.NoError(t, err)
	refund, err := CreateRefundSigScript(sig, pubKey, redeem)
	require.NoError(t, err)

	// The claim path selector is TRUE, the refund selector FALSE, and
	// both embed the redeem script as the final push.
	requireLastPush := func(script []byte, want []byte) {
		t.Helper()
		var lastData []byte
		tokenizer := txscript.MakeScriptTokenizer(0, script)
		for tokenizer.Next() {
			if tokenizer.Data() != nil {
				lastData = tokenizer.Data()
			}
		}
		require.NoError(t, tokenizer.Err())
		require.Equal(t, want, lastData)
	}
	requireLastPush(claim, redeem)
	requireLastPush(refund, redeem)
}

func TestHTLCStateString(t *testing.T) {
	require.Equal(t, "pending", HTLCPending.String())
	require.Equal(t, "claimed", HTLCClaimed.String())
	require.Equal(t, "refunded", HTLCRefunded.String())
	require.Equal(t, "expired", HTLCExpired.String())
}
