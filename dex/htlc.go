// Copyright (c) 2026 The Mynta developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package dex

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	btcchaincfg "github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
)

// HashLockSize is the size of the SHA-256 hash lock and its preimage.
const HashLockSize = 32

// HTLCState tracks the lifecycle of a hash time-locked contract.
type HTLCState uint8

// The defined contract states.
const (
	HTLCPending HTLCState = iota
	HTLCClaimed
	HTLCRefunded
	HTLCExpired
)

// String returns the HTLCState as a human-readable name.
func (s HTLCState) String() string {
	switch s {
	case HTLCPending:
		return "pending"
	case HTLCClaimed:
		return "claimed"
	case HTLCRefunded:
		return "refunded"
	case HTLCExpired:
		return "expired"
	}
	return fmt.Sprintf("unknown(%d)", uint8(s))
}

// HTLC is one hash time-locked contract.  The receiver can claim the
// funds before the time lock by revealing the preimage of the hash lock;
// after the time lock the sender can refund.
type HTLC struct {
	ID             chainhash.Hash
	SenderScript   []byte
	ReceiverScript []byte
	HashLock       [HashLockSize]byte
	TimeLock       int32
	AssetName      string
	Amount         btcutil.Amount

	State       HTLCState
	ClaimTxHash chainhash.Hash
	Preimage    []byte
}

// VerifyPreimage returns whether the candidate preimage hashes to the
// contract's hash lock.
func (h *HTLC) VerifyPreimage(preimage []byte) bool {
	return sha256.Sum256(preimage) == h.HashLock
}

// CanRefund returns whether the time lock has passed at the given height.
func (h *HTLC) CanRefund(height int32) bool {
	return height >= h.TimeLock
}

// CreateHTLCScript assembles the redeem script with the two spend paths:
//
//	OP_IF
//	    OP_SHA256 <hashLock> OP_EQUALVERIFY
//	    OP_DUP OP_HASH160 <receiverPKH> OP_EQUALVERIFY OP_CHECKSIG
//	OP_ELSE
//	    <timeLock> OP_CHECKLOCKTIMEVERIFY OP_DROP
//	    OP_DUP OP_HASH160 <senderPKH> OP_EQUALVERIFY OP_CHECKSIG
//	OP_ENDIF
//
// The contract is funded by paying to the P2SH of this script.
func CreateHTLCScript(hashLock [HashLockSize]byte, receiverPKH, senderPKH [20]byte,
	timeLock int32) ([]byte, error) {

	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_IF).
		AddOp(txscript.OP_SHA256).
		AddData(hashLock[:]).
		AddOp(txscript.OP_EQUALVERIFY).
		AddOp(txscript.OP_DUP).
		AddOp(txscript.OP_HASH160).
		AddData(receiverPKH[:]).
		AddOp(txscript.OP_EQUALVERIFY).
		AddOp(txscript.OP_CHECKSIG).
		AddOp(txscript.OP_ELSE).
		AddInt64(int64(timeLock)).
		AddOp(txscript.OP_CHECKLOCKTIMEVERIFY).
		AddOp(txscript.OP_DROP).
		AddOp(txscript.OP_DUP).
		AddOp(txscript.OP_HASH160).
		AddData(senderPKH[:]).
		AddOp(txscript.OP_EQUALVERIFY).
		AddOp(txscript.OP_CHECKSIG).
		AddOp(txscript.OP_ENDIF).
		Script()
}

// P2SHScript returns the pay-to-script-hash output script funding the
// given redeem script.
func P2SHScript(redeemScript []byte, params *btcchaincfg.Params) ([]byte, error) {
	addr, err := btcutil.NewAddressScriptHash(redeemScript, params)
	if err != nil {
		return nil, err
	}
	return txscript.PayToAddrScript(addr)
}

// CreateClaimSigScript assembles the spend script for the claim path:
// <sig> <pubkey> <preimage> TRUE <redeemScript>.
func CreateClaimSigScript(sig, pubKey, preimage, redeemScript []byte) ([]byte, error) {
	return txscript.NewScriptBuilder().
		AddData(sig).
		AddData(pubKey).
		AddData(preimage).
		AddOp(txscript.OP_TRUE).
		AddData(redeemScript).
		Script()
}

// CreateRefundSigScript assembles the spend script for the refund path:
// <sig> <pubkey> FALSE <redeemScript>.
func CreateRefundSigScript(sig, pubKey, redeemScript []byte) ([]byte, error) {
	return txscript.NewScriptBuilder().
		AddData(sig).
		AddData(pubKey).
		AddOp(txscript.OP_FALSE).
		AddData(redeemScript).
		Script()
}

// ErrNoTimeLock describes a script from which no refund time lock could
// be parsed.
var ErrNoTimeLock = errors.New("script carries no refund time lock")

// ExtractTimeLock parses the refund time lock out of an HTLC redeem
// script: the operand pushed immediately after OP_ELSE.  Refund
// transaction building uses the actual on-chain value rather than
// assuming a default interval.
func ExtractTimeLock(redeemScript []byte) (int32, error) {
	tokenizer := txscript.MakeScriptTokenizer(0, redeemScript)
	sawElse := false
	for tokenizer.Next() {
		if !sawElse {
			if tokenizer.Opcode() == txscript.OP_ELSE {
				sawElse = true
			}
			continue
		}

		op := tokenizer.Opcode()
		switch {
		case op == txscript.OP_0:
			return 0, nil
		case op >= txscript.OP_1 && op <= txscript.OP_16:
			return int32(op-txscript.OP_1) + 1, nil
		}
		data := tokenizer.Data()
		if data == nil {
			return 0, ErrNoTimeLock
		}
		if len(data) > 5 {
			return 0, fmt.Errorf("time lock operand of %d bytes", len(data))
		}
		// Minimally encoded little-endian script number.
		var v int64
		for i, b := range data {
			v |= int64(b) << (8 * i)
		}
		if len(data) > 0 && data[len(data)-1]&0x80 != 0 {
			v &= ^(int64(0x80) << (8 * (len(data) - 1)))
			v = -v
		}
		if v < 0 {
			return 0, fmt.Errorf("negative time lock %d", v)
		}
		return int32(v), nil
	}
	if err := tokenizer.Err(); err != nil {
		return 0, err
	}
	return 0, ErrNoTimeLock
}
