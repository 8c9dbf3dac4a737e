// Copyright (c) 2026 The Mynta developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package provider

import (
	"bytes"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/Slashx124/mynta-core/bls"
)

// ProRegTxVersion is the only supported registration payload version.
const ProRegTxVersion uint16 = 1

// ProRegTx is the provider registration payload.  It establishes the
// immutable identity of an operator: collateral, keys, endpoint and payout.
type ProRegTx struct {
	Version            uint16
	Mode               uint16
	CollateralOutpoint wire.OutPoint
	Service            Service
	OwnerKeyID         KeyID
	OperatorPubKey     [OperatorKeySize]byte
	VotingKeyID        KeyID
	OperatorReward     uint16
	PayoutScript       []byte
	InputsHash         chainhash.Hash
	Signature          []byte
}

// Type returns the payload's provider transaction type.
func (p *ProRegTx) Type() TxType {
	return TxTypeRegister
}

func (p *ProRegTx) serializeInner(w io.Writer, withSig bool) error {
	if err := writeUint16(w, p.Version); err != nil {
		return err
	}
	if err := writeUint16(w, p.Mode); err != nil {
		return err
	}
	if err := writeOutPoint(w, &p.CollateralOutpoint); err != nil {
		return err
	}
	if err := writeService(w, &p.Service); err != nil {
		return err
	}
	if err := writeKeyID(w, &p.OwnerKeyID); err != nil {
		return err
	}
	if _, err := w.Write(p.OperatorPubKey[:]); err != nil {
		return err
	}
	if err := writeKeyID(w, &p.VotingKeyID); err != nil {
		return err
	}
	if err := writeUint16(w, p.OperatorReward); err != nil {
		return err
	}
	if err := writeVarBytes(w, p.PayoutScript); err != nil {
		return err
	}
	if err := writeHash(w, &p.InputsHash); err != nil {
		return err
	}
	if withSig {
		return writeVarBytes(w, p.Signature)
	}
	return nil
}

// Serialize encodes the payload, including the signature, to w.
func (p *ProRegTx) Serialize(w io.Writer) error {
	return p.serializeInner(w, true)
}

// Deserialize decodes the payload from r.
func (p *ProRegTx) Deserialize(r io.Reader) error {
	var err error
	if p.Version, err = readUint16(r); err != nil {
		return err
	}
	if p.Mode, err = readUint16(r); err != nil {
		return err
	}
	if err = readOutPoint(r, &p.CollateralOutpoint); err != nil {
		return err
	}
	if err = readService(r, &p.Service); err != nil {
		return err
	}
	if err = readKeyID(r, &p.OwnerKeyID); err != nil {
		return err
	}
	if _, err = io.ReadFull(r, p.OperatorPubKey[:]); err != nil {
		return err
	}
	if err = readKeyID(r, &p.VotingKeyID); err != nil {
		return err
	}
	if p.OperatorReward, err = readUint16(r); err != nil {
		return err
	}
	if p.PayoutScript, err = readVarBytes(r, maxScriptLen, "payout script"); err != nil {
		return err
	}
	if err = readHash(r, &p.InputsHash); err != nil {
		return err
	}
	if p.Signature, err = readVarBytes(r, maxSignatureLen, "signature"); err != nil {
		return err
	}
	return expectEOF(r)
}

// SignatureHash returns the hash the owner signature commits to.
func (p *ProRegTx) SignatureHash() [32]byte {
	var buf bytes.Buffer
	// Serialization of fixed-width fields into a buffer cannot fail.
	_ = p.serializeInner(&buf, false)
	return chainhash.DoubleHashH(buf.Bytes())
}

// OperatorBLSKey parses and validates the operator public key.
func (p *ProRegTx) OperatorBLSKey() (*bls.PublicKey, error) {
	return bls.ParsePublicKey(p.OperatorPubKey[:])
}

// SanityCheck performs the context-free validation of the payload.
func (p *ProRegTx) SanityCheck() error {
	if p.Version != ProRegTxVersion {
		return ruleError(ErrBadVersion,
			fmt.Sprintf("bad proregtx version %d", p.Version))
	}
	if p.Mode != 0 {
		return ruleError(ErrBadMode,
			fmt.Sprintf("bad proregtx mode %d", p.Mode))
	}
	if p.OperatorReward > MaxOperatorReward {
		return ruleError(ErrBadOperatorReward,
			fmt.Sprintf("operator reward %d exceeds %d basis points",
				p.OperatorReward, MaxOperatorReward))
	}
	if _, err := p.OperatorBLSKey(); err != nil {
		return ruleError(ErrBadOperatorKey,
			"operator key is not a valid G1 element")
	}
	if !isStandardPayout(p.PayoutScript) {
		return ruleError(ErrBadPayoutScript,
			"payout script is not P2PKH or P2SH")
	}
	if len(p.Signature) == 0 {
		return ruleError(ErrBadSignature, "missing payload signature")
	}
	return nil
}

// expectEOF rejects trailing bytes after a payload.
func expectEOF(r io.Reader) error {
	var b [1]byte
	if n, _ := r.Read(b[:]); n != 0 {
		return fmt.Errorf("trailing bytes after payload")
	}
	return nil
}
