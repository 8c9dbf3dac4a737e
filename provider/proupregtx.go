// Copyright (c) 2026 The Mynta developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package provider

import (
	"bytes"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/Slashx124/mynta-core/bls"
)

// ProUpRegTxVersion is the only supported registrar update payload version.
const ProUpRegTxVersion uint16 = 1

// ProUpRegTx is the provider registrar update payload.  It is signed with
// the owner key and may rotate the operator key, the voting key and the
// payout script.  An empty operator key field leaves the key unchanged.
type ProUpRegTx struct {
	Version        uint16
	ProTxHash      chainhash.Hash
	Mode           uint16
	OperatorPubKey []byte
	VotingKeyID    KeyID
	PayoutScript   []byte
	InputsHash     chainhash.Hash
	Signature      []byte
}

// Type returns the payload's provider transaction type.
func (p *ProUpRegTx) Type() TxType {
	return TxTypeUpdateRegistrar
}

func (p *ProUpRegTx) serializeInner(w io.Writer, withSig bool) error {
	if err := writeUint16(w, p.Version); err != nil {
		return err
	}
	if err := writeHash(w, &p.ProTxHash); err != nil {
		return err
	}
	if err := writeUint16(w, p.Mode); err != nil {
		return err
	}
	if err := writeVarBytes(w, p.OperatorPubKey); err != nil {
		return err
	}
	if err := writeKeyID(w, &p.VotingKeyID); err != nil {
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
func (p *ProUpRegTx) Serialize(w io.Writer) error {
	return p.serializeInner(w, true)
}

// Deserialize decodes the payload from r.
func (p *ProUpRegTx) Deserialize(r io.Reader) error {
	var err error
	if p.Version, err = readUint16(r); err != nil {
		return err
	}
	if err = readHash(r, &p.ProTxHash); err != nil {
		return err
	}
	if p.Mode, err = readUint16(r); err != nil {
		return err
	}
	p.OperatorPubKey, err = readVarBytes(r, OperatorKeySize, "operator key")
	if err != nil {
		return err
	}
	if err = readKeyID(r, &p.VotingKeyID); err != nil {
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
func (p *ProUpRegTx) SignatureHash() [32]byte {
	var buf bytes.Buffer
	_ = p.serializeInner(&buf, false)
	return chainhash.DoubleHashH(buf.Bytes())
}

// HasOperatorKey returns whether the payload rotates the operator key.
func (p *ProUpRegTx) HasOperatorKey() bool {
	return len(p.OperatorPubKey) != 0
}

// OperatorBLSKey parses and validates the new operator key.  It must only
// be called when HasOperatorKey is true.
func (p *ProUpRegTx) OperatorBLSKey() (*bls.PublicKey, error) {
	return bls.ParsePublicKey(p.OperatorPubKey)
}

// SanityCheck performs the context-free validation of the payload.
func (p *ProUpRegTx) SanityCheck() error {
	if p.Version != ProUpRegTxVersion {
		return ruleError(ErrBadVersion,
			fmt.Sprintf("bad proupregtx version %d", p.Version))
	}
	if p.HasOperatorKey() {
		if len(p.OperatorPubKey) != OperatorKeySize {
			return ruleError(ErrBadOperatorKey,
				fmt.Sprintf("operator key has %d bytes, want %d",
					len(p.OperatorPubKey), OperatorKeySize))
		}
		if _, err := p.OperatorBLSKey(); err != nil {
			return ruleError(ErrBadOperatorKey,
				"operator key is not a valid G1 element")
		}
	}
	if len(p.PayoutScript) != 0 && !isStandardPayout(p.PayoutScript) {
		return ruleError(ErrBadPayoutScript,
			"payout script is not P2PKH or P2SH")
	}
	if len(p.Signature) == 0 {
		return ruleError(ErrBadSignature, "missing payload signature")
	}
	return nil
}
