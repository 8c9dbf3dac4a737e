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

// ProUpServTxVersion is the only supported service update payload version.
const ProUpServTxVersion uint16 = 1

// ProUpServTx is the provider service update payload.  It is signed with
// the operator BLS key and updates the advertised endpoint and, optionally,
// the operator payout script.
type ProUpServTx struct {
	Version              uint16
	ProTxHash            chainhash.Hash
	Service              Service
	OperatorPayoutScript []byte
	InputsHash           chainhash.Hash
	Signature            []byte
}

// Type returns the payload's provider transaction type.
func (p *ProUpServTx) Type() TxType {
	return TxTypeUpdateService
}

func (p *ProUpServTx) serializeInner(w io.Writer, withSig bool) error {
	if err := writeUint16(w, p.Version); err != nil {
		return err
	}
	if err := writeHash(w, &p.ProTxHash); err != nil {
		return err
	}
	if err := writeService(w, &p.Service); err != nil {
		return err
	}
	if err := writeVarBytes(w, p.OperatorPayoutScript); err != nil {
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
func (p *ProUpServTx) Serialize(w io.Writer) error {
	return p.serializeInner(w, true)
}

// Deserialize decodes the payload from r.
func (p *ProUpServTx) Deserialize(r io.Reader) error {
	var err error
	if p.Version, err = readUint16(r); err != nil {
		return err
	}
	if err = readHash(r, &p.ProTxHash); err != nil {
		return err
	}
	if err = readService(r, &p.Service); err != nil {
		return err
	}
	p.OperatorPayoutScript, err = readVarBytes(r, maxScriptLen, "operator payout script")
	if err != nil {
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

// SignatureHash returns the hash the operator BLS signature commits to.
func (p *ProUpServTx) SignatureHash() [32]byte {
	var buf bytes.Buffer
	_ = p.serializeInner(&buf, false)
	return chainhash.DoubleHashH(buf.Bytes())
}

// VerifyOperatorSignature checks the payload's BLS signature against the
// registered operator key.  Neither the list manager nor the quorum layer
// calls it: service updates are applied without an operator signature
// check.
func (p *ProUpServTx) VerifyOperatorSignature(pk *bls.PublicKey) bool {
	sig, err := bls.ParseSignature(p.Signature)
	if err != nil {
		return false
	}
	h := p.SignatureHash()
	return sig.VerifyInsecure(pk, h[:])
}

// SanityCheck performs the context-free validation of the payload.
func (p *ProUpServTx) SanityCheck() error {
	if p.Version != ProUpServTxVersion {
		return ruleError(ErrBadVersion,
			fmt.Sprintf("bad proupservtx version %d", p.Version))
	}
	if len(p.OperatorPayoutScript) != 0 && !isStandardPayout(p.OperatorPayoutScript) {
		return ruleError(ErrBadPayoutScript,
			"operator payout script is not P2PKH or P2SH")
	}
	if len(p.Signature) == 0 {
		return ruleError(ErrBadSignature, "missing payload signature")
	}
	return nil
}
