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

// ProUpRevTxVersion is the only supported revocation payload version.
const ProUpRevTxVersion uint16 = 1

// Revocation reasons.
const (
	RevocationReasonNotSpecified uint16 = 0
	RevocationReasonTermination  uint16 = 1
	RevocationReasonCompromised  uint16 = 2
	RevocationReasonKeysChanged  uint16 = 3

	// MaxRevocationReason is the highest defined reason value.
	MaxRevocationReason = RevocationReasonKeysChanged
)

// ProUpRevTx is the provider revocation payload.  It is signed with the
// operator BLS key and bans the masternode until the owner issues a
// registrar update with a fresh operator key.
type ProUpRevTx struct {
	Version    uint16
	ProTxHash  chainhash.Hash
	Reason     uint16
	InputsHash chainhash.Hash
	Signature  []byte
}

// Type returns the payload's provider transaction type.
func (p *ProUpRevTx) Type() TxType {
	return TxTypeUpdateRevoke
}

func (p *ProUpRevTx) serializeInner(w io.Writer, withSig bool) error {
	if err := writeUint16(w, p.Version); err != nil {
		return err
	}
	if err := writeHash(w, &p.ProTxHash); err != nil {
		return err
	}
	if err := writeUint16(w, p.Reason); err != nil {
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
func (p *ProUpRevTx) Serialize(w io.Writer) error {
	return p.serializeInner(w, true)
}

// Deserialize decodes the payload from r.
func (p *ProUpRevTx) Deserialize(r io.Reader) error {
	var err error
	if p.Version, err = readUint16(r); err != nil {
		return err
	}
	if err = readHash(r, &p.ProTxHash); err != nil {
		return err
	}
	if p.Reason, err = readUint16(r); err != nil {
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
func (p *ProUpRevTx) SignatureHash() [32]byte {
	var buf bytes.Buffer
	_ = p.serializeInner(&buf, false)
	return chainhash.DoubleHashH(buf.Bytes())
}

// VerifyOperatorSignature checks the payload's BLS signature against the
// registered operator key.
func (p *ProUpRevTx) VerifyOperatorSignature(pk *bls.PublicKey) bool {
	sig, err := bls.ParseSignature(p.Signature)
	if err != nil {
		return false
	}
	h := p.SignatureHash()
	return sig.VerifyInsecure(pk, h[:])
}

// SanityCheck performs the context-free validation of the payload.
func (p *ProUpRevTx) SanityCheck() error {
	if p.Version != ProUpRevTxVersion {
		return ruleError(ErrBadVersion,
			fmt.Sprintf("bad prouprevtx version %d", p.Version))
	}
	if p.Reason > MaxRevocationReason {
		return ruleError(ErrBadRevocationReason,
			fmt.Sprintf("revocation reason %d out of range", p.Reason))
	}
	if len(p.Signature) == 0 {
		return ruleError(ErrBadSignature, "missing payload signature")
	}
	return nil
}
