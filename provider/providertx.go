// Copyright (c) 2026 The Mynta developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package provider

import (
	"bytes"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// TxType identifies the kind of provider payload carried by an extended
// version transaction.  The type tag lives in the upper 16 bits of the
// transaction version; the lower 16 bits remain the base-layer version.
type TxType uint16

// The defined provider transaction types.
const (
	TxTypeNormal          TxType = 0
	TxTypeRegister        TxType = 1
	TxTypeUpdateService   TxType = 2
	TxTypeUpdateRegistrar TxType = 3
	TxTypeUpdateRevoke    TxType = 4
)

// String returns the TxType as a human-readable name.
func (t TxType) String() string {
	switch t {
	case TxTypeNormal:
		return "normal"
	case TxTypeRegister:
		return "proregtx"
	case TxTypeUpdateService:
		return "proupservtx"
	case TxTypeUpdateRegistrar:
		return "proupregtx"
	case TxTypeUpdateRevoke:
		return "prouprevtx"
	}
	return fmt.Sprintf("unknown(%d)", uint16(t))
}

// minProviderTxVersion is the lowest base transaction version that may
// carry a provider payload.
const minProviderTxVersion = 3

// GetTxType returns the provider type tag of the transaction, or
// TxTypeNormal when the transaction does not carry one.
func GetTxType(tx *wire.MsgTx) TxType {
	ver := uint32(tx.Version)
	if uint16(ver&0xffff) < minProviderTxVersion {
		return TxTypeNormal
	}
	t := TxType(ver >> 16)
	if t > TxTypeUpdateRevoke {
		return TxTypeNormal
	}
	return t
}

// IsProviderTx returns whether the transaction carries a provider payload.
func IsProviderTx(tx *wire.MsgTx) bool {
	return GetTxType(tx) != TxTypeNormal
}

// Payload is the interface implemented by the four provider payloads.  A
// single dispatcher decodes the carrier transaction and hands the payload
// to per-type validation and application code.
type Payload interface {
	// Type returns the payload's provider transaction type.
	Type() TxType

	// Serialize encodes the payload, including the signature, to w.
	Serialize(w io.Writer) error

	// Deserialize decodes the payload from r, rejecting trailing or
	// malformed data.
	Deserialize(r io.Reader) error

	// SignatureHash returns the hash the payload signature commits to:
	// the double-SHA256 of the serialization with the signature omitted.
	SignatureHash() [32]byte

	// SanityCheck performs the context-free validation of the payload.
	SanityCheck() error
}

// SetPayload serializes the payload into an OP_RETURN carrier output
// appended to the transaction and stamps the provider type tag into the
// transaction version.
func SetPayload(tx *wire.MsgTx, p Payload) error {
	var buf bytes.Buffer
	if err := p.Serialize(&buf); err != nil {
		return err
	}
	script, err := txscript.NewScriptBuilder().
		AddOp(txscript.OP_RETURN).
		AddData(buf.Bytes()).
		Script()
	if err != nil {
		return err
	}
	baseVer := uint32(tx.Version) & 0xffff
	if baseVer < minProviderTxVersion {
		baseVer = minProviderTxVersion
	}
	tx.Version = int32(baseVer | uint32(p.Type())<<16)
	tx.AddTxOut(wire.NewTxOut(0, script))
	return nil
}

// GetPayload decodes the provider payload carried by the transaction.  It
// returns a RuleError when the transaction claims a provider type but the
// carrier output is missing or does not decode.
func GetPayload(tx *wire.MsgTx) (Payload, error) {
	t := GetTxType(tx)
	if t == TxTypeNormal {
		return nil, ruleError(ErrMalformedPayload, "transaction carries no provider payload")
	}

	raw, err := extractPayloadBytes(tx)
	if err != nil {
		return nil, err
	}

	var p Payload
	switch t {
	case TxTypeRegister:
		p = new(ProRegTx)
	case TxTypeUpdateService:
		p = new(ProUpServTx)
	case TxTypeUpdateRegistrar:
		p = new(ProUpRegTx)
	case TxTypeUpdateRevoke:
		p = new(ProUpRevTx)
	}
	if err := p.Deserialize(bytes.NewReader(raw)); err != nil {
		return nil, ruleError(ErrMalformedPayload,
			fmt.Sprintf("bad %v payload: %v", t, err))
	}
	return p, nil
}

// extractPayloadBytes finds the OP_RETURN carrier output and returns its
// pushed data.
func extractPayloadBytes(tx *wire.MsgTx) ([]byte, error) {
	for _, out := range tx.TxOut {
		script := out.PkScript
		if len(script) == 0 || script[0] != txscript.OP_RETURN {
			continue
		}
		tokenizer := txscript.MakeScriptTokenizer(0, script[1:])
		if !tokenizer.Next() {
			continue
		}
		data := tokenizer.Data()
		if data == nil || tokenizer.Next() {
			// Not a single clean push.
			continue
		}
		if err := tokenizer.Err(); err != nil {
			continue
		}
		return data, nil
	}
	return nil, ruleError(ErrMalformedPayload, "provider payload carrier output missing")
}
