// Copyright (c) 2026 The Mynta developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package provider

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
)

// KeyIDForPubKey returns the key id of the compressed serialization of the
// given secp256k1 public key.
func KeyIDForPubKey(pub *btcec.PublicKey) KeyID {
	var id KeyID
	copy(id[:], btcutil.Hash160(pub.SerializeCompressed()))
	return id
}

// SignPayload produces a compact ECDSA signature over the payload's
// signature hash with the given key.  It is used for the owner-signed
// payloads (registration and registrar update).
func SignPayload(p Payload, key *btcec.PrivateKey) ([]byte, error) {
	h := p.SignatureHash()
	return ecdsa.SignCompact(key, h[:], true), nil
}

// RecoverSignerKeyID recovers the signing key from a compact ECDSA
// signature over hash and returns its key id.
func RecoverSignerKeyID(sig []byte, hash [32]byte) (KeyID, error) {
	pub, compressed, err := ecdsa.RecoverCompact(sig, hash[:])
	if err != nil {
		return KeyID{}, err
	}
	var ser []byte
	if compressed {
		ser = pub.SerializeCompressed()
	} else {
		ser = pub.SerializeUncompressed()
	}
	var id KeyID
	copy(id[:], btcutil.Hash160(ser))
	return id, nil
}

// CheckOwnerSignature verifies that the compact ECDSA signature over hash
// recovers to the expected owner key id.
func CheckOwnerSignature(sig []byte, hash [32]byte, owner KeyID) bool {
	id, err := RecoverSignerKeyID(sig, hash)
	if err != nil {
		return false
	}
	return id == owner
}

// isStandardPayout returns whether the script is one of the two payout
// forms the consensus rules accept.
func isStandardPayout(script []byte) bool {
	switch txscript.GetScriptClass(script) {
	case txscript.PubKeyHashTy, txscript.ScriptHashTy:
		return true
	}
	return false
}
