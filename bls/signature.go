// Copyright (c) 2026 The Mynta developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package bls

import (
	"encoding/hex"
	"errors"
	"fmt"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
)

// SignatureSize is the size of a compressed G2 signature in bytes.
const SignatureSize = bls12381.SizeOfG2AffineCompressed

// ErrInvalidSignature describes signature bytes that do not decode to a
// valid G2 group element.
var ErrInvalidSignature = errors.New("invalid signature")

// Signature is a BLS12-381 signature, a point in G2.
type Signature struct {
	p bls12381.G2Affine
}

// ParseSignature deserializes a compressed G2 signature and validates that
// the point is on the curve and in the prime-order subgroup.
func ParseSignature(b []byte) (*Signature, error) {
	if len(b) != SignatureSize {
		return nil, fmt.Errorf("malformed signature: invalid length %d", len(b))
	}
	sig := new(Signature)
	if _, err := sig.p.SetBytes(b); err != nil {
		return nil, ErrInvalidSignature
	}
	return sig, nil
}

// Serialize returns the 96 byte compressed encoding of the signature.
func (sig *Signature) Serialize() []byte {
	b := sig.p.Bytes()
	return b[:]
}

// IsEqual returns whether the passed signature is the same group element.
func (sig *Signature) IsEqual(other *Signature) bool {
	if other == nil {
		return false
	}
	return sig.p.Equal(&other.p)
}

// String returns the signature as a hex string.
func (sig *Signature) String() string {
	return hex.EncodeToString(sig.Serialize())
}

// VerifyInsecure checks that the signature is valid for the given public
// key and message via the pairing equation e(pk, H(msg)) == e(g1, sig).
// "Insecure" refers to the absence of rogue-key protection; callers must
// pair it with proof-of-possession checked keys when the public key is an
// aggregate.
func (sig *Signature) VerifyInsecure(pk *PublicKey, msg []byte) bool {
	if pk == nil || !pk.IsValid() {
		return false
	}
	hm, err := bls12381.HashToG2(msg, []byte(dst))
	if err != nil {
		return false
	}
	ok, err := bls12381.PairingCheck(
		[]bls12381.G1Affine{pk.p, g1GenNeg},
		[]bls12381.G2Affine{hm, sig.p},
	)
	return err == nil && ok
}

// VerifySameMessage checks the signature as an aggregate signature over the
// same message by every one of the passed public keys.
func (sig *Signature) VerifySameMessage(keys []*PublicKey, msg []byte) bool {
	agg, err := AggregatePublicKeys(keys)
	if err != nil {
		return false
	}
	return sig.VerifyInsecure(agg, msg)
}

// VerifyAggregate checks the signature as an aggregate of one signature per
// (public key, message) pair, using a single multi-pairing.
func (sig *Signature) VerifyAggregate(keys []*PublicKey, msgs [][]byte) bool {
	if len(keys) == 0 || len(keys) != len(msgs) {
		return false
	}
	p := make([]bls12381.G1Affine, 0, len(keys)+1)
	q := make([]bls12381.G2Affine, 0, len(keys)+1)
	for i, k := range keys {
		if k == nil || !k.IsValid() {
			return false
		}
		hm, err := bls12381.HashToG2(msgs[i], []byte(dst))
		if err != nil {
			return false
		}
		p = append(p, k.p)
		q = append(q, hm)
	}
	p = append(p, g1GenNeg)
	q = append(q, sig.p)
	ok, err := bls12381.PairingCheck(p, q)
	return err == nil && ok
}

// AggregateSignatures adds the passed signatures together in G2 and returns
// the aggregate.  At least one signature is required.
func AggregateSignatures(sigs []*Signature) (*Signature, error) {
	if len(sigs) == 0 {
		return nil, errors.New("no signatures to aggregate")
	}
	var acc bls12381.G2Jac
	acc.FromAffine(&sigs[0].p)
	for _, s := range sigs[1:] {
		var j bls12381.G2Jac
		j.FromAffine(&s.p)
		acc.AddAssign(&j)
	}
	agg := new(Signature)
	agg.p.FromJacobian(&acc)
	return agg, nil
}
