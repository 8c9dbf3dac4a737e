// Copyright (c) 2026 The Mynta developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package bls

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
)

// PublicKeySize is the size of a compressed G1 public key in bytes.
const PublicKeySize = bls12381.SizeOfG1AffineCompressed

// Curve generators, fixed at package init.
var (
	g1Gen bls12381.G1Affine
	g2Gen bls12381.G2Affine

	// g1GenNeg is the negated G1 generator used on the right side of the
	// pairing checks.
	g1GenNeg bls12381.G1Affine
)

func init() {
	_, _, g1Gen, g2Gen = bls12381.Generators()
	g1GenNeg.Neg(&g1Gen)
}

// ErrInvalidPublicKey describes public key bytes that do not decode to a
// valid G1 group element.
var ErrInvalidPublicKey = errors.New("invalid public key")

// PublicKey is a BLS12-381 public key, a point in G1.
type PublicKey struct {
	p bls12381.G1Affine
}

// ParsePublicKey deserializes a compressed G1 public key and validates that
// the point is on the curve and in the prime-order subgroup.
func ParsePublicKey(b []byte) (*PublicKey, error) {
	if len(b) != PublicKeySize {
		return nil, fmt.Errorf("malformed public key: invalid length %d", len(b))
	}
	pk := new(PublicKey)
	if _, err := pk.p.SetBytes(b); err != nil {
		return nil, ErrInvalidPublicKey
	}
	return pk, nil
}

// Serialize returns the 48 byte compressed encoding of the public key.
func (pk *PublicKey) Serialize() []byte {
	b := pk.p.Bytes()
	return b[:]
}

// IsValid returns whether the public key is usable for verification, i.e.
// it is not the point at infinity.
func (pk *PublicKey) IsValid() bool {
	return !pk.p.IsInfinity()
}

// IsEqual returns whether the passed public key is the same group element.
func (pk *PublicKey) IsEqual(other *PublicKey) bool {
	if other == nil {
		return false
	}
	return pk.p.Equal(&other.p)
}

// String returns the public key as a hex string.
func (pk *PublicKey) String() string {
	return hex.EncodeToString(pk.Serialize())
}

// AggregatePublicKeys adds the passed public keys together in G1 and
// returns the aggregate.  At least one key is required.
func AggregatePublicKeys(keys []*PublicKey) (*PublicKey, error) {
	if len(keys) == 0 {
		return nil, errors.New("no public keys to aggregate")
	}
	var acc bls12381.G1Jac
	acc.FromAffine(&keys[0].p)
	for _, k := range keys[1:] {
		var j bls12381.G1Jac
		j.FromAffine(&k.p)
		acc.AddAssign(&j)
	}
	agg := new(PublicKey)
	agg.p.FromJacobian(&acc)
	return agg, nil
}

// VerifyProofOfPossession checks the self-signature over the public key's
// own bytes produced by SignProofOfPossession.
func VerifyProofOfPossession(pk *PublicKey, sig *Signature) bool {
	var msg bytes.Buffer
	msg.WriteString(popLabel)
	msg.Write(pk.Serialize())
	return sig.VerifyInsecure(pk, msg.Bytes())
}
