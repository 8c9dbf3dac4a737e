// Copyright (c) 2026 The Mynta developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package bls

import (
	"errors"
	"math/big"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

var (
	// ErrThresholdNotMet describes a recovery attempt with fewer shares
	// than the required threshold.
	ErrThresholdNotMet = errors.New("not enough signature shares for threshold")

	// ErrDuplicateShareID describes two shares claiming the same member
	// id.
	ErrDuplicateShareID = errors.New("duplicate share id")

	// ErrInvalidShareID describes a share id that reduces to the zero
	// field element and therefore cannot act as an interpolation point.
	ErrInvalidShareID = errors.New("share id reduces to zero")
)

// shareIDs converts the 32 byte member ids to field elements and rejects
// zero or duplicate points.
func shareIDs(ids [][]byte) ([]fr.Element, error) {
	xs := make([]fr.Element, len(ids))
	for i, id := range ids {
		xs[i].SetBytes(id)
		if xs[i].IsZero() {
			return nil, ErrInvalidShareID
		}
		for j := 0; j < i; j++ {
			if xs[i].Equal(&xs[j]) {
				return nil, ErrDuplicateShareID
			}
		}
	}
	return xs, nil
}

// lagrangeCoefficients evaluates the Lagrange basis polynomials at zero for
// the given interpolation points, in the BLS scalar field.
func lagrangeCoefficients(xs []fr.Element) ([]fr.Element, error) {
	coeffs := make([]fr.Element, len(xs))
	for i := range xs {
		var num, den fr.Element
		num.SetOne()
		den.SetOne()
		for j := range xs {
			if j == i {
				continue
			}
			// num *= x_j ; den *= (x_j - x_i)
			num.Mul(&num, &xs[j])
			var diff fr.Element
			diff.Sub(&xs[j], &xs[i])
			den.Mul(&den, &diff)
		}
		if den.IsZero() {
			return nil, ErrDuplicateShareID
		}
		den.Inverse(&den)
		coeffs[i].Mul(&num, &den)
	}
	return coeffs, nil
}

// RecoverThresholdSignature recovers the quorum threshold signature from
// signature shares by Lagrange interpolation at zero over the BLS scalar
// field.  Each share must come from a distinct member; ids[i] is the 32
// byte id of the member that produced shares[i].  At least threshold shares
// are required and exactly the first threshold of them are used, so the
// result is deterministic for a given ordering of the inputs.
func RecoverThresholdSignature(shares []*Signature, ids [][]byte, threshold int) (*Signature, error) {
	if threshold < 1 {
		return nil, errors.New("threshold must be positive")
	}
	if len(shares) < threshold || len(ids) < threshold {
		return nil, ErrThresholdNotMet
	}
	if len(shares) != len(ids) {
		return nil, errors.New("share/id count mismatch")
	}
	shares = shares[:threshold]
	xs, err := shareIDs(ids[:threshold])
	if err != nil {
		return nil, err
	}
	coeffs, err := lagrangeCoefficients(xs)
	if err != nil {
		return nil, err
	}

	var acc bls12381.G2Jac
	for i, share := range shares {
		var k big.Int
		coeffs[i].BigInt(&k)
		var term bls12381.G2Affine
		term.ScalarMultiplication(&share.p, &k)
		var j bls12381.G2Jac
		j.FromAffine(&term)
		acc.AddAssign(&j)
	}
	sig := new(Signature)
	sig.p.FromJacobian(&acc)
	log.Tracef("Recovered threshold signature from %d shares", threshold)
	return sig, nil
}

// RecoverThresholdPublicKey recovers the quorum public key from member
// public key shares, symmetric to RecoverThresholdSignature but in G1.
func RecoverThresholdPublicKey(keys []*PublicKey, ids [][]byte, threshold int) (*PublicKey, error) {
	if threshold < 1 {
		return nil, errors.New("threshold must be positive")
	}
	if len(keys) < threshold || len(ids) < threshold {
		return nil, ErrThresholdNotMet
	}
	if len(keys) != len(ids) {
		return nil, errors.New("key/id count mismatch")
	}
	keys = keys[:threshold]
	xs, err := shareIDs(ids[:threshold])
	if err != nil {
		return nil, err
	}
	coeffs, err := lagrangeCoefficients(xs)
	if err != nil {
		return nil, err
	}

	var acc bls12381.G1Jac
	for i, key := range keys {
		var k big.Int
		coeffs[i].BigInt(&k)
		var term bls12381.G1Affine
		term.ScalarMultiplication(&key.p, &k)
		var j bls12381.G1Jac
		j.FromAffine(&term)
		acc.AddAssign(&j)
	}
	pk := new(PublicKey)
	pk.p.FromJacobian(&acc)
	return pk, nil
}

// AggregateSecretKeys adds the passed secret scalars mod r.  Together with
// SecretKeyShare it lets a dealer share a quorum secret whose public key is
// the aggregate of the member operator keys.
func AggregateSecretKeys(keys []*SecretKey) (*SecretKey, error) {
	if len(keys) == 0 {
		return nil, errors.New("no secret keys to aggregate")
	}
	agg := new(SecretKey)
	for _, k := range keys {
		agg.fe.Add(&agg.fe, &k.fe)
	}
	return agg, nil
}

// SecretKeyShare deterministically derives the share secret for one member
// from a polynomial of secret coefficients, evaluating it at the member's
// id.  It is the local counterpart of a dealt verifiable secret sharing:
// coefficient zero is the quorum secret and len(coeffs)-1 is the recovery
// threshold minus one.
func SecretKeyShare(coeffs []*SecretKey, id []byte) (*SecretKey, error) {
	if len(coeffs) == 0 {
		return nil, errors.New("no polynomial coefficients")
	}
	var x fr.Element
	x.SetBytes(id)
	if x.IsZero() {
		return nil, ErrInvalidShareID
	}

	// Horner evaluation from the highest coefficient down.
	var acc fr.Element
	acc.Set(&coeffs[len(coeffs)-1].fe)
	for i := len(coeffs) - 2; i >= 0; i-- {
		acc.Mul(&acc, &x)
		acc.Add(&acc, &coeffs[i].fe)
	}
	share := new(SecretKey)
	share.fe.Set(&acc)
	acc.SetZero()
	return share, nil
}
