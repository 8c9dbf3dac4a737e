// Copyright (c) 2026 The Mynta developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package bls

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"math/big"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"golang.org/x/crypto/hkdf"
)

const (
	// SecretKeySize is the size of a serialized secret key in bytes.
	SecretKeySize = 32

	// dst is the hash-to-G2 ciphersuite domain separation tag.  Every
	// signature produced or verified by this package uses it.
	dst = "BLS_SIG_BLS12381G2_XMD:SHA-256_SSWU_RO_NUL_"

	// keygenSalt is the HKDF salt used when deriving a secret key from a
	// seed.
	keygenSalt = "MYNTA-BLS-KEYGEN-SALT"

	// popLabel is the message prefix that keeps proof-of-possession
	// signatures from overlapping with any other signature use.
	popLabel = "MYNTA_BLS_POP"
)

// ErrInvalidSecretKey describes a secret key whose scalar is zero or not
// below the group order.
var ErrInvalidSecretKey = errors.New("invalid secret key")

// SecretKey is a BLS12-381 secret key.  The scalar is kept in a fixed-size
// field element so that Zero can reliably scrub it; it is never copied into
// growable buffers.
type SecretKey struct {
	fe fr.Element
}

// GenerateSecretKey returns a new secret key generated from the system
// cryptographic random source.
func GenerateSecretKey() (*SecretKey, error) {
	var seed [SecretKeySize]byte
	if _, err := io.ReadFull(rand.Reader, seed[:]); err != nil {
		return nil, err
	}
	sk, err := SecretKeyFromSeed(seed)
	zeroBytes(seed[:])
	return sk, err
}

// SecretKeyFromSeed deterministically derives a secret key from a 32 byte
// seed.  The scalar is produced by HKDF-SHA256 expansion and reduced below
// the group order r; derivation iterates the expansion counter until the
// result is non-zero.
func SecretKeyFromSeed(seed [SecretKeySize]byte) (*SecretKey, error) {
	order := fr.Modulus()
	for counter := byte(0); counter < 255; counter++ {
		rd := hkdf.New(sha256.New, seed[:], []byte(keygenSalt), []byte{counter})
		var okm [48]byte
		if _, err := io.ReadFull(rd, okm[:]); err != nil {
			return nil, err
		}
		k := new(big.Int).SetBytes(okm[:])
		k.Mod(k, order)
		zeroBytes(okm[:])
		if k.Sign() == 0 {
			continue
		}
		sk := new(SecretKey)
		sk.fe.SetBigInt(k)
		k.SetInt64(0)
		return sk, nil
	}
	return nil, ErrInvalidSecretKey
}

// ParseSecretKey deserializes a secret key from its 32 byte big-endian
// encoding.  The scalar must be non-zero and below the group order.
func ParseSecretKey(b []byte) (*SecretKey, error) {
	if len(b) != SecretKeySize {
		return nil, fmt.Errorf("malformed secret key: invalid length %d", len(b))
	}
	k := new(big.Int).SetBytes(b)
	if k.Sign() == 0 || k.Cmp(fr.Modulus()) >= 0 {
		return nil, ErrInvalidSecretKey
	}
	sk := new(SecretKey)
	sk.fe.SetBigInt(k)
	k.SetInt64(0)
	return sk, nil
}

// Serialize returns the 32 byte big-endian encoding of the secret key.  The
// caller owns the returned slice and is responsible for scrubbing it.
func (sk *SecretKey) Serialize() []byte {
	b := sk.fe.Bytes()
	return b[:]
}

// PublicKey returns the G1 public key corresponding to the secret key.
func (sk *SecretKey) PublicKey() *PublicKey {
	var k big.Int
	sk.fe.BigInt(&k)
	var p bls12381.G1Affine
	p.ScalarMultiplication(&g1Gen, &k)
	k.SetInt64(0)
	return &PublicKey{p: p}
}

// Sign signs the message by hashing it to G2 and multiplying by the secret
// scalar.  The message is typically a 32 byte hash that already carries a
// use-specific label.
func (sk *SecretKey) Sign(msg []byte) (*Signature, error) {
	hm, err := bls12381.HashToG2(msg, []byte(dst))
	if err != nil {
		return nil, err
	}
	var k big.Int
	sk.fe.BigInt(&k)
	var sig bls12381.G2Affine
	sig.ScalarMultiplication(&hm, &k)
	k.SetInt64(0)
	return &Signature{p: sig}, nil
}

// SignProofOfPossession produces the self-signature over the key's own
// public key bytes that binds the operator key against rogue-key
// aggregation attacks.
func (sk *SecretKey) SignProofOfPossession() (*Signature, error) {
	pk := sk.PublicKey().Serialize()
	msg := make([]byte, 0, len(popLabel)+len(pk))
	msg = append(msg, popLabel...)
	msg = append(msg, pk...)
	return sk.Sign(msg)
}

// Zero scrubs the secret scalar.  The key must not be used afterwards.
func (sk *SecretKey) Zero() {
	sk.fe.SetZero()
}

// IsZero returns whether the secret scalar is zero, i.e. the key has been
// scrubbed or was never initialized.
func (sk *SecretKey) IsZero() bool {
	return sk.fe.IsZero()
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
