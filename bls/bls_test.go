// Copyright (c) 2026 The Mynta developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package bls

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func testSeed(b byte) [SecretKeySize]byte {
	var seed [SecretKeySize]byte
	for i := range seed {
		seed[i] = b
	}
	return seed
}

func TestSignVerify(t *testing.T) {
	sk, err := GenerateSecretKey()
	require.NoError(t, err)
	defer sk.Zero()

	msg := []byte("the quick brown fox jumps over the lazy dog")
	sig, err := sk.Sign(msg)
	require.NoError(t, err)

	pk := sk.PublicKey()
	require.True(t, sig.VerifyInsecure(pk, msg))
	require.False(t, sig.VerifyInsecure(pk, []byte("a different message")))

	other, err := GenerateSecretKey()
	require.NoError(t, err)
	defer other.Zero()
	require.False(t, sig.VerifyInsecure(other.PublicKey(), msg))
}

func TestFromSeedDeterminism(t *testing.T) {
	sk1, err := SecretKeyFromSeed(testSeed(0x42))
	require.NoError(t, err)
	sk2, err := SecretKeyFromSeed(testSeed(0x42))
	require.NoError(t, err)
	sk3, err := SecretKeyFromSeed(testSeed(0x43))
	require.NoError(t, err)

	require.Equal(t, sk1.Serialize(), sk2.Serialize())
	require.NotEqual(t, sk1.Serialize(), sk3.Serialize())
	require.Equal(t, sk1.PublicKey().Serialize(), sk2.PublicKey().Serialize())
}

func TestSecretKeyRoundTrip(t *testing.T) {
	sk, err := SecretKeyFromSeed(testSeed(0x07))
	require.NoError(t, err)

	parsed, err := ParseSecretKey(sk.Serialize())
	require.NoError(t, err)
	require.Equal(t, sk.Serialize(), parsed.Serialize())

	_, err = ParseSecretKey(make([]byte, SecretKeySize))
	require.Error(t, err)
	_, err = ParseSecretKey([]byte{0x01})
	require.Error(t, err)
}

func TestZeroScrubsKey(t *testing.T) {
	sk, err := SecretKeyFromSeed(testSeed(0x11))
	require.NoError(t, err)
	require.False(t, sk.IsZero())
	sk.Zero()
	require.True(t, sk.IsZero())
	require.True(t, bytes.Equal(sk.Serialize(), make([]byte, SecretKeySize)))
}

func TestPublicKeyRoundTrip(t *testing.T) {
	sk, err := SecretKeyFromSeed(testSeed(0x21))
	require.NoError(t, err)
	pk := sk.PublicKey()

	ser := pk.Serialize()
	require.Len(t, ser, PublicKeySize)
	parsed, err := ParsePublicKey(ser)
	require.NoError(t, err)
	require.True(t, pk.IsEqual(parsed))
}

// A compressed point must carry the compression flag; clearing it has to
// fail deserialization.
func TestPublicKeyCompressionFlag(t *testing.T) {
	sk, err := SecretKeyFromSeed(testSeed(0x33))
	require.NoError(t, err)

	ser := sk.PublicKey().Serialize()
	ser[0] &^= 0x80
	_, err = ParsePublicKey(ser)
	require.Error(t, err)
}

func TestSignatureParseRejectsGarbage(t *testing.T) {
	_, err := ParseSignature(make([]byte, SignatureSize))
	require.Error(t, err)
	_, err = ParseSignature([]byte{0x01, 0x02})
	require.Error(t, err)
}

func TestAggregateSameMessage(t *testing.T) {
	msg := []byte("aggregate me")
	var keys []*PublicKey
	var sigs []*Signature
	for i := byte(0); i < 5; i++ {
		sk, err := SecretKeyFromSeed(testSeed(0x50 + i))
		require.NoError(t, err)
		sig, err := sk.Sign(msg)
		require.NoError(t, err)
		keys = append(keys, sk.PublicKey())
		sigs = append(sigs, sig)
	}

	agg, err := AggregateSignatures(sigs)
	require.NoError(t, err)
	require.True(t, agg.VerifySameMessage(keys, msg))
	require.False(t, agg.VerifySameMessage(keys, []byte("not the message")))
	require.False(t, agg.VerifySameMessage(keys[:4], msg))
}

func TestVerifyAggregateDistinctMessages(t *testing.T) {
	var keys []*PublicKey
	var sigs []*Signature
	var msgs [][]byte
	for i := byte(0); i < 4; i++ {
		sk, err := SecretKeyFromSeed(testSeed(0x70 + i))
		require.NoError(t, err)
		msg := []byte{0xaa, i}
		sig, err := sk.Sign(msg)
		require.NoError(t, err)
		keys = append(keys, sk.PublicKey())
		sigs = append(sigs, sig)
		msgs = append(msgs, msg)
	}

	agg, err := AggregateSignatures(sigs)
	require.NoError(t, err)
	require.True(t, agg.VerifyAggregate(keys, msgs))

	swapped := [][]byte{msgs[1], msgs[0], msgs[2], msgs[3]}
	require.False(t, agg.VerifyAggregate(keys, swapped))
}

func TestProofOfPossession(t *testing.T) {
	sk, err := SecretKeyFromSeed(testSeed(0x0f))
	require.NoError(t, err)

	pop, err := sk.SignProofOfPossession()
	require.NoError(t, err)
	require.True(t, VerifyProofOfPossession(sk.PublicKey(), pop))

	other, err := SecretKeyFromSeed(testSeed(0x10))
	require.NoError(t, err)
	require.False(t, VerifyProofOfPossession(other.PublicKey(), pop))
}
