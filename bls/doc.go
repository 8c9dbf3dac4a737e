// Copyright (c) 2026 The Mynta developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package bls implements the BLS12-381 signature primitives used by the
// masternode and quorum subsystems: key generation, signing, verification,
// aggregation and threshold signature recovery.
//
// Public keys live in G1 (48 byte compressed encoding), signatures in G2
// (96 byte compressed encoding).  All hash-to-curve operations use the
// ciphersuite domain separation tag
// BLS_SIG_BLS12381G2_XMD:SHA-256_SSWU_RO_NUL_; callers keep distinct
// signature uses from overlapping by prefixing their message bytes with a
// use-specific label before signing.
package bls
