// Copyright (c) 2026 The Mynta developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package dex implements the on-chain atomic swap machinery: hash
// time-locked contract scripts with a claim and a refund path, and the
// order book of open swap offers indexed by trading pair.
//
// The package is independent of the quorum subsystems; it is driven by
// block connect/disconnect events and mempool submissions.
package dex
