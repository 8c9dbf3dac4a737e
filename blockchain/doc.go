// Copyright (c) 2026 The Mynta developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package blockchain provides the slice of the block index the masternode
// and quorum subsystems consume: ancestor lookup, fork point computation and
// accumulated work comparison.  Full block validation, the UTXO set and the
// mempool live in the base layer and are deliberately not part of this
// package.
package blockchain
