// Copyright (c) 2026 The Mynta developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package mnlist maintains the deterministic masternode list: an immutable
// per-block snapshot of every registered provider, derived purely from the
// chain by applying the provider transactions of each connected block.
//
// Snapshots are shared-immutable.  Applying a block produces a new snapshot
// that shares unchanged entries with its predecessor; holders of an older
// snapshot never observe the newer block's changes.
package mnlist
