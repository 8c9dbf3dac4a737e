// Copyright (c) 2026 The Mynta developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package evodb provides the persistent state database shared by the
// masternode list, chainlock and order book managers.  All state in it is
// reconstructable from the chain; the database only spares the replay.
package evodb
