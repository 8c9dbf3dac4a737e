// Copyright (c) 2026 The Mynta developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chaincfg defines chain configuration parameters for the Mynta
// networks, including the long-living masternode quorum layouts consumed by
// the llmq package.
package chaincfg
