// Copyright (c) 2026 The Mynta developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package llmq implements the long-living masternode quorums and the two
// lock subsystems built on them.
//
// The quorum manager deterministically selects signing committees from the
// masternode list at each quorum-forming height.  The signing manager
// collects partial BLS signature shares per signing session and recovers
// threshold signatures.  The InstantSend manager locks transaction inputs
// against double spends, and the chainlock manager locks block hashes at
// heights and drives the fork-choice refusal of deep reorganizations.
package llmq
