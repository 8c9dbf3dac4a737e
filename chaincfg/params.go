// Copyright (c) 2026 The Mynta developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// LLMQType identifies one of the long-living masternode quorum layouts.
type LLMQType uint8

// The defined quorum layouts.  The tag names follow the size/threshold
// convention, e.g. 50/60 is a 50 member quorum requiring 60% of the valid
// members to produce a threshold signature.
const (
	LLMQTypeNone   LLMQType = 0
	LLMQType50_60  LLMQType = 1
	LLMQType400_60 LLMQType = 2
	LLMQType400_85 LLMQType = 3
	LLMQType100_67 LLMQType = 4
)

// String returns the LLMQType as a human-readable name.
func (t LLMQType) String() string {
	switch t {
	case LLMQType50_60:
		return "llmq_50_60"
	case LLMQType400_60:
		return "llmq_400_60"
	case LLMQType400_85:
		return "llmq_400_85"
	case LLMQType100_67:
		return "llmq_100_67"
	}
	return "llmq_unknown"
}

// LLMQParams describes the layout of one quorum type: how many members it
// has, how many of them must be valid for the quorum itself to be usable,
// what share of the valid members is needed to recover a signature, and how
// often (in blocks) a new quorum of this type forms.
type LLMQParams struct {
	Type LLMQType

	// Name is the human readable name used in logs and errors.
	Name string

	// Size is the number of members selected into the quorum.
	Size int

	// MinSize is the number of valid members required for the quorum to
	// be considered usable at all.
	MinSize int

	// ThresholdPercent is the percentage of valid members whose shares
	// are required to recover a threshold signature.
	ThresholdPercent int

	// Interval is the number of blocks between two formations of this
	// quorum type.  A quorum forms at every height h with h % Interval == 0.
	Interval int32

	// DKGPhaseBlocks is the per-phase length of the distributed key
	// generation that accompanies formation.
	DKGPhaseBlocks int32

	// ActiveCount is the number of most recently formed quorums that are
	// kept in the active signing set.
	ActiveCount int
}

// Threshold returns the number of signature shares required to recover a
// threshold signature given the number of valid members.
func (p *LLMQParams) Threshold(validMembers int) int {
	t := (validMembers*p.ThresholdPercent + 99) / 100
	if t < 1 {
		t = 1
	}
	return t
}

// Params defines a Mynta network by its parameters.  These parameters may be
// used by Mynta applications to differentiate networks as well as addresses
// and keys for one network from those intended for use on another network.
type Params struct {
	// Name defines a human-readable identifier for the network.
	Name string

	// Net defines the magic bytes used to identify the network.
	Net uint32

	// DefaultPort defines the default peer-to-peer port for the network.
	DefaultPort string

	// GenesisHash is the starting block hash.
	GenesisHash chainhash.Hash

	// NativeAssetName is the symbol substituted for the empty asset name
	// when building trading pair keys on the swap order book.
	NativeAssetName string

	// MasternodeCollateral is the exact output value, in the base unit,
	// that a provider registration must reference as collateral.
	MasternodeCollateral int64

	// MinProviderTxVersion is the lowest transaction version that may
	// carry a provider payload.
	MinProviderTxVersion uint16

	// ChainLockActivationHeight disables ChainLock signing and
	// enforcement below this height.
	ChainLockActivationHeight int32

	// InstantSendPendingTimeout is how long an unanswered InstantSend
	// signing attempt is retained before being dropped.
	InstantSendPendingTimeout time.Duration

	// LLMQs holds the quorum layouts available on this network, and
	// the designated types for the two lock subsystems.
	LLMQs               map[LLMQType]*LLMQParams
	LLMQTypeInstantSend LLMQType
	LLMQTypeChainLocks  LLMQType
}

// LLMQParams returns the layout for the given quorum type or nil when the
// network does not define it.
func (p *Params) LLMQParams(t LLMQType) *LLMQParams {
	return p.LLMQs[t]
}

var llmq50_60 = LLMQParams{
	Type:             LLMQType50_60,
	Name:             "llmq_50_60",
	Size:             50,
	MinSize:          40,
	ThresholdPercent: 60,
	Interval:         24,
	DKGPhaseBlocks:   2,
	ActiveCount:      24,
}

var llmq400_60 = LLMQParams{
	Type:             LLMQType400_60,
	Name:             "llmq_400_60",
	Size:             400,
	MinSize:          300,
	ThresholdPercent: 60,
	Interval:         288,
	DKGPhaseBlocks:   4,
	ActiveCount:      4,
}

var llmq400_85 = LLMQParams{
	Type:             LLMQType400_85,
	Name:             "llmq_400_85",
	Size:             400,
	MinSize:          350,
	ThresholdPercent: 85,
	Interval:         576,
	DKGPhaseBlocks:   4,
	ActiveCount:      4,
}

var llmq100_67 = LLMQParams{
	Type:             LLMQType100_67,
	Name:             "llmq_100_67",
	Size:             100,
	MinSize:          80,
	ThresholdPercent: 67,
	Interval:         24,
	DKGPhaseBlocks:   2,
	ActiveCount:      24,
}

// MainNetParams defines the network parameters for the main Mynta network.
var MainNetParams = Params{
	Name:        "mainnet",
	Net:         0xd4b1c5f2,
	DefaultPort: "9999",

	NativeAssetName:      "NATIVE",
	MasternodeCollateral: 1000 * 1e8,
	MinProviderTxVersion: 3,

	ChainLockActivationHeight: 1000,
	InstantSendPendingTimeout: 60 * time.Second,

	LLMQs: map[LLMQType]*LLMQParams{
		LLMQType50_60:  &llmq50_60,
		LLMQType400_60: &llmq400_60,
		LLMQType400_85: &llmq400_85,
		LLMQType100_67: &llmq100_67,
	},
	LLMQTypeInstantSend: LLMQType50_60,
	LLMQTypeChainLocks:  LLMQType400_60,
}

// RegressionNetParams defines the network parameters for the regression test
// network.  The quorum layouts are shrunk so that a handful of nodes can form
// usable quorums.
var RegressionNetParams = Params{
	Name:        "regtest",
	Net:         0xfabfb5da,
	DefaultPort: "19899",

	NativeAssetName:      "NATIVE",
	MasternodeCollateral: 1000 * 1e8,
	MinProviderTxVersion: 3,

	ChainLockActivationHeight: 10,
	InstantSendPendingTimeout: 60 * time.Second,

	LLMQs: map[LLMQType]*LLMQParams{
		LLMQType50_60: {
			Type:             LLMQType50_60,
			Name:             "llmq_test",
			Size:             3,
			MinSize:          2,
			ThresholdPercent: 60,
			Interval:         24,
			DKGPhaseBlocks:   2,
			ActiveCount:      2,
		},
	},
	LLMQTypeInstantSend: LLMQType50_60,
	LLMQTypeChainLocks:  LLMQType50_60,
}
