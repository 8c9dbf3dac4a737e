// Copyright (c) 2026 The Mynta developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package dex

import (
	"bytes"
	"crypto/sha256"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/Slashx124/mynta-core/chaincfg"
	"github.com/Slashx124/mynta-core/evodb"
)

func newTestBook(t *testing.T, db *evodb.DB) *OrderBook {
	t.Helper()
	ob, err := NewOrderBook(&OrderBookConfig{
		ChainParams: &chaincfg.MainNetParams,
		DB:          db,
	})
	require.NoError(t, err)
	return ob
}

// makeOffer builds a valid offer; tag diversifies the hash lock.
func makeOffer(tag string, makerAsset string, makerAmount btcutil.Amount,
	takerAsset string, takerAmount btcutil.Amount,
	created int32, timeout uint32) *AtomicSwapOffer {

	o := &AtomicSwapOffer{
		MakerAssetName: makerAsset,
		MakerAmount:    makerAmount,
		MakerScript:    []byte{0x51},
		TakerAssetName: takerAsset,
		TakerAmount:    takerAmount,
		HashLock:       sha256.Sum256([]byte(tag)),
		TimeoutBlocks:  timeout,
		CreatedHeight:  created,
		IsActive:       true,
	}
	o.OfferHash = CalcOfferHash(makerAsset, makerAmount, takerAsset,
		takerAmount, o.HashLock, created)
	return o
}

func TestGetTradingPairKey(t *testing.T) {
	require.Equal(t, "GOLD:SILVER", GetTradingPairKey("GOLD", "SILVER", "NATIVE"))
	require.Equal(t, "GOLD:SILVER", GetTradingPairKey("SILVER", "GOLD", "NATIVE"))
	require.Equal(t, "GOLD:NATIVE", GetTradingPairKey("", "GOLD", "NATIVE"))
	require.Equal(t, "GOLD:NATIVE", GetTradingPairKey("GOLD", "", "NATIVE"))
	require.Equal(t, "NATIVE:NATIVE", GetTradingPairKey("", "", "NATIVE"))
}

func TestCheckOffer(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AtomicSwapOffer)
		code   ErrorCode
	}{
		{"zero maker amount", func(o *AtomicSwapOffer) { o.MakerAmount = 0 }, ErrBadOfferAmount},
		{"negative taker amount", func(o *AtomicSwapOffer) { o.TakerAmount = -1 }, ErrBadOfferAmount},
		{"timeout too short", func(o *AtomicSwapOffer) { o.TimeoutBlocks = 9 }, ErrBadOfferTimeout},
		{"timeout too long", func(o *AtomicSwapOffer) { o.TimeoutBlocks = 5041 }, ErrBadOfferTimeout},
		{"no maker script", func(o *AtomicSwapOffer) { o.MakerScript = nil }, ErrBadOfferScript},
	}
	for _, test := range tests {
		o := makeOffer(test.name, "GOLD", 100, "SILVER", 200, 1000, 100)
		test.mutate(o)
		err := CheckOffer(o)
		var rerr RuleError
		require.ErrorAs(t, err, &rerr, test.name)
		require.Equal(t, test.code, rerr.ErrorCode, test.name)
	}

	require.NoError(t, CheckOffer(makeOffer("ok", "GOLD", 100, "SILVER", 200, 1000, 100)))
	// The timeout bounds themselves are permitted.
	require.NoError(t, CheckOffer(makeOffer("lo", "GOLD", 100, "SILVER", 200, 1000, 10)))
	require.NoError(t, CheckOffer(makeOffer("hi", "GOLD", 100, "SILVER", 200, 1000, 5040)))
}

func TestOfferExpiryBoundary(t *testing.T) {
	o := makeOffer("boundary", "GOLD", 100, "SILVER", 200, 1000, 100)
	require.False(t, o.IsExpired(1099))
	require.True(t, o.IsExpired(1100))
}

func TestAddRemoveRestoresState(t *testing.T) {
	ob := newTestBook(t, nil)
	o := makeOffer("addremove", "GOLD", 100, "SILVER", 200, 1000, 100)

	require.NoError(t, ob.AddOffer(o))
	require.Equal(t, 1, ob.OfferCount())
	require.NotNil(t, ob.GetOffer(&o.OfferHash))
	require.Len(t, ob.GetOffersForPair("GOLD", "SILVER"), 1)

	require.True(t, ob.RemoveOffer(&o.OfferHash))
	require.Equal(t, 0, ob.OfferCount())
	require.Nil(t, ob.GetOffer(&o.OfferHash))
	require.Empty(t, ob.GetOffersForPair("GOLD", "SILVER"))
	require.False(t, ob.RemoveOffer(&o.OfferHash))

	// Duplicate insertion is refused.
	require.NoError(t, ob.AddOffer(o))
	err := ob.AddOffer(o)
	var rerr RuleError
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, ErrDuplicateOffer, rerr.ErrorCode)
}

func TestPairBucketSharedBothDirections(t *testing.T) {
	ob := newTestBook(t, nil)

	// GOLD->SILVER and SILVER->GOLD offers land in one bucket.
	require.NoError(t, ob.AddOffer(makeOffer("d1", "GOLD", 100, "SILVER", 200, 1000, 100)))
	require.NoError(t, ob.AddOffer(makeOffer("d2", "SILVER", 300, "GOLD", 100, 1000, 100)))

	require.Len(t, ob.GetOffersForPair("GOLD", "SILVER"), 2)
	require.Len(t, ob.GetOffersForPair("SILVER", "GOLD"), 2)
}

func TestFindBestOffer(t *testing.T) {
	ob := newTestBook(t, nil)

	// Three makers selling GOLD for SILVER at rates 2.0, 1.5, 3.0.
	cheap := makeOffer("cheap", "GOLD", 100, "SILVER", 150, 1000, 100)
	mid := makeOffer("mid", "GOLD", 100, "SILVER", 200, 1000, 100)
	dear := makeOffer("dear", "GOLD", 100, "SILVER", 300, 1000, 100)
	for _, o := range []*AtomicSwapOffer{mid, cheap, dear} {
		require.NoError(t, ob.AddOffer(o))
	}

	// Buying GOLD takes the cheapest maker.
	best := ob.FindBestOffer("GOLD", "SILVER")
	require.NotNil(t, best)
	require.Equal(t, cheap.OfferHash, best.OfferHash)

	// Buying SILVER with GOLD: no maker gives SILVER, so the fallback
	// matches the makers who want SILVER and picks the highest rate,
	// the maker asking the most SILVER per GOLD.
	best = ob.FindBestOffer("SILVER", "GOLD")
	require.NotNil(t, best)
	require.Equal(t, dear.OfferHash, best.OfferHash)

	require.Nil(t, ob.FindBestOffer("GOLD", "COPPER"))
}

func TestExpiryCleanup(t *testing.T) {
	ob := newTestBook(t, nil)

	offerA := makeOffer("expA", "GOLD", 100, "SILVER", 200, 1000, 100)
	offerB := makeOffer("expB", "GOLD", 100, "SILVER", 200, 1000, 500)
	require.NoError(t, ob.AddOffer(offerA))
	require.NoError(t, ob.AddOffer(offerB))

	require.Equal(t, 0, ob.ExpireOffers(1050))
	require.Equal(t, 2, ob.OfferCount())

	require.Equal(t, 1, ob.ExpireOffers(1150))
	require.Nil(t, ob.GetOffer(&offerA.OfferHash))
	require.NotNil(t, ob.GetOffer(&offerB.OfferHash))

	require.Equal(t, 1, ob.ExpireOffers(1600))
	require.Equal(t, 0, ob.OfferCount())
}

func TestFundingFillAndDisconnect(t *testing.T) {
	ob := newTestBook(t, nil)
	o := makeOffer("fill", "GOLD", 100, "SILVER", 200, 1000, 1000)
	require.NoError(t, ob.AddOffer(o))

	funding := wire.OutPoint{Hash: chainhash.HashH([]byte("funding-tx")), Index: 1}
	require.NoError(t, ob.RegisterFunding(&o.OfferHash, funding))

	// Unknown offers cannot register funding.
	var unknown chainhash.Hash
	unknown[0] = 0x01
	err := ob.RegisterFunding(&unknown, funding)
	var rerr RuleError
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, ErrUnknownOffer, rerr.ErrorCode)

	// A block spending the funding outpoint fills the offer.
	spend := wire.NewMsgTx(2)
	spend.AddTxIn(&wire.TxIn{PreviousOutPoint: funding})
	ob.ConnectBlock(1010, []*wire.MsgTx{spend})

	got := ob.GetOffer(&o.OfferHash)
	require.True(t, got.IsFilled)
	require.False(t, got.IsActive)
	require.Equal(t, spend.TxHash(), got.FillTxHash)
	require.Equal(t, int32(1010), got.FillHeight)
	require.Empty(t, ob.GetOffersForPair("GOLD", "SILVER"))

	// Disconnecting the filling block restores the offer exactly.
	ob.DisconnectBlock(1010)
	got = ob.GetOffer(&o.OfferHash)
	require.False(t, got.IsFilled)
	require.True(t, got.IsActive)
	require.Equal(t, chainhash.Hash{}, got.FillTxHash)
	require.Len(t, ob.GetOffersForPair("GOLD", "SILVER"), 1)
}

func TestOfferSerializeRoundTrip(t *testing.T) {
	o := makeOffer("serialize", "GOLD", 12345, "", 67890, 4000, 250)
	o.IsFilled = true
	o.IsActive = false
	o.FillTxHash = chainhash.HashH([]byte("filler"))
	o.FillHeight = 4100

	var buf bytes.Buffer
	require.NoError(t, o.Serialize(&buf))
	got, err := DeserializeOffer(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, o, got)
}

func TestOrderBookPersistence(t *testing.T) {
	db, err := evodb.Open(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	ob := newTestBook(t, db)
	o := makeOffer("persist", "GOLD", 100, "SILVER", 200, 1000, 100)
	require.NoError(t, ob.AddOffer(o))
	funding := wire.OutPoint{Hash: chainhash.HashH([]byte("persist-funding"))}
	require.NoError(t, ob.RegisterFunding(&o.OfferHash, funding))
	ob.ConnectBlock(1005, nil)
	ob.Flush()

	// A fresh book over the same database restores offers, funding and
	// height.
	restored := newTestBook(t, db)
	require.Equal(t, 1, restored.OfferCount())
	require.NotNil(t, restored.GetOffer(&o.OfferHash))
	require.Len(t, restored.GetOffersForPair("GOLD", "SILVER"), 1)
	require.Equal(t, int32(1005), restored.Height())

	// The restored funding binding still detects the fill.
	spend := wire.NewMsgTx(2)
	spend.AddTxIn(&wire.TxIn{PreviousOutPoint: funding})
	restored.ConnectBlock(1006, []*wire.MsgTx{spend})
	require.True(t, restored.GetOffer(&o.OfferHash).IsFilled)
}
