// Copyright (c) 2026 The Mynta developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package dex

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/google/btree"

	"github.com/Slashx124/mynta-core/chaincfg"
	"github.com/Slashx124/mynta-core/evodb"
)

// Offer timeout bounds in blocks.
const (
	MinOfferTimeout = 10
	MaxOfferTimeout = 5040
)

// AtomicSwapOffer is one open swap offer on the order book.
type AtomicSwapOffer struct {
	OfferHash chainhash.Hash

	// What the maker gives.  The empty asset name denotes the native
	// coin and is normalized in pair keys.
	MakerAssetName string
	MakerAmount    btcutil.Amount
	MakerScript    []byte

	// What the maker wants.
	TakerAssetName string
	TakerAmount    btcutil.Amount

	// HTLC parameters.
	HashLock      [HashLockSize]byte
	TimeoutBlocks uint32
	CreatedHeight int32

	// State.
	IsActive   bool
	IsFilled   bool
	FillTxHash chainhash.Hash

	// FillHeight records the block that filled the offer so that a
	// disconnect of that block can restore it exactly.
	FillHeight int32
}

// Rate returns the offer's exchange rate, taker units per maker unit.
func (o *AtomicSwapOffer) Rate() float64 {
	if o.MakerAmount == 0 {
		return 0
	}
	return float64(o.TakerAmount) / float64(o.MakerAmount)
}

// IsExpired returns whether the offer's refund window has opened at the
// given height.
func (o *AtomicSwapOffer) IsExpired(height int32) bool {
	return height >= o.CreatedHeight+int32(o.TimeoutBlocks)
}

// CalcOfferHash computes the deterministic identity of an offer from its
// economic terms, hash lock and creation height.
func CalcOfferHash(makerAsset string, makerAmount btcutil.Amount,
	takerAsset string, takerAmount btcutil.Amount,
	hashLock [HashLockSize]byte, createdHeight int32) chainhash.Hash {

	var buf bytes.Buffer
	_ = wire.WriteVarString(&buf, 0, makerAsset)
	_ = writeInt64(&buf, int64(makerAmount))
	_ = wire.WriteVarString(&buf, 0, takerAsset)
	_ = writeInt64(&buf, int64(takerAmount))
	buf.Write(hashLock[:])
	_ = writeInt32(&buf, createdHeight)
	return chainhash.DoubleHashH(buf.Bytes())
}

// GetTradingPairKey returns the canonical key of the unordered trading
// pair: the two asset names, empty normalized to the native symbol,
// sorted and joined with a colon.
func GetTradingPairKey(assetA, assetB, nativeSymbol string) string {
	a, b := assetA, assetB
	if a == "" {
		a = nativeSymbol
	}
	if b == "" {
		b = nativeSymbol
	}
	if a > b {
		a, b = b, a
	}
	return a + ":" + b
}

// offerItem orders offers within a pair bucket by ascending rate, with
// the offer hash as tiebreak.
type offerItem struct {
	rate  float64
	hash  chainhash.Hash
	offer *AtomicSwapOffer
}

// Less satisfies btree.Item.
func (a *offerItem) Less(than btree.Item) bool {
	b := than.(*offerItem)
	if a.rate != b.rate {
		return a.rate < b.rate
	}
	return bytes.Compare(a.hash[:], b.hash[:]) < 0
}

// OrderBookConfig is a descriptor containing the order book
// configuration.
type OrderBookConfig struct {
	// ChainParams supplies the native asset symbol.
	ChainParams *chaincfg.Params

	// DB persists offers and funding outpoints.  It may be nil for a
	// purely in-memory book.
	DB *evodb.DB
}

// OrderBook maintains the open atomic swap offers, their trading pair
// index and their funding outpoints.  All public methods are safe for
// concurrent access.
type OrderBook struct {
	mtx sync.Mutex

	cfg OrderBookConfig

	offers  map[chainhash.Hash]*AtomicSwapOffer
	pairs   map[string]*btree.BTree
	funding map[wire.OutPoint]chainhash.Hash
	height  int32
}

// NewOrderBook returns a new order book, loading persisted state when a
// database is configured.
func NewOrderBook(cfg *OrderBookConfig) (*OrderBook, error) {
	ob := &OrderBook{
		cfg:     *cfg,
		offers:  make(map[chainhash.Hash]*AtomicSwapOffer),
		pairs:   make(map[string]*btree.BTree),
		funding: make(map[wire.OutPoint]chainhash.Hash),
	}
	if cfg.DB != nil {
		if err := ob.load(); err != nil {
			return nil, err
		}
	}
	return ob, nil
}

// CheckOffer validates an offer's terms.
func CheckOffer(o *AtomicSwapOffer) error {
	if o.MakerAmount <= 0 {
		return ruleError(ErrBadOfferAmount, "maker amount must be positive")
	}
	if o.TakerAmount <= 0 {
		return ruleError(ErrBadOfferAmount, "taker amount must be positive")
	}
	if o.TimeoutBlocks < MinOfferTimeout || o.TimeoutBlocks > MaxOfferTimeout {
		return ruleError(ErrBadOfferTimeout,
			fmt.Sprintf("timeout %d outside [%d, %d] blocks",
				o.TimeoutBlocks, MinOfferTimeout, MaxOfferTimeout))
	}
	if len(o.MakerScript) == 0 {
		return ruleError(ErrBadOfferScript, "maker script is required")
	}
	return nil
}

// AddOffer validates and inserts an offer.
func (ob *OrderBook) AddOffer(o *AtomicSwapOffer) error {
	if err := CheckOffer(o); err != nil {
		return err
	}

	ob.mtx.Lock()
	defer ob.mtx.Unlock()

	if _, ok := ob.offers[o.OfferHash]; ok {
		return ruleError(ErrDuplicateOffer,
			fmt.Sprintf("offer %v already on the book", o.OfferHash))
	}
	ob.offers[o.OfferHash] = o
	if o.IsActive && !o.IsFilled {
		ob.pairIndexInsert(o)
	}
	ob.persistOffer(o)

	log.Debugf("Offer %v added: %d %s for %d %s", o.OfferHash,
		o.MakerAmount, ob.assetName(o.MakerAssetName),
		o.TakerAmount, ob.assetName(o.TakerAssetName))
	return nil
}

// RemoveOffer deletes an offer and its indexes.
func (ob *OrderBook) RemoveOffer(offerHash *chainhash.Hash) bool {
	ob.mtx.Lock()
	defer ob.mtx.Unlock()
	return ob.removeOffer(offerHash)
}

func (ob *OrderBook) removeOffer(offerHash *chainhash.Hash) bool {
	o, ok := ob.offers[*offerHash]
	if !ok {
		return false
	}
	delete(ob.offers, *offerHash)
	ob.pairIndexDelete(o)
	for op, h := range ob.funding {
		if h == *offerHash {
			delete(ob.funding, op)
		}
	}
	if ob.cfg.DB != nil {
		_ = ob.cfg.DB.Delete(evodb.NamespaceOrderBook, offerKey(offerHash))
		_ = ob.cfg.DB.Delete(evodb.NamespaceOrderBook, fundingKey(offerHash))
	}
	return true
}

// GetOffer returns the offer with the given hash, or nil.
func (ob *OrderBook) GetOffer(offerHash *chainhash.Hash) *AtomicSwapOffer {
	ob.mtx.Lock()
	defer ob.mtx.Unlock()
	return ob.offers[*offerHash]
}

// OfferCount returns the number of offers on the book.
func (ob *OrderBook) OfferCount() int {
	ob.mtx.Lock()
	defer ob.mtx.Unlock()
	return len(ob.offers)
}

// GetOffersForPair returns the active offers trading the unordered pair,
// ordered by ascending rate.
func (ob *OrderBook) GetOffersForPair(assetA, assetB string) []*AtomicSwapOffer {
	key := ob.pairKey(assetA, assetB)

	ob.mtx.Lock()
	defer ob.mtx.Unlock()

	bucket, ok := ob.pairs[key]
	if !ok {
		return nil
	}
	offers := make([]*AtomicSwapOffer, 0, bucket.Len())
	bucket.Ascend(func(it btree.Item) bool {
		offers = append(offers, it.(*offerItem).offer)
		return true
	})
	return offers
}

// FindBestOffer returns the best active offer for acquiring wantAsset
// with haveAsset: among makers offering wantAsset the minimum rate wins
// (cheapest buy); failing that, among makers wanting wantAsset the
// maximum rate wins (dearest sell).
func (ob *OrderBook) FindBestOffer(wantAsset, haveAsset string) *AtomicSwapOffer {
	key := ob.pairKey(wantAsset, haveAsset)
	wantNorm := ob.assetName(wantAsset)

	ob.mtx.Lock()
	defer ob.mtx.Unlock()

	bucket, ok := ob.pairs[key]
	if !ok {
		return nil
	}

	var best *AtomicSwapOffer
	bucket.Ascend(func(it btree.Item) bool {
		o := it.(*offerItem).offer
		if ob.assetName(o.MakerAssetName) == wantNorm {
			best = o
			return false
		}
		return true
	})
	if best != nil {
		return best
	}
	bucket.Descend(func(it btree.Item) bool {
		o := it.(*offerItem).offer
		if ob.assetName(o.TakerAssetName) == wantNorm {
			best = o
			return false
		}
		return true
	})
	return best
}

// RegisterFunding binds an offer to the outpoint funding its HTLC so
// that block processing can detect the fill or spend.
func (ob *OrderBook) RegisterFunding(offerHash *chainhash.Hash, op wire.OutPoint) error {
	ob.mtx.Lock()
	defer ob.mtx.Unlock()

	if _, ok := ob.offers[*offerHash]; !ok {
		return ruleError(ErrUnknownOffer,
			fmt.Sprintf("cannot register funding for unknown offer %v", offerHash))
	}
	ob.funding[op] = *offerHash
	if ob.cfg.DB != nil {
		var buf bytes.Buffer
		_ = writeOutPoint(&buf, &op)
		_ = ob.cfg.DB.Put(evodb.NamespaceOrderBook, fundingKey(offerHash), buf.Bytes())
	}
	return nil
}

// ConnectBlock processes a connected block: any transaction spending a
// registered funding outpoint fills its offer, and offers whose timeout
// has elapsed are expired off the book.
func (ob *OrderBook) ConnectBlock(height int32, txs []*wire.MsgTx) {
	ob.mtx.Lock()

	for _, tx := range txs {
		txHash := tx.TxHash()
		for _, in := range tx.TxIn {
			offerHash, ok := ob.funding[in.PreviousOutPoint]
			if !ok {
				continue
			}
			o := ob.offers[offerHash]
			if o == nil || !o.IsActive || o.IsFilled {
				continue
			}
			o.IsFilled = true
			o.IsActive = false
			o.FillTxHash = txHash
			o.FillHeight = height
			ob.pairIndexDelete(o)
			ob.persistOffer(o)
			log.Infof("Offer %v filled by tx %v at height %d",
				offerHash, txHash, height)
		}
	}

	ob.height = height
	ob.mtx.Unlock()

	ob.ExpireOffers(height)
	ob.flushHeight(height)
}

// DisconnectBlock rolls back a disconnected block: offers filled in that
// block are restored to the book.
func (ob *OrderBook) DisconnectBlock(height int32) {
	ob.mtx.Lock()
	defer ob.mtx.Unlock()

	for _, o := range ob.offers {
		if o.IsFilled && o.FillHeight == height {
			o.IsFilled = false
			o.IsActive = true
			o.FillTxHash = chainhash.Hash{}
			o.FillHeight = 0
			ob.pairIndexInsert(o)
			ob.persistOffer(o)
			log.Infof("Offer %v restored by disconnect of height %d",
				o.OfferHash, height)
		}
	}
	ob.height = height - 1
	ob.flushHeightLocked(height - 1)
}

// ExpireOffers removes every offer whose timeout elapsed at the given
// height and returns how many were removed.
func (ob *OrderBook) ExpireOffers(height int32) int {
	ob.mtx.Lock()
	defer ob.mtx.Unlock()

	var expired []chainhash.Hash
	for hash, o := range ob.offers {
		if o.IsExpired(height) {
			expired = append(expired, hash)
		}
	}
	for i := range expired {
		ob.removeOffer(&expired[i])
	}
	if len(expired) > 0 {
		log.Debugf("Expired %d offers at height %d", len(expired), height)
	}
	return len(expired)
}

// pairKey builds the canonical pair key using the network's native
// symbol.
func (ob *OrderBook) pairKey(assetA, assetB string) string {
	return GetTradingPairKey(assetA, assetB, ob.cfg.ChainParams.NativeAssetName)
}

func (ob *OrderBook) assetName(name string) string {
	if name == "" {
		return ob.cfg.ChainParams.NativeAssetName
	}
	return name
}

func (ob *OrderBook) pairIndexInsert(o *AtomicSwapOffer) {
	key := ob.pairKey(o.MakerAssetName, o.TakerAssetName)
	bucket, ok := ob.pairs[key]
	if !ok {
		bucket = btree.New(2)
		ob.pairs[key] = bucket
	}
	bucket.ReplaceOrInsert(&offerItem{rate: o.Rate(), hash: o.OfferHash, offer: o})
}

func (ob *OrderBook) pairIndexDelete(o *AtomicSwapOffer) {
	key := ob.pairKey(o.MakerAssetName, o.TakerAssetName)
	bucket, ok := ob.pairs[key]
	if !ok {
		return
	}
	bucket.Delete(&offerItem{rate: o.Rate(), hash: o.OfferHash})
	if bucket.Len() == 0 {
		delete(ob.pairs, key)
	}
}

// Small serialization helpers shared with the store.

func writeInt32(w io.Writer, v int32) error {
	var buf [4]byte
	buf[0] = byte(v)
	buf[1] = byte(v >> 8)
	buf[2] = byte(v >> 16)
	buf[3] = byte(v >> 24)
	_, err := w.Write(buf[:])
	return err
}

func readInt32(r io.Reader) (int32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return int32(uint32(buf[0]) | uint32(buf[1])<<8 |
		uint32(buf[2])<<16 | uint32(buf[3])<<24), nil
}

func writeInt64(w io.Writer, v int64) error {
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(v >> (8 * i))
	}
	_, err := w.Write(buf[:])
	return err
}

func readInt64(r io.Reader) (int64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	var v int64
	for i := 0; i < 8; i++ {
		v |= int64(buf[i]) << (8 * i)
	}
	return v, nil
}

func writeOutPoint(w io.Writer, op *wire.OutPoint) error {
	if _, err := w.Write(op.Hash[:]); err != nil {
		return err
	}
	var buf [4]byte
	buf[0] = byte(op.Index)
	buf[1] = byte(op.Index >> 8)
	buf[2] = byte(op.Index >> 16)
	buf[3] = byte(op.Index >> 24)
	_, err := w.Write(buf[:])
	return err
}

func readOutPoint(r io.Reader, op *wire.OutPoint) error {
	if _, err := io.ReadFull(r, op.Hash[:]); err != nil {
		return err
	}
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return err
	}
	op.Index = uint32(buf[0]) | uint32(buf[1])<<8 |
		uint32(buf[2])<<16 | uint32(buf[3])<<24
	return nil
}
