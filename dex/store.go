// Copyright (c) 2026 The Mynta developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package dex

import (
	"bytes"
	"io"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/Slashx124/mynta-core/evodb"
)

// Key prefixes inside the order book namespace.
const (
	storeOfferPrefix   = 'O'
	storeFundingPrefix = 'U'
	storeHeightKey     = 'H'
)

// maxOfferScriptLen bounds script lengths during deserialization.
const maxOfferScriptLen = 10000

func offerKey(offerHash *chainhash.Hash) []byte {
	return append([]byte{storeOfferPrefix}, offerHash[:]...)
}

func fundingKey(offerHash *chainhash.Hash) []byte {
	return append([]byte{storeFundingPrefix}, offerHash[:]...)
}

// Serialize writes the offer in its persistent form.
func (o *AtomicSwapOffer) Serialize(w io.Writer) error {
	if _, err := w.Write(o.OfferHash[:]); err != nil {
		return err
	}
	if err := wire.WriteVarString(w, 0, o.MakerAssetName); err != nil {
		return err
	}
	if err := writeInt64(w, int64(o.MakerAmount)); err != nil {
		return err
	}
	if err := wire.WriteVarBytes(w, 0, o.MakerScript); err != nil {
		return err
	}
	if err := wire.WriteVarString(w, 0, o.TakerAssetName); err != nil {
		return err
	}
	if err := writeInt64(w, int64(o.TakerAmount)); err != nil {
		return err
	}
	if _, err := w.Write(o.HashLock[:]); err != nil {
		return err
	}
	if err := writeInt32(w, int32(o.TimeoutBlocks)); err != nil {
		return err
	}
	if err := writeInt32(w, o.CreatedHeight); err != nil {
		return err
	}
	flags := byte(0)
	if o.IsActive {
		flags |= 0x01
	}
	if o.IsFilled {
		flags |= 0x02
	}
	if _, err := w.Write([]byte{flags}); err != nil {
		return err
	}
	if _, err := w.Write(o.FillTxHash[:]); err != nil {
		return err
	}
	return writeInt32(w, o.FillHeight)
}

// DeserializeOffer reads an offer from its persistent form.
func DeserializeOffer(r io.Reader) (*AtomicSwapOffer, error) {
	o := new(AtomicSwapOffer)
	if _, err := io.ReadFull(r, o.OfferHash[:]); err != nil {
		return nil, err
	}
	var err error
	if o.MakerAssetName, err = wire.ReadVarString(r, 0); err != nil {
		return nil, err
	}
	var v int64
	if v, err = readInt64(r); err != nil {
		return nil, err
	}
	o.MakerAmount = btcutil.Amount(v)
	if o.MakerScript, err = wire.ReadVarBytes(r, 0, maxOfferScriptLen, "maker script"); err != nil {
		return nil, err
	}
	if o.TakerAssetName, err = wire.ReadVarString(r, 0); err != nil {
		return nil, err
	}
	if v, err = readInt64(r); err != nil {
		return nil, err
	}
	o.TakerAmount = btcutil.Amount(v)
	if _, err = io.ReadFull(r, o.HashLock[:]); err != nil {
		return nil, err
	}
	var timeout int32
	if timeout, err = readInt32(r); err != nil {
		return nil, err
	}
	o.TimeoutBlocks = uint32(timeout)
	if o.CreatedHeight, err = readInt32(r); err != nil {
		return nil, err
	}
	var flags [1]byte
	if _, err = io.ReadFull(r, flags[:]); err != nil {
		return nil, err
	}
	o.IsActive = flags[0]&0x01 != 0
	o.IsFilled = flags[0]&0x02 != 0
	if _, err = io.ReadFull(r, o.FillTxHash[:]); err != nil {
		return nil, err
	}
	if o.FillHeight, err = readInt32(r); err != nil {
		return nil, err
	}
	return o, nil
}

// persistOffer writes one offer record.  The caller holds the book lock.
func (ob *OrderBook) persistOffer(o *AtomicSwapOffer) {
	if ob.cfg.DB == nil {
		return
	}
	var buf bytes.Buffer
	if err := o.Serialize(&buf); err != nil {
		log.Errorf("Failed to serialize offer %v: %v", o.OfferHash, err)
		return
	}
	if err := ob.cfg.DB.Put(evodb.NamespaceOrderBook,
		offerKey(&o.OfferHash), buf.Bytes()); err != nil {
		log.Errorf("Failed to persist offer %v: %v", o.OfferHash, err)
	}
}

// flushHeight persists the processed height marker.
func (ob *OrderBook) flushHeight(height int32) {
	ob.mtx.Lock()
	defer ob.mtx.Unlock()
	ob.flushHeightLocked(height)
}

func (ob *OrderBook) flushHeightLocked(height int32) {
	if ob.cfg.DB == nil {
		return
	}
	var buf bytes.Buffer
	_ = writeInt32(&buf, height)
	if err := ob.cfg.DB.Put(evodb.NamespaceOrderBook,
		[]byte{storeHeightKey}, buf.Bytes()); err != nil {
		log.Errorf("Failed to persist order book height: %v", err)
	}
}

// Height returns the last block height the book has processed.
func (ob *OrderBook) Height() int32 {
	ob.mtx.Lock()
	defer ob.mtx.Unlock()
	return ob.height
}

// Flush writes the current height marker.  It is called on shutdown.
func (ob *OrderBook) Flush() {
	ob.mtx.Lock()
	defer ob.mtx.Unlock()
	ob.flushHeightLocked(ob.height)
}

// load scans the order book namespace and rebuilds the in-memory
// indexes.
func (ob *OrderBook) load() error {
	err := ob.cfg.DB.ForEach(evodb.NamespaceOrderBook, func(k, v []byte) bool {
		if len(k) == 0 {
			return true
		}
		switch k[0] {
		case storeOfferPrefix:
			o, derr := DeserializeOffer(bytes.NewReader(v))
			if derr != nil {
				log.Warnf("Corrupt offer record: %v", derr)
				return true
			}
			ob.offers[o.OfferHash] = o
			if o.IsActive && !o.IsFilled {
				ob.pairIndexInsert(o)
			}
		case storeFundingPrefix:
			if len(k) != 1+chainhash.HashSize {
				return true
			}
			var offerHash chainhash.Hash
			copy(offerHash[:], k[1:])
			var op wire.OutPoint
			if derr := readOutPoint(bytes.NewReader(v), &op); derr != nil {
				log.Warnf("Corrupt funding record: %v", derr)
				return true
			}
			ob.funding[op] = offerHash
		case storeHeightKey:
			if h, derr := readInt32(bytes.NewReader(v)); derr == nil {
				ob.height = h
			}
		}
		return true
	})
	if err != nil {
		return err
	}
	if len(ob.offers) > 0 {
		log.Infof("Loaded %d swap offers from the state database", len(ob.offers))
	}
	return nil
}
