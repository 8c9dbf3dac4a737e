// Copyright (c) 2026 The Mynta developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mnlist

import (
	"bytes"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// PayeeScore ranks one valid entry for payee selection at a block.
type PayeeScore struct {
	Entry *Entry
	Score chainhash.Hash
}

// CalcPayeeScore computes the selection score of one entry for the block:
// the hash of the entry's proTxHash concatenated with the block hash.
func CalcPayeeScore(proTxHash, blockHash *chainhash.Hash) chainhash.Hash {
	buf := make([]byte, 0, chainhash.HashSize*2)
	buf = append(buf, proTxHash[:]...)
	buf = append(buf, blockHash[:]...)
	return chainhash.DoubleHashH(buf)
}

// PredictPayee returns the valid entry that wins the block reward for the
// block with the given hash: the entry with the lowest score, ties broken
// lexicographically on proTxHash.  It returns nil when the list has no
// valid entries.
func (l *MasternodeList) PredictPayee(blockHash *chainhash.Hash) *Entry {
	var best *Entry
	var bestScore chainhash.Hash
	l.ForEachEntry(true, func(e *Entry) bool {
		score := CalcPayeeScore(&e.Registration.ProTxHash, blockHash)
		if best == nil {
			best, bestScore = e, score
			return true
		}
		switch bytes.Compare(score[:], bestScore[:]) {
		case -1:
			best, bestScore = e, score
		case 0:
			if bytes.Compare(e.Registration.ProTxHash[:],
				best.Registration.ProTxHash[:]) < 0 {
				best, bestScore = e, score
			}
		}
		return true
	})
	return best
}

// PayeeScores returns the selection scores of every valid entry for the
// block, unsorted.
func (l *MasternodeList) PayeeScores(blockHash *chainhash.Hash) []PayeeScore {
	scores := make([]PayeeScore, 0, len(l.entries))
	l.ForEachEntry(true, func(e *Entry) bool {
		scores = append(scores, PayeeScore{
			Entry: e,
			Score: CalcPayeeScore(&e.Registration.ProTxHash, blockHash),
		})
		return true
	})
	return scores
}
