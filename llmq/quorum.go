// Copyright (c) 2026 The Mynta developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package llmq

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/Slashx124/mynta-core/bls"
	"github.com/Slashx124/mynta-core/chaincfg"
	"github.com/Slashx124/mynta-core/mnlist"
)

// Domain tags for the deterministic quorum hashes.
const (
	tagQuorum   = "LLMQ_QUORUM"
	tagModifier = "LLMQ_MODIFIER"
	tagScore    = "LLMQ_SCORE"
	tagSelect   = "LLMQ_SELECT"
)

func taggedHash(tag string, parts ...[]byte) chainhash.Hash {
	var buf bytes.Buffer
	buf.WriteString(tag)
	for _, p := range parts {
		buf.Write(p)
	}
	return chainhash.DoubleHashH(buf.Bytes())
}

// CalcQuorumHash computes the identity of the quorum of the given type
// forming at the block.
func CalcQuorumHash(t chaincfg.LLMQType, blockHash *chainhash.Hash) chainhash.Hash {
	return taggedHash(tagQuorum, []byte{byte(t)}, blockHash[:])
}

// calcModifier computes the member selection modifier for a formation
// block.
func calcModifier(t chaincfg.LLMQType, blockHash *chainhash.Hash) chainhash.Hash {
	return taggedHash(tagModifier, []byte{byte(t)}, blockHash[:])
}

// calcMemberScore ranks one masternode under a formation modifier.
func calcMemberScore(modifier, proTxHash *chainhash.Hash) chainhash.Hash {
	return taggedHash(tagScore, modifier[:], proTxHash[:])
}

// calcSelectionScore ranks one active quorum for a signing request.
func calcSelectionScore(quorumHash, requestID *chainhash.Hash) chainhash.Hash {
	return taggedHash(tagSelect, quorumHash[:], requestID[:])
}

// CalcSignHash computes the message actually signed in a session: the hash
// binding the quorum type, the designated quorum, the request and the
// message.
func CalcSignHash(t chaincfg.LLMQType, quorumHash, requestID, msgHash *chainhash.Hash) chainhash.Hash {
	var buf bytes.Buffer
	buf.WriteByte(byte(t))
	buf.Write(quorumHash[:])
	buf.Write(requestID[:])
	buf.Write(msgHash[:])
	return chainhash.DoubleHashH(buf.Bytes())
}

// heightBytes serializes a block height for request id hashing.
func heightBytes(height int32) []byte {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(height))
	return buf[:]
}

// QuorumMember is one selected committee member.
type QuorumMember struct {
	// ProTxHash identifies the masternode.
	ProTxHash chainhash.Hash

	// PubKey is the member's operator key at formation time.
	PubKey *bls.PublicKey

	// Valid marks members that completed the key generation.  Invalid
	// members do not contribute to the aggregated key and their shares
	// are ignored.
	Valid bool
}

// Quorum is a deterministically selected signing committee.  Quorums are
// shared-immutable: once built they are never modified, and a quorum is
// reconstructable from its type and the block index alone.
type Quorum struct {
	Params     *chaincfg.LLMQParams
	QuorumHash chainhash.Hash
	Height     int32

	// Members is ordered by ascending selection score.
	Members []QuorumMember

	// AggregatedPubKey is the sum in G1 of all valid members' operator
	// keys.  Recovered threshold signatures verify under it.
	AggregatedPubKey *bls.PublicKey

	// ValidCount is the number of valid members.
	ValidCount int
}

// IsValid returns whether the quorum reached its minimum size and can
// produce signatures.
func (q *Quorum) IsValid() bool {
	return q.ValidCount >= q.Params.MinSize
}

// Threshold returns the number of shares required to recover a signature.
func (q *Quorum) Threshold() int {
	return q.Params.Threshold(q.ValidCount)
}

// IsMember returns whether the masternode is a member of the quorum.
func (q *Quorum) IsMember(proTxHash *chainhash.Hash) bool {
	for i := range q.Members {
		if q.Members[i].ProTxHash == *proTxHash {
			return true
		}
	}
	return false
}

// ValidMembersSorted returns the valid members ordered by ascending
// proTxHash, the canonical order for deterministic threshold recovery.
func (q *Quorum) ValidMembersSorted() []QuorumMember {
	members := make([]QuorumMember, 0, q.ValidCount)
	for _, m := range q.Members {
		if m.Valid {
			members = append(members, m)
		}
	}
	sort.Slice(members, func(i, j int) bool {
		return bytes.Compare(members[i].ProTxHash[:], members[j].ProTxHash[:]) < 0
	})
	return members
}

// BuildQuorum deterministically selects the quorum of the given type
// forming at the block with the given hash and height, from the
// masternode list snapshot at that block.
func BuildQuorum(params *chaincfg.LLMQParams, blockHash *chainhash.Hash,
	height int32, list *mnlist.MasternodeList) (*Quorum, error) {

	if height%params.Interval != 0 {
		return nil, fmt.Errorf("height %d is not a %s formation height",
			height, params.Name)
	}

	modifier := calcModifier(params.Type, blockHash)

	type scored struct {
		entry *mnlist.Entry
		key   *bls.PublicKey
		score chainhash.Hash
	}
	var candidates []scored
	list.ForEachEntry(true, func(e *mnlist.Entry) bool {
		key, err := e.OperatorBLSKey()
		if err != nil {
			// Entries without a usable operator key cannot hold a
			// key share; they are skipped, not failed.
			return true
		}
		candidates = append(candidates, scored{
			entry: e,
			key:   key,
			score: calcMemberScore(&modifier, &e.Registration.ProTxHash),
		})
		return true
	})

	sort.Slice(candidates, func(i, j int) bool {
		return bytes.Compare(candidates[i].score[:], candidates[j].score[:]) < 0
	})
	if len(candidates) > params.Size {
		candidates = candidates[:params.Size]
	}

	q := &Quorum{
		Params:     params,
		QuorumHash: CalcQuorumHash(params.Type, blockHash),
		Height:     height,
		Members:    make([]QuorumMember, 0, len(candidates)),
	}
	var validKeys []*bls.PublicKey
	for _, c := range candidates {
		q.Members = append(q.Members, QuorumMember{
			ProTxHash: c.entry.Registration.ProTxHash,
			PubKey:    c.key,
			Valid:     true,
		})
		validKeys = append(validKeys, c.key)
		q.ValidCount++
	}
	if len(validKeys) > 0 {
		agg, err := bls.AggregatePublicKeys(validKeys)
		if err != nil {
			return nil, err
		}
		q.AggregatedPubKey = agg
	}
	return q, nil
}
