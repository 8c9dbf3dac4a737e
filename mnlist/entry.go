// Copyright (c) 2026 The Mynta developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mnlist

import (
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/Slashx124/mynta-core/bls"
	"github.com/Slashx124/mynta-core/provider"
)

// notBanned is the sentinel ban height of an entry in good standing.
const notBanned int32 = -1

// Registration is the immutable identity of one operator, fixed by its
// provider registration transaction.
type Registration struct {
	ProTxHash          chainhash.Hash
	CollateralOutpoint wire.OutPoint
	OwnerKeyID         provider.KeyID
	OperatorReward     uint16
}

// State is the mutable state of one registered operator.  Later registrar
// or service updates overwrite the fields carried here; the initial values
// come from the registration payload.
type State struct {
	RegisteredHeight  int32
	LastPaidHeight    int32
	PoSePenalty       int32
	PoSeBanHeight     int32
	PoSeRevivedHeight int32
	RevocationReason  uint16

	Service              provider.Service
	OperatorPubKey       [provider.OperatorKeySize]byte
	VotingKeyID          provider.KeyID
	PayoutScript         []byte
	OperatorPayoutScript []byte
}

// Entry is one masternode in a list snapshot.  Entries are treated as
// immutable; mutating operations work on a copy.
type Entry struct {
	Registration Registration
	State        State

	// InternalID is the 64 bit id assigned at first registration.  It
	// equals the total registered count at the time of insertion and is
	// never reused.
	InternalID uint64
}

// IsValid returns whether the masternode participates in payee selection
// and quorum formation.  Validity is a function of state only.
func (e *Entry) IsValid() bool {
	return e.State.PoSeBanHeight == notBanned && e.State.RevocationReason == 0
}

// OperatorBLSKey parses the current operator public key.  Entries whose
// operator key does not decode are excluded from quorum formation.
func (e *Entry) OperatorBLSKey() (*bls.PublicKey, error) {
	return bls.ParsePublicKey(e.State.OperatorPubKey[:])
}

// Copy returns a deep copy of the entry.
func (e *Entry) Copy() *Entry {
	c := *e
	c.State.PayoutScript = append([]byte(nil), e.State.PayoutScript...)
	c.State.OperatorPayoutScript = append([]byte(nil), e.State.OperatorPayoutScript...)
	return &c
}

// newEntry builds the entry for a freshly accepted registration.
func newEntry(proTxHash chainhash.Hash, p *provider.ProRegTx, height int32, internalID uint64) *Entry {
	e := &Entry{
		Registration: Registration{
			ProTxHash:          proTxHash,
			CollateralOutpoint: p.CollateralOutpoint,
			OwnerKeyID:         p.OwnerKeyID,
			OperatorReward:     p.OperatorReward,
		},
		State: State{
			RegisteredHeight: height,
			LastPaidHeight:   0,
			PoSeBanHeight:    notBanned,
			Service:          p.Service,
			OperatorPubKey:   p.OperatorPubKey,
			VotingKeyID:      p.VotingKeyID,
			PayoutScript:     append([]byte(nil), p.PayoutScript...),
		},
		InternalID: internalID,
	}
	return e
}

// Entry serialization for snapshot persistence.

func writeInt32(w io.Writer, v int32) error {
	return writeUint32(w, uint32(v))
}

func readInt32(r io.Reader) (int32, error) {
	v, err := readUint32(r)
	return int32(v), err
}

func (e *Entry) serialize(w io.Writer) error {
	if err := writeHash(w, &e.Registration.ProTxHash); err != nil {
		return err
	}
	if err := writeOutPoint(w, &e.Registration.CollateralOutpoint); err != nil {
		return err
	}
	if _, err := w.Write(e.Registration.OwnerKeyID[:]); err != nil {
		return err
	}
	if err := writeUint16(w, e.Registration.OperatorReward); err != nil {
		return err
	}

	s := &e.State
	for _, v := range []int32{
		s.RegisteredHeight, s.LastPaidHeight, s.PoSePenalty,
		s.PoSeBanHeight, s.PoSeRevivedHeight,
	} {
		if err := writeInt32(w, v); err != nil {
			return err
		}
	}
	if err := writeUint16(w, s.RevocationReason); err != nil {
		return err
	}
	if err := writeService(w, &s.Service); err != nil {
		return err
	}
	if _, err := w.Write(s.OperatorPubKey[:]); err != nil {
		return err
	}
	if _, err := w.Write(s.VotingKeyID[:]); err != nil {
		return err
	}
	if err := wire.WriteVarBytes(w, 0, s.PayoutScript); err != nil {
		return err
	}
	if err := wire.WriteVarBytes(w, 0, s.OperatorPayoutScript); err != nil {
		return err
	}
	return wire.WriteVarInt(w, 0, e.InternalID)
}

func (e *Entry) deserialize(r io.Reader) error {
	if err := readHash(r, &e.Registration.ProTxHash); err != nil {
		return err
	}
	if err := readOutPoint(r, &e.Registration.CollateralOutpoint); err != nil {
		return err
	}
	if _, err := io.ReadFull(r, e.Registration.OwnerKeyID[:]); err != nil {
		return err
	}
	var err error
	if e.Registration.OperatorReward, err = readUint16(r); err != nil {
		return err
	}

	s := &e.State
	for _, dst := range []*int32{
		&s.RegisteredHeight, &s.LastPaidHeight, &s.PoSePenalty,
		&s.PoSeBanHeight, &s.PoSeRevivedHeight,
	} {
		if *dst, err = readInt32(r); err != nil {
			return err
		}
	}
	if s.RevocationReason, err = readUint16(r); err != nil {
		return err
	}
	if err = readService(r, &s.Service); err != nil {
		return err
	}
	if _, err = io.ReadFull(r, s.OperatorPubKey[:]); err != nil {
		return err
	}
	if _, err = io.ReadFull(r, s.VotingKeyID[:]); err != nil {
		return err
	}
	if s.PayoutScript, err = wire.ReadVarBytes(r, 0, maxScriptLen, "payout script"); err != nil {
		return err
	}
	s.OperatorPayoutScript, err = wire.ReadVarBytes(r, 0, maxScriptLen, "operator payout script")
	if err != nil {
		return err
	}
	e.InternalID, err = wire.ReadVarInt(r, 0)
	return err
}
