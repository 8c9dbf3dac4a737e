// Copyright (c) 2026 The Mynta developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package provider

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

const (
	// KeyIDSize is the size of a RIPEMD160(SHA256(pubkey)) key id.
	KeyIDSize = 20

	// OperatorKeySize is the size of a compressed BLS G1 operator key.
	OperatorKeySize = 48

	// maxScriptLen bounds payout script lengths during deserialization.
	maxScriptLen = 10000

	// maxSignatureLen bounds payload signature lengths during
	// deserialization.  Compact ECDSA signatures are 65 bytes and BLS
	// signatures 96; anything above is malformed.
	maxSignatureLen = 96

	// MaxOperatorReward is the highest permitted operator reward in
	// basis points.
	MaxOperatorReward = 10000
)

// KeyID is a 20 byte pubkey hash identifying an owner or voting key.
type KeyID [KeyIDSize]byte

// IsZero returns whether the key id is all zero.
func (k *KeyID) IsZero() bool {
	return *k == KeyID{}
}

// Service is an advertised masternode endpoint: a 16 byte IP (IPv4 mapped
// into IPv6 form) and a port.
type Service struct {
	IP   [16]byte
	Port uint16
}

// NewServiceFromIP builds a Service from a net.IP and port.
func NewServiceFromIP(ip net.IP, port uint16) Service {
	var svc Service
	copy(svc.IP[:], ip.To16())
	svc.Port = port
	return svc
}

// NetIP returns the endpoint address as a net.IP.
func (s *Service) NetIP() net.IP {
	return net.IP(s.IP[:])
}

// IsZero returns whether the service is entirely unset.
func (s *Service) IsZero() bool {
	return s.IP == [16]byte{} && s.Port == 0
}

// IsRoutable returns whether the endpoint is usable as a public network
// address: a non-zero port on an address that is neither unspecified,
// loopback nor link-local.  Private ranges are accepted only when
// allowPrivate is set (regression test networks).
func (s *Service) IsRoutable(allowPrivate bool) bool {
	if s.Port == 0 {
		return false
	}
	ip := s.NetIP()
	if ip.IsUnspecified() || ip.IsLoopback() || ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() || ip.IsMulticast() {
		return false
	}
	if !allowPrivate && ip.IsPrivate() {
		return false
	}
	return true
}

// String returns the endpoint in host:port form.
func (s *Service) String() string {
	return net.JoinHostPort(s.NetIP().String(), fmt.Sprintf("%d", s.Port))
}

// Write serializes the service to w in wire form.
func (s *Service) Write(w io.Writer) error {
	return writeService(w, s)
}

// Read deserializes the service from r.
func (s *Service) Read(r io.Reader) error {
	return readService(r, s)
}

// The helpers below serialize the pieces shared by the payloads.

func writeUint16(w io.Writer, v uint16) error {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func readUint16(r io.Reader) (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf[:]), nil
}

func writeUint32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func readUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func writeHash(w io.Writer, h *chainhash.Hash) error {
	_, err := w.Write(h[:])
	return err
}

func readHash(r io.Reader, h *chainhash.Hash) error {
	_, err := io.ReadFull(r, h[:])
	return err
}

func writeOutPoint(w io.Writer, op *wire.OutPoint) error {
	if err := writeHash(w, &op.Hash); err != nil {
		return err
	}
	return writeUint32(w, op.Index)
}

func readOutPoint(r io.Reader, op *wire.OutPoint) error {
	if err := readHash(r, &op.Hash); err != nil {
		return err
	}
	idx, err := readUint32(r)
	if err != nil {
		return err
	}
	op.Index = idx
	return nil
}

func writeService(w io.Writer, svc *Service) error {
	if _, err := w.Write(svc.IP[:]); err != nil {
		return err
	}
	// Port is serialized big-endian, matching network address
	// conventions on the base layer.
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], svc.Port)
	_, err := w.Write(buf[:])
	return err
}

func readService(r io.Reader, svc *Service) error {
	if _, err := io.ReadFull(r, svc.IP[:]); err != nil {
		return err
	}
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return err
	}
	svc.Port = binary.BigEndian.Uint16(buf[:])
	return nil
}

func writeKeyID(w io.Writer, k *KeyID) error {
	_, err := w.Write(k[:])
	return err
}

func readKeyID(r io.Reader, k *KeyID) error {
	_, err := io.ReadFull(r, k[:])
	return err
}

func writeVarBytes(w io.Writer, b []byte) error {
	return wire.WriteVarBytes(w, 0, b)
}

func readVarBytes(r io.Reader, maxLen uint32, field string) ([]byte, error) {
	return wire.ReadVarBytes(r, 0, maxLen, field)
}

// CalcInputsHash computes the replay protection hash committing to the
// ordered inputs of the containing transaction.
func CalcInputsHash(tx *wire.MsgTx) chainhash.Hash {
	buf := make([]byte, 0, len(tx.TxIn)*(chainhash.HashSize+4))
	for _, in := range tx.TxIn {
		buf = append(buf, in.PreviousOutPoint.Hash[:]...)
		var idx [4]byte
		binary.LittleEndian.PutUint32(idx[:], in.PreviousOutPoint.Index)
		buf = append(buf, idx[:]...)
	}
	return chainhash.DoubleHashH(buf)
}
