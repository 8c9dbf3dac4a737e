// Copyright (c) 2026 The Mynta developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package llmq

import "fmt"

// ErrorCode identifies a kind of quorum or lock validation error.
type ErrorCode int

// These constants are used to identify a specific RuleError.
const (
	// ErrBadQuorum indicates a message references an unknown or invalid
	// quorum.
	ErrBadQuorum ErrorCode = iota

	// ErrBadSignature indicates a recovered signature or lock signature
	// does not verify under the quorum public key.
	ErrBadSignature

	// ErrConflictingISLock indicates an InstantSend lock tries to lock
	// an outpoint already locked under a different transaction.
	ErrConflictingISLock

	// ErrDuplicateISLock indicates an InstantSend lock for a transaction
	// that already holds one.
	ErrDuplicateISLock

	// ErrTxIneligible indicates a transaction that cannot be
	// InstantSend locked (coinbase or too many inputs).
	ErrTxIneligible

	// ErrChainLockLowerHeight indicates a chainlock for a height below
	// the best known locked height.
	ErrChainLockLowerHeight

	// ErrChainLockConflict indicates a chainlock for the best locked
	// height naming a different block hash.
	ErrChainLockConflict

	// ErrChainLockNotActive indicates a chainlock below the activation
	// height.
	ErrChainLockNotActive
)

// map of ErrorCode values back to their constant names for pretty printing.
var errorCodeStrings = map[ErrorCode]string{
	ErrBadQuorum:            "ErrBadQuorum",
	ErrBadSignature:         "ErrBadSignature",
	ErrConflictingISLock:    "ErrConflictingISLock",
	ErrDuplicateISLock:      "ErrDuplicateISLock",
	ErrTxIneligible:         "ErrTxIneligible",
	ErrChainLockLowerHeight: "ErrChainLockLowerHeight",
	ErrChainLockConflict:    "ErrChainLockConflict",
	ErrChainLockNotActive:   "ErrChainLockNotActive",
}

// rejectReasons maps error codes to the short reject reason reported to
// the peer layer alongside the ban score.
var rejectReasons = map[ErrorCode]string{
	ErrBadQuorum:            "bad-quorum",
	ErrBadSignature:         "bad-quorum-sig",
	ErrConflictingISLock:    "islock-conflict",
	ErrDuplicateISLock:      "islock-duplicate",
	ErrTxIneligible:         "islock-ineligible",
	ErrChainLockLowerHeight: "clsig-bad-height",
	ErrChainLockConflict:    "clsig-conflict",
	ErrChainLockNotActive:   "clsig-not-active",
}

// String returns the ErrorCode as a human-readable name.
func (e ErrorCode) String() string {
	if s := errorCodeStrings[e]; s != "" {
		return s
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// RuleError identifies a rule violation in a received quorum or lock
// message.  All RuleErrors carry the maximum DoS ban score.
type RuleError struct {
	ErrorCode   ErrorCode
	Description string
}

// Error satisfies the error interface and prints human-readable errors.
func (e RuleError) Error() string {
	return e.Description
}

// RejectReason returns the short reason string reported alongside the
// rejection.
func (e RuleError) RejectReason() string {
	return rejectReasons[e.ErrorCode]
}

// BanScore returns the DoS score attributed to the sender of the
// offending message.  Every rule violation here is maximum severity.
func (e RuleError) BanScore() uint32 {
	return 100
}

// ruleError creates a RuleError given a set of arguments.
func ruleError(c ErrorCode, desc string) RuleError {
	return RuleError{ErrorCode: c, Description: desc}
}
