// Copyright (c) 2026 The Mynta developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package provider

import "fmt"

// ErrorCode identifies a kind of payload validation error.
type ErrorCode int

// These constants are used to identify a specific RuleError.
const (
	// ErrMalformedPayload indicates the payload bytes could not be
	// decoded.
	ErrMalformedPayload ErrorCode = iota

	// ErrBadVersion indicates an unsupported payload version.
	ErrBadVersion

	// ErrBadMode indicates a non-zero registration mode.
	ErrBadMode

	// ErrBadOperatorKey indicates the operator public key has the wrong
	// size or does not decode to a valid G1 element.
	ErrBadOperatorKey

	// ErrBadEndpoint indicates the advertised endpoint is missing, has a
	// zero port, or is not routable.
	ErrBadEndpoint

	// ErrBadPayoutScript indicates the payout script is not a standard
	// pay-to-pubkey-hash or pay-to-script-hash script.
	ErrBadPayoutScript

	// ErrBadOperatorReward indicates the operator reward exceeds 10000
	// basis points.
	ErrBadOperatorReward

	// ErrBadRevocationReason indicates a revocation reason outside the
	// defined range.
	ErrBadRevocationReason

	// ErrBadInputsHash indicates the payload inputs hash does not commit
	// to the containing transaction's inputs.
	ErrBadInputsHash

	// ErrBadSignature indicates the payload signature is missing or does
	// not recover to the expected key.
	ErrBadSignature

	// ErrNoSuchMasternode indicates the payload references a proTxHash
	// that is not in the masternode list.
	ErrNoSuchMasternode

	// ErrDuplicateUniqueProperty indicates the payload would make two
	// list entries share a collateral outpoint, endpoint or owner key.
	ErrDuplicateUniqueProperty
)

// map of ErrorCode values back to their constant names for pretty printing.
var errorCodeStrings = map[ErrorCode]string{
	ErrMalformedPayload:        "ErrMalformedPayload",
	ErrBadVersion:              "ErrBadVersion",
	ErrBadMode:                 "ErrBadMode",
	ErrBadOperatorKey:          "ErrBadOperatorKey",
	ErrBadEndpoint:             "ErrBadEndpoint",
	ErrBadPayoutScript:         "ErrBadPayoutScript",
	ErrBadOperatorReward:       "ErrBadOperatorReward",
	ErrBadRevocationReason:     "ErrBadRevocationReason",
	ErrBadInputsHash:           "ErrBadInputsHash",
	ErrBadSignature:            "ErrBadSignature",
	ErrNoSuchMasternode:        "ErrNoSuchMasternode",
	ErrDuplicateUniqueProperty: "ErrDuplicateUniqueProperty",
}

// String returns the ErrorCode as a human-readable name.
func (e ErrorCode) String() string {
	if s := errorCodeStrings[e]; s != "" {
		return s
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// RuleError identifies a payload rule violation.  All RuleErrors carry the
// maximum DoS ban score; an invalid provider payload invalidates its block.
type RuleError struct {
	ErrorCode   ErrorCode
	Description string
}

// Error satisfies the error interface and prints human-readable errors.
func (e RuleError) Error() string {
	return e.Description
}

// ruleError creates a RuleError given a set of arguments.
func ruleError(c ErrorCode, desc string) RuleError {
	return RuleError{ErrorCode: c, Description: desc}
}
