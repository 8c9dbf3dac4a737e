// Copyright (c) 2026 The Mynta developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package dex

import "fmt"

// ErrorCode identifies a kind of order book validation error.
type ErrorCode int

// These constants are used to identify a specific RuleError.
const (
	// ErrBadOfferAmount indicates a non-positive maker or taker amount.
	ErrBadOfferAmount ErrorCode = iota

	// ErrBadOfferTimeout indicates a timeout outside the permitted
	// block range.
	ErrBadOfferTimeout

	// ErrBadOfferScript indicates a missing maker script.
	ErrBadOfferScript

	// ErrDuplicateOffer indicates an offer hash already on the book.
	ErrDuplicateOffer

	// ErrUnknownOffer indicates an operation referencing an offer that
	// is not on the book.
	ErrUnknownOffer
)

// map of ErrorCode values back to their constant names for pretty printing.
var errorCodeStrings = map[ErrorCode]string{
	ErrBadOfferAmount:  "ErrBadOfferAmount",
	ErrBadOfferTimeout: "ErrBadOfferTimeout",
	ErrBadOfferScript:  "ErrBadOfferScript",
	ErrDuplicateOffer:  "ErrDuplicateOffer",
	ErrUnknownOffer:    "ErrUnknownOffer",
}

// String returns the ErrorCode as a human-readable name.
func (e ErrorCode) String() string {
	if s := errorCodeStrings[e]; s != "" {
		return s
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// RuleError identifies an order book rule violation.
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
