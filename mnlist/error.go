// Copyright (c) 2026 The Mynta developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mnlist

import "github.com/Slashx124/mynta-core/provider"

// ruleError creates a provider.RuleError.  List processing reuses the
// provider error codes: every violation here invalidates the containing
// block with the maximum DoS score.
func ruleError(c provider.ErrorCode, desc string) provider.RuleError {
	return provider.RuleError{ErrorCode: c, Description: desc}
}

// IsRuleError returns whether the error is a payload or list rule
// violation, as opposed to an internal failure.
func IsRuleError(err error) bool {
	_, ok := err.(provider.RuleError)
	return ok
}
