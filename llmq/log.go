// Copyright (c) 2026 The Mynta developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package llmq

import (
	"github.com/btcsuite/btclog"
)

// The package carries one logger per subsystem it hosts: log covers the
// quorum and signing managers, islog the InstantSend manager and cllog
// the chainlock manager, so each can be tuned independently.  All are
// initialized with no output filters, meaning no logging is performed by
// default until the caller requests it.
var (
	log   btclog.Logger
	islog btclog.Logger
	cllog btclog.Logger
)

// The default amount of logging is none.
func init() {
	DisableLog()
}

// DisableLog disables all library log output.  Logging output is disabled
// by default until one of the UseLogger functions is called.
func DisableLog() {
	log = btclog.Disabled
	islog = btclog.Disabled
	cllog = btclog.Disabled
}

// UseLogger uses a specified Logger to output quorum and signing manager
// logging info.
func UseLogger(logger btclog.Logger) {
	log = logger
}

// UseInstantSendLogger uses a specified Logger to output InstantSend
// manager logging info.
func UseInstantSendLogger(logger btclog.Logger) {
	islog = logger
}

// UseChainLocksLogger uses a specified Logger to output chainlock
// manager logging info.
func UseChainLocksLogger(logger btclog.Logger) {
	cllog = logger
}
