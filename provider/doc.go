// Copyright (c) 2026 The Mynta developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package provider implements the four provider transaction payloads that
// drive the deterministic masternode list: registration, service update,
// registrar update and revocation.  It provides strict wire encoding and
// decoding, payload signature hashing, and the context-free sanity checks
// that reject malformed payloads before they reach the list manager.
package provider
