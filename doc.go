// Package goAccount provides an account lifecycle engine with JWT access tokens,
// digest-tracked refresh tokens, Redis-backed single-use challenges for email
// verification and password recovery, and pluggable account storage.
//
// The package is designed for concurrent server workloads: Engine methods are safe to call
// from multiple goroutines after initialization through [Builder.Build].
//
// # Architecture boundaries
//
// goAccount is the public surface. It exposes [Engine], [Builder], [Config], and value
// types (TokenPair, Account, MetricsSnapshot, etc.). Token codecs and challenge record
// encoding live under internal/ and are never exported.
//
// # What this package must NOT do
//
//   - Expose Redis clients, challenge stores, or encoding details in its public API.
//   - Perform I/O outside of Engine methods (construction via Builder is allocation-only
//     until Build).
//   - Import any sub-package that re-imports goAccount (no import cycles).
//
// # Performance contract
//
// Validate is the hot path. It must not allocate beyond the returned AuthResult and
// must complete without any store round-trip. Login, Refresh, and recovery operations
// are allowed store round-trips per call.
package goAccount
