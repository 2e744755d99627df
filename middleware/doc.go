// Package middleware exposes an HTTP middleware adapter for protecting routes
// with goAccount.Engine validation.
//
// # Guards
//
//   - [Guard] — stateless access-token verification, no store call.
//
// The guard reads the Authorization header (falling back to the accessToken
// cookie), calls Engine.Validate, and injects the validated result into the
// request context.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement authentication logic itself — all decisions are delegated to
// Engine.Validate.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to Engine).
//   - Access the account store (Engine handles I/O).
//   - Make authorization decisions beyond pass/reject from Engine.Validate.
package middleware
