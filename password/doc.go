// Package password provides Argon2id password hashing in PHC string format
// with constant-time verification and upgrade detection.
package password
