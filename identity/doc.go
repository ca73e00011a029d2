// Package identity provides credential verifiers for the session machine.
//
// The only shipped implementation is [Static], an in-memory directory meant
// for demos, examples, and tests. Production deployments implement
// roleauth.IdentityProvider against their own user backend.
//
// # Architecture boundaries
//
// This package answers exactly one question: do these credentials map to a
// known principal. It holds no session state and performs no persistence.
//
// # What this package must NOT do
//
//   - Hash or store real passwords. Static compares plaintext fixtures.
//   - Make authorization decisions. Role comparisons live in package role.
package identity
