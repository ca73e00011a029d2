// Package roleauth provides a session-lifecycle state machine with
// Redis-backed session persistence and a strictly ordered role hierarchy for
// management authorization.
//
// The package is designed around a single live session per process: one
// [Machine], built through [Builder.Build], owns all state transitions
// (restore, login, logout, profile update) while read-only queries (phase,
// principal, canManage) stay lock-free for concurrent callers.
//
// # Architecture boundaries
//
// roleauth is the public surface. It exposes [Machine], [Builder], [Config],
// and value types (Principal, AuditEvent, MetricsSnapshot). Policy lives in
// role/, persistence in session/, gating in guard/; none of them reach back
// into this package's state.
//
// # What this package must NOT do
//
//   - Verify credentials itself. Verification belongs to the injected
//     [IdentityProvider]; any principal it returns is trusted as
//     role-assigned.
//   - Expose Redis clients or record encoding details in its public API.
//   - Perform I/O outside of Machine methods (construction via Builder is
//     allocation-only until Build).
//   - Panic on any input, including malformed persisted data. Every failure
//     resolves to a defined phase plus a human-readable message.
package roleauth
