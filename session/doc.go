// Package session persists the single session record that survives a process
// restart.
//
// # Design
//
// The store owns exactly one logical Redis key holding at most one encoded
// [Record]. Save is a single SET, so the slot is replaced atomically and a
// reader can never observe a half-written record; Clear is a single DEL and
// is idempotent. Records are serialized as HMAC-SHA256-signed JWT claims:
// the signature makes any tampering or truncation of the persisted bytes
// detectable on Load, which then purges the corrupt value so the next Load
// comes back cleanly absent.
//
// Signing is integrity protection, not confidentiality. The record payload
// is readable by anyone with access to the storage medium; nothing secret
// belongs in it.
//
// # What this package must NOT do
//
//   - Hold session state in memory. The live session is owned by the
//     machine; this package only round-trips its persisted projection.
//   - Trust decoded input. Role names and identity fields are validated on
//     every decode.
package session
