// Package role encodes the fixed management hierarchy used across roleauth.
//
// # Design
//
// The role set is closed and totally ordered: master > admin > manager > tl >
// user. Each role maps to exactly one integer level; no two roles share a
// level, so the ordering is strict. [CanManage] is the single authorization
// primitive the rest of the system depends on: a role manages another role
// only when its level is strictly greater, which makes the relation
// irreflexive by construction.
//
// # What this package must NOT do
//
//   - Hold any mutable state. All policy is compile-time constant.
//   - Perform I/O or import any sibling package.
//   - Accept unchecked role values: inputs may arrive from untrusted
//     deserialization, so every entry point guards against values outside
//     the enumerated set and returns [ErrInvalidRole] instead of panicking.
package role
