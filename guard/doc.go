// Package guard decides whether a navigation target may be entered given
// the current session phase, and evaluates declarative role requirements.
//
// # Guards
//
//   - [Guard.Authorize] — allow iff a session is authenticated, otherwise
//     redirect to the configured login resource.
//   - [Requirement] predicates — composable role checks such as
//     [RequireManages], evaluated against the live session.
//   - [Middleware] / [Require] — net/http adapters for the two above.
//
// # Architecture boundaries
//
// This package translates access questions into reads of the session
// machine's committed state. It makes no transitions and holds no state of
// its own beyond the login resource name.
//
// # What this package must NOT do
//
//   - Trigger login, logout, or restore (read-only consumer).
//   - Compare role levels directly (delegates to the session's CanManage).
//   - Remember or replay the denied target after a later login.
package guard
