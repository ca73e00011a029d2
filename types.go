package roleauth

import (
	"context"
	"time"

	"github.com/okhara/roleauth/role"
	"github.com/okhara/roleauth/session"
)

// Phase is the current state of the session [Machine].
//
//	Docs: docs/lifecycle.md
type Phase uint8

const (
	// PhaseUnauthenticated is an exported constant or variable used by the session machine.
	PhaseUnauthenticated Phase = iota
	// PhaseAuthenticating is an exported constant or variable used by the session machine.
	PhaseAuthenticating
	// PhaseAuthenticated is an exported constant or variable used by the session machine.
	PhaseAuthenticated
	// PhaseFailed is an exported constant or variable used by the session machine.
	PhaseFailed
)

// String describes the phase for logs and diagnostics.
func (p Phase) String() string {
	switch p {
	case PhaseUnauthenticated:
		return "unauthenticated"
	case PhaseAuthenticating:
		return "authenticating"
	case PhaseAuthenticated:
		return "authenticated"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Human-readable messages surfaced through [Machine.LastError]. These are
// the strings a presentation layer shows verbatim.
const (
	// MsgInvalidCredentials is an exported constant or variable used by the session machine.
	MsgInvalidCredentials = "Invalid email or password"
	// MsgLoginError is an exported constant or variable used by the session machine.
	MsgLoginError = "An error occurred. Please try again."
	// MsgLoginTimeout is an exported constant or variable used by the session machine.
	MsgLoginTimeout = "Login timed out. Please try again."
)

// Principal identifies the authenticated subject. The machine owns the live
// Principal exclusively while a session is active; callers and the session
// store only ever receive copies, never aliases.
type Principal struct {
	ID         string
	Name       string
	Email      string
	Role       role.Role
	ManagerID  string
	TeamLeadID string
	Department string
	Avatar     string
	CreatedAt  time.Time
}

// ProfileUpdate carries the mutable profile fields for
// [Machine.UpdateProfile]. Nil fields are left untouched. Role, ID, and
// email are deliberately absent: they can never change through a profile
// update.
type ProfileUpdate struct {
	Name       *string
	Department *string
	Avatar     *string
}

// IdentityProvider is the external credential verifier. The machine treats
// any Principal it returns as already role-assigned and trustworthy;
// rejected credentials must fail with [ErrInvalidCredentials].
//
// Verify must honor ctx cancellation: the machine bounds the call with the
// configured deadline and maps expiry to a timeout failure.
type IdentityProvider interface {
	Verify(ctx context.Context, email, password string) (Principal, error)
}

// SessionStore abstracts the durable slot holding at most one persisted
// session record. *session.Store is the Redis-backed implementation wired
// by [Builder.Build]; tests may substitute their own.
type SessionStore interface {
	Load(ctx context.Context) (*session.Record, error)
	Save(ctx context.Context, rec *session.Record) error
	Clear(ctx context.Context) error
}

func recordFromPrincipal(p Principal) *session.Record {
	return &session.Record{
		ID:         p.ID,
		Name:       p.Name,
		Email:      p.Email,
		Role:       p.Role,
		ManagerID:  p.ManagerID,
		TeamLeadID: p.TeamLeadID,
		Department: p.Department,
		Avatar:     p.Avatar,
		CreatedAt:  p.CreatedAt.Unix(),
	}
}

func principalFromRecord(rec *session.Record) Principal {
	return Principal{
		ID:         rec.ID,
		Name:       rec.Name,
		Email:      rec.Email,
		Role:       rec.Role,
		ManagerID:  rec.ManagerID,
		TeamLeadID: rec.TeamLeadID,
		Department: rec.Department,
		Avatar:     rec.Avatar,
		CreatedAt:  time.Unix(rec.CreatedAt, 0).UTC(),
	}
}
