package guard

import (
	"github.com/okhara/roleauth"
	"github.com/okhara/roleauth/role"
)

const defaultLoginResource = "/login"

// Decision is the outcome of an access check. When Allowed is false,
// RedirectTo names the resource the caller should navigate to instead.
type Decision struct {
	Allowed    bool
	RedirectTo string
}

// PhaseReader is the slice of the session machine the guard needs for
// entry decisions. *roleauth.Machine satisfies it.
type PhaseReader interface {
	Phase() roleauth.Phase
}

// Authorizer answers role-dominance questions for the active session.
// *roleauth.Machine satisfies it.
type Authorizer interface {
	CanManage(target role.Role) bool
}

// Guard gates entry to protected resources based on session phase.
type Guard struct {
	sessions      PhaseReader
	loginResource string
}

// New creates a Guard over the given session reader. An empty
// loginResource defaults to "/login".
func New(sessions PhaseReader, loginResource string) *Guard {
	if loginResource == "" {
		loginResource = defaultLoginResource
	}
	return &Guard{
		sessions:      sessions,
		loginResource: loginResource,
	}
}

// Authorize decides entry to resource. Only a fully authenticated session
// is allowed through; Unauthenticated, Authenticating, and Failed all
// redirect to the login resource. The denied resource is not carried into
// the redirect: after a later login the caller lands wherever login
// normally leads.
func (g *Guard) Authorize(resource string) Decision {
	if g == nil || g.sessions == nil {
		return Decision{RedirectTo: defaultLoginResource}
	}
	if g.sessions.Phase() != roleauth.PhaseAuthenticated {
		return Decision{RedirectTo: g.loginResource}
	}
	return Decision{Allowed: true}
}

// Requirement is a declarative role predicate evaluated against the
// session's Authorizer.
type Requirement func(a Authorizer) bool

// RequireManages is satisfied when the active principal strictly outranks
// target.
func RequireManages(target role.Role) Requirement {
	return func(a Authorizer) bool {
		if a == nil {
			return false
		}
		return a.CanManage(target)
	}
}

// Evaluate reports whether all requirements hold. With no requirements it
// is trivially true.
func Evaluate(a Authorizer, reqs ...Requirement) bool {
	for _, req := range reqs {
		if req == nil || !req(a) {
			return false
		}
	}
	return true
}
