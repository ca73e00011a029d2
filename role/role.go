package role

import (
	"errors"
	"fmt"
)

// ErrInvalidRole is returned when a value outside the enumerated role set is
// used. It indicates corrupt or tampered input, never a programming error in
// a well-behaved caller.
var ErrInvalidRole = errors.New("invalid role")

// Role is one of the closed, totally ordered set of management roles.
//
// The underlying value doubles as the hierarchy level: user=0, tl=1,
// manager=2, admin=3, master=4. The zero value is [User].
type Role uint8

const (
	// User is an exported constant or variable used by the role hierarchy.
	User Role = iota
	// TeamLead is an exported constant or variable used by the role hierarchy.
	TeamLead
	// Manager is an exported constant or variable used by the role hierarchy.
	Manager
	// Admin is an exported constant or variable used by the role hierarchy.
	Admin
	// Master is an exported constant or variable used by the role hierarchy.
	Master

	roleCount
)

var roleNames = [roleCount]string{
	User:     "user",
	TeamLead: "tl",
	Manager:  "manager",
	Admin:    "admin",
	Master:   "master",
}

// Valid reports whether r is a member of the enumerated role set.
func (r Role) Valid() bool {
	return r < roleCount
}

// String returns the wire name of the role ("user", "tl", "manager",
// "admin", "master"), or "invalid" for out-of-set values.
func (r Role) String() string {
	if !r.Valid() {
		return "invalid"
	}
	return roleNames[r]
}

// Parse maps a wire name back to its Role. Unknown names fail with
// [ErrInvalidRole].
func Parse(s string) (Role, error) {
	for r := Role(0); r < roleCount; r++ {
		if roleNames[r] == s {
			return r, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidRole, s)
}

// Level returns the hierarchy level of r: master=4, admin=3, manager=2,
// tl=1, user=0. The mapping is total and injective over the closed set;
// out-of-set values fail with [ErrInvalidRole].
func Level(r Role) (int, error) {
	if !r.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidRole, uint8(r))
	}
	return int(r), nil
}

// CanManage reports whether acting may administer target. Authorization
// requires a strictly greater level: equal levels never authorize
// management, so the relation is irreflexive and no role manages itself.
//
// Both inputs are validated; a role outside the enumerated set fails with
// [ErrInvalidRole]. That should not occur given a closed set, but inputs may
// arrive from untrusted deserialization such as a tampered persisted session.
func CanManage(acting, target Role) (bool, error) {
	actingLevel, err := Level(acting)
	if err != nil {
		return false, err
	}
	targetLevel, err := Level(target)
	if err != nil {
		return false, err
	}
	return actingLevel > targetLevel, nil
}

// All returns every role in ascending level order.
func All() []Role {
	out := make([]Role, 0, roleCount)
	for r := Role(0); r < roleCount; r++ {
		out = append(out, r)
	}
	return out
}
