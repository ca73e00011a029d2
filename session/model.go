package session

import "github.com/okhara/roleauth/role"

// Record is the persisted projection of an authenticated principal.
//
// Record instances are value snapshots: the store copies them in and out and
// never aliases caller memory. A stored Record is either absent or one
// complete, valid snapshot; partial records cannot exist because the codec
// signs the whole payload.
type Record struct {
	ID         string
	Name       string
	Email      string
	Role       role.Role
	ManagerID  string
	TeamLeadID string
	Department string
	Avatar     string

	CreatedAt int64
}
