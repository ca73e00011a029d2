package identity

import (
	"context"
	"strings"
	"time"

	"github.com/okhara/roleauth"
	"github.com/okhara/roleauth/role"
)

const staticPassword = "password"

// Static is an in-memory [roleauth.IdentityProvider] seeded with one
// account per role. Every account shares the password "password".
//
// Latency, when set, delays each Verify call by that duration while still
// honoring context cancellation; tests use it to exercise timeout paths.
type Static struct {
	Latency time.Duration

	accounts map[string]roleauth.Principal
}

// NewStatic returns a provider with the five fixture accounts.
func NewStatic() *Static {
	created := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	accounts := []roleauth.Principal{
		{
			ID:        "1",
			Name:      "Master User",
			Email:     "master@example.com",
			Role:      role.Master,
			CreatedAt: created,
		},
		{
			ID:        "2",
			Name:      "Admin User",
			Email:     "admin@example.com",
			Role:      role.Admin,
			CreatedAt: created,
		},
		{
			ID:        "3",
			Name:      "Manager User",
			Email:     "manager@example.com",
			Role:      role.Manager,
			CreatedAt: created,
		},
		{
			ID:        "4",
			Name:      "Team Lead",
			Email:     "tl@example.com",
			Role:      role.TeamLead,
			CreatedAt: created,
		},
		{
			ID:         "5",
			Name:       "Basic User",
			Email:      "user@example.com",
			Role:       role.User,
			ManagerID:  "3",
			TeamLeadID: "4",
			CreatedAt:  created,
		},
	}

	byEmail := make(map[string]roleauth.Principal, len(accounts))
	for _, a := range accounts {
		byEmail[a.Email] = a
	}

	return &Static{
		accounts: byEmail,
	}
}

// Verify checks email and password against the fixture directory. Unknown
// emails and wrong passwords both fail with
// [roleauth.ErrInvalidCredentials]; the caller cannot distinguish the two.
func (s *Static) Verify(ctx context.Context, email, password string) (roleauth.Principal, error) {
	if s.Latency > 0 {
		timer := time.NewTimer(s.Latency)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return roleauth.Principal{}, ctx.Err()
		}
	}

	key := strings.ToLower(strings.TrimSpace(email))
	account, ok := s.accounts[key]
	if !ok || password != staticPassword {
		return roleauth.Principal{}, roleauth.ErrInvalidCredentials
	}

	return account, nil
}
