package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okhara/roleauth"
	"github.com/okhara/roleauth/role"
)

func TestVerifyKnownAccounts(t *testing.T) {
	provider := NewStatic()
	ctx := context.Background()

	cases := []struct {
		email string
		id    string
		want  role.Role
	}{
		{"master@example.com", "1", role.Master},
		{"admin@example.com", "2", role.Admin},
		{"manager@example.com", "3", role.Manager},
		{"tl@example.com", "4", role.TeamLead},
		{"user@example.com", "5", role.User},
	}

	for _, tc := range cases {
		p, err := provider.Verify(ctx, tc.email, "password")
		if err != nil {
			t.Fatalf("Verify(%q): %v", tc.email, err)
		}
		if p.ID != tc.id {
			t.Fatalf("Verify(%q) id = %q, want %q", tc.email, p.ID, tc.id)
		}
		if p.Role != tc.want {
			t.Fatalf("Verify(%q) role = %v, want %v", tc.email, p.Role, tc.want)
		}
	}
}

func TestVerifyReportingChain(t *testing.T) {
	provider := NewStatic()

	p, err := provider.Verify(context.Background(), "user@example.com", "password")
	if err != nil {
		t.Fatal(err)
	}
	if p.ManagerID != "3" || p.TeamLeadID != "4" {
		t.Fatalf("unexpected reporting chain: manager=%q tl=%q", p.ManagerID, p.TeamLeadID)
	}
}

func TestVerifyNormalizesEmail(t *testing.T) {
	provider := NewStatic()

	if _, err := provider.Verify(context.Background(), "  Admin@Example.COM ", "password"); err != nil {
		t.Fatalf("normalized email rejected: %v", err)
	}
}

func TestVerifyRejectsBadCredentials(t *testing.T) {
	provider := NewStatic()
	ctx := context.Background()

	if _, err := provider.Verify(ctx, "admin@example.com", "wrong"); !errors.Is(err, roleauth.ErrInvalidCredentials) {
		t.Fatalf("wrong password: got %v, want ErrInvalidCredentials", err)
	}
	if _, err := provider.Verify(ctx, "nobody@example.com", "password"); !errors.Is(err, roleauth.ErrInvalidCredentials) {
		t.Fatalf("unknown email: got %v, want ErrInvalidCredentials", err)
	}
}

func TestVerifyHonorsContext(t *testing.T) {
	provider := NewStatic()
	provider.Latency = 500 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := provider.Verify(ctx, "admin@example.com", "password")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("got %v, want context.DeadlineExceeded", err)
	}
	if elapsed := time.Since(start); elapsed >= 500*time.Millisecond {
		t.Fatalf("Verify did not return early, took %v", elapsed)
	}
}
