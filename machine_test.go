package roleauth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/okhara/roleauth/role"
	"github.com/okhara/roleauth/session"
)

var testSigningKey = []byte("0123456789abcdef0123456789abcdef")

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, rdb
}

type mockProvider struct {
	principals map[string]Principal
	password   string
	latency    time.Duration
	err        error
}

func newMockProvider() *mockProvider {
	created := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	return &mockProvider{
		password: "password",
		principals: map[string]Principal{
			"master@example.com": {
				ID: "1", Name: "Master User", Email: "master@example.com",
				Role: role.Master, CreatedAt: created,
			},
			"admin@example.com": {
				ID: "2", Name: "Admin User", Email: "admin@example.com",
				Role: role.Admin, CreatedAt: created,
			},
			"user@example.com": {
				ID: "5", Name: "Basic User", Email: "user@example.com",
				Role: role.User, ManagerID: "3", TeamLeadID: "4", CreatedAt: created,
			},
		},
	}
}

func (p *mockProvider) Verify(ctx context.Context, email, password string) (Principal, error) {
	if p.latency > 0 {
		select {
		case <-time.After(p.latency):
		case <-ctx.Done():
			return Principal{}, ctx.Err()
		}
	}
	if p.err != nil {
		return Principal{}, p.err
	}
	principal, ok := p.principals[email]
	if !ok || password != p.password {
		return Principal{}, ErrInvalidCredentials
	}
	return principal, nil
}

func newTestMachine(t *testing.T, mutate func(*Config), opts ...func(*Builder)) (*Machine, *miniredis.Miniredis, func()) {
	t.Helper()

	mr, rdb := newTestRedis(t)

	cfg := defaultConfig()
	cfg.Session.SigningKey = testSigningKey
	if mutate != nil {
		mutate(&cfg)
	}

	builder := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithIdentityProvider(newMockProvider())
	for _, opt := range opts {
		opt(builder)
	}

	m, err := builder.Build()
	if err != nil {
		mr.Close()
		t.Fatalf("Build failed: %v", err)
	}

	return m, mr, func() {
		m.Close()
		mr.Close()
	}
}

func TestLoginSuccess(t *testing.T) {
	m, mr, done := newTestMachine(t, nil)
	defer done()

	if err := m.Login(context.Background(), "master@example.com", "password"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if got := m.Phase(); got != PhaseAuthenticated {
		t.Fatalf("phase = %v, want %v", got, PhaseAuthenticated)
	}
	p, ok := m.Principal()
	if !ok {
		t.Fatal("no principal after login")
	}
	if p.Role != role.Master || p.ID != "1" {
		t.Fatalf("unexpected principal %+v", p)
	}
	if m.LastError() != "" {
		t.Fatalf("LastError = %q, want empty", m.LastError())
	}
	if !mr.Exists("ras:session") {
		t.Fatal("session record was not persisted")
	}
	if got := m.Metrics().Value(MetricLoginSuccess); got != 1 {
		t.Fatalf("login success metric = %d, want 1", got)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	m, mr, done := newTestMachine(t, nil)
	defer done()

	err := m.Login(context.Background(), "master@example.com", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("got %v, want ErrInvalidCredentials", err)
	}

	if got := m.Phase(); got != PhaseFailed {
		t.Fatalf("phase = %v, want %v", got, PhaseFailed)
	}
	if got := m.LastError(); got != MsgInvalidCredentials {
		t.Fatalf("LastError = %q, want %q", got, MsgInvalidCredentials)
	}
	if _, ok := m.Principal(); ok {
		t.Fatal("principal present after failed login")
	}
	if mr.Exists("ras:session") {
		t.Fatal("record persisted for a failed login")
	}
}

func TestLoginProviderError(t *testing.T) {
	m, _, done := newTestMachine(t, nil)
	defer done()

	provider := newMockProvider()
	provider.err = errors.New("directory unreachable")
	m.provider = provider

	err := m.Login(context.Background(), "master@example.com", "password")
	if err == nil || errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("got %v, want opaque provider error", err)
	}
	if got := m.LastError(); got != MsgLoginError {
		t.Fatalf("LastError = %q, want %q", got, MsgLoginError)
	}
	if got := m.Phase(); got != PhaseFailed {
		t.Fatalf("phase = %v, want %v", got, PhaseFailed)
	}
}

func TestLoginTimeout(t *testing.T) {
	m, _, done := newTestMachine(t, func(cfg *Config) {
		cfg.Login.VerifyTimeout = 20 * time.Millisecond
	})
	defer done()

	provider := newMockProvider()
	provider.latency = 500 * time.Millisecond
	m.provider = provider

	err := m.Login(context.Background(), "master@example.com", "password")
	if !errors.Is(err, ErrLoginTimeout) {
		t.Fatalf("got %v, want ErrLoginTimeout", err)
	}
	if got := m.LastError(); got != MsgLoginTimeout {
		t.Fatalf("LastError = %q, want %q", got, MsgLoginTimeout)
	}
	if got := m.Phase(); got != PhaseFailed {
		t.Fatalf("phase = %v, want %v", got, PhaseFailed)
	}
	if got := m.Metrics().Value(MetricLoginTimeout); got != 1 {
		t.Fatalf("timeout metric = %d, want 1", got)
	}
}

func TestLoginWhileAuthenticatedIsNoOp(t *testing.T) {
	m, _, done := newTestMachine(t, nil)
	defer done()

	ctx := context.Background()
	if err := m.Login(ctx, "master@example.com", "password"); err != nil {
		t.Fatalf("first login: %v", err)
	}

	// second attempt, even with bad credentials, must not disturb the session
	if err := m.Login(ctx, "master@example.com", "wrong"); err != nil {
		t.Fatalf("repeat login: %v", err)
	}
	if got := m.Phase(); got != PhaseAuthenticated {
		t.Fatalf("phase = %v, want %v", got, PhaseAuthenticated)
	}
	p, _ := m.Principal()
	if p.ID != "1" {
		t.Fatalf("principal changed to %+v", p)
	}
}

func TestLoginRejectedWhileBusy(t *testing.T) {
	m, _, done := newTestMachine(t, func(cfg *Config) {
		cfg.Login.VerifyTimeout = time.Second
	})
	defer done()

	provider := newMockProvider()
	provider.latency = 200 * time.Millisecond
	m.provider = provider

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = m.Login(context.Background(), "master@example.com", "password")
	}()

	time.Sleep(50 * time.Millisecond)
	err := m.Login(context.Background(), "admin@example.com", "password")
	if !errors.Is(err, ErrSessionBusy) {
		t.Fatalf("got %v, want ErrSessionBusy", err)
	}
	wg.Wait()

	// the in-flight attempt must have completed untouched
	if got := m.Phase(); got != PhaseAuthenticated {
		t.Fatalf("phase = %v, want %v", got, PhaseAuthenticated)
	}
	p, _ := m.Principal()
	if p.ID != "1" {
		t.Fatalf("busy rejection disturbed winner: %+v", p)
	}
	if got := m.Metrics().Value(MetricLoginRejectedBusy); got != 1 {
		t.Fatalf("busy metric = %d, want 1", got)
	}
}

func TestReadsDoNotBlockDuringLogin(t *testing.T) {
	m, _, done := newTestMachine(t, func(cfg *Config) {
		cfg.Login.VerifyTimeout = time.Second
	})
	defer done()

	provider := newMockProvider()
	provider.latency = 200 * time.Millisecond
	m.provider = provider

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = m.Login(context.Background(), "master@example.com", "password")
	}()

	time.Sleep(50 * time.Millisecond)
	readStart := time.Now()
	phase := m.Phase()
	if elapsed := time.Since(readStart); elapsed > 50*time.Millisecond {
		t.Fatalf("Phase() blocked for %v during login", elapsed)
	}
	if phase != PhaseAuthenticating {
		t.Fatalf("phase during login = %v, want %v", phase, PhaseAuthenticating)
	}
	wg.Wait()
}

func TestLogoutClearsSession(t *testing.T) {
	m, mr, done := newTestMachine(t, nil)
	defer done()

	ctx := context.Background()
	if err := m.Login(ctx, "master@example.com", "password"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := m.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}

	if got := m.Phase(); got != PhaseUnauthenticated {
		t.Fatalf("phase = %v, want %v", got, PhaseUnauthenticated)
	}
	if _, ok := m.Principal(); ok {
		t.Fatal("principal survived logout")
	}
	if mr.Exists("ras:session") {
		t.Fatal("persisted record survived logout")
	}

	// logout without a session stays a no-op
	if err := m.Logout(ctx); err != nil {
		t.Fatalf("repeat logout: %v", err)
	}
}

func TestLogoutStoreFailureKeepsSession(t *testing.T) {
	m, mr, done := newTestMachine(t, nil)
	defer done()

	ctx := context.Background()
	if err := m.Login(ctx, "master@example.com", "password"); err != nil {
		t.Fatalf("login: %v", err)
	}

	mr.Close()
	if err := m.Logout(ctx); err == nil {
		t.Fatal("logout succeeded against a dead store")
	}
	if got := m.Phase(); got != PhaseAuthenticated {
		t.Fatalf("phase = %v, want session kept (%v)", got, PhaseAuthenticated)
	}
}

func TestRestoreAdoptsPersistedSession(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	cfg := defaultConfig()
	cfg.Session.SigningKey = testSigningKey

	first, err := New().WithConfig(cfg).WithRedis(rdb).WithIdentityProvider(newMockProvider()).Build()
	if err != nil {
		t.Fatalf("build first: %v", err)
	}
	defer first.Close()

	ctx := context.Background()
	if err := first.Login(ctx, "user@example.com", "password"); err != nil {
		t.Fatalf("login: %v", err)
	}

	second, err := New().WithConfig(cfg).WithRedis(rdb).WithIdentityProvider(newMockProvider()).Build()
	if err != nil {
		t.Fatalf("build second: %v", err)
	}
	defer second.Close()

	if err := second.Restore(ctx); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if got := second.Phase(); got != PhaseAuthenticated {
		t.Fatalf("phase = %v, want %v", got, PhaseAuthenticated)
	}
	p, _ := second.Principal()
	if p.ID != "5" || p.ManagerID != "3" || p.TeamLeadID != "4" {
		t.Fatalf("restored principal = %+v", p)
	}
	if got := second.Metrics().Value(MetricRestoreHit); got != 1 {
		t.Fatalf("restore hit metric = %d, want 1", got)
	}
}

func TestRestoreAbsentRecord(t *testing.T) {
	m, _, done := newTestMachine(t, nil)
	defer done()

	if err := m.Restore(context.Background()); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if got := m.Phase(); got != PhaseUnauthenticated {
		t.Fatalf("phase = %v, want %v", got, PhaseUnauthenticated)
	}
	if got := m.Metrics().Value(MetricRestoreMiss); got != 1 {
		t.Fatalf("restore miss metric = %d, want 1", got)
	}
}

func TestRestoreCorruptRecordPurges(t *testing.T) {
	m, mr, done := newTestMachine(t, nil)
	defer done()

	if err := mr.Set("ras:session", "definitely-not-a-signed-record"); err != nil {
		t.Fatalf("seed corrupt record: %v", err)
	}

	ctx := context.Background()
	if err := m.Restore(ctx); err != nil {
		t.Fatalf("restore over corrupt record: %v", err)
	}
	if got := m.Phase(); got != PhaseUnauthenticated {
		t.Fatalf("phase = %v, want %v", got, PhaseUnauthenticated)
	}
	if mr.Exists("ras:session") {
		t.Fatal("corrupt record not purged")
	}
	if got := m.Metrics().Value(MetricRestoreCorrupt); got != 1 {
		t.Fatalf("restore corrupt metric = %d, want 1", got)
	}

	// a second restore sees a clean empty slot
	if err := m.Restore(ctx); err != nil {
		t.Fatalf("second restore: %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	m, _, done := newTestMachine(t, nil)
	defer done()

	ctx := context.Background()
	if err := m.Login(ctx, "user@example.com", "password"); err != nil {
		t.Fatalf("login: %v", err)
	}

	name := "Renamed User"
	if err := m.UpdateProfile(ctx, ProfileUpdate{Name: &name}); err != nil {
		t.Fatalf("update: %v", err)
	}

	p, _ := m.Principal()
	if p.Name != "Renamed User" {
		t.Fatalf("name = %q, want %q", p.Name, "Renamed User")
	}
	if p.Email != "user@example.com" || p.Role != role.User || p.ManagerID != "3" {
		t.Fatalf("untouched fields changed: %+v", p)
	}

	// the merged profile must be what a later restore sees
	rec, err := m.store.Load(ctx)
	if err != nil || rec == nil {
		t.Fatalf("load persisted record: rec=%v err=%v", rec, err)
	}
	if rec.Name != "Renamed User" {
		t.Fatalf("persisted name = %q, want %q", rec.Name, "Renamed User")
	}
}

func TestUpdateProfileRequiresSession(t *testing.T) {
	m, _, done := newTestMachine(t, nil)
	defer done()

	name := "Nobody"
	err := m.UpdateProfile(context.Background(), ProfileUpdate{Name: &name})
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("got %v, want ErrNotAuthenticated", err)
	}
}

func TestUpdateProfileStoreFailureKeepsOldProfile(t *testing.T) {
	m, mr, done := newTestMachine(t, nil)
	defer done()

	ctx := context.Background()
	if err := m.Login(ctx, "user@example.com", "password"); err != nil {
		t.Fatalf("login: %v", err)
	}

	mr.Close()
	name := "Renamed User"
	if err := m.UpdateProfile(ctx, ProfileUpdate{Name: &name}); err == nil {
		t.Fatal("update succeeded against a dead store")
	}

	p, _ := m.Principal()
	if p.Name != "Basic User" {
		t.Fatalf("in-memory profile changed despite failed save: %q", p.Name)
	}
}

type failingStore struct {
	saveErr error
}

func (f *failingStore) Load(context.Context) (*session.Record, error) { return nil, nil }
func (f *failingStore) Save(context.Context, *session.Record) error  { return f.saveErr }
func (f *failingStore) Clear(context.Context) error                  { return nil }

func TestLoginSaveFailureResolvesToFailed(t *testing.T) {
	store := &failingStore{saveErr: errors.New("write refused")}

	cfg := defaultConfig()
	m, err := New().
		WithConfig(cfg).
		WithSessionStore(store).
		WithIdentityProvider(newMockProvider()).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer m.Close()

	if err := m.Login(context.Background(), "master@example.com", "password"); err == nil {
		t.Fatal("login succeeded despite failed save")
	}
	if got := m.Phase(); got != PhaseFailed {
		t.Fatalf("phase = %v, want %v", got, PhaseFailed)
	}
	if got := m.LastError(); got != MsgLoginError {
		t.Fatalf("LastError = %q, want %q", got, MsgLoginError)
	}
	if _, ok := m.Principal(); ok {
		t.Fatal("principal adopted despite failed save")
	}
}

func TestCanManage(t *testing.T) {
	m, _, done := newTestMachine(t, nil)
	defer done()

	if m.CanManage(role.User) {
		t.Fatal("CanManage true with no session")
	}

	if err := m.Login(context.Background(), "admin@example.com", "password"); err != nil {
		t.Fatalf("login: %v", err)
	}

	if !m.CanManage(role.Manager) {
		t.Fatal("admin should manage manager")
	}
	if m.CanManage(role.Admin) {
		t.Fatal("admin must not manage its own rank")
	}
	if m.CanManage(role.Master) {
		t.Fatal("admin must not manage master")
	}
	if m.CanManage(role.Role(99)) {
		t.Fatal("undefined role treated as manageable")
	}
}

func TestFailedLoginThenRetrySucceeds(t *testing.T) {
	m, _, done := newTestMachine(t, nil)
	defer done()

	ctx := context.Background()
	if err := m.Login(ctx, "master@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("got %v, want ErrInvalidCredentials", err)
	}
	if err := m.Login(ctx, "master@example.com", "password"); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
	if got := m.Phase(); got != PhaseAuthenticated {
		t.Fatalf("phase = %v, want %v", got, PhaseAuthenticated)
	}
	if m.LastError() != "" {
		t.Fatalf("LastError = %q after successful retry", m.LastError())
	}
}
