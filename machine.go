package roleauth

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/okhara/roleauth/role"
	"github.com/okhara/roleauth/session"
)

// Machine is the single-writer session lifecycle state machine. All
// transitions funnel through one operation lock; a transition attempted
// while another is in flight is rejected with [ErrSessionBusy] rather than
// queued.
//
// Reads (Phase, Principal, LastError, CanManage) never wait on in-flight
// transitions: they observe the last committed state.
//
//	Docs: docs/lifecycle.md
type Machine struct {
	config   Config
	store    SessionStore
	provider IdentityProvider

	audit   *auditDispatcher
	metrics *Metrics

	// op serializes transitions; mu guards the committed state below.
	op sync.Mutex
	mu sync.RWMutex

	phase     Phase
	principal *Principal
	errMsg    string
}

// Phase reports the machine's current lifecycle phase.
func (m *Machine) Phase() Phase {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.phase
}

// Principal returns a copy of the authenticated subject, or false when no
// session is active.
func (m *Machine) Principal() (Principal, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.principal == nil {
		return Principal{}, false
	}
	return *m.principal, true
}

// LastError returns the human-readable message of the most recent failed
// transition. It is empty outside [PhaseFailed].
func (m *Machine) LastError() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.errMsg
}

// CanManage reports whether the authenticated principal outranks target in
// the role hierarchy. It is false when no session is active or target is
// not a defined role.
func (m *Machine) CanManage(target role.Role) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.principal == nil {
		return false
	}
	ok, err := role.CanManage(m.principal.Role, target)
	if err != nil {
		return false
	}
	return ok
}

func (m *Machine) setState(phase Phase, principal *Principal, errMsg string) {
	m.mu.Lock()
	m.phase = phase
	m.principal = principal
	m.errMsg = errMsg
	m.mu.Unlock()
}

// Login verifies credentials and, on success, persists the session record
// and transitions to [PhaseAuthenticated]. The persisted record is written
// before the in-memory state changes, so a crashed write never leaves a
// live session without a durable record.
//
// While a session is already active Login is a no-op: the active session is
// kept and no credential check runs. A Login overlapping another transition
// fails with [ErrSessionBusy] and leaves all state untouched.
func (m *Machine) Login(ctx context.Context, email, password string) error {
	if m == nil || m.store == nil || m.provider == nil {
		return ErrMachineNotReady
	}
	if !m.op.TryLock() {
		m.metricInc(MetricLoginRejectedBusy)
		m.emitAudit(ctx, auditEventLoginFailure, false, "", email, ErrSessionBusy, nil)
		return ErrSessionBusy
	}
	defer m.op.Unlock()

	if m.Phase() == PhaseAuthenticated {
		return nil
	}

	start := time.Now()
	m.setState(PhaseAuthenticating, nil, "")

	vctx := ctx
	cancel := func() {}
	if timeout := m.config.Login.VerifyTimeout; timeout > 0 {
		vctx, cancel = context.WithTimeout(ctx, timeout)
	}
	principal, err := m.provider.Verify(vctx, email, password)
	cancel()

	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded), vctx.Err() == context.DeadlineExceeded:
			m.setState(PhaseFailed, nil, MsgLoginTimeout)
			m.metricInc(MetricLoginTimeout)
			m.emitAudit(ctx, auditEventLoginTimeout, false, "", email, ErrLoginTimeout, nil)
			return ErrLoginTimeout
		case errors.Is(err, ErrInvalidCredentials):
			m.setState(PhaseFailed, nil, MsgInvalidCredentials)
			m.metricInc(MetricLoginFailure)
			m.emitAudit(ctx, auditEventLoginFailure, false, "", email, ErrInvalidCredentials, nil)
			return ErrInvalidCredentials
		default:
			m.setState(PhaseFailed, nil, MsgLoginError)
			m.metricInc(MetricLoginFailure)
			m.emitAudit(ctx, auditEventLoginFailure, false, "", email, err, nil)
			return err
		}
	}

	if err := m.store.Save(ctx, recordFromPrincipal(principal)); err != nil {
		log.Print("roleauth: session save failed: ", err)
		m.setState(PhaseFailed, nil, MsgLoginError)
		m.metricInc(MetricLoginFailure)
		m.emitAudit(ctx, auditEventLoginFailure, false, principal.ID, email, err, nil)
		return err
	}

	m.setState(PhaseAuthenticated, &principal, "")
	m.metricInc(MetricLoginSuccess)
	m.metricObserve(MetricLoginLatency, time.Since(start))
	m.emitAudit(ctx, auditEventLoginSuccess, true, principal.ID, principal.Email, nil, func() map[string]string {
		return map[string]string{
			"role": principal.Role.String(),
		}
	})
	return nil
}

// Logout clears the persisted record and transitions to
// [PhaseUnauthenticated]. The durable slot is cleared before the in-memory
// state; a clear failure leaves the session active so the two views never
// diverge. Logout from a phase with no active session is a no-op.
func (m *Machine) Logout(ctx context.Context) error {
	if m == nil || m.store == nil {
		return ErrMachineNotReady
	}
	if !m.op.TryLock() {
		return ErrSessionBusy
	}
	defer m.op.Unlock()

	var userID, email string
	if p, ok := m.Principal(); ok {
		userID, email = p.ID, p.Email
	}

	if err := m.store.Clear(ctx); err != nil {
		log.Print("roleauth: session clear failed: ", err)
		return err
	}

	m.setState(PhaseUnauthenticated, nil, "")
	m.metricInc(MetricLogout)
	m.emitAudit(ctx, auditEventLogout, true, userID, email, nil, nil)
	return nil
}

// Restore adopts a previously persisted session, if any. An absent record
// leaves the machine in [PhaseUnauthenticated]. A corrupt record has
// already been purged by the store when Restore observes it; the purge is
// logged and Restore reports success with no session, so a damaged slot
// can never wedge startup.
func (m *Machine) Restore(ctx context.Context) error {
	if m == nil || m.store == nil {
		return ErrMachineNotReady
	}
	if !m.op.TryLock() {
		return ErrSessionBusy
	}
	defer m.op.Unlock()

	rec, err := m.store.Load(ctx)
	if err != nil {
		if errors.Is(err, session.ErrCorruptRecord) {
			log.Print("roleauth: purged corrupt session record: ", err)
			m.setState(PhaseUnauthenticated, nil, "")
			m.metricInc(MetricRestoreCorrupt)
			m.emitAudit(ctx, auditEventRestoreCorruptPurged, false, "", "", err, nil)
			return nil
		}
		return err
	}

	if rec == nil {
		m.setState(PhaseUnauthenticated, nil, "")
		m.metricInc(MetricRestoreMiss)
		m.emitAudit(ctx, auditEventRestoreMiss, true, "", "", nil, nil)
		return nil
	}

	principal := principalFromRecord(rec)
	m.setState(PhaseAuthenticated, &principal, "")
	m.metricInc(MetricRestoreHit)
	m.emitAudit(ctx, auditEventRestoreHit, true, principal.ID, principal.Email, nil, nil)
	return nil
}

// UpdateProfile applies the non-nil fields of update to the authenticated
// principal. The merged record is persisted before the in-memory principal
// changes; a failed save leaves both views on the old profile. Identity
// and role fields are not updatable.
func (m *Machine) UpdateProfile(ctx context.Context, update ProfileUpdate) error {
	if m == nil || m.store == nil {
		return ErrMachineNotReady
	}
	if !m.op.TryLock() {
		return ErrSessionBusy
	}
	defer m.op.Unlock()

	current, ok := m.Principal()
	if !ok || m.Phase() != PhaseAuthenticated {
		return ErrNotAuthenticated
	}

	merged := current
	if update.Name != nil {
		merged.Name = *update.Name
	}
	if update.Department != nil {
		merged.Department = *update.Department
	}
	if update.Avatar != nil {
		merged.Avatar = *update.Avatar
	}

	if err := m.store.Save(ctx, recordFromPrincipal(merged)); err != nil {
		log.Print("roleauth: profile save failed: ", err)
		m.metricInc(MetricProfileUpdateFailure)
		m.emitAudit(ctx, auditEventProfileUpdate, false, current.ID, current.Email, err, nil)
		return err
	}

	m.setState(PhaseAuthenticated, &merged, "")
	m.metricInc(MetricProfileUpdate)
	m.emitAudit(ctx, auditEventProfileUpdate, true, merged.ID, merged.Email, nil, nil)
	return nil
}

// Metrics exposes the machine's metric collector. It is nil-safe for
// callers and never nil on a built machine.
func (m *Machine) Metrics() *Metrics {
	return m.metrics
}

// MetricsSnapshot returns a point-in-time copy of all metrics. Exporters
// under metrics/export consume this instead of reading counters directly.
func (m *Machine) MetricsSnapshot() MetricsSnapshot {
	return m.metrics.Snapshot()
}

// AuditDropped reports how many audit events were discarded under
// backpressure. Zero when auditing is disabled.
func (m *Machine) AuditDropped() uint64 {
	return m.audit.Dropped()
}

// Close releases background resources. It drains and stops the audit
// dispatcher; the machine must not be used afterwards.
func (m *Machine) Close() {
	if m == nil {
		return
	}
	m.audit.Close()
}

func (m *Machine) metricInc(id MetricID) {
	if m.metrics != nil {
		m.metrics.Inc(id)
	}
}

func (m *Machine) metricObserve(id MetricID, d time.Duration) {
	if m.metrics != nil {
		m.metrics.Observe(id, d)
	}
}
