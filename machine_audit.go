package roleauth

import (
	"context"
	"errors"
	"time"

	"github.com/okhara/roleauth/session"
)

const (
	auditEventLoginSuccess         = "login_success"
	auditEventLoginFailure         = "login_failure"
	auditEventLoginTimeout         = "login_timeout"
	auditEventLogout               = "logout"
	auditEventRestoreHit           = "restore_hit"
	auditEventRestoreMiss          = "restore_miss"
	auditEventRestoreCorruptPurged = "restore_corrupt_purged"
	auditEventProfileUpdate        = "profile_update"
)

// AuditErrorCode is the stable machine-readable failure classification
// carried in [AuditEvent].Error.
type AuditErrorCode string

const (
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrTimeout            AuditErrorCode = "timeout"
	auditErrBusy               AuditErrorCode = "busy"
	auditErrCorruptRecord      AuditErrorCode = "corrupt_record"
	auditErrNotAuthenticated   AuditErrorCode = "not_authenticated"
	auditErrStoreUnavailable   AuditErrorCode = "store_unavailable"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (m *Machine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	email string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if m == nil || m.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		UserID:    userID,
		Email:     email,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	m.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrLoginTimeout):
		return auditErrTimeout
	case errors.Is(err, ErrSessionBusy):
		return auditErrBusy
	case errors.Is(err, session.ErrCorruptRecord):
		return auditErrCorruptRecord
	case errors.Is(err, ErrNotAuthenticated):
		return auditErrNotAuthenticated
	case errors.Is(err, session.ErrStoreUnavailable):
		return auditErrStoreUnavailable
	default:
		return auditErrInternal
	}
}
