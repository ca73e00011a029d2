package internaldefs

import (
	"github.com/okhara/roleauth"
)

// CounterDef binds a metric ID to its stable exported name.
type CounterDef struct {
	ID   roleauth.MetricID
	Name string
	Help string
}

// HistogramDef binds a histogram metric ID to its stable exported name.
type HistogramDef struct {
	ID   roleauth.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the metric exporters.
var CounterDefs = []CounterDef{
	{ID: roleauth.MetricLoginSuccess, Name: "roleauth_login_success_total", Help: "Successful login attempts."},
	{ID: roleauth.MetricLoginFailure, Name: "roleauth_login_failure_total", Help: "Failed login attempts."},
	{ID: roleauth.MetricLoginTimeout, Name: "roleauth_login_timeout_total", Help: "Login attempts that exceeded the credential check deadline."},
	{ID: roleauth.MetricLoginRejectedBusy, Name: "roleauth_login_rejected_busy_total", Help: "Login attempts rejected because another transition was in flight."},
	{ID: roleauth.MetricLogout, Name: "roleauth_logout_total", Help: "Logout operations."},
	{ID: roleauth.MetricRestoreHit, Name: "roleauth_restore_hit_total", Help: "Restores that adopted a persisted session."},
	{ID: roleauth.MetricRestoreMiss, Name: "roleauth_restore_miss_total", Help: "Restores that found no persisted session."},
	{ID: roleauth.MetricRestoreCorrupt, Name: "roleauth_restore_corrupt_purged_total", Help: "Restores that purged a corrupt persisted record."},
	{ID: roleauth.MetricProfileUpdate, Name: "roleauth_profile_update_total", Help: "Successful profile updates."},
	{ID: roleauth.MetricProfileUpdateFailure, Name: "roleauth_profile_update_failure_total", Help: "Profile updates that failed to persist."},
}

// HistogramDefs is an exported constant or variable used by the metric exporters.
var HistogramDefs = []HistogramDef{
	{ID: roleauth.MetricLoginLatency, Name: "roleauth_login_latency_seconds", Help: "Login latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the metric exporters.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is an exported constant or variable used by the metric exporters.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets widens a raw bucket slice into the fixed 8-bucket layout.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into cumulative counts.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
