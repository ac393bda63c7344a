// Package metrics defines and registers the custom Prometheus metrics of the
// mentorship API. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default registry on package init through
// promauto; echoprometheus exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "mentorship"

// Login results.
const (
	LoginSuccess        = "success"
	LoginBadCredentials = "bad_credentials"
	LoginLocked         = "locked"
	LoginLockTriggered  = "lock_triggered"
	LoginInvalid        = "invalid"
	LoginError          = "error"
)

// Password reset stages.
const (
	ResetRequested = "requested"
	ResetCompleted = "completed"
	ResetRejected  = "rejected"
)

// Session rejection reasons.
const (
	RejectMissing     = "missing"
	RejectInvalid     = "invalid"
	RejectExpired     = "expired"
	RejectAccountGone = "account_gone"
	RejectStale       = "stale"
	RejectForbidden   = "forbidden"
)

// ── Auth metrics ──────────────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Label:
//   - result: success, bad_credentials, locked, lock_triggered, invalid, error
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// SignupsTotal counts accounts created.
// Label:
//   - role: mentee, mentor or admin
var SignupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_signups_total",
		Help:      "Total number of accounts created, by role.",
	},
	[]string{"role"},
)

// PasswordResetsTotal counts password reset activity.
// Label:
//   - stage: requested, completed or rejected
var PasswordResetsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_password_resets_total",
		Help:      "Total number of password reset requests and completions.",
	},
	[]string{"stage"},
)

// SessionRejectionsTotal counts requests turned away by the session or role gate.
// Label:
//   - reason: missing, invalid, expired, account_gone, stale, forbidden
var SessionRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_session_rejections_total",
		Help:      "Total number of requests rejected by the session gate, by reason.",
	},
	[]string{"reason"},
)
