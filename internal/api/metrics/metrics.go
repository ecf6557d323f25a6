// Package metrics defines and registers all custom Prometheus metrics for the
// account portal. It is the single source of truth for metric names, labels,
// and help strings. Metrics register with the default registry at import time
// via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "accounts"

// SignUpsTotal counts registration attempts.
// Label:
//   - result: "created", "duplicate", "invalid", "error"
var SignUpsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signups_total",
		Help:      "Total number of registration attempts, by result.",
	},
	[]string{"result"},
)

// SignInsTotal counts sign-in attempts.
// Label:
//   - result: "success", "invalid_credentials", "unconfirmed", "error"
var SignInsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signins_total",
		Help:      "Total number of sign-in attempts, by result.",
	},
	[]string{"result"},
)

// SignOutsTotal counts completed sign-outs.
var SignOutsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signouts_total",
		Help:      "Total number of sign-outs.",
	},
)

// GuardRedirectsTotal counts route-guard redirects.
// Label:
//   - target: the redirect destination ("/login" or "/dashboard")
var GuardRedirectsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_redirects_total",
		Help:      "Total number of navigation-policy redirects, by target.",
	},
	[]string{"target"},
)

// ProfileSavesTotal counts profile upserts.
// Label:
//   - result: "success" or "error"
var ProfileSavesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "profile_saves_total",
		Help:      "Total number of profile save operations, by result.",
	},
	[]string{"result"},
)

// ProfilesCreatedTotal counts lazily created profile rows.
var ProfilesCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "profiles_created_total",
		Help:      "Total number of profile rows created on first load.",
	},
)

// AvatarUploadsTotal counts avatar upload attempts.
// Label:
//   - result: "success", "rejected", "error"
var AvatarUploadsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "avatar_uploads_total",
		Help:      "Total number of avatar uploads, by result.",
	},
	[]string{"result"},
)

// AvatarUploadBytes observes the size of accepted avatar uploads.
var AvatarUploadBytes = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "avatar_upload_bytes",
		Help:      "Size distribution of accepted avatar uploads.",
		Buckets:   prometheus.ExponentialBuckets(1024, 4, 6), // 1KiB .. 1MiB
	},
)
