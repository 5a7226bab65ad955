// Package metrics provides Prometheus metrics for the Axion credential core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UnlockAttemptsTotal counts vault unlock attempts by result
	// (success, wrong_password, vault_deleted).
	UnlockAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "axion",
			Name:      "vault_unlock_attempts_total",
			Help:      "Total number of vault unlock attempts",
		},
		[]string{"result"},
	)

	// SelfDestructsTotal counts vault self-destructs triggered by the
	// failed-attempt threshold.
	SelfDestructsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "axion",
			Name:      "vault_self_destructs_total",
			Help:      "Total number of brute-force vault self-destructs",
		},
	)

	// ChannelMessagesTotal counts decoded title-channel messages by type.
	ChannelMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "axion",
			Name:      "autofill_channel_messages_total",
			Help:      "Total number of title-channel messages decoded",
		},
		[]string{"type"},
	)

	// MessagesDiscardedTotal counts messages the coordinator dropped by
	// reason (no_vault, duplicate, bad_payload).
	MessagesDiscardedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "axion",
			Name:      "autofill_messages_discarded_total",
			Help:      "Total number of autofill messages discarded",
		},
		[]string{"reason"},
	)

	// ProbeInstallsTotal counts probe injections into browsed documents.
	ProbeInstallsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "axion",
			Name:      "autofill_probe_installs_total",
			Help:      "Total number of probe installations",
		},
	)

	// FillsTotal counts fill attempts by result (filled, no_form).
	FillsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "axion",
			Name:      "autofill_fills_total",
			Help:      "Total number of credential fill attempts",
		},
		[]string{"result"},
	)

	// SavePromptsTotal counts save-password prompts by outcome
	// (accepted, declined, timeout).
	SavePromptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "axion",
			Name:      "autofill_save_prompts_total",
			Help:      "Total number of save-password prompts",
		},
		[]string{"outcome"},
	)

	// HTTPRequestsTotal counts host API requests by method, path, status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "axion",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration tracks host API request duration.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "axion",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// HTTPRequestsInFlight tracks currently executing host API requests.
	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "axion",
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being served",
		},
	)
)
