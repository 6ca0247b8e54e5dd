package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loginsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auth_logins_total",
		Help: "Total number of successful logins.",
	})

	registrationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auth_registrations_total",
		Help: "Total number of successful user registrations.",
	})

	refreshesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auth_refreshes_total",
		Help: "Total number of successful token refreshes.",
	})

	revocationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auth_revocations_total",
		Help: "Total number of refresh token revocations.",
	})

	tokenVerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_token_verifications_total",
			Help: "Total number of token verification attempts by type and status.",
		},
		[]string{"type", "status"},
	)
)
