package utils

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Database metrics, observed by every repository call.
var DBQueryDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "db_query_duration_seconds",
	Help:    "Duration of database queries in seconds.",
	Buckets: prometheus.DefBuckets,
}, []string{"query_type", "repository", "status"})

var DBQueryErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "db_query_errors_total",
	Help: "Total number of failed database queries.",
}, []string{"query_type", "repository"})

// Application activity metrics.
var (
	NewUsersTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_new_users_total",
		Help: "Total number of new user registrations.",
	})
	LoginAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_login_attempts_total",
		Help: "Total number of login attempts (successful and failed).",
	}, []string{"status"}) // status: "success" or "failed"
	OTPIssuedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_otp_issued_total",
		Help: "Total number of OTP codes issued.",
	}, []string{"purpose"})
	OTPVerifiedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_otp_verified_total",
		Help: "Total number of OTP verification attempts.",
	}, []string{"status"}) // status: "success", "invalid", "expired", "locked"
	OrdersPlacedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_orders_placed_total",
		Help: "Total number of orders placed.",
	})
)
