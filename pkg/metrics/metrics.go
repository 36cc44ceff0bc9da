package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "infoex"

var (
	// HTTPRequests total requests by method, route and status
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests handled, by method, route and status code.",
	}, []string{"method", "route", "status"})

	// HTTPDuration request latency by method and route
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	// LeaveRequests leave intake outcomes by code (V, AP, H) and outcome (accepted, conflict, invalid, error)
	LeaveRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "leave_requests_total",
		Help:      "Leave and comp-day requests processed, by code and outcome.",
	}, []string{"code", "outcome"})

	// AttendanceEntries shift-leader entries written
	AttendanceEntries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "attendance_entries_total",
		Help:      "Attendance day records written by shift leaders, by outcome.",
	}, []string{"outcome"})
)
