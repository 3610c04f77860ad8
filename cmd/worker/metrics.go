package main

import "github.com/prometheus/client_golang/prometheus"

var (
	ticketsChecked = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sla_tickets_checked_total",
		Help: "Tickets evaluated by the breach sweep.",
	})
	breachesRecorded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sla_breaches_recorded_total",
		Help: "New SLA breach records created.",
	})
	deadlinesAssigned = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sla_deadlines_assigned_total",
		Help: "Tickets that received computed SLA due dates.",
	})
	sweepDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sla_sweep_duration_seconds",
		Help:    "Duration of a full SLA sweep.",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(ticketsChecked, breachesRecorded, deadlinesAssigned, sweepDuration)
}
