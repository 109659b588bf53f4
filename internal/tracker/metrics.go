// Copyright 2026 The mindrouter Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tracker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	callsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mindrouter",
		Name:      "provider_calls_total",
		Help:      "Provider analysis calls by scenario and outcome.",
	}, []string{"provider", "scenario", "outcome"})

	callDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mindrouter",
		Name:      "provider_call_duration_seconds",
		Help:      "Provider analysis call latency.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"provider"})

	reliabilityGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "mindrouter",
		Name:      "provider_reliability",
		Help:      "Smoothed reliability per provider and scenario.",
	}, []string{"provider", "scenario"})

	tasksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mindrouter",
		Name:      "tasks_total",
		Help:      "Orchestrated tasks by scenario and final state.",
	}, []string{"scenario", "state"})
)

func observeCall(m Metric) {
	outcome := "success"
	if !m.Success {
		outcome = "failure"
	}
	callsTotal.WithLabelValues(m.ProviderID, string(m.Scenario), outcome).Inc()
	callDuration.WithLabelValues(m.ProviderID).Observe(m.ResponseTime.Seconds())
}

func setReliability(provider, scen string, value float64) {
	reliabilityGauge.WithLabelValues(provider, scen).Set(value)
}

// ObserveTask counts a finished task for the metrics endpoint.
func ObserveTask(scen, state string) {
	tasksTotal.WithLabelValues(scen, state).Inc()
}
