// Copyright 2019 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics provides Prometheus instrumentation for comparisons.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/googlegenomics/varcompare/internal/report"
)

// Metrics tracks comparison outcomes, the roles of reported errors and the
// duration of each comparison.
type Metrics struct {
	Comparisons *prometheus.CounterVec
	Errors      *prometheus.CounterVec
	Duration    prometheus.Histogram
}

// New registers the comparison metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Comparisons: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "varcompare_comparisons_total",
			Help: "Total number of comparisons by outcome (a relation or \"errors\")",
		}, []string{"outcome"}),
		Errors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "varcompare_errors_total",
			Help: "Total number of error records reported by role and code",
		}, []string{"role", "code"}),
		Duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "varcompare_compare_duration_seconds",
			Help:    "Duration of comparisons, including reference retrieval",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}

// Outcome label values besides the relations themselves.
const (
	OutcomeErrors = "errors"
	OutcomeOther  = "other"
)

// relations are the relations recorded under their own outcome label.  Any
// other relation returned by the algebra service is recorded as OutcomeOther.
var relations = map[string]bool{
	"equivalent":   true,
	"contains":     true,
	"is_contained": true,
	"overlap":      true,
	"disjoint":     true,
}

// ObserveRelation records a successful comparison started at start.
func (m *Metrics) ObserveRelation(relation string, start time.Time) {
	if !relations[relation] {
		relation = OutcomeOther
	}
	m.Comparisons.WithLabelValues(relation).Inc()
	m.Duration.Observe(time.Since(start).Seconds())
}

// ObserveErrors records a comparison started at start that failed with b.
func (m *Metrics) ObserveErrors(b report.Bundle, start time.Time) {
	m.Comparisons.WithLabelValues(OutcomeErrors).Inc()
	for role, records := range b {
		for _, r := range records {
			m.Errors.WithLabelValues(string(role), string(r.Code)).Inc()
		}
	}
	m.Duration.Observe(time.Since(start).Seconds())
}
