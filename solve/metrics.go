// Copyright 2010-2024 Google LLC
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package solve

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects run instrumentation on a private registry. A nil *Metrics records nothing.
type Metrics struct {
	registry      *prometheus.Registry
	variables     prometheus.Gauge
	constraints   prometheus.Gauge
	decisions     prometheus.Gauge
	quality       prometheus.Gauge
	solutions     prometheus.Counter
	runs          *prometheus.CounterVec
	families      *prometheus.GaugeVec
	buildDuration prometheus.Histogram
	solveDuration prometheus.Histogram
}

// NewMetrics registers the run collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	variables := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "vacations_model_variables",
		Help: "Number of variables of the last compiled model",
	})
	constraints := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "vacations_model_constraints",
		Help: "Number of constraints of the last compiled model",
	})
	decisions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "vacations_model_decision_variables",
		Help: "Number of (student, discipline, slot) variables of the last compiled model",
	})
	quality := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "vacations_quality_score",
		Help: "Normalized score of the last run, 0 to 100",
	})
	solutions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vacations_solutions_total",
		Help: "Improving solutions reported by the backend",
	})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vacations_runs_total",
		Help: "Finished runs by terminal status",
	}, []string{"status"})
	families := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "vacations_family_constraints",
		Help: "Constraints emitted per family in the last compiled model",
	}, []string{"family"})
	buildDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "vacations_build_duration_seconds",
		Help:    "Model build duration in seconds",
		Buckets: prometheus.DefBuckets,
	})
	solveDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "vacations_solve_duration_seconds",
		Help:    "Solve duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})

	registry.MustRegister(variables, constraints, decisions, quality, solutions, runs, families, buildDuration, solveDuration)

	return &Metrics{
		registry:      registry,
		variables:     variables,
		constraints:   constraints,
		decisions:     decisions,
		quality:       quality,
		solutions:     solutions,
		runs:          runs,
		families:      families,
		buildDuration: buildDuration,
		solveDuration: solveDuration,
	}
}

// Gatherer exposes the registry, for instance to prometheus.WriteToTextfile.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	if m == nil {
		return prometheus.NewRegistry()
	}
	return m.registry
}

// WriteToTextfile writes the collected metrics in the text exposition format.
func (m *Metrics) WriteToTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Gatherer())
}

func (m *Metrics) observeBuild(r *Result) {
	if m == nil || r.Compiled == nil {
		return
	}
	st := r.Compiled.Model.Stats()
	m.variables.Set(float64(st.Variables))
	m.constraints.Set(float64(st.Constraints))
	m.decisions.Set(float64(r.Compiled.Vars.Len()))
	for f, n := range r.Compiled.FamilyCounts {
		m.families.WithLabelValues(string(f)).Set(float64(n))
	}
	m.buildDuration.Observe(r.BuildTime.Seconds())
}

func (m *Metrics) observeSolution() {
	if m == nil {
		return
	}
	m.solutions.Inc()
}

func (m *Metrics) observeRun(r *Result) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(r.Status.String()).Inc()
	if r.Response != nil {
		m.solveDuration.Observe(r.SolveTime.Seconds())
	}
	m.quality.Set(r.Quality)
}
