// Package prompush pushes a load's metrics to a Prometheus Pushgateway when
// the run ends. The loader exits right after, so there is nothing to scrape.
// Samples are grouped under the job name.
package prompush

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"salesloader/internal/metrics"
)

var stepLabels = []string{"step", "status"}

// Backend keeps one private registry per load. The zero value drops samples.
type Backend struct {
	gatewayURL string
	jobName    string
	reg        *prometheus.Registry

	stepCounter   *prometheus.CounterVec
	stepDuration  *prometheus.SummaryVec
	recordCounter *prometheus.CounterVec
	batchCounter  prometheus.Counter
}

// NewBackend registers the loader collectors. An empty jobName falls back
// to "salesloader".
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "salesloader"
	}

	b := &Backend{
		gatewayURL: gatewayURL,
		jobName:    jobName,
		reg:        prometheus.NewRegistry(),
		stepCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.StepTotal,
			Help: "Loader steps run, by step and status.",
		}, stepLabels),
		stepDuration: prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Name:       metrics.StepDurationSeconds,
			Help:       "Seconds spent in each loader step.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		}, stepLabels),
		recordCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.RecordsTotal,
			Help: "Sale records loaded, rejected or inserted.",
		}, []string{"kind"}),
		batchCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metrics.BatchesTotal,
			Help: "Insert batches sent to the database.",
		}),
	}

	for _, c := range []prometheus.Collector{b.stepCounter, b.stepDuration, b.recordCounter, b.batchCounter} {
		if err := b.reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register %s: %w", b.jobName, err)
		}
	}
	return b, nil
}

// IncCounter ignores names it has no collector for.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch {
	case name == metrics.StepTotal && b.stepCounter != nil:
		b.stepCounter.WithLabelValues(labels["step"], labels["status"]).Add(delta)
	case name == metrics.RecordsTotal && b.recordCounter != nil:
		b.recordCounter.WithLabelValues(labels["kind"]).Add(delta)
	case name == metrics.BatchesTotal && b.batchCounter != nil:
		b.batchCounter.Add(delta)
	}
}

// ObserveHistogram only tracks step durations.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name == metrics.StepDurationSeconds && b.stepDuration != nil {
		b.stepDuration.WithLabelValues(labels["step"], labels["status"]).Observe(value)
	}
}

// Flush replaces the job's group on the Pushgateway with this registry.
func (b *Backend) Flush() error {
	return push.New(b.gatewayURL, b.jobName).Gatherer(b.reg).Push()
}
