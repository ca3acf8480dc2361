// Package metrics counts what a load did: how long each step took, how many
// sale records were read, rejected and inserted, and how many insert batches
// went out. Nothing is recorded until main installs a backend; the pushgateway
// and datadog subpackages provide the two real ones.
package metrics

import "time"

// Metric names. Backends switch on these.
const (
	StepTotal           = "loader_step_total"
	StepDurationSeconds = "loader_step_duration_seconds"
	RecordsTotal        = "loader_records_total"
	BatchesTotal        = "loader_batches_total"
)

// Labels tag a sample with job, step, status or record kind.
type Labels map[string]string

// Backend receives every sample recorded during a load.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush is called once after run returns.
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend replaces the active backend. nil is ignored.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush hands the collected samples to the active backend.
func Flush() error {
	return backend.Flush()
}

// RecordStep counts one run of step (load, normalize, create_table or
// insert) and its duration. A non-nil err marks it as a failure.
func RecordStep(job, step string, err error, d time.Duration) {
	lbls := Labels{"job": job, "step": step, "status": "success"}
	if err != nil {
		lbls["status"] = "failure"
	}
	backend.IncCounter(StepTotal, 1, lbls)
	backend.ObserveHistogram(StepDurationSeconds, d.Seconds(), lbls)
}

// RecordRow adds delta sale records of kind loaded, rejected or inserted.
func RecordRow(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(RecordsTotal, float64(delta), Labels{"job": job, "kind": kind})
}

// RecordBatches adds delta insert batches.
func RecordBatches(job string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(BatchesTotal, float64(delta), Labels{"job": job})
}
