// Package metrics records run statistics and exports them in the node
// exporter textfile format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/telhawk-systems/logblock/internal/models"
)

// Recorder holds the metrics of a single run on its own registry. It
// satisfies service.RunObserver.
type Recorder struct {
	registry *prometheus.Registry

	RecordsIngested  prometheus.Counter
	IngestionSkipped prometheus.Counter
	Decisions        *prometheus.GaugeVec
	PhaseDuration    *prometheus.GaugeVec
	LastRunSuccess   prometheus.Gauge
	LastRunTimestamp prometheus.Gauge
}

func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,

		RecordsIngested: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "logblock_records_ingested_total",
				Help: "Number of access log records stored by the run",
			},
		),

		IngestionSkipped: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "logblock_ingestion_skipped_total",
				Help: "Runs that found the access log already ingested",
			},
		),

		Decisions: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "logblock_block_decisions",
				Help: "Block decisions recorded by the last run",
			},
			[]string{"duration"},
		),

		PhaseDuration: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "logblock_phase_duration_seconds",
				Help: "Wall time spent in each run phase",
			},
			[]string{"phase"},
		),

		LastRunSuccess: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "logblock_last_run_success",
				Help: "1 if the last run completed, 0 if it failed",
			},
		),

		LastRunTimestamp: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "logblock_last_run_timestamp_seconds",
				Help: "Unix time the last run finished",
			},
		),
	}
}

func (r *Recorder) ObservePhase(phase string, elapsed time.Duration) {
	r.PhaseDuration.WithLabelValues(phase).Set(elapsed.Seconds())
}

func (r *Recorder) ObserveIngestion(records int64, skipped bool) {
	if skipped {
		r.IngestionSkipped.Inc()
		return
	}
	r.RecordsIngested.Add(float64(records))
}

func (r *Recorder) ObserveDecisions(w models.Window, count int) {
	r.Decisions.WithLabelValues(w.Duration.String()).Set(float64(count))
}

// RunFinished records the outcome of the run at now.
func (r *Recorder) RunFinished(err error, now time.Time) {
	if err != nil {
		r.LastRunSuccess.Set(0)
	} else {
		r.LastRunSuccess.Set(1)
	}
	r.LastRunTimestamp.Set(float64(now.Unix()))
}

// WriteTextfile atomically writes all metrics to path.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
